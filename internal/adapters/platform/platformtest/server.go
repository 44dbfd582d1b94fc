// Package platformtest runs an in-process fake of the platform API.
package platformtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
)

// Member is a roster record as served by the fake.
type Member struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Points int    `json:"points"`
	Rank   int    `json:"rank"`
}

// Stats are the counters served by the profile and team endpoints.
type Stats struct {
	Name          string
	Rank          int
	Points        int
	UserOwns      int
	SystemOwns    int
	ChallengeOwns int
	Fortress      []int
	Endgame       []int
	Prolab        []int
	UserBloods    int
	SystemBloods  int
	Respects      int
}

// Server is a fake platform. Fields may be changed between requests via the
// setters; the zero value serves empty responses.
type Server struct {
	*httptest.Server

	Token  string
	TeamID int64

	mu       sync.Mutex
	members  []any
	activity map[int64][]any
	team     Stats
	stats    map[int64]Stats
	fail     map[string][]int
	hits     map[string]int
}

// New starts a fake closed at test cleanup.
func New(t testing.TB, token string, teamID int64) *Server {
	t.Helper()
	s := &Server{
		Token:    token,
		TeamID:   teamID,
		activity: map[int64][]any{},
		stats:    map[int64]Stats{},
		fail:     map[string][]int{},
		hits:     map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v4/team/members/{team}", s.route("team_members", s.teamMembers))
	mux.HandleFunc("GET /api/v4/user/profile/activity/{id}", s.route("activity", s.userActivity))
	mux.HandleFunc("GET /api/v4/team/info/{team}", s.route("team_info", s.teamInfo))
	mux.HandleFunc("GET /api/v4/team/stats/owns/{team}", s.route("team_owns", s.teamOwns))
	mux.HandleFunc("GET /api/v4/user/profile/basic/{id}", s.route("member_basic", s.memberBasic))
	mux.HandleFunc("GET /api/v4/user/profile/progress/challenges/{id}", s.route("member_challenges", s.memberChallenges))
	mux.HandleFunc("GET /api/v4/user/profile/progress/fortress/{id}", s.route("member_fortress", s.flags("fortresses", func(st Stats) []int { return st.Fortress })))
	mux.HandleFunc("GET /api/v4/user/profile/progress/endgame/{id}", s.route("member_endgame", s.flags("endgames", func(st Stats) []int { return st.Endgame })))
	mux.HandleFunc("GET /api/v4/user/profile/progress/prolab/{id}", s.route("member_prolab", s.flags("prolabs", func(st Stats) []int { return st.Prolab })))

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// SetMembers replaces the roster. Elements may be Member values or raw maps
// to serve malformed records.
func (s *Server) SetMembers(ms ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = ms
}

// SetActivity replaces a member's feed; records are served newest first as
// given.
func (s *Server) SetActivity(memberID int64, records ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity[memberID] = records
}

// SetTeam sets the team counters.
func (s *Server) SetTeam(st Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.team = st
}

// SetStats sets a member's profile counters.
func (s *Server) SetStats(memberID int64, st Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats[memberID] = st
}

// FailNext makes the next len(codes) requests to endpoint answer with the
// given status codes.
func (s *Server) FailNext(endpoint string, codes ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[endpoint] = append(s.fail[endpoint], codes...)
}

// Hits returns how many requests endpoint has received.
func (s *Server) Hits(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[endpoint]
}

// Activity builds a feed record.
func Activity(date, kind, name, sub string) map[string]any {
	rec := map[string]any{
		"date":        date,
		"date_diff":   "1 hour ago",
		"object_type": kind,
		"type":        sub,
		"id":          1,
		"name":        name,
		"points":      20,
	}
	switch kind {
	case "machine":
		rec["machine_avatar"] = "/storage/avatars/" + name + "_thumb.png"
	case "challenge":
		rec["challenge_category"] = "Web"
	case "fortress", "endgame":
		rec["flag_title"] = "Flag of " + name
	}
	return rec
}

func (s *Server) route(endpoint string, h func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[endpoint]++
		var code int
		if q := s.fail[endpoint]; len(q) > 0 {
			code, s.fail[endpoint] = q[0], q[1:]
		}
		s.mu.Unlock()

		if r.Header.Get("Authorization") != "Bearer "+s.Token {
			http.Error(w, `{"message":"Unauthenticated."}`, http.StatusUnauthorized)
			return
		}
		if code != 0 {
			if code == http.StatusTooManyRequests {
				w.Header().Set("Retry-After", "0")
			}
			http.Error(w, `{"message":"injected"}`, code)
			return
		}
		h(w, r)
	}
}

func (s *Server) teamOK(w http.ResponseWriter, r *http.Request) bool {
	if r.PathValue("team") != strconv.FormatInt(s.TeamID, 10) {
		http.Error(w, `{"message":"team not found"}`, http.StatusNotFound)
		return false
	}
	return true
}

func memberID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id
}

func (s *Server) teamMembers(w http.ResponseWriter, r *http.Request) {
	if !s.teamOK(w, r) {
		return
	}
	s.mu.Lock()
	body := append([]any{}, s.members...)
	s.mu.Unlock()
	writeJSON(w, body)
}

func (s *Server) userActivity(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	recs := append([]any{}, s.activity[memberID(r)]...)
	s.mu.Unlock()
	writeJSON(w, map[string]any{"profile": map[string]any{"activity": recs}})
}

func (s *Server) teamInfo(w http.ResponseWriter, r *http.Request) {
	if !s.teamOK(w, r) {
		return
	}
	s.mu.Lock()
	st := s.team
	s.mu.Unlock()
	writeJSON(w, map[string]any{"id": s.TeamID, "name": st.Name, "points": st.Points})
}

func (s *Server) teamOwns(w http.ResponseWriter, r *http.Request) {
	if !s.teamOK(w, r) {
		return
	}
	s.mu.Lock()
	st := s.team
	s.mu.Unlock()
	writeJSON(w, map[string]any{
		"rank":           st.Rank,
		"user_owns":      st.UserOwns,
		"system_owns":    st.SystemOwns,
		"challenge_owns": st.ChallengeOwns,
		"first_bloods":   st.UserBloods + st.SystemBloods,
		"respects":       st.Respects,
	})
}

func (s *Server) memberStats(r *http.Request) Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats[memberID(r)]
}

func (s *Server) memberBasic(w http.ResponseWriter, r *http.Request) {
	st := s.memberStats(r)
	writeJSON(w, map[string]any{"profile": map[string]any{
		"id":            memberID(r),
		"name":          st.Name,
		"ranking":       st.Rank,
		"points":        st.Points,
		"user_owns":     st.UserOwns,
		"system_owns":   st.SystemOwns,
		"user_bloods":   st.UserBloods,
		"system_bloods": st.SystemBloods,
		"respects":      st.Respects,
	}})
}

func (s *Server) memberChallenges(w http.ResponseWriter, r *http.Request) {
	st := s.memberStats(r)
	writeJSON(w, map[string]any{"profile": map[string]any{
		"challenge_owns": map[string]any{"solved": st.ChallengeOwns, "total": 500},
	}})
}

func (s *Server) flags(key string, pick func(Stats) []int) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := []any{}
		for _, n := range pick(s.memberStats(r)) {
			entries = append(entries, map[string]any{"owned_flags": n, "total_flags": 10})
		}
		writeJSON(w, map[string]any{"profile": map[string]any{key: entries}})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
