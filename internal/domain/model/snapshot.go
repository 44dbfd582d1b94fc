package model

import "time"

// Scope distinguishes team and member ranking snapshots.
type Scope string

const (
	ScopeTeam   Scope = "team"
	ScopeMember Scope = "member"
)

// TeamSubject is the subject id used for team scope rows.
const TeamSubject int64 = 0

// Metrics holds the counters captured in a ranking snapshot.
type Metrics struct {
	Rank          int `json:"rank"`
	Points        int `json:"points"`
	UserOwns      int `json:"user_owns"`
	SystemOwns    int `json:"system_owns"`
	ChallengeOwns int `json:"challenge_owns"`
	FortressOwns  int `json:"fortress_owns"`
	EndgameOwns   int `json:"endgame_owns"`
	ProlabOwns    int `json:"prolab_owns"`
	Bloods        int `json:"bloods"`
	Respects      int `json:"respects"`
}

// Sub returns m - o field by field.
func (m Metrics) Sub(o Metrics) Metrics {
	return Metrics{
		Rank:          m.Rank - o.Rank,
		Points:        m.Points - o.Points,
		UserOwns:      m.UserOwns - o.UserOwns,
		SystemOwns:    m.SystemOwns - o.SystemOwns,
		ChallengeOwns: m.ChallengeOwns - o.ChallengeOwns,
		FortressOwns:  m.FortressOwns - o.FortressOwns,
		EndgameOwns:   m.EndgameOwns - o.EndgameOwns,
		ProlabOwns:    m.ProlabOwns - o.ProlabOwns,
		Bloods:        m.Bloods - o.Bloods,
		Respects:      m.Respects - o.Respects,
	}
}

// RankingSnapshot is one append-only row of captured metrics.
type RankingSnapshot struct {
	Scope     Scope
	SubjectID int64
	Name      string
	Time      time.Time
	Metrics   Metrics
}

// TeamStanding is the team's current name and counters.
type TeamStanding struct {
	Name    string
	Metrics Metrics
}
