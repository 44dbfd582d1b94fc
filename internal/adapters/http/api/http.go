// Package api serves the read-only HTTP API over the tracker state.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/okian/pwnwatch/internal/domain/types"
)

// DefaultMaxLimit caps list endpoints when no limit is configured.
const DefaultMaxLimit = 100

// Dependencies required by HTTP handlers.
type Dependencies interface {
	StatsProvider

	Members(ctx context.Context, limit int) ([]types.Member, error)
	Member(ctx context.Context, id int64) (types.Member, error)
	Deltas(ctx context.Context, limit int) (types.Deltas, error)
}

// Server wires HTTP routes for the read API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	membersHandler *MembersHandler
	deltasHandler  *DeltasHandler
}

// NewServer creates a new API server with all handlers. maxLimit caps the
// limit parameter of list endpoints.
func NewServer(deps Dependencies, maxLimit int) *Server {
	if maxLimit < 1 {
		maxLimit = DefaultMaxLimit
	}
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(deps),
		membersHandler: NewMembersHandler(deps, maxLimit),
		deltasHandler:  NewDeltasHandler(deps, maxLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /members", MetricsMiddleware(s.membersHandler.HandleList, "members"))
	mux.HandleFunc("GET /members/{id}", MetricsMiddleware(s.membersHandler.HandleGet, "member"))
	mux.HandleFunc("GET /deltas", MetricsMiddleware(s.deltasHandler.HandleGet, "deltas"))
}

// Handler returns a mux with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := statusOf(err)
	writeJSON(w, status, errorResponse{Code: code, Message: err.Error()})
}

// parseLimit reads ?limit=N. A missing value yields maxLimit; values
// outside [1, maxLimit] are rejected.
func parseLimit(op string, r *http.Request, maxLimit int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return maxLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxLimit {
		return 0, NewKind(op, ErrBadRequest)
	}
	return n, nil
}
