package api

import (
	"context"
	"net/http"

	"github.com/okian/pwnwatch/internal/domain/types"
)

// DeltasDependencies defines the ranking summary read.
type DeltasDependencies interface {
	Deltas(ctx context.Context, limit int) (types.Deltas, error)
}

// DeltasHandler handles ranking summary requests.
type DeltasHandler struct {
	deps     DeltasDependencies
	maxLimit int
}

// NewDeltasHandler creates a new deltas handler.
func NewDeltasHandler(deps DeltasDependencies, maxLimit int) *DeltasHandler {
	return &DeltasHandler{deps: deps, maxLimit: maxLimit}
}

// HandleGet handles GET /deltas?limit=N requests.
func (h *DeltasHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_deltas"
	n, err := parseLimit(op, r, h.maxLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	d, err := h.deps.Deltas(r.Context(), n)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, d)
}
