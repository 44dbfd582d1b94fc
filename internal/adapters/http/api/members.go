package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/pwnwatch/internal/domain/types"
)

// MembersDependencies defines the member read operations.
type MembersDependencies interface {
	Members(ctx context.Context, limit int) ([]types.Member, error)
	Member(ctx context.Context, id int64) (types.Member, error)
}

// MembersHandler handles member requests.
type MembersHandler struct {
	deps     MembersDependencies
	maxLimit int
}

// NewMembersHandler creates a new members handler.
func NewMembersHandler(deps MembersDependencies, maxLimit int) *MembersHandler {
	return &MembersHandler{deps: deps, maxLimit: maxLimit}
}

// HandleList handles GET /members?limit=N requests.
func (h *MembersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_members"
	n, err := parseLimit(op, r, h.maxLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	ms, err := h.deps.Members(r.Context(), n)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

// HandleGet handles GET /members/{id} requests.
func (h *MembersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_member"
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, NewKind(op, ErrBadRequest))
		return
	}
	m, err := h.deps.Member(r.Context(), id)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, m)
}
