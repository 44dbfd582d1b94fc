package platform

import (
	"context"
	"strconv"
	"strings"

	"github.com/okian/pwnwatch/internal/domain/model"
)

type teamMember struct {
	ID     count  `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Points count  `json:"points"`
	Rank   count  `json:"rank"`
}

// TeamMembers returns the remote roster. Records without an id or name are
// passed through so the roster synchronizer can account for them.
func (c *Client) TeamMembers(ctx context.Context) ([]model.Member, error) {
	if c.teamID <= 0 {
		return nil, ErrMissingTeam
	}
	var raw []teamMember
	if err := c.getJSON(ctx, "team_members", "/api/v4/team/members/"+strconv.FormatInt(c.teamID, 10), &raw); err != nil {
		return nil, err
	}

	out := make([]model.Member, 0, len(raw))
	for _, r := range raw {
		out = append(out, model.Member{
			ID:     int64(r.ID),
			Name:   strings.TrimSpace(r.Name),
			Avatar: c.absURL(r.Avatar),
			Points: int(r.Points),
			Rank:   int(r.Rank),
		})
	}
	return out, nil
}
