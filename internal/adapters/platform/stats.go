package platform

import (
	"context"
	"strconv"
	"strings"

	"github.com/okian/pwnwatch/internal/domain/model"
)

type teamInfo struct {
	Name   string `json:"name"`
	Points count  `json:"points"`
}

type teamOwns struct {
	Rank          count `json:"rank"`
	UserOwns      count `json:"user_owns"`
	SystemOwns    count `json:"system_owns"`
	ChallengeOwns count `json:"challenge_owns"`
	FirstBloods   count `json:"first_bloods"`
	Respects      count `json:"respects"`
}

// TeamStats combines the team info and owns endpoints.
func (c *Client) TeamStats(ctx context.Context) (model.TeamStanding, error) {
	if c.teamID <= 0 {
		return model.TeamStanding{}, ErrMissingTeam
	}
	id := strconv.FormatInt(c.teamID, 10)

	var info teamInfo
	if err := c.getJSON(ctx, "team_info", "/api/v4/team/info/"+id, &info); err != nil {
		return model.TeamStanding{}, err
	}
	var owns teamOwns
	if err := c.getJSON(ctx, "team_owns", "/api/v4/team/stats/owns/"+id, &owns); err != nil {
		return model.TeamStanding{}, err
	}

	return model.TeamStanding{
		Name: strings.TrimSpace(info.Name),
		Metrics: model.Metrics{
			Rank:          int(owns.Rank),
			Points:        int(info.Points),
			UserOwns:      int(owns.UserOwns),
			SystemOwns:    int(owns.SystemOwns),
			ChallengeOwns: int(owns.ChallengeOwns),
			Bloods:        int(owns.FirstBloods),
			Respects:      int(owns.Respects),
		},
	}, nil
}

type basicProfile struct {
	Profile struct {
		Name         string `json:"name"`
		Ranking      count  `json:"ranking"`
		Points       count  `json:"points"`
		UserOwns     count  `json:"user_owns"`
		SystemOwns   count  `json:"system_owns"`
		UserBloods   count  `json:"user_bloods"`
		SystemBloods count  `json:"system_bloods"`
		Respects     count  `json:"respects"`
	} `json:"profile"`
}

type challengeProgress struct {
	Profile struct {
		ChallengeOwns struct {
			Solved count `json:"solved"`
		} `json:"challenge_owns"`
	} `json:"profile"`
}

type flagEntry struct {
	OwnedFlags count `json:"owned_flags"`
}

type fortressProgress struct {
	Profile struct {
		Fortresses []flagEntry `json:"fortresses"`
	} `json:"profile"`
}

type endgameProgress struct {
	Profile struct {
		Endgames []flagEntry `json:"endgames"`
	} `json:"profile"`
}

type prolabProgress struct {
	Profile struct {
		Prolabs []flagEntry `json:"prolabs"`
	} `json:"profile"`
}

func sumFlags(entries []flagEntry) int {
	n := 0
	for _, e := range entries {
		n += int(e.OwnedFlags)
	}
	return n
}

// MemberStats gathers one member's counters from the profile endpoints.
// Rank and points come from the basic profile; callers holding fresher
// roster values may override them.
func (c *Client) MemberStats(ctx context.Context, memberID int64) (model.Metrics, error) {
	id := strconv.FormatInt(memberID, 10)

	var basic basicProfile
	if err := c.getJSON(ctx, "member_basic", "/api/v4/user/profile/basic/"+id, &basic); err != nil {
		return model.Metrics{}, err
	}
	var chal challengeProgress
	if err := c.getJSON(ctx, "member_challenges", "/api/v4/user/profile/progress/challenges/"+id, &chal); err != nil {
		return model.Metrics{}, err
	}
	var fort fortressProgress
	if err := c.getJSON(ctx, "member_fortress", "/api/v4/user/profile/progress/fortress/"+id, &fort); err != nil {
		return model.Metrics{}, err
	}
	var end endgameProgress
	if err := c.getJSON(ctx, "member_endgame", "/api/v4/user/profile/progress/endgame/"+id, &end); err != nil {
		return model.Metrics{}, err
	}
	var pro prolabProgress
	if err := c.getJSON(ctx, "member_prolab", "/api/v4/user/profile/progress/prolab/"+id, &pro); err != nil {
		return model.Metrics{}, err
	}

	p := basic.Profile
	return model.Metrics{
		Rank:          int(p.Ranking),
		Points:        int(p.Points),
		UserOwns:      int(p.UserOwns),
		SystemOwns:    int(p.SystemOwns),
		ChallengeOwns: int(chal.Profile.ChallengeOwns.Solved),
		FortressOwns:  sumFlags(fort.Profile.Fortresses),
		EndgameOwns:   sumFlags(end.Profile.Endgames),
		ProlabOwns:    sumFlags(pro.Profile.Prolabs),
		Bloods:        int(p.UserBloods + p.SystemBloods),
		Respects:      int(p.Respects),
	}, nil
}
