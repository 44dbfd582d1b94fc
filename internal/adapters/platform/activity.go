package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/pwnwatch/internal/domain/model"
	"github.com/okian/pwnwatch/pkg/logger"
	"github.com/okian/pwnwatch/pkg/metrics"
)

type activityResponse struct {
	Profile struct {
		Activity []json.RawMessage `json:"activity"`
	} `json:"profile"`
}

type activityRecord struct {
	Date              string `json:"date"`
	ObjectType        string `json:"object_type"`
	Type              string `json:"type"`
	ID                count  `json:"id"`
	Name              string `json:"name"`
	Points            count  `json:"points"`
	MachineAvatar     string `json:"machine_avatar"`
	ChallengeCategory string `json:"challenge_category"`
	FlagTitle         string `json:"flag_title"`
}

// Activity returns a member's feed newest first. Records that fail schema
// validation, carry an unparseable date or an unknown kind are logged,
// counted and dropped.
func (c *Client) Activity(ctx context.Context, memberID int64) ([]model.ActivityEvent, error) {
	var resp activityResponse
	path := "/api/v4/user/profile/activity/" + strconv.FormatInt(memberID, 10)
	if err := c.getJSON(ctx, "activity", path, &resp); err != nil {
		return nil, err
	}

	out := make([]model.ActivityEvent, 0, len(resp.Profile.Activity))
	for i, raw := range resp.Profile.Activity {
		ev, err := c.toEvent(memberID, raw)
		if err != nil {
			metrics.RecordMalformedRecord("activity")
			c.log.Warn(ctx, "skipping activity record",
				logger.Int64("member_id", memberID),
				logger.Int("index", i),
				logger.Error(err),
			)
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (c *Client) toEvent(memberID int64, raw json.RawMessage) (model.ActivityEvent, error) {
	if err := validateRecord(raw); err != nil {
		return model.ActivityEvent{}, err
	}
	var r activityRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return model.ActivityEvent{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	ts, err := model.ParseTime(r.Date)
	if err != nil {
		return model.ActivityEvent{}, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	kind, err := model.ParseObjectKind(r.ObjectType)
	if err != nil {
		return model.ActivityEvent{}, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}

	ev := model.ActivityEvent{
		MemberID:   memberID,
		Time:       ts,
		Kind:       kind,
		ObjectName: strings.TrimSpace(r.Name),
		ObjectID:   int64(r.ID),
		Points:     int(r.Points),
		Category:   strings.TrimSpace(r.ChallengeCategory),
		FlagTitle:  strings.TrimSpace(r.FlagTitle),
	}
	if kind == model.KindMachine {
		ev.SubType = strings.ToLower(strings.TrimSpace(r.Type))
		ev.Avatar = c.absURL(strings.Replace(r.MachineAvatar, "_thumb", "", 1))
	}
	return ev, nil
}
