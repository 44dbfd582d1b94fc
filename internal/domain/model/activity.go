package model

import (
	"fmt"
	"strings"
	"time"
)

// ObjectKind is the kind of object an activity event refers to.
type ObjectKind string

const (
	KindMachine   ObjectKind = "machine"
	KindChallenge ObjectKind = "challenge"
	KindFortress  ObjectKind = "fortress"
	KindEndgame   ObjectKind = "endgame"
)

// ParseObjectKind maps a remote object type onto the closed kind set.
func ParseObjectKind(s string) (ObjectKind, error) {
	switch k := ObjectKind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindMachine, KindChallenge, KindFortress, KindEndgame:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// ActivityEvent is one completion reported by a member's activity feed.
type ActivityEvent struct {
	MemberID   int64
	Time       time.Time
	Kind       ObjectKind
	ObjectName string
	// SubType is "user"/"root" for machines and empty for other kinds.
	SubType string

	ObjectID  int64
	Points    int
	Category  string
	FlagTitle string
	Avatar    string
}
