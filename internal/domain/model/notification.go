package model

import "time"

// QueueKey orders notifications across members: event time, then member id,
// then the order in which the event was discovered for that member.
type QueueKey struct {
	Time     time.Time
	MemberID int64
	Seq      int
}

// Compare returns -1, 0 or +1.
func (k QueueKey) Compare(o QueueKey) int {
	if c := k.Time.Compare(o.Time); c != 0 {
		return c
	}
	switch {
	case k.MemberID < o.MemberID:
		return -1
	case k.MemberID > o.MemberID:
		return 1
	case k.Seq < o.Seq:
		return -1
	case k.Seq > o.Seq:
		return 1
	}
	return 0
}

// Less reports whether k sorts before o.
func (k QueueKey) Less(o QueueKey) bool { return k.Compare(o) < 0 }

// String renders a stable identity for the key.
func (k QueueKey) String() string {
	return FormatTime(k.Time) + "_" + itoa(k.MemberID) + "_" + itoa(int64(k.Seq))
}

// NotificationItem is a pending notification for one activity event.
type NotificationItem struct {
	Key        QueueKey
	MemberID   int64
	MemberName string
	Avatar     string
	Event      ActivityEvent
}

// NewNotification builds an item for ev discovered as the seq-th new event of m.
func NewNotification(m Member, ev ActivityEvent, seq int) NotificationItem {
	return NotificationItem{
		Key:        QueueKey{Time: ev.Time, MemberID: m.ID, Seq: seq},
		MemberID:   m.ID,
		MemberName: m.Name,
		Avatar:     m.Avatar,
		Event:      ev,
	}
}
