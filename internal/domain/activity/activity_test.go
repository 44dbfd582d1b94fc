package activity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/pwnwatch/internal/domain/activity"
	"github.com/okian/pwnwatch/internal/domain/model"
	"github.com/okian/pwnwatch/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

var base = time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

func at(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }

func ev(h int, name string) model.ActivityEvent {
	return model.ActivityEvent{Time: at(h), Kind: model.KindMachine, ObjectName: name, SubType: "user"}
}

type fakeFeed struct {
	feeds map[int64][]model.ActivityEvent
	err   error
}

func (f *fakeFeed) Activity(_ context.Context, id int64) ([]model.ActivityEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.ActivityEvent, len(f.feeds[id]))
	copy(out, f.feeds[id])
	return out, nil
}

type fakeMarks struct {
	marks map[int64]time.Time
	err   error
}

func (f *fakeMarks) SetWatermark(_ context.Context, id int64, wm time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.marks[id] = wm
	return nil
}

func TestDetect(t *testing.T) {
	Convey("Given a newest-first feed", t, func() {
		feed := []model.ActivityEvent{ev(12, "c"), ev(11, "b"), ev(10, "a")}

		Convey("When the member was never observed", func() {
			res := activity.Detect(time.Time{}, feed)

			Convey("Then the watermark is seeded and nothing is reported", func() {
				So(res.Seeded, ShouldBeTrue)
				So(res.Changed, ShouldBeTrue)
				So(res.Events, ShouldBeEmpty)
				So(res.Watermark, ShouldEqual, at(12))
			})
		})

		Convey("When the watermark sits before the two newest events", func() {
			res := activity.Detect(at(10), feed)

			Convey("Then they are reported oldest first", func() {
				So(res.Events, ShouldHaveLength, 2)
				So(res.Events[0].ObjectName, ShouldEqual, "b")
				So(res.Events[1].ObjectName, ShouldEqual, "c")
				So(res.Watermark, ShouldEqual, at(12))
				So(res.Seeded, ShouldBeFalse)
			})
		})

		Convey("When the watermark equals the newest event", func() {
			res := activity.Detect(at(12), feed)

			Convey("Then nothing is reported and nothing changes", func() {
				So(res.Events, ShouldBeEmpty)
				So(res.Changed, ShouldBeFalse)
				So(res.Watermark, ShouldEqual, at(12))
			})
		})

		Convey("When the feed lags behind the watermark", func() {
			res := activity.Detect(at(20), feed)

			Convey("Then the watermark does not move backwards", func() {
				So(res.Events, ShouldBeEmpty)
				So(res.Changed, ShouldBeFalse)
				So(res.Watermark, ShouldEqual, at(20))
			})
		})

		Convey("When the feed is empty", func() {
			res := activity.Detect(at(5), nil)
			seed := activity.Detect(time.Time{}, nil)

			Convey("Then it is a no-op, even for an unseen member", func() {
				So(res.Changed, ShouldBeFalse)
				So(res.Watermark, ShouldEqual, at(5))
				So(seed.Seeded, ShouldBeFalse)
				So(seed.Watermark.IsZero(), ShouldBeTrue)
			})
		})

		Convey("When two events share a timestamp", func() {
			same := []model.ActivityEvent{ev(11, "root"), ev(11, "user"), ev(9, "old")}
			res := activity.Detect(at(10), same)

			Convey("Then both are reported in feed discovery order", func() {
				So(res.Events, ShouldHaveLength, 2)
				So(res.Events[0].ObjectName, ShouldEqual, "user")
				So(res.Events[1].ObjectName, ShouldEqual, "root")
			})
		})
	})
}

func TestDetectorCheck(t *testing.T) {
	Convey("Given a detector over fake feed and store", t, func() {
		ctx := context.Background()
		feed := &fakeFeed{feeds: map[int64][]model.ActivityEvent{
			7: {ev(12, "c"), ev(11, "b"), ev(10, "a")},
		}}
		marks := &fakeMarks{marks: map[int64]time.Time{}}
		d := activity.NewDetector(feed, marks)

		Convey("When checking an observed member", func() {
			res, err := d.Check(ctx, model.Member{ID: 7, Watermark: at(10)})

			Convey("Then events carry the member id and the watermark is stored", func() {
				So(err, ShouldBeNil)
				So(res.Events, ShouldHaveLength, 2)
				So(res.Events[0].MemberID, ShouldEqual, 7)
				So(marks.marks[7], ShouldEqual, at(12))
			})

			Convey("And a second check on the stored watermark reports nothing", func() {
				again, err := d.Check(ctx, model.Member{ID: 7, Watermark: marks.marks[7]})
				So(err, ShouldBeNil)
				So(again.Events, ShouldBeEmpty)
			})
		})

		Convey("When the feed fetch fails", func() {
			feed.err = errors.New("timeout")
			res, err := d.Check(ctx, model.Member{ID: 7, Watermark: at(10)})

			Convey("Then the watermark is untouched", func() {
				So(errors.Is(err, activity.ErrFetchActivity), ShouldBeTrue)
				So(res.Watermark, ShouldEqual, at(10))
				So(marks.marks, ShouldBeEmpty)
			})
		})

		Convey("When the watermark write fails", func() {
			marks.err = errors.New("locked")
			res, err := d.Check(ctx, model.Member{ID: 7, Watermark: at(10)})

			Convey("Then no events are handed back", func() {
				So(errors.Is(err, activity.ErrStoreWatermark), ShouldBeTrue)
				So(res.Events, ShouldBeEmpty)
			})
		})
	})
}
