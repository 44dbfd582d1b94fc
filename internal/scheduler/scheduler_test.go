package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/pwnwatch/internal/config"
	"github.com/okian/pwnwatch/internal/scheduler"
	"github.com/okian/pwnwatch/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

// 2024-03-02 is a Saturday.
func sat(h, m int) time.Time { return time.Date(2024, 3, 2, h, m, 0, 0, time.UTC) }
func sun(h, m int) time.Time { return time.Date(2024, 3, 3, h, m, 0, 0, time.UTC) }

func TestParse(t *testing.T) {
	Convey("Weekdays and clocks parse from configuration strings", t, func() {
		w, err := scheduler.ParseWeekday("Saturday")
		So(err, ShouldBeNil)
		So(w, ShouldEqual, time.Saturday)
		w, _ = scheduler.ParseWeekday("0")
		So(w, ShouldEqual, time.Sunday)
		_, err = scheduler.ParseWeekday("someday")
		So(errors.Is(err, scheduler.ErrInvalidWeekday), ShouldBeTrue)

		m, err := scheduler.ParseClock("19:30")
		So(err, ShouldBeNil)
		So(m, ShouldEqual, 19*60+30)
		m, _ = scheduler.ParseClock("24:00")
		So(m, ShouldEqual, 1440)
		for _, bad := range []string{"24:01", "7", "12:60", "-1:00", "aa:bb"} {
			_, err := scheduler.ParseClock(bad)
			So(errors.Is(err, scheduler.ErrInvalidClock), ShouldBeTrue)
		}

		_, err = scheduler.ParseWindow([]string{"sat"}, "10:00", "10:00", time.Minute)
		So(errors.Is(err, scheduler.ErrInvalidWindow), ShouldBeTrue)
	})
}

func TestPolicyDefaults(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		p, c, err := scheduler.FromConfig(config.New())
		So(err, ShouldBeNil)

		Convey("Then polling is tight over the weekend contest window", func() {
			So(p.Interval(sat(18, 59)), ShouldEqual, 30*time.Minute)
			So(p.Interval(sat(19, 0)), ShouldEqual, time.Minute)
			So(p.Interval(sat(23, 59)), ShouldEqual, time.Minute)
			So(p.Interval(sun(0, 0)), ShouldEqual, time.Minute)
			So(p.Interval(sun(7, 59)), ShouldEqual, time.Minute)
			So(p.Interval(sun(8, 0)), ShouldEqual, 30*time.Minute)
			So(p.Interval(time.Date(2024, 3, 6, 20, 0, 0, 0, time.UTC)), ShouldEqual, 30*time.Minute)
		})

		Convey("Then ranking is due once on Saturday at 01", func() {
			id, ok := c.WindowID(sat(1, 17))
			So(ok, ShouldBeTrue)
			So(id, ShouldEqual, "2024-03-02@01")
			_, ok = c.WindowID(sat(2, 0))
			So(ok, ShouldBeFalse)
			_, ok = c.WindowID(sun(1, 0))
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given a window crossing midnight", t, func() {
		w, err := scheduler.ParseWindow([]string{"sat"}, "22:00", "02:00", 2*time.Minute)
		So(err, ShouldBeNil)
		p := scheduler.Policy{Default: time.Hour, Windows: []scheduler.Window{w}}

		So(p.Interval(sat(23, 0)), ShouldEqual, 2*time.Minute)
		So(p.Interval(sun(1, 59)), ShouldEqual, 2*time.Minute)
		So(p.Interval(sat(1, 0)), ShouldEqual, time.Hour)
	})

	Convey("Given a disabled ranking section", t, func() {
		cfg := config.New()
		cfg.Ranking.Enabled = false
		_, c, err := scheduler.FromConfig(cfg)
		So(err, ShouldBeNil)
		_, ok := c.WindowID(sat(1, 0))
		So(ok, ShouldBeFalse)
	})

	Convey("Given a bad weekday in the config", t, func() {
		cfg := config.New()
		cfg.Poll.Windows[0].Days = []string{"caturday"}
		_, _, err := scheduler.FromConfig(cfg)
		So(errors.Is(err, scheduler.ErrInvalidWeekday), ShouldBeTrue)
	})
}

type memState struct {
	vals map[string]string
	puts int
}

func (m *memState) GetState(_ context.Context, k string) (string, bool, error) {
	v, ok := m.vals[k]
	return v, ok, nil
}

func (m *memState) PutState(_ context.Context, k, v string) error {
	m.puts++
	m.vals[k] = v
	return nil
}

func TestSchedulerTick(t *testing.T) {
	Convey("Given a scheduler on a fake clock inside the ranking window", t, func() {
		ctx := context.Background()
		p, c, _ := scheduler.FromConfig(config.New())
		clock := scheduler.NewFakeClock(sat(1, 0))
		state := &memState{vals: map[string]string{}}
		var syncs, ranks int
		syncTask := func(context.Context) error { syncs++; return nil }
		rankTask := func(context.Context) error { ranks++; return errors.New("partial") }

		s := scheduler.New(syncTask, rankTask,
			scheduler.WithClock(clock),
			scheduler.WithPolicy(p),
			scheduler.WithCalendar(c),
			scheduler.WithStateStore(state),
		)

		Convey("When ticking twice in the same hour", func() {
			wait := s.Tick(ctx)
			clock.Set(sat(1, 30))
			s.Tick(ctx)

			Convey("Then ranking ran once even though it failed", func() {
				So(syncs, ShouldEqual, 2)
				So(ranks, ShouldEqual, 1)
				So(wait, ShouldEqual, 30*time.Minute)
				So(state.vals[scheduler.LastWindowKey], ShouldEqual, "2024-03-02@01")
				So(s.LastWindow(), ShouldEqual, "2024-03-02@01")
			})
		})

		Convey("When the process restarts inside the window", func() {
			s.Tick(ctx)
			again := scheduler.New(syncTask, rankTask,
				scheduler.WithClock(clock),
				scheduler.WithCalendar(c),
				scheduler.WithStateStore(state),
			)
			again.Tick(ctx)

			Convey("Then the persisted window id prevents a second pass", func() {
				So(ranks, ShouldEqual, 1)
				So(syncs, ShouldEqual, 2)
			})
		})

		Convey("When a week passes", func() {
			s.Tick(ctx)
			clock.Set(sat(1, 0).Add(7 * 24 * time.Hour))
			s.Tick(ctx)
			So(ranks, ShouldEqual, 2)
			So(state.puts, ShouldEqual, 2)
		})
	})
}

func TestSchedulerRun(t *testing.T) {
	Convey("Given a scheduler started Saturday evening", t, func() {
		p, _, _ := scheduler.FromConfig(config.New())
		clock := scheduler.NewFakeClock(sat(23, 57))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ticks := 0
		s := scheduler.New(func(context.Context) error {
			ticks++
			if ticks == 5 {
				cancel()
			}
			return nil
		}, nil, scheduler.WithClock(clock), scheduler.WithPolicy(p))

		Convey("When run until cancelled", func() {
			err := s.Run(ctx)

			Convey("Then it waited per the policy between ticks", func() {
				So(err, ShouldBeNil)
				So(ticks, ShouldBeGreaterThanOrEqualTo, 5)
				waits := clock.Waits()
				So(len(waits), ShouldBeGreaterThanOrEqualTo, 4)
				for _, w := range waits[:4] {
					So(w, ShouldEqual, time.Minute)
				}
			})
		})
	})
}
