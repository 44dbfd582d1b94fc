package platform_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/okian/pwnwatch/internal/adapters/platform"
	"github.com/okian/pwnwatch/internal/adapters/platform/platformtest"
	"github.com/okian/pwnwatch/internal/domain/model"
	"github.com/okian/pwnwatch/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

const token = "app-token"

func newClient(srv *platformtest.Server, opts ...platform.Option) *platform.Client {
	opts = append([]platform.Option{
		platform.WithBackoff(time.Millisecond, 5*time.Millisecond),
		platform.WithMaxRetries(2),
	}, opts...)
	return platform.New(srv.URL, token, srv.TeamID, opts...)
}

func TestTeamMembers(t *testing.T) {
	Convey("Given a fake platform with a roster", t, func() {
		srv := platformtest.New(t, token, 42)
		srv.SetMembers(
			platformtest.Member{ID: 1, Name: "alice", Avatar: "/storage/avatars/a.png", Points: 90, Rank: 3},
			map[string]any{"id": "2", "name": "bob", "avatar": nil, "points": "15", "rank": nil},
			map[string]any{"name": "ghost"},
		)
		c := newClient(srv)

		Convey("When fetching members", func() {
			ms, err := c.TeamMembers(context.Background())

			Convey("Then records are converted and avatars absolutized", func() {
				So(err, ShouldBeNil)
				So(ms, ShouldHaveLength, 3)
				So(ms[0].Avatar, ShouldEqual, srv.URL+"/storage/avatars/a.png")
				So(ms[0].Rank, ShouldEqual, 3)
				So(ms[1].ID, ShouldEqual, 2)
				So(ms[1].Points, ShouldEqual, 15)
				So(ms[1].Rank, ShouldEqual, 0)
				So(ms[2].ID, ShouldEqual, 0)
			})
		})

		Convey("When the client has the wrong team", func() {
			c := platform.New(srv.URL, token, 7, platform.WithMaxRetries(0))
			_, err := c.TeamMembers(context.Background())

			Convey("Then an HTTPError is returned", func() {
				var herr *platform.HTTPError
				So(errors.As(err, &herr), ShouldBeTrue)
				So(herr.StatusCode, ShouldEqual, http.StatusNotFound)
				So(herr.Temporary(), ShouldBeFalse)
			})
		})

		Convey("When no team is configured", func() {
			c := platform.New(srv.URL, token, 0)
			_, err := c.TeamMembers(context.Background())
			So(errors.Is(err, platform.ErrMissingTeam), ShouldBeTrue)
		})

		Convey("When the token is wrong", func() {
			c := platform.New(srv.URL, "nope", 42)
			_, err := c.TeamMembers(context.Background())
			var herr *platform.HTTPError
			So(errors.As(err, &herr), ShouldBeTrue)
			So(herr.StatusCode, ShouldEqual, http.StatusUnauthorized)
			So(srv.Hits("team_members"), ShouldEqual, 1)
		})
	})
}

func TestRetries(t *testing.T) {
	Convey("Given a platform that is briefly unavailable", t, func() {
		srv := platformtest.New(t, token, 42)
		srv.SetMembers(platformtest.Member{ID: 1, Name: "alice"})
		c := newClient(srv)

		Convey("When two requests fail with 429 and 503", func() {
			srv.FailNext("team_members", http.StatusTooManyRequests, http.StatusServiceUnavailable)
			ms, err := c.TeamMembers(context.Background())

			Convey("Then the third attempt succeeds", func() {
				So(err, ShouldBeNil)
				So(ms, ShouldHaveLength, 1)
				So(srv.Hits("team_members"), ShouldEqual, 3)
			})
		})

		Convey("When failures outlast the retry budget", func() {
			srv.FailNext("team_members", 502, 502, 502, 502)
			_, err := c.TeamMembers(context.Background())

			Convey("Then the last status is reported", func() {
				var herr *platform.HTTPError
				So(errors.As(err, &herr), ShouldBeTrue)
				So(herr.StatusCode, ShouldEqual, 502)
				So(herr.Temporary(), ShouldBeTrue)
				So(srv.Hits("team_members"), ShouldEqual, 3)
			})
		})

		Convey("When the context is cancelled while waiting", func() {
			srv.FailNext("team_members", 503, 503)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			slow := newClient(srv, platform.WithBackoff(time.Hour, time.Hour))
			_, err := slow.TeamMembers(ctx)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestActivity(t *testing.T) {
	Convey("Given a member feed with good and bad records", t, func() {
		srv := platformtest.New(t, token, 42)
		srv.SetActivity(7,
			platformtest.Activity("2024-03-02T21:00:00.000000Z", "machine", "Lame", "root"),
			platformtest.Activity("2024-03-02T20:30:00.000Z", "challenge", "Baby RE", ""),
			map[string]any{"object_type": "machine", "name": "NoDate"},
			platformtest.Activity("yesterday-ish at noon!", "machine", "BadDate", "user"),
			platformtest.Activity("2024-03-02T20:10:00.000Z", "sherlock", "Brutus", ""),
			platformtest.Activity("2024-03-02T20:00:00.000Z", "fortress", "Jet", ""),
		)
		c := newClient(srv)

		Convey("When fetching the feed", func() {
			evs, err := c.Activity(context.Background(), 7)

			Convey("Then malformed records are dropped and order is preserved", func() {
				So(err, ShouldBeNil)
				So(evs, ShouldHaveLength, 3)
				So(evs[0].Kind, ShouldEqual, model.KindMachine)
				So(evs[0].SubType, ShouldEqual, "root")
				So(evs[0].Avatar, ShouldEqual, srv.URL+"/storage/avatars/Lame.png")
				So(evs[0].MemberID, ShouldEqual, 7)
				So(evs[1].Kind, ShouldEqual, model.KindChallenge)
				So(evs[1].Category, ShouldEqual, "Web")
				So(evs[1].SubType, ShouldBeEmpty)
				So(evs[2].FlagTitle, ShouldEqual, "Flag of Jet")
				So(evs[0].Time.After(evs[1].Time), ShouldBeTrue)
			})
		})

		Convey("When the member has no activity", func() {
			evs, err := c.Activity(context.Background(), 99)
			So(err, ShouldBeNil)
			So(evs, ShouldBeEmpty)
		})
	})
}

func TestStats(t *testing.T) {
	Convey("Given team and member counters", t, func() {
		srv := platformtest.New(t, token, 42)
		srv.SetTeam(platformtest.Stats{Name: "pwners", Rank: 12, Points: 900, UserOwns: 40, SystemOwns: 30, ChallengeOwns: 20, Respects: 5})
		srv.SetStats(7, platformtest.Stats{
			Rank: 100, Points: 55, UserOwns: 10, SystemOwns: 8, ChallengeOwns: 4,
			Fortress: []int{2, 3}, Endgame: []int{1}, UserBloods: 1, SystemBloods: 2, Respects: 9,
		})
		c := newClient(srv)
		ctx := context.Background()

		Convey("When fetching team stats", func() {
			ts, err := c.TeamStats(ctx)

			Convey("Then info and owns are merged", func() {
				So(err, ShouldBeNil)
				So(ts.Name, ShouldEqual, "pwners")
				So(ts.Metrics.Rank, ShouldEqual, 12)
				So(ts.Metrics.Points, ShouldEqual, 900)
				So(ts.Metrics.ChallengeOwns, ShouldEqual, 20)
				So(ts.Metrics.Respects, ShouldEqual, 5)
			})
		})

		Convey("When fetching member stats", func() {
			m, err := c.MemberStats(ctx, 7)

			Convey("Then flags are summed and bloods combined", func() {
				So(err, ShouldBeNil)
				So(m.FortressOwns, ShouldEqual, 5)
				So(m.EndgameOwns, ShouldEqual, 1)
				So(m.ProlabOwns, ShouldEqual, 0)
				So(m.Bloods, ShouldEqual, 3)
				So(m.ChallengeOwns, ShouldEqual, 4)
				So(m.Respects, ShouldEqual, 9)
			})
		})

		Convey("When one profile endpoint fails", func() {
			srv.FailNext("member_endgame", 404)
			_, err := c.MemberStats(ctx, 7)
			var herr *platform.HTTPError
			So(errors.As(err, &herr), ShouldBeTrue)
			So(herr.Endpoint, ShouldEqual, "member_endgame")
		})
	})
}
