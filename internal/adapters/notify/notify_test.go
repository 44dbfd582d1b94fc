package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"github.com/okian/pwnwatch/internal/adapters/notify"
	"github.com/okian/pwnwatch/internal/domain/model"
	"github.com/okian/pwnwatch/internal/domain/ranking"
	"github.com/okian/pwnwatch/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func item(kind model.ObjectKind, ev model.ActivityEvent) model.NotificationItem {
	ev.Kind = kind
	ev.Time = time.Date(2024, 3, 2, 20, 0, 0, 0, time.UTC)
	return model.NewNotification(model.Member{ID: 1, Name: "alice", Avatar: "https://x/a.png"}, ev, 0)
}

func TestMessage(t *testing.T) {
	Convey("Given events of every kind", t, func() {
		Convey("Then machine owns name the flag type", func() {
			it := item(model.KindMachine, model.ActivityEvent{ObjectName: "Lame", SubType: "root"})
			So(notify.Message(it), ShouldEqual, "Owned ROOT Lame machine")
			So(notify.Headline(it), ShouldEqual, "alice Owned ROOT Lame machine")
		})

		Convey("Then challenges carry their category", func() {
			it := item(model.KindChallenge, model.ActivityEvent{ObjectName: "Baby RE", Category: "Reversing"})
			So(notify.Message(it), ShouldEqual, "Owned Baby RE Reversing challenge")
		})

		Convey("Then fortress names are shortened", func() {
			it := item(model.KindFortress, model.ActivityEvent{ObjectName: "Context Cyber Attack Simulation", FlagTitle: "Have we met?"})
			So(notify.Message(it), ShouldEqual, "Owned Have we met? Context fortress")
		})

		Convey("Then endgames carry the flag title", func() {
			it := item(model.KindEndgame, model.ActivityEvent{ObjectName: "P.O.O.", FlagTitle: "Recon"})
			So(notify.Message(it), ShouldEqual, "Owned Recon P.O.O. endgame")
		})
	})
}

func TestCell(t *testing.T) {
	Convey("Cells show signed changes", t, func() {
		So(notify.Cell(10, 0), ShouldEqual, "10 (0)")
		So(notify.Cell(10, 3), ShouldEqual, "10 (+3)")
		So(notify.Cell(10, -3), ShouldEqual, "10 (-3)")
	})
}

func sampleSummary() ranking.Summary {
	return ranking.Summary{
		Team: &ranking.Delta{
			Scope:   model.ScopeTeam,
			Name:    "pwners",
			Current: model.Metrics{Rank: 40, Points: 1100, UserOwns: 50, SystemOwns: 45, ChallengeOwns: 30, Respects: 12},
			Change:  model.Metrics{Rank: -2, Points: 100, UserOwns: 5, ChallengeOwns: 3},
		},
		Members: []ranking.Delta{
			{
				Name:    "alice",
				Current: model.Metrics{Rank: 1, Points: 130, UserOwns: 12, SystemOwns: 10, ChallengeOwns: 7, FortressOwns: 2, ProlabOwns: 3},
				Change:  model.Metrics{Rank: -1, Points: 40, UserOwns: 2, SystemOwns: 1, ProlabOwns: 1},
			},
			{
				Name:    "carol",
				Current: model.Metrics{Rank: 2, Points: 120, UserOwns: 9, SystemOwns: 9, ChallengeOwns: 15, EndgameOwns: 1},
				Change:  model.Metrics{Rank: 1, ChallengeOwns: 3},
			},
		},
	}
}

func TestRankingTableGolden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	s := sampleSummary()
	g.Assert(t, "ranking_table", []byte(notify.RankingTable(s.Members)))
	g.Assert(t, "summary", []byte(notify.SummaryText(s)))
}

type capture struct {
	mu     sync.Mutex
	bodies []map[string]any
	status int
}

func (c *capture) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b, _ := io.ReadAll(r.Body)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	c.mu.Lock()
	c.bodies = append(c.bodies, m)
	status := c.status
	c.mu.Unlock()
	if status == 0 {
		status = http.StatusNoContent
	}
	w.WriteHeader(status)
}

func TestWebhook(t *testing.T) {
	Convey("Given a webhook endpoint", t, func() {
		ctx := context.Background()
		rec := &capture{}
		srv := httptest.NewServer(rec)
		defer srv.Close()
		hook := notify.NewWebhook(srv.URL, notify.WithTimeout(time.Second))

		Convey("When dispatching a machine notification", func() {
			it := item(model.KindMachine, model.ActivityEvent{ObjectName: "Lame", SubType: "user", Avatar: "https://x/lame.png", Points: 20})
			err := hook.Dispatch(ctx, it)

			Convey("Then one embed is posted", func() {
				So(err, ShouldBeNil)
				So(rec.bodies, ShouldHaveLength, 1)
				embeds := rec.bodies[0]["embeds"].([]any)
				e := embeds[0].(map[string]any)
				So(e["title"], ShouldEqual, "Owned USER Lame machine")
				So(e["author"].(map[string]any)["name"], ShouldEqual, "alice")
				So(e["thumbnail"].(map[string]any)["url"], ShouldEqual, "https://x/lame.png")
				So(e["description"], ShouldEqual, "+20 points")
			})
		})

		Convey("When dispatching a summary", func() {
			err := hook.DispatchSummary(ctx, sampleSummary())
			So(err, ShouldBeNil)
			So(rec.bodies[0]["content"], ShouldStartWith, "```\npwners\n")
		})

		Convey("When the endpoint rejects the post", func() {
			rec.status = http.StatusBadRequest
			err := hook.Send(ctx, "hi")
			var se *notify.StatusError
			So(errors.As(err, &se), ShouldBeTrue)
			So(se.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When no url is configured", func() {
			err := notify.NewWebhook("").Send(ctx, "hi")
			So(errors.Is(err, notify.ErrNoWebhook), ShouldBeTrue)
		})

		Convey("When alerting", func() {
			notify.NewAlerter(srv.URL).Alert(ctx, "Failed to get team members", errors.New("503"))
			notify.NewAlerter("").Alert(ctx, "dropped", nil)

			Convey("Then the error is posted as a code block", func() {
				So(rec.bodies, ShouldHaveLength, 1)
				So(rec.bodies[0]["content"], ShouldEqual, "```[-] ERROR: Failed to get team members\n\n503```")
			})
		})
	})
}

func TestLogDispatcher(t *testing.T) {
	Convey("The log dispatcher accepts everything", t, func() {
		d := notify.NewLogDispatcher(nil)
		So(d.Dispatch(context.Background(), item(model.KindChallenge, model.ActivityEvent{ObjectName: "x"})), ShouldBeNil)
		So(d.DispatchSummary(context.Background(), sampleSummary()), ShouldBeNil)
	})
}
