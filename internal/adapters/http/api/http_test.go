package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/pwnwatch/internal/adapters/http/api"
	"github.com/okian/pwnwatch/internal/domain/model"
	"github.com/okian/pwnwatch/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

type mockDeps struct {
	members   []types.Member
	deltas    types.Deltas
	err       error
	lastLimit int
}

func (m *mockDeps) GetStats() map[string]interface{} {
	return map[string]interface{}{"syncs": 3, "nextInterval": "1m0s"}
}

func (m *mockDeps) Members(_ context.Context, limit int) ([]types.Member, error) {
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	if limit < len(m.members) {
		return m.members[:limit], nil
	}
	return m.members, nil
}

func (m *mockDeps) Member(_ context.Context, id int64) (types.Member, error) {
	for _, mm := range m.members {
		if mm.ID == id {
			return mm, nil
		}
	}
	return types.Member{}, fmt.Errorf("%w: member %d", types.ErrNotFound, id)
}

func (m *mockDeps) Deltas(_ context.Context, limit int) (types.Deltas, error) {
	m.lastLimit = limit
	return m.deltas, m.err
}

func serve(h http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestServer(t *testing.T) {
	Convey("Given a server over two members", t, func() {
		deps := &mockDeps{
			members: []types.Member{
				{ID: 1, Name: "alice", Rank: 1, Watermark: "2024-03-02T20:00:00.000000Z"},
				{ID: 2, Name: "bob", Rank: 4},
			},
			deltas: types.Deltas{
				Team:    &types.Delta{Name: "pwners", Current: model.Metrics{Points: 1100}, Change: model.Metrics{Points: 100}},
				Members: []types.Delta{{SubjectID: 1, Name: "alice"}},
			},
		}
		h := api.NewServer(deps, 10).Handler()

		Convey("When listing members with a limit", func() {
			w := serve(h, "/members?limit=1")

			Convey("Then the limit is applied", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got []types.Member
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got, ShouldHaveLength, 1)
				So(got[0].Name, ShouldEqual, "alice")
			})
		})

		Convey("When listing members without a limit", func() {
			w := serve(h, "/members")

			Convey("Then the configured cap is used", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastLimit, ShouldEqual, 10)
			})
		})

		Convey("When the limit is invalid or too large", func() {
			for _, q := range []string{"abc", "0", "-1", "11"} {
				w := serve(h, "/members?limit="+q)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, `"code":"bad_request"`)
			}
		})

		Convey("When fetching a known member", func() {
			w := serve(h, "/members/1")

			Convey("Then it includes the watermark", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"watermark":"2024-03-02T20:00:00.000000Z"`)
			})
		})

		Convey("When fetching an unknown member", func() {
			w := serve(h, "/members/99")

			Convey("Then 404 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(w.Body.String(), ShouldContainSubstring, `"code":"not_found"`)
			})
		})

		Convey("When the member id is not a number", func() {
			So(serve(h, "/members/abc").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the store fails", func() {
			deps.err = errors.New("database is locked")
			w := serve(h, "/members")

			Convey("Then 500 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(w.Body.String(), ShouldContainSubstring, "database is locked")
			})
		})

		Convey("When reading deltas", func() {
			w := serve(h, "/deltas?limit=5")

			Convey("Then team and members are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastLimit, ShouldEqual, 5)
				var got types.Deltas
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got.Team.Change.Points, ShouldEqual, 100)
				So(got.Members, ShouldHaveLength, 1)
			})
		})

		Convey("When reading stats", func() {
			w := serve(h, "/stats")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"syncs":3`)
		})

		Convey("When scraping health", func() {
			serve(h, "/members/99")
			w := serve(h, "/healthz")

			Convey("Then the exposition includes the HTTP counters", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "http_requests_total")
				So(w.Body.String(), ShouldContainSubstring, "http_errors_total")
			})
		})

		Convey("When posting to a read route", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/members", strings.NewReader("{}")))
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestErrors(t *testing.T) {
	Convey("Given wrapped API errors", t, func() {
		Convey("Then kinds survive wrapping", func() {
			nf := api.Wrap("op", fmt.Errorf("%w: member 3", types.ErrNotFound))
			So(errors.Is(nf, api.ErrNotFound), ShouldBeTrue)
			So(nf.Error(), ShouldEqual, "op: not found: member 3")

			other := api.Wrap("op", errors.New("boom"))
			So(errors.Is(other, api.ErrInternal), ShouldBeTrue)

			So(api.Wrap("op", nil), ShouldBeNil)
			So(api.NewKind("op", api.ErrBadRequest).Error(), ShouldEqual, "op: bad request")
		})
	})
}
