package ops_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	ops "github.com/moltyroyale/agent/internal/adapters/http/ops"
	. "github.com/smartystreets/goconvey/convey"
)

type stubRegions struct {
	scores map[string]float64
}

func (s *stubRegions) Snapshot(_ context.Context) map[string]float64 { return s.scores }
func (s *stubRegions) Count(_ context.Context) int                   { return len(s.scores) }

type stubStats struct{}

func (stubStats) Stats(_ context.Context) map[string]any {
	return map[string]any{"matches": 3, "kills": 7}
}

func TestOpsServer(t *testing.T) {
	Convey("Given the operational HTTP surface", t, func() {
		regions := &stubRegions{scores: map[string]float64{"north": 1.4, "south": 0.3}}
		mux := http.NewServeMux()
		ops.NewServer(regions, stubStats{}).Register(context.Background(), mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		Convey("Then /healthz answers ok", func() {
			resp, err := http.Get(srv.URL + "/healthz")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			var body map[string]string
			So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
			So(body["status"], ShouldEqual, "ok")
		})

		Convey("Then /regions dumps the learned table", func() {
			resp, err := http.Get(srv.URL + "/regions")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(resp.Header.Get("Content-Type"), ShouldEqual, "application/json")

			var body struct {
				Count  int                `json:"count"`
				Scores map[string]float64 `json:"scores"`
			}
			So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
			So(body.Count, ShouldEqual, 2)
			So(body.Scores["north"], ShouldAlmostEqual, 1.4)
		})

		Convey("Then /stats reports session statistics", func() {
			resp, err := http.Get(srv.URL + "/stats")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			var body map[string]any
			So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
			So(body["kills"], ShouldEqual, 7)
		})

		Convey("Then /metrics serves the Prometheus registry", func() {
			resp, err := http.Get(srv.URL + "/metrics")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})

		Convey("Then writes to read-only routes are refused", func() {
			resp, err := http.Post(srv.URL+"/regions", "application/json", nil)
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}
