package sim_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	gameapi "github.com/moltyroyale/agent/internal/adapters/gameapi"
	sim "github.com/moltyroyale/agent/internal/sim"
	"github.com/moltyroyale/agent/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestWorld(t *testing.T) {
	Convey("Given a simulated world", t, func() {
		w := sim.NewWorld(42)

		Convey("Then the room catalog is populated", func() {
			rooms := w.Rooms()
			So(len(rooms), ShouldBeGreaterThan, 0)
			So(rooms[0]["id"], ShouldNotBeEmpty)
		})

		Convey("When joining an unknown room", func() {
			_, err := w.Join("nope")
			So(err, ShouldNotBeNil)
		})

		Convey("When joining a full room", func() {
			_, err := w.Join("packed-free")
			So(err, ShouldNotBeNil)
		})

		Convey("When joining a room the balance cannot cover", func() {
			_, err := w.Join("high-stakes")
			So(err, ShouldNotBeNil)
		})

		Convey("When joining an open free room", func() {
			matchID, err := w.Join("rookie-free")
			So(err, ShouldBeNil)
			So(matchID, ShouldNotBeEmpty)

			Convey("Then state polls advance the match clock", func() {
				first, serr := w.State(matchID)
				So(serr, ShouldBeNil)
				second, serr := w.State(matchID)
				So(serr, ShouldBeNil)
				So(second["tick"], ShouldBeGreaterThan, first["tick"])
			})

			Convey("Then the emitted state parses as a real snapshot", func() {
				state, serr := w.State(matchID)
				So(serr, ShouldBeNil)

				raw, merr := json.Marshal(state)
				So(merr, ShouldBeNil)

				snap, perr := gameapi.ParseSnapshot(raw)
				So(perr, ShouldBeNil)
				So(snap.MatchID, ShouldEqual, matchID)
				So(snap.Self.HP, ShouldBeGreaterThan, 0)
				So(snap.Self.Position.Region, ShouldNotBeEmpty)
			})

			Convey("Then actions are acknowledged", func() {
				ack, aerr := w.Act(matchID, map[string]any{"action": "patrol"})
				So(aerr, ShouldBeNil)
				So(ack["status"], ShouldEqual, "ok")
			})

			Convey("Then healing consumes inventory", func() {
				_, aerr := w.Act(matchID, map[string]any{"action": "use_item", "item": "bandage"})
				So(aerr, ShouldBeNil)
			})
		})

		Convey("When acting on an unknown match", func() {
			_, err := w.Act("ghost", map[string]any{"action": "patrol"})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestServerRoutes(t *testing.T) {
	Convey("Given the simulated game API over HTTP", t, func() {
		mux := http.NewServeMux()
		sim.NewServer(sim.NewWorld(7)).Register(context.Background(), mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		client := gameapi.NewClient(srv.URL+"/api", "test-key")
		ctx := context.Background()

		Convey("Then the real client can play a full exchange", func() {
			rooms, err := client.ListRooms(ctx)
			So(err, ShouldBeNil)
			So(len(rooms), ShouldBeGreaterThan, 0)

			matchID, err := client.JoinRoom(ctx, "rookie-free")
			So(err, ShouldBeNil)
			So(matchID, ShouldNotBeEmpty)

			snap, err := client.GetState(ctx, matchID)
			So(err, ShouldBeNil)
			So(snap.Self.HP, ShouldBeGreaterThan, 0)

			balance, err := client.Balance(ctx)
			So(err, ShouldBeNil)
			So(balance, ShouldBeGreaterThanOrEqualTo, 0)

			So(client.LeaveRoom(ctx, "rookie-free"), ShouldBeNil)
		})

		Convey("Then unknown routes 404", func() {
			resp, err := http.Get(srv.URL + "/api/unknown")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}
