package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	gameapi "github.com/moltyroyale/agent/internal/adapters/gameapi"
	"github.com/moltyroyale/agent/internal/adapters/repository"
	app "github.com/moltyroyale/agent/internal/app"
	"github.com/moltyroyale/agent/internal/domain/decision"
	"github.com/moltyroyale/agent/internal/domain/model"
	"github.com/moltyroyale/agent/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// scriptClient plays back a fixed sequence of states and records the
// calls the agent makes.
type scriptClient struct {
	mu        sync.Mutex
	rooms     []model.RoomSummary
	states    []model.MatchSnapshot
	stateErrs []error // aligned with states; nil entries mean success
	idx       int
	joins     int
	leaves    int
	actions   []*model.Action
	ack       gameapi.Ack
}

func (c *scriptClient) ListRooms(_ context.Context) ([]model.RoomSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rooms, nil
}

func (c *scriptClient) JoinRoom(_ context.Context, _ string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.joins++
	return "m1", nil
}

func (c *scriptClient) LeaveRoom(_ context.Context, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leaves++
	return nil
}

func (c *scriptClient) GetState(_ context.Context, _ string) (model.MatchSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.idx
	if i >= len(c.states) {
		i = len(c.states) - 1
	} else {
		c.idx++
	}
	if i < len(c.stateErrs) && c.stateErrs[i] != nil {
		return model.MatchSnapshot{}, c.stateErrs[i]
	}
	return c.states[i], nil
}

func (c *scriptClient) SendAction(_ context.Context, _ string, action *model.Action) (gameapi.Ack, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actions = append(c.actions, action)
	return c.ack, nil
}

func (c *scriptClient) Balance(_ context.Context) (float64, error) {
	return 100, nil
}

func (c *scriptClient) actionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.actions)
}

func openRoom() []model.RoomSummary {
	return []model.RoomSummary{{ID: "r1", CurrentPlayers: 5, MaxPlayers: 12, Type: "free"}}
}

func activeSnapshot(kills int, region string) model.MatchSnapshot {
	return model.MatchSnapshot{
		MatchID:      "m1",
		Status:       "active",
		PlayersAlive: 6,
		Self: model.SelfState{
			HP:       100,
			MaxHP:    100,
			Kills:    kills,
			Position: model.Position{Region: region},
		},
		Zone:           model.Zone{Safe: true, ShrinkTimer: 120},
		VisionModifier: 1.0,
	}
}

func runAgent(t *testing.T, a *app.Agent, timeout time.Duration) (context.CancelFunc, chan error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(ctx) }()
	return cancel, errCh
}

func waitFor(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestAgentLearnsFromKills(t *testing.T) {
	Convey("Given an agent in a match where a kill lands", t, func() {
		client := &scriptClient{
			rooms: openRoom(),
			states: []model.MatchSnapshot{
				activeSnapshot(0, "hotzone"),
				activeSnapshot(1, "hotzone"),
				activeSnapshot(1, "hotzone"),
			},
		}
		store := repository.NewShardStore()
		a := app.New(client, decision.NewResolver(store), store,
			app.WithTickInterval(time.Millisecond),
		)
		cancel, errCh := runAgent(t, a, 3*time.Second)
		defer cancel()

		Convey("Then the kill raises the region's value exactly once", func() {
			ok := waitFor(t, func() bool {
				return store.Score(context.Background(), "hotzone") > 1.0
			})
			So(ok, ShouldBeTrue)

			// Let the duplicate observation cycle through.
			waitFor(t, func() bool { return client.actionCount() >= 3 })
			So(store.Score(context.Background(), "hotzone"), ShouldAlmostEqual, 1.2)

			cancel()
			So(<-errCh, ShouldBeNil)
		})
	})
}

func TestAgentZoneProneDedupe(t *testing.T) {
	Convey("Given an agent repeatedly caught outside the safe zone", t, func() {
		unsafe := activeSnapshot(0, "trap")
		unsafe.Zone = model.Zone{Safe: false, DistanceToSafe: 50, ShrinkTimer: 5, SafeDirection: "north"}

		client := &scriptClient{
			rooms:  openRoom(),
			states: []model.MatchSnapshot{unsafe, unsafe, unsafe},
		}
		store := repository.NewShardStore()
		a := app.New(client, decision.NewResolver(store), store,
			app.WithTickInterval(time.Millisecond),
		)
		cancel, errCh := runAgent(t, a, 3*time.Second)
		defer cancel()

		Convey("Then the region is penalized once per match, not per tick", func() {
			So(waitFor(t, func() bool { return client.actionCount() >= 3 }), ShouldBeTrue)
			So(waitFor(t, func() bool {
				return store.Score(context.Background(), "trap") < 1.0
			}), ShouldBeTrue)
			So(store.Score(context.Background(), "trap"), ShouldAlmostEqual, 0.5)

			cancel()
			So(<-errCh, ShouldBeNil)
		})
	})
}

func TestAgentSkipsFailedTicks(t *testing.T) {
	Convey("Given a flaky game API", t, func() {
		client := &scriptClient{
			rooms: openRoom(),
			states: []model.MatchSnapshot{
				{}, // replaced by the error below
				activeSnapshot(0, "central"),
				activeSnapshot(0, "central"),
			},
			stateErrs: []error{
				&gameapi.TransportError{Op: "get_state"},
				nil,
				nil,
			},
		}
		store := repository.NewShardStore()
		a := app.New(client, decision.NewResolver(store), store,
			app.WithTickInterval(time.Millisecond),
		)
		cancel, errCh := runAgent(t, a, 3*time.Second)
		defer cancel()

		Convey("Then the loop survives the error and keeps acting", func() {
			So(waitFor(t, func() bool { return client.actionCount() >= 2 }), ShouldBeTrue)

			cancel()
			So(<-errCh, ShouldBeNil)
		})
	})
}

func TestAgentStopsOnAuthError(t *testing.T) {
	Convey("Given a game API that rejects the credentials mid-match", t, func() {
		client := &scriptClient{
			rooms:     openRoom(),
			states:    []model.MatchSnapshot{{}},
			stateErrs: []error{&gameapi.AuthError{Op: "get_state", Status: 401}},
		}
		store := repository.NewShardStore()
		a := app.New(client, decision.NewResolver(store), store,
			app.WithTickInterval(time.Millisecond),
		)
		_, errCh := runAgent(t, a, 5*time.Second)

		Convey("Then the loop stops with a fatal error", func() {
			select {
			case err := <-errCh:
				So(err, ShouldNotBeNil)
			case <-time.After(3 * time.Second):
				t.Fatal("agent did not stop on auth error")
			}
		})
	})
}

func TestAgentLeavesFinishedMatch(t *testing.T) {
	Convey("Given a match that concludes", t, func() {
		finished := activeSnapshot(2, "central")
		finished.Status = "finished"
		finished.PlayersAlive = 1

		client := &scriptClient{
			rooms: openRoom(),
			states: []model.MatchSnapshot{
				activeSnapshot(2, "central"),
				finished,
			},
		}
		store := repository.NewShardStore()
		a := app.New(client, decision.NewResolver(store), store,
			app.WithTickInterval(time.Millisecond),
		)
		cancel, errCh := runAgent(t, a, 3*time.Second)
		defer cancel()

		Convey("Then the agent leaves the room", func() {
			So(waitFor(t, func() bool {
				client.mu.Lock()
				defer client.mu.Unlock()
				return client.leaves >= 1
			}), ShouldBeTrue)

			cancel()
			So(<-errCh, ShouldBeNil)
		})
	})
}

func TestAgentStats(t *testing.T) {
	Convey("Given a freshly joined agent", t, func() {
		client := &scriptClient{
			rooms:  openRoom(),
			states: []model.MatchSnapshot{activeSnapshot(0, "central")},
		}
		store := repository.NewShardStore()
		a := app.New(client, decision.NewResolver(store), store,
			app.WithTickInterval(time.Millisecond),
		)
		cancel, errCh := runAgent(t, a, 3*time.Second)
		defer cancel()

		Convey("Then stats report the session state", func() {
			So(waitFor(t, func() bool { return client.actionCount() >= 1 }), ShouldBeTrue)

			stats := a.Stats(context.Background())
			So(stats["session"], ShouldNotBeEmpty)
			So(stats["match"], ShouldEqual, "m1")
			So(stats["matches"], ShouldEqual, 1)

			cancel()
			So(<-errCh, ShouldBeNil)
		})
	})
}
