package repository_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	repository "github.com/moltyroyale/agent/internal/adapters/repository"
	"github.com/moltyroyale/agent/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func apply(ctx context.Context, s repository.Store, region string, kind model.EventKind) (float64, error) {
	return s.Apply(ctx, model.OutcomeEvent{EventID: "e", Region: region, Kind: kind})
}

func TestShardStoreApply(t *testing.T) {
	Convey("Given an empty region store", t, func() {
		ctx := context.Background()
		s := repository.NewShardStore()

		Convey("Then unseen regions score the base value", func() {
			So(s.Score(ctx, "nowhere"), ShouldEqual, repository.BaseScore)
		})

		Convey("When outcome events arrive", func() {
			Convey("Then a high-tier weapon adds 0.3", func() {
				score, err := apply(ctx, s, "north", model.EventHighTierWeapon)
				So(err, ShouldBeNil)
				So(score, ShouldAlmostEqual, 1.3)
			})

			Convey("Then a kill adds 0.2", func() {
				score, err := apply(ctx, s, "north", model.EventKill)
				So(err, ShouldBeNil)
				So(score, ShouldAlmostEqual, 1.2)
			})

			Convey("Then a zone-prone observation subtracts 0.5", func() {
				score, err := apply(ctx, s, "north", model.EventZoneProne)
				So(err, ShouldBeNil)
				So(score, ShouldAlmostEqual, 0.5)
			})

			Convey("Then an ambush subtracts 0.2", func() {
				score, err := apply(ctx, s, "north", model.EventAmbush)
				So(err, ShouldBeNil)
				So(score, ShouldAlmostEqual, 0.8)
			})
		})

		Convey("When a region keeps rewarding the agent", func() {
			for i := 0; i < 10; i++ {
				_, err := apply(ctx, s, "hotspot", model.EventKill)
				So(err, ShouldBeNil)
			}

			Convey("Then the score keeps accumulating without a ceiling", func() {
				So(s.Score(ctx, "hotspot"), ShouldAlmostEqual, 3.0)
			})
		})

		Convey("When a region keeps punishing the agent", func() {
			for i := 0; i < 3; i++ {
				_, err := apply(ctx, s, "deathtrap", model.EventZoneProne)
				So(err, ShouldBeNil)
			}

			Convey("Then the score is free to sink below the explore floor", func() {
				So(s.Score(ctx, "deathtrap"), ShouldAlmostEqual, -0.5)
			})
		})

		Convey("When an event has no region", func() {
			_, err := s.Apply(ctx, model.OutcomeEvent{Kind: model.EventKill})
			So(err, ShouldEqual, repository.ErrEmptyRegion)
		})

		Convey("When an event kind is unknown", func() {
			_, err := s.Apply(ctx, model.OutcomeEvent{Region: "north", Kind: "meteor_strike"})
			So(err, ShouldEqual, repository.ErrUnknownEventKind)
		})
	})
}

func TestShardStoreExploreStreak(t *testing.T) {
	Convey("Given an empty region store", t, func() {
		ctx := context.Background()
		s := repository.NewShardStore()

		exploreEvent := func(found int) model.OutcomeEvent {
			return model.OutcomeEvent{EventID: "e", Region: "west", Kind: model.EventExplore, ItemsFound: found}
		}

		Convey("When one explore comes up empty", func() {
			score, err := s.Apply(ctx, exploreEvent(0))
			So(err, ShouldBeNil)

			Convey("Then the score is untouched", func() {
				So(score, ShouldAlmostEqual, 1.0)
			})
		})

		Convey("When two explores in a row come up empty", func() {
			_, err := s.Apply(ctx, exploreEvent(0))
			So(err, ShouldBeNil)
			score, err := s.Apply(ctx, exploreEvent(0))
			So(err, ShouldBeNil)

			Convey("Then the region loses 0.3", func() {
				So(score, ShouldAlmostEqual, 0.7)
			})

			Convey("And the streak resets after the penalty", func() {
				score, err := s.Apply(ctx, exploreEvent(0))
				So(err, ShouldBeNil)
				So(score, ShouldAlmostEqual, 0.7)
			})
		})

		Convey("When a find interrupts the streak", func() {
			_, err := s.Apply(ctx, exploreEvent(0))
			So(err, ShouldBeNil)
			_, err = s.Apply(ctx, exploreEvent(2))
			So(err, ShouldBeNil)
			score, err := s.Apply(ctx, exploreEvent(0))
			So(err, ShouldBeNil)

			Convey("Then no penalty lands", func() {
				So(score, ShouldAlmostEqual, 1.0)
			})
		})
	})
}

func TestShardStoreBest(t *testing.T) {
	Convey("Given a store with learned scores", t, func() {
		ctx := context.Background()
		s := repository.NewShardStore()
		s.Seed("north", 1.4)
		s.Seed("south", 0.3)
		s.Seed("east", 1.4)

		Convey("Then the highest score above the floor wins", func() {
			best, ok := s.Best(ctx, []string{"south", "north"}, 0.5)
			So(ok, ShouldBeTrue)
			So(best, ShouldEqual, "north")
		})

		Convey("Then ties keep the earliest candidate", func() {
			best, ok := s.Best(ctx, []string{"east", "north"}, 0.5)
			So(ok, ShouldBeTrue)
			So(best, ShouldEqual, "east")
		})

		Convey("Then a floor nothing clears yields no result", func() {
			_, ok := s.Best(ctx, []string{"south"}, 0.5)
			So(ok, ShouldBeFalse)
		})

		Convey("Then a score exactly at the floor still qualifies", func() {
			s.Seed("edge", 0.5)
			best, ok := s.Best(ctx, []string{"edge"}, 0.5)
			So(ok, ShouldBeTrue)
			So(best, ShouldEqual, "edge")
		})

		Convey("Then unseen candidates compete at the base score", func() {
			best, ok := s.Best(ctx, []string{"south", "unknown"}, 0.5)
			So(ok, ShouldBeTrue)
			So(best, ShouldEqual, "unknown")
		})
	})
}

func TestShardStoreViews(t *testing.T) {
	Convey("Given a store with a few regions", t, func() {
		ctx := context.Background()
		s := repository.NewShardStore(repository.WithShardCount(4))
		s.Seed("west", 0.9)
		s.Seed("east", 1.1)
		s.Seed("north", 2.0)

		Convey("Then Known lists regions in sorted order", func() {
			So(s.Known(ctx), ShouldResemble, []string{"east", "north", "west"})
		})

		Convey("Then Snapshot copies every score", func() {
			So(s.Snapshot(ctx), ShouldResemble, map[string]float64{
				"west": 0.9, "east": 1.1, "north": 2.0,
			})
		})

		Convey("Then Count matches", func() {
			So(s.Count(ctx), ShouldEqual, 3)
		})
	})
}

func TestShardStoreConcurrency(t *testing.T) {
	Convey("Given concurrent appliers on distinct regions", t, func() {
		ctx := context.Background()
		s := repository.NewShardStore()

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				region := fmt.Sprintf("region-%d", n)
				for j := 0; j < 50; j++ {
					_, _ = apply(ctx, s, region, model.EventKill)
				}
			}(i)
		}
		wg.Wait()

		Convey("Then every region accumulated all its updates", func() {
			for i := 0; i < 8; i++ {
				So(s.Score(ctx, fmt.Sprintf("region-%d", i)), ShouldAlmostEqual, 11.0)
			}
		})
	})
}
