package repository

import (
	"context"
	"hash/fnv"
	"sort"
	"sync"

	"github.com/moltyroyale/agent/internal/domain/model"
	"github.com/moltyroyale/agent/pkg/metrics"
)

// Sharded, in-memory Store implementation.
//
// Regions hash onto a fixed set of shards, each guarded by its own
// RWMutex. Independent match loops can update different regions without
// contending; updates to one region serialize on its shard lock, which
// gives the single-writer-per-update discipline the engine requires.

const defaultShardCount = 8

// record holds the mutable learned state for one region.
type record struct {
	score      float64
	failStreak int // consecutive failed explores
}

type shard struct {
	mu      sync.RWMutex
	records map[string]*record
}

// ShardStore implements Store with sharded in-memory state.
type ShardStore struct {
	shards []*shard
}

// Option applies a configuration option to the ShardStore.
type Option func(*ShardStore)

// WithShardCount sets the number of shards.
func WithShardCount(n int) Option {
	return func(s *ShardStore) {
		if n > 0 {
			s.shards = make([]*shard, n)
		}
	}
}

// NewShardStore creates an empty sharded region store.
func NewShardStore(opts ...Option) *ShardStore {
	s := &ShardStore{
		shards: make([]*shard, defaultShardCount),
	}
	for _, opt := range opts {
		opt(s)
	}
	for i := range s.shards {
		s.shards[i] = &shard{records: make(map[string]*record)}
	}
	metrics.UpdateRegionShardCount(len(s.shards))
	return s
}

func (s *ShardStore) shardFor(region string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(region))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

// Score returns the learned score for region, BaseScore when unseen.
func (s *ShardStore) Score(_ context.Context, region string) float64 {
	sh := s.shardFor(region)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	if rec, ok := sh.records[region]; ok {
		return rec.score
	}
	return BaseScore
}

// Apply folds one outcome event into the region's record.
func (s *ShardStore) Apply(ctx context.Context, e model.OutcomeEvent) (float64, error) {
	if e.Region == "" {
		return 0, ErrEmptyRegion
	}

	sh := s.shardFor(e.Region)
	sh.mu.Lock()

	rec, ok := sh.records[e.Region]
	if !ok {
		rec = &record{score: BaseScore}
		sh.records[e.Region] = rec
	}

	switch e.Kind {
	case model.EventHighTierWeapon:
		rec.score += DeltaHighTierWeapon
	case model.EventKill:
		rec.score += DeltaKill
	case model.EventZoneProne:
		rec.score += DeltaZoneProne
	case model.EventAmbush:
		rec.score += DeltaAmbush
	case model.EventExplore:
		if e.ItemsFound > 0 {
			rec.failStreak = 0
			break
		}
		rec.failStreak++
		if rec.failStreak >= failedExploreStreak {
			rec.score += DeltaFailedExplore
			rec.failStreak = 0
		}
	default:
		score := rec.score
		sh.mu.Unlock()
		return score, ErrUnknownEventKind
	}

	score := rec.score
	sh.mu.Unlock()

	metrics.RecordRegionEvent(string(e.Kind))
	metrics.UpdateRegionCount(s.Count(ctx))
	return score, nil
}

// Best returns the highest-scoring candidate at or above floor,
// keeping the earliest candidate on ties.
func (s *ShardStore) Best(ctx context.Context, candidates []string, floor float64) (string, bool) {
	var (
		best      string
		bestScore float64
		found     bool
	)
	for _, region := range candidates {
		score := s.Score(ctx, region)
		if score < floor {
			continue
		}
		if !found || score > bestScore {
			best, bestScore, found = region, score, true
		}
	}
	return best, found
}

// Known lists every recorded region in sorted order.
func (s *ShardStore) Known(_ context.Context) []string {
	var regions []string
	for _, sh := range s.shards {
		sh.mu.RLock()
		for region := range sh.records {
			regions = append(regions, region)
		}
		sh.mu.RUnlock()
	}
	sort.Strings(regions)
	return regions
}

// Snapshot copies all region scores.
func (s *ShardStore) Snapshot(_ context.Context) map[string]float64 {
	out := make(map[string]float64)
	for _, sh := range s.shards {
		sh.mu.RLock()
		for region, rec := range sh.records {
			out[region] = rec.score
		}
		sh.mu.RUnlock()
	}
	return out
}

// Count returns the number of regions tracked.
func (s *ShardStore) Count(_ context.Context) int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.records)
		sh.mu.RUnlock()
	}
	return n
}

// Seed installs a previously persisted score without treating it as an
// outcome event. Used when reloading the table at startup.
func (s *ShardStore) Seed(region string, score float64) {
	sh := s.shardFor(region)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.records[region] = &record{score: score}
}
