// Package repository defines the region value store interface and errors.
package repository

import (
	"context"

	"github.com/moltyroyale/agent/internal/domain/model"
)

// BaseScore is the region value score assigned to any unseen region.
const BaseScore = 1.0

// Score deltas per outcome event kind. Updates are purely additive and
// never clamped: a region can go negative, which reads as strong
// avoidance.
const (
	DeltaHighTierWeapon = +0.3
	DeltaKill           = +0.2
	DeltaFailedExplore  = -0.3 // applied on the second consecutive failed explore
	DeltaZoneProne      = -0.5
	DeltaAmbush         = -0.2
)

// failedExploreStreak is the consecutive-failure count that triggers
// the failed-explore penalty.
const failedExploreStreak = 2

// Store provides read/update access to learned region value scores.
// Records are independent: a read-modify-write on one region is atomic,
// and cross-region reads need no coordination.
type Store interface {
	// Score returns the current score for region, BaseScore if unseen.
	Score(ctx context.Context, region string) float64

	// Apply folds one outcome event into the table and returns the
	// region's resulting score.
	Apply(ctx context.Context, e model.OutcomeEvent) (float64, error)

	// Best returns the highest-scoring candidate at or above floor.
	// Ties keep the earliest candidate. Returns false when every
	// candidate sits below the floor or candidates is empty.
	Best(ctx context.Context, candidates []string, floor float64) (string, bool)

	// Known lists every region with a record, in sorted order.
	Known(ctx context.Context) []string

	// Snapshot returns a copy of all region scores.
	Snapshot(ctx context.Context) map[string]float64

	// Count returns the number of regions tracked.
	Count(ctx context.Context) int
}
