// Package rooms selects a joinable match room from the lobby catalog.
package rooms

import (
	"context"

	"github.com/moltyroyale/agent/internal/domain/model"
	"github.com/moltyroyale/agent/pkg/logger"
)

// Selector filters the room catalog down to eligible candidates and
// ranks them by expected kill opportunity.
type Selector struct {
	logger logger.Logger
}

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithLogger sets a custom logger for the selector.
func WithLogger(l logger.Logger) Option {
	return func(s *Selector) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSelector creates a room selector.
func NewSelector(opts ...Option) *Selector {
	s := &Selector{
		logger: logger.Get().Named("rooms"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select returns the best eligible room: not full, affordable, highest
// current player count. Ties break by lowest entry cost, then by the
// order rooms were listed. Returns ErrNoEligibleRoom when nothing
// qualifies; callers should poll again later.
func (s *Selector) Select(ctx context.Context, catalog []model.RoomSummary, balance float64) (model.RoomSummary, error) {
	var (
		best  model.RoomSummary
		found bool
	)
	for _, room := range catalog {
		if room.Full() {
			s.logger.Debug(ctx, "skipping full room",
				logger.String("room", room.ID),
				logger.Int("players", room.CurrentPlayers),
			)
			continue
		}
		if room.Type == "paid" && room.EntryCost > balance {
			s.logger.Debug(ctx, "skipping unaffordable room",
				logger.String("room", room.ID),
				logger.Float64("cost", room.EntryCost),
				logger.Float64("balance", balance),
			)
			continue
		}
		if !found || better(room, best) {
			best = room
			found = true
		}
	}
	if !found {
		return model.RoomSummary{}, ErrNoEligibleRoom
	}
	s.logger.Info(ctx, "room selected",
		logger.String("room", best.ID),
		logger.Int("players", best.CurrentPlayers),
		logger.Int("capacity", best.MaxPlayers),
		logger.Float64("cost", best.EntryCost),
	)
	return best, nil
}

// better reports whether a should replace the current best b. Strict
// comparisons keep first-seen order as the final tie-breaker.
func better(a, b model.RoomSummary) bool {
	if a.CurrentPlayers != b.CurrentPlayers {
		return a.CurrentPlayers > b.CurrentPlayers
	}
	return a.EntryCost < b.EntryCost
}
