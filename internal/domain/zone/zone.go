// Package zone monitors the shrinking death zone for escape conditions.
package zone

import "github.com/moltyroyale/agent/internal/domain/model"

// Default monitor configuration constants.
const (
	// defaultMaxCloseSpeed is the agent's sustained sprint speed in
	// meters per second towards the safe boundary.
	defaultMaxCloseSpeed = 10.0

	// defaultSafetyMargin discounts the usable speed so the agent starts
	// moving before the math gets tight.
	defaultSafetyMargin = 0.8
)

// Monitor decides whether the agent must drop everything and run for
// the safe zone. Escape sits above every other priority: death-zone
// damage is certain, enemies are not.
type Monitor struct {
	maxCloseSpeed float64
	safetyMargin  float64
}

// Option applies a configuration option to the Monitor.
type Option func(*Monitor)

// WithMaxCloseSpeed sets the agent's assumed movement speed.
func WithMaxCloseSpeed(speed float64) Option {
	return func(m *Monitor) {
		if speed > 0 {
			m.maxCloseSpeed = speed
		}
	}
}

// WithSafetyMargin sets the fraction of max speed treated as reliable.
func WithSafetyMargin(margin float64) Option {
	return func(m *Monitor) {
		if margin > 0 && margin <= 1 {
			m.safetyMargin = margin
		}
	}
}

// NewMonitor creates a zone monitor.
func NewMonitor(opts ...Option) *Monitor {
	m := &Monitor{
		maxCloseSpeed: defaultMaxCloseSpeed,
		safetyMargin:  defaultSafetyMargin,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// EscapeRequired reports whether the agent is outside the safe boundary
// or will not reach it before contraction at usable speed.
func (m *Monitor) EscapeRequired(z model.Zone) bool {
	if !z.Safe {
		return true
	}
	if z.ShrinkTimer <= 0 {
		// Contraction imminent or underway; distance alone decides.
		return z.DistanceToSafe > 0
	}
	needed := z.DistanceToSafe / z.ShrinkTimer
	return needed > m.maxCloseSpeed*m.safetyMargin
}
