// Package health applies the critical and normal healing thresholds.
package health

import "github.com/moltyroyale/agent/internal/domain/model"

// Default threshold constants, as HP percentages.
const (
	defaultCriticalThreshold = 35.0
	defaultNormalThreshold   = 60.0
)

// Manager decides when the agent should spend a heal item. Two
// thresholds exist because the priority ladder checks health twice:
// critical healing outranks weapon hunting, normal healing does not.
type Manager struct {
	critical float64
	normal   float64
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithCriticalThreshold sets the HP percentage below which healing
// preempts everything except zone escape.
func WithCriticalThreshold(pct float64) Option {
	return func(m *Manager) {
		if pct > 0 {
			m.critical = pct
		}
	}
}

// WithNormalThreshold sets the HP percentage below which the agent
// heals when no higher-priority action fired.
func WithNormalThreshold(pct float64) Option {
	return func(m *Manager) {
		if pct > 0 {
			m.normal = pct
		}
	}
}

// NewManager creates a health manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		critical: defaultCriticalThreshold,
		normal:   defaultNormalThreshold,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CriticalHeal returns the heal item to use when HP is critical.
// Returns false when HP is fine or no heal item is held; lacking
// resources must not stall the ladder.
func (m *Manager) CriticalHeal(self model.SelfState) (string, bool) {
	if self.HPPercent() >= m.critical {
		return "", false
	}
	return self.Inventory.BestHeal()
}

// NormalHeal returns the heal item to use at the lower-priority check.
func (m *Manager) NormalHeal(self model.SelfState) (string, bool) {
	if self.HPPercent() >= m.normal {
		return "", false
	}
	return self.Inventory.BestHeal()
}

// NormalThreshold exposes the normal heal threshold for loot priority
// decisions.
func (m *Manager) NormalThreshold() float64 {
	return m.normal
}
