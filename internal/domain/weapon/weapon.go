// Package weapon scores weapon instances and decides upgrade hunts.
package weapon

import "github.com/moltyroyale/agent/internal/domain/model"

// Default evaluator configuration constants.
const (
	// defaultUpgradeMargin is the relative score improvement a candidate
	// must reach before a pickup is worth the detour.
	defaultUpgradeMargin = 0.15

	// FistsDPS is the effective damage output of an unarmed agent.
	FistsDPS = 5.0
)

// tierMultipliers scale weapon scores by rarity.
var tierMultipliers = map[model.WeaponTier]float64{
	model.TierLegendary: 3.0,
	model.TierEpic:      2.2,
	model.TierRare:      1.5,
	model.TierUncommon:  1.2,
	model.TierCommon:    1.0,
}

// TierMultiplier returns the rarity scaling factor for a tier.
// Unknown tiers score as common.
func TierMultiplier(t model.WeaponTier) float64 {
	if m, ok := tierMultipliers[t]; ok {
		return m
	}
	return 1.0
}

// Evaluator compares weapons against the agent's current loadout.
type Evaluator struct {
	upgradeMargin float64
}

// Option applies a configuration option to the Evaluator.
type Option func(*Evaluator)

// WithUpgradeMargin sets the relative improvement required for a pickup.
func WithUpgradeMargin(margin float64) Option {
	return func(e *Evaluator) {
		if margin > 0 {
			e.upgradeMargin = margin
		}
	}
}

// NewEvaluator creates a weapon evaluator.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{upgradeMargin: defaultUpgradeMargin}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score computes DPS x accuracy x range x tier multiplier.
func Score(w model.Weapon) float64 {
	return w.DPS * w.Accuracy * w.Range * TierMultiplier(w.Tier)
}

// IsUpgrade reports whether candidate beats current by at least the
// configured margin. The boundary is inclusive: a candidate scoring
// exactly (1+margin) x current qualifies. An unarmed agent takes any
// weapon with a positive score.
func (e *Evaluator) IsUpgrade(candidate model.Weapon, current *model.Weapon) bool {
	cs := Score(candidate)
	if current == nil {
		return cs > 0
	}
	base := Score(*current)
	if base <= 0 {
		return cs > 0
	}
	return cs >= (1+e.upgradeMargin)*base
}

// BestNearby returns the highest-scoring visible weapon, or false when
// none are in sight.
func (e *Evaluator) BestNearby(nearby []model.Weapon) (model.Weapon, bool) {
	var (
		best  model.Weapon
		score float64
		found bool
	)
	for _, w := range nearby {
		if s := Score(w); !found || s > score {
			best, score, found = w, s, true
		}
	}
	return best, found
}
