// Package combat estimates engagement odds and selects attack targets.
package combat

import (
	"math"

	"github.com/moltyroyale/agent/internal/domain/model"
	"github.com/moltyroyale/agent/internal/domain/weapon"
)

// Default engagement configuration constants.
const (
	defaultWinProbEngage = 0.60
	defaultEscapeProbMax = 0.40

	// distanceRiskScale converts meters to a risk factor: fights beyond
	// this range carry proportional risk.
	distanceRiskScale = 50.0

	// lowVisionCutoff and the associated penalty degrade long-range
	// engagements when sight is impaired.
	lowVisionCutoff   = 0.5
	lowVisionRange    = 60.0
	lowVisionPenalty  = 0.6
	minDenominatorDPS = 0.1
	minDenominatorHP  = 0.1
)

// Evaluator computes win and escape probabilities between the agent and
// visible enemies.
type Evaluator struct {
	winProbEngage float64
	escapeProbMax float64
}

// Option applies a configuration option to the Evaluator.
type Option func(*Evaluator)

// WithWinProbEngage sets the minimum win probability to engage.
func WithWinProbEngage(p float64) Option {
	return func(e *Evaluator) {
		if p > 0 && p <= 1 {
			e.winProbEngage = p
		}
	}
}

// WithEscapeProbMax sets the maximum tolerated enemy escape probability.
func WithEscapeProbMax(p float64) Option {
	return func(e *Evaluator) {
		if p > 0 && p <= 1 {
			e.escapeProbMax = p
		}
	}
}

// NewEvaluator creates a combat evaluator.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		winProbEngage: defaultWinProbEngage,
		escapeProbMax: defaultEscapeProbMax,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WinProb estimates the agent's chance of winning a fight against enemy.
//
//	raw = (myDPS * myHP * position * vision) / (enemyDPS * enemyHP * distanceRisk)
//
// The raw ratio is saturated through raw/(raw+1), which is monotonic in
// every factor and maps [0, inf) onto [0, 1).
func (e *Evaluator) WinProb(snap model.MatchSnapshot, enemy model.Enemy) float64 {
	myDPS := weapon.FistsDPS
	if snap.Self.Weapon != nil && snap.Self.Weapon.DPS > 0 {
		myDPS = snap.Self.Weapon.DPS
	}
	myHP := snap.Self.HP

	vision := snap.VisionModifier
	if vision <= 0 {
		vision = 1.0
	}
	if snap.VisionModifier > 0 && snap.VisionModifier < lowVisionCutoff && enemy.Distance > lowVisionRange {
		// Poor sight makes long-range fights a coin toss at best.
		vision *= lowVisionPenalty
	}

	enemyDPS := math.Max(enemy.DPS, minDenominatorDPS)
	enemyHP := math.Max(enemy.HP, minDenominatorHP)
	distanceRisk := math.Max(1.0, enemy.Distance/distanceRiskScale)

	raw := (myDPS * myHP * positionFactor(snap, enemy) * vision) / (enemyDPS * enemyHP * distanceRisk)
	return raw / (raw + 1.0)
}

// positionFactor models terrain and elevation advantage. The upstream
// feed carries no cover data yet, so the factor is neutral; the hook
// keeps WinProb monotonic in it when data arrives.
func positionFactor(_ model.MatchSnapshot, _ model.Enemy) float64 {
	return 1.0
}

// EscapeProb estimates the chance the enemy disengages before dying.
// Wounded enemies rarely get away; distant ones usually do. Mobility
// scales the base rate.
func (e *Evaluator) EscapeProb(enemy model.Enemy) float64 {
	var base float64
	switch {
	case enemy.HPPercent() < 25:
		base = 0.10
	case enemy.Distance > 100:
		base = 0.70
	default:
		base = 0.35
	}
	mobility := enemy.Mobility
	if mobility <= 0 {
		mobility = 1.0
	}
	return math.Min(1.0, math.Max(0.0, base*mobility))
}

// Target is a qualifying enemy with its computed probabilities.
type Target struct {
	Enemy      model.Enemy
	WinProb    float64
	EscapeProb float64
}

// SelectTarget returns the best qualifying enemy, or false when no
// engagement clears both thresholds. Qualification is inclusive on both
// boundaries: winProb exactly at the engage threshold and escapeProb
// exactly at the cap both count. Among qualifiers the highest winProb
// wins; ties break by lowest distance, then lowest enemy HP.
func (e *Evaluator) SelectTarget(snap model.MatchSnapshot) (Target, bool) {
	var (
		best  Target
		found bool
	)
	for _, enemy := range snap.Enemies {
		if enemy.InZone {
			// Chasing into the death zone trades certain damage for a
			// maybe-kill; never worth it.
			continue
		}
		wp := e.WinProb(snap, enemy)
		ep := e.EscapeProb(enemy)
		if wp < e.winProbEngage || ep > e.escapeProbMax {
			continue
		}
		cand := Target{Enemy: enemy, WinProb: wp, EscapeProb: ep}
		if !found || betterTarget(cand, best) {
			best = cand
			found = true
		}
	}
	return best, found
}

func betterTarget(a, b Target) bool {
	if a.WinProb != b.WinProb {
		return a.WinProb > b.WinProb
	}
	if a.Enemy.Distance != b.Enemy.Distance {
		return a.Enemy.Distance < b.Enemy.Distance
	}
	return a.Enemy.HP < b.Enemy.HP
}
