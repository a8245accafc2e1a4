// Package decision implements the per-tick action priority ladder.
package decision

import (
	"context"

	"github.com/moltyroyale/agent/internal/domain/combat"
	"github.com/moltyroyale/agent/internal/domain/health"
	"github.com/moltyroyale/agent/internal/domain/model"
	"github.com/moltyroyale/agent/internal/domain/weapon"
	"github.com/moltyroyale/agent/internal/domain/zone"
	"github.com/moltyroyale/agent/pkg/logger"
)

// Default resolver configuration constants.
const (
	defaultRegionFloor     = 0.5
	defaultLootRange       = 20.0
	defaultMaxItemsPerType = 3

	// criticalEscapeHeal lets the agent pop a heal while sprinting out of
	// the zone when health is desperate.
	criticalEscapeHealPct = 30.0
)

// defaultRegions seeds exploration before any region has been visited.
var defaultRegions = []string{"central", "north", "south", "east", "west"}

// RegionScores is the resolver's read-only view of the region value
// table. The table itself is owned by the repository layer and mutated
// only by outcome events.
type RegionScores interface {
	// Best returns the highest-scoring candidate at or above floor.
	Best(ctx context.Context, candidates []string, floor float64) (string, bool)
	// Known lists every region the table has a record for.
	Known(ctx context.Context) []string
}

// rule is one rung of the priority ladder. Evaluation stops at the
// first rule returning a non-nil action.
type rule struct {
	name string
	eval func(ctx context.Context, snap model.MatchSnapshot) *model.Action
}

// Resolver turns one match snapshot into exactly one action. It holds
// no per-tick state; the region table is the only memory across ticks.
type Resolver struct {
	zone    *zone.Monitor
	health  *health.Manager
	weapons *weapon.Evaluator
	combat  *combat.Evaluator
	regions RegionScores

	regionFloor     float64
	lootRange       float64
	maxItemsPerType int

	rules  []rule
	logger logger.Logger
}

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithZoneMonitor sets the zone monitor.
func WithZoneMonitor(m *zone.Monitor) Option {
	return func(r *Resolver) {
		if m != nil {
			r.zone = m
		}
	}
}

// WithHealthManager sets the health manager.
func WithHealthManager(m *health.Manager) Option {
	return func(r *Resolver) {
		if m != nil {
			r.health = m
		}
	}
}

// WithWeaponEvaluator sets the weapon evaluator.
func WithWeaponEvaluator(e *weapon.Evaluator) Option {
	return func(r *Resolver) {
		if e != nil {
			r.weapons = e
		}
	}
}

// WithCombatEvaluator sets the combat evaluator.
func WithCombatEvaluator(e *combat.Evaluator) Option {
	return func(r *Resolver) {
		if e != nil {
			r.combat = e
		}
	}
}

// WithRegionFloor sets the minimum region score worth exploring.
func WithRegionFloor(floor float64) Option {
	return func(r *Resolver) {
		r.regionFloor = floor
	}
}

// WithLootRange sets the pickup distance for ground loot.
func WithLootRange(dist float64) Option {
	return func(r *Resolver) {
		if dist > 0 {
			r.lootRange = dist
		}
	}
}

// WithLogger sets a custom logger for the resolver.
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a resolver over the given region score view.
func NewResolver(regions RegionScores, opts ...Option) *Resolver {
	r := &Resolver{
		zone:            zone.NewMonitor(),
		health:          health.NewManager(),
		weapons:         weapon.NewEvaluator(),
		combat:          combat.NewEvaluator(),
		regions:         regions,
		regionFloor:     defaultRegionFloor,
		lootRange:       defaultLootRange,
		maxItemsPerType: defaultMaxItemsPerType,
		logger:          logger.Get().Named("decision"),
	}
	for _, opt := range opts {
		opt(r)
	}
	// Strict priority order. The final rule always matches, so Decide is
	// total: every snapshot maps to exactly one action.
	r.rules = []rule{
		{"zone_escape", r.zoneEscape},
		{"critical_heal", r.criticalHeal},
		{"weapon_upgrade", r.weaponUpgrade},
		{"normal_heal", r.normalHeal},
		{"engage", r.engage},
		{"explore", r.explore},
		{"loot", r.loot},
		{"patrol", r.patrol},
	}
	return r
}

// Decide evaluates the ladder and returns the first matching action.
func (r *Resolver) Decide(ctx context.Context, snap model.MatchSnapshot) *model.Action {
	for _, rl := range r.rules {
		if act := rl.eval(ctx, snap); act != nil {
			r.logger.Debug(ctx, "action decided",
				logger.String("rule", rl.name),
				logger.String("action", string(act.Type)),
				logger.Int("tick", snap.Tick),
			)
			return act
		}
	}
	// Unreachable: patrol always matches.
	return model.Patrol()
}

func (r *Resolver) zoneEscape(_ context.Context, snap model.MatchSnapshot) *model.Action {
	if !r.zone.EscapeRequired(snap.Zone) {
		return nil
	}
	direction := snap.Zone.SafeDirection
	if direction == "" {
		direction = "safe_zone_center"
	}
	healItem := ""
	if snap.Self.HPPercent() < criticalEscapeHealPct {
		healItem, _ = snap.Self.Inventory.BestHeal()
	}
	return model.EscapeZone(direction, healItem)
}

func (r *Resolver) criticalHeal(_ context.Context, snap model.MatchSnapshot) *model.Action {
	if item, ok := r.health.CriticalHeal(snap.Self); ok {
		return model.Heal(item)
	}
	return nil
}

func (r *Resolver) weaponUpgrade(_ context.Context, snap model.MatchSnapshot) *model.Action {
	best, ok := r.weapons.BestNearby(snap.WeaponsNearby)
	if !ok || !r.weapons.IsUpgrade(best, snap.Self.Weapon) {
		return nil
	}
	return model.PickupWeapon(best.Name)
}

func (r *Resolver) normalHeal(_ context.Context, snap model.MatchSnapshot) *model.Action {
	if item, ok := r.health.NormalHeal(snap.Self); ok {
		return model.Heal(item)
	}
	return nil
}

func (r *Resolver) engage(_ context.Context, snap model.MatchSnapshot) *model.Action {
	if target, ok := r.combat.SelectTarget(snap); ok {
		return model.Attack(target.Enemy.ID)
	}
	return nil
}

func (r *Resolver) explore(ctx context.Context, snap model.MatchSnapshot) *model.Action {
	candidates := r.regions.Known(ctx)
	if len(candidates) == 0 {
		candidates = defaultRegions
	}
	current := snap.Region()
	filtered := candidates[:0:0]
	for _, region := range candidates {
		if region != current {
			filtered = append(filtered, region)
		}
	}
	if region, ok := r.regions.Best(ctx, filtered, r.regionFloor); ok {
		return model.MoveToRegion(region)
	}
	return nil
}

func (r *Resolver) loot(_ context.Context, snap model.MatchSnapshot) *model.Action {
	inRange := func(item model.LootItem) bool {
		return item.Distance <= r.lootRange
	}
	capped := func(name string) bool {
		return snap.Self.Inventory[name] >= r.maxItemsPerType
	}
	// Heals first when health is short.
	if snap.Self.HPPercent() < r.health.NormalThreshold() {
		for _, item := range snap.LootNearby {
			if inRange(item) && model.IsHealItem(item.Name) && !capped(item.Name) {
				return model.Loot(item.ID)
			}
		}
	}
	for _, item := range snap.LootNearby {
		if inRange(item) && !capped(item.Name) {
			return model.Loot(item.ID)
		}
	}
	return nil
}

func (r *Resolver) patrol(_ context.Context, _ model.MatchSnapshot) *model.Action {
	return model.Patrol()
}
