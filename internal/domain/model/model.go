// Package model contains domain models passed between layers.
package model

// WeaponTier enumerates weapon rarity tiers.
type WeaponTier string

// Known weapon tiers, in ascending rarity.
const (
	TierCommon    WeaponTier = "common"
	TierUncommon  WeaponTier = "uncommon"
	TierRare      WeaponTier = "rare"
	TierEpic      WeaponTier = "epic"
	TierLegendary WeaponTier = "legendary"
)

// Weapon describes a weapon instance, either carried or visible on the ground.
type Weapon struct {
	ID       string
	Name     string
	DPS      float64
	Accuracy float64
	Range    float64
	Tier     WeaponTier
}

// Position locates the agent on the map. Region is the coarse map cell
// used by the region value table.
type Position struct {
	X      float64
	Y      float64
	Region string
}

// Inventory maps item names to held counts.
type Inventory map[string]int

// HealPriority lists heal items from strongest to weakest. The manager
// always consumes the strongest heal available.
var HealPriority = []string{"mega_shield", "large_medkit", "medkit", "bandage", "small_heal"}

// BestHeal returns the strongest heal item present in the inventory.
func (inv Inventory) BestHeal() (string, bool) {
	for _, item := range HealPriority {
		if inv[item] > 0 {
			return item, true
		}
	}
	return "", false
}

// IsHealItem reports whether name is a known heal item.
func IsHealItem(name string) bool {
	for _, item := range HealPriority {
		if item == name {
			return true
		}
	}
	return false
}

// SelfState is the agent's own view within a snapshot. Read-only to the
// engine; a fresh copy arrives with every snapshot.
type SelfState struct {
	HP        float64
	MaxHP     float64
	Balance   float64
	Kills     int
	Weapon    *Weapon // nil when unarmed
	Inventory Inventory
	Position  Position
}

// HPPercent returns health as a 0-100 percentage.
func (s SelfState) HPPercent() float64 {
	if s.MaxHP <= 0 {
		return 0
	}
	return s.HP / s.MaxHP * 100
}

// Enemy is a visible opponent. Transient; lives only as long as the
// snapshot that carried it.
type Enemy struct {
	ID       string
	HP       float64
	MaxHP    float64
	DPS      float64
	Distance float64
	Mobility float64 // estimated escape capability, 1.0 = baseline
	InZone   bool
}

// HPPercent returns enemy health as a 0-100 percentage.
func (e Enemy) HPPercent() float64 {
	if e.MaxHP <= 0 {
		return 0
	}
	return e.HP / e.MaxHP * 100
}

// Zone describes the shrinking safe-area geometry relative to the agent.
type Zone struct {
	DistanceToSafe float64 // meters from agent to the safe boundary
	ShrinkTimer    float64 // seconds until the next contraction
	SafeDirection  string  // heading towards the safe-zone center
	Safe           bool    // agent currently inside the safe area
	DamagePerSec   float64
}

// LootItem is a pickup visible near the agent.
type LootItem struct {
	ID       string
	Name     string
	Distance float64
}

// MatchSnapshot is the point-in-time match view the engine decides on.
// Immutable once parsed; each tick replaces it wholesale.
type MatchSnapshot struct {
	MatchID        string
	Tick           int
	Status         string
	PlayersAlive   int
	Self           SelfState
	Enemies        []Enemy
	WeaponsNearby  []Weapon
	LootNearby     []LootItem
	Zone           Zone
	VisionModifier float64 // 0.0 = blind, 1.0 = full sight
}

// Region returns the agent's current map region.
func (m MatchSnapshot) Region() string {
	return m.Self.Position.Region
}

// RoomSummary describes a joinable match room.
type RoomSummary struct {
	ID             string
	CurrentPlayers int
	MaxPlayers     int
	Type           string  // "free" or "paid"
	EntryCost      float64 // zero for free rooms
}

// Full reports whether the room has no open slot.
func (r RoomSummary) Full() bool {
	return r.CurrentPlayers >= r.MaxPlayers
}
