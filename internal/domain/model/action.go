package model

// ActionType tags the action variant chosen for a tick.
type ActionType string

// Action variants. Exactly one is produced per tick.
const (
	ActionEscapeZone   ActionType = "escape_zone"
	ActionHeal         ActionType = "use_item"
	ActionPickupWeapon ActionType = "move_to_weapon"
	ActionAttack       ActionType = "attack"
	ActionMoveToRegion ActionType = "move_to_region"
	ActionLoot         ActionType = "pick_loot"
	ActionPatrol       ActionType = "patrol"
)

// Action is the single command submitted for one tick. Produced fresh
// each tick and never mutated afterwards.
type Action struct {
	Type      ActionType
	TargetID  string // attack
	Region    string // move_to_region
	ItemID    string // pick_loot
	Item      string // use_item
	Weapon    string // move_to_weapon
	Direction string // escape_zone
	HealOnRun string // optional heal consumed while escaping
}

// EscapeZone builds the zone-escape action. healItem may be empty.
func EscapeZone(direction, healItem string) *Action {
	return &Action{Type: ActionEscapeZone, Direction: direction, HealOnRun: healItem}
}

// Heal builds the heal action for the given item.
func Heal(item string) *Action {
	return &Action{Type: ActionHeal, Item: item}
}

// PickupWeapon builds the weapon-hunt action.
func PickupWeapon(name string) *Action {
	return &Action{Type: ActionPickupWeapon, Weapon: name}
}

// Attack builds the attack action targeting an enemy.
func Attack(enemyID string) *Action {
	return &Action{Type: ActionAttack, TargetID: enemyID}
}

// MoveToRegion builds the exploration action.
func MoveToRegion(region string) *Action {
	return &Action{Type: ActionMoveToRegion, Region: region}
}

// Loot builds the pickup action for a ground item.
func Loot(itemID string) *Action {
	return &Action{Type: ActionLoot, ItemID: itemID}
}

// Patrol builds the always-valid fallback action.
func Patrol() *Action {
	return &Action{Type: ActionPatrol}
}
