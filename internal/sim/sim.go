// Package sim implements a toy game backend speaking the same HTTP API
// as the real service. It exists for local end-to-end runs: point the
// agent at a simgame instance and watch it fight scripted matches.
package sim

import (
	"fmt"
	"math/rand"
	"sync"
)

// Simulation tuning constants.
const (
	startHP          = 100.0
	startPlayers     = 12
	zoneGraceTicks   = 15
	zoneShrinkEvery  = 10
	zoneDamagePerSec = 4.0
	ambushChance     = 0.04
	enemyFleeChance  = 0.15
	lootFindMax      = 3
)

var regionNames = []string{"central", "north", "south", "east", "west"}

var weaponPool = []simWeapon{
	{name: "rusty_pistol", dps: 12, accuracy: 0.70, rng: 40, tier: "common"},
	{name: "smg", dps: 22, accuracy: 0.65, rng: 35, tier: "uncommon"},
	{name: "tactical_rifle", dps: 30, accuracy: 0.75, rng: 70, tier: "rare"},
	{name: "plasma_carbine", dps: 38, accuracy: 0.80, rng: 80, tier: "epic"},
	{name: "railgun", dps: 55, accuracy: 0.85, rng: 120, tier: "legendary"},
}

var lootPool = []string{"bandage", "medkit", "large_medkit", "small_heal", "mega_shield", "ammo_box"}

type simWeapon struct {
	name     string
	dps      float64
	accuracy float64
	rng      float64
	tier     string
}

type simEnemy struct {
	id       string
	hp       float64
	maxHP    float64
	dps      float64
	distance float64
	inZone   bool
}

// match is one live simulated match.
type match struct {
	id           string
	tick         int
	hp           float64
	kills        int
	region       string
	weapon       *simWeapon
	inventory    map[string]int
	enemies      []*simEnemy
	groundWeapon *simWeapon
	loot         []string
	playersAlive int
	zoneSafe     bool
	zoneDistance float64
	zoneTimer    float64
	finished     bool
}

// World owns all simulated rooms and matches. Safe for concurrent use.
type World struct {
	mu      sync.Mutex
	rng     *rand.Rand
	rooms   []roomInfo
	matches map[string]*match
	nextID  int
	balance float64
}

type roomInfo struct {
	id      string
	current int
	max     int
	kind    string
	cost    float64
}

// NewWorld creates a simulated world with a fixed room catalog.
func NewWorld(seed int64) *World {
	return &World{
		rng: rand.New(rand.NewSource(seed)),
		rooms: []roomInfo{
			{id: "rookie-free", current: 7, max: 12, kind: "free", cost: 0},
			{id: "busy-free", current: 11, max: 12, kind: "free", cost: 0},
			{id: "packed-free", current: 12, max: 12, kind: "free", cost: 0},
			{id: "high-stakes", current: 9, max: 12, kind: "paid", cost: 25},
		},
		matches: make(map[string]*match),
		balance: 10,
	}
}

// Rooms lists the joinable room catalog as wire maps.
func (w *World) Rooms() []map[string]any {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]map[string]any, 0, len(w.rooms))
	for _, r := range w.rooms {
		out = append(out, map[string]any{
			"id":              r.id,
			"current_players": r.current,
			"max_players":     r.max,
			"type":            r.kind,
			"entry_cost":      r.cost,
		})
	}
	return out
}

// Balance returns the simulated account balance.
func (w *World) Balance() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balance
}

// Join creates a fresh match for the given room.
func (w *World) Join(roomID string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var room *roomInfo
	for i := range w.rooms {
		if w.rooms[i].id == roomID {
			room = &w.rooms[i]
			break
		}
	}
	if room == nil {
		return "", fmt.Errorf("unknown room %q", roomID)
	}
	if room.current >= room.max {
		return "", fmt.Errorf("room %q is full", roomID)
	}
	if room.cost > w.balance {
		return "", fmt.Errorf("insufficient balance for room %q", roomID)
	}
	w.balance -= room.cost

	w.nextID++
	m := &match{
		id:           fmt.Sprintf("match-%d", w.nextID),
		hp:           startHP,
		region:       regionNames[w.rng.Intn(len(regionNames))],
		inventory:    map[string]int{"bandage": 2},
		playersAlive: startPlayers,
		zoneSafe:     true,
		zoneTimer:    float64(zoneGraceTicks),
	}
	w.spawnEnemies(m)
	w.spawnGround(m)
	w.matches[m.id] = m
	return m.id, nil
}

// Leave drops a match.
func (w *World) Leave(_ string) {
	// Rooms are shared fiction; nothing to release.
}

// State advances the match one tick and returns its wire form.
func (w *World) State(matchID string) (map[string]any, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	m, ok := w.matches[matchID]
	if !ok {
		return nil, fmt.Errorf("unknown match %q", matchID)
	}
	w.step(m)
	return w.snapshot(m), nil
}

// Act applies one agent action and returns the acknowledgement.
func (w *World) Act(matchID string, action map[string]any) (map[string]any, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	m, ok := w.matches[matchID]
	if !ok {
		return nil, fmt.Errorf("unknown match %q", matchID)
	}
	if m.finished {
		return map[string]any{"status": "ok"}, nil
	}

	ack := map[string]any{"status": "ok"}
	kind, _ := action["action"].(string)
	switch kind {
	case "attack":
		w.resolveAttack(m)
	case "use_item":
		item, _ := action["item"].(string)
		w.useItem(m, item)
	case "move_to_weapon":
		if m.groundWeapon != nil {
			m.weapon = m.groundWeapon
			ack["weapon_acquired"] = map[string]any{
				"name":     m.weapon.name,
				"dps":      m.weapon.dps,
				"accuracy": m.weapon.accuracy,
				"range":    m.weapon.rng,
				"tier":     m.weapon.tier,
			}
			m.groundWeapon = nil
		}
	case "move_to_region":
		if region, ok := action["region"].(string); ok && region != "" {
			m.region = region
		}
		found := w.rng.Intn(lootFindMax + 1)
		ack["items_found"] = found
		if found > 0 {
			w.spawnGround(m)
		}
	case "pick_loot":
		if len(m.loot) > 0 {
			m.inventory[m.loot[0]]++
			m.loot = m.loot[1:]
		}
	case "escape_zone":
		m.zoneSafe = true
		m.zoneDistance = 0
		if heal, ok := action["use_heal"].(string); ok && heal != "" {
			w.useItem(m, heal)
		}
	}

	if w.rng.Float64() < ambushChance {
		ack["ambushed"] = true
		m.hp -= 10 + w.rng.Float64()*15
	}
	return ack, nil
}

// step advances world time for one match by one tick.
func (w *World) step(m *match) {
	if m.finished {
		return
	}
	m.tick++

	// Zone pressure ramps up over the match.
	if m.tick > zoneGraceTicks && m.tick%zoneShrinkEvery == 0 {
		m.zoneSafe = false
		m.zoneDistance = 30 + w.rng.Float64()*80
		m.zoneTimer = 8 + w.rng.Float64()*10
	}
	if !m.zoneSafe {
		m.hp -= zoneDamagePerSec
	}

	// Other players thin each other out.
	if m.playersAlive > 2 && w.rng.Float64() < 0.25 {
		m.playersAlive--
	}
	if w.rng.Float64() < enemyFleeChance && len(m.enemies) > 0 {
		m.enemies = m.enemies[1:]
	}
	if len(m.enemies) == 0 && w.rng.Float64() < 0.4 {
		w.spawnEnemies(m)
	}

	if m.hp <= 0 || m.playersAlive <= 1 {
		m.finished = true
	}
}

func (w *World) resolveAttack(m *match) {
	if len(m.enemies) == 0 {
		return
	}
	e := m.enemies[0]
	dps := 5.0
	if m.weapon != nil {
		dps = m.weapon.dps
	}
	e.hp -= dps
	m.hp -= e.dps * 0.5
	if e.hp <= 0 {
		m.kills++
		m.playersAlive--
		m.enemies = m.enemies[1:]
		w.balance += 1 // kill bounty
	}
}

func (w *World) useItem(m *match, item string) {
	if m.inventory[item] <= 0 {
		return
	}
	m.inventory[item]--
	heal := map[string]float64{
		"mega_shield": 60, "large_medkit": 50, "medkit": 35,
		"bandage": 15, "small_heal": 10,
	}[item]
	m.hp += heal
	if m.hp > startHP {
		m.hp = startHP
	}
}

func (w *World) spawnEnemies(m *match) {
	n := 1 + w.rng.Intn(3)
	for i := 0; i < n; i++ {
		hp := 40 + w.rng.Float64()*60
		m.enemies = append(m.enemies, &simEnemy{
			id:       fmt.Sprintf("enemy-%d-%d", m.tick, i),
			hp:       hp,
			maxHP:    hp,
			dps:      8 + w.rng.Float64()*20,
			distance: 20 + w.rng.Float64()*120,
			inZone:   w.rng.Float64() < 0.2,
		})
	}
}

func (w *World) spawnGround(m *match) {
	if w.rng.Float64() < 0.5 {
		wep := weaponPool[w.rng.Intn(len(weaponPool))]
		m.groundWeapon = &wep
	}
	if w.rng.Float64() < 0.6 {
		m.loot = append(m.loot, lootPool[w.rng.Intn(len(lootPool))])
	}
}

// snapshot renders the match in the wire format the agent parses.
func (w *World) snapshot(m *match) map[string]any {
	status := "active"
	if m.finished {
		status = "finished"
	}

	enemies := make([]map[string]any, 0, len(m.enemies))
	for _, e := range m.enemies {
		enemies = append(enemies, map[string]any{
			"id":       e.id,
			"hp":       e.hp,
			"max_hp":   e.maxHP,
			"dps":      e.dps,
			"distance": e.distance,
			"in_zone":  e.inZone,
		})
	}

	weapons := []map[string]any{}
	if m.groundWeapon != nil {
		weapons = append(weapons, map[string]any{
			"name":     m.groundWeapon.name,
			"dps":      m.groundWeapon.dps,
			"accuracy": m.groundWeapon.accuracy,
			"range":    m.groundWeapon.rng,
			"tier":     m.groundWeapon.tier,
		})
	}

	loot := make([]map[string]any, 0, len(m.loot))
	for i, name := range m.loot {
		loot = append(loot, map[string]any{
			"id":       fmt.Sprintf("loot-%d-%d", m.tick, i),
			"name":     name,
			"distance": 5 + w.rng.Float64()*25,
		})
	}

	agent := map[string]any{
		"hp":      m.hp,
		"max_hp":  startHP,
		"balance": w.balance,
		"kills":   m.kills,
		"position": map[string]any{
			"x": w.rng.Float64() * 1000, "y": w.rng.Float64() * 1000,
			"region": m.region,
		},
		"inventory": m.inventory,
	}
	if m.weapon != nil {
		agent["weapon"] = map[string]any{
			"name":     m.weapon.name,
			"dps":      m.weapon.dps,
			"accuracy": m.weapon.accuracy,
			"range":    m.weapon.rng,
			"tier":     m.weapon.tier,
		}
	}

	return map[string]any{
		"match_id":      m.id,
		"tick":          m.tick,
		"status":        status,
		"players_alive": m.playersAlive,
		"agent":         agent,
		"enemies":       enemies,
		"weapons":       weapons,
		"loot":          loot,
		"zone": map[string]any{
			"distance_to_safe": m.zoneDistance,
			"shrink_timer":     m.zoneTimer,
			"safe_direction":   "north",
			"agent_is_safe":    m.zoneSafe,
			"damage_per_sec":   zoneDamagePerSec,
		},
		"vision_modifier": 1.0,
	}
}
