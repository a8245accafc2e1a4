package gameapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/moltyroyale/agent/internal/domain/model"
)

// Snapshot and room parsing. The provider's field names drift between
// deployments, so every lookup tries the known variants in order.

var errNotObject = errors.New("payload is not a JSON object")

// pickFloat returns the first present numeric field among keys.
func pickFloat(m map[string]any, fallback float64, keys ...string) float64 {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			switch n := v.(type) {
			case float64:
				return n
			case json.Number:
				if f, err := n.Float64(); err == nil {
					return f
				}
			}
		}
	}
	return fallback
}

// pickInt returns the first present integer field among keys.
func pickInt(m map[string]any, fallback int, keys ...string) int {
	return int(pickFloat(m, float64(fallback), keys...))
}

// pickString returns the first present non-empty string field among keys.
func pickString(m map[string]any, fallback string, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return fallback
}

// pickBool returns the first present boolean field among keys.
func pickBool(m map[string]any, fallback bool, keys ...string) bool {
	for _, k := range keys {
		if v, ok := m[k].(bool); ok {
			return v
		}
	}
	return fallback
}

func asObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// pickList returns the first present array field among keys.
func pickList(m map[string]any, keys ...string) ([]any, bool) {
	for _, k := range keys {
		if list, ok := m[k].([]any); ok {
			return list, true
		}
	}
	return nil, false
}

// ParseSnapshot maps a raw state payload onto the engine's data model.
// Vitals are mandatory; everything else degrades to safe defaults.
func ParseSnapshot(raw json.RawMessage) (model.MatchSnapshot, error) {
	var root map[string]any
	if err := json.Unmarshal(raw, &root); err != nil {
		return model.MatchSnapshot{}, fmt.Errorf("decode state: %w", err)
	}

	// Some deployments nest the agent under "agent", others inline it.
	agent := root
	if nested, ok := asObject(root["agent"]); ok {
		agent = nested
	}

	hp := pickFloat(agent, -1, "hp", "health")
	if hp < 0 {
		return model.MatchSnapshot{}, errors.New("state missing agent hp")
	}

	snap := model.MatchSnapshot{
		MatchID:      pickString(root, "", "match_id", "matchId"),
		Tick:         pickInt(root, 0, "tick"),
		Status:       pickString(root, "", "status"),
		PlayersAlive: pickInt(root, 0, "players_alive", "playersAlive", "alive"),
		Self: model.SelfState{
			HP:        hp,
			MaxHP:     pickFloat(agent, 100, "max_hp", "maxHp"),
			Balance:   pickFloat(agent, 0, "balance"),
			Kills:     pickInt(agent, 0, "kills"),
			Inventory: parseInventory(agent["inventory"]),
		},
		VisionModifier: pickFloat(root, 1.0, "vision_modifier", "visionModifier"),
	}

	if pos, ok := asObject(agent["position"]); ok {
		snap.Self.Position = model.Position{
			X:      pickFloat(pos, 0, "x"),
			Y:      pickFloat(pos, 0, "y"),
			Region: pickString(pos, "", "region"),
		}
	}

	if w, ok := asObject(agent["weapon"]); ok {
		weapon := parseWeapon(w)
		snap.Self.Weapon = &weapon
	}

	if z, ok := asObject(root["zone"]); ok {
		snap.Zone = model.Zone{
			DistanceToSafe: pickFloat(z, 999, "distance_to_safe", "distance"),
			ShrinkTimer:    pickFloat(z, 999, "shrink_timer", "timer"),
			SafeDirection:  pickString(z, "", "safe_direction", "direction"),
			Safe:           pickBool(z, true, "agent_is_safe", "safe"),
			DamagePerSec:   pickFloat(z, 1, "damage_per_sec", "dps"),
		}
	} else {
		// No zone block means no hazard information; assume safe.
		snap.Zone = model.Zone{DistanceToSafe: 999, ShrinkTimer: 999, Safe: true, DamagePerSec: 1}
	}

	if list, ok := pickList(root, "visible_enemies", "enemies"); ok {
		for _, item := range list {
			if e, ok := asObject(item); ok {
				snap.Enemies = append(snap.Enemies, model.Enemy{
					ID:       pickString(e, "", "id", "enemy_id"),
					HP:       pickFloat(e, 100, "hp"),
					MaxHP:    pickFloat(e, 100, "max_hp", "maxHp"),
					DPS:      pickFloat(e, 10, "dps"),
					Distance: pickFloat(e, 50, "distance"),
					Mobility: pickFloat(e, 1.0, "mobility", "escape_skill"),
					InZone:   pickBool(e, false, "in_zone", "inZone"),
				})
			}
		}
	}

	if list, ok := pickList(root, "weapons_nearby", "weapons"); ok {
		for _, item := range list {
			if w, ok := asObject(item); ok {
				snap.WeaponsNearby = append(snap.WeaponsNearby, parseWeapon(w))
			}
		}
	}

	if list, ok := pickList(root, "loot_nearby", "loot"); ok {
		for _, item := range list {
			if l, ok := asObject(item); ok {
				snap.LootNearby = append(snap.LootNearby, model.LootItem{
					ID:       pickString(l, "", "id", "item_id"),
					Name:     pickString(l, "", "item", "name"),
					Distance: pickFloat(l, 0, "distance"),
				})
			}
		}
	}

	return snap, nil
}

func parseWeapon(w map[string]any) model.Weapon {
	return model.Weapon{
		ID:       pickString(w, "", "id"),
		Name:     pickString(w, "unknown", "name"),
		DPS:      pickFloat(w, 0, "dps"),
		Accuracy: pickFloat(w, 1, "accuracy"),
		Range:    pickFloat(w, 1, "range"),
		Tier:     model.WeaponTier(strings.ToLower(pickString(w, string(model.TierCommon), "tier"))),
	}
}

// parseInventory accepts both list-of-entries and name->count forms.
func parseInventory(v any) model.Inventory {
	inv := model.Inventory{}
	switch typed := v.(type) {
	case []any:
		for _, item := range typed {
			if e, ok := asObject(item); ok {
				name := pickString(e, "", "item", "name")
				if name != "" {
					inv[name] += pickInt(e, 1, "count")
				}
			}
		}
	case map[string]any:
		for name, count := range typed {
			if n, ok := count.(float64); ok {
				inv[name] = int(n)
			}
		}
	}
	return inv
}

// parseRooms accepts a bare list, a wrapped list under several known
// keys, or a single room object.
func parseRooms(raw json.RawMessage) ([]model.RoomSummary, error) {
	var anyPayload any
	if err := json.Unmarshal(raw, &anyPayload); err != nil {
		return nil, fmt.Errorf("decode rooms: %w", err)
	}

	var entries []any
	switch typed := anyPayload.(type) {
	case []any:
		entries = typed
	case map[string]any:
		for _, key := range []string{"rooms", "data", "result", "list", "items"} {
			if list, ok := typed[key].([]any); ok {
				entries = list
				break
			}
		}
		if entries == nil {
			// A single room object is a catalog of one.
			if _, ok := typed["id"]; ok {
				entries = []any{anyPayload}
			} else if _, ok := typed["room_id"]; ok {
				entries = []any{anyPayload}
			} else {
				return nil, fmt.Errorf("rooms payload has no recognized list key")
			}
		}
	default:
		return nil, errNotObject
	}

	rooms := make([]model.RoomSummary, 0, len(entries))
	for _, entry := range entries {
		switch typed := entry.(type) {
		case string:
			// Bare room IDs carry no occupancy data; assume open.
			rooms = append(rooms, model.RoomSummary{ID: typed, MaxPlayers: 99, Type: "free"})
		case map[string]any:
			rooms = append(rooms, model.RoomSummary{
				ID:             pickString(typed, "", "id", "room_id", "roomId"),
				CurrentPlayers: pickInt(typed, 0, "current_players", "players", "playerCount", "currentPlayers"),
				MaxPlayers:     pickInt(typed, 99, "max_players", "maxPlayers", "max", "capacity", "size"),
				Type:           strings.ToLower(pickString(typed, "free", "type", "roomType", "room_type")),
				EntryCost:      pickFloat(typed, 0, "entry_cost", "cost", "fee", "price", "entryCost"),
			})
		}
	}
	return rooms, nil
}

// parseJoin extracts the match ID from a join response, falling back to
// the room ID when the provider omits it.
func parseJoin(raw json.RawMessage, roomID string) (string, error) {
	var anyPayload any
	if err := json.Unmarshal(raw, &anyPayload); err != nil {
		return "", fmt.Errorf("decode join: %w", err)
	}
	switch typed := anyPayload.(type) {
	case map[string]any:
		if id := pickString(typed, "", "match_id", "matchId", "id"); id != "" {
			return id, nil
		}
		return roomID, nil
	case string:
		if typed != "" {
			return typed, nil
		}
		return roomID, nil
	default:
		return roomID, nil
	}
}

// parseAck mines the action response for outcome signals. Malformed
// acks degrade to an empty Ack; the action already went through.
func parseAck(raw json.RawMessage) Ack {
	var root map[string]any
	if err := json.Unmarshal(raw, &root); err != nil {
		return Ack{}
	}
	ack := Ack{
		ItemsFound: pickInt(root, 0, "items_found", "itemsFound"),
		Ambushed:   pickBool(root, false, "ambushed"),
	}
	if w, ok := asObject(root["weapon_acquired"]); ok {
		weapon := parseWeapon(w)
		ack.WeaponAcquired = &weapon
	}
	return ack
}
