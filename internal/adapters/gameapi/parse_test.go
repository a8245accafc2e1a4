package gameapi

import (
	"encoding/json"
	"testing"

	"github.com/moltyroyale/agent/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseSnapshot(t *testing.T) {
	Convey("Given state payloads in the provider's drifting formats", t, func() {
		Convey("When the agent block is nested", func() {
			raw := json.RawMessage(`{
				"match_id": "m1",
				"tick": 42,
				"status": "active",
				"players_alive": 7,
				"agent": {
					"hp": 64.5,
					"max_hp": 100,
					"kills": 2,
					"balance": 12.5,
					"position": {"x": 10, "y": 20, "region": "north"},
					"weapon": {"name": "smg", "dps": 22, "accuracy": 0.65, "range": 35, "tier": "UNCOMMON"},
					"inventory": {"bandage": 2, "medkit": 1}
				},
				"zone": {"distance_to_safe": 30, "shrink_timer": 12, "safe_direction": "east", "agent_is_safe": false, "damage_per_sec": 5},
				"visible_enemies": [{"id": "e1", "hp": 80, "max_hp": 100, "dps": 15, "distance": 45, "in_zone": false}],
				"weapons_nearby": [{"name": "railgun", "dps": 55, "accuracy": 0.85, "range": 120, "tier": "legendary"}],
				"loot_nearby": [{"id": "l1", "item": "medkit", "distance": 8}],
				"vision_modifier": 0.7
			}`)

			snap, err := ParseSnapshot(raw)
			So(err, ShouldBeNil)

			Convey("Then every section maps onto the model", func() {
				So(snap.MatchID, ShouldEqual, "m1")
				So(snap.Tick, ShouldEqual, 42)
				So(snap.PlayersAlive, ShouldEqual, 7)
				So(snap.Self.HP, ShouldAlmostEqual, 64.5)
				So(snap.Self.Kills, ShouldEqual, 2)
				So(snap.Self.Position.Region, ShouldEqual, "north")
				So(snap.Self.Inventory["bandage"], ShouldEqual, 2)
				So(snap.Zone.Safe, ShouldBeFalse)
				So(snap.Zone.DistanceToSafe, ShouldAlmostEqual, 30)
				So(snap.Enemies, ShouldHaveLength, 1)
				So(snap.WeaponsNearby[0].Tier, ShouldEqual, model.TierLegendary)
				So(snap.LootNearby[0].Name, ShouldEqual, "medkit")
				So(snap.VisionModifier, ShouldAlmostEqual, 0.7)
			})

			Convey("Then weapon tiers are normalized to lowercase", func() {
				So(snap.Self.Weapon.Tier, ShouldEqual, model.TierUncommon)
			})
		})

		Convey("When the agent fields are inline and camelCased", func() {
			raw := json.RawMessage(`{
				"matchId": "m2",
				"playersAlive": 3,
				"health": 50,
				"maxHp": 100,
				"enemies": [{"enemy_id": "e9", "hp": 40, "distance": 20}],
				"weapons": [{"name": "pistol", "dps": 12, "tier": "common"}],
				"loot": [{"item_id": "l2", "name": "bandage", "distance": 4}]
			}`)

			snap, err := ParseSnapshot(raw)
			So(err, ShouldBeNil)

			Convey("Then variant keys are normalized", func() {
				So(snap.MatchID, ShouldEqual, "m2")
				So(snap.PlayersAlive, ShouldEqual, 3)
				So(snap.Self.HP, ShouldAlmostEqual, 50)
				So(snap.Enemies[0].ID, ShouldEqual, "e9")
				So(snap.WeaponsNearby[0].Name, ShouldEqual, "pistol")
				So(snap.LootNearby[0].ID, ShouldEqual, "l2")
			})

			Convey("Then a missing zone block defaults to safe", func() {
				So(snap.Zone.Safe, ShouldBeTrue)
			})

			Convey("Then a missing vision modifier defaults to full sight", func() {
				So(snap.VisionModifier, ShouldAlmostEqual, 1.0)
			})
		})

		Convey("When the inventory arrives as a list of entries", func() {
			raw := json.RawMessage(`{
				"hp": 70,
				"inventory": [
					{"item": "bandage", "count": 3},
					{"name": "medkit"}
				]
			}`)

			snap, err := ParseSnapshot(raw)
			So(err, ShouldBeNil)
			So(snap.Self.Inventory["bandage"], ShouldEqual, 3)
			So(snap.Self.Inventory["medkit"], ShouldEqual, 1)
		})

		Convey("When the agent HP is missing entirely", func() {
			_, err := ParseSnapshot(json.RawMessage(`{"tick": 5, "agent": {"kills": 1}}`))

			Convey("Then parsing fails; vitals are mandatory", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When the payload is not JSON", func() {
			_, err := ParseSnapshot(json.RawMessage(`not json`))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestParseRooms(t *testing.T) {
	Convey("Given room catalog payloads", t, func() {
		Convey("When the catalog is a bare list", func() {
			rooms, err := parseRooms(json.RawMessage(`[
				{"id": "r1", "current_players": 5, "max_players": 12, "type": "free"},
				{"room_id": "r2", "players": 8, "capacity": 10, "roomType": "PAID", "fee": 25}
			]`))
			So(err, ShouldBeNil)
			So(rooms, ShouldHaveLength, 2)
			So(rooms[0].ID, ShouldEqual, "r1")
			So(rooms[1].ID, ShouldEqual, "r2")
			So(rooms[1].CurrentPlayers, ShouldEqual, 8)
			So(rooms[1].MaxPlayers, ShouldEqual, 10)
			So(rooms[1].Type, ShouldEqual, "paid")
			So(rooms[1].EntryCost, ShouldAlmostEqual, 25)
		})

		Convey("When the catalog is wrapped", func() {
			for _, key := range []string{"rooms", "data", "result", "list", "items"} {
				raw := json.RawMessage(`{"` + key + `": [{"id": "r1", "current_players": 2}]}`)
				rooms, err := parseRooms(raw)
				So(err, ShouldBeNil)
				So(rooms, ShouldHaveLength, 1)
			}
		})

		Convey("When the payload is a single room object", func() {
			rooms, err := parseRooms(json.RawMessage(`{"id": "solo", "current_players": 1}`))
			So(err, ShouldBeNil)
			So(rooms, ShouldHaveLength, 1)
			So(rooms[0].ID, ShouldEqual, "solo")
		})

		Convey("When entries are bare room IDs", func() {
			rooms, err := parseRooms(json.RawMessage(`["r1", "r2"]`))
			So(err, ShouldBeNil)
			So(rooms, ShouldHaveLength, 2)

			Convey("Then they are assumed open", func() {
				So(rooms[0].Full(), ShouldBeFalse)
				So(rooms[0].Type, ShouldEqual, "free")
			})
		})

		Convey("When the wrapper has no recognized list key", func() {
			_, err := parseRooms(json.RawMessage(`{"unexpected": true}`))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestParseJoin(t *testing.T) {
	Convey("Given join responses", t, func() {
		Convey("Then known match ID keys are honored in order", func() {
			for _, raw := range []string{
				`{"match_id": "m1"}`,
				`{"matchId": "m1"}`,
				`{"id": "m1"}`,
				`"m1"`,
			} {
				id, err := parseJoin(json.RawMessage(raw), "room-9")
				So(err, ShouldBeNil)
				So(id, ShouldEqual, "m1")
			}
		})

		Convey("Then an empty response falls back to the room ID", func() {
			id, err := parseJoin(json.RawMessage(`{}`), "room-9")
			So(err, ShouldBeNil)
			So(id, ShouldEqual, "room-9")
		})
	})
}

func TestParseAck(t *testing.T) {
	Convey("Given action acknowledgements", t, func() {
		Convey("When the ack carries outcome signals", func() {
			ack := parseAck(json.RawMessage(`{
				"items_found": 2,
				"ambushed": true,
				"weapon_acquired": {"name": "railgun", "dps": 55, "tier": "legendary"}
			}`))

			So(ack.ItemsFound, ShouldEqual, 2)
			So(ack.Ambushed, ShouldBeTrue)
			So(ack.WeaponAcquired, ShouldNotBeNil)
			So(ack.WeaponAcquired.Tier, ShouldEqual, model.TierLegendary)
		})

		Convey("When the ack is empty or malformed", func() {
			Convey("Then it degrades to a zero Ack", func() {
				So(parseAck(json.RawMessage(`{}`)), ShouldResemble, Ack{})
				So(parseAck(json.RawMessage(`garbage`)), ShouldResemble, Ack{})
			})
		})
	})
}
