package model

import (
	"time"

	"github.com/google/uuid"
)

// EventKind enumerates match outcomes that adjust region value scores.
type EventKind string

// Outcome event kinds.
const (
	EventHighTierWeapon EventKind = "high_tier_weapon"
	EventKill           EventKind = "kill"
	EventExplore        EventKind = "explore"
	EventZoneProne      EventKind = "zone_prone"
	EventAmbush         EventKind = "ambush"
)

// OutcomeEvent records a single match outcome tied to a region. Events
// are applied to the region value table asynchronously; EventID makes
// application idempotent when the same outcome is observed across
// several consecutive snapshots.
type OutcomeEvent struct {
	EventID    string
	MatchID    string
	Region     string
	Kind       EventKind
	ItemsFound int // explore events only: meaningful items found
	TS         time.Time
}

// NewOutcomeEvent builds an event with a fresh unique ID.
func NewOutcomeEvent(matchID, region string, kind EventKind) OutcomeEvent {
	return OutcomeEvent{
		EventID: uuid.NewString(),
		MatchID: matchID,
		Region:  region,
		Kind:    kind,
		TS:      time.Now().UTC(),
	}
}
