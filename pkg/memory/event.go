// Package memory implements the NPC memory and relationship model:
// per-NPC event logs with time-based importance decay, derived
// relationship metrics, and word-of-mouth gossip between NPCs.
package memory

import (
	"fmt"
	"math"
)

// EventKind identifies what kind of player-related occurrence an event
// records. Kinds are stable string tags and appear as-is in persisted data.
type EventKind string

const (
	EventFirstMeeting    EventKind = "first_meeting"
	EventConversation    EventKind = "conversation"
	EventQuestAccepted   EventKind = "quest_accepted"
	EventQuestCompleted  EventKind = "quest_completed"
	EventQuestFailed     EventKind = "quest_failed"
	EventItemGifted      EventKind = "item_gifted"
	EventObservedCombat  EventKind = "observed_combat"
	EventHelpedInDanger  EventKind = "helped_in_danger"
	EventVisitedLocation EventKind = "visited_location"
	EventSharedSecret    EventKind = "shared_secret"
	EventBetrayal        EventKind = "betrayal"
)

// Valid reports whether k is a known event kind.
func (k EventKind) Valid() bool {
	switch k {
	case EventFirstMeeting, EventConversation, EventQuestAccepted,
		EventQuestCompleted, EventQuestFailed, EventItemGifted,
		EventObservedCombat, EventHelpedInDanger, EventVisitedLocation,
		EventSharedSecret, EventBetrayal:
		return true
	}
	return false
}

// Details holds event-specific scalars keyed by name, e.g. "quest_id",
// "item_name", "value", "enemy_type", "player_won". Values should be
// JSON-representable scalars (string, bool, int, float64).
type Details map[string]any

// Copy returns an independent copy of the details map. Witnesses get their
// own event value, so shared map state must not leak between managers.
func (d Details) Copy() Details {
	if d == nil {
		return nil
	}
	out := make(Details, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// String returns the string value for key, or fallback if absent.
func (d Details) String(key, fallback string) string {
	if v, ok := d[key].(string); ok {
		return v
	}
	return fallback
}

// Bool returns the bool value for key, or false if absent.
func (d Details) Bool(key string) bool {
	v, _ := d[key].(bool)
	return v
}

// Number returns the numeric value for key, or fallback if absent.
// JSON decoding produces float64, but callers may also store ints.
func (d Details) Number(key string, fallback float64) float64 {
	switch v := d[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return fallback
}

// DefaultHalfLife is the memory half-life in game milliseconds. An event
// with importance 1.0 retains exp(-1) of its weight after one half-life.
const DefaultHalfLife int64 = 10000

// Event is a single occurrence an NPC remembers about the player, either
// witnessed directly or heard through gossip. Events are immutable once
// created; each manager holds its own copy.
type Event struct {
	Kind       EventKind `json:"event_kind"`
	Timestamp  int64     `json:"timestamp"` // game time, milliseconds
	LocationID string    `json:"location_id"`
	Details    Details   `json:"details,omitempty"`
	Positive   bool      `json:"is_positive"`
	Importance float64   `json:"importance"`
}

// NewEvent validates and constructs an Event. Importance must be positive
// (decay math divides by it) and the kind must be known.
func NewEvent(kind EventKind, details Details, locationID string, now int64, positive bool, importance float64) (Event, error) {
	if !kind.Valid() {
		return Event{}, fmt.Errorf("%w: unknown event kind %q", ErrInvalidArgument, kind)
	}
	if importance <= 0 {
		return Event{}, fmt.Errorf("%w: importance must be positive, got %v", ErrInvalidArgument, importance)
	}
	return Event{
		Kind:       kind,
		Timestamp:  now,
		LocationID: locationID,
		Details:    details.Copy(),
		Positive:   positive,
		Importance: importance,
	}, nil
}

// Age returns how long ago the event happened.
func (e Event) Age(now int64) int64 {
	return now - e.Timestamp
}

// DecayFactor returns the exponential decay multiplier at the given time.
// Important memories decay slower: the half-life is scaled by importance.
func (e Event) DecayFactor(now int64, halfLife int64) float64 {
	adjusted := float64(halfLife) * e.Importance
	return math.Exp(-float64(e.Age(now)) / adjusted)
}

// EffectiveImportance returns the importance of the event after decay.
// Strictly decreasing in now, approaching but never reaching zero.
func (e Event) EffectiveImportance(now int64, halfLife int64) float64 {
	return e.Importance * e.DecayFactor(now, halfLife)
}
