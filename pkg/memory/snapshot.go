package memory

import (
	"context"

	"github.com/google/uuid"
)

// RelationshipRecord is the serializable form of a Relationship. The shape
// round-trips losslessly; the on-disk encoding belongs to the Store.
type RelationshipRecord struct {
	NPCID               string  `json:"npc_id"`
	DisplayName         string  `json:"display_name,omitempty"`
	RelationshipLevel   int     `json:"relationship_level"`
	Friendship          float64 `json:"friendship"`
	Trust               float64 `json:"trust"`
	Respect             float64 `json:"respect"`
	Fear                float64 `json:"fear"`
	Memories            []Event `json:"memories"`
	LastInteractionTime int64   `json:"last_interaction_time"`
	InteractionsCount   int     `json:"interactions_count"`
}

// Snapshot is a full copy of the memory system's persistent state, keyed
// by NPC identifier.
type Snapshot struct {
	SessionID     uuid.UUID                     `json:"session_id"`
	Relationships map[string]RelationshipRecord `json:"relationships"`
	GlobalEvents  []Event                       `json:"global_events"`
}

// Store persists and restores memory snapshots. Implementations live in
// internal/storage (Redis, flat file, in-memory mock).
type Store interface {
	Ping(ctx context.Context) error
	Close() error
	SaveSnapshot(ctx context.Context, snap *Snapshot) error
	// LoadSnapshot returns (nil, nil) when no snapshot has been saved yet.
	LoadSnapshot(ctx context.Context) (*Snapshot, error)
}

// LoadResult summarizes a Load: how many relationships were restored and
// how many persisted entries were skipped.
type LoadResult struct {
	Loaded     int // relationships restored into the registry
	Unresolved int // persisted NPC ids the resolver did not recognize
	Corrupt    int // entries that failed validation and were skipped
}

// Record returns the serializable form of the relationship.
func (r *Relationship) Record() RelationshipRecord {
	return RelationshipRecord{
		NPCID:               r.npcID,
		DisplayName:         r.displayName,
		RelationshipLevel:   int(r.level),
		Friendship:          r.friendship,
		Trust:               r.trust,
		Respect:             r.respect,
		Fear:                r.fear,
		Memories:            r.Memories(),
		LastInteractionTime: r.lastInteraction,
		InteractionsCount:   r.interactions,
	}
}

// RelationshipFromRecord rebuilds a Relationship from its persisted form.
// The level is recomputed from the scalars rather than trusted from disk,
// keeping it a pure function of friendship+trust+respect.
func RelationshipFromRecord(rec RelationshipRecord, opts ...RelationshipOption) *Relationship {
	if rec.DisplayName != "" {
		opts = append([]RelationshipOption{WithDisplayName(rec.DisplayName)}, opts...)
	}
	r := NewRelationship(rec.NPCID, opts...)
	r.friendship = clamp(rec.Friendship)
	r.trust = clamp(rec.Trust)
	r.respect = clamp(rec.Respect)
	r.fear = clamp(rec.Fear)
	r.level = levelFor(r.friendship + r.trust + r.respect)
	r.memories = make([]Event, len(rec.Memories))
	copy(r.memories, rec.Memories)
	r.lastInteraction = rec.LastInteractionTime
	r.interactions = rec.InteractionsCount
	return r
}

// validRecord rejects entries that would violate core invariants if
// restored. A single bad entry is skipped on load, not fatal.
func validRecord(rec RelationshipRecord) bool {
	if rec.NPCID == "" {
		return false
	}
	for _, ev := range rec.Memories {
		if !ev.Kind.Valid() || ev.Importance <= 0 {
			return false
		}
	}
	return true
}
