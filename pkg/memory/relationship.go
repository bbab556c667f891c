package memory

import "math"

// Level is the discrete relationship classification an NPC holds toward
// the player. It is always derived from the friendship, trust and respect
// scalars; it is never set independently.
type Level int

const (
	Stranger Level = iota
	Acquaintance
	Friendly
	Friend
	CloseFriend
)

func (l Level) String() string {
	switch l {
	case Stranger:
		return "stranger"
	case Acquaintance:
		return "acquaintance"
	case Friendly:
		return "friendly"
	case Friend:
		return "friend"
	case CloseFriend:
		return "close_friend"
	}
	return "unknown"
}

// levelFor maps the combined friendship+trust+respect score (0..300) to a
// relationship level.
func levelFor(combined float64) Level {
	switch {
	case combined < 30:
		return Stranger
	case combined < 90:
		return Acquaintance
	case combined < 150:
		return Friendly
	case combined < 220:
		return Friend
	default:
		return CloseFriend
	}
}

// DefaultMemoryCap bounds the number of events a relationship retains.
// When exceeded, the event with the lowest effective importance is dropped.
const DefaultMemoryCap = 200

// LongTimeThreshold is how long (game ms) without interaction before
// greetings switch to their "been a while" variants.
const LongTimeThreshold int64 = 50000

// Relationship tracks one NPC's accumulated disposition toward the player.
// The NPC is referenced by an opaque identifier only; the entity layer owns
// the NPC itself.
//
// Relationship is not safe for concurrent use. All mutation is expected to
// flow through a System (or another single caller) honoring the engine's
// single-threaded contract.
type Relationship struct {
	npcID       string
	displayName string

	level      Level
	friendship float64
	trust      float64
	respect    float64
	fear       float64

	memories  []Event
	discussed map[string]struct{}

	lastInteraction int64
	interactions    int

	halfLife  int64
	memoryCap int
}

// RelationshipOption configures a Relationship at construction time.
type RelationshipOption func(*Relationship)

// WithDisplayName sets the name used in generated greeting and topic text.
// Defaults to a title-cased form of the NPC id.
func WithDisplayName(name string) RelationshipOption {
	return func(r *Relationship) { r.displayName = name }
}

// WithHalfLife overrides the memory half-life for decay math.
func WithHalfLife(halfLife int64) RelationshipOption {
	return func(r *Relationship) {
		if halfLife > 0 {
			r.halfLife = halfLife
		}
	}
}

// WithMemoryCap overrides the retained-event bound.
func WithMemoryCap(n int) RelationshipOption {
	return func(r *Relationship) {
		if n > 0 {
			r.memoryCap = n
		}
	}
}

// NewRelationship creates an empty relationship for the given NPC id.
func NewRelationship(npcID string, opts ...RelationshipOption) *Relationship {
	r := &Relationship{
		npcID:     npcID,
		level:     Stranger,
		discussed: make(map[string]struct{}),
		halfLife:  DefaultHalfLife,
		memoryCap: DefaultMemoryCap,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.displayName == "" {
		r.displayName = Humanize(npcID)
	}
	return r
}

// AddMemory records a new event about the player, updates the relationship
// scalars from the per-kind impact table, recomputes the level, and returns
// the stored event.
func (r *Relationship) AddMemory(kind EventKind, details Details, locationID string, now int64, positive bool, importance float64) (Event, error) {
	ev, err := NewEvent(kind, details, locationID, now, positive, importance)
	if err != nil {
		return Event{}, err
	}

	r.memories = append(r.memories, ev)
	r.applyImpact(ev)

	if kind == EventFirstMeeting {
		r.lastInteraction = now
	}

	if len(r.memories) > r.memoryCap {
		r.evictWeakest(now)
	}
	return ev, nil
}

// applyImpact adjusts the relationship scalars for one event and
// recomputes the level. Base impact scales with importance and flips sign
// for negative events; kinds whose rows already encode a negative
// direction use the magnitude only, so a quest failure or betrayal never
// improves the relationship. All scalars stay clamped to [0,100].
func (r *Relationship) applyImpact(ev Event) {
	base := 5.0 * ev.Importance
	if !ev.Positive {
		base = -base
	}
	mag := math.Abs(base)

	switch ev.Kind {
	case EventFirstMeeting:
		r.friendship += base * 0.5
		r.trust += base * 0.3

	case EventConversation:
		r.friendship += base * 1.0
		if ev.Details.Bool("personal_topic") {
			r.trust += base * 1.5
		}

	case EventQuestCompleted:
		r.respect += base * 2.0
		r.trust += base * 1.0
		r.friendship += base * 0.5

	case EventQuestFailed:
		r.respect -= mag * 1.5
		r.trust -= mag * 2.0

	case EventItemGifted:
		r.friendship += base * 2.0
		if ev.Details.Number("value", 0) > 50 {
			r.respect += base * 0.5
		}

	case EventObservedCombat:
		r.respect += base * 1.0
		if ev.Details.Bool("player_won") {
			r.fear += base * 0.5
		}

	case EventHelpedInDanger:
		r.trust += base * 2.0
		r.friendship += base * 1.5
		r.respect += base * 1.0

	case EventBetrayal:
		r.trust -= mag * 3.0
		r.friendship -= mag * 2.0
		r.fear += mag * 1.0

	case EventVisitedLocation, EventQuestAccepted, EventSharedSecret:
		// Informational only, no direct scalar impact.
	}

	r.friendship = clamp(r.friendship)
	r.trust = clamp(r.trust)
	r.respect = clamp(r.respect)
	r.fear = clamp(r.fear)

	r.level = levelFor(r.friendship + r.trust + r.respect)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// evictWeakest drops the single event with the lowest effective importance
// at the given time. Ties keep the newer event.
func (r *Relationship) evictWeakest(now int64) {
	if len(r.memories) == 0 {
		return
	}
	weakest := 0
	weakestImp := r.memories[0].EffectiveImportance(now, r.halfLife)
	for i := 1; i < len(r.memories); i++ {
		imp := r.memories[i].EffectiveImportance(now, r.halfLife)
		if imp < weakestImp || (imp == weakestImp && r.memories[i].Timestamp < r.memories[weakest].Timestamp) {
			weakest = i
			weakestImp = imp
		}
	}
	r.memories = append(r.memories[:weakest], r.memories[weakest+1:]...)
}

// ImportantMemories returns up to max events ordered by effective
// importance (descending). Ties break toward the more recent event.
func (r *Relationship) ImportantMemories(now int64, max int) []Event {
	ranked := make([]Event, len(r.memories))
	copy(ranked, r.memories)

	// Insertion sort keeps this simple and stable for short logs.
	key := func(e Event) float64 { return e.EffectiveImportance(now, r.halfLife) }
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0; j-- {
			ki, kj := key(ranked[j]), key(ranked[j-1])
			if ki > kj || (ki == kj && ranked[j].Timestamp > ranked[j-1].Timestamp) {
				ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
			} else {
				break
			}
		}
	}

	if max >= 0 && len(ranked) > max {
		ranked = ranked[:max]
	}
	return ranked
}

// MarkTopicDiscussed excludes a topic type from further ConversationTopics
// results until the next greeting resets the conversation.
func (r *Relationship) MarkTopicDiscussed(topicType string) {
	r.discussed[topicType] = struct{}{}
}

// Accessors for the UI layer. The render layer reads relationship state;
// all mutation flows through AddMemory.

func (r *Relationship) NPCID() string              { return r.npcID }
func (r *Relationship) DisplayName() string        { return r.displayName }
func (r *Relationship) Level() Level               { return r.level }
func (r *Relationship) Friendship() float64        { return r.friendship }
func (r *Relationship) Trust() float64             { return r.trust }
func (r *Relationship) Respect() float64           { return r.respect }
func (r *Relationship) Fear() float64              { return r.fear }
func (r *Relationship) MemoryCount() int           { return len(r.memories) }
func (r *Relationship) LastInteractionTime() int64 { return r.lastInteraction }
func (r *Relationship) InteractionsCount() int     { return r.interactions }
func (r *Relationship) HalfLife() int64            { return r.halfLife }

// Memories returns a copy of the event log in chronological order.
func (r *Relationship) Memories() []Event {
	out := make([]Event, len(r.memories))
	copy(out, r.memories)
	return out
}
