package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Gossip diffusion bounds, in game milliseconds.
const (
	// GossipMinAge is how long news takes to start spreading.
	GossipMinAge int64 = 5000
	// GossipMaxAge is when news stops circulating.
	GossipMaxAge int64 = 100000
	// GossipMemoryLimit stops diffusion into NPCs that already hold more
	// than this many memories.
	GossipMemoryLimit = 20
)

const (
	// witnessImportanceScale attenuates events for NPCs who saw them
	// happen to someone else.
	witnessImportanceScale = 0.7
	// gossipImportanceScale attenuates events recorded as hearsay.
	gossipImportanceScale = 0.5
)

// Config carries the tunables of a memory System.
type Config struct {
	// HalfLife is the memory half-life in game milliseconds.
	HalfLife int64
	// MemoryCap bounds retained events per relationship.
	MemoryCap int
	// GossipBaseChance is the base probability that one global event
	// reaches one NPC during a diffusion pass.
	GossipBaseChance float64
}

// DefaultConfig returns the tunables used by the original game balance.
func DefaultConfig() Config {
	return Config{
		HalfLife:         DefaultHalfLife,
		MemoryCap:        DefaultMemoryCap,
		GossipBaseChance: 0.3,
	}
}

// System is the process-wide registry of NPC relationships plus the global
// event list used for word-of-mouth gossip. One System exists per game
// session; construct it explicitly and pass it to collaborators.
//
// A single coarse lock guards the registry, so hosts may call RecordEvent
// from multiple gameplay systems. Relationship pointers handed out by
// Relationship() are only safe to use from the host's game loop.
type System struct {
	mu            sync.Mutex
	cfg           Config
	rng           Rand
	logger        *slog.Logger
	store         Store
	sessionID     uuid.UUID
	relationships map[string]*Relationship
	globalEvents  []Event
}

// NewSystem creates an empty memory system. The store may be nil for hosts
// that never persist. A nil rng falls back to an unseeded source.
func NewSystem(cfg Config, store Store, rng Rand, logger *slog.Logger) *System {
	if cfg.HalfLife <= 0 {
		cfg.HalfLife = DefaultHalfLife
	}
	if cfg.MemoryCap <= 0 {
		cfg.MemoryCap = DefaultMemoryCap
	}
	if cfg.GossipBaseChance <= 0 {
		cfg.GossipBaseChance = 0.3
	}
	if rng == nil {
		rng = NewRand(1)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &System{
		cfg:           cfg,
		rng:           rng,
		logger:        logger,
		store:         store,
		sessionID:     uuid.New(),
		relationships: make(map[string]*Relationship),
	}
}

// SessionID identifies this system's snapshots.
func (s *System) SessionID() uuid.UUID { return s.sessionID }

// Relationship returns the relationship manager for an NPC, creating an
// empty one on first use. Repeated calls return the same manager.
func (s *System) Relationship(npcID string) *Relationship {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.relationship(npcID)
}

func (s *System) relationship(npcID string) *Relationship {
	r, ok := s.relationships[npcID]
	if !ok {
		r = NewRelationship(npcID, WithHalfLife(s.cfg.HalfLife), WithMemoryCap(s.cfg.MemoryCap))
		s.relationships[npcID] = r
	}
	return r
}

// NPCIDs returns the ids of all NPCs with a relationship, sorted.
func (s *System) NPCIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.relationships))
	for id := range s.relationships {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// GlobalEventCount reports how many gossip-eligible events are on record.
func (s *System) GlobalEventCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.globalEvents)
}

// recordParams collects the optional arguments of RecordEvent.
type recordParams struct {
	targetNPC  string
	witnesses  []string
	global     bool
	positive   bool
	importance float64
}

// RecordOption configures one RecordEvent call.
type RecordOption func(*recordParams)

// WithTarget records the event for the directly-involved NPC at full
// importance.
func WithTarget(npcID string) RecordOption {
	return func(p *recordParams) { p.targetNPC = npcID }
}

// WithWitnesses records the event for bystander NPCs at reduced
// importance. A witness equal to the target is skipped.
func WithWitnesses(npcIDs ...string) RecordOption {
	return func(p *recordParams) { p.witnesses = append(p.witnesses, npcIDs...) }
}

// AsGlobal additionally queues the event for later gossip diffusion.
func AsGlobal() RecordOption {
	return func(p *recordParams) { p.global = true }
}

// Negative marks the event as viewed unfavorably by the NPCs involved.
func Negative() RecordOption {
	return func(p *recordParams) { p.positive = false }
}

// WithImportance overrides the baseline importance of 1.0.
func WithImportance(importance float64) RecordOption {
	return func(p *recordParams) { p.importance = importance }
}

// RecordEvent fans one gameplay occurrence out to the involved NPC, to any
// witnesses (importance scaled by 0.7), and, for global events, onto the
// gossip list (importance scaled by 0.5).
func (s *System) RecordEvent(kind EventKind, details Details, locationID string, now int64, opts ...RecordOption) error {
	p := recordParams{positive: true, importance: 1.0}
	for _, opt := range opts {
		opt(&p)
	}
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown event kind %q", ErrInvalidArgument, kind)
	}
	if p.importance <= 0 {
		return fmt.Errorf("%w: importance must be positive, got %v", ErrInvalidArgument, p.importance)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p.targetNPC != "" {
		if _, err := s.relationship(p.targetNPC).AddMemory(kind, details, locationID, now, p.positive, p.importance); err != nil {
			return err
		}
		s.logger.Debug("recorded event", "npc", p.targetNPC, "kind", kind, "location", locationID)
	}

	for _, witness := range p.witnesses {
		if witness == p.targetNPC {
			continue
		}
		if _, err := s.relationship(witness).AddMemory(kind, details, locationID, now, p.positive, p.importance*witnessImportanceScale); err != nil {
			return err
		}
		s.logger.Debug("recorded witnessed event", "npc", witness, "kind", kind)
	}

	if p.global {
		ev, err := NewEvent(kind, details, locationID, now, p.positive, p.importance*gossipImportanceScale)
		if err != nil {
			return err
		}
		s.globalEvents = append(s.globalEvents, ev)
	}
	return nil
}

// DiffuseGossip gives one NPC a chance to have heard about each global
// event through word of mouth. Events younger than GossipMinAge have not
// spread yet; events older than GossipMaxAge no longer circulate. Accepted
// events keep their original timestamp, so decay runs from when the event
// happened rather than when it was heard.
func (s *System) DiffuseGossip(npcID string, now int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rel := s.relationship(npcID)
	if rel.MemoryCount() > GossipMemoryLimit {
		return
	}

	for _, ev := range s.globalEvents {
		age := now - ev.Timestamp
		if age < GossipMinAge || age > GossipMaxAge {
			continue
		}

		timeFactor := 1.0 - float64(age)/float64(GossipMaxAge)
		chance := s.cfg.GossipBaseChance * ev.Importance * timeFactor
		if s.rng.Float64() >= chance {
			continue
		}

		if _, err := rel.AddMemory(ev.Kind, ev.Details, ev.LocationID, ev.Timestamp, ev.Positive, ev.Importance); err != nil {
			s.logger.Error("failed to record gossip", "npc", npcID, "kind", ev.Kind, "error", err)
			continue
		}
		s.logger.Debug("npc heard gossip", "npc", npcID, "kind", ev.Kind, "location", ev.LocationID)
	}
}

// snapshot deep-copies the persistent state under the lock.
func (s *System) snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &Snapshot{
		SessionID:     s.sessionID,
		Relationships: make(map[string]RelationshipRecord, len(s.relationships)),
		GlobalEvents:  make([]Event, len(s.globalEvents)),
	}
	for id, rel := range s.relationships {
		snap.Relationships[id] = rel.Record()
	}
	copy(snap.GlobalEvents, s.globalEvents)
	return snap
}

// Save serializes every relationship plus the global event list to the
// configured store. The snapshot is taken under the registry lock; the
// write itself runs outside it, bounded by the caller's context.
func (s *System) Save(ctx context.Context) error {
	if s.store == nil {
		return fmt.Errorf("%w: no store configured", ErrPersistence)
	}
	snap := s.snapshot()
	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		s.logger.Error("failed to save relationships", "error", err)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	s.logger.Info("saved npc relationships", "npcs", len(snap.Relationships), "global_events", len(snap.GlobalEvents))
	return nil
}

// Load restores relationships from the configured store. The resolver maps
// persisted NPC ids to live NPCs: entries it rejects are skipped and
// counted, as are entries failing validation. On store failure, the
// registry is left untouched.
func (s *System) Load(ctx context.Context, resolver func(npcID string) bool) (LoadResult, error) {
	if s.store == nil {
		return LoadResult{}, fmt.Errorf("%w: no store configured", ErrPersistence)
	}

	snap, err := s.store.LoadSnapshot(ctx)
	if err != nil {
		s.logger.Error("failed to load relationships", "error", err)
		return LoadResult{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if snap == nil {
		s.logger.Info("no saved relationships found")
		return LoadResult{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var res LoadResult
	for npcID, rec := range snap.Relationships {
		if resolver != nil && !resolver(npcID) {
			res.Unresolved++
			s.logger.Debug("skipping unresolved npc", "npc", npcID)
			continue
		}
		if !validRecord(rec) || rec.NPCID != npcID {
			res.Corrupt++
			s.logger.Warn("skipping corrupt relationship entry", "npc", npcID)
			continue
		}
		s.relationships[npcID] = RelationshipFromRecord(rec,
			WithHalfLife(s.cfg.HalfLife), WithMemoryCap(s.cfg.MemoryCap))
		res.Loaded++
	}

	s.globalEvents = make([]Event, 0, len(snap.GlobalEvents))
	for _, ev := range snap.GlobalEvents {
		if ev.Kind.Valid() && ev.Importance > 0 {
			s.globalEvents = append(s.globalEvents, ev)
		}
	}

	s.logger.Info("loaded npc relationships",
		"loaded", res.Loaded, "unresolved", res.Unresolved, "corrupt", res.Corrupt)
	return res, nil
}
