package memory

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
)

// scriptedRand returns a fixed sequence of draws, then repeats the last.
type scriptedRand struct {
	draws []float64
	i     int
}

func (s *scriptedRand) Float64() float64 {
	if s.i < len(s.draws) {
		v := s.draws[s.i]
		s.i++
		return v
	}
	if len(s.draws) == 0 {
		return 1.0
	}
	return s.draws[len(s.draws)-1]
}

// stubStore implements Store in-memory without an encoding pass.
type stubStore struct {
	snap    *Snapshot
	saveErr error
	loadErr error
}

func (s *stubStore) Ping(ctx context.Context) error { return nil }
func (s *stubStore) Close() error                   { return nil }
func (s *stubStore) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.snap = snap
	return nil
}
func (s *stubStore) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.snap, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestSystem(store Store, rng Rand) *System {
	return NewSystem(DefaultConfig(), store, rng, testLogger())
}

func TestSystem_RelationshipIdempotent(t *testing.T) {
	sys := newTestSystem(nil, nil)

	a := sys.Relationship("elder")
	b := sys.Relationship("elder")
	if a != b {
		t.Error("Relationship should return the same manager for the same NPC")
	}

	c := sys.Relationship("guard")
	if a == c {
		t.Error("distinct NPCs must not share a manager")
	}
}

func TestSystem_RecordEvent_TargetAndWitnesses(t *testing.T) {
	sys := newTestSystem(nil, nil)

	err := sys.RecordEvent(EventHelpedInDanger, nil, "docks", 1000,
		WithTarget("fisher"),
		WithWitnesses("dockhand", "fisher"), // target repeated as witness
		WithImportance(2.0))
	if err != nil {
		t.Fatalf("RecordEvent failed: %v", err)
	}

	target := sys.Relationship("fisher")
	witness := sys.Relationship("dockhand")

	if got := target.MemoryCount(); got != 1 {
		t.Fatalf("target memory count = %d, want 1 (witness entry must be skipped)", got)
	}
	if got := witness.MemoryCount(); got != 1 {
		t.Fatalf("witness memory count = %d, want 1", got)
	}

	if got := target.Memories()[0].Importance; got != 2.0 {
		t.Errorf("target importance = %v, want 2.0", got)
	}
	if got := witness.Memories()[0].Importance; got != 1.4 {
		t.Errorf("witness importance = %v, want 1.4 (0.7 scale)", got)
	}
}

func TestSystem_RecordEvent_Global(t *testing.T) {
	sys := newTestSystem(nil, nil)

	err := sys.RecordEvent(EventQuestCompleted, Details{"quest_id": "q1"}, "castle", 1000,
		AsGlobal(), WithImportance(2.0))
	if err != nil {
		t.Fatalf("RecordEvent failed: %v", err)
	}

	if got := sys.GlobalEventCount(); got != 1 {
		t.Fatalf("global events = %d, want 1", got)
	}
	// No NPC was directly involved.
	if got := len(sys.NPCIDs()); got != 0 {
		t.Errorf("registry size = %d, want 0", got)
	}
}

func TestSystem_RecordEvent_Invalid(t *testing.T) {
	sys := newTestSystem(nil, nil)

	if err := sys.RecordEvent(EventKind("bogus"), nil, "x", 0, WithTarget("a")); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("unknown kind: got %v, want ErrInvalidArgument", err)
	}
	if err := sys.RecordEvent(EventConversation, nil, "x", 0, WithTarget("a"), WithImportance(-1)); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("negative importance: got %v, want ErrInvalidArgument", err)
	}
	if sys.Relationship("a").MemoryCount() != 0 {
		t.Error("invalid event must not be partially applied")
	}
}

func TestSystem_DiffuseGossip_AgeBounds(t *testing.T) {
	rng := &scriptedRand{draws: []float64{0.0}} // always accept if eligible
	sys := newTestSystem(nil, rng)

	// Too recent, in-window, too old relative to now=60000.
	mustRecord(t, sys, EventQuestCompleted, "castle", 58000, AsGlobal())  // age 2000 < 5000
	mustRecord(t, sys, EventObservedCombat, "forest", 30000, AsGlobal())  // age 30000, eligible
	mustRecord(t, sys, EventQuestFailed, "swamp", -50000, AsGlobal())     // age 110000 > 100000

	sys.DiffuseGossip("villager", 60000)

	rel := sys.Relationship("villager")
	if got := rel.MemoryCount(); got != 1 {
		t.Fatalf("memory count = %d, want 1 (only the in-window event)", got)
	}
	if got := rel.Memories()[0].Kind; got != EventObservedCombat {
		t.Errorf("heard event = %s, want observed_combat", got)
	}
}

func TestSystem_DiffuseGossip_OriginalTimestamp(t *testing.T) {
	rng := &scriptedRand{draws: []float64{0.0}}
	sys := newTestSystem(nil, rng)

	mustRecord(t, sys, EventObservedCombat, "forest", 30000, AsGlobal())
	sys.DiffuseGossip("villager", 60000)

	mems := sys.Relationship("villager").Memories()
	if len(mems) != 1 {
		t.Fatalf("memory count = %d, want 1", len(mems))
	}
	if got := mems[0].Timestamp; got != 30000 {
		t.Errorf("gossip timestamp = %d, want original 30000", got)
	}
}

func TestSystem_DiffuseGossip_RejectedDraw(t *testing.T) {
	rng := &scriptedRand{draws: []float64{0.99}} // always reject
	sys := newTestSystem(nil, rng)

	mustRecord(t, sys, EventObservedCombat, "forest", 30000, AsGlobal())
	sys.DiffuseGossip("villager", 60000)

	if got := sys.Relationship("villager").MemoryCount(); got != 0 {
		t.Errorf("memory count = %d, want 0 after rejected draw", got)
	}
}

func TestSystem_DiffuseGossip_ChanceBoundary(t *testing.T) {
	// Event at t=30000, diffusion at t=60000: age 30000.
	// chance = 0.3 * (2.0*0.5) * (1 - 30000/100000) = 0.21
	cases := []struct {
		draw  float64
		heard bool
	}{
		{0.2099, true},
		{0.21, false},
	}

	for _, tc := range cases {
		rng := &scriptedRand{draws: []float64{tc.draw}}
		sys := newTestSystem(nil, rng)
		mustRecord(t, sys, EventObservedCombat, "forest", 30000, AsGlobal(), WithImportance(2.0))

		sys.DiffuseGossip("villager", 60000)

		heard := sys.Relationship("villager").MemoryCount() == 1
		if heard != tc.heard {
			t.Errorf("draw %v: heard = %v, want %v", tc.draw, heard, tc.heard)
		}
	}
}

func TestSystem_DiffuseGossip_SaturatedNPC(t *testing.T) {
	rng := &scriptedRand{draws: []float64{0.0}}
	sys := newTestSystem(nil, rng)

	rel := sys.Relationship("busy")
	for i := 0; i <= GossipMemoryLimit; i++ {
		if _, err := rel.AddMemory(EventConversation, nil, "inn", int64(i*10), true, 1.0); err != nil {
			t.Fatalf("AddMemory failed: %v", err)
		}
	}

	mustRecord(t, sys, EventObservedCombat, "forest", 30000, AsGlobal())
	sys.DiffuseGossip("busy", 60000)

	if got := rel.MemoryCount(); got != GossipMemoryLimit+1 {
		t.Errorf("saturated NPC absorbed gossip: count = %d", got)
	}
}

func TestSystem_SaveLoad_RoundTrip(t *testing.T) {
	store := &stubStore{}
	sys := newTestSystem(store, nil)

	mustRecord(t, sys, EventFirstMeeting, "town_square", 0, WithTarget("elder"))
	mustRecord(t, sys, EventQuestCompleted, "castle", 5000,
		WithTarget("elder"), WithWitnesses("guard"), AsGlobal(), WithImportance(2.0))
	mustRecord(t, sys, EventBetrayal, "alley", 8000, WithTarget("guard"), Negative())

	if err := sys.Save(context.Background()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	restored := newTestSystem(store, nil)
	res, err := restored.Load(context.Background(), nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if res.Loaded != 2 {
		t.Fatalf("loaded = %d, want 2", res.Loaded)
	}
	if got := restored.GlobalEventCount(); got != 1 {
		t.Errorf("global events = %d, want 1", got)
	}

	for _, npcID := range []string{"elder", "guard"} {
		a := sys.Relationship(npcID)
		b := restored.Relationship(npcID)

		if a.Level() != b.Level() {
			t.Errorf("%s: level %v != %v", npcID, a.Level(), b.Level())
		}
		if a.Friendship() != b.Friendship() || a.Trust() != b.Trust() ||
			a.Respect() != b.Respect() || a.Fear() != b.Fear() {
			t.Errorf("%s: scalar mismatch after round trip", npcID)
		}

		am, bm := a.Memories(), b.Memories()
		if len(am) != len(bm) {
			t.Fatalf("%s: memory count %d != %d", npcID, len(am), len(bm))
		}
		for i := range am {
			if am[i].Kind != bm[i].Kind || am[i].Timestamp != bm[i].Timestamp ||
				am[i].LocationID != bm[i].LocationID || am[i].Positive != bm[i].Positive ||
				am[i].Importance != bm[i].Importance {
				t.Errorf("%s: memory %d differs", npcID, i)
			}
		}
	}
}

func TestSystem_Load_UnresolvedSkipped(t *testing.T) {
	store := &stubStore{}
	sys := newTestSystem(store, nil)
	mustRecord(t, sys, EventFirstMeeting, "town_square", 0, WithTarget("elder"))
	mustRecord(t, sys, EventFirstMeeting, "town_square", 0, WithTarget("ghost"))
	if err := sys.Save(context.Background()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	restored := newTestSystem(store, nil)
	resolver := func(npcID string) bool { return npcID == "elder" }
	res, err := restored.Load(context.Background(), resolver)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if res.Loaded != 1 || res.Unresolved != 1 {
		t.Errorf("result = %+v, want 1 loaded, 1 unresolved", res)
	}
	if got := len(restored.NPCIDs()); got != 1 {
		t.Errorf("registry size = %d, want 1", got)
	}
}

func TestSystem_Load_CorruptEntrySkipped(t *testing.T) {
	store := &stubStore{
		snap: &Snapshot{
			Relationships: map[string]RelationshipRecord{
				"good": {
					NPCID: "good",
					Memories: []Event{
						{Kind: EventConversation, Timestamp: 10, LocationID: "inn", Positive: true, Importance: 1.0},
					},
				},
				"bad": {
					NPCID: "bad",
					Memories: []Event{
						{Kind: EventConversation, Timestamp: 10, LocationID: "inn", Positive: true, Importance: -3.0},
					},
				},
			},
		},
	}

	sys := newTestSystem(store, nil)
	res, err := sys.Load(context.Background(), nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if res.Loaded != 1 || res.Corrupt != 1 {
		t.Errorf("result = %+v, want 1 loaded, 1 corrupt", res)
	}
}

func TestSystem_Load_StoreFailureLeavesRegistry(t *testing.T) {
	store := &stubStore{loadErr: errors.New("disk on fire")}
	sys := newTestSystem(store, nil)
	mustRecord(t, sys, EventFirstMeeting, "town_square", 0, WithTarget("elder"))

	_, err := sys.Load(context.Background(), nil)
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if got := sys.Relationship("elder").MemoryCount(); got != 1 {
		t.Errorf("registry mutated on failed load: count = %d", got)
	}
}

func TestSystem_Save_NoStore(t *testing.T) {
	sys := newTestSystem(nil, nil)
	if err := sys.Save(context.Background()); !errors.Is(err, ErrPersistence) {
		t.Errorf("expected ErrPersistence without a store, got %v", err)
	}
}

func mustRecord(t *testing.T, sys *System, kind EventKind, locationID string, now int64, opts ...RecordOption) {
	t.Helper()
	if err := sys.RecordEvent(kind, nil, locationID, now, opts...); err != nil {
		t.Fatalf("RecordEvent(%s) failed: %v", kind, err)
	}
}
