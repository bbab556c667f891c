package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jwebster45206/npc-memory/internal/config"
	"github.com/jwebster45206/npc-memory/internal/logger"
	"github.com/jwebster45206/npc-memory/internal/services"
	"github.com/jwebster45206/npc-memory/internal/storage"
	"github.com/jwebster45206/npc-memory/pkg/memory"
	"github.com/jwebster45206/npc-memory/pkg/observer"
	"github.com/jwebster45206/npc-memory/pkg/player"
	"github.com/jwebster45206/npc-memory/pkg/world"
)

// simulate runs a scripted day in the village and prints how each NPC's
// memories and greetings evolve, then saves the resulting snapshot.
func main() {
	seed := flag.Int64("seed", 1, "gossip RNG seed")
	fresh := flag.Bool("fresh", false, "skip loading a previous snapshot")
	flag.Parse()

	cfg := config.Load()
	slog := logger.Setup(cfg)

	slog.Info("Starting NPC memory simulation",
		"environment", cfg.Environment,
		"storage", cfg.Storage,
		"seed", *seed)

	var store memory.Store
	switch strings.ToLower(cfg.Storage) {
	case "redis":
		store = storage.NewRedisStore(cfg.RedisURL, cfg.SaveKey, slog)
	case "file":
		store = storage.NewFileStore(cfg.SavePath, slog)
	default:
		slog.Error("Invalid storage backend specified", "storage", cfg.Storage, "supported", []string{"file", "redis"})
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := store.Ping(ctx); err != nil {
		slog.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("Error closing storage", "error", err)
		}
	}()

	mem := memory.NewSystem(memory.Config{
		HalfLife:         cfg.MemoryHalfLife,
		MemoryCap:        cfg.MemoryCap,
		GossipBaseChance: cfg.GossipBaseChance,
	}, store, memory.NewRand(*seed), slog)

	village := newVillage()

	if !*fresh {
		result, err := mem.Load(ctx, village.knowsNPC)
		if err != nil {
			slog.Error("Failed to load snapshot", "error", err)
			os.Exit(1)
		}
		slog.Info("Snapshot loaded",
			"relationships", result.Loaded,
			"unresolved", result.Unresolved,
			"corrupt", result.Corrupt)
	}

	obs := observer.NewSystem(mem, observer.Tunables{
		ObservationRadius: cfg.ObservationRadius,
		CheckInterval:     cfg.CheckInterval,
	}, slog)

	hero, err := player.NewFromSpec(&player.Spec{
		ID:    "wanderer",
		Name:  "The Wanderer",
		Stats: player.Stats{Strength: 14, Dexterity: 12, Constitution: 13, Intelligence: 10, Wisdom: 11, Charisma: 15},
		HP:    20,
		MaxHP: 20,
		AC:    14,
		CombatModifiers: map[string]int{
			"lucky_charm": 1,
		},
	})
	if err != nil {
		log.Fatal(err)
	}

	sim := &simulation{
		mem:      mem,
		obs:      obs,
		dialogue: services.NewMockDialogueService(),
		village:  village,
		hero:     hero,
	}
	sim.run(ctx)

	if err := mem.Save(ctx); err != nil {
		slog.Error("Failed to save snapshot", "error", err)
		os.Exit(1)
	}
	slog.Info("Snapshot saved", "npcs", len(mem.NPCIDs()))
}

type simulation struct {
	mem      *memory.System
	obs      *observer.System
	dialogue services.DialogueService
	village  *village
	hero     *player.Character

	clock int64 // game milliseconds
}

// village is the fixed cast and geography of the demo world.
type village struct {
	state    world.State
	personas map[string]services.Persona
}

func newVillage() *village {
	return &village{
		state: world.State{
			NPCs: []world.NPCState{
				{ID: "elder_rowan", Name: "Elder Rowan", X: 480, Y: 520, Facing: world.Left},
				{ID: "mira_the_baker", Name: "Mira the Baker", X: 900, Y: 210, Facing: world.Down},
				{ID: "guard_aldric", Name: "Guard Aldric", X: 300, Y: 800, Facing: world.Up},
			},
			FountainX: 500,
			FountainY: 500,
		},
		personas: map[string]services.Persona{
			"elder_rowan": {
				Name:        "Elder Rowan",
				Personality: "patient, formal, fond of village history",
			},
			"mira_the_baker": {
				Name:        "Mira the Baker",
				Personality: "cheerful, gossipy, generous with samples",
			},
			"guard_aldric": {
				Name:        "Guard Aldric",
				Personality: "gruff, dutiful, slow to trust outsiders",
			},
		},
	}
}

func (v *village) knowsNPC(npcID string) bool {
	for _, npc := range v.state.NPCs {
		if npc.ID == npcID {
			return true
		}
	}
	return false
}

// advance moves the game clock forward and runs a perception pass with the
// player at the given position.
func (s *simulation) advance(ms int64, x, y float64, locationID string) {
	s.clock += ms
	state := s.hero.State(x, y, locationID)
	s.obs.Update(s.village.state, state, s.clock)
}

func (s *simulation) run(ctx context.Context) {
	fmt.Println("=== Day in the village ===")
	fmt.Println()

	// Morning: first meetings in the town square.
	s.advance(1000, 490, 510, "town_square")
	for _, npc := range s.village.state.NPCs {
		s.record(memory.EventFirstMeeting, memory.Details{"location": "town_square"}, "town_square",
			memory.WithTarget(npc.ID))
	}
	s.greetAll("morning introductions")

	// The wanderer finds a gaudy ring in the market.
	s.clock += 5000
	s.hero.Pickup(world.Item{ID: "gold_ring", Name: "Gold Ring", Value: 120})
	s.advance(1000, 900, 230, "market")

	// A bandit picks the wrong mark outside the gate.
	s.clock += 8000
	state := s.hero.State(310, 780, "village_gate")
	state.InCombat = true
	state.CombatEnemy = "bandit"
	state.CombatWon = true
	s.obs.Update(s.village.state, state, s.clock)

	// Aldric has an errand.
	s.clock += 4000
	if err := s.obs.RecordQuestProgress("missing_shipment", observer.QuestAccepted, "The Missing Shipment", "village_gate", s.clock); err != nil {
		log.Fatal(err)
	}
	s.clock += 20000
	if err := s.obs.RecordQuestProgress("missing_shipment", observer.QuestCompleted, "The Missing Shipment", "village_gate", s.clock); err != nil {
		log.Fatal(err)
	}
	s.record(memory.EventQuestCompleted,
		memory.Details{"quest_name": "The Missing Shipment"}, "village_gate",
		memory.WithTarget("guard_aldric"), memory.WithImportance(2.0))

	// A gift for the baker.
	s.clock += 3000
	s.record(memory.EventItemGifted,
		memory.Details{"item_name": "Gold Ring", "value": 120}, "market",
		memory.WithTarget("mira_the_baker"), memory.WithImportance(1.5))

	// Evening: the elder stumbles near the fountain and the wanderer helps.
	s.clock += 10000
	if err := s.obs.RecordPlayerHelpedNPC(s.village.state, "elder_rowan", "town_square", s.clock, "steadied_a_fall"); err != nil {
		log.Fatal(err)
	}

	// Word gets around overnight.
	s.clock += 30000
	for _, npc := range s.village.state.NPCs {
		s.mem.DiffuseGossip(npc.ID, s.clock)
	}

	s.greetAll("the next morning")
	s.chat(ctx, "mira_the_baker", "Thank you for the ring! Any news from the gate?")
	s.printStandings()
}

func (s *simulation) record(kind memory.EventKind, details memory.Details, locationID string, opts ...memory.RecordOption) {
	if err := s.mem.RecordEvent(kind, details, locationID, s.clock, opts...); err != nil {
		log.Fatal(err)
	}
}

func (s *simulation) greetAll(label string) {
	fmt.Printf("--- Greetings, %s ---\n", label)
	for _, npc := range s.village.state.NPCs {
		rel := s.mem.Relationship(npc.ID)
		fmt.Printf("%s [%s]: %s\n", rel.DisplayName(), rel.Level(), rel.Greeting(s.clock))
		for _, topic := range rel.ConversationTopics(s.clock) {
			fmt.Printf("    could mention: %s\n", topic.Text)
		}
	}
	fmt.Println()
}

func (s *simulation) chat(ctx context.Context, npcID, message string) {
	rel := s.mem.Relationship(npcID)
	persona := s.village.personas[npcID]
	env := services.Environment{LocationID: "market", TimeOfDay: "morning"}

	fmt.Printf("--- Conversation with %s ---\n", rel.DisplayName())
	fmt.Printf("Wanderer: %s\n", message)

	resp, err := s.dialogue.GenerateResponse(ctx, persona, env, message)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s: %s\n", rel.DisplayName(), resp.Text)
	fmt.Println()

	// The exchange is a memory too. Warm replies weigh a little more.
	importance := 1.0
	if resp.FriendshipDelta > 0 {
		importance += 0.5 * float64(resp.FriendshipDelta)
	}
	s.record(memory.EventConversation, memory.Details{"topic": "small_talk"}, env.LocationID,
		memory.WithTarget(npcID), memory.WithImportance(importance))
}

func (s *simulation) printStandings() {
	fmt.Println("--- Standings ---")
	for _, id := range s.mem.NPCIDs() {
		rel := s.mem.Relationship(id)
		fmt.Printf("%-16s %-12s friendship=%.1f trust=%.1f respect=%.1f fear=%.1f memories=%d\n",
			rel.DisplayName(), rel.Level(), rel.Friendship(), rel.Trust(), rel.Respect(), rel.Fear(), rel.MemoryCount())
	}
	fmt.Printf("\nWitnessed kills: %v\n", s.obs.Kills())
	fmt.Printf("Hero: HP %d/%d, AC %d", s.hero.Actor.HP(), s.hero.Actor.MaxHP(), s.hero.Actor.AC())
	for _, mod := range s.hero.Actor.GetCombatModifiers() {
		fmt.Printf(", %s %+d", mod.Reason, mod.Value)
	}
	fmt.Println()
}
