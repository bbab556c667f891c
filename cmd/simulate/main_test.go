package main

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/jwebster45206/npc-memory/internal/services"
	"github.com/jwebster45206/npc-memory/internal/storage"
	"github.com/jwebster45206/npc-memory/pkg/memory"
)

func TestSimulation_ChatRecordsConversation(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	mem := memory.NewSystem(memory.DefaultConfig(), storage.NewMockStore(), memory.NewRand(1), logger)

	s := &simulation{
		mem:      mem,
		dialogue: services.NewMockDialogueService(),
		village:  newVillage(),
		clock:    1000,
	}

	s.chat(context.Background(), "mira_the_baker", "Thank you for the bread!")

	rel := mem.Relationship("mira_the_baker")
	mems := rel.Memories()
	if len(mems) != 1 {
		t.Fatalf("memories = %d, want 1", len(mems))
	}
	ev := mems[0]
	if ev.Kind != memory.EventConversation {
		t.Errorf("kind = %s, want %s", ev.Kind, memory.EventConversation)
	}
	if got := ev.Details.String("topic", ""); got != "small_talk" {
		t.Errorf("topic = %q, want %q", got, "small_talk")
	}
	// The mock rewards gratitude with a friendship delta, which bumps
	// the memory's weight above the default.
	if ev.Importance <= 1.0 {
		t.Errorf("importance = %v, want > 1.0 for a warm reply", ev.Importance)
	}
}
