package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/npc-memory/internal/config"
	"github.com/jwebster45206/npc-memory/internal/logger"
	"github.com/jwebster45206/npc-memory/internal/services"
	"github.com/jwebster45206/npc-memory/internal/storage"
	"github.com/jwebster45206/npc-memory/pkg/memory"
)

// The console opens a saved relationship snapshot and lets you talk to the
// NPCs in it: pick an NPC, see their greeting, stats and memories, and
// carry on a conversation that writes new memories back to the snapshot.
func main() {
	cfg := config.Load()
	if os.Getenv("CONSOLE_DEBUG") == "" {
		// slog lines tear the TUI, so stay quiet unless asked.
		cfg.LogLevel = slog.LevelError
	}
	log := logger.Setup(cfg)

	var store memory.Store
	switch strings.ToLower(cfg.Storage) {
	case "redis":
		store = storage.NewRedisStore(cfg.RedisURL, cfg.SaveKey, log)
	case "file":
		store = storage.NewFileStore(cfg.SavePath, log)
	default:
		fmt.Fprintf(os.Stderr, "Unknown storage backend %q (use file or redis)\n", cfg.Storage)
		os.Exit(1)
	}
	defer func() {
		_ = store.Close() // Ignore error in defer
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := store.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Could not open storage: %v\n", err)
		os.Exit(1)
	}

	mem := memory.NewSystem(memory.Config{
		HalfLife:         cfg.MemoryHalfLife,
		MemoryCap:        cfg.MemoryCap,
		GossipBaseChance: cfg.GossipBaseChance,
	}, store, nil, log)

	// The console inspects whatever the snapshot holds, so every NPC
	// resolves.
	result, err := mem.Load(ctx, func(string) bool { return true })
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load snapshot: %v\n", err)
		os.Exit(1)
	}
	if result.Loaded == 0 {
		fmt.Fprintf(os.Stderr, "No relationships in the snapshot. Run the simulator first:\n  go run ./cmd/simulate\n")
		os.Exit(1)
	}

	ui := NewConsoleUI(mem, services.NewMockDialogueService())

	p := tea.NewProgram(ui,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
