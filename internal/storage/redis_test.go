package storage

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/npc-memory/pkg/memory"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	store := NewRedisStore(mr.Addr(), "test", logger)
	return store, mr
}

func testSnapshot() *memory.Snapshot {
	rel := memory.NewRelationship("elder", memory.WithDisplayName("Elder Maren"))
	rel.AddMemory(memory.EventFirstMeeting, nil, "town_square", 0, true, 1.0)
	rel.AddMemory(memory.EventQuestCompleted, memory.Details{"quest_id": "q1", "quest_name": "herb run"}, "town_square", 5000, true, 2.0)

	global, _ := memory.NewEvent(memory.EventObservedCombat, memory.Details{"enemy_type": "bandit"}, "forest", 4000, true, 0.5)

	return &memory.Snapshot{
		Relationships: map[string]memory.RelationshipRecord{
			"elder": rel.Record(),
		},
		GlobalEvents: []memory.Event{global},
	}
}

func TestRedisStore_SaveAndLoad(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer mr.Close()
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Ping(ctx))

	snap := testSnapshot()
	require.NoError(t, store.SaveSnapshot(ctx, snap))

	loaded, err := store.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	rec, ok := loaded.Relationships["elder"]
	require.True(t, ok)
	assert.Equal(t, "Elder Maren", rec.DisplayName)
	require.Len(t, rec.Memories, 2)
	assert.Equal(t, memory.EventQuestCompleted, rec.Memories[1].Kind)
	assert.Equal(t, int64(5000), rec.Memories[1].Timestamp)
	assert.Equal(t, "q1", rec.Memories[1].Details.String("quest_id", ""))
	assert.Equal(t, 2.0, rec.Memories[1].Importance)

	require.Len(t, loaded.GlobalEvents, 1)
	assert.Equal(t, memory.EventObservedCombat, loaded.GlobalEvents[0].Kind)
}

func TestRedisStore_LoadMissing(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer mr.Close()
	defer store.Close()

	loaded, err := store.LoadSnapshot(context.Background())
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStore_LoadAfterRedisGone(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer store.Close()

	mr.Close()

	_, err := store.LoadSnapshot(context.Background())
	assert.Error(t, err)
}

func TestRedisStore_SaveKeysIsolated(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	slotA := NewRedisStore(mr.Addr(), "slot_a", logger)
	slotB := NewRedisStore(mr.Addr(), "slot_b", logger)
	defer slotA.Close()
	defer slotB.Close()

	ctx := context.Background()
	require.NoError(t, slotA.SaveSnapshot(ctx, testSnapshot()))

	loaded, err := slotB.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded, "save slots must not share state")
}
