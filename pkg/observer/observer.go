// Package observer implements the per-tick perception layer: it decides
// which NPCs can currently see the player, deduplicates repeated
// observations, and forwards qualifying occurrences into the memory
// system.
package observer

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/jwebster45206/npc-memory/pkg/memory"
	"github.com/jwebster45206/npc-memory/pkg/world"
)

// Tunables carries the perception parameters. Zero values fall back to the
// original game balance.
type Tunables struct {
	// ObservationRadius is how far NPCs can see, in world units.
	ObservationRadius float64
	// CheckInterval throttles perception checks, in game milliseconds.
	CheckInterval int64
	// DedupTTL is how long dedup cache entries live, in game milliseconds.
	DedupTTL int64
}

// DefaultTunables returns the perception parameters of the original game.
func DefaultTunables() Tunables {
	return Tunables{
		ObservationRadius: 300,
		CheckInterval:     1000,
		DedupTTL:          300000,
	}
}

// Dedup key time buckets, in game milliseconds. Observations of the same
// subject within one bucket collapse into a single recorded event.
const (
	itemBucket     int64 = 10000
	combatBucket   int64 = 10000
	locationBucket int64 = 30000
	fountainBucket int64 = 20000
)

const fountainRadius = 100.0

// QuestStage is a quest progress milestone reported by the quest system.
type QuestStage string

const (
	QuestAccepted  QuestStage = "accepted"
	QuestCompleted QuestStage = "completed"
	QuestFailed    QuestStage = "failed"
)

// System watches the player through NPC eyes. It owns only perception
// bookkeeping; all resulting events flow into the memory system.
//
// Like the rest of the core, System expects single-threaded use from the
// host's game loop.
type System struct {
	mem    *memory.System
	logger *slog.Logger
	tun    Tunables

	lastCheck int64

	// recent maps dedup keys to the time they were recorded.
	recent map[string]int64

	seenItems     map[string]struct{}
	seenLocations map[string]struct{}
	kills         map[string]int
	quests        map[string]QuestStage
}

// NewSystem creates an observer feeding the given memory system.
func NewSystem(mem *memory.System, tun Tunables, logger *slog.Logger) *System {
	def := DefaultTunables()
	if tun.ObservationRadius <= 0 {
		tun.ObservationRadius = def.ObservationRadius
	}
	if tun.CheckInterval <= 0 {
		tun.CheckInterval = def.CheckInterval
	}
	if tun.DedupTTL <= 0 {
		tun.DedupTTL = def.DedupTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &System{
		mem:           mem,
		logger:        logger,
		tun:           tun,
		recent:        make(map[string]int64),
		seenItems:     make(map[string]struct{}),
		seenLocations: make(map[string]struct{}),
		kills:         make(map[string]int),
		quests:        make(map[string]QuestStage),
	}
}

// Update runs one perception pass. Calls within the check interval of the
// previous pass are no-ops, so the host can call this every frame.
func (s *System) Update(w world.State, player world.PlayerState, now int64) {
	if now-s.lastCheck < s.tun.CheckInterval {
		return
	}
	s.lastCheck = now

	witnesses := s.witnesses(w, player)
	s.checkObservations(w, player, witnesses, now)
	s.purgeOld(now)
}

// witnesses returns the ids of NPCs who can see the player right now: NPCs
// within the observation radius that are either very close (half the
// radius) or facing the player's way.
func (s *System) witnesses(w world.State, player world.PlayerState) []string {
	var ids []string
	for _, npc := range w.NPCs {
		dx := npc.X - player.X
		dy := npc.Y - player.Y
		dist := math.Hypot(dx, dy)
		if dist > s.tun.ObservationRadius {
			continue
		}
		if dist <= s.tun.ObservationRadius*0.5 || facingToward(npc, player.X, player.Y) {
			ids = append(ids, npc.ID)
		}
	}
	return ids
}

// facingToward reports whether the NPC's stored facing matches the
// dominant-axis direction from the NPC to the target point.
func facingToward(npc world.NPCState, x, y float64) bool {
	dx := x - npc.X
	dy := y - npc.Y

	var want world.Direction
	if math.Abs(dx) > math.Abs(dy) {
		if dx > 0 {
			want = world.Right
		} else {
			want = world.Left
		}
	} else {
		if dy > 0 {
			want = world.Down
		} else {
			want = world.Up
		}
	}
	return npc.Facing == want
}

func (s *System) checkObservations(w world.State, player world.PlayerState, witnesses []string, now int64) {
	if len(witnesses) == 0 {
		return
	}

	locationID := player.LocationID
	if locationID == "" {
		locationID = "unknown"
	}

	for _, item := range player.Inventory {
		if _, seen := s.seenItems[item.ID]; seen {
			continue
		}
		s.seenItems[item.ID] = struct{}{}
		if item.Value > 50 || item.Unique {
			s.recordItem(witnesses, item, locationID, now)
		}
	}

	if player.InCombat {
		s.recordCombat(witnesses, player, locationID, now)
	}

	s.recordLocation(witnesses, locationID, now)

	s.checkSpecialZones(w, player, witnesses, locationID, now)
}

// alreadyRecorded reports whether key was recorded recently, marking it
// otherwise.
func (s *System) alreadyRecorded(key string, now int64) bool {
	if _, ok := s.recent[key]; ok {
		return true
	}
	s.recent[key] = now
	return false
}

func (s *System) recordItem(witnesses []string, item world.Item, locationID string, now int64) {
	key := fmt.Sprintf("item_%s_%d", item.ID, now/itemBucket)
	if s.alreadyRecorded(key, now) {
		return
	}

	details := memory.Details{
		"item_id":    item.ID,
		"item_name":  item.Name,
		"item_value": item.Value,
	}

	opts := []memory.RecordOption{memory.WithWitnesses(witnesses...)}
	if item.Value > 100 {
		// Very valuable items become gossip.
		opts = append(opts, memory.AsGlobal())
	}
	if err := s.mem.RecordEvent(memory.EventVisitedLocation, details, locationID, now, opts...); err != nil {
		s.logger.Error("failed to record item observation", "item", item.ID, "error", err)
		return
	}
	s.logger.Debug("npcs observed player item", "witnesses", len(witnesses), "item", item.Name)
}

func (s *System) recordCombat(witnesses []string, player world.PlayerState, locationID string, now int64) {
	enemy := player.CombatEnemy
	if enemy == "" {
		enemy = "unknown"
	}

	key := fmt.Sprintf("combat_%s_%d", enemy, now/combatBucket)
	if s.alreadyRecorded(key, now) {
		return
	}

	details := memory.Details{
		"enemy_type": enemy,
		"player_won": player.CombatWon,
	}

	// Combat is always notable enough to gossip about.
	err := s.mem.RecordEvent(memory.EventObservedCombat, details, locationID, now,
		memory.WithWitnesses(witnesses...), memory.AsGlobal())
	if err != nil {
		s.logger.Error("failed to record combat observation", "enemy", enemy, "error", err)
		return
	}
	s.logger.Debug("npcs observed combat", "witnesses", len(witnesses), "enemy", enemy)

	if player.CombatWon {
		s.kills[enemy]++
	}
}

func (s *System) recordLocation(witnesses []string, locationID string, now int64) {
	_, seen := s.seenLocations[locationID]
	s.seenLocations[locationID] = struct{}{}
	if seen {
		return
	}

	key := fmt.Sprintf("location_%s_%d", locationID, now/locationBucket)
	if s.alreadyRecorded(key, now) {
		return
	}

	details := memory.Details{
		"first_visit":   !seen,
		"location_name": locationID,
	}

	err := s.mem.RecordEvent(memory.EventVisitedLocation, details, locationID, now,
		memory.WithWitnesses(witnesses...))
	if err != nil {
		s.logger.Error("failed to record location observation", "location", locationID, "error", err)
		return
	}
	s.logger.Debug("npcs observed player location", "witnesses", len(witnesses), "location", locationID)
}

func (s *System) checkSpecialZones(w world.State, player world.PlayerState, witnesses []string, locationID string, now int64) {
	if locationID != "town_square" {
		return
	}
	if math.Hypot(player.X-w.FountainX, player.Y-w.FountainY) >= fountainRadius {
		return
	}

	key := fmt.Sprintf("fountain_interact_%d", now/fountainBucket)
	if s.alreadyRecorded(key, now) {
		return
	}

	details := memory.Details{
		"interacted_with": "fountain",
		"action":          "observed",
	}

	err := s.mem.RecordEvent(memory.EventVisitedLocation, details, locationID, now,
		memory.WithWitnesses(witnesses...))
	if err != nil {
		s.logger.Error("failed to record fountain observation", "error", err)
		return
	}
	s.logger.Debug("npcs observed player at the fountain", "witnesses", len(witnesses))
}

func (s *System) purgeOld(now int64) {
	removed := 0
	for key, recorded := range s.recent {
		if now-recorded > s.tun.DedupTTL {
			delete(s.recent, key)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Debug("purged old observations", "count", removed)
	}
}

// RecordQuestProgress records a quest milestone. Quest activity is always
// gossip-worthy.
func (s *System) RecordQuestProgress(questID string, stage QuestStage, questName, locationID string, now int64) error {
	var kind memory.EventKind
	switch stage {
	case QuestAccepted:
		kind = memory.EventQuestAccepted
	case QuestCompleted:
		kind = memory.EventQuestCompleted
	case QuestFailed:
		kind = memory.EventQuestFailed
	default:
		return fmt.Errorf("%w: unknown quest stage %q", memory.ErrInvalidArgument, stage)
	}

	s.quests[questID] = stage

	details := memory.Details{
		"quest_id":   questID,
		"quest_name": questName,
	}
	return s.mem.RecordEvent(kind, details, locationID, now, memory.AsGlobal())
}

// RecordPlayerHelpedNPC records that the player helped an NPC out of
// danger. The helped NPC remembers it directly; NPCs near the helped NPC
// witness it; everyone else may hear about it through gossip.
func (s *System) RecordPlayerHelpedNPC(w world.State, npcID, locationID string, now int64, helpType string) error {
	if helpType == "" {
		helpType = "general"
	}

	witnesses := s.witnessesNear(w, npcID)

	details := memory.Details{
		"npc_id":    npcID,
		"help_type": helpType,
	}

	err := s.mem.RecordEvent(memory.EventHelpedInDanger, details, locationID, now,
		memory.WithTarget(npcID),
		memory.WithWitnesses(witnesses...),
		memory.AsGlobal(),
		memory.WithImportance(2.0))
	if err != nil {
		return err
	}
	s.logger.Debug("player helped npc", "npc", npcID, "witnesses", len(witnesses))
	return nil
}

// witnessesNear returns NPCs within observation range of another NPC.
func (s *System) witnessesNear(w world.State, npcID string) []string {
	var center *world.NPCState
	for i := range w.NPCs {
		if w.NPCs[i].ID == npcID {
			center = &w.NPCs[i]
			break
		}
	}
	if center == nil {
		return nil
	}

	var ids []string
	for _, npc := range w.NPCs {
		if npc.ID == npcID {
			continue
		}
		if math.Hypot(npc.X-center.X, npc.Y-center.Y) <= s.tun.ObservationRadius {
			ids = append(ids, npc.ID)
		}
	}
	return ids
}

// Kills returns a copy of the per-enemy-type kill counts NPCs have
// witnessed.
func (s *System) Kills() map[string]int {
	out := make(map[string]int, len(s.kills))
	for k, v := range s.kills {
		out[k] = v
	}
	return out
}

// QuestStageFor returns the last recorded stage for a quest.
func (s *System) QuestStageFor(questID string) (QuestStage, bool) {
	stage, ok := s.quests[questID]
	return stage, ok
}
