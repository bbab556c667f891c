package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/npc-memory/pkg/memory"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <snapshot.json>\n", os.Args[0])
		os.Exit(1)
	}

	filename := os.Args[1]
	validator := &SnapshotValidator{}

	if err := validator.validateFile(filename); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Snapshot file is valid!")
}

type SnapshotValidator struct {
	errors []string
}

func (v *SnapshotValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	if !strings.HasSuffix(baseName, ".json") {
		return fmt.Errorf("snapshot file must have .json extension: %s", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	if !json.Valid(data) {
		return fmt.Errorf("file %s contains invalid JSON", filename)
	}

	var snap memory.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to parse snapshot: %w", err)
	}

	v.errors = nil

	for npcID, rec := range snap.Relationships {
		v.validateRelationship(npcID, rec)
	}
	for i, ev := range snap.GlobalEvents {
		v.validateEvent(fmt.Sprintf("global_events[%d]", i), ev)
	}

	if len(v.errors) > 0 {
		return fmt.Errorf("snapshot has %d problem(s):\n  - %s",
			len(v.errors), strings.Join(v.errors, "\n  - "))
	}

	fmt.Printf("  %d relationship(s), %d global event(s)\n",
		len(snap.Relationships), len(snap.GlobalEvents))
	return nil
}

func (v *SnapshotValidator) addError(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *SnapshotValidator) validateRelationship(npcID string, rec memory.RelationshipRecord) {
	if rec.NPCID != npcID {
		v.addError("relationship %q: npc_id %q does not match its key", npcID, rec.NPCID)
	}
	if !isValidNPCID(npcID) {
		v.addError("relationship %q: npc id must be lowercase snake_case", npcID)
	}

	for _, pair := range []struct {
		name  string
		value float64
	}{
		{"friendship", rec.Friendship},
		{"trust", rec.Trust},
		{"respect", rec.Respect},
		{"fear", rec.Fear},
	} {
		if pair.value < 0 || pair.value > 100 {
			v.addError("relationship %q: %s %.2f outside [0, 100]", npcID, pair.name, pair.value)
		}
	}

	// The stored level must agree with what the scalars derive.
	derived := memory.RelationshipFromRecord(rec)
	if int(derived.Level()) != rec.RelationshipLevel {
		v.addError("relationship %q: stored level %d does not match scalars (want %d)",
			npcID, rec.RelationshipLevel, int(derived.Level()))
	}

	if rec.LastInteractionTime < 0 {
		v.addError("relationship %q: negative last_interaction_time", npcID)
	}
	if rec.InteractionsCount < 0 {
		v.addError("relationship %q: negative interactions_count", npcID)
	}

	for i, ev := range rec.Memories {
		v.validateEvent(fmt.Sprintf("relationship %q memories[%d]", npcID, i), ev)
	}
}

func (v *SnapshotValidator) validateEvent(where string, ev memory.Event) {
	if !ev.Kind.Valid() {
		v.addError("%s: unknown event kind %q", where, ev.Kind)
	}
	if ev.Importance <= 0 {
		v.addError("%s: importance %.2f must be positive", where, ev.Importance)
	}
	if ev.Timestamp < 0 {
		v.addError("%s: negative timestamp", where)
	}
}

// isValidNPCID checks lowercase snake_case (e.g. elder_rowan)
func isValidNPCID(id string) bool {
	matched, _ := regexp.MatchString(`^[a-z0-9]+(_[a-z0-9]+)*$`, id)
	return matched
}
