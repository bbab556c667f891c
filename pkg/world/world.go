// Package world defines the boundary contracts between the memory core and
// the host game's entity layer. The core reads these snapshots each tick
// and never mutates them; positions, sprites and movement belong to the
// host.
package world

// Direction is one of the four cardinal facings an NPC sprite can hold.
type Direction string

const (
	Up    Direction = "up"
	Right Direction = "right"
	Down  Direction = "down"
	Left  Direction = "left"
)

// NPCState is the observer-relevant slice of one NPC: a stable identifier,
// a position and a facing.
type NPCState struct {
	ID     string    `json:"id"`
	Name   string    `json:"name,omitempty"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Facing Direction `json:"facing"`
}

// Item is an inventory entry as the observer sees it.
type Item struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Unique bool    `json:"unique,omitempty"`
}

// PlayerState is the observer-relevant slice of the player.
type PlayerState struct {
	ID         string  `json:"id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	LocationID string  `json:"location_id"`
	Inventory  []Item  `json:"inventory,omitempty"`

	InCombat    bool   `json:"in_combat,omitempty"`
	CombatEnemy string `json:"combat_enemy,omitempty"`
	CombatWon   bool   `json:"combat_won,omitempty"`
}

// State is the per-tick world snapshot handed to the observer.
type State struct {
	NPCs []NPCState `json:"npcs"`

	// Fountain landmark position, used by the town square zone check.
	FountainX float64 `json:"fountain_x"`
	FountainY float64 `json:"fountain_y"`
}
