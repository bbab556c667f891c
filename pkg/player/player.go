// Package player holds the player character sheet and its runtime actor.
package player

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/jwebster45206/d20"

	"github.com/jwebster45206/npc-memory/pkg/world"
)

// Stats are the six core ability scores.
type Stats struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
}

// ToAttributes converts Stats to a map for d20.Actor compatibility.
func (s *Stats) ToAttributes() map[string]int {
	return map[string]int{
		"strength":     s.Strength,
		"dexterity":    s.Dexterity,
		"constitution": s.Constitution,
		"intelligence": s.Intelligence,
		"wisdom":       s.Wisdom,
		"charisma":     s.Charisma,
	}
}

// Spec is the serializable specification for the player character.
type Spec struct {
	ID              string         `json:"id"`
	Name            string         `json:"name,omitempty"`
	Stats           Stats          `json:"stats,omitempty"`
	HP              int            `json:"hp,omitempty"`
	MaxHP           int            `json:"max_hp,omitempty"`
	AC              int            `json:"ac,omitempty"`
	CombatModifiers map[string]int `json:"combat_modifiers,omitempty"`
	Attributes      map[string]int `json:"attributes,omitempty"` // skills, proficiencies
	Inventory       []world.Item   `json:"inventory,omitempty"`
}

// Character is the runtime representation of the player.
type Character struct {
	Spec  *Spec
	Actor *d20.Actor // built at runtime from Spec
}

// NewFromSpec builds a Character and its d20.Actor from a Spec.
func NewFromSpec(spec *Spec) (*Character, error) {
	if spec == nil {
		return nil, fmt.Errorf("spec cannot be nil")
	}

	allAttrs := spec.Stats.ToAttributes()
	maps.Copy(allAttrs, spec.Attributes)

	actor, err := d20.NewActor(spec.ID).
		WithHP(spec.MaxHP).
		WithAC(spec.AC).
		WithAttributes(allAttrs).
		WithCombatModifiers(spec.CombatModifiers).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor: %w", err)
	}

	if spec.HP != spec.MaxHP && spec.HP > 0 {
		if err := actor.SetHP(spec.HP); err != nil {
			return nil, fmt.Errorf("failed to set HP: %w", err)
		}
	}

	return &Character{Spec: spec, Actor: actor}, nil
}

// State projects the character into a world.PlayerState at the given
// position, ready for the perception layer.
func (c *Character) State(x, y float64, locationID string) world.PlayerState {
	return world.PlayerState{
		ID:         c.Spec.ID,
		X:          x,
		Y:          y,
		LocationID: locationID,
		Inventory:  c.Spec.Inventory,
	}
}

// Pickup adds an item to the character's inventory.
func (c *Character) Pickup(item world.Item) {
	c.Spec.Inventory = append(c.Spec.Inventory, item)
}

// MarshalJSON serializes the character in Spec format, reading current
// HP state from the Actor.
func (c *Character) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("null"), nil
	}
	if c.Actor == nil {
		return json.Marshal(c.Spec)
	}

	out := *c.Spec
	out.HP = c.Actor.HP()
	out.MaxHP = c.Actor.MaxHP()
	out.AC = c.Actor.AC()

	out.CombatModifiers = make(map[string]int)
	for _, mod := range c.Actor.GetCombatModifiers() {
		out.CombatModifiers[mod.Reason] = mod.Value
	}

	return json.Marshal(&out)
}

// UnmarshalJSON reconstructs a Character from JSON and rebuilds its Actor.
func (c *Character) UnmarshalJSON(data []byte) error {
	var spec Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return fmt.Errorf("failed to unmarshal player spec: %w", err)
	}

	built, err := NewFromSpec(&spec)
	if err != nil {
		return err
	}
	*c = *built
	return nil
}
