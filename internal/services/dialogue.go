// Package services holds the external collaborator contracts the memory
// core consumes. The dialogue generator itself is out of scope; the core
// only sees its structured side-channel signals as conversation events.
package services

import "context"

// Persona is the NPC identity handed to the dialogue generator.
type Persona struct {
	Name        string `json:"name"`
	Personality string `json:"personality,omitempty"`
	Backstory   string `json:"backstory,omitempty"`
}

// Environment is the scene snapshot handed to the dialogue generator.
type Environment struct {
	LocationID string `json:"location_id"`
	TimeOfDay  string `json:"time_of_day,omitempty"`
	Weather    string `json:"weather,omitempty"`
}

// DialogueResponse is free-form response text plus the two structured
// side-channel signals the game consumes.
type DialogueResponse struct {
	Text            string `json:"text"`
	FriendshipDelta int    `json:"friendship_delta"`
	IsFarewell      bool   `json:"is_farewell"`
}

// DialogueService generates NPC chat responses. Implementations call an
// external text-generation service; the core records the resulting
// exchange as a conversation event and otherwise treats responses as
// opaque.
type DialogueService interface {
	GenerateResponse(ctx context.Context, persona Persona, env Environment, playerMessage string) (*DialogueResponse, error)
}
