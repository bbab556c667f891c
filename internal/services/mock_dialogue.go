package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockDialogueService is a canned implementation of DialogueService for
// testing and for the offline simulator and console.
type MockDialogueService struct {
	GenerateResponseFunc func(ctx context.Context, persona Persona, env Environment, playerMessage string) (*DialogueResponse, error)

	// Track calls for testing
	Calls []GenerateCall

	mu sync.Mutex // protects fields above
}

type GenerateCall struct {
	Persona Persona
	Message string
}

// Ensure MockDialogueService implements DialogueService
var _ DialogueService = (*MockDialogueService)(nil)

// NewMockDialogueService creates a new mock dialogue service
func NewMockDialogueService() *MockDialogueService {
	return &MockDialogueService{
		Calls: make([]GenerateCall, 0),
	}
}

// GenerateResponse returns a canned reply. Messages containing a farewell
// phrase produce a farewell response; friendly phrasing nudges the
// friendship delta up.
func (m *MockDialogueService) GenerateResponse(ctx context.Context, persona Persona, env Environment, playerMessage string) (*DialogueResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, GenerateCall{Persona: persona, Message: playerMessage})

	if m.GenerateResponseFunc != nil {
		return m.GenerateResponseFunc(ctx, persona, env, playerMessage)
	}

	lower := strings.ToLower(playerMessage)
	switch {
	case strings.Contains(lower, "bye") || strings.Contains(lower, "farewell"):
		return &DialogueResponse{
			Text:       fmt.Sprintf("Safe travels, friend. %s will be here if you need anything.", persona.Name),
			IsFarewell: true,
		}, nil
	case strings.Contains(lower, "thank") || strings.Contains(lower, "help"):
		return &DialogueResponse{
			Text:            "Always happy to lend a hand around here.",
			FriendshipDelta: 1,
		}, nil
	default:
		return &DialogueResponse{
			Text: fmt.Sprintf("Interesting. Not much happens in %s, so any news is welcome.", env.LocationID),
		}, nil
	}
}
