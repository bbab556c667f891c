package services

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestMockDialogueService_Farewell(t *testing.T) {
	mock := NewMockDialogueService()
	persona := Persona{Name: "Elder Rowan"}
	env := Environment{LocationID: "town_square"}

	resp, err := mock.GenerateResponse(context.Background(), persona, env, "Goodbye for now")
	if err != nil {
		t.Fatalf("GenerateResponse failed: %v", err)
	}
	if !resp.IsFarewell {
		t.Error("expected farewell response")
	}
	if !strings.Contains(resp.Text, "Elder Rowan") {
		t.Errorf("farewell should use persona name, got %q", resp.Text)
	}
}

func TestMockDialogueService_FriendlyMessage(t *testing.T) {
	mock := NewMockDialogueService()

	resp, err := mock.GenerateResponse(context.Background(), Persona{Name: "Mira"}, Environment{}, "Thank you for the directions")
	if err != nil {
		t.Fatalf("GenerateResponse failed: %v", err)
	}
	if resp.FriendshipDelta != 1 {
		t.Errorf("friendship delta = %d, want 1", resp.FriendshipDelta)
	}
	if resp.IsFarewell {
		t.Error("thanks should not end the conversation")
	}
}

func TestMockDialogueService_TracksCalls(t *testing.T) {
	mock := NewMockDialogueService()
	persona := Persona{Name: "Mira"}
	env := Environment{LocationID: "market"}

	mock.GenerateResponse(context.Background(), persona, env, "Hello")
	mock.GenerateResponse(context.Background(), persona, env, "Any news?")

	if len(mock.Calls) != 2 {
		t.Fatalf("calls tracked = %d, want 2", len(mock.Calls))
	}
	if mock.Calls[1].Message != "Any news?" {
		t.Errorf("second call message = %q", mock.Calls[1].Message)
	}
	if mock.Calls[0].Persona.Name != "Mira" {
		t.Errorf("persona not tracked: %q", mock.Calls[0].Persona.Name)
	}
}

func TestMockDialogueService_Override(t *testing.T) {
	mock := NewMockDialogueService()
	wantErr := errors.New("dialogue backend down")
	mock.GenerateResponseFunc = func(ctx context.Context, persona Persona, env Environment, playerMessage string) (*DialogueResponse, error) {
		return nil, wantErr
	}

	_, err := mock.GenerateResponse(context.Background(), Persona{}, Environment{}, "Hello")
	if !errors.Is(err, wantErr) {
		t.Errorf("override not used, err = %v", err)
	}
	if len(mock.Calls) != 1 {
		t.Errorf("override calls should still be tracked, got %d", len(mock.Calls))
	}
}
