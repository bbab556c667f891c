package memory

import (
	"strings"
	"testing"
)

func TestHumanize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"town_square", "Town Square"},
		{"inn", "Inn"},
		{"old_mill_road", "Old Mill Road"},
	}
	for _, tt := range tests {
		if got := Humanize(tt.in); got != tt.want {
			t.Errorf("Humanize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConversationTopics_FromMemories(t *testing.T) {
	r := NewRelationship("hunter")
	addMemory(t, r, EventQuestCompleted, Details{"quest_id": "q1", "quest_name": "wolf cull"}, 0, true, 3.0)
	addMemory(t, r, EventItemGifted, Details{"item_name": "silver knife"}, 100, true, 1.0)
	addMemory(t, r, EventObservedCombat, Details{"enemy_type": "bandit"}, 200, true, 1.5)

	topics := r.ConversationTopics(1000)
	if len(topics) == 0 {
		t.Fatal("expected topics, got none")
	}

	if topics[0].Type != "quest_reference" {
		t.Errorf("top topic = %s, want quest_reference", topics[0].Type)
	}
	if !strings.Contains(topics[0].Text, "wolf cull") {
		t.Errorf("quest topic text missing quest name: %q", topics[0].Text)
	}

	for i := 1; i < len(topics); i++ {
		if topics[i].Importance > topics[i-1].Importance {
			t.Errorf("topics not sorted by importance at index %d", i)
		}
	}
}

func TestConversationTopics_DiscussedSuppressed(t *testing.T) {
	r := NewRelationship("hunter")
	addMemory(t, r, EventQuestCompleted, Details{"quest_name": "wolf cull"}, 0, true, 3.0)
	addMemory(t, r, EventItemGifted, Details{"item_name": "silver knife"}, 100, true, 1.0)

	topics := r.ConversationTopics(1000)
	if len(topics) == 0 {
		t.Fatal("expected topics")
	}
	top := topics[0]
	r.MarkTopicDiscussed(top.Type)

	for _, topic := range r.ConversationTopics(1000) {
		if topic.Type == top.Type {
			t.Fatalf("topic %s returned again after being marked discussed", top.Type)
		}
	}
}

func TestConversationTopics_DiscussedResetByGreeting(t *testing.T) {
	r := NewRelationship("hunter")
	addMemory(t, r, EventQuestCompleted, Details{"quest_name": "wolf cull"}, 0, true, 3.0)

	topics := r.ConversationTopics(1000)
	if len(topics) == 0 {
		t.Fatal("expected topics")
	}
	r.MarkTopicDiscussed(topics[0].Type)

	// New conversation: the greeting resets the discussed set.
	r.Greeting(2000)

	found := false
	for _, topic := range r.ConversationTopics(3000) {
		if topic.Type == topics[0].Type {
			found = true
		}
	}
	if !found {
		t.Error("discussed set should reset at the next greeting")
	}
}

func TestConversationTopics_RelationshipFlavor(t *testing.T) {
	r := NewRelationship("hunter")

	// Stranger: no relationship topic.
	for _, topic := range r.ConversationTopics(0) {
		if topic.Type == "relationship" {
			t.Fatal("stranger should not get a relationship topic")
		}
	}

	// Build to Acquaintance (combined >= 30).
	addMemory(t, r, EventHelpedInDanger, nil, 0, true, 2.0)

	found := false
	count := 0
	for _, topic := range r.ConversationTopics(100) {
		if topic.Type == "relationship" {
			found = true
			count++
		}
	}
	if !found {
		t.Error("acquaintance should get a relationship topic")
	}
	if count > 1 {
		t.Errorf("expected exactly one relationship topic, got %d", count)
	}
}

func TestConversationTopics_InformationalKindsSkipped(t *testing.T) {
	r := NewRelationship("hunter")
	addMemory(t, r, EventSharedSecret, nil, 0, true, 1.0)
	addMemory(t, r, EventBetrayal, nil, 100, false, 1.0)

	for _, topic := range r.ConversationTopics(1000) {
		if topic.Type != "relationship" {
			t.Errorf("unexpected topic %s from non-topical memory", topic.Type)
		}
	}
}
