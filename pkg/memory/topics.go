package memory

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Topic is a conversation subject an NPC may raise, derived from its most
// important memories or from the relationship level itself.
type Topic struct {
	Type       string  `json:"type"`                 // e.g. "quest_reference", "relationship"
	Ref        string  `json:"ref,omitempty"`        // quest id, item name or location id
	Text       string  `json:"text"`                 // what the NPC says
	Importance float64 `json:"importance"`
}

var titleCaser = cases.Title(language.AmericanEnglish)

// Humanize turns an identifier like "town_square" into "Town Square" for
// use in generated dialogue.
func Humanize(id string) string {
	return titleCaser.String(strings.ReplaceAll(id, "_", " "))
}

const topicCandidateLimit = 5

// ConversationTopics returns subjects the NPC would bring up right now,
// most important first. Topics already raised this conversation are
// skipped; the set resets on the next greeting. When the relationship is
// at least Acquaintance, one level-flavored topic is included.
func (r *Relationship) ConversationTopics(now int64) []Topic {
	important := r.ImportantMemories(now, topicCandidateLimit)
	topics := make([]Topic, 0, len(important)+1)

	for _, mem := range important {
		topic, ok := r.topicFromMemory(mem, now)
		if !ok {
			continue
		}
		if _, done := r.discussed[topic.Type]; done {
			continue
		}
		topics = append(topics, topic)
	}

	if rel, ok := r.relationshipTopic(); ok {
		if _, done := r.discussed[rel.Type]; !done {
			topics = append(topics, rel)
		}
	}

	// Insertion sort by importance, descending.
	for i := 1; i < len(topics); i++ {
		for j := i; j > 0 && topics[j].Importance > topics[j-1].Importance; j-- {
			topics[j], topics[j-1] = topics[j-1], topics[j]
		}
	}
	return topics
}

func (r *Relationship) topicFromMemory(mem Event, now int64) (Topic, bool) {
	imp := mem.EffectiveImportance(now, r.halfLife)

	switch mem.Kind {
	case EventQuestCompleted:
		questName := mem.Details.String("quest_name", "task")
		return Topic{
			Type:       "quest_reference",
			Ref:        mem.Details.String("quest_id", "unknown"),
			Text:       fmt.Sprintf("I'm still grateful for your help with that %s.", questName),
			Importance: imp,
		}, true

	case EventObservedCombat:
		enemy := mem.Details.String("enemy_type", "creature")
		return Topic{
			Type:       "combat_reference",
			Ref:        enemy,
			Text:       fmt.Sprintf("I saw you fighting that %s at %s. Impressive!", enemy, Humanize(mem.LocationID)),
			Importance: imp,
		}, true

	case EventVisitedLocation:
		return Topic{
			Type:       "location_reference",
			Ref:        mem.LocationID,
			Text:       fmt.Sprintf("I heard you visited %s. What did you think of it?", Humanize(mem.LocationID)),
			Importance: imp,
		}, true

	case EventItemGifted:
		item := mem.Details.String("item_name", "gift")
		return Topic{
			Type:       "gift_reference",
			Ref:        item,
			Text:       fmt.Sprintf("That %s you gave me has been very useful.", item),
			Importance: imp,
		}, true
	}
	return Topic{}, false
}

func (r *Relationship) relationshipTopic() (Topic, bool) {
	switch r.level {
	case Acquaintance:
		return Topic{Type: "relationship", Text: "Nice to see you again. I remember you from before.", Importance: 0.7}, true
	case Friendly:
		return Topic{Type: "relationship", Text: "Good to see a familiar face around here!", Importance: 0.8}, true
	case Friend:
		return Topic{Type: "relationship", Text: "My friend! It's always good to see you.", Importance: 0.9}, true
	case CloseFriend:
		return Topic{Type: "relationship", Text: "There you are! I was hoping to see you today.", Importance: 1.0}, true
	}
	return Topic{}, false
}
