package memory

import "fmt"

// Greeting returns what the NPC says when the player opens a conversation.
// The wording depends on the relationship level, on how long it has been
// since the last interaction, and on the single most important positive
// memory. Calling Greeting starts a new conversation: it stamps the
// interaction time, bumps the interaction count, and clears the
// discussed-topics set.
func (r *Relationship) Greeting(now int64) string {
	if len(r.memories) == 0 {
		return fmt.Sprintf("Hello there, I don't believe we've met. I'm %s.", r.displayName)
	}

	longTime := now-r.lastInteraction > LongTimeThreshold

	var greeting string
	switch r.level {
	case Stranger:
		greeting = "Hello. Can I help you with something?"
	case Acquaintance:
		if longTime {
			greeting = "Oh, it's you again. Been a while."
		} else {
			greeting = "Hello again. What brings you back?"
		}
	case Friendly:
		if longTime {
			greeting = "Well look who it is! Been ages since I've seen you around."
		} else {
			greeting = "Good to see you again! How have you been?"
		}
	case Friend:
		if longTime {
			greeting = "My friend! Where have you been all this time? I've missed our chats."
		} else {
			greeting = "Hey there, friend! Always a pleasure to see you."
		}
	case CloseFriend:
		if longTime {
			greeting = "There you are! I was beginning to worry something had happened to you."
		} else {
			greeting = "Hey! Just the person I wanted to see. How's everything?"
		}
	}

	if top := r.ImportantMemories(now, 1); len(top) > 0 {
		greeting += memoryClause(top[0])
	}

	r.lastInteraction = now
	r.interactions++
	r.discussed = make(map[string]struct{})

	return greeting
}

// memoryClause returns an extra sentence referencing a standout memory, or
// an empty string when the memory is not worth bringing up.
func memoryClause(mem Event) string {
	switch {
	case mem.Kind == EventQuestCompleted && mem.Positive:
		return fmt.Sprintf(" Still grateful for your help with that %s.", mem.Details.String("quest_name", "quest"))
	case mem.Kind == EventItemGifted && mem.Positive:
		return fmt.Sprintf(" That %s you gave me has been quite useful.", mem.Details.String("item_name", "gift"))
	case mem.Kind == EventHelpedInDanger:
		return " I still owe you for helping me out of that tight spot."
	}
	return ""
}
