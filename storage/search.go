package storage

import (
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// MessageMatch is a search hit within a conversation set
type MessageMatch struct {
	ConversationID    string
	ConversationTitle string
	MessageIndex      int
	Sender            Sender
	Preview           string
	Timestamp         time.Time
}

// SearchMessages does a case-insensitive substring search over every message,
// in conversation order then message order.
func SearchMessages(conversations []Conversation, query string) []MessageMatch {
	query = strings.TrimSpace(query)
	if query == "" {
		return []MessageMatch{}
	}

	queryLower := strings.ToLower(query)
	matches := []MessageMatch{}

	for _, c := range conversations {
		for i, msg := range c.Messages {
			if !strings.Contains(strings.ToLower(msg.Content), queryLower) {
				continue
			}

			preview := strings.Join(strings.Fields(msg.Content), " ")
			matches = append(matches, MessageMatch{
				ConversationID:    c.ID,
				ConversationTitle: c.Title,
				MessageIndex:      i,
				Sender:            msg.Sender,
				Preview:           runewidth.Truncate(preview, 100, "..."),
				Timestamp:         msg.Timestamp,
			})
		}
	}

	return matches
}
