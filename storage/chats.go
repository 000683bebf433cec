package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Sender identifies who wrote a message
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is a single utterance in a conversation. Only Confirmed may change
// after creation.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	Confirmed bool      `json:"confirmed"`
}

// Conversation is an ordered, append-only exchange between the user and the assistant
type Conversation struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	LastMessage string    `json:"lastMessage"`
	CreatedAt   time.Time `json:"timestamp"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Messages    []Message `json:"messages"`
}

// Clone returns a deep copy; callers outside the store never share message slices.
func (c Conversation) Clone() Conversation {
	out := c
	out.Messages = append([]Message(nil), c.Messages...)
	return out
}

// ChatStore persists the whole conversation set of one user under a key.
//
// Load reports ok=false when nothing usable is stored: the key is absent, the
// payload is corrupt, or the backend could not be read. Save replaces the set.
type ChatStore interface {
	Load(key string) ([]Conversation, bool)
	Save(key string, conversations []Conversation) error
	Close() error
}

var (
	errNotArray    = errors.New("payload is not an array of conversations")
	errMissingID   = errors.New("conversation without id")
	errDuplicateID = errors.New("duplicate id")
	errBadMessage  = errors.New("malformed message")
)

// EncodeConversations serializes a conversation set in the persisted record shape.
func EncodeConversations(conversations []Conversation) ([]byte, error) {
	if conversations == nil {
		conversations = []Conversation{}
	}
	data, err := json.MarshalIndent(conversations, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal conversations: %w", err)
	}
	return data, nil
}

// DecodeConversations parses and structurally validates a persisted set. Any
// error means the payload must be treated as absent.
func DecodeConversations(data []byte) ([]Conversation, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errNotArray
	}

	conversations := make([]Conversation, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, item := range raw {
		var c Conversation
		if err := json.Unmarshal(item, &c); err != nil {
			return nil, fmt.Errorf("conversation %d: %w", i, err)
		}
		if c.ID == "" {
			return nil, fmt.Errorf("conversation %d: %w", i, errMissingID)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("conversation %s: %w", c.ID, errDuplicateID)
		}
		seen[c.ID] = true

		messageIDs := make(map[string]bool, len(c.Messages))
		for j, m := range c.Messages {
			if m.ID == "" || (m.Sender != SenderUser && m.Sender != SenderAssistant) {
				return nil, fmt.Errorf("conversation %s message %d: %w", c.ID, j, errBadMessage)
			}
			if messageIDs[m.ID] {
				return nil, fmt.Errorf("conversation %s message %s: %w", c.ID, m.ID, errDuplicateID)
			}
			messageIDs[m.ID] = true
		}
		if c.Messages == nil {
			c.Messages = []Message{}
		}
		if c.UpdatedAt.IsZero() {
			c.UpdatedAt = c.CreatedAt
		}
		conversations = append(conversations, c)
	}

	return conversations, nil
}
