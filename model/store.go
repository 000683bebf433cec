package model

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"wheely/config"
	"wheely/storage"
)

const (
	// FirstConversationTitle names the conversation created for a user with no history
	FirstConversationTitle = "New chat"
	// NewConversationTitle names conversations created afterwards
	NewConversationTitle = "New Thread"
)

var ErrConversationNotFound = errors.New("conversation not found")

// Store owns one user's conversation set and the active selection. Every
// mutation is persisted through the ChatStore before the call returns.
// Safe for concurrent use.
type Store struct {
	mu            sync.RWMutex
	persist       storage.ChatStore
	key           string
	conversations []storage.Conversation
	activeID      string

	now   func() time.Time
	newID func() string
}

// Option customizes a Store
type Option func(*Store)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the UUID generator
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// NewStore loads the set stored under key. With nothing usable stored the
// store starts with a single empty conversation.
func NewStore(persist storage.ChatStore, key string, opts ...Option) *Store {
	s := &Store{
		persist: persist,
		key:     key,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}

	if loaded, ok := persist.Load(key); ok && len(loaded) > 0 {
		s.conversations = loaded
		s.activeID = loaded[0].ID
		if config.DebugLog != nil {
			config.DebugLog.Printf("[store] loaded %d conversations for %s", len(loaded), key)
		}
		return s
	}

	c := s.newConversationLocked(FirstConversationTitle)
	s.conversations = []storage.Conversation{c}
	s.activeID = c.ID
	return s
}

// Key is the persistence key this store writes to
func (s *Store) Key() string {
	return s.key
}

// uniqueIDLocked draws ids until one is unused by any conversation or message
func (s *Store) uniqueIDLocked() string {
	for {
		id := s.newID()
		if id != "" && !s.idInUseLocked(id) {
			return id
		}
	}
}

func (s *Store) idInUseLocked(id string) bool {
	for _, c := range s.conversations {
		if c.ID == id {
			return true
		}
		for _, m := range c.Messages {
			if m.ID == id {
				return true
			}
		}
	}
	return false
}

func (s *Store) newConversationLocked(title string) storage.Conversation {
	now := s.now()
	return storage.Conversation{
		ID:        s.uniqueIDLocked(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []storage.Message{},
	}
}

func (s *Store) indexLocked(id string) int {
	for i, c := range s.conversations {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// saveLocked persists the full set. Persistence is best effort: a failure is
// logged and the in-memory state stands.
func (s *Store) saveLocked() {
	if err := s.persist.Save(s.key, s.conversations); err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[store] save %s failed: %v", s.key, err)
	}
}

// Create adds an empty conversation and makes it active.
func (s *Store) Create() storage.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.newConversationLocked(NewConversationTitle)
	s.conversations = append(s.conversations, c)
	s.activeID = c.ID
	s.saveLocked()

	return c.Clone()
}

// Select makes id the active conversation; unknown ids are ignored.
func (s *Store) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(id) >= 0 {
		s.activeID = id
	}
}

// Delete removes a conversation. Deleting the active one selects the first
// remaining conversation, or a fresh one when the set would be empty.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return
	}
	s.conversations = append(s.conversations[:idx], s.conversations[idx+1:]...)

	if len(s.conversations) == 0 {
		c := s.newConversationLocked(NewConversationTitle)
		s.conversations = []storage.Conversation{c}
		s.activeID = c.ID
	} else if s.activeID == id {
		s.activeID = s.conversations[0].ID
	}

	s.saveLocked()
}

// Append adds a message to the end of a conversation and returns it with its
// id and timestamp filled in. The first user message titles the conversation;
// every message refreshes the preview.
func (s *Store) Append(conversationID string, msg storage.Message) (storage.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(conversationID)
	if idx < 0 {
		return storage.Message{}, ErrConversationNotFound
	}

	if msg.ID == "" || s.idInUseLocked(msg.ID) {
		msg.ID = s.uniqueIDLocked()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}

	c := &s.conversations[idx]
	if msg.Sender == storage.SenderUser && !hasUserMessage(c.Messages) {
		if title := DeriveTitle(msg.Content); title != "" {
			c.Title = title
		}
	}
	c.Messages = append(c.Messages, msg)
	c.LastMessage = DerivePreview(msg.Content)
	c.UpdatedAt = msg.Timestamp

	s.saveLocked()
	return msg, nil
}

// Confirm marks a previously appended message as confirmed
func (s *Store) Confirm(conversationID, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(conversationID)
	if idx < 0 {
		return ErrConversationNotFound
	}
	msgs := s.conversations[idx].Messages
	for i := range msgs {
		if msgs[i].ID == messageID {
			if !msgs[i].Confirmed {
				msgs[i].Confirmed = true
				s.saveLocked()
			}
			return nil
		}
	}
	return ErrConversationNotFound
}

// Rename retitles a conversation; blank titles and unknown ids are ignored
func (s *Store) Rename(id, title string) {
	title = collapseSpace(title)
	if title == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return
	}
	s.conversations[idx].Title = title
	s.saveLocked()
}

// Import adds an already built conversation, e.g. one read from an export,
// and makes it active. Ids that collide with existing ones are redrawn.
func (s *Store) Import(c storage.Conversation) storage.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	c = c.Clone()
	if c.ID == "" || s.idInUseLocked(c.ID) {
		c.ID = s.uniqueIDLocked()
	}
	seen := map[string]bool{c.ID: true}
	for i := range c.Messages {
		if id := c.Messages[i].ID; id == "" || seen[id] || s.idInUseLocked(id) {
			c.Messages[i].ID = s.uniqueIDLocked()
		}
		seen[c.Messages[i].ID] = true
	}
	if c.Messages == nil {
		c.Messages = []storage.Message{}
	}

	s.conversations = append(s.conversations, c)
	s.activeID = c.ID
	s.saveLocked()

	return c.Clone()
}

// Active returns a copy of the active conversation
func (s *Store) Active() storage.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.indexLocked(s.activeID); idx >= 0 {
		return s.conversations[idx].Clone()
	}
	return storage.Conversation{}
}

func (s *Store) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// Get returns a copy of the conversation with the given id
func (s *Store) Get(id string) (storage.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.indexLocked(id); idx >= 0 {
		return s.conversations[idx].Clone(), true
	}
	return storage.Conversation{}, false
}

// List returns copies of all conversations in creation order
func (s *Store) List() []storage.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]storage.Conversation, len(s.conversations))
	for i, c := range s.conversations {
		out[i] = c.Clone()
	}
	return out
}

// Sorted returns all conversations, most recently updated first
func (s *Store) Sorted() []storage.Conversation {
	out := s.List()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}

func hasUserMessage(msgs []storage.Message) bool {
	for _, m := range msgs {
		if m.Sender == storage.SenderUser {
			return true
		}
	}
	return false
}
