package storage

import "sync"

// MemoryStore keeps encoded sets in process memory. Payloads go through the
// same encode/decode path as the durable backends.
type MemoryStore struct {
	mu   sync.RWMutex
	sets map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sets: make(map[string][]byte)}
}

func (s *MemoryStore) Load(key string) ([]Conversation, bool) {
	s.mu.RLock()
	data, ok := s.sets[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	conversations, err := DecodeConversations(data)
	if err != nil {
		logCorrupt("memory", key, err)
		return nil, false
	}
	return conversations, true
}

func (s *MemoryStore) Save(key string, conversations []Conversation) error {
	data, err := EncodeConversations(conversations)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sets[key] = data
	s.mu.Unlock()
	return nil
}

// Put stores a raw payload as-is, bypassing encoding.
func (s *MemoryStore) Put(key string, payload []byte) {
	s.mu.Lock()
	s.sets[key] = append([]byte(nil), payload...)
	s.mu.Unlock()
}

func (s *MemoryStore) Close() error { return nil }
