package storage

import (
	"fmt"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var chatSetsBucket = []byte("chat_sets")

// BoltStore keeps each key's encoded set in the chat_sets bucket of chats.bolt.
type BoltStore struct {
	db *bolt.DB
}

func NewBoltStore(dataDir string) (*BoltStore, error) {
	path := filepath.Join(dataDir, "chats.bolt")

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(chatSetsBucket)
		return e
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Load(key string) ([]Conversation, bool) {
	var (
		conversations []Conversation
		found         bool
	)

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(chatSetsBucket)
		if b == nil {
			return nil
		}
		v := b.Get([]byte(key))
		if v == nil {
			return nil
		}
		// v is only valid inside the transaction; decoding copies it out
		decoded, e := DecodeConversations(v)
		if e != nil {
			return e
		}
		conversations, found = decoded, true
		return nil
	})
	if err != nil {
		logCorrupt("bolt", key, err)
		return nil, false
	}

	return conversations, found
}

func (s *BoltStore) Save(key string, conversations []Conversation) error {
	data, err := EncodeConversations(conversations)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b, e := tx.CreateBucketIfNotExists(chatSetsBucket)
		if e != nil {
			return e
		}
		return b.Put([]byte(key), data)
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
