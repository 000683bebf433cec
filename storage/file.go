package storage

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// FileStore keeps one JSON document per key under <dataDir>/chats.
type FileStore struct {
	chatsDir string
}

func NewFileStore(dataDir string) (*FileStore, error) {
	chatsDir := filepath.Join(dataDir, "chats")

	// Chat history is private: 0700 dir, 0600 files
	if err := os.MkdirAll(chatsDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create chats directory: %w", err)
	}

	return &FileStore{chatsDir: chatsDir}, nil
}

// path escapes the key so distinct keys never share a file
func (s *FileStore) path(key string) string {
	return filepath.Join(s.chatsDir, url.PathEscape(key)+".json")
}

func (s *FileStore) Load(key string) ([]Conversation, bool) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if !os.IsNotExist(err) {
			logCorrupt("file", key, err)
		}
		return nil, false
	}

	conversations, err := DecodeConversations(data)
	if err != nil {
		logCorrupt("file", key, err)
		return nil, false
	}
	return conversations, true
}

// Save writes to a temp file and renames it so a crash never leaves half a document.
func (s *FileStore) Save(key string, conversations []Conversation) error {
	data, err := EncodeConversations(conversations)
	if err != nil {
		return err
	}

	target := s.path(key)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write chats file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace chats file: %w", err)
	}

	return nil
}

func (s *FileStore) Close() error { return nil }
