package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps each key's encoded set as one row of chats.db.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	dbPath := filepath.Join(dataDir, "chats.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// One writer; avoids SQLITE_BUSY between the UI and resolving commands
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS chat_sets (
		key TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Load(key string) ([]Conversation, bool) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM chat_sets WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		logCorrupt("sqlite", key, err)
		return nil, false
	}

	conversations, err := DecodeConversations([]byte(payload))
	if err != nil {
		logCorrupt("sqlite", key, err)
		return nil, false
	}
	return conversations, true
}

func (s *SQLiteStore) Save(key string, conversations []Conversation) error {
	data, err := EncodeConversations(conversations)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO chat_sets (key, payload, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		payload = excluded.payload,
		updated_at = excluded.updated_at
	`
	if _, err := s.db.Exec(query, key, string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save chat set: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
