package storage

import (
	"fmt"
	"strings"

	"wheely/config"
)

// Kind selects a ChatStore implementation
type Kind string

const (
	KindFile   Kind = "file"
	KindSQLite Kind = "sqlite"
	KindBolt   Kind = "bolt"
	KindMemory Kind = "memory"
)

// ParseKind maps a config value onto a Kind
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "file", "json":
		return KindFile, nil
	case "sqlite", "sqlite3":
		return KindSQLite, nil
	case "bolt", "bbolt":
		return KindBolt, nil
	case "memory", "mem":
		return KindMemory, nil
	default:
		return "", fmt.Errorf("unknown storage backend: %s", s)
	}
}

// NewChatStore opens the configured backend under dataDir
func NewChatStore(kind Kind, dataDir string) (ChatStore, error) {
	if config.DebugLog != nil {
		config.DebugLog.Printf("[storage] opening %s store in %s", kind, dataDir)
	}

	switch kind {
	case KindFile:
		return NewFileStore(dataDir)
	case KindSQLite:
		return NewSQLiteStore(dataDir)
	case KindBolt:
		return NewBoltStore(dataDir)
	case KindMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", kind)
	}
}

func logCorrupt(backend, key string, err error) {
	if config.DebugLog != nil {
		config.DebugLog.Printf("[storage] %s: discarding unreadable set %q: %v", backend, key, err)
	}
}
