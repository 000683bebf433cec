package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SanitizeFilename replaces characters that are invalid in filenames
func SanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-", "*", "-", "?", "-",
		"\"", "-", "<", "-", ">", "-", "|", "-", " ", "-",
		"\n", "-", "\r", "-",
	)
	name = replacer.Replace(name)
	name = strings.Trim(name, "-.")

	if r := []rune(name); len(r) > 50 {
		name = string(r[:50])
	}

	if name == "" {
		name = "conversation"
	}

	return name
}

// GenerateExportPath returns ~/Downloads/wheely-chat-<title>-<timestamp>.json
func GenerateExportPath(title string, now time.Time) string {
	homeDir := os.Getenv("HOME")
	if homeDir == "" {
		homeDir = os.Getenv("USERPROFILE")
	}

	filename := fmt.Sprintf("wheely-chat-%s-%s.json", SanitizeFilename(title), now.Format("20060102-150405"))
	return filepath.Join(homeDir, "Downloads", filename)
}

// ExportConversation writes one conversation as indented JSON
func ExportConversation(c Conversation, exportPath string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Exports contain conversation history
	if err := os.WriteFile(exportPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// ImportConversation reads an exported conversation and gives it and every
// message a fresh id so it can never collide with an existing one.
func ImportConversation(path string) (Conversation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Conversation{}, fmt.Errorf("failed to read export: %w", err)
	}

	// Reuse set validation by wrapping the single record
	set, err := DecodeConversations(append(append([]byte("["), data...), ']'))
	if err != nil || len(set) != 1 {
		return Conversation{}, fmt.Errorf("invalid conversation export %s: %v", path, err)
	}

	c := set[0]
	c.ID = uuid.New().String()
	for i := range c.Messages {
		c.Messages[i].ID = uuid.New().String()
		// An unconfirmed message in an export never got its answer persisted
		c.Messages[i].Confirmed = true
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}

	return c, nil
}
