package identity

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"wheely/config"
)

// StorageKeyPrefix namespaces every persisted conversation set
const StorageKeyPrefix = "wheely_chats_"

// User is the signed-in identity. It only selects the persistence key and the
// suggestion set; conversation data never depends on it.
type User struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Email    string `json:"email"`
}

// Guest is the identity used when no user record exists
func Guest() User {
	return User{Role: RoleDefault}
}

// LoadUser reads the user record. A missing or unreadable record yields the
// guest identity and ok=false.
func LoadUser(path string) (User, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) && config.DebugLog != nil {
			config.DebugLog.Printf("[identity] read %s: %v", path, err)
		}
		return Guest(), false
	}

	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[identity] corrupt user record %s: %v", path, err)
		}
		return Guest(), false
	}

	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.TrimSpace(u.Email)
	return u, true
}

// SaveUser writes the user record with user-only permissions
func SaveUser(path string, u User) error {
	data, err := json.MarshalIndent(u, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write user record: %w", err)
	}
	return nil
}

// StorageKey derives the persistence key: email, else username, else "guest".
func StorageKey(u User) string {
	switch {
	case u.Email != "":
		return StorageKeyPrefix + u.Email
	case u.Username != "":
		return StorageKeyPrefix + u.Username
	default:
		return StorageKeyPrefix + "guest"
	}
}

// DisplayName is the greeting name for this user
func (u User) DisplayName() string {
	return DisplayName(u.Username)
}
