package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetActionKey(t *testing.T) {
	tests := []struct {
		name     string
		kb       *KeyBindingsConfig
		action   string
		expected string
	}{
		{
			name:     "primary default",
			kb:       DefaultKeybindings(),
			action:   "new_conversation",
			expected: "alt+n",
		},
		{
			name:     "secondary folds shift into uppercase",
			kb:       DefaultKeybindings(),
			action:   "delete_conversation",
			expected: "alt+D",
		},
		{
			name:     "no modifier",
			kb:       DefaultKeybindings(),
			action:   "page_down",
			expected: "pgdown",
		},
		{
			name: "custom modifiers",
			kb: &KeyBindingsConfig{
				Modifiers: ModifierConfig{Primary: "ctrl", Secondary: "ctrl+shift"},
			},
			action:   "quit",
			expected: "ctrl+q",
		},
		{
			name: "user override wins",
			kb: &KeyBindingsConfig{
				Modifiers: ModifierConfig{Primary: "alt", Secondary: "alt+shift"},
				Actions:   map[string]string{"new_conversation": "ctrl+t"},
			},
			action:   "new_conversation",
			expected: "ctrl+t",
		},
		{
			name:     "unknown action",
			kb:       DefaultKeybindings(),
			action:   "launch_rockets",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.kb.GetActionKey(tt.action); got != tt.expected {
				t.Errorf("GetActionKey(%q) = %q, want %q", tt.action, got, tt.expected)
			}
		})
	}
}

func TestDisplayActionKey(t *testing.T) {
	kb := DefaultKeybindings()

	if got := kb.DisplayActionKey("delete_conversation"); got != "Alt+Shift+D" {
		t.Errorf("expected Alt+Shift+D, got %q", got)
	}
	if got := kb.DisplayActionKey("copy_answer"); got != "Alt+y" {
		t.Errorf("expected Alt+y, got %q", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mods      ModifierConfig
		wantValid bool
		wantWarn  bool
	}{
		{"defaults", ModifierConfig{"alt", "alt+shift"}, true, false},
		{"shift alone", ModifierConfig{"shift", "alt+shift"}, false, false},
		{"same modifiers", ModifierConfig{"alt", "alt"}, false, false},
		{"ctrl warns", ModifierConfig{"ctrl", "ctrl+shift"}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kb := &KeyBindingsConfig{Modifiers: tt.mods}
			valid, msg := kb.Validate()
			if valid != tt.wantValid {
				t.Errorf("valid = %v, want %v (%s)", valid, tt.wantValid, msg)
			}
			if valid && (msg != "") != tt.wantWarn {
				t.Errorf("warning = %q, wantWarn %v", msg, tt.wantWarn)
			}
		})
	}
}

func TestLoadKeybindingsCreatesTemplate(t *testing.T) {
	dir := t.TempDir()

	kb, err := LoadKeybindings(dir)
	if err != nil {
		t.Fatalf("LoadKeybindings: %v", err)
	}
	if kb.Primary() != "alt" {
		t.Errorf("expected alt primary, got %q", kb.Primary())
	}
	if !FileExists(filepath.Join(dir, "keybindings.toml")) {
		t.Fatal("expected keybindings.toml to be created")
	}

	// The template must parse back to the same defaults.
	kb, err = LoadKeybindings(dir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if kb.Secondary() != "alt+shift" {
		t.Errorf("expected alt+shift secondary, got %q", kb.Secondary())
	}
}

func TestLoadKeybindingsOverrides(t *testing.T) {
	dir := t.TempDir()
	content := "[modifiers]\nprimary = \"ctrl\"\n\n[actions]\nquit = \"ctrl+shift+q\"\n"
	if err := os.WriteFile(filepath.Join(dir, "keybindings.toml"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	kb, err := LoadKeybindings(dir)
	if err != nil {
		t.Fatalf("LoadKeybindings: %v", err)
	}
	if kb.GetActionKey("quit") != "ctrl+shift+q" {
		t.Errorf("override not applied: %q", kb.GetActionKey("quit"))
	}
	if kb.GetActionKey("new_conversation") != "ctrl+n" {
		t.Errorf("primary not applied: %q", kb.GetActionKey("new_conversation"))
	}
	if kb.Secondary() != "alt+shift" {
		t.Errorf("missing secondary should default, got %q", kb.Secondary())
	}
}
