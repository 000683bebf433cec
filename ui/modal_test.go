package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestPassphraseModal(t *testing.T) {
	m := NewPassphraseModal("~/.ssh/id_ed25519", "openai", 1)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = next.(PassphraseModal)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(PassphraseModal)
	if !strings.Contains(m.View(), "cannot be empty") {
		t.Error("empty passphrase accepted without a warning")
	}

	for _, r := range "hunter2" {
		next, _ = m.Update(runeKey(r))
		m = next.(PassphraseModal)
	}
	if m.Passphrase() != "hunter2" || m.Cancelled() {
		t.Errorf("Passphrase = %q, cancelled = %v", m.Passphrase(), m.Cancelled())
	}
	if strings.Contains(m.View(), "hunter2") {
		t.Error("passphrase echoed in clear text")
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(PassphraseModal)
	if !m.Cancelled() || m.Passphrase() != "" {
		t.Error("esc did not cancel")
	}
}

func TestPassphraseModalRetryWarning(t *testing.T) {
	m := NewPassphraseModal("key", "anthropic", 2)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	if !strings.Contains(next.View(), "attempt 2 of 3") {
		t.Error("retry warning missing")
	}
}

func TestInstanceLockedModal(t *testing.T) {
	tests := []struct {
		key   tea.KeyMsg
		force bool
	}{
		{tea.KeyMsg{Type: tea.KeyEnter}, false},
		{tea.KeyMsg{Type: tea.KeyEsc}, false},
		{runeKey('d'), true},
		{runeKey('D'), true},
	}

	for _, tt := range tests {
		m := NewInstanceLockedModal(4242, "/tmp/wheely.lock")
		next, cmd := m.Update(tt.key)
		if cmd == nil {
			t.Errorf("%q did not quit", tt.key.String())
		}
		if got := next.(InstanceLockedModal).ForceDelete(); got != tt.force {
			t.Errorf("%q: ForceDelete = %v, want %v", tt.key.String(), got, tt.force)
		}
	}
}

func TestErrorModalView(t *testing.T) {
	m := NewErrorModal("Query backend unavailable", "no API key stored for openai")
	if got := m.View(); got != "Terminal too small" {
		t.Errorf("View before sizing = %q", got)
	}
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	if !strings.Contains(next.View(), "no API key stored") {
		t.Error("message not rendered")
	}
}
