package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// MaxPassphraseAttempts bounds the prompt loop at startup
const MaxPassphraseAttempts = 3

// PassphraseModal unlocks the SSH key that encrypts the API key of an LLM
// query backend. It runs as its own program before the main view; the caller
// re-runs it with the next attempt number after a wrong passphrase.
type PassphraseModal struct {
	keyPath string
	backend string
	attempt int

	input     textinput.Model
	empty     bool
	cancelled bool

	width  int
	height int
}

func NewPassphraseModal(keyPath, backend string, attempt int) PassphraseModal {
	input := textinput.New()
	input.Placeholder = "passphrase"
	input.Width = 40
	input.CharLimit = 200
	input.EchoMode = textinput.EchoPassword
	input.EchoCharacter = '•'
	input.Focus()

	return PassphraseModal{
		keyPath: keyPath,
		backend: backend,
		attempt: max(attempt, 1),
		input:   input,
	}
}

func (m PassphraseModal) Init() tea.Cmd {
	return textinput.Blink
}

func (m PassphraseModal) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "enter":
			if m.input.Value() == "" {
				m.empty = true
				return m, nil
			}
			return m, tea.Quit
		}
		m.empty = false
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m PassphraseModal) View() string {
	if m.width < 20 || m.height < 10 {
		return "Terminal too small"
	}

	const modalWidth = 64
	inner := min(modalWidth, m.width-10)

	var body strings.Builder
	fmt.Fprintf(&body, "The %s API key is encrypted with\n%s\n\n", m.backend, m.keyPath)
	body.WriteString("Enter the key's passphrase to unlock it.")

	lines := centeredLines(body.String(), inner)
	lines = append(lines, "")
	lines = append(lines, centeredLines(m.input.View(), inner)...)

	if warning := m.warning(); warning != "" {
		styled := lipgloss.NewStyle().Foreground(dangerColor).Bold(true).Render(warning)
		lines = append(lines, "")
		lines = append(lines, centeredLines(styled, inner)...)
	}

	return RenderThreeSectionModal(
		"SSH Key Passphrase",
		lines,
		FormatFooter("Enter", "Unlock", "Esc", "Quit"),
		ModalTypeInfo,
		modalWidth,
		m.width,
		m.height,
	)
}

func (m PassphraseModal) warning() string {
	switch {
	case m.empty:
		return "Passphrase cannot be empty"
	case m.attempt > 1:
		return fmt.Sprintf("Incorrect passphrase (attempt %d of %d)", m.attempt, MaxPassphraseAttempts)
	}
	return ""
}

// Passphrase returns the entered passphrase, or "" if cancelled
func (m PassphraseModal) Passphrase() string {
	if m.cancelled {
		return ""
	}
	return m.input.Value()
}

func (m PassphraseModal) Cancelled() bool {
	return m.cancelled
}
