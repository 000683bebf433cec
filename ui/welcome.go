package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"wheely/config"
	"wheely/identity"
)

type welcomeStep int

const (
	stepWelcome welcomeStep = iota
	stepUsername
	stepEmail
	stepRole
	stepComplete
)

// roleChoices is the order roles are offered in
var roleChoices = []identity.Role{
	identity.RoleDealer,
	identity.RoleSalesRep,
	identity.RoleAdmin,
	identity.RoleDefault,
}

// WelcomeModel collects the local user profile on first run. Choosing
// "Continue as guest" leaves no record behind.
type WelcomeModel struct {
	step           welcomeStep
	selectedButton int

	usernameInput textinput.Model
	emailInput    textinput.Model
	selectedRole  int

	userPath string
	user     identity.User
	saved    bool

	width  int
	height int
	err    string
}

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	buttonStyle = lipgloss.NewStyle().
			Width(24).
			Align(lipgloss.Center).
			Padding(0, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8"))

	selectedButtonStyle = buttonStyle.
				BorderForeground(successColor).
				Foreground(successColor).
				Bold(true)

	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("6")).
			Padding(0, 1)
)

// NewWelcomeModel writes the profile to userPath when completed
func NewWelcomeModel(userPath string) WelcomeModel {
	usernameInput := textinput.New()
	usernameInput.Placeholder = "jane.doe"
	usernameInput.Width = 40
	usernameInput.CharLimit = 64

	emailInput := textinput.New()
	emailInput.Placeholder = "jane.doe@dealer.example (optional)"
	emailInput.Width = 40
	emailInput.CharLimit = 128

	return WelcomeModel{
		step:          stepWelcome,
		usernameInput: usernameInput,
		emailInput:    emailInput,
		userPath:      userPath,
	}
}

func (m WelcomeModel) Init() tea.Cmd {
	return nil
}

func (m WelcomeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.step {
		case stepWelcome:
			return m.updateWelcomeScreen(msg)
		case stepUsername:
			return m.updateUsernameScreen(msg)
		case stepEmail:
			return m.updateEmailScreen(msg)
		case stepRole:
			return m.updateRoleScreen(msg)
		}
	}

	return m, nil
}

func (m WelcomeModel) updateWelcomeScreen(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "up", "k":
		m.selectedButton = 0

	case "down", "j":
		m.selectedButton = 1

	case "enter":
		if m.selectedButton == 1 {
			m.user = identity.Guest()
			m.step = stepComplete
			return m, tea.Quit
		}
		m.step = stepUsername
		cmd := m.usernameInput.Focus()
		return m, cmd
	}

	return m, nil
}

func (m WelcomeModel) updateUsernameScreen(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.usernameInput.Blur()
		m.step = stepWelcome
		m.err = ""
		return m, nil

	case "enter":
		if strings.TrimSpace(m.usernameInput.Value()) == "" {
			m.err = "Username cannot be empty"
			return m, nil
		}
		m.err = ""
		m.usernameInput.Blur()
		m.step = stepEmail
		cmd := m.emailInput.Focus()
		return m, cmd
	}

	var cmd tea.Cmd
	m.usernameInput, cmd = m.usernameInput.Update(msg)
	return m, cmd
}

func (m WelcomeModel) updateEmailScreen(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.emailInput.Blur()
		m.step = stepUsername
		cmd := m.usernameInput.Focus()
		return m, cmd

	case "enter":
		email := strings.TrimSpace(m.emailInput.Value())
		if email != "" && !strings.Contains(email, "@") {
			m.err = "That does not look like an email address"
			return m, nil
		}
		m.err = ""
		m.emailInput.Blur()
		m.step = stepRole
		return m, nil
	}

	var cmd tea.Cmd
	m.emailInput, cmd = m.emailInput.Update(msg)
	return m, cmd
}

func (m WelcomeModel) updateRoleScreen(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.step = stepEmail
		cmd := m.emailInput.Focus()
		return m, cmd

	case "up", "k":
		if m.selectedRole > 0 {
			m.selectedRole--
		}

	case "down", "j":
		if m.selectedRole < len(roleChoices)-1 {
			m.selectedRole++
		}

	case "enter":
		user := identity.User{
			Username: strings.TrimSpace(m.usernameInput.Value()),
			Email:    strings.TrimSpace(m.emailInput.Value()),
			Role:     roleChoices[m.selectedRole],
		}
		if err := identity.SaveUser(m.userPath, user); err != nil {
			m.err = fmt.Sprintf("Failed to save profile: %v", err)
			return m, nil
		}
		if config.DebugLog != nil {
			config.DebugLog.Printf("[welcome] saved profile for %s (%s)", user.Username, user.Role)
		}
		m.user = user
		m.saved = true
		m.step = stepComplete
		return m, tea.Quit
	}

	return m, nil
}

func (m WelcomeModel) View() string {
	var body string
	switch m.step {
	case stepWelcome:
		body = m.viewWelcomeScreen()
	case stepUsername:
		body = m.viewInputScreen("What is your username?", m.usernameInput)
	case stepEmail:
		body = m.viewInputScreen("Your email (keys your chat history)", m.emailInput)
	case stepRole:
		body = m.viewRoleScreen()
	default:
		return ""
	}

	if m.err != "" {
		body += "\n\n" + ErrorStyle.Render(m.err)
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
}

func (m WelcomeModel) viewWelcomeScreen() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Welcome to Wheely"))
	sb.WriteString("\n\n")
	sb.WriteString(DimStyle.Render("Ask about claims, SKU availability and orders."))
	sb.WriteString("\n\n")
	sb.WriteString("It looks like you are running Wheely for the\n")
	sb.WriteString("first time. Tell us who you are.")
	sb.WriteString("\n\n")

	button1, button2 := buttonStyle.Render("Set up profile"), selectedButtonStyle.Render("Continue as guest")
	if m.selectedButton == 0 {
		button1, button2 = selectedButtonStyle.Render("Set up profile"), buttonStyle.Render("Continue as guest")
	}
	sb.WriteString(lipgloss.JoinVertical(lipgloss.Left, button1, button2))
	sb.WriteString("\n\n")
	sb.WriteString(DimStyle.Render("↑/↓ or j/k to switch • Enter to select • q to exit"))

	return sb.String()
}

func (m WelcomeModel) viewInputScreen(prompt string, input textinput.Model) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render(prompt),
		"",
		inputStyle.Render(input.View()),
		"",
		DimStyle.Render("Enter to continue • Esc to go back"),
	)
}

func (m WelcomeModel) viewRoleScreen() string {
	lines := []string{titleStyle.Render("Which best describes you?"), ""}
	for i, role := range roleChoices {
		if i == m.selectedRole {
			lines = append(lines, SelectedStyle.Render("> "+role.Label()))
		} else {
			lines = append(lines, "  "+role.Label())
		}
	}
	lines = append(lines, "", DimStyle.Render("Enter to finish • Esc to go back"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// IsComplete reports whether the user finished, as guest or with a profile
func (m WelcomeModel) IsComplete() bool {
	return m.step == stepComplete
}

// User is the profile chosen, Guest() when skipped
func (m WelcomeModel) User() identity.User {
	return m.user
}

// Saved reports whether a profile was written
func (m WelcomeModel) Saved() bool {
	return m.saved
}
