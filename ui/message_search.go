package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"wheely/storage"
)

func (a AppView) openSearch() (tea.Model, tea.Cmd) {
	a.showSearch = true
	a.searchInput.SetValue("")
	a.searchResults = nil
	a.searchIdx = 0
	a.textarea.Blur()
	cmd := a.searchInput.Focus()
	return a, cmd
}

func (a AppView) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.showSearch = false
		a.searchInput.Blur()
		cmd := a.textarea.Focus()
		return a, cmd
	case "up":
		if a.searchIdx > 0 {
			a.searchIdx--
		}
		return a, nil
	case "down":
		if a.searchIdx < len(a.searchResults)-1 {
			a.searchIdx++
		}
		return a, nil
	case "enter":
		a.showSearch = false
		a.searchInput.Blur()
		cmd := a.textarea.Focus()
		if a.searchIdx < len(a.searchResults) {
			a.store.Select(a.searchResults[a.searchIdx].ConversationID)
		}
		m, renderCmd := a.afterSwitch()
		return m, tea.Batch(cmd, renderCmd)
	}

	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	a.searchResults = storage.SearchMessages(a.store.List(), a.searchInput.Value())
	if a.searchIdx >= len(a.searchResults) {
		a.searchIdx = max(len(a.searchResults)-1, 0)
	}
	return a, cmd
}

func (a AppView) renderSearch() string {
	modalWidth := min(a.width-4, 100)

	var results strings.Builder
	switch {
	case a.searchInput.Value() == "":
		results.WriteString(DimStyle.Render("Type to search every conversation..."))
	case len(a.searchResults) == 0:
		results.WriteString(DimStyle.Render("No matches found"))
	default:
		// Border, padding, title, input, count and footer take about 12 lines
		visible := max((a.height-12)/3, 1)
		start := 0
		if a.searchIdx >= visible {
			start = a.searchIdx - visible + 1
		}
		end := min(start+visible, len(a.searchResults))

		results.WriteString(fmt.Sprintf("Found %d matches:\n\n", len(a.searchResults)))
		for i := start; i < end; i++ {
			match := a.searchResults[i]

			senderStyle := UserStyle
			if match.Sender == storage.SenderAssistant {
				senderStyle = AssistantStyle
			}

			text := fmt.Sprintf("%s %s [%s]\n  %s",
				TitleStyle.Render(match.ConversationTitle),
				senderStyle.Render(string(match.Sender)),
				match.Timestamp.Format("Jan 2, 3:04 PM"),
				match.Preview,
			)
			if i == a.searchIdx {
				text = SelectedStyle.Render("> ") + text
			} else {
				text = "  " + text
			}
			results.WriteString(text + "\n")
		}
		if end < len(a.searchResults) {
			results.WriteString(DimStyle.Render(fmt.Sprintf("↓ %d more below", len(a.searchResults)-end)))
		}
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		TitleStyle.Render("🔍 Search Conversations"),
		"",
		a.searchInput.View(),
		"",
		results.String(),
		"",
		FormatFooter("↑/↓", "Navigate", "Enter", "Open", "Esc", "Close"),
	)

	modalStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dimColor).
		Padding(1, 2).
		Width(modalWidth)

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, modalStyle.Render(content))
}
