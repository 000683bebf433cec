package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func (a AppView) renderHelpModal(width, height int) string {
	kb := a.keys

	green := lipgloss.NewStyle().
		Bold(true).
		Foreground(successColor)
	blue := lipgloss.NewStyle().Foreground(accentColor)

	line := func(action, desc string) string {
		return fmt.Sprintf("• %-13s %s", kb.DisplayActionKey(action), desc)
	}

	conversations := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Conversations"),
		line("new_conversation", "New conversation"),
		line("delete_conversation", "Delete conversation"),
		line("rename_conversation", "Rename conversation"),
		line("next_conversation", "Next conversation"),
		line("prev_conversation", "Previous conversation"),
		line("filter_conversations", "Filter conversations"),
		line("search_messages", "Search all messages"),
		line("export_conversation", "Export to ~/Downloads"),
		line("import_conversation", "Import from file"),
		line("help", "Toggle this help"),
		line("quit", "Quit"),
	)

	composer := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Asking"),
		"• Enter         Send",
		"• Alt+Enter     New line",
		line("pick_suggestion", "Pick a suggestion"),
		line("use_context", "Use an answer as context"),
		line("clear_context", "Clear context"),
		line("clear_input", "Clear input"),
	)

	transcript := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Transcript"),
		line("copy_answer", "Copy last answer"),
		line("scroll_up", "Scroll up"),
		line("scroll_down", "Scroll down"),
		line("page_up", "Half page up"),
		line("page_down", "Half page down"),
	)

	columnStyle := lipgloss.NewStyle().Width(44).PaddingLeft(4)

	columns := lipgloss.JoinHorizontal(
		lipgloss.Top,
		columnStyle.Render(conversations),
		columnStyle.Render(lipgloss.JoinVertical(lipgloss.Left, composer, "", transcript)),
	)

	footer := DimStyle.Render(fmt.Sprintf("Press %s or Esc to close this help", kb.DisplayActionKey("help")))

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		green.Render("Wheely - Keyboard Shortcuts"),
		"",
		columns,
		"",
		footer,
	)

	helpBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(1, 2)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, helpBox.Render(content))
}
