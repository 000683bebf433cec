package ui

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	markdown "github.com/MichaelMure/go-term-markdown"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"
	"github.com/mattn/go-runewidth"

	"wheely/config"
	"wheely/model"
	"wheely/storage"
)

var (
	inlineCodeRegex = regexp.MustCompile(`(?s)\x1b\[44;3m(.*?)\x1b\[0m`)
	mdLinkRegex     = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\)]+)\)`)
	urlRegex        = regexp.MustCompile(`(https?://[^\s]+)`)
)

const (
	codeBlockBar = "┃"
	cursorGlyph  = "▋"
)

func (a AppView) renderHeader(v model.View) string {
	title := AssistantStyle.Bold(true).Render("Wheely")
	title += TitleStyle.Render(" - " + v.Active.Title)
	title += DimStyle.Render(" | " + a.user.DisplayName() + " (" + v.RoleLabel + ")")
	if v.Typing {
		title += " " + a.spinner.View()
	}
	return title
}

func (a AppView) renderStatusBar() string {
	if a.notice != "" {
		if a.noticeErr {
			return ErrorStyle.Render(a.notice)
		}
		return StatusStyle.Render(a.notice)
	}

	descStyle := lipgloss.NewStyle().Foreground(successColor).Bold(true)
	hint := func(action, desc string) string {
		return a.keys.DisplayActionKey(action) + " " + descStyle.Render(desc)
	}
	bar := strings.Join([]string{
		"Enter " + descStyle.Render("Send"),
		hint("new_conversation", "New"),
		hint("pick_suggestion", "Suggestions"),
		hint("use_context", "Use as context"),
		hint("copy_answer", "Copy"),
		hint("help", "Help"),
		hint("quit", "Quit"),
	}, "  ")
	return StatusStyle.MaxWidth(a.width).Render(bar)
}

// renderContextBanner is one line with a note attached and empty otherwise
func (a AppView) renderContextBanner(v model.View) string {
	if v.ContextNote == "" {
		return ""
	}
	note := strings.Join(strings.Fields(v.ContextNote), " ")
	label := fmt.Sprintf("Context: %s", note)
	hint := "  " + DimStyle.Render(a.keys.DisplayActionKey("clear_context")+" to clear")
	return ContextStyle.Render(runewidth.Truncate(label, max(a.width-30, 10), "...")) + hint
}

func (a AppView) sidebarList(v model.View) []storage.Conversation {
	if a.filterMode && a.filtered != nil {
		return a.filtered
	}
	return v.Conversations
}

func (a AppView) renderSidebar(v model.View) string {
	height := a.viewport.Height
	var lines []string

	if a.filterMode {
		lines = append(lines, a.filterInput.View(), "")
	} else {
		lines = append(lines, TitleStyle.Render("Conversations"), "")
	}

	list := a.sidebarList(v)
	if len(list) == 0 {
		lines = append(lines, DimStyle.Render("No matches"))
	}

	// Two lines per entry; scroll so the active one stays visible
	visible := (height - len(lines)) / 2
	if visible < 1 {
		visible = 1
	}
	start := 0
	for i, c := range list {
		if c.ID == v.Active.ID && i >= visible {
			start = i - visible + 1
		}
	}

	for i := start; i < len(list) && i < start+visible; i++ {
		c := list[i]
		title := runewidth.Truncate(c.Title, sidebarWidth-2, "...")
		preview := runewidth.Truncate(c.LastMessage, sidebarWidth-2, "...")
		if c.ID == v.Active.ID {
			lines = append(lines, SelectedStyle.Render("> "+title))
		} else {
			lines = append(lines, "  "+title)
		}
		lines = append(lines, DimStyle.Render("  "+preview))
	}

	return SidebarStyle.
		Width(sidebarWidth).
		Height(height).
		Render(strings.Join(lines, "\n"))
}

// renderGreeting fills the chat area of a conversation with no messages
func (a AppView) renderGreeting(v model.View) string {
	green := lipgloss.NewStyle().Bold(true).Foreground(successColor)

	lines := []string{
		green.Render(v.Greeting),
		DimStyle.Render("What can I help you with today?"),
		"",
	}
	for i, s := range v.Suggestions {
		lines = append(lines, fmt.Sprintf("%s %s", DimStyle.Render(fmt.Sprintf("%d.", i+1)), s.Label()))
	}
	lines = append(lines, "", DimStyle.Render("Press "+a.keys.DisplayActionKey("pick_suggestion")+" to pick a suggestion"))

	return lipgloss.Place(
		a.mainWidth(),
		a.viewport.Height,
		lipgloss.Center,
		lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, lines...),
	)
}

func (a AppView) renderSuggestionPicker(v model.View) string {
	const modalWidth = 60

	var lines []string
	for i, s := range v.Suggestions {
		label := runewidth.Truncate(s.Label(), modalWidth-4, "...")
		if i == a.suggestionIdx {
			lines = append(lines, SelectedStyle.Render("> "+label))
		} else {
			lines = append(lines, "  "+label)
		}
	}

	return RenderThreeSectionModal(
		"Suggestions for "+v.RoleLabel,
		lines,
		FormatFooter("j/k", "Navigate", "Enter", "Use", "Esc", "Close"),
		ModalTypeInfo,
		modalWidth,
		a.width,
		a.height,
	)
}

func (a AppView) renderImportModal() string {
	return RenderThreeSectionModal(
		"Import Conversation",
		[]string{a.importInput.View()},
		FormatFooter("Enter", "Import", "Esc", "Cancel"),
		ModalTypeInfo,
		70,
		a.width,
		a.height,
	)
}

func (a AppView) renderRenameModal() string {
	return RenderThreeSectionModal(
		"Rename Conversation",
		[]string{a.renameInput.View()},
		FormatFooter("Enter", "Save", "Esc", "Cancel"),
		ModalTypeInfo,
		60,
		a.width,
		a.height,
	)
}

// refreshViewport rebuilds the transcript of the active conversation
func (a *AppView) refreshViewport(gotoBottom bool) {
	v := a.currentView()

	var content strings.Builder
	for _, msg := range v.Active.Messages {
		timestamp := DimStyle.Render(msg.Timestamp.Format("[15:04]"))

		if msg.Sender == storage.SenderUser {
			body := msg.Content
			if !msg.Confirmed {
				body += "\n" + DimStyle.Render("sending...")
			}
			content.WriteString(formatUserMessage(timestamp, UserStyle.Render("You"), body))
			continue
		}

		content.WriteString(fmt.Sprintf("%s %s\n%s\n\n", timestamp, AssistantStyle.Render("Wheely"), a.assistantBody(msg)))
	}

	if v.Typing {
		content.WriteString(fmt.Sprintf("%s %s\n", a.spinner.View(), DimStyle.Render("Wheely is typing...")))
	}

	a.viewport.SetContent(content.String())
	if gotoBottom {
		a.viewport.GotoBottom()
	}
}

func (a AppView) assistantBody(msg storage.Message) string {
	if a.reveal != nil && a.reveal.messageID == msg.ID {
		return strings.Join(a.reveal.chunks[:a.reveal.shown], "") + cursorGlyph
	}
	if r, ok := a.rendered[msg.ID]; ok && r.width == a.renderWidth() {
		return r.text
	}
	return msg.Content
}

func (a AppView) renderWidth() int {
	w := a.mainWidth() - 4
	if w < 20 {
		w = 20
	}
	return w
}

// pendingRenders schedules markdown rendering for assistant messages of the
// active conversation that have none at the current width
func (a *AppView) pendingRenders() tea.Cmd {
	width := a.renderWidth()
	var cmds []tea.Cmd
	for _, msg := range a.store.Active().Messages {
		if msg.Sender != storage.SenderAssistant || a.rendering[msg.ID] {
			continue
		}
		if r, ok := a.rendered[msg.ID]; ok && r.width == width {
			continue
		}
		a.rendering[msg.ID] = true
		cmds = append(cmds, renderMarkdownCmd(msg.ID, msg.Content, width))
	}
	return tea.Batch(cmds...)
}

func formatUserMessage(timestamp, role, content string) string {
	bar := UserStyle.Render("┃")

	var result strings.Builder
	result.WriteString(fmt.Sprintf("%s %s %s\n", bar, timestamp, role))
	for _, line := range strings.Split(content, "\n") {
		result.WriteString(fmt.Sprintf("%s %s\n", bar, line))
	}
	result.WriteString("\n")

	return result.String()
}

// RenderMarkdown renders an answer for a terminal of the given width
func RenderMarkdown(content string, width int) string {
	content = mdLinkRegex.ReplaceAllString(content, "$2")

	// Autolink off: plain URLs stay plain so the terminal can make them clickable
	ext := markdown.Extensions() &^ parser.Autolink
	p := parser.NewWithExtensions(ext)
	r := markdown.NewRenderer(width, 0)
	rendered := string(gomarkdown.Render(p.Parse([]byte(content)), r))

	rendered = inlineCodeRegex.ReplaceAllString(rendered, "\x1b[31m$1\x1b[0m")
	rendered = colorURLs(rendered)
	rendered = frameCodeBlocks(rendered, width)

	return strings.TrimRight(rendered, "\n")
}

func renderMarkdownCmd(messageID, content string, width int) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		rendered := RenderMarkdown(content, width)
		if config.DebugLog != nil {
			config.DebugLog.Printf("[ui] rendered message %s (%d chars) in %v", messageID, len(content), time.Since(start))
		}
		return markdownRenderedMsg{messageID: messageID, width: width, rendered: rendered}
	}
}

func colorURLs(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if !strings.Contains(line, codeBlockBar) {
			lines[i] = urlRegex.ReplaceAllString(line, "\x1b[31m$1\x1b[0m")
		}
	}
	return strings.Join(lines, "\n")
}

// frameCodeBlocks replaces the renderer's bar prefix on code lines with
// horizontal rules above and below the block
func frameCodeBlocks(s string, width int) string {
	const darkGray, reset = "\x1b[90m", "\x1b[0m"
	rule := darkGray + strings.Repeat("━", max(width, 4)) + reset

	var result []string
	inBlock := false
	for _, line := range strings.Split(s, "\n") {
		idx := strings.Index(line, codeBlockBar)
		if idx < 0 {
			if inBlock {
				result = append(result, rule)
				inBlock = false
			}
			result = append(result, line)
			continue
		}
		if !inBlock {
			result = append(result, rule)
			inBlock = true
		}
		rest := line[idx+len(codeBlockBar):]
		result = append(result, strings.TrimPrefix(rest, " "))
	}
	if inBlock {
		result = append(result, rule)
	}
	return strings.Join(result, "\n")
}
