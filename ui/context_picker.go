package ui

import (
	"regexp"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"wheely/storage"
)

var (
	fencedCodeRegex = regexp.MustCompile("(?s)```[A-Za-z0-9_+-]*\n(.*?)```")
	inlineSpanRegex = regexp.MustCompile("`([^`\n]+)`")
)

// contextCandidate is one excerpt of assistant output that can be attached
// to the next query
type contextCandidate struct {
	label string
	text  string
}

// contextCandidates lists the assistant answers of the active conversation,
// newest first, each followed by its code blocks and inline code spans
func (a AppView) contextCandidates() []contextCandidate {
	msgs := a.store.Active().Messages

	var candidates []contextCandidate
	seen := make(map[string]bool)
	add := func(label, text string) {
		text = strings.TrimSpace(text)
		if text == "" || seen[text] {
			return
		}
		seen[text] = true
		candidates = append(candidates, contextCandidate{label: label, text: text})
	}

	for i := len(msgs) - 1; i >= 0; i-- {
		msg := msgs[i]
		if msg.Sender != storage.SenderAssistant {
			continue
		}
		add(msg.Timestamp.Format("15:04")+" answer", msg.Content)

		for _, m := range fencedCodeRegex.FindAllStringSubmatch(msg.Content, -1) {
			add("  code block", m[1])
		}
		withoutBlocks := fencedCodeRegex.ReplaceAllString(msg.Content, "")
		for _, m := range inlineSpanRegex.FindAllStringSubmatch(withoutBlocks, -1) {
			add("  code", m[1])
		}
	}
	return candidates
}

func (a AppView) openContextPicker() (tea.Model, tea.Cmd) {
	candidates := a.contextCandidates()
	if len(candidates) == 0 {
		cmd := a.setError("No answer to use as context yet")
		return a, cmd
	}
	a.contextChoices = candidates
	a.contextIdx = 0
	a.showContextPicker = true
	return a, nil
}

func (a AppView) handleContextPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.showContextPicker = false
	case "j", "down":
		if a.contextIdx < len(a.contextChoices)-1 {
			a.contextIdx++
		}
	case "k", "up":
		if a.contextIdx > 0 {
			a.contextIdx--
		}
	case "enter":
		a.showContextPicker = false
		if a.contextIdx < len(a.contextChoices) {
			a.pipeline.SetContext(a.contextChoices[a.contextIdx].text)
		}
	}
	return a, nil
}

func (a AppView) renderContextPicker() string {
	const modalWidth = 70

	var lines []string
	for i, c := range a.contextChoices {
		excerpt := strings.Join(strings.Fields(c.text), " ")
		line := runewidth.Truncate(c.label+": "+excerpt, modalWidth-4, "...")
		if i == a.contextIdx {
			lines = append(lines, SelectedStyle.Render("> "+line))
		} else {
			lines = append(lines, "  "+line)
		}
	}

	return RenderThreeSectionModal(
		"Use as Context",
		lines,
		FormatFooter("j/k", "Navigate", "Enter", "Attach", "Esc", "Close"),
		ModalTypeInfo,
		modalWidth,
		a.width,
		a.height,
	)
}
