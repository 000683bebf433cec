package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"wheely/config"
	"wheely/model"
	"wheely/pipeline"
	"wheely/storage"
)

const (
	typewriterDelay = 30 * time.Millisecond
	noticeDuration  = 3 * time.Second
)

func (a AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

		// title, spacer, context banner, textarea (3) and status bar
		a.viewport.Width = a.mainWidth()
		a.viewport.Height = max(a.height-7, 1)
		a.textarea.SetWidth(a.width)
		a.filterInput.Width = sidebarWidth - len(a.filterInput.Prompt) - 1
		a.searchInput.Width = min(a.width-20, 80)

		a.ready = true
		a.refreshViewport(true)
		return a, a.pendingRenders()

	case spinner.TickMsg:
		// Dropping the follow-up tick once nothing is pending ends the loop
		if !a.pipeline.Pending() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		a.refreshViewport(false)
		return a, cmd

	case answerMsg:
		return a.handleAnswer(msg)

	case typewriterTickMsg:
		return a.handleTypewriterTick()

	case markdownRenderedMsg:
		delete(a.rendering, msg.messageID)
		if msg.width != a.renderWidth() {
			// Resized while rendering
			return a, a.pendingRenders()
		}
		a.rendered[msg.messageID] = renderedMessage{width: msg.width, text: msg.rendered}
		a.refreshViewport(false)
		return a, nil

	case conversationExportedMsg:
		if msg.err != nil {
			cmd := a.setError("Export failed: " + msg.err.Error())
			return a, cmd
		}
		cmd := a.setNotice("Exported to " + msg.path)
		return a, cmd

	case conversationImportedMsg:
		if msg.err != nil {
			cmd := a.setError("Import failed: " + msg.err.Error())
			return a, cmd
		}
		imported := a.store.Import(msg.conversation)
		a.reveal = nil
		a.refreshViewport(true)
		cmd := tea.Batch(a.pendingRenders(), a.setNotice("Imported "+imported.Title))
		return a, cmd

	case backendStatusMsg:
		if msg.err != nil {
			cmd := a.setError("Query service unreachable, answers will fall back until it is back")
			return a, cmd
		}
		return a, nil

	case clearNoticeMsg:
		if msg.seq == a.noticeSeq {
			a.notice = ""
			a.noticeErr = false
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	var cmd tea.Cmd
	a.textarea, cmd = a.textarea.Update(msg)
	return a, cmd
}

func (a AppView) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	switch {
	case a.confirmDelete != nil:
		return a.handleDeleteConfirmation(msg)
	case a.showHelp:
		if msg.String() == "esc" || a.bindings[msg.String()] == "help" {
			a.showHelp = false
		}
		return a, nil
	case a.showSuggestions:
		return a.handleSuggestionPicker(msg)
	case a.showContextPicker:
		return a.handleContextPicker(msg)
	case a.importMode:
		return a.handleImportInput(msg)
	case a.renameMode:
		return a.handleRenameInput(msg)
	case a.showSearch:
		return a.handleSearchInput(msg)
	case a.filterMode:
		return a.handleFilterInput(msg)
	}

	if action, ok := a.bindings[msg.String()]; ok {
		return a.handleAction(action)
	}

	if msg.String() == "enter" {
		return a, a.submit()
	}

	var cmd tea.Cmd
	a.textarea, cmd = a.textarea.Update(msg)
	return a, cmd
}

// submit records the utterance synchronously and resolves it on a command
// goroutine. The exchange already holds its target conversation.
func (a *AppView) submit() tea.Cmd {
	ex, ok := a.pipeline.Prepare(a.textarea.Value())
	if !ok {
		return nil
	}
	a.textarea.Reset()
	a.refreshViewport(true)

	return tea.Batch(resolveCmd(a.pipeline, ex), a.spinner.Tick)
}

func resolveCmd(p *pipeline.Pipeline, ex *pipeline.Exchange) tea.Cmd {
	return func() tea.Msg {
		msg, err := p.Resolve(context.Background(), ex)
		return answerMsg{conversationID: ex.ConversationID, message: msg, err: err}
	}
}

func (a AppView) handleAnswer(msg answerMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		// The conversation was deleted while waiting; nothing to show
		if !errors.Is(msg.err, model.ErrConversationNotFound) && config.DebugLog != nil {
			config.DebugLog.Printf("[ui] answer for %s: %v", msg.conversationID, msg.err)
		}
		a.refreshViewport(false)
		return a, nil
	}

	if msg.conversationID != a.store.ActiveID() {
		a.refreshViewport(false)
		return a, nil
	}

	cmds := []tea.Cmd{a.pendingRenders()}
	if a.typewriter {
		a.reveal = &reveal{
			messageID: msg.message.ID,
			chunks:    splitChunks(msg.message.Content),
		}
		cmds = append(cmds, typewriterTick(time.Millisecond))
	}
	a.refreshViewport(true)
	return a, tea.Batch(cmds...)
}

func (a AppView) handleTypewriterTick() (tea.Model, tea.Cmd) {
	if a.reveal == nil {
		return a, nil
	}
	a.reveal.shown++
	if a.reveal.shown >= len(a.reveal.chunks) {
		a.reveal = nil
		a.refreshViewport(true)
		return a, nil
	}
	a.refreshViewport(true)
	return a, typewriterTick(typewriterDelay)
}

func typewriterTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return typewriterTickMsg{}
	})
}

// splitChunks cuts text into words with their trailing whitespace, so the
// joined chunks reproduce it exactly
func splitChunks(text string) []string {
	var chunks []string
	start := 0
	inSpace := false
	for i, r := range text {
		isSpace := r == ' ' || r == '\n' || r == '\t'
		if inSpace && !isSpace {
			chunks = append(chunks, text[start:i])
			start = i
		}
		inSpace = isSpace
	}
	if start < len(text) {
		chunks = append(chunks, text[start:])
	}
	return chunks
}

func (a *AppView) setNotice(text string) tea.Cmd {
	a.notice = text
	a.noticeErr = false
	return a.expireNotice()
}

func (a *AppView) setError(text string) tea.Cmd {
	a.notice = text
	a.noticeErr = true
	if config.DebugLog != nil {
		config.DebugLog.Printf("[ui] %s", text)
	}
	return a.expireNotice()
}

func (a *AppView) expireNotice() tea.Cmd {
	a.noticeSeq++
	seq := a.noticeSeq
	return tea.Tick(noticeDuration, func(time.Time) tea.Msg {
		return clearNoticeMsg{seq: seq}
	})
}

// lastAnswer is the newest assistant message of the active conversation
func (a AppView) lastAnswer() (string, bool) {
	msgs := a.store.Active().Messages
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Sender == storage.SenderAssistant {
			return strings.TrimSpace(msgs[i].Content), true
		}
	}
	return "", false
}
