package ui

import (
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"wheely/config"
	"wheely/identity"
	"wheely/storage"
)

func (a AppView) handleAction(action string) (tea.Model, tea.Cmd) {
	if config.DebugLog != nil {
		config.DebugLog.Printf("[ui] action %s", action)
	}

	switch action {
	case "quit":
		return a, tea.Quit

	case "help":
		a.showHelp = true
		return a, nil

	case "new_conversation":
		a.store.Create()
		return a.afterSwitch()

	case "delete_conversation":
		active := a.store.Active()
		a.confirmDelete = &active
		return a, nil

	case "next_conversation":
		return a.moveSelection(1)

	case "prev_conversation":
		return a.moveSelection(-1)

	case "filter_conversations":
		a.filterMode = true
		a.filtered = nil
		a.filterInput.SetValue("")
		a.textarea.Blur()
		cmd := a.filterInput.Focus()
		return a, cmd

	case "export_conversation":
		return a, exportCmd(a.store.Active(), time.Now())

	case "import_conversation":
		a.importMode = true
		a.importInput.SetValue("")
		a.textarea.Blur()
		focus := a.importInput.Focus()
		return a, tea.Batch(focus, textinput.Blink)

	case "rename_conversation":
		a.renameMode = true
		a.renameInput.SetValue(a.store.Active().Title)
		a.renameInput.CursorEnd()
		a.textarea.Blur()
		cmd := a.renameInput.Focus()
		return a, cmd

	case "search_messages":
		return a.openSearch()

	case "pick_suggestion":
		a.showSuggestions = true
		a.suggestionIdx = 0
		return a, nil

	case "use_context":
		return a.openContextPicker()

	case "clear_context":
		a.pipeline.ClearContext()
		return a, nil

	case "clear_input":
		a.textarea.Reset()
		return a, nil

	case "copy_answer":
		answer, ok := a.lastAnswer()
		if !ok {
			cmd := a.setError("Nothing to copy yet")
			return a, cmd
		}
		if err := clipboard.WriteAll(answer); err != nil {
			cmd := a.setError("Copy failed: " + err.Error())
			return a, cmd
		}
		cmd := a.setNotice("Answer copied to clipboard")
		return a, cmd

	case "scroll_up":
		a.viewport.LineUp(1)
		return a, nil

	case "scroll_down":
		a.viewport.LineDown(1)
		return a, nil

	case "page_up":
		a.viewport.HalfPageUp()
		return a, nil

	case "page_down":
		a.viewport.HalfPageDown()
		return a, nil
	}

	return a, nil
}

// afterSwitch resets per-conversation display state once the active
// conversation changed
func (a AppView) afterSwitch() (tea.Model, tea.Cmd) {
	a.reveal = nil
	a.refreshViewport(true)
	return a, a.pendingRenders()
}

// moveSelection walks the sidebar order, wrapping at both ends
func (a AppView) moveSelection(delta int) (tea.Model, tea.Cmd) {
	list := a.sidebarList(a.currentView())
	if len(list) == 0 {
		return a, nil
	}

	idx := -1
	activeID := a.store.ActiveID()
	for i, c := range list {
		if c.ID == activeID {
			idx = i
			break
		}
	}

	next := (idx + delta + len(list)) % len(list)
	if idx < 0 {
		next = 0
	}
	a.store.Select(list[next].ID)
	return a.afterSwitch()
}

func (a AppView) handleDeleteConfirmation(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		target := a.confirmDelete
		a.confirmDelete = nil
		a.store.Delete(target.ID)
		if a.filterMode {
			a.refilter()
		}
		return a.afterSwitch()
	case "n", "N", "esc":
		a.confirmDelete = nil
	}
	return a, nil
}

func (a AppView) handleSuggestionPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	suggestions := identity.Suggestions(a.user.Role)

	switch msg.String() {
	case "esc":
		a.showSuggestions = false
	case "j", "down":
		if a.suggestionIdx < len(suggestions)-1 {
			a.suggestionIdx++
		}
	case "k", "up":
		if a.suggestionIdx > 0 {
			a.suggestionIdx--
		}
	case "enter":
		a.showSuggestions = false
		if a.suggestionIdx < len(suggestions) {
			a.textarea.SetValue(identity.CleanSuggestion(suggestions[a.suggestionIdx].Label()))
			a.textarea.CursorEnd()
		}
	}
	return a, nil
}

func (a AppView) handleFilterInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.closeFilter()
		cmd := a.textarea.Focus()
		return a, cmd
	case "enter":
		list := a.sidebarList(a.currentView())
		a.closeFilter()
		cmd := a.textarea.Focus()
		if len(list) > 0 {
			a.store.Select(list[0].ID)
		}
		m, renderCmd := a.afterSwitch()
		return m, tea.Batch(cmd, renderCmd)
	case "up":
		return a.moveSelection(-1)
	case "down":
		return a.moveSelection(1)
	}

	var cmd tea.Cmd
	a.filterInput, cmd = a.filterInput.Update(msg)
	a.refilter()
	return a, cmd
}

func (a *AppView) closeFilter() {
	a.filterMode = false
	a.filtered = nil
	a.filterInput.Blur()
}

// refilter matches the filter against title and preview, best match first
func (a *AppView) refilter() {
	conversations := a.store.Sorted()
	filterValue := a.filterInput.Value()
	if filterValue == "" {
		a.filtered = conversations
		return
	}

	targets := make([]string, len(conversations))
	for i, c := range conversations {
		targets[i] = c.Title + " " + c.LastMessage
	}

	matches := fuzzy.Find(filterValue, targets)
	a.filtered = make([]storage.Conversation, len(matches))
	for i, match := range matches {
		a.filtered[i] = conversations[match.Index]
	}
}

func (a AppView) handleImportInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.importMode = false
		a.importInput.Blur()
		cmd := a.textarea.Focus()
		return a, cmd
	case "enter":
		path := config.ExpandPath(strings.TrimSpace(a.importInput.Value()))
		a.importMode = false
		a.importInput.Blur()
		if path == "" {
			cmd := a.textarea.Focus()
			return a, cmd
		}
		focus := a.textarea.Focus()
		return a, tea.Batch(focus, importCmd(path))
	}

	var cmd tea.Cmd
	a.importInput, cmd = a.importInput.Update(msg)
	return a, cmd
}

// handleRenameInput retitles the active conversation; a blank title keeps
// the old one
func (a AppView) handleRenameInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.store.Rename(a.store.ActiveID(), a.renameInput.Value())
		fallthrough
	case "esc":
		a.renameMode = false
		a.renameInput.Blur()
		cmd := a.textarea.Focus()
		return a, cmd
	}

	var cmd tea.Cmd
	a.renameInput, cmd = a.renameInput.Update(msg)
	return a, cmd
}

func exportCmd(c storage.Conversation, now time.Time) tea.Cmd {
	return func() tea.Msg {
		path := storage.GenerateExportPath(c.Title, now)
		err := storage.ExportConversation(c, path)
		return conversationExportedMsg{path: path, err: err}
	}
}

func importCmd(path string) tea.Cmd {
	return func() tea.Msg {
		c, err := storage.ImportConversation(path)
		return conversationImportedMsg{conversation: c, err: err}
	}
}
