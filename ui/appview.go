package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"wheely/config"
	"wheely/identity"
	"wheely/model"
	"wheely/pipeline"
	"wheely/storage"
)

const (
	sidebarWidth    = 30
	minSidebarWidth = 80 // below this terminal width the sidebar is hidden
)

type renderedMessage struct {
	width int
	text  string
}

// reveal is the typewriter state for the newest assistant message
type reveal struct {
	messageID string
	chunks    []string
	shown     int
}

type AppView struct {
	store    *model.Store
	pipeline *pipeline.Pipeline
	user     identity.User
	keys     *config.KeyBindingsConfig
	bindings map[string]string // key string -> action
	now      func() time.Time

	viewport    viewport.Model
	textarea    textarea.Model
	spinner     spinner.Model
	filterInput textinput.Model
	importInput textinput.Model
	searchInput textinput.Model

	width  int
	height int
	ready  bool

	showHelp bool

	filterMode bool
	filtered   []storage.Conversation

	showSuggestions bool
	suggestionIdx   int

	showContextPicker bool
	contextChoices    []contextCandidate
	contextIdx        int

	importMode bool

	renameMode  bool
	renameInput textinput.Model

	showSearch    bool
	searchResults []storage.MessageMatch
	searchIdx     int

	confirmDelete *storage.Conversation

	typewriter bool
	reveal     *reveal
	rendered   map[string]renderedMessage
	rendering  map[string]bool

	notice    string
	noticeErr bool
	noticeSeq int
}

type Option func(*AppView)

// WithClock overrides the clock used for the greeting
func WithClock(now func() time.Time) Option {
	return func(a *AppView) { a.now = now }
}

// WithTypewriter toggles the progressive reveal of new answers
func WithTypewriter(enabled bool) Option {
	return func(a *AppView) { a.typewriter = enabled }
}

func NewAppView(store *model.Store, pipe *pipeline.Pipeline, user identity.User, keys *config.KeyBindingsConfig, opts ...Option) AppView {
	if keys == nil {
		keys = config.DefaultKeybindings()
	}

	ta := textarea.New()
	ta.Placeholder = "Ask Wheely anything..."
	ta.Focus()
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.SetWidth(80)

	// Enter submits; Alt+Enter inserts a newline
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))

	ta.SetPromptFunc(2, func(lineIdx int) string {
		if lineIdx == 0 {
			return "> "
		}
		return "| "
	})

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	filterInput := textinput.New()
	filterInput.Prompt = "Filter: "
	filterInput.CharLimit = 64

	importInput := textinput.New()
	importInput.Prompt = "File: "
	importInput.Placeholder = "~/Downloads/wheely-chat-....json"
	importInput.CharLimit = 512

	renameInput := textinput.New()
	renameInput.Prompt = "Title: "
	renameInput.CharLimit = 80

	searchInput := textinput.New()
	searchInput.Prompt = "Search: "
	searchInput.CharLimit = 100

	a := AppView{
		store:       store,
		pipeline:    pipe,
		user:        user,
		keys:        keys,
		bindings:    buildBindings(keys),
		now:         time.Now,
		viewport:    viewport.New(0, 0),
		textarea:    ta,
		spinner:     sp,
		filterInput: filterInput,
		importInput: importInput,
		renameInput: renameInput,
		searchInput: searchInput,
		typewriter:  true,
		rendered:    make(map[string]renderedMessage),
		rendering:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

// buildBindings resolves every action to the key string Bubble Tea reports
func buildBindings(keys *config.KeyBindingsConfig) map[string]string {
	bindings := make(map[string]string)
	for _, action := range config.ActionNames() {
		if k := keys.GetActionKey(action); k != "" {
			bindings[k] = action
		}
	}
	return bindings
}

func (a AppView) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, pingCmd(a.pipeline))
}

func pingCmd(p *pipeline.Pipeline) tea.Cmd {
	return func() tea.Msg {
		return backendStatusMsg{err: p.Ping(context.Background())}
	}
}

// currentView derives everything this frame depends on
func (a AppView) currentView() model.View {
	return model.Bind(a.store, a.pipeline.Status(), a.user, a.now())
}

func (a AppView) View() string {
	if !a.ready {
		return "Loading Wheely..."
	}

	v := a.currentView()

	if a.confirmDelete != nil {
		return RenderConfirmationModal(ConfirmationState{
			Active:  true,
			Title:   "Delete Conversation",
			Message: fmt.Sprintf("Delete %q?\nThis cannot be undone.", a.confirmDelete.Title),
		}, a.width, a.height)
	}

	if a.showHelp {
		return a.renderHelpModal(a.width, a.height)
	}

	if a.showSuggestions {
		return a.renderSuggestionPicker(v)
	}

	if a.showContextPicker {
		return a.renderContextPicker()
	}

	if a.importMode {
		return a.renderImportModal()
	}

	if a.renameMode {
		return a.renderRenameModal()
	}

	if a.showSearch {
		return a.renderSearch()
	}

	header := a.renderHeader(v)

	main := a.viewport.View()
	if !v.HasMessages {
		main = a.renderGreeting(v)
	}
	if a.showSidebar() {
		main = lipgloss.JoinHorizontal(lipgloss.Top, a.renderSidebar(v), main)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		"",
		main,
		a.renderContextBanner(v),
		a.textarea.View(),
		a.renderStatusBar(),
	)
}

func (a AppView) showSidebar() bool {
	return a.width >= minSidebarWidth
}

func (a AppView) mainWidth() int {
	if a.showSidebar() {
		// border and padding
		return a.width - sidebarWidth - 2
	}
	return a.width
}
