package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// InstanceLockedModal is shown when another Wheely process holds the data
// directory. The user can exit or remove a lock they know to be stale.
type InstanceLockedModal struct {
	runningPID  int
	lockPath    string
	width       int
	height      int
	forceDelete bool
}

func NewInstanceLockedModal(runningPID int, lockPath string) InstanceLockedModal {
	return InstanceLockedModal{
		runningPID: runningPID,
		lockPath:   lockPath,
	}
}

func (m InstanceLockedModal) Init() tea.Cmd {
	return nil
}

func (m InstanceLockedModal) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "esc", "ctrl+c":
			return m, tea.Quit
		case "d", "D":
			m.forceDelete = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// ForceDelete reports whether the user chose to remove the lock file
func (m InstanceLockedModal) ForceDelete() bool {
	return m.forceDelete
}

func (m InstanceLockedModal) View() string {
	if m.width < 20 || m.height < 10 {
		return "Terminal too small"
	}

	message := fmt.Sprintf(
		"Another Wheely instance is already running (PID %d).\n\n"+
			"Chat history is written by one instance at a time,\n"+
			"so a second one could overwrite your conversations.\n\n"+
			"Lock file: %s\n\n"+
			"If that process is gone, press D to delete the lock\n"+
			"and start Wheely anyway.",
		m.runningPID, m.lockPath)

	const modalWidth = 60
	return RenderThreeSectionModal(
		"⚠️  Wheely Already Running  ⚠️",
		centeredLines(message, min(modalWidth, m.width-10)),
		"Enter Exit │ D Force delete lock file",
		ModalTypeError,
		modalWidth,
		m.width,
		m.height,
	)
}
