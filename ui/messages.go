package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lepinkainen/rasterproj/batch"
)

// TUI message types for worker communication

// EventMsg carries one batch event from the worker
type EventMsg struct {
	Event batch.Event
}

// RunClosedMsg is sent when the worker's event channel is drained
type RunClosedMsg struct{}

// StartFunc launches a batch on the worker and returns its event stream.
// The stream must end with the summary event and then be closed.
type StartFunc func() <-chan batch.Event

// waitForEvent reads the next event off ch
func waitForEvent(ch <-chan batch.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return RunClosedMsg{}
		}
		return EventMsg{Event: ev}
	}
}
