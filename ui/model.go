package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lepinkainen/rasterproj/batch"
	"github.com/lepinkainen/rasterproj/raster"
)

// maxWarnings is how many recent warnings the view keeps
const maxWarnings = 5

// FileLogEntry is one finished job in the processed files list
type FileLogEntry struct {
	Input   string
	Output  string
	Outcome raster.Outcome
	Detail  string
}

func (f FileLogEntry) FilterValue() string { return f.Input }
func (f FileLogEntry) Title() string       { return filepath.Base(f.Input) }
func (f FileLogEntry) Description() string {
	switch f.Outcome {
	case raster.Success:
		return fmt.Sprintf("✓ → %s", filepath.Base(f.Output))
	case raster.Skipped:
		return fmt.Sprintf("⏭ %s", f.Detail)
	default:
		return fmt.Sprintf("❌ %s", f.Detail)
	}
}

// BatchModel is the interactive control surface for a reprojection batch.
// The start key is disabled while a run is active and comes back once the
// summary event arrives.
type BatchModel struct {
	start     StartFunc
	autoStart bool
	events    <-chan batch.Event

	// Run state
	running     bool
	runs        int
	total       int
	finished    int
	currentFile string
	band        int
	bands       int
	status      string
	warnings    []string
	entries     []FileLogEntry
	summary     *batch.Summary
	notice      string

	// UI components
	overallProgress progress.Model
	bandProgress    progress.Model
	fileList        list.Model

	// Layout
	width  int
	height int

	quitting bool

	// Version for display
	Version string
}

// NewBatchModel creates the model. With autoStart the first run begins as
// soon as the program starts.
func NewBatchModel(start StartFunc, autoStart bool, version string) BatchModel {
	fileList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	fileList.Title = "Processed Files"
	fileList.SetShowHelp(false)

	return BatchModel{
		start:           start,
		autoStart:       autoStart,
		overallProgress: progress.New(progress.WithDefaultGradient()),
		bandProgress:    progress.New(progress.WithDefaultGradient()),
		fileList:        fileList,
		Version:         version,
	}
}

// startMsg asks the model to begin a run
type startMsg struct{}

// Init implements tea.Model
func (m BatchModel) Init() tea.Cmd {
	if m.autoStart {
		return func() tea.Msg { return startMsg{} }
	}
	return nil
}

// Running reports whether a batch is in progress
func (m BatchModel) Running() bool { return m.running }

// Summary is the summary of the last finished run, nil before the first one
func (m BatchModel) Summary() *batch.Summary { return m.summary }

// Update implements tea.Model
func (m BatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.running {
				m.notice = "A batch is running and cannot be cancelled; quit once it finishes"
				return m, nil
			}
			m.quitting = true
			return m, tea.Quit
		case "s", "enter":
			return m.startRun()
		}

	case startMsg:
		return m.startRun()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.fileList.SetSize(msg.Width-4, msg.Height/3)
		barWidth := msg.Width - 30
		if barWidth < 10 {
			barWidth = 10
		}
		m.overallProgress.Width = barWidth
		m.bandProgress.Width = barWidth

	case EventMsg:
		m.apply(msg.Event)
		return m, waitForEvent(m.events)

	case RunClosedMsg:
		m.events = nil
		// a worker that stops without a summary still frees the start key
		m.running = false
	}

	return m, nil
}

func (m BatchModel) startRun() (tea.Model, tea.Cmd) {
	if m.running || m.start == nil {
		return m, nil
	}

	m.running = true
	m.runs++
	m.total, m.finished = 0, 0
	m.currentFile, m.band, m.bands = "", 0, 0
	m.warnings = nil
	m.entries = nil
	m.summary = nil
	m.notice = ""
	m.fileList.SetItems(nil)

	m.events = m.start()
	return m, waitForEvent(m.events)
}

// apply folds one event into the model
func (m *BatchModel) apply(ev batch.Event) {
	if ev.Total > 0 {
		m.total = ev.Total
	}

	switch ev.Kind {
	case batch.EventBatchStarted:
		m.status = ev.Message

	case batch.EventJobStarted:
		m.currentFile = filepath.Base(ev.Job.Input)
		m.band, m.bands = 0, 0

	case batch.EventJobProgress:
		m.band, m.bands = ev.Band, ev.Bands

	case batch.EventJobWarning:
		m.warnings = append(m.warnings, ev.Message)
		if len(m.warnings) > maxWarnings {
			m.warnings = m.warnings[len(m.warnings)-maxWarnings:]
		}

	case batch.EventJobFinished:
		m.finished = ev.Index
		m.currentFile = ""
		entry := FileLogEntry{Input: ev.Job.Input, Output: ev.Job.Output}
		if ev.Result != nil {
			entry.Outcome = ev.Result.Outcome
			switch ev.Result.Outcome {
			case raster.Skipped:
				entry.Detail = ev.Result.SkipReason
			case raster.Failed:
				entry.Detail = fmt.Sprintf("%s: %v", raster.ErrorKind(ev.Result.Error), ev.Result.Error)
			}
		}
		m.entries = append(m.entries, entry)
		items := make([]list.Item, len(m.entries))
		for i, e := range m.entries {
			items[i] = e
		}
		m.fileList.SetItems(items)

	case batch.EventSummary:
		s := *ev.Summary
		m.summary = &s
		m.running = false
		m.status = ev.Message
	}
}

// View implements tea.Model
func (m BatchModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	header := HeaderStyle.Render(fmt.Sprintf("rasterproj %s", m.Version))

	status := m.status
	if status == "" {
		status = "Ready"
	}

	overallPercent := 0.0
	if m.total > 0 {
		overallPercent = float64(m.finished) / float64(m.total)
	}
	overallView := fmt.Sprintf("Overall Progress: %s (%d/%d)",
		m.overallProgress.ViewAs(overallPercent), m.finished, m.total)

	sections := []string{header, InfoStyle.Render(status), overallView}

	if m.running && m.currentFile != "" {
		bandPercent := 0.0
		if m.bands > 0 {
			bandPercent = float64(m.band) / float64(m.bands)
		}
		sections = append(sections, fmt.Sprintf("%s %s (band %d/%d)",
			ProcessingStyle.Render(m.currentFile), m.bandProgress.ViewAs(bandPercent), m.band, m.bands))
	}

	if len(m.warnings) > 0 {
		lines := make([]string, len(m.warnings))
		for i, w := range m.warnings {
			lines[i] = WarningStyle.Render("⚠ " + w)
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	sections = append(sections, m.fileList.View())

	if m.summary != nil {
		style := SuccessStyle
		if m.summary.Failed > 0 {
			style = ErrorStyle
		}
		sections = append(sections, style.Render(fmt.Sprintf("Done: %d reprojected, %d skipped, %d failed of %d",
			m.summary.Success, m.summary.Skipped, m.summary.Failed, m.summary.Total)))
	}

	if m.notice != "" {
		sections = append(sections, WarningStyle.Render(m.notice))
	}

	sections = append(sections, m.controls())
	return strings.Join(sections, "\n\n")
}

func (m BatchModel) controls() string {
	if m.running {
		return MutedStyle.Render("Controls: [s] Start (running...)  [q] Quit (after run)")
	}
	return "Controls: [s] Start  [q] Quit"
}
