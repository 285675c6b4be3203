package batch

import (
	"fmt"
	"time"

	"github.com/lepinkainen/rasterproj/raster"
)

// Level is the severity of a status event.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// EventKind classifies events emitted during a run.
type EventKind string

const (
	EventBatchStarted EventKind = "batch_started"
	EventJobStarted   EventKind = "job_started"
	EventJobProgress  EventKind = "job_progress"
	EventJobWarning   EventKind = "job_warning"
	EventJobFinished  EventKind = "job_finished"
	EventSummary      EventKind = "summary"
)

// Event is one status record. Seq increases by one per event within a run,
// and the EventSummary event is always the last one.
type Event struct {
	RunID   string
	Seq     int64
	Time    time.Time
	Kind    EventKind
	Level   Level
	Message string

	// Index is the 1-based position of Job in the request, 0 for batch level events.
	Index int
	Total int
	Job   raster.Job

	Band  int // EventJobProgress only
	Bands int

	Result  *raster.Result // EventJobFinished only
	Summary *Summary       // EventSummary only
}

// StatusSink receives events from the orchestrator. Emit is called
// synchronously from the worker goroutine, one event at a time.
type StatusSink interface {
	Emit(Event)
}

// SinkFunc adapts a function to StatusSink
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// Summary counts job outcomes of a run.
type Summary struct {
	Total   int
	Success int
	Skipped int
	Failed  int
	Elapsed time.Duration
}

// Add counts one outcome
func (s *Summary) Add(o raster.Outcome) {
	s.Total++
	switch o {
	case raster.Success:
		s.Success++
	case raster.Skipped:
		s.Skipped++
	default:
		s.Failed++
	}
}

// Consistent reports whether every job was counted exactly once.
func (s Summary) Consistent() bool {
	return s.Total == s.Success+s.Skipped+s.Failed
}

func (s Summary) String() string {
	return fmt.Sprintf("total=%d success=%d skipped=%d failed=%d", s.Total, s.Success, s.Skipped, s.Failed)
}
