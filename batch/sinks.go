package batch

import (
	"sync"

	"github.com/rs/zerolog"
)

// LogSink writes events to a zerolog logger at the matching level.
type LogSink struct {
	log zerolog.Logger
	// Progress events are logged at debug level when set, dropped otherwise.
	verbose bool
}

// NewLogSink returns a sink logging through log
func NewLogSink(log zerolog.Logger, verbose bool) *LogSink {
	return &LogSink{log: log, verbose: verbose}
}

func (s *LogSink) Emit(e Event) {
	var ev *zerolog.Event
	switch {
	case e.Kind == EventJobProgress:
		if !s.verbose {
			return
		}
		ev = s.log.Debug()
	case e.Level == LevelError:
		ev = s.log.Error()
	case e.Level == LevelWarn:
		ev = s.log.Warn()
	default:
		ev = s.log.Info()
	}

	ev = ev.Str("run", e.RunID).Int64("seq", e.Seq)
	if e.Index > 0 {
		ev = ev.Int("job", e.Index).Int("of", e.Total)
	}
	if e.Result != nil && e.Result.Error != nil {
		ev = ev.Err(e.Result.Error)
	}
	if e.Summary != nil {
		ev = ev.Int("total", e.Summary.Total).
			Int("success", e.Summary.Success).
			Int("skipped", e.Summary.Skipped).
			Int("failed", e.Summary.Failed).
			Dur("elapsed", e.Summary.Elapsed)
	}
	ev.Msg(e.Message)
}

// ChannelSink forwards events to a channel drained by another goroutine.
// The channel is closed right after the summary event, so consumers can
// range over Events.
type ChannelSink struct {
	ch     chan Event
	closed bool
	mu     sync.Mutex
}

// NewChannelSink returns a sink with the given channel buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{ch: make(chan Event, buffer)}
}

// Events is the receiving side
func (s *ChannelSink) Events() <-chan Event {
	return s.ch
}

// Emit blocks until the event is queued. Events after the summary are dropped.
func (s *ChannelSink) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.ch <- e
	if e.Kind == EventSummary {
		s.closed = true
		close(s.ch)
	}
}

// MultiSink fans every event out to all sinks, in order.
type MultiSink []StatusSink

func (m MultiSink) Emit(e Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(e)
		}
	}
}
