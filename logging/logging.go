// Package logging builds the zerolog logger shared by every command.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Options configure New
type Options struct {
	// Level is a zerolog level name. Unknown names fall back to info.
	Level string
	// File, when set, receives JSON logs in addition to the console.
	File string
	// Console defaults to stderr. Set it to io.Discard while the TUI owns the terminal.
	Console io.Writer
	// NoColor disables ANSI colors on the console writer.
	NoColor bool
}

// Logger wraps a zerolog.Logger and owns the log file handle, if any.
type Logger struct {
	zerolog.Logger
	file *os.File
}

// New returns a logger writing human readable lines to the console and,
// optionally, JSON lines to a log file.
func New(opts Options) (*Logger, error) {
	lvl, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		lvl = zerolog.InfoLevel
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: time.TimeOnly,
		NoColor:    opts.NoColor,
	}}

	l := &Logger{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, err
		}
		l.file = f
		writers = append(writers, f)
	}

	l.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().
		Timestamp().
		Logger()
	return l, nil
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// FileOnly returns a logger that writes to the log file alone, for use while
// the TUI owns the terminal. Without a log file it discards everything.
func (l *Logger) FileOnly() zerolog.Logger {
	if l == nil || l.file == nil {
		return zerolog.Nop()
	}
	return zerolog.New(l.file).Level(l.GetLevel()).With().Timestamp().Logger()
}

// Close releases the log file. Safe to call more than once.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
