package ui

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/schollz/progressbar/v3"

	"github.com/lepinkainen/rasterproj/batch"
	"github.com/lepinkainen/rasterproj/raster"
)

// ConsoleSink prints styled status lines and keeps an overall progress bar
// underneath them. Used when stdout is not a terminal or the TUI is off.
type ConsoleSink struct {
	out     io.Writer
	bar     *progressbar.ProgressBar
	verbose bool
}

// NewConsoleSink writes to out. Band progress lines are printed only when verbose.
func NewConsoleSink(out io.Writer, verbose bool) *ConsoleSink {
	return &ConsoleSink{out: out, verbose: verbose}
}

// Emit implements batch.StatusSink
func (c *ConsoleSink) Emit(e batch.Event) {
	switch e.Kind {
	case batch.EventBatchStarted:
		fmt.Fprintln(c.out, ProcessingStyle.Render(e.Message))
		c.bar = progressbar.NewOptions(e.Total,
			progressbar.OptionSetWriter(c.out),
			progressbar.OptionSetDescription("Reprojecting"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionClearOnFinish(),
		)

	case batch.EventJobStarted:
		c.describe(fmt.Sprintf("[%d/%d] %s", e.Index, e.Total, filepath.Base(e.Job.Input)))

	case batch.EventJobProgress:
		c.describe(fmt.Sprintf("[%d/%d] %s band %d/%d", e.Index, e.Total, filepath.Base(e.Job.Input), e.Band, e.Bands))
		if c.verbose {
			c.println(MutedStyle.Render("  " + e.Message))
		}

	case batch.EventJobWarning:
		c.println(WarningStyle.Render("⚠ " + e.Message))

	case batch.EventJobFinished:
		c.println(c.resultLine(e))
		if c.bar != nil {
			_ = c.bar.Add(1)
		}

	case batch.EventSummary:
		if c.bar != nil {
			_ = c.bar.Finish()
			c.bar = nil
		}
		style := SuccessStyle
		if e.Summary != nil && e.Summary.Failed > 0 {
			style = ErrorStyle
		}
		fmt.Fprintln(c.out, style.Render(e.Message))

	default:
		c.println(LevelStyle(e.Level).Render(e.Message))
	}
}

func (c *ConsoleSink) resultLine(e batch.Event) string {
	if e.Result == nil {
		return LevelStyle(e.Level).Render(e.Message)
	}
	switch e.Result.Outcome {
	case raster.Success:
		return SuccessStyle.Render("✓ ") + e.Message
	case raster.Skipped:
		return InfoStyle.Render("⏭ ") + e.Message
	default:
		return ErrorStyle.Render("❌ " + e.Message)
	}
}

func (c *ConsoleSink) describe(s string) {
	if c.bar != nil {
		c.bar.Describe(s)
	}
}

// println prints a line above the progress bar
func (c *ConsoleSink) println(line string) {
	if c.bar != nil {
		_ = c.bar.Clear()
	}
	fmt.Fprintln(c.out, line)
	if c.bar != nil {
		_ = c.bar.RenderBlank()
	}
}
