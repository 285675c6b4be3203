// Package batch runs reprojection requests job by job and reports progress
// through a StatusSink.
package batch

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/lepinkainen/rasterproj/raster"
)

// Reprojector is the per-job engine the orchestrator drives.
type Reprojector interface {
	Reproject(job raster.Job, target raster.CRS, method raster.ResamplingMethod) raster.Result
}

// planner is implemented by reprojectors that can plan without writing (dry runs).
type planner interface {
	Plan(job raster.Job, target raster.CRS) raster.Result
}

// progressReporter is implemented by reprojectors reporting per-band progress.
type progressReporter interface {
	OnBandProgress(fn raster.BandProgressFunc)
}

// overwriteReporter is implemented by reprojectors announcing that an
// existing output is about to be replaced.
type overwriteReporter interface {
	OnOverwrite(fn raster.OverwriteFunc)
}

// Options tweak a run
type Options struct {
	// DryRun plans every job but writes nothing.
	DryRun bool
}

// Orchestrator processes the jobs of a request strictly in order, one at a time.
type Orchestrator struct {
	rp   Reprojector
	log  zerolog.Logger
	opts Options
}

// NewOrchestrator returns an orchestrator driving rp.
func NewOrchestrator(rp Reprojector, log zerolog.Logger, opts Options) *Orchestrator {
	return &Orchestrator{rp: rp, log: log, opts: opts}
}

// Start runs the request on a new worker goroutine and returns immediately.
// The returned channel delivers the summary once the last event was emitted.
func (o *Orchestrator) Start(req Request, sink StatusSink) <-chan Summary {
	done := make(chan Summary, 1)
	go func() {
		done <- o.Run(req, sink)
		close(done)
	}()
	return done
}

// Run processes every job of req and returns the summary. A failing job
// never stops the run. Exactly one EventSummary is emitted, as the last event.
// Every call gets its own run ID, also when the same request is run again.
func (o *Orchestrator) Run(req Request, sink StatusSink) Summary {
	r := &run{id: ulid.Make().String(), req: req, sink: sink, start: time.Now()}
	jobs := req.Jobs()

	reporter, hooked := o.rp.(progressReporter)
	hooked = hooked && !o.opts.DryRun
	if hooked {
		reporter.OnBandProgress(func(job raster.Job, band, total int) {
			r.emit(Event{
				Kind:    EventJobProgress,
				Level:   LevelInfo,
				Index:   r.current,
				Job:     job,
				Band:    band,
				Bands:   total,
				Message: fmt.Sprintf("band %d/%d", band, total),
			})
		})
	}

	overwrites, warns := o.rp.(overwriteReporter)
	warns = warns && !o.opts.DryRun
	if warns {
		overwrites.OnOverwrite(func(job raster.Job) {
			r.emit(Event{
				Kind:    EventJobWarning,
				Level:   LevelWarn,
				Index:   r.current,
				Job:     job,
				Message: fmt.Sprintf("Output exists, overwriting: %s", filepath.Base(job.Output)),
			})
		})
	}

	mode := "Reprojecting"
	if o.opts.DryRun {
		mode = "Planning (dry run)"
	}
	r.emit(Event{
		Kind:  EventBatchStarted,
		Level: LevelInfo,
		Message: fmt.Sprintf("%s %d files to %s using %s resampling",
			mode, len(jobs), req.Target(), req.Method()),
	})

	var summary Summary
	for i, job := range jobs {
		r.current = i + 1
		res := o.processJob(r, job)
		summary.Add(res.Outcome)
	}

	// unhook before the summary so a run started in response to it keeps its own hooks
	if hooked {
		reporter.OnBandProgress(nil)
	}
	if warns {
		overwrites.OnOverwrite(nil)
	}

	summary.Elapsed = time.Since(r.start)
	level := LevelInfo
	if summary.Failed > 0 {
		level = LevelWarn
	}
	r.current = 0
	r.emit(Event{
		Kind:    EventSummary,
		Level:   level,
		Message: fmt.Sprintf("Processed %d files: %d reprojected, %d skipped, %d failed", summary.Total, summary.Success, summary.Skipped, summary.Failed),
		Summary: &summary,
	})

	o.log.Debug().Str("run", r.id).Stringer("summary", summary).Dur("elapsed", summary.Elapsed).Msg("batch finished")
	return summary
}

func (o *Orchestrator) processJob(r *run, job raster.Job) raster.Result {
	name := filepath.Base(job.Input)
	r.emit(Event{
		Kind:    EventJobStarted,
		Level:   LevelInfo,
		Index:   r.current,
		Job:     job,
		Message: fmt.Sprintf("[%d/%d] %s", r.current, r.req.Len(), name),
	})

	res := o.execute(job, r.req)

	if res.CleanupError != nil {
		r.emit(Event{
			Kind:    EventJobWarning,
			Level:   LevelWarn,
			Index:   r.current,
			Job:     job,
			Message: fmt.Sprintf("Could not remove partial output %s: %v", filepath.Base(job.Output), res.CleanupError),
		})
	}

	ev := Event{
		Kind:   EventJobFinished,
		Index:  r.current,
		Job:    job,
		Result: &res,
	}
	switch res.Outcome {
	case raster.Success:
		ev.Level = LevelInfo
		verb := "Reprojected"
		if o.opts.DryRun {
			verb = "Would reproject"
		}
		ev.Message = fmt.Sprintf("%s %s -> %s (%dx%d)", verb, name, filepath.Base(job.Output), res.Grid.Width, res.Grid.Height)
	case raster.Skipped:
		ev.Level = LevelInfo
		ev.Message = fmt.Sprintf("Skipped %s: %s", name, res.SkipReason)
	default:
		ev.Level = LevelError
		ev.Message = fmt.Sprintf("Failed %s: %s: %v", name, raster.ErrorKind(res.Error), res.Error)
	}
	r.emit(ev)

	return res
}

// execute runs one job and turns any panic escaping the reprojector into a failure.
func (o *Orchestrator) execute(job raster.Job, req Request) (res raster.Result) {
	defer func() {
		if p := recover(); p != nil {
			o.log.Error().Str("input", job.Input).Interface("panic", p).Msg("reprojection panicked")
			res = raster.Result{Job: job, Outcome: raster.Failed, Error: fmt.Errorf("%w: %v", raster.ErrUnexpected, p)}
		}
	}()

	if o.opts.DryRun {
		if p, ok := o.rp.(planner); ok {
			return p.Plan(job, req.Target())
		}
		return raster.Result{Job: job, Outcome: raster.Failed, Error: fmt.Errorf("%w: dry run not supported", raster.ErrUnexpected)}
	}
	return o.rp.Reproject(job, req.Target(), req.Method())
}

// run is the per-invocation event state
type run struct {
	id      string
	req     Request
	sink    StatusSink
	start   time.Time
	seq     int64
	current int
}

func (r *run) emit(e Event) {
	r.seq++
	e.RunID = r.id
	e.Seq = r.seq
	e.Total = r.req.Len()
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	if r.sink != nil {
		r.sink.Emit(e)
	}
}
