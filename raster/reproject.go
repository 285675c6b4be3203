package raster

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// BandProgressFunc is called after each band is written.
type BandProgressFunc func(job Job, band, total int)

// OverwriteFunc is called right before an existing output is replaced.
type OverwriteFunc func(job Job)

// Reprojector warps source rasters onto a target CRS, one band at a time.
type Reprojector struct {
	backend   Backend
	resolver  *Resolver
	planner   *Planner
	log       zerolog.Logger
	progress  BandProgressFunc
	overwrite OverwriteFunc
}

// NewReprojector returns a reprojector using backend for all I/O.
func NewReprojector(backend Backend, log zerolog.Logger) *Reprojector {
	return &Reprojector{
		backend:  backend,
		resolver: NewResolver(backend),
		planner:  NewPlanner(),
		log:      log,
	}
}

// OnBandProgress registers fn to be called as bands complete. Not safe to
// call while a job is running.
func (r *Reprojector) OnBandProgress(fn BandProgressFunc) {
	r.progress = fn
}

// OnOverwrite registers fn to be called when a job is about to replace an
// existing output. Skipped and failed-before-write jobs never trigger it.
// Not safe to call while a job is running.
func (r *Reprojector) OnOverwrite(fn OverwriteFunc) {
	r.overwrite = fn
}

// Resolver exposes the resolver the reprojector reads sources with
func (r *Reprojector) Resolver() *Resolver {
	return r.resolver
}

// PlanGrid computes the output grid of src in target.
func (r *Reprojector) PlanGrid(src Metadata, target CRS) (Grid, error) {
	tr, err := r.backend.NewTransformer(src.CRS, target)
	if err != nil {
		return Grid{}, fmt.Errorf("%w: %s -> %s: %w", ErrTransformCompute, src.CRS, target, err)
	}
	defer tr.Close()

	return r.planner.Plan(src, tr)
}

// Plan resolves the job's source and applies the skip rule and planner
// without writing anything. The returned result is Success when the job
// would be reprojected.
func (r *Reprojector) Plan(job Job, target CRS) Result {
	src, err := r.resolver.Resolve(job.Input)
	if err != nil {
		return failedResult(job, err)
	}
	if src.CRS.Equal(target) {
		return skippedResult(job, src, SkipReasonSameCRS)
	}
	grid, err := r.PlanGrid(src, target)
	if err == nil {
		err = writable(src)
	}
	if err != nil {
		res := failedResult(job, err)
		res.Source = src
		return res
	}
	return successResult(job, src, grid)
}

// writable rejects sources whose pixels no output could hold.
func writable(src Metadata) error {
	if src.DataType.Size() == 0 {
		return fmt.Errorf("%w: unsupported pixel data type %q", ErrWrite, src.DataType)
	}
	return nil
}

// Reproject runs one job. It never returns an output file in a partial
// state: once the output was created, any failure removes it again. An
// output that existed before the job is only touched once everything up to
// Create has succeeded.
func (r *Reprojector) Reproject(job Job, target CRS, method ResamplingMethod) (result Result) {
	if !method.Valid() {
		return failedResult(job, fmt.Errorf("%w: invalid resampling method %d", ErrUnexpected, int(method)))
	}

	src, meta, err := r.resolver.open(job.Input)
	if err != nil {
		return failedResult(job, err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			r.log.Debug().Err(cerr).Str("path", job.Input).Msg("closing source")
		}
	}()

	if meta.CRS.Equal(target) {
		return skippedResult(job, meta, SkipReasonSameCRS)
	}

	grid, err := r.PlanGrid(meta, target)
	if err != nil {
		res := failedResult(job, err)
		res.Source = meta
		return res
	}

	if err := writable(meta); err != nil {
		res := failedResult(job, err)
		res.Source = meta
		return res
	}

	spec := OutputSpec{
		Driver:      OutputDriver,
		Compression: OutputCompression,
		Width:       grid.Width,
		Height:      grid.Height,
		BandCount:   meta.BandCount,
		DataType:    meta.DataType,
		Transform:   grid.Transform,
		CRS:         target,
		NoData:      meta.NoData,
	}

	_, statErr := os.Stat(job.Output)
	existed := statErr == nil
	if existed && r.overwrite != nil {
		r.overwrite(job)
	}

	out, err := r.backend.Create(job.Output, spec)
	if err != nil {
		res := failedResult(job, fmt.Errorf("%w: create %s: %w", ErrWrite, job.Output, err))
		res.Source = meta
		// A driver may leave a stub behind even when creation fails. Only a
		// stub this call produced is removed.
		if !existed {
			res.CleanupError = r.removePartial(job.Output)
		}
		return res
	}

	// From here the output exists and must not survive a failure.
	closed := false
	defer func() {
		if p := recover(); p != nil {
			result = failedResult(job, fmt.Errorf("%w: %v", ErrUnexpected, p))
			result.Source = meta
		}
		if result.Outcome != Failed {
			return
		}
		if !closed {
			_ = out.Close()
		}
		result.CleanupError = r.removePartial(job.Output)
	}()

	r.log.Debug().
		Str("input", job.Input).
		Str("output", job.Output).
		Int("width", grid.Width).
		Int("height", grid.Height).
		Int("bands", meta.BandCount).
		Int64("band_bytes", meta.BandBytes()).
		Str("resampling", method.GDALName()).
		Msg("warping bands")

	for band := 1; band <= meta.BandCount; band++ {
		if err := out.WarpBand(src, band, method); err != nil {
			res := failedResult(job, fmt.Errorf("%w: band %d of %s: %w", ErrWrite, band, job.Output, err))
			res.Source = meta
			return res
		}
		if r.progress != nil {
			r.progress(job, band, meta.BandCount)
		}
	}

	closed = true
	if err := out.Close(); err != nil {
		res := failedResult(job, fmt.Errorf("%w: close %s: %w", ErrWrite, job.Output, err))
		res.Source = meta
		return res
	}

	return successResult(job, meta, grid)
}

// removePartial deletes a partially written output. A missing file is not an error.
func (r *Reprojector) removePartial(path string) error {
	err := os.Remove(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	r.log.Warn().Err(err).Str("path", path).Msg("could not remove partial output")
	return err
}
