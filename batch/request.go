package batch

import (
	"errors"
	"fmt"
	"os"

	"github.com/lepinkainen/rasterproj/raster"
)

var (
	// ErrNoJobs is returned when a request would contain no input files.
	ErrNoJobs = errors.New("no input files")
	// ErrDuplicateOutput is returned when two inputs would write the same output file.
	ErrDuplicateOutput = errors.New("inputs share an output path")
)

// Request is everything a run needs. It is built once before the run and
// never changes afterwards.
type Request struct {
	jobs      []raster.Job
	outputDir string
	target    raster.CRS
	method    raster.ResamplingMethod
}

// NewRequest validates the inputs and builds one job per input, in order.
// outputDir must already exist. Every output path belongs to exactly one
// job, so inputs with the same base name in different directories are rejected.
func NewRequest(inputs []string, outputDir string, target raster.CRS, method raster.ResamplingMethod) (Request, error) {
	if target.IsZero() {
		return Request{}, fmt.Errorf("target: %w", raster.ErrMissingCRS)
	}
	if !method.Valid() {
		return Request{}, fmt.Errorf("invalid resampling method %d", int(method))
	}
	if len(inputs) == 0 {
		return Request{}, ErrNoJobs
	}

	fi, err := os.Stat(outputDir)
	if err != nil {
		return Request{}, fmt.Errorf("output directory: %w", err)
	}
	if !fi.IsDir() {
		return Request{}, fmt.Errorf("output directory %s is not a directory", outputDir)
	}

	jobs := make([]raster.Job, 0, len(inputs))
	owners := make(map[string]string, len(inputs))
	for _, input := range inputs {
		job, err := raster.NewJob(input, outputDir)
		if err != nil {
			return Request{}, err
		}
		if prev, ok := owners[job.Output]; ok {
			return Request{}, fmt.Errorf("%w: %s and %s both map to %s", ErrDuplicateOutput, prev, input, job.Output)
		}
		owners[job.Output] = input
		jobs = append(jobs, job)
	}

	return Request{
		jobs:      jobs,
		outputDir: outputDir,
		target:    target,
		method:    method,
	}, nil
}

// ReferenceCRS reads the target CRS from a reference raster. A reference
// without a CRS rejects the whole run.
func ReferenceCRS(resolver *raster.Resolver, path string) (raster.CRS, error) {
	crs, err := resolver.ResolveCRS(path)
	if err != nil {
		return raster.CRS{}, fmt.Errorf("reference %s: %w", path, err)
	}
	return crs, nil
}

// Jobs returns a copy of the jobs in processing order.
func (r Request) Jobs() []raster.Job { return append([]raster.Job(nil), r.jobs...) }

// Len is the number of jobs
func (r Request) Len() int { return len(r.jobs) }

// OutputDir is where outputs are written
func (r Request) OutputDir() string { return r.outputDir }

// Target is the CRS every job is reprojected to
func (r Request) Target() raster.CRS { return r.target }

// Method is the resampling method used for every band
func (r Request) Method() raster.ResamplingMethod { return r.method }
