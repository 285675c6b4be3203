package raster

import (
	"fmt"
	"path/filepath"
	"strings"
)

// OutputSuffix is appended to the input basename to name outputs.
const OutputSuffix = "_reprojected"

// Job is one input raster and the output it produces.
type Job struct {
	Input  string
	Output string
}

// OutputPath returns <outputDir>/<basename>_reprojected<ext> for input.
func OutputPath(input, outputDir string) string {
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	return filepath.Join(outputDir, strings.TrimSuffix(base, ext)+OutputSuffix+ext)
}

// NewJob builds the job for input writing into outputDir.
func NewJob(input, outputDir string) (Job, error) {
	output := OutputPath(input, outputDir)
	if samePath(input, output) {
		return Job{}, fmt.Errorf("output path %s equals input path", output)
	}
	return Job{Input: input, Output: output}, nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// Outcome is the classification of a finished job.
type Outcome int

const (
	Success Outcome = iota
	Skipped
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// SkipReasonSameCRS is the skip reason when the source already has the target CRS.
const SkipReasonSameCRS = "CRS already matches"

// Result holds the result of reprojecting one job
type Result struct {
	Job        Job
	Outcome    Outcome
	SkipReason string
	Error      error

	// Filled in when the job got as far as planning.
	Source Metadata
	Grid   Grid

	// CleanupError is set when a partial output could not be removed.
	CleanupError error
}

func successResult(job Job, src Metadata, grid Grid) Result {
	return Result{Job: job, Outcome: Success, Source: src, Grid: grid}
}

func skippedResult(job Job, src Metadata, reason string) Result {
	return Result{Job: job, Outcome: Skipped, SkipReason: reason, Source: src}
}

func failedResult(job Job, err error) Result {
	return Result{Job: job, Outcome: Failed, Error: err}
}
