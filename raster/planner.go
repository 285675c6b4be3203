package raster

import (
	"fmt"
	"math"
)

// edgeSteps is the number of intervals sampled along each source edge.
const edgeSteps = 20

// Planner computes output grids the way GDAL's suggested warp output does.
type Planner struct{}

// NewPlanner returns a planner
func NewPlanner() *Planner {
	return &Planner{}
}

// Plan computes the smallest north-up grid in the transformer's target CRS
// that contains the whole source extent. The pixel size is square and keeps
// the number of pixels along the diagonal of the source.
func (p *Planner) Plan(src Metadata, tr Transformer) (Grid, error) {
	if src.Width <= 0 || src.Height <= 0 {
		return Grid{}, fmt.Errorf("%w: source size %dx%d", ErrTransformCompute, src.Width, src.Height)
	}
	if !src.Transform.Invertible() {
		return Grid{}, fmt.Errorf("%w: source geotransform %s is not invertible", ErrTransformCompute, src.Transform)
	}

	xs, ys := edgePoints(src)
	ok, err := tr.Transform(xs, ys)
	if err != nil {
		return Grid{}, fmt.Errorf("%w: %w", ErrTransformCompute, err)
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	good := 0
	for i := range xs {
		if !ok[i] || !finite(xs[i]) || !finite(ys[i]) {
			continue
		}
		good++
		minX = math.Min(minX, xs[i])
		maxX = math.Max(maxX, xs[i])
		minY = math.Min(minY, ys[i])
		maxY = math.Max(maxY, ys[i])
	}

	// GDAL gives up on the edge sampling when more than half the points fail
	if good == 0 || good*2 < len(xs) {
		return Grid{}, fmt.Errorf("%w: only %d of %d edge points could be transformed",
			ErrTransformCompute, good, len(xs))
	}

	spanX, spanY := maxX-minX, maxY-minY
	if spanX <= 0 || spanY <= 0 {
		return Grid{}, fmt.Errorf("%w: degenerate target bounds [%g %g %g %g]",
			ErrTransformCompute, minX, minY, maxX, maxY)
	}

	diagonal := math.Hypot(spanX, spanY)
	pixel := diagonal / math.Hypot(float64(src.Width), float64(src.Height))
	if !finite(pixel) || pixel <= 0 {
		return Grid{}, fmt.Errorf("%w: invalid pixel size %g", ErrTransformCompute, pixel)
	}

	width := int(spanX/pixel + 0.5)
	height := int(spanY/pixel + 0.5)
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	return Grid{
		Transform: GeoTransform{minX, pixel, 0, maxY, 0, -pixel},
		Width:     width,
		Height:    height,
	}, nil
}

// edgePoints samples edgeSteps+1 points along each of the four source edges
// and maps them to source CRS coordinates.
func edgePoints(src Metadata) (xs, ys []float64) {
	n := 4 * (edgeSteps + 1)
	xs = make([]float64, 0, n)
	ys = make([]float64, 0, n)
	w, h := float64(src.Width), float64(src.Height)

	add := func(col, row float64) {
		x, y := src.Transform.Apply(col, row)
		xs = append(xs, x)
		ys = append(ys, y)
	}

	for i := 0; i <= edgeSteps; i++ {
		f := float64(i) / edgeSteps
		add(f*w, 0)
		add(f*w, h)
		add(0, f*h)
		add(w, f*h)
	}
	return xs, ys
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
