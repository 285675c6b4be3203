// Package rastertest provides an in-memory raster.Backend for tests.
//
// Source rasters are registered with AddRaster, which also writes a small
// placeholder file so the path exists on disk. Outputs are real files too:
// Create writes a stub, and a successful Close registers the output's
// metadata so it can be opened again like any other raster.
package rastertest

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/lepinkainen/rasterproj/raster"
)

// Common CRS values used in tests
var (
	WGS84       = raster.NewCRS("EPSG:4326")
	WebMercator = raster.NewCRS("EPSG:3857")
)

const earthRadius = 6378137.0

// Backend is a fake raster.Backend. The zero value is not usable; call New.
type Backend struct {
	mu      sync.Mutex
	rasters map[string]raster.Metadata

	// FailBand makes WarpBand fail for the given output path and band.
	FailBand map[string]int
	// PanicBand makes WarpBand panic for the given output path and band.
	PanicBand map[string]int
	// FailCreate makes Create fail for the given output path, after the stub was written.
	FailCreate map[string]error
	// FailTransformer makes NewTransformer fail for the given source CRS.
	FailTransformer map[raster.CRS]error

	created []string
	opened  []string
	specs   map[string]raster.OutputSpec
}

// New returns an empty fake backend
func New() *Backend {
	return &Backend{
		rasters:         make(map[string]raster.Metadata),
		FailBand:        make(map[string]int),
		PanicBand:       make(map[string]int),
		FailCreate:      make(map[string]error),
		FailTransformer: make(map[raster.CRS]error),
		specs:           make(map[string]raster.OutputSpec),
	}
}

// Meta returns a 100x80 single band Byte raster in crs, georeferenced with a
// transform suited to crs.
func Meta(crs raster.CRS, bands int) raster.Metadata {
	gt := raster.GeoTransform{10, 0.01, 0, 50, 0, -0.01}
	if crs.Equal(WebMercator) {
		gt = raster.GeoTransform{1113194.9, 1113.2, 0, 6446275.8, 0, -1113.2}
	}
	return raster.Metadata{
		Width:     100,
		Height:    80,
		BandCount: bands,
		DataType:  "Byte",
		Transform: gt,
		CRS:       crs,
		NoData:    make([]*float64, bands),
	}
}

// AddRaster registers meta under path and writes a placeholder file there.
func (b *Backend) AddRaster(path string, meta raster.Metadata) error {
	if err := os.WriteFile(path, []byte("fake raster"), 0o644); err != nil {
		return err
	}
	meta.Path = path
	b.mu.Lock()
	b.rasters[path] = meta
	b.mu.Unlock()
	return nil
}

// AddCorrupt writes a file at path that Open will refuse to parse.
func (b *Backend) AddCorrupt(path string) error {
	return os.WriteFile(path, []byte("definitely not a tiff"), 0o644)
}

// Created lists the output paths Create was called with, in order.
func (b *Backend) Created() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.created...)
}

// Spec returns the spec of the last Create call for path.
func (b *Backend) Spec(path string) (raster.OutputSpec, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	spec, ok := b.specs[path]
	return spec, ok
}

// Opened lists the paths Open was called with, in order.
func (b *Backend) Opened() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.opened...)
}

// HasDriver reports only the GeoTIFF driver as available
func (b *Backend) HasDriver(name string) bool {
	return name == raster.OutputDriver
}

type dataset struct {
	meta raster.Metadata
}

func (d *dataset) Metadata() raster.Metadata { return d.meta }
func (d *dataset) Close() error              { return nil }

func (b *Backend) Open(path string) (raster.Dataset, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opened = append(b.opened, path)

	if meta, ok := b.rasters[path]; ok {
		return &dataset{meta: meta}, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("'%s' not recognized as a supported file format", path)
}

func (b *Backend) Create(path string, spec raster.OutputSpec) (raster.Output, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.created = append(b.created, path)
	b.specs[path] = spec

	if err := os.WriteFile(path, []byte("partial"), 0o644); err != nil {
		return nil, err
	}
	if err, ok := b.FailCreate[path]; ok {
		return nil, err
	}
	return &output{backend: b, path: path, spec: spec}, nil
}

type output struct {
	backend *Backend
	path    string
	spec    raster.OutputSpec
	written int
}

func (o *output) WarpBand(src raster.Dataset, band int, method raster.ResamplingMethod) error {
	if !method.Valid() {
		return errors.New("invalid resampling method")
	}
	if band < 1 || band > src.Metadata().BandCount {
		return fmt.Errorf("source has no band %d", band)
	}
	o.backend.mu.Lock()
	failBand, fail := o.backend.FailBand[o.path]
	panicBand, panics := o.backend.PanicBand[o.path]
	o.backend.mu.Unlock()

	if panics && panicBand == band {
		panic(fmt.Sprintf("simulated crash on band %d", band))
	}
	if fail && failBand == band {
		return fmt.Errorf("simulated write failure on band %d", band)
	}
	o.written++
	return nil
}

func (o *output) Close() error {
	if o.written != o.spec.BandCount {
		return nil
	}
	if err := os.WriteFile(o.path, []byte("complete"), 0o644); err != nil {
		return err
	}
	o.backend.mu.Lock()
	o.backend.rasters[o.path] = raster.Metadata{
		Path:      o.path,
		Width:     o.spec.Width,
		Height:    o.spec.Height,
		BandCount: o.spec.BandCount,
		DataType:  o.spec.DataType,
		Transform: o.spec.Transform,
		CRS:       o.spec.CRS,
		NoData:    o.spec.NoData,
	}
	o.backend.mu.Unlock()
	return nil
}

func (b *Backend) NewTransformer(src, dst raster.CRS) (raster.Transformer, error) {
	b.mu.Lock()
	err, fail := b.FailTransformer[src]
	b.mu.Unlock()
	if fail {
		return nil, err
	}
	return &transformer{src: src, dst: dst}, nil
}

// transformer knows spherical mercator and identity, nothing else.
type transformer struct {
	src, dst raster.CRS
}

func (t *transformer) Transform(xs, ys []float64) ([]bool, error) {
	ok := make([]bool, len(xs))
	for i := range xs {
		ok[i] = true
		switch {
		case t.src.Equal(WebMercator) && t.dst.Equal(WGS84):
			xs[i] = xs[i] / earthRadius * 180 / math.Pi
			ys[i] = (2*math.Atan(math.Exp(ys[i]/earthRadius)) - math.Pi/2) * 180 / math.Pi
		case t.src.Equal(WGS84) && t.dst.Equal(WebMercator):
			if math.Abs(ys[i]) >= 90 {
				ok[i] = false
				continue
			}
			xs[i] = xs[i] * math.Pi / 180 * earthRadius
			ys[i] = math.Log(math.Tan(math.Pi/4+ys[i]*math.Pi/360)) * earthRadius
		}
	}
	return ok, nil
}

func (t *transformer) Close() error { return nil }
