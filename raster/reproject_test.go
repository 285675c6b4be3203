package raster_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/rasterproj/raster"
	"github.com/lepinkainen/rasterproj/raster/rastertest"
)

type fixture struct {
	backend *rastertest.Backend
	rp      *raster.Reprojector
	inDir   string
	outDir  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := rastertest.New()
	return &fixture{
		backend: backend,
		rp:      raster.NewReprojector(backend, zerolog.Nop()),
		inDir:   t.TempDir(),
		outDir:  t.TempDir(),
	}
}

func (f *fixture) add(t *testing.T, name string, meta raster.Metadata) raster.Job {
	t.Helper()
	path := filepath.Join(f.inDir, name)
	require.NoError(t, f.backend.AddRaster(path, meta))
	job, err := raster.NewJob(path, f.outDir)
	require.NoError(t, err)
	return job
}

func TestReprojectDifferentCRS(t *testing.T) {
	f := newFixture(t)
	job := f.add(t, "a.tif", rastertest.Meta(rastertest.WebMercator, 3))

	res := f.rp.Reproject(job, rastertest.WGS84, raster.Bilinear)
	require.Equal(t, raster.Success, res.Outcome, "error: %v", res.Error)
	assert.NoError(t, res.Error)
	assert.Equal(t, filepath.Join(f.outDir, "a_reprojected.tif"), job.Output)
	assert.FileExists(t, job.Output)

	out, err := f.rp.Resolver().Resolve(job.Output)
	require.NoError(t, err)
	assert.True(t, out.CRS.Equal(rastertest.WGS84))
	assert.Equal(t, 3, out.BandCount)
	assert.Equal(t, res.Grid.Width, out.Width)
	assert.Equal(t, res.Grid.Height, out.Height)
	assert.Equal(t, res.Grid.Transform, out.Transform)
}

func TestReprojectSameCRSIsSkipped(t *testing.T) {
	f := newFixture(t)
	job := f.add(t, "b.tif", rastertest.Meta(rastertest.WGS84, 1))

	res := f.rp.Reproject(job, rastertest.WGS84, raster.Nearest)
	assert.Equal(t, raster.Skipped, res.Outcome)
	assert.Equal(t, raster.SkipReasonSameCRS, res.SkipReason)
	assert.NoError(t, res.Error)
	assert.NoFileExists(t, job.Output)
	assert.Empty(t, f.backend.Created())
}

func TestReprojectSkipLeavesExistingOutputAlone(t *testing.T) {
	f := newFixture(t)
	job := f.add(t, "b.tif", rastertest.Meta(rastertest.WGS84, 1))
	require.NoError(t, os.WriteFile(job.Output, []byte("keep me"), 0o644))

	res := f.rp.Reproject(job, rastertest.WGS84, raster.Nearest)
	require.Equal(t, raster.Skipped, res.Outcome)

	data, err := os.ReadFile(job.Output)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(data))
}

func TestReprojectBandFailureRemovesOutput(t *testing.T) {
	f := newFixture(t)
	job := f.add(t, "a.tif", rastertest.Meta(rastertest.WebMercator, 3))
	f.backend.FailBand[job.Output] = 2

	res := f.rp.Reproject(job, rastertest.WGS84, raster.Cubic)
	assert.Equal(t, raster.Failed, res.Outcome)
	assert.ErrorIs(t, res.Error, raster.ErrWrite)
	assert.Equal(t, "WriteError", raster.ErrorKind(res.Error))
	assert.NoError(t, res.CleanupError)
	assert.Equal(t, []string{job.Output}, f.backend.Created())
	assert.NoFileExists(t, job.Output)
}

func TestReprojectPanicRemovesOutput(t *testing.T) {
	f := newFixture(t)
	job := f.add(t, "a.tif", rastertest.Meta(rastertest.WebMercator, 2))
	f.backend.PanicBand[job.Output] = 1

	res := f.rp.Reproject(job, rastertest.WGS84, raster.Lanczos)
	assert.Equal(t, raster.Failed, res.Outcome)
	assert.ErrorIs(t, res.Error, raster.ErrUnexpected)
	assert.NoFileExists(t, job.Output)
}

func TestReprojectCreateFailureRemovesStub(t *testing.T) {
	f := newFixture(t)
	job := f.add(t, "a.tif", rastertest.Meta(rastertest.WebMercator, 1))
	f.backend.FailCreate[job.Output] = errors.New("disk full")

	res := f.rp.Reproject(job, rastertest.WGS84, raster.Nearest)
	assert.Equal(t, raster.Failed, res.Outcome)
	assert.ErrorIs(t, res.Error, raster.ErrWrite)
	assert.NoFileExists(t, job.Output)
}

func TestReprojectCreateFailureKeepsExistingOutput(t *testing.T) {
	f := newFixture(t)
	job := f.add(t, "a.tif", rastertest.Meta(rastertest.WebMercator, 1))
	require.NoError(t, os.WriteFile(job.Output, []byte("previous run"), 0o644))
	f.backend.FailCreate[job.Output] = errors.New("bad creation option")

	res := f.rp.Reproject(job, rastertest.WGS84, raster.Nearest)
	assert.Equal(t, raster.Failed, res.Outcome)
	assert.ErrorIs(t, res.Error, raster.ErrWrite)
	assert.NoError(t, res.CleanupError)
	assert.FileExists(t, job.Output)
}

func TestReprojectUnsupportedDataTypeKeepsExistingOutput(t *testing.T) {
	f := newFixture(t)
	meta := rastertest.Meta(rastertest.WebMercator, 1)
	meta.DataType = "Unknown"
	job := f.add(t, "odd.tif", meta)
	require.NoError(t, os.WriteFile(job.Output, []byte("previous run"), 0o644))

	overwrites := 0
	f.rp.OnOverwrite(func(raster.Job) { overwrites++ })

	res := f.rp.Reproject(job, rastertest.WGS84, raster.Nearest)
	assert.Equal(t, raster.Failed, res.Outcome)
	assert.ErrorIs(t, res.Error, raster.ErrWrite)
	assert.Contains(t, res.Error.Error(), "Unknown")
	assert.Empty(t, f.backend.Created())
	assert.Zero(t, overwrites)

	data, err := os.ReadFile(job.Output)
	require.NoError(t, err)
	assert.Equal(t, "previous run", string(data))

	// dry runs report the same failure
	plan := f.rp.Plan(job, rastertest.WGS84)
	assert.Equal(t, raster.Failed, plan.Outcome)
	assert.ErrorIs(t, plan.Error, raster.ErrWrite)
}

func TestReprojectOutputSpec(t *testing.T) {
	f := newFixture(t)
	nodata := -9999.0
	meta := rastertest.Meta(rastertest.WebMercator, 2)
	meta.DataType = "Int16"
	meta.NoData = []*float64{nil, &nodata}
	job := f.add(t, "dem.tif", meta)

	res := f.rp.Reproject(job, rastertest.WGS84, raster.Bilinear)
	require.Equal(t, raster.Success, res.Outcome, "error: %v", res.Error)

	spec, ok := f.backend.Spec(job.Output)
	require.True(t, ok)
	assert.Equal(t, "GTiff", spec.Driver)
	assert.Equal(t, "LZW", spec.Compression)
	assert.Equal(t, raster.DataType("Int16"), spec.DataType)
	assert.Equal(t, 2, spec.BandCount)
	assert.True(t, spec.CRS.Equal(rastertest.WGS84))
	assert.Equal(t, res.Grid.Width, spec.Width)
	assert.Equal(t, res.Grid.Height, spec.Height)
	assert.Equal(t, res.Grid.Transform, spec.Transform)
	require.Len(t, spec.NoData, 2)
	assert.Nil(t, spec.NoData[0])
	require.NotNil(t, spec.NoData[1])
	assert.Equal(t, nodata, *spec.NoData[1])
}

func TestReprojectOverwriteHook(t *testing.T) {
	f := newFixture(t)
	fresh := f.add(t, "a.tif", rastertest.Meta(rastertest.WebMercator, 1))
	existing := f.add(t, "b.tif", rastertest.Meta(rastertest.WebMercator, 1))
	same := f.add(t, "c.tif", rastertest.Meta(rastertest.WGS84, 1))
	require.NoError(t, os.WriteFile(existing.Output, []byte("old"), 0o644))
	require.NoError(t, os.WriteFile(same.Output, []byte("old"), 0o644))

	var hooked []string
	f.rp.OnOverwrite(func(j raster.Job) { hooked = append(hooked, j.Input) })

	for _, job := range []raster.Job{fresh, existing, same} {
		f.rp.Reproject(job, rastertest.WGS84, raster.Nearest)
	}
	assert.Equal(t, []string{existing.Input}, hooked)
}

func TestReprojectUnreadableSource(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(f.inDir, "corrupt.tif")
	require.NoError(t, f.backend.AddCorrupt(path))
	job, err := raster.NewJob(path, f.outDir)
	require.NoError(t, err)

	res := f.rp.Reproject(job, rastertest.WGS84, raster.Nearest)
	assert.Equal(t, raster.Failed, res.Outcome)
	assert.ErrorIs(t, res.Error, raster.ErrRead)
	assert.Empty(t, f.backend.Created())
	assert.NoFileExists(t, job.Output)
}

func TestReprojectSourceWithoutCRS(t *testing.T) {
	f := newFixture(t)
	job := f.add(t, "nocrs.tif", rastertest.Meta(raster.CRS{}, 1))

	res := f.rp.Reproject(job, rastertest.WGS84, raster.Nearest)
	assert.Equal(t, raster.Failed, res.Outcome)
	assert.ErrorIs(t, res.Error, raster.ErrMissingCRS)
	assert.Equal(t, "MissingCrsError", raster.ErrorKind(res.Error))
	assert.NoFileExists(t, job.Output)
}

func TestReprojectTransformerFailure(t *testing.T) {
	f := newFixture(t)
	job := f.add(t, "a.tif", rastertest.Meta(rastertest.WebMercator, 1))
	f.backend.FailTransformer[rastertest.WebMercator] = errors.New("no transformation found")

	res := f.rp.Reproject(job, rastertest.WGS84, raster.Nearest)
	assert.Equal(t, raster.Failed, res.Outcome)
	assert.ErrorIs(t, res.Error, raster.ErrTransformCompute)
	assert.Empty(t, f.backend.Created())
}

func TestReprojectReportsBandProgress(t *testing.T) {
	f := newFixture(t)
	job := f.add(t, "a.tif", rastertest.Meta(rastertest.WebMercator, 4))

	var bands []int
	f.rp.OnBandProgress(func(j raster.Job, band, total int) {
		assert.Equal(t, job, j)
		assert.Equal(t, 4, total)
		bands = append(bands, band)
	})

	res := f.rp.Reproject(job, rastertest.WGS84, raster.Average)
	require.Equal(t, raster.Success, res.Outcome)
	assert.Equal(t, []int{1, 2, 3, 4}, bands)
}

func TestPlanDoesNotWrite(t *testing.T) {
	f := newFixture(t)
	a := f.add(t, "a.tif", rastertest.Meta(rastertest.WebMercator, 1))
	b := f.add(t, "b.tif", rastertest.Meta(rastertest.WGS84, 1))

	resA := f.rp.Plan(a, rastertest.WGS84)
	assert.Equal(t, raster.Success, resA.Outcome)
	assert.Positive(t, resA.Grid.Width)

	resB := f.rp.Plan(b, rastertest.WGS84)
	assert.Equal(t, raster.Skipped, resB.Outcome)

	assert.Empty(t, f.backend.Created())
	assert.NoFileExists(t, a.Output)
}

func TestResolverErrors(t *testing.T) {
	f := newFixture(t)
	resolver := raster.NewResolver(f.backend)

	_, err := resolver.Resolve(filepath.Join(f.inDir, "missing.tif"))
	assert.ErrorIs(t, err, raster.ErrRead)

	f.add(t, "nocrs.tif", rastertest.Meta(raster.CRS{}, 1))
	_, err = resolver.ResolveCRS(filepath.Join(f.inDir, "nocrs.tif"))
	assert.ErrorIs(t, err, raster.ErrMissingCRS)

	f.add(t, "ref.tif", rastertest.Meta(rastertest.WGS84, 1))
	crs, err := resolver.ResolveCRS(filepath.Join(f.inDir, "ref.tif"))
	require.NoError(t, err)
	assert.Equal(t, "EPSG:4326", crs.String())
}
