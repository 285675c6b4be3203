package raster

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/airbusgeo/godal"
)

// warpMemoryMB caps the gdalwarp working buffer so memory stays bounded by
// the chunk size instead of the raster size.
const warpMemoryMB = 256

var registerOnce sync.Once

// GDALBackend implements Backend on top of GDAL and PROJ.
type GDALBackend struct{}

// NewGDALBackend registers the GDAL drivers and returns the backend.
func NewGDALBackend() *GDALBackend {
	registerOnce.Do(godal.RegisterAll)
	return &GDALBackend{}
}

// HasDriver reports whether GDAL has a raster driver registered under name.
func (b *GDALBackend) HasDriver(name string) bool {
	_, ok := godal.RasterDriver(godal.DriverName(name))
	return ok
}

// gdalDataset is a source dataset together with its metadata snapshot
type gdalDataset struct {
	ds   *godal.Dataset
	meta Metadata
}

func (d *gdalDataset) Metadata() Metadata { return d.meta }
func (d *gdalDataset) Close() error       { return d.ds.Close() }

// Open opens path read-only and snapshots its metadata.
func (b *GDALBackend) Open(path string) (Dataset, error) {
	ds, err := godal.Open(path, godal.RasterOnly())
	if err != nil {
		return nil, err
	}

	st := ds.Structure()
	meta := Metadata{
		Path:      path,
		Width:     st.SizeX,
		Height:    st.SizeY,
		BandCount: st.NBands,
		DataType:  dataTypeName(st.DataType),
	}

	if gt, err := ds.GeoTransform(); err == nil {
		meta.Transform = GeoTransform(gt)
	}

	crs, err := crsFromWKT(ds.Projection())
	if err != nil {
		_ = ds.Close()
		return nil, err
	}
	meta.CRS = crs

	for _, band := range ds.Bands() {
		if nd, ok := band.NoData(); ok {
			v := nd
			meta.NoData = append(meta.NoData, &v)
		} else {
			meta.NoData = append(meta.NoData, nil)
		}
	}

	return &gdalDataset{ds: ds, meta: meta}, nil
}

// Create makes a tiled, compressed GeoTIFF with georeferencing set.
func (b *GDALBackend) Create(path string, spec OutputSpec) (Output, error) {
	dtype, err := gdalDataType(spec.DataType)
	if err != nil {
		return nil, err
	}
	sr, err := spatialRef(spec.CRS)
	if err != nil {
		return nil, err
	}
	defer sr.Close()

	ds, err := godal.Create(godal.DriverName(spec.Driver), path, spec.BandCount, dtype, spec.Width, spec.Height,
		godal.CreationOption("COMPRESS="+spec.Compression, "TILED=YES", "BIGTIFF=IF_SAFER"))
	if err != nil {
		return nil, err
	}

	if err := ds.SetGeoTransform([6]float64(spec.Transform)); err != nil {
		_ = ds.Close()
		return nil, fmt.Errorf("set geotransform: %w", err)
	}
	if err := ds.SetSpatialRef(sr); err != nil {
		_ = ds.Close()
		return nil, fmt.Errorf("set spatial reference: %w", err)
	}

	bands := ds.Bands()
	for i, nd := range spec.NoData {
		if nd == nil || i >= len(bands) {
			continue
		}
		if err := bands[i].SetNoData(*nd); err != nil {
			_ = ds.Close()
			return nil, fmt.Errorf("set nodata on band %d: %w", i+1, err)
		}
	}

	return &gdalOutput{ds: ds}, nil
}

type gdalOutput struct {
	ds *godal.Dataset
}

// WarpBand runs gdalwarp for a single source band into the matching
// output band. GDAL processes the band in chunks bounded by warpMemoryMB.
func (o *gdalOutput) WarpBand(src Dataset, band int, method ResamplingMethod) error {
	gsrc, ok := src.(*gdalDataset)
	if !ok {
		return fmt.Errorf("source %T was not opened by the GDAL backend", src)
	}
	n := strconv.Itoa(band)
	switches := []string{
		"-r", method.GDALName(),
		"-srcband", n,
		"-dstband", n,
		"-wm", strconv.Itoa(warpMemoryMB),
	}
	return o.ds.WarpInto([]*godal.Dataset{gsrc.ds}, switches)
}

func (o *gdalOutput) Close() error {
	return o.ds.Close()
}

type gdalTransformer struct {
	trn *godal.Transform
}

// NewTransformer builds a PROJ transformation from src to dst.
func (b *GDALBackend) NewTransformer(src, dst CRS) (Transformer, error) {
	srcSR, err := spatialRef(src)
	if err != nil {
		return nil, err
	}
	defer srcSR.Close()
	dstSR, err := spatialRef(dst)
	if err != nil {
		return nil, err
	}
	defer dstSR.Close()

	trn, err := godal.NewTransform(srcSR, dstSR)
	if err != nil {
		return nil, err
	}
	return &gdalTransformer{trn: trn}, nil
}

func (t *gdalTransformer) Transform(xs, ys []float64) ([]bool, error) {
	ok := make([]bool, len(xs))
	zs := make([]float64, len(xs))
	if err := t.trn.TransformEx(xs, ys, zs, ok); err != nil {
		// partial failures are reported through ok
		for _, v := range ok {
			if v {
				return ok, nil
			}
		}
		return ok, err
	}
	return ok, nil
}

func (t *gdalTransformer) Close() error {
	t.trn.Close()
	return nil
}

// crsFromWKT canonicalises a dataset projection: the authority code when
// GDAL can identify one, the WKT itself otherwise. An empty projection
// yields the zero CRS.
func crsFromWKT(wkt string) (CRS, error) {
	if strings.TrimSpace(wkt) == "" {
		return CRS{}, nil
	}
	sr, err := godal.NewSpatialRefFromWKT(wkt)
	if err != nil {
		return CRS{}, fmt.Errorf("parse projection: %w", err)
	}
	defer sr.Close()

	name, code := sr.AuthorityName(""), sr.AuthorityCode("")
	if name != "" && code != "" {
		return NewCRS(name + ":" + code), nil
	}
	return NewCRS(wkt), nil
}

// ParseCRS validates a user supplied definition (EPSG:xxxx, WKT, PROJ string)
// and returns it in the same canonical form datasets use.
func ParseCRS(def string) (CRS, error) {
	if strings.TrimSpace(def) == "" {
		return CRS{}, ErrMissingCRS
	}
	registerOnce.Do(godal.RegisterAll)
	sr, err := godal.NewSpatialRef(def)
	if err != nil {
		return CRS{}, fmt.Errorf("invalid CRS %q: %w", def, err)
	}
	defer sr.Close()

	name, code := sr.AuthorityName(""), sr.AuthorityCode("")
	if name != "" && code != "" {
		return NewCRS(name + ":" + code), nil
	}
	wkt, err := sr.WKT()
	if err != nil {
		return CRS{}, fmt.Errorf("export CRS %q: %w", def, err)
	}
	return NewCRS(wkt), nil
}

func spatialRef(c CRS) (*godal.SpatialRef, error) {
	if c.IsZero() {
		return nil, ErrMissingCRS
	}
	return godal.NewSpatialRef(c.String())
}

var dataTypes = map[DataType]godal.DataType{
	"Byte":     godal.Byte,
	"Int8":     godal.Int8,
	"UInt16":   godal.UInt16,
	"Int16":    godal.Int16,
	"UInt32":   godal.UInt32,
	"Int32":    godal.Int32,
	"Float32":  godal.Float32,
	"Float64":  godal.Float64,
	"CInt16":   godal.CInt16,
	"CInt32":   godal.CInt32,
	"CFloat32": godal.CFloat32,
	"CFloat64": godal.CFloat64,
}

func dataTypeName(dt godal.DataType) DataType {
	for name, v := range dataTypes {
		if v == dt {
			return name
		}
	}
	return "Unknown"
}

func gdalDataType(name DataType) (godal.DataType, error) {
	dt, ok := dataTypes[name]
	if !ok {
		return godal.Unknown, errors.New("unsupported pixel data type " + string(name))
	}
	return dt, nil
}
