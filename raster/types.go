package raster

import (
	"fmt"
	"math"
	"strings"
)

// CRS identifies a coordinate reference system by its canonical definition,
// an authority code such as "EPSG:4326" when one is known and WKT otherwise.
type CRS struct {
	def string
}

// NewCRS wraps a CRS definition. Surrounding whitespace is trimmed.
func NewCRS(def string) CRS {
	return CRS{def: strings.TrimSpace(def)}
}

// String returns the definition the CRS was built from
func (c CRS) String() string {
	return c.def
}

// IsZero reports whether no CRS is set
func (c CRS) IsZero() bool {
	return c.def == ""
}

// Equal is an exact comparison of the two definitions. No geodetic
// equivalence is attempted: "EPSG:4326" and its WKT are different CRSs here.
func (c CRS) Equal(other CRS) bool {
	return c.def == other.def
}

// GeoTransform is the six-parameter affine mapping from pixel/line to CRS
// coordinates, in GDAL order:
//
//	X = gt[0] + col*gt[1] + row*gt[2]
//	Y = gt[3] + col*gt[4] + row*gt[5]
type GeoTransform [6]float64

// Apply maps a pixel position to CRS coordinates
func (gt GeoTransform) Apply(col, row float64) (x, y float64) {
	x = gt[0] + col*gt[1] + row*gt[2]
	y = gt[3] + col*gt[4] + row*gt[5]
	return x, y
}

// Invertible reports whether the transform has a non-zero determinant.
func (gt GeoTransform) Invertible() bool {
	det := gt[1]*gt[5] - gt[2]*gt[4]
	return det != 0 && !math.IsNaN(det) && !math.IsInf(det, 0)
}

func (gt GeoTransform) String() string {
	return fmt.Sprintf("[%g, %g, %g, %g, %g, %g]", gt[0], gt[1], gt[2], gt[3], gt[4], gt[5])
}

// DataType is the pixel data type name as GDAL reports it (Byte, UInt16, Float32, ...).
type DataType string

// Size returns the number of bytes per pixel, 0 for types outputs cannot be written in.
func (d DataType) Size() int {
	switch d {
	case "Byte", "Int8":
		return 1
	case "UInt16", "Int16":
		return 2
	case "UInt32", "Int32", "Float32", "CInt16":
		return 4
	case "Float64", "CInt32", "CFloat32":
		return 8
	case "CFloat64":
		return 16
	default:
		return 0
	}
}

// Metadata is a read-only snapshot of a raster at plan time.
type Metadata struct {
	Path      string
	Width     int
	Height    int
	BandCount int
	DataType  DataType
	Transform GeoTransform
	CRS       CRS
	// NoData holds one entry per band; nil entries mean the band has no nodata value.
	NoData []*float64
}

// BandBytes is the size of a single band held in memory.
func (m Metadata) BandBytes() int64 {
	return int64(m.Width) * int64(m.Height) * int64(m.DataType.Size())
}

// Grid is an output raster grid: its transform and size in pixels.
type Grid struct {
	Transform GeoTransform
	Width     int
	Height    int
}
