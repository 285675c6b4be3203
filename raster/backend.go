package raster

// Backend is the geospatial library doing the actual I/O and geodesy.
// GDALBackend is the production implementation.
type Backend interface {
	// Open opens a raster read-only.
	Open(path string) (Dataset, error)
	// Create creates an output raster described by spec. The file exists on
	// disk once Create returns without error.
	Create(path string, spec OutputSpec) (Output, error)
	// NewTransformer builds a coordinate transformer between two CRSs.
	NewTransformer(src, dst CRS) (Transformer, error)
}

// Dataset is an opened source raster.
type Dataset interface {
	Metadata() Metadata
	Close() error
}

// Output is a created output raster receiving warped bands.
type Output interface {
	// WarpBand resamples band (1-based) of src into the same band of the output.
	WarpBand(src Dataset, band int, method ResamplingMethod) error
	// Close flushes and closes the file.
	Close() error
}

// Transformer converts coordinates in place. ok[i] is false for points
// that could not be transformed.
type Transformer interface {
	Transform(xs, ys []float64) (ok []bool, err error)
	Close() error
}

// OutputSpec is everything needed to create an output raster.
type OutputSpec struct {
	Driver      string
	Compression string
	Width       int
	Height      int
	BandCount   int
	DataType    DataType
	Transform   GeoTransform
	CRS         CRS
	NoData      []*float64
}

// Output file defaults
const (
	OutputDriver      = "GTiff"
	OutputCompression = "LZW"
)
