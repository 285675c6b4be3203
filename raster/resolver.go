package raster

import (
	"fmt"
)

// Resolver reads a raster's CRS and metadata.
type Resolver struct {
	backend Backend
}

// NewResolver returns a resolver reading through backend
func NewResolver(backend Backend) *Resolver {
	return &Resolver{backend: backend}
}

// Resolve opens path read-only and returns its metadata. It fails with
// ErrRead when the file cannot be opened and ErrMissingCRS when it carries
// no coordinate reference system.
func (r *Resolver) Resolve(path string) (Metadata, error) {
	ds, meta, err := r.open(path)
	if err != nil {
		return Metadata{}, err
	}
	_ = ds.Close()
	return meta, nil
}

// ResolveCRS returns only the CRS of path.
func (r *Resolver) ResolveCRS(path string) (CRS, error) {
	meta, err := r.Resolve(path)
	if err != nil {
		return CRS{}, err
	}
	return meta.CRS, nil
}

// open returns the dataset still open so the reprojector can read bands from it.
func (r *Resolver) open(path string) (Dataset, Metadata, error) {
	ds, err := r.backend.Open(path)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("%w: %s: %w", ErrRead, path, err)
	}

	meta := ds.Metadata()
	if meta.Path == "" {
		meta.Path = path
	}
	if meta.CRS.IsZero() {
		_ = ds.Close()
		return nil, Metadata{}, fmt.Errorf("%w: %s", ErrMissingCRS, path)
	}
	if meta.Width <= 0 || meta.Height <= 0 || meta.BandCount <= 0 {
		_ = ds.Close()
		return nil, Metadata{}, fmt.Errorf("%w: %s: empty raster (%dx%d, %d bands)",
			ErrRead, path, meta.Width, meta.Height, meta.BandCount)
	}

	return ds, meta, nil
}
