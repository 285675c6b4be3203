package raster

import "errors"

// Error classes for reprojection failures. Concrete errors wrap one of these
// together with their cause, so callers classify with errors.Is.
var (
	ErrMissingCRS       = errors.New("raster has no coordinate reference system")
	ErrRead             = errors.New("cannot read raster")
	ErrTransformCompute = errors.New("cannot compute target transform")
	ErrWrite            = errors.New("cannot write output raster")
	ErrUnexpected       = errors.New("unexpected geospatial library failure")
)

// ErrorKind names the class of err for status messages.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingCRS):
		return "MissingCrsError"
	case errors.Is(err, ErrRead):
		return "ReadError"
	case errors.Is(err, ErrTransformCompute):
		return "TransformComputeError"
	case errors.Is(err, ErrWrite):
		return "WriteError"
	default:
		return "UnexpectedError"
	}
}
