package raster

import (
	"fmt"
	"strings"
)

// ResamplingMethod selects how pixel values are estimated on the new grid.
type ResamplingMethod int

const (
	Nearest ResamplingMethod = iota
	Bilinear
	Cubic
	CubicSpline
	Lanczos
	Average
	Mode
)

type resamplingInfo struct {
	display string // shown to users
	token   string // CLI and config value
	gdal    string // gdalwarp -r argument
}

var resamplingTable = [...]resamplingInfo{
	Nearest:     {"Nearest", "nearest", "near"},
	Bilinear:    {"Bilinear", "bilinear", "bilinear"},
	Cubic:       {"Cubic", "cubic", "cubic"},
	CubicSpline: {"Cubic Spline", "cubicspline", "cubicspline"},
	Lanczos:     {"Lanczos", "lanczos", "lanczos"},
	Average:     {"Average", "average", "average"},
	Mode:        {"Mode", "mode", "mode"},
}

// ResamplingMethods returns every method in declaration order.
func ResamplingMethods() []ResamplingMethod {
	methods := make([]ResamplingMethod, len(resamplingTable))
	for i := range resamplingTable {
		methods[i] = ResamplingMethod(i)
	}
	return methods
}

// Valid reports whether m is one of the declared methods
func (m ResamplingMethod) Valid() bool {
	return m >= 0 && int(m) < len(resamplingTable)
}

// String returns the display name, e.g. "Cubic Spline".
func (m ResamplingMethod) String() string {
	if !m.Valid() {
		return fmt.Sprintf("ResamplingMethod(%d)", int(m))
	}
	return resamplingTable[m].display
}

// Token returns the lowercase name used on the command line and in config files.
func (m ResamplingMethod) Token() string {
	if !m.Valid() {
		return ""
	}
	return resamplingTable[m].token
}

// GDALName returns the algorithm name understood by gdalwarp's -r switch.
func (m ResamplingMethod) GDALName() string {
	if !m.Valid() {
		return ""
	}
	return resamplingTable[m].gdal
}

// ParseResamplingMethod accepts a display name or token, case-insensitively.
func ParseResamplingMethod(s string) (ResamplingMethod, error) {
	s = strings.TrimSpace(s)
	for i, info := range resamplingTable {
		if strings.EqualFold(s, info.display) || strings.EqualFold(s, info.token) {
			return ResamplingMethod(i), nil
		}
	}
	return Nearest, fmt.Errorf("unknown resampling method %q", s)
}

// ResamplingTokens lists the CLI tokens, comma separated, for help texts and enums.
func ResamplingTokens() string {
	tokens := make([]string, len(resamplingTable))
	for i, info := range resamplingTable {
		tokens[i] = info.token
	}
	return strings.Join(tokens, ",")
}
