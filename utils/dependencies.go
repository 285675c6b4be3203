package utils

import (
	"fmt"
	"runtime"
)

// DriverChecker reports whether a GDAL raster driver is available
type DriverChecker interface {
	HasDriver(name string) bool
}

// ValidateGDAL checks that the linked GDAL build can write the output format
func ValidateGDAL(gdal DriverChecker, driver string) error {
	if gdal == nil || !gdal.HasDriver(driver) {
		return fmt.Errorf("GDAL %s driver not available. %s", driver, getInstallationInstructions())
	}
	return nil
}

// getInstallationInstructions returns platform-specific installation instructions
func getInstallationInstructions() string {
	switch runtime.GOOS {
	case "darwin":
		return "Install with: brew install gdal"
	case "linux":
		return "Install with: apt-get install libgdal-dev (Ubuntu/Debian) or dnf install gdal-devel (Fedora/RHEL)"
	case "windows":
		return "Install GDAL via OSGeo4W from https://trac.osgeo.org/osgeo4w/ and add it to PATH"
	default:
		return "See https://gdal.org/download.html"
	}
}
