package cmd

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/lepinkainen/rasterproj/batch"
	"github.com/lepinkainen/rasterproj/raster"
	"github.com/lepinkainen/rasterproj/utils"
)

// Seams replaced by tests
var (
	newBackend = func() raster.Backend { return raster.NewGDALBackend() }
	parseCRS   = raster.ParseCRS
	isTerminal = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }

	out io.Writer = os.Stdout
)

// openBackend returns the raster backend after checking it can write GeoTIFFs
func openBackend() (raster.Backend, error) {
	backend := newBackend()
	if checker, ok := backend.(utils.DriverChecker); ok {
		if err := utils.ValidateGDAL(checker, raster.OutputDriver); err != nil {
			return nil, err
		}
	}
	return backend, nil
}

// TargetFlags select the target CRS, from a reference raster or given directly
type TargetFlags struct {
	Reference string `help:"Raster whose CRS is the target" type:"existingfile" xor:"target"`
	TargetCRS string `name:"target-crs" help:"Target CRS (EPSG:xxxx, WKT or PROJ string) instead of a reference raster" xor:"target"`
}

// Validate is called by kong after parsing
func (f *TargetFlags) Validate() error {
	if f.Reference == "" && f.TargetCRS == "" {
		return fmt.Errorf("either --reference or --target-crs is required")
	}
	return nil
}

// resolve returns the target CRS. A reference without a CRS is rejected.
func (f *TargetFlags) resolve(resolver *raster.Resolver) (raster.CRS, error) {
	if f.TargetCRS != "" {
		return parseCRS(f.TargetCRS)
	}
	return batch.ReferenceCRS(resolver, f.Reference)
}
