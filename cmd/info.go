package cmd

import (
	"fmt"
	"strings"

	"github.com/lepinkainen/rasterproj/raster"
	"github.com/lepinkainen/rasterproj/types"
	"github.com/lepinkainen/rasterproj/ui"
)

// maxCRSWidth truncates WKT definitions in listings
const maxCRSWidth = 60

// InfoCmd prints the georeferencing of rasters
type InfoCmd struct {
	Files []string `arg:"" name:"files" help:"Rasters to describe" type:"existingfile"`
}

func (cmd *InfoCmd) Run(appCtx *types.AppContext) error {
	backend, err := openBackend()
	if err != nil {
		return err
	}
	resolver := raster.NewResolver(backend)

	var failed int
	for _, file := range cmd.Files {
		meta, err := resolver.Resolve(file)
		if err != nil {
			fmt.Fprintf(out, "%s\n\n", ui.ErrorStyle.Render(fmt.Sprintf("❌ %s: %v", file, err)))
			failed++
			continue
		}
		fmt.Fprintln(out, describe(meta))
	}

	appCtx.Log().Debug().Int("files", len(cmd.Files)).Int("failed", failed).Msg("info finished")
	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be read", failed, len(cmd.Files))
	}
	return nil
}

func describe(meta raster.Metadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", ui.ProcessingStyle.Render(meta.Path))
	fmt.Fprintf(&b, "   Size:      %d x %d\n", meta.Width, meta.Height)
	fmt.Fprintf(&b, "   Bands:     %d (%s)\n", meta.BandCount, meta.DataType)
	if n := meta.BandBytes(); n > 0 {
		fmt.Fprintf(&b, "   Band size: %d bytes\n", n)
	} else {
		fmt.Fprintf(&b, "   Band size: unknown, %s outputs cannot be written\n", meta.DataType)
	}
	fmt.Fprintf(&b, "   CRS:       %s\n", shortCRS(meta.CRS))
	fmt.Fprintf(&b, "   Transform: %s\n", meta.Transform)

	var nodata []string
	for i, nd := range meta.NoData {
		if nd != nil {
			nodata = append(nodata, fmt.Sprintf("band %d=%g", i+1, *nd))
		}
	}
	if len(nodata) > 0 {
		fmt.Fprintf(&b, "   NoData:    %s\n", strings.Join(nodata, ", "))
	}
	return b.String()
}

// shortCRS keeps authority codes intact and cuts long WKT
func shortCRS(c raster.CRS) string {
	if c.IsZero() {
		return "(none)"
	}
	s := strings.Join(strings.Fields(c.String()), " ")
	if len(s) > maxCRSWidth {
		return s[:maxCRSWidth-3] + "..."
	}
	return s
}
