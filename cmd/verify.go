package cmd

import (
	"fmt"

	"github.com/lepinkainen/rasterproj/raster"
	"github.com/lepinkainen/rasterproj/types"
	"github.com/lepinkainen/rasterproj/ui"
)

// VerifyCmd checks that reprojected outputs open cleanly and carry the target CRS.
type VerifyCmd struct {
	TargetFlags `embed:""`

	Files []string `arg:"" name:"outputs" help:"Reprojected files or directories containing them" type:"path"`
}

// Run reports every output and returns an error only when the target cannot be resolved.
func (cmd *VerifyCmd) Run(appCtx *types.AppContext) error {
	files, err := raster.ExpandOutputs(cmd.Files)
	if err != nil {
		return err
	}

	backend, err := openBackend()
	if err != nil {
		return err
	}
	resolver := raster.NewResolver(backend)

	target, err := cmd.resolve(resolver)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s\n", ui.InfoStyle.Render(fmt.Sprintf("Verifying %d files against %s...", len(files), shortCRS(target))))

	var verified, failed int
	for _, file := range files {
		meta, err := resolver.Resolve(file)
		if err != nil {
			fmt.Fprintf(out, "%s\n", ui.ErrorStyle.Render(fmt.Sprintf("❌ %s: %s: %v", file, raster.ErrorKind(err), err)))
			appCtx.Log().Debug().Err(err).Str("file", file).Msg("verify failed")
			failed++
			continue
		}

		if meta.CRS.Equal(target) {
			fmt.Fprintf(out, "%s\n", ui.SuccessStyle.Render(fmt.Sprintf("✅ %s (%dx%d, %d bands)", file, meta.Width, meta.Height, meta.BandCount)))
			verified++
		} else {
			fmt.Fprintf(out, "%s\n", ui.ErrorStyle.Render(fmt.Sprintf("❌ %s (expected: %s, got: %s)", file, shortCRS(target), shortCRS(meta.CRS))))
			failed++
		}
	}

	fmt.Fprintf(out, "\n%s\n", ui.InfoStyle.Render(fmt.Sprintf("✅ Verified: %d, ❌ Failed: %d", verified, failed)))
	return nil
}
