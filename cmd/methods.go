package cmd

import (
	"fmt"

	"github.com/lepinkainen/rasterproj/raster"
	"github.com/lepinkainen/rasterproj/ui"
)

// MethodsCmd lists the resampling methods
type MethodsCmd struct{}

func (cmd *MethodsCmd) Run() error {
	fmt.Fprintln(out, ui.HeaderStyle.Render("Resampling methods"))
	for _, m := range raster.ResamplingMethods() {
		fmt.Fprintf(out, "   %-14s %s\n", m.String(), ui.InfoStyle.Render(m.Token()))
	}
	return nil
}
