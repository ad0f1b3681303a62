package main

import (
	"fmt"

	"github.com/MasterOfBinary/geobatch/crs"
	"github.com/MasterOfBinary/geobatch/raster"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func (c *cli) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info RASTER",
		Short: "Print the bounds, size and CRS of a raster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := raster.Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer src.Close()

			p := src.Profile()
			b := p.Bounds()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "crs:        %s\n", p.CRS)
			fmt.Fprintf(out, "bounds:     %g %g %g %g\n", b.XMin, b.YMin, b.XMax, b.YMax)
			if fn, err := crs.Transformer(p.CRS, crs.WGS84); err == nil {
				x0, y0, x1, y1 := crs.TransformBounds(fn, b.XMin, b.YMin, b.XMax, b.YMax)
				fmt.Fprintf(out, "wgs84:      %.6f %.6f %.6f %.6f\n", x0, y0, x1, y1)
			}
			fmt.Fprintf(out, "size:       %d x %d (%s pixels)\n", p.Width, p.Height,
				humanize.Comma(int64(p.Width)*int64(p.Height)))
			fmt.Fprintf(out, "bands:      %d\n", p.BandCount)
			fmt.Fprintf(out, "resolution: %g x %g\n", p.XRes, p.YRes)
			fmt.Fprintf(out, "nodata:     %g\n", p.NoData)
			return nil
		},
	}
}
