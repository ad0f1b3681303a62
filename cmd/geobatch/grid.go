package main

import (
	"fmt"
	"math/rand"
	"strconv"

	"github.com/MasterOfBinary/geobatch"
	"github.com/MasterOfBinary/geobatch/crs"
	"github.com/MasterOfBinary/geobatch/grid"
	"github.com/MasterOfBinary/geobatch/raster"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func (c *cli) gridCmd() *cobra.Command {
	var (
		sizeInPixels bool
		randomCount  int
		overlap      float64
		extent       []float64
		extentCRS    string
		rasterURI    string
		targetCRS    string
		seed         int64
	)

	cmd := &cobra.Command{
		Use:   "grid OUTPUT WIDTH HEIGHT",
		Short: "Generate a grid of samples and save it as GeoJSON",
		Long: `Generate a regular or random grid of WIDTH x HEIGHT samples covering an
extent, given directly or taken from a raster, and save it as GeoJSON.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := args[0]
			width, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return geobatch.InvalidParameter("width %q: %v", args[1], err)
			}
			height, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return geobatch.InvalidParameter("height %q: %v", args[2], err)
			}
			if overlap < 0 || overlap >= 100 {
				return geobatch.InvalidParameter("overlap %g must be in [0, 100)", overlap)
			}

			var ext grid.Extent
			var extCRS crs.CRS
			switch {
			case rasterURI != "":
				src, err := raster.Open(cmd.Context(), rasterURI)
				if err != nil {
					return err
				}
				defer src.Close()
				ext, extCRS = src.Bounds(), src.CRS()
				if sizeInPixels {
					xres, yres := src.Resolution()
					width, height = width*xres, height*yres
				}
				c.logger.Sugar().Infow("grid extent from raster", "raster", rasterURI, "crs", extCRS,
					"bounds", []float64{ext.XMin, ext.YMin, ext.XMax, ext.YMax})
			case sizeInPixels:
				return geobatch.InvalidParameter("--size-in-pixels needs --raster")
			case len(extent) == 4:
				ext = grid.Extent{XMin: extent[0], YMin: extent[1], XMax: extent[2], YMax: extent[3]}
				if extCRS, err = crs.Parse(extentCRS); err != nil {
					return err
				}
			case len(extent) == 0:
				return geobatch.InvalidParameter("a raster or an extent must be given")
			default:
				return geobatch.InvalidParameter("extent needs 4 values, got %d", len(extent))
			}

			opts := []grid.Option{grid.WithCRS(extCRS)}
			if seed != 0 {
				opts = append(opts, grid.WithRand(rand.New(rand.NewSource(seed))))
			}

			var table *grid.Table
			if randomCount > 0 {
				table, err = grid.RandomGrid(ext, width, height, randomCount, opts...)
			} else {
				table, err = grid.RegularGrid(ext, width, height, append(opts, grid.WithOverlap(overlap/100))...)
			}
			if err != nil {
				return err
			}

			if targetCRS != "" {
				to, err := crs.Parse(targetCRS)
				if err != nil {
					return err
				}
				if table, err = table.Reproject(to); err != nil {
					return err
				}
			}

			if err := grid.Save(c.fs, output, table); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s samples to %s\n", humanize.Comma(int64(table.Len())), output)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&sizeInPixels, "size-in-pixels", false, "WIDTH and HEIGHT are in raster pixels (needs --raster)")
	flags.IntVar(&randomCount, "random-count", 0, "number of randomly placed samples (default regular grid)")
	flags.Float64Var(&overlap, "overlap", 0, "percent overlap between neighboring samples")
	flags.Float64SliceVarP(&extent, "extent", "e", nil, "extent as minx,miny,maxx,maxy")
	flags.StringVar(&extentCRS, "extent-crs", string(crs.WGS84), "CRS of --extent")
	flags.StringVarP(&rasterURI, "raster", "r", "", "raster defining the extent and CRS")
	flags.StringVarP(&targetCRS, "target-crs", "t", "", "reproject the grid to this CRS")
	flags.Int64Var(&seed, "seed", 0, "seed for --random-count (default from the clock)")
	return cmd
}
