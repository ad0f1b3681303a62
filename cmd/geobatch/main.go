// Command geobatch generates sample grids over rasters, annotates them and
// reads them as training batches.
//
//	geobatch grid tiles.geojson 256 256 --raster dem.tif --overlap 50
//	geobatch attrs tiles.geojson --raster dem.tif --stats --nodata
//	geobatch flow tiles.geojson --raster dem.tif --width 64 --height 64 --out batches.snappy
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/afero"

	_ "github.com/MasterOfBinary/geobatch/raster/gdal"
	_ "github.com/MasterOfBinary/geobatch/raster/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd(afero.NewOsFs(), os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
