// Package geobatch contains the error taxonomy shared by the geobatch packages.
// The main entry point is batch.Batcher, which reads fixed-size patches from a
// raster.Source for every geometry of a grid.Table and yields them in batches.
// Sample grids are generated by the grid package, raster backends live under
// raster/, per-sample callbacks are registered with the preprocess package and
// per-sample attributes are computed by the attribute package. Batches can be
// written to a compressed stream with the export package.
//
// A typical training loop looks like this:
//
//	b := batch.New(batch.Config{Resampling: raster.Bilinear})
//	if err := b.SetSource(ctx, "dem.tif"); err != nil {
//	    return err
//	}
//	defer b.Close()
//
//	table, err := b.RegularGrid(256, 256)
//	if err != nil {
//	    return err
//	}
//
//	it, err := b.Flow(ctx, table, 128, 128, 32)
//	if err != nil {
//	    return err
//	}
//	for arr, err := range it.All() {
//	    if err != nil {
//	        return err
//	    }
//	    train(arr) // arr has shape (32, bands, 128, 128)
//	}
//
// Errors returned by every package can be matched with errors.Is against the
// sentinels in this package, for example:
//
//	if errors.Is(err, geobatch.ErrNotConfigured) {
//	    // no raster source was set
//	}
package geobatch
