// Package batch turns a table of sample regions into fixed-shape batches of
// raster pixels.
//
// A Batcher holds one raster source and a Config. Flow walks a grid.Table in
// order (optionally shuffled once) and reads every region through a single
// view of the raster, reprojected into the table's CRS and resampled so that
// each region spans exactly outWidth x outHeight pixels:
//
//	b := batch.New(batch.Config{Resampling: raster.Bilinear})
//	if err := b.SetSource(ctx, "s3://imagery/dem.tif"); err != nil {
//		return err
//	}
//	defer b.Close()
//
//	tiles, _ := b.RegularGrid(250, 250)
//	it, err := b.Flow(ctx, tiles, 128, 128, 16)
//	if err != nil {
//		return err
//	}
//	for arr, err := range it.All() {
//		if err != nil {
//			return err
//		}
//		train(arr) // shape (16, bands, 128, 128)
//	}
//
// The last batch holds the remaining samples and may be smaller. Each
// iterator owns its view and releases it when exhausted, on error, on Close,
// or when a range over All stops early.
//
// A window that cannot be read degrades to a nodata sample; it is logged at
// warn level and counted by the StatsCollector. A failing preprocessing
// callback ends the flow with a geobatch.ProcessorError.
package batch
