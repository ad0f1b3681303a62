package batch_test

import (
	"context"
	"fmt"

	"github.com/MasterOfBinary/geobatch/batch"
	"github.com/MasterOfBinary/geobatch/crs"
	"github.com/MasterOfBinary/geobatch/raster"
	"github.com/MasterOfBinary/geobatch/raster/memory"
)

func Example() {
	// A 100x100 raster with 1 unit pixels.
	r, err := memory.New(crs.WebMercator, raster.FromOrigin(0, 100, 1, 1), 100, 100, 1, -1)
	if err != nil {
		fmt.Println(err)
		return
	}
	_ = r.SetBandFunc(1, func(col, row int) float64 { return float64(row*100 + col) })

	b := batch.New(batch.Config{})
	defer b.Close()
	if err := b.SetRaster(r); err != nil {
		fmt.Println(err)
		return
	}

	tiles, err := b.RegularGrid(25, 25)
	if err != nil {
		fmt.Println(err)
		return
	}

	it, err := b.Flow(context.Background(), tiles, 25, 25, 4)
	if err != nil {
		fmt.Println(err)
		return
	}
	for a, err := range it.All() {
		if err != nil {
			fmt.Println(err)
			return
		}
		fmt.Println(a.Shape())
	}

	// Output:
	// [4 1 25 25]
	// [4 1 25 25]
	// [4 1 25 25]
	// [4 1 25 25]
}

func ExampleBatcher_Flow_pixelInterleave() {
	r, _ := memory.New(crs.WebMercator, raster.FromOrigin(0, 100, 1, 1), 100, 100, 3, -1)

	b := batch.New(batch.Config{
		Bands:      batch.Bands(3, 2, 1),
		Interleave: batch.PixelInterleave,
		Resampling: raster.Average,
	})
	_ = b.SetRaster(r)

	tiles, _ := b.RegularGrid(50, 50)
	it, _ := b.Flow(context.Background(), tiles, 32, 32, 3)
	fmt.Println(it.Len(), "batches")
	for a := range it.All() {
		fmt.Println(a.Shape())
	}

	// Output:
	// 2 batches
	// [3 32 32 3]
	// [1 32 32 3]
}
