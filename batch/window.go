package batch

import (
	"math"

	"github.com/MasterOfBinary/geobatch/raster"
	"github.com/paulmach/orb"
)

// sampleWindow maps a region to a pixel window of t. The corners are rounded
// half up; if the result is within windowTolerance of the requested size it
// is snapped to that size at its upper-left corner, otherwise resize reports
// that the window must be resampled to width x height after reading.
func sampleWindow(t raster.GeoTransform, b orb.Bound, width, height int) (w raster.Window, resize bool) {
	c0, r0 := t.Invert(b.Min[0], b.Max[1])
	c1, r1 := t.Invert(b.Max[0], b.Min[1])

	col0, col1 := roundHalfUp(math.Min(c0, c1)), roundHalfUp(math.Max(c0, c1))
	row0, row1 := roundHalfUp(math.Min(r0, r1)), roundHalfUp(math.Max(r0, r1))

	w = raster.Window{ColOff: col0, RowOff: row0, Width: col1 - col0, Height: row1 - row0}
	if abs(w.Width-width) <= windowTolerance && abs(w.Height-height) <= windowTolerance {
		w.Width, w.Height = width, height
		return w, false
	}
	w.Width, w.Height = max(w.Width, 1), max(w.Height, 1)
	return w, true
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
