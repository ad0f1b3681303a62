package raster

import (
	"math"
)

// GeoTransform maps pixel coordinates to map coordinates, in GDAL order:
//
//	x = t[0] + col*t[1] + row*t[2]
//	y = t[3] + col*t[4] + row*t[5]
type GeoTransform [6]float64

// FromOrigin returns a north-up transform whose upper-left corner is
// (west, north).
func FromOrigin(west, north, xres, yres float64) GeoTransform {
	return GeoTransform{west, xres, 0, north, 0, -yres}
}

// Apply returns the map coordinates of the pixel position (col, row).
func (t GeoTransform) Apply(col, row float64) (x, y float64) {
	return t[0] + col*t[1] + row*t[2], t[3] + col*t[4] + row*t[5]
}

// Invert returns the fractional pixel position of (x, y).
func (t GeoTransform) Invert(x, y float64) (col, row float64) {
	det := t[1]*t[5] - t[2]*t[4]
	dx, dy := x-t[0], y-t[3]
	return (dx*t[5] - dy*t[2]) / det, (dy*t[1] - dx*t[4]) / det
}

// Index returns the pixel containing (x, y).
func (t GeoTransform) Index(x, y float64) (col, row int) {
	c, r := t.Invert(x, y)
	return int(math.Floor(c)), int(math.Floor(r))
}

// Resolution returns the absolute pixel size.
func (t GeoTransform) Resolution() (xres, yres float64) {
	return math.Hypot(t[1], t[4]), math.Hypot(t[2], t[5])
}
