// Package raster defines the raster collaborator used by the batcher: a
// georeferenced, multi-band grid that can be read by pixel window and viewed
// through a reprojected, resampled virtual grid.
//
// Backends register themselves by URI scheme and are selected by Open.
package raster

import (
	"fmt"
	"math"

	"github.com/MasterOfBinary/geobatch/array"
	"github.com/MasterOfBinary/geobatch/crs"
	"github.com/MasterOfBinary/geobatch/grid"
)

// Window is a rectangle of pixels. Offsets may be negative or extend past the
// raster; pixels outside the data read as nodata.
type Window struct {
	ColOff, RowOff int
	Width, Height  int
}

func (w Window) String() string {
	return fmt.Sprintf("window(col=%d row=%d %dx%d)", w.ColOff, w.RowOff, w.Width, w.Height)
}

// Intersect returns the part of w inside a width x height raster, and false
// when nothing overlaps.
func (w Window) Intersect(width, height int) (Window, bool) {
	c0, r0 := max(w.ColOff, 0), max(w.RowOff, 0)
	c1, r1 := min(w.ColOff+w.Width, width), min(w.RowOff+w.Height, height)
	if c1 <= c0 || r1 <= r0 {
		return Window{}, false
	}
	return Window{ColOff: c0, RowOff: r0, Width: c1 - c0, Height: r1 - r0}, true
}

// Profile describes a raster or view.
type Profile struct {
	CRS       crs.CRS
	XRes      float64
	YRes      float64
	Width     int
	Height    int
	BandCount int
	NoData    float64
	Transform GeoTransform
}

// Bounds returns the extent covered by the profile's pixels.
func (p Profile) Bounds() grid.Extent {
	x0, y0 := p.Transform.Apply(0, 0)
	x1, y1 := p.Transform.Apply(float64(p.Width), float64(p.Height))
	return grid.Extent{
		XMin: math.Min(x0, x1),
		YMin: math.Min(y0, y1),
		XMax: math.Max(x0, x1),
		YMax: math.Max(y0, y1),
	}
}

// ViewOptions describes the pixel grid of a view.
type ViewOptions struct {
	CRS        crs.CRS
	Transform  GeoTransform
	Width      int
	Height     int
	Resampling Resampling
}

// Reader reads pixel windows. Bands are 1-based and nil selects every band.
// The result has shape (len(bands), w.Height, w.Width).
type Reader interface {
	Profile() Profile
	Index(x, y float64) (col, row int)
	Read(bands []int, w Window) (*array.Array, error)
}

// View is a virtual reprojected and resampled grid over a Source. A view must
// be closed.
type View interface {
	Reader
	Close() error
}

// Source is an open raster.
type Source interface {
	Reader
	Bounds() grid.Extent
	Resolution() (xres, yres float64)
	CRS() crs.CRS
	BandCount() int
	NoData() float64
	OpenView(opts ViewOptions) (View, error)
	Close() error
}

// ResolveBands expands nil to every band and checks that each index lies in
// [1, count].
func ResolveBands(bands []int, count int) ([]int, error) {
	if bands == nil {
		all := make([]int, count)
		for i := range all {
			all[i] = i + 1
		}
		return all, nil
	}
	for _, b := range bands {
		if b < 1 || b > count {
			return nil, invalidf("band %d out of range [1, %d]", b, count)
		}
	}
	return bands, nil
}
