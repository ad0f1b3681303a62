package grid

import (
	"github.com/MasterOfBinary/geobatch"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// Extent is an axis-aligned rectangle in map units.
type Extent struct {
	XMin, YMin, XMax, YMax float64
}

// ExtentFromBound converts an orb.Bound.
func ExtentFromBound(b orb.Bound) Extent {
	return Extent{XMin: b.Min[0], YMin: b.Min[1], XMax: b.Max[0], YMax: b.Max[1]}
}

// Validate returns ErrInvalidParameter unless XMax > XMin and YMax > YMin.
func (e Extent) Validate() error {
	if !(e.XMax > e.XMin) || !(e.YMax > e.YMin) {
		return errors.Wrapf(geobatch.ErrInvalidParameter, "degenerate extent %v", e)
	}
	return nil
}

// Width is XMax - XMin.
func (e Extent) Width() float64 {
	return e.XMax - e.XMin
}

// Height is YMax - YMin.
func (e Extent) Height() float64 {
	return e.YMax - e.YMin
}

// Bound converts the extent to an orb.Bound.
func (e Extent) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{e.XMin, e.YMin}, Max: orb.Point{e.XMax, e.YMax}}
}

// Contains reports whether b lies inside the extent, with a small tolerance
// for float error.
func (e Extent) Contains(b orb.Bound) bool {
	tol := 1e-9 * (e.Width() + e.Height())
	return b.Min[0] >= e.XMin-tol && b.Min[1] >= e.YMin-tol &&
		b.Max[0] <= e.XMax+tol && b.Max[1] <= e.YMax+tol
}

func rectangle(x, y, w, h float64) orb.Polygon {
	return orb.Bound{Min: orb.Point{x, y}, Max: orb.Point{x + w, y + h}}.ToPolygon()
}
