// Package grid generates tables of rectangular sample regions over an extent
// and persists them as GeoJSON.
package grid

import (
	"math"
	"math/rand"
	"time"

	"github.com/MasterOfBinary/geobatch"
	"github.com/MasterOfBinary/geobatch/crs"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// tolerance absorbs float error when deciding how many tiles fit.
const tolerance = 1e-9

type options struct {
	overlap float64
	crs     crs.CRS
	rng     *rand.Rand
}

// Option configures grid generation.
type Option func(*options)

// WithOverlap sets the fraction of a tile shared with its neighbour, in
// [0, 1). The default is 0.
func WithOverlap(overlap float64) Option {
	return func(o *options) {
		o.overlap = overlap
	}
}

// WithCRS tags the generated table with a coordinate reference system.
func WithCRS(c crs.CRS) Option {
	return func(o *options) {
		o.crs = c
	}
}

// WithRand sets the random source used by RandomGrid.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) {
		o.rng = rng
	}
}

func buildOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func validateSize(ext Extent, width, height float64) error {
	if err := ext.Validate(); err != nil {
		return err
	}
	if !(width > 0) || !(height > 0) {
		return errors.Wrapf(geobatch.ErrInvalidParameter, "tile size %vx%v must be positive", width, height)
	}
	return nil
}

// RegularGrid covers ext with width x height tiles. Consecutive tiles start
// width*(1-overlap) apart, x varies fastest, and rows run from YMin upward.
// No tile extends past XMax or YMax.
func RegularGrid(ext Extent, width, height float64, opts ...Option) (*Table, error) {
	o := buildOptions(opts)
	if err := validateSize(ext, width, height); err != nil {
		return nil, err
	}
	if o.overlap < 0 || o.overlap >= 1 || math.IsNaN(o.overlap) {
		return nil, errors.Wrapf(geobatch.ErrInvalidParameter, "overlap %v outside [0, 1)", o.overlap)
	}

	xs, err := origins(ext.XMin, ext.XMax, width, o.overlap)
	if err != nil {
		return nil, errors.Wrap(err, "x axis")
	}
	ys, err := origins(ext.YMin, ext.YMax, height, o.overlap)
	if err != nil {
		return nil, errors.Wrap(err, "y axis")
	}

	geoms := make([]orb.Geometry, 0, len(xs)*len(ys))
	for _, y := range ys {
		for _, x := range xs {
			geoms = append(geoms, rectangle(x, y, width, height))
		}
	}
	return NewTable(o.crs, geoms), nil
}

func origins(min, max, size, overlap float64) ([]float64, error) {
	length := max - min
	if size > length*(1+tolerance) {
		return nil, errors.Wrapf(geobatch.ErrInvalidParameter, "tile size %v exceeds extent length %v", size, length)
	}

	step := size * (1 - overlap)
	n := int(math.Floor((length-size)/step+tolerance)) + 1
	if n < 1 {
		n = 1
	}

	out := make([]float64, n)
	for i := range out {
		x := min + float64(i)*step
		if x+size > max {
			x = max - size
		}
		out[i] = x
	}
	return out, nil
}

// RandomGrid places count width x height tiles uniformly at random inside
// ext. Tiles may overlap or repeat.
func RandomGrid(ext Extent, width, height float64, count int, opts ...Option) (*Table, error) {
	o := buildOptions(opts)
	if err := validateSize(ext, width, height); err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, errors.Wrapf(geobatch.ErrInvalidParameter, "negative sample count %d", count)
	}
	if width >= ext.Width() || height >= ext.Height() {
		return nil, errors.Wrapf(geobatch.ErrInvalidParameter,
			"tile size %vx%v must be smaller than extent %vx%v", width, height, ext.Width(), ext.Height())
	}

	rng := o.rng
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	geoms := make([]orb.Geometry, count)
	for i := range geoms {
		x := ext.XMin + rng.Float64()*(ext.Width()-width)
		y := ext.YMin + rng.Float64()*(ext.Height()-height)
		geoms[i] = rectangle(x, y, width, height)
	}
	return NewTable(o.crs, geoms), nil
}

// PointGrid replaces every point in points with a width x height rectangle
// centered on it. Columns, CRS and row order are kept.
func PointGrid(points *Table, width, height float64) (*Table, error) {
	if points == nil {
		return nil, errors.Wrap(geobatch.ErrInvalidParameter, "nil point table")
	}
	if !(width > 0) || !(height > 0) {
		return nil, errors.Wrapf(geobatch.ErrInvalidParameter, "tile size %vx%v must be positive", width, height)
	}

	out, _ := points.Take(identity(points.Len()))
	for i, g := range out.geoms {
		p, ok := g.(orb.Point)
		if !ok {
			return nil, errors.Wrapf(geobatch.ErrInvalidParameter, "row %d is a %s, not a point", i, g.GeoJSONType())
		}
		out.geoms[i] = rectangle(p[0]-width/2, p[1]-height/2, width, height)
	}
	return out, nil
}
