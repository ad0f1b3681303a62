package crs

import (
	"math"
	"strings"
	"sync"

	"github.com/MasterOfBinary/geobatch"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"github.com/pkg/errors"
)

// TransformFunc converts a coordinate from one CRS to another.
type TransformFunc func(x, y float64) (float64, float64)

type pair struct {
	from, to string
}

var (
	mu       sync.RWMutex
	registry = map[pair]TransformFunc{}
)

func key(from, to CRS) pair {
	return pair{strings.ToUpper(string(from)), strings.ToUpper(string(to))}
}

// Register makes a transformation available to Transformer. Registering the
// same pair twice replaces the previous function.
func Register(from, to CRS, fn TransformFunc) {
	mu.Lock()
	defer mu.Unlock()
	registry[key(from, to)] = fn
}

// Transformer returns the function converting coordinates from one CRS to
// another. Equal systems give the identity. A zero CRS on either side gives
// ErrInvalidParameter, and an unknown pair gives ErrCrsMismatch.
func Transformer(from, to CRS) (TransformFunc, error) {
	if from.IsZero() || to.IsZero() {
		return nil, errors.Wrapf(geobatch.ErrInvalidParameter, "cannot transform %q to %q: crs not set", from, to)
	}
	if from.Equal(to) {
		return identity, nil
	}

	mu.RLock()
	fn, ok := registry[key(from, to)]
	mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(geobatch.ErrCrsMismatch, "no transformation from %s to %s", from, to)
	}
	return fn, nil
}

func identity(x, y float64) (float64, float64) {
	return x, y
}

// edgeSamples is the number of points sampled along each edge when
// transforming a rectangle.
const edgeSamples = 21

// TransformBounds transforms the rectangle (xmin, ymin, xmax, ymax) and
// returns the bounding rectangle of the result. Edges are densified since
// straight lines do not stay straight under most projections.
func TransformBounds(fn TransformFunc, xmin, ymin, xmax, ymax float64) (float64, float64, float64, float64) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	add := func(x, y float64) {
		tx, ty := fn(x, y)
		minX, maxX = math.Min(minX, tx), math.Max(maxX, tx)
		minY, maxY = math.Min(minY, ty), math.Max(maxY, ty)
	}
	for i := 0; i < edgeSamples; i++ {
		f := float64(i) / float64(edgeSamples-1)
		x := xmin + f*(xmax-xmin)
		y := ymin + f*(ymax-ymin)
		add(x, ymin)
		add(x, ymax)
		add(xmin, y)
		add(xmax, y)
	}
	return minX, minY, maxX, maxY
}

// maxLatitude is where EPSG:3857 is clipped.
const maxLatitude = 85.06

func lonLatToMercator(lon, lat float64) (float64, float64) {
	lat = math.Max(-maxLatitude, math.Min(maxLatitude, lat))
	p := project.WGS84.ToMercator(orb.Point{lon, lat})
	return p[0], p[1]
}

func mercatorToLonLat(x, y float64) (float64, float64) {
	p := project.Mercator.ToWGS84(orb.Point{x, y})
	return p[0], p[1]
}

func init() {
	Register(WGS84, WebMercator, lonLatToMercator)
	Register(WebMercator, WGS84, mercatorToLonLat)
}
