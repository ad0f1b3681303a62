// Package memory implements an in-memory raster backend. It is used for
// tests and for rasters computed on the fly, and registers the "mem" scheme
// for rasters published with Put.
package memory

import (
	"context"
	"math"
	"net/url"
	"sync"

	"github.com/MasterOfBinary/geobatch"
	"github.com/MasterOfBinary/geobatch/array"
	"github.com/MasterOfBinary/geobatch/crs"
	"github.com/MasterOfBinary/geobatch/grid"
	"github.com/MasterOfBinary/geobatch/raster"
	"github.com/pkg/errors"
)

func init() {
	raster.Register("mem", Open)
}

// Raster is a multi-band raster held in memory. Handles returned by Open
// share the pixels and the lock of the published raster.
type Raster struct {
	mu        *sync.Mutex
	profile   raster.Profile
	bands     [][]float64
	closed    bool
	openViews int
}

var _ raster.Source = (*Raster)(nil)

// New returns a width x height raster whose bands are filled with nodata.
func New(c crs.CRS, transform raster.GeoTransform, width, height, bandCount int, nodata float64) (*Raster, error) {
	if width <= 0 || height <= 0 || bandCount <= 0 {
		return nil, geobatch.InvalidParameter("raster size %dx%dx%d must be positive", bandCount, height, width)
	}
	xres, yres := transform.Resolution()
	r := &Raster{
		profile: raster.Profile{
			CRS:       c,
			XRes:      xres,
			YRes:      yres,
			Width:     width,
			Height:    height,
			BandCount: bandCount,
			NoData:    nodata,
			Transform: transform,
		},
		bands: make([][]float64, bandCount),
		mu:    &sync.Mutex{},
	}
	for i := range r.bands {
		band := make([]float64, width*height)
		for j := range band {
			band[j] = nodata
		}
		r.bands[i] = band
	}
	return r, nil
}

// SetBand replaces a band's pixels, given row by row.
func (r *Raster) SetBand(band int, data []float64) error {
	if band < 1 || band > len(r.bands) {
		return geobatch.InvalidParameter("band %d out of range [1, %d]", band, len(r.bands))
	}
	if len(data) != r.profile.Width*r.profile.Height {
		return geobatch.InvalidParameter("band needs %d pixels, got %d", r.profile.Width*r.profile.Height, len(data))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	copy(r.bands[band-1], data)
	return nil
}

// SetBandFunc sets every pixel of a band to fn(col, row).
func (r *Raster) SetBandFunc(band int, fn func(col, row int) float64) error {
	data := make([]float64, r.profile.Width*r.profile.Height)
	for row := 0; row < r.profile.Height; row++ {
		for col := 0; col < r.profile.Width; col++ {
			data[row*r.profile.Width+col] = fn(col, row)
		}
	}
	return r.SetBand(band, data)
}

// Profile implements the raster.Reader interface.
func (r *Raster) Profile() raster.Profile {
	return r.profile
}

// Bounds implements the raster.Source interface.
func (r *Raster) Bounds() grid.Extent {
	return r.profile.Bounds()
}

// Resolution implements the raster.Source interface.
func (r *Raster) Resolution() (xres, yres float64) {
	return r.profile.XRes, r.profile.YRes
}

// CRS implements the raster.Source interface.
func (r *Raster) CRS() crs.CRS {
	return r.profile.CRS
}

// BandCount implements the raster.Source interface.
func (r *Raster) BandCount() int {
	return r.profile.BandCount
}

// NoData implements the raster.Source interface.
func (r *Raster) NoData() float64 {
	return r.profile.NoData
}

// Index implements the raster.Reader interface.
func (r *Raster) Index(x, y float64) (col, row int) {
	return r.profile.Transform.Index(x, y)
}

// OpenViews returns the number of views opened and not yet closed.
func (r *Raster) OpenViews() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.openViews
}

// Read returns the pixels of w. Pixels outside the raster are nodata.
func (r *Raster) Read(bands []int, w raster.Window) (*array.Array, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, errors.New("read from closed raster")
	}
	if w.Width < 0 || w.Height < 0 {
		return nil, geobatch.InvalidParameter("negative %v", w)
	}
	bands, err := raster.ResolveBands(bands, r.profile.BandCount)
	if err != nil {
		return nil, err
	}

	out := array.Full(r.profile.NoData, len(bands), w.Height, w.Width)
	clip, ok := w.Intersect(r.profile.Width, r.profile.Height)
	if !ok {
		return out, nil
	}
	data := out.Data()
	for i, b := range bands {
		src := r.bands[b-1]
		for row := clip.RowOff; row < clip.RowOff+clip.Height; row++ {
			dst := data[(i*w.Height+row-w.RowOff)*w.Width+clip.ColOff-w.ColOff:]
			copy(dst[:clip.Width], src[row*r.profile.Width+clip.ColOff:])
		}
	}
	return out, nil
}

// pixel returns a band value, or nodata outside the raster. The lock must be
// held.
func (r *Raster) pixel(band, col, row int) float64 {
	if col < 0 || row < 0 || col >= r.profile.Width || row >= r.profile.Height {
		return r.profile.NoData
	}
	return r.bands[band-1][row*r.profile.Width+col]
}

func (r *Raster) isNoData(v float64) bool {
	if math.IsNaN(r.profile.NoData) {
		return math.IsNaN(v)
	}
	return v == r.profile.NoData
}

// Close releases the raster. Reads after Close fail.
func (r *Raster) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

var (
	storeMu sync.RWMutex
	store   = make(map[string]*Raster)
)

// Put publishes r under name so it can be opened as "mem://name".
func Put(name string, r *Raster) {
	storeMu.Lock()
	defer storeMu.Unlock()
	store[name] = r
}

// Open opens a raster published with Put. Each call returns a new handle
// sharing the pixels, so closing it leaves the published raster usable.
func Open(_ context.Context, uri string) (raster.Source, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, errors.Wrap(geobatch.ErrSourceUnavailable, err.Error())
	}
	storeMu.RLock()
	r, ok := store[u.Host+u.Path]
	storeMu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(geobatch.ErrSourceUnavailable, "no in-memory raster named %q", u.Host+u.Path)
	}

	return &Raster{mu: r.mu, profile: r.profile, bands: r.bands}, nil
}
