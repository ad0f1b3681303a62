package memory

import (
	"math"
	"sync"

	"github.com/MasterOfBinary/geobatch"
	"github.com/MasterOfBinary/geobatch/array"
	"github.com/MasterOfBinary/geobatch/crs"
	"github.com/MasterOfBinary/geobatch/raster"
	"github.com/pkg/errors"
)

// view samples its source lazily, one pixel center at a time.
type view struct {
	src        *Raster
	profile    raster.Profile
	resampling raster.Resampling
	toSource   crs.TransformFunc

	mu     sync.Mutex
	closed bool
}

// OpenView returns a virtual grid over r. Nearest, Bilinear and Average
// resampling are supported.
func (r *Raster) OpenView(opts raster.ViewOptions) (raster.View, error) {
	switch opts.Resampling {
	case raster.Nearest, raster.Bilinear, raster.Average:
	default:
		return nil, geobatch.InvalidParameter("in-memory views do not support %s resampling", opts.Resampling)
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, geobatch.InvalidParameter("view size %dx%d must be positive", opts.Width, opts.Height)
	}

	viewCRS := opts.CRS
	toSource := crs.TransformFunc(func(x, y float64) (float64, float64) { return x, y })
	switch {
	case viewCRS.IsZero() && r.profile.CRS.IsZero():
	case viewCRS.IsZero():
		viewCRS = r.profile.CRS
	default:
		fn, err := crs.Transformer(viewCRS, r.profile.CRS)
		if err != nil {
			return nil, err
		}
		toSource = fn
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, errors.New("view of closed raster")
	}
	r.openViews++

	xres, yres := opts.Transform.Resolution()
	return &view{
		src: r,
		profile: raster.Profile{
			CRS:       viewCRS,
			XRes:      xres,
			YRes:      yres,
			Width:     opts.Width,
			Height:    opts.Height,
			BandCount: r.profile.BandCount,
			NoData:    r.profile.NoData,
			Transform: opts.Transform,
		},
		resampling: opts.Resampling,
		toSource:   toSource,
	}, nil
}

func (v *view) Profile() raster.Profile {
	return v.profile
}

func (v *view) Index(x, y float64) (col, row int) {
	return v.profile.Transform.Index(x, y)
}

func (v *view) Read(bands []int, w raster.Window) (*array.Array, error) {
	v.mu.Lock()
	closed := v.closed
	v.mu.Unlock()
	if closed {
		return nil, errors.New("read from closed view")
	}
	if w.Width < 0 || w.Height < 0 {
		return nil, geobatch.InvalidParameter("negative %v", w)
	}
	bands, err := raster.ResolveBands(bands, v.profile.BandCount)
	if err != nil {
		return nil, err
	}

	v.src.mu.Lock()
	defer v.src.mu.Unlock()
	if v.src.closed {
		return nil, errors.New("read from closed raster")
	}

	out := array.New(len(bands), w.Height, w.Width)
	data := out.Data()
	i := 0
	for _, b := range bands {
		for row := w.RowOff; row < w.RowOff+w.Height; row++ {
			for col := w.ColOff; col < w.ColOff+w.Width; col++ {
				data[i] = v.sample(b, col, row)
				i++
			}
		}
	}
	return out, nil
}

// sample computes one view pixel. The source lock must be held.
func (v *view) sample(band, col, row int) float64 {
	src := v.src
	if col < 0 || row < 0 || col >= v.profile.Width || row >= v.profile.Height {
		return src.profile.NoData
	}

	x, y := v.profile.Transform.Apply(float64(col)+0.5, float64(row)+0.5)
	sc, sr := src.profile.Transform.Invert(v.toSource(x, y))

	switch v.resampling {
	case raster.Bilinear:
		return v.bilinear(band, sc, sr)
	case raster.Average:
		return v.average(band, col, row, sc, sr)
	default:
		return src.pixel(band, int(math.Floor(sc)), int(math.Floor(sr)))
	}
}

func (v *view) bilinear(band int, sc, sr float64) float64 {
	src := v.src
	w, h := src.profile.Width, src.profile.Height
	if sc < 0 || sr < 0 || sc >= float64(w) || sr >= float64(h) {
		return src.profile.NoData
	}

	fc, fr := sc-0.5, sr-0.5
	c0, r0 := int(math.Floor(fc)), int(math.Floor(fr))
	dc, dr := fc-float64(c0), fr-float64(r0)
	clamp := func(i, n int) int {
		return max(0, min(i, n-1))
	}

	var sum, weight float64
	for _, p := range [4]struct {
		c, r int
		w    float64
	}{
		{c0, r0, (1 - dc) * (1 - dr)},
		{c0 + 1, r0, dc * (1 - dr)},
		{c0, r0 + 1, (1 - dc) * dr},
		{c0 + 1, r0 + 1, dc * dr},
	} {
		if p.w == 0 {
			continue
		}
		val := src.pixel(band, clamp(p.c, w), clamp(p.r, h))
		if src.isNoData(val) {
			continue
		}
		sum += val * p.w
		weight += p.w
	}
	if weight == 0 {
		return src.profile.NoData
	}
	return sum / weight
}

// average takes the mean of the valid source pixels under the view pixel's
// footprint.
func (v *view) average(band, col, row int, sc, sr float64) float64 {
	src := v.src
	c0, r0 := math.Inf(1), math.Inf(1)
	c1, r1 := math.Inf(-1), math.Inf(-1)
	for _, corner := range [4][2]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		x, y := v.profile.Transform.Apply(float64(col)+corner[0], float64(row)+corner[1])
		c, r := src.profile.Transform.Invert(v.toSource(x, y))
		c0, c1 = math.Min(c0, c), math.Max(c1, c)
		r0, r1 = math.Min(r0, r), math.Max(r1, r)
	}

	const eps = 1e-9
	ci0, ci1 := int(math.Floor(c0+eps)), int(math.Ceil(c1-eps))
	ri0, ri1 := int(math.Floor(r0+eps)), int(math.Ceil(r1-eps))
	if ci1 <= ci0 || ri1 <= ri0 {
		return src.pixel(band, int(math.Floor(sc)), int(math.Floor(sr)))
	}

	var sum float64
	var n int
	for r := max(ri0, 0); r < min(ri1, src.profile.Height); r++ {
		for c := max(ci0, 0); c < min(ci1, src.profile.Width); c++ {
			val := src.pixel(band, c, r)
			if src.isNoData(val) {
				continue
			}
			sum += val
			n++
		}
	}
	if n == 0 {
		return src.profile.NoData
	}
	return sum / float64(n)
}

// Close releases the view. It is safe to call more than once.
func (v *view) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	v.closed = true

	v.src.mu.Lock()
	v.src.openViews--
	v.src.mu.Unlock()
	return nil
}
