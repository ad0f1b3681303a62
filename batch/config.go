package batch

import (
	"strings"

	"github.com/MasterOfBinary/geobatch"
	"github.com/MasterOfBinary/geobatch/raster"
)

// Config holds the settings a Batcher applies to every Flow.
//
// The zero value reads every band in band-interleaved order with nearest
// resampling and no shuffling.
type Config struct {
	// Bands selects the raster bands read for each sample.
	Bands BandSelection

	// Interleave controls the layout of multi-band samples.
	Interleave Interleave

	// Resampling is used by the view a Flow reads through.
	Resampling raster.Resampling

	// Shuffle randomizes the sample order once per Flow.
	Shuffle bool

	// Seed seeds the shuffle. Zero seeds from the clock.
	Seed int64
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Interleave != BandInterleave && c.Interleave != PixelInterleave {
		return geobatch.InvalidParameter("unknown interleave %d", c.Interleave)
	}
	if c.Resampling < raster.Nearest || c.Resampling > raster.Lanczos {
		return geobatch.InvalidParameter("unknown resampling %d", c.Resampling)
	}
	for _, b := range c.Bands.bands {
		if b < 1 {
			return geobatch.InvalidParameter("band %d must be 1 or greater", b)
		}
	}
	return nil
}

// BandSelection chooses which bands a sample holds. Use AllBands, Band or
// Bands to create one.
type BandSelection struct {
	bands  []int
	scalar bool
}

// AllBands selects every band of the raster.
var AllBands = BandSelection{}

// Band selects a single 1-based band and drops the band axis, so samples
// have shape (height, width).
func Band(i int) BandSelection {
	return BandSelection{bands: []int{i}, scalar: true}
}

// Bands selects 1-based bands in the given order. Samples keep the band axis
// even when only one band is listed.
func Bands(i ...int) BandSelection {
	return BandSelection{bands: append([]int(nil), i...)}
}

// Indices returns the selected bands, or nil for every band.
func (s BandSelection) Indices() []int {
	return s.bands
}

// IsScalar reports whether the selection was made with Band.
func (s BandSelection) IsScalar() bool {
	return s.scalar
}

// Interleave is the memory layout of a multi-band sample.
type Interleave int

const (
	// BandInterleave stores samples as (bands, height, width).
	BandInterleave Interleave = iota
	// PixelInterleave stores samples as (height, width, bands).
	PixelInterleave
)

func (i Interleave) String() string {
	switch i {
	case BandInterleave:
		return "band"
	case PixelInterleave:
		return "pixel"
	default:
		return "unknown"
	}
}

// ParseInterleave parses "band" or "pixel".
func ParseInterleave(s string) (Interleave, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "band", "":
		return BandInterleave, nil
	case "pixel":
		return PixelInterleave, nil
	default:
		return 0, geobatch.InvalidParameter("unknown interleave %q", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *Interleave) UnmarshalText(b []byte) error {
	parsed, err := ParseInterleave(string(b))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (i Interleave) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}
