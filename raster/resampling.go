package raster

import (
	"strings"
)

// Resampling selects how source pixels are combined when a view's grid does
// not line up with the raster.
type Resampling int

const (
	Nearest Resampling = iota
	Bilinear
	Cubic
	Average
	Mode
	Lanczos
)

var resamplingNames = [...]string{
	Nearest:  "nearest",
	Bilinear: "bilinear",
	Cubic:    "cubic",
	Average:  "average",
	Mode:     "mode",
	Lanczos:  "lanczos",
}

func (r Resampling) String() string {
	if r < 0 || int(r) >= len(resamplingNames) {
		return "unknown"
	}
	return resamplingNames[r]
}

// ParseResampling parses a resampling name, case-insensitively.
func ParseResampling(s string) (Resampling, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range resamplingNames {
		if name == s {
			return Resampling(i), nil
		}
	}
	return 0, invalidf("unknown resampling %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (r Resampling) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Resampling) UnmarshalText(b []byte) error {
	parsed, err := ParseResampling(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
