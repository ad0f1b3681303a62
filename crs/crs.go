// Package crs identifies coordinate reference systems and converts
// coordinates between the pairs it knows about.
//
// A CRS is kept as an authority string such as "EPSG:4326". Other definitions
// (WKT, PROJ strings) are carried verbatim and only compare equal to
// themselves.
package crs

import (
	"strconv"
	"strings"

	"github.com/MasterOfBinary/geobatch"
	"github.com/pkg/errors"
)

// CRS is a coordinate reference system identifier. The zero value means the
// CRS is unknown.
type CRS string

// Common reference systems.
const (
	WGS84       CRS = "EPSG:4326"
	WebMercator CRS = "EPSG:3857"
)

// EPSG returns the CRS for an EPSG code.
func EPSG(code int) CRS {
	return CRS("EPSG:" + strconv.Itoa(code))
}

// Parse normalizes a user supplied definition. Authority codes are upper
// cased ("epsg:4326" becomes "EPSG:4326") and a bare integer is read as an
// EPSG code. An empty string parses to the zero CRS.
func Parse(s string) (CRS, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if code, err := strconv.Atoi(s); err == nil {
		if code <= 0 {
			return "", errors.Wrapf(geobatch.ErrInvalidParameter, "invalid EPSG code %d", code)
		}
		return EPSG(code), nil
	}
	if i := strings.IndexByte(s, ':'); i > 0 && !strings.ContainsAny(s, " [(+") {
		auth := strings.ToUpper(s[:i])
		code := s[i+1:]
		if code == "" {
			return "", errors.Wrapf(geobatch.ErrInvalidParameter, "missing code in %q", s)
		}
		return CRS(auth + ":" + code), nil
	}
	return CRS(s), nil
}

// IsZero reports whether the CRS is unknown.
func (c CRS) IsZero() bool {
	return c == ""
}

// Equal reports whether c and o name the same reference system.
func (c CRS) Equal(o CRS) bool {
	return strings.EqualFold(string(c), string(o))
}

// Code returns the numeric EPSG code, if c is an EPSG identifier.
func (c CRS) Code() (int, bool) {
	s := string(c)
	if len(s) < 6 || !strings.EqualFold(s[:5], "EPSG:") {
		return 0, false
	}
	code, err := strconv.Atoi(s[5:])
	if err != nil {
		return 0, false
	}
	return code, true
}

func (c CRS) String() string {
	return string(c)
}
