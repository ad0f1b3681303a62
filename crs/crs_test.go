package crs

import (
	"errors"
	"testing"

	"github.com/MasterOfBinary/geobatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("normalizes authority codes", func(t *testing.T) {
		c, err := Parse("epsg:32616")
		require.NoError(t, err)
		assert.Equal(t, CRS("EPSG:32616"), c)

		code, ok := c.Code()
		assert.True(t, ok)
		assert.Equal(t, 32616, code)
	})

	t.Run("bare integer is an EPSG code", func(t *testing.T) {
		c, err := Parse(" 4326 ")
		require.NoError(t, err)
		assert.Equal(t, WGS84, c)
	})

	t.Run("empty is zero", func(t *testing.T) {
		c, err := Parse("")
		require.NoError(t, err)
		assert.True(t, c.IsZero())
	})

	t.Run("proj strings are kept verbatim", func(t *testing.T) {
		def := "+proj=longlat +datum=WGS84 +no_defs"
		c, err := Parse(def)
		require.NoError(t, err)
		assert.Equal(t, CRS(def), c)
		_, ok := c.Code()
		assert.False(t, ok)
	})

	t.Run("rejects bad codes", func(t *testing.T) {
		_, err := Parse("-5")
		assert.True(t, errors.Is(err, geobatch.ErrInvalidParameter))

		_, err = Parse("EPSG:")
		assert.True(t, errors.Is(err, geobatch.ErrInvalidParameter))
	})
}

func TestTransformer(t *testing.T) {
	t.Run("identity for equal systems", func(t *testing.T) {
		fn, err := Transformer(CRS("epsg:4326"), WGS84)
		require.NoError(t, err)
		x, y := fn(12.5, -3)
		assert.Equal(t, 12.5, x)
		assert.Equal(t, -3.0, y)
	})

	t.Run("web mercator round trip", func(t *testing.T) {
		fwd, err := Transformer(WGS84, WebMercator)
		require.NoError(t, err)
		inv, err := Transformer(WebMercator, WGS84)
		require.NoError(t, err)

		x, y := fwd(-88.2, 40.1)
		assert.InDelta(t, -9818379.0, x, 1)
		lon, lat := inv(x, y)
		assert.InDelta(t, -88.2, lon, 1e-9)
		assert.InDelta(t, 40.1, lat, 1e-9)
	})

	t.Run("unset crs", func(t *testing.T) {
		_, err := Transformer("", WGS84)
		assert.True(t, errors.Is(err, geobatch.ErrInvalidParameter))
	})

	t.Run("unknown pair", func(t *testing.T) {
		_, err := Transformer(EPSG(32616), WGS84)
		assert.True(t, errors.Is(err, geobatch.ErrCrsMismatch))
	})

	t.Run("registered pair", func(t *testing.T) {
		from, to := CRS("TEST:1"), CRS("TEST:2")
		Register(from, to, func(x, y float64) (float64, float64) { return x + 1, y * 2 })
		fn, err := Transformer(from, to)
		require.NoError(t, err)
		x, y := fn(1, 2)
		assert.Equal(t, 2.0, x)
		assert.Equal(t, 4.0, y)
	})
}

func TestTransformBounds(t *testing.T) {
	fn, err := Transformer(WGS84, WebMercator)
	require.NoError(t, err)

	xmin, ymin, xmax, ymax := TransformBounds(fn, -1, -1, 1, 1)
	x0, y0 := fn(-1, -1)
	x1, y1 := fn(1, 1)
	assert.InDelta(t, x0, xmin, 1e-6)
	assert.InDelta(t, y0, ymin, 1e-6)
	assert.InDelta(t, x1, xmax, 1e-6)
	assert.InDelta(t, y1, ymax, 1e-6)
}
