package array

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/MasterOfBinary/geobatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinylib/msgp/msgp"
)

func seq(shape ...int) *Array {
	a := New(shape...)
	for i := range a.data {
		a.data[i] = float64(i)
	}
	return a
}

func TestArray_AtSet(t *testing.T) {
	a := New(2, 3, 4)
	a.Set(7, 1, 2, 3)
	assert.Equal(t, 7.0, a.At(1, 2, 3))
	assert.Equal(t, 7.0, a.Data()[23])
	assert.Equal(t, 24, a.Size())
	assert.Equal(t, 3, a.Dims())

	assert.Panics(t, func() { a.At(2, 0, 0) })
	assert.Panics(t, func() { a.At(0, 0) })
}

func TestFromSlice(t *testing.T) {
	a, err := FromSlice([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 6.0, a.At(1, 2))

	_, err = FromSlice([]float64{1, 2}, 2, 3)
	assert.True(t, errors.Is(err, geobatch.ErrInvalidParameter))
}

func TestArray_MoveAxis(t *testing.T) {
	a := seq(2, 3, 4)
	b := a.MoveAxis(0, 2)
	require.Equal(t, []int{3, 4, 2}, b.Shape())
	for band := 0; band < 2; band++ {
		for r := 0; r < 3; r++ {
			for c := 0; c < 4; c++ {
				assert.Equal(t, a.At(band, r, c), b.At(r, c, band))
			}
		}
	}

	back := b.MoveAxis(-1, 0)
	assert.Equal(t, a.Data(), back.Data())
}

func TestArray_ExpandDimsAndIndex(t *testing.T) {
	a := seq(3, 4)
	b := a.ExpandDims(0)
	assert.Equal(t, []int{1, 3, 4}, b.Shape())
	c := a.ExpandDims(-1)
	assert.Equal(t, []int{3, 4, 1}, c.Shape())

	row := a.Index(1)
	assert.Equal(t, []int{4}, row.Shape())
	assert.Equal(t, []float64{4, 5, 6, 7}, row.Data())

	row.Set(100, 0)
	assert.Equal(t, 4.0, a.At(1, 0), "Index returns a copy")
}

func TestArray_Reshape(t *testing.T) {
	a := seq(2, 6)
	b, err := a.Reshape(3, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, b.Shape())
	assert.Equal(t, a.Data(), b.Data())

	_, err = a.Reshape(5)
	assert.True(t, errors.Is(err, geobatch.ErrInvalidParameter))
}

func TestArray_ResizeNearest(t *testing.T) {
	t.Run("upsample", func(t *testing.T) {
		a, _ := FromSlice([]float64{1, 2, 3, 4}, 1, 2, 2)
		b := a.ResizeNearest(4, 4)
		require.Equal(t, []int{1, 4, 4}, b.Shape())
		assert.Equal(t, []float64{
			1, 1, 2, 2,
			1, 1, 2, 2,
			3, 3, 4, 4,
			3, 3, 4, 4,
		}, b.Data())
	})

	t.Run("downsample keeps leading axes", func(t *testing.T) {
		a := seq(2, 4, 4)
		b := a.ResizeNearest(2, 2)
		require.Equal(t, []int{2, 2, 2}, b.Shape())
		assert.Equal(t, []float64{0, 2, 8, 10, 16, 18, 24, 26}, b.Data())
	})
}

func TestStack(t *testing.T) {
	a := Full(1, 2, 2)
	b := Full(2, 2, 2)
	s, err := Stack([]*Array{a, b})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 2}, s.Shape())
	assert.Equal(t, 2.0, s.At(1, 0, 1))

	_, err = Stack([]*Array{a, New(3, 2)})
	assert.True(t, errors.Is(err, geobatch.ErrInvalidParameter))

	_, err = Stack(nil)
	assert.True(t, errors.Is(err, geobatch.ErrInvalidParameter))
}

func TestArray_Count(t *testing.T) {
	a, _ := FromSlice([]float64{0, math.NaN(), 0, 3, math.NaN()}, 5)
	assert.Equal(t, 2, a.Count(0))
	assert.Equal(t, 2, a.Count(math.NaN()))
	assert.Equal(t, 0, a.Count(9))

	doubled := a.Map(func(v float64) float64 { return v * 2 })
	assert.Equal(t, 6.0, doubled.At(3))
	assert.Equal(t, 3.0, a.At(3))
}

func TestArray_Msgp(t *testing.T) {
	a := seq(2, 3, 4)

	var buf bytes.Buffer
	w := msgp.NewWriter(&buf)
	require.NoError(t, a.EncodeMsg(w))
	require.NoError(t, w.Flush())
	assert.LessOrEqual(t, buf.Len(), a.Msgsize())

	var b Array
	require.NoError(t, b.DecodeMsg(msgp.NewReader(&buf)))
	assert.Equal(t, a.Shape(), b.Shape())
	assert.Equal(t, a.Data(), b.Data())
}
