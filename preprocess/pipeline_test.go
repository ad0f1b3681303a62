package preprocess

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/MasterOfBinary/geobatch"
	"github.com/MasterOfBinary/geobatch/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addFunc(a *array.Array, args ...interface{}) (*array.Array, error) {
	n := args[0].(float64)
	return a.Map(func(v float64) float64 { return v + n }), nil
}

func mulFunc(a *array.Array, args ...interface{}) (*array.Array, error) {
	n := args[0].(float64)
	return a.Map(func(v float64) float64 { return v * n }), nil
}

func TestPipeline_Order(t *testing.T) {
	p := New()
	require.NoError(t, p.Append("add", addFunc, 1.0))
	require.NoError(t, p.Append("mul", mulFunc, 10.0))
	assert.Equal(t, []string{"add", "mul"}, p.Names())

	out, err := p.Apply(array.Full(1, 2))
	require.NoError(t, err)
	assert.Equal(t, []float64{20, 20}, out.Data())

	t.Run("replace keeps position", func(t *testing.T) {
		require.NoError(t, p.Append("add", addFunc, 2.0))
		assert.Equal(t, []string{"add", "mul"}, p.Names())
		out, err := p.Apply(array.Full(1, 2))
		require.NoError(t, err)
		assert.Equal(t, []float64{30, 30}, out.Data())

		_, args, ok := p.Get("add")
		require.True(t, ok)
		assert.Equal(t, []interface{}{2.0}, args)
	})

	t.Run("remove", func(t *testing.T) {
		assert.True(t, p.Remove("add"))
		assert.False(t, p.Remove("add"))
		assert.Equal(t, 1, p.Len())
		_, _, ok := p.Get("add")
		assert.False(t, ok)
	})
}

func TestPipeline_Concurrent(t *testing.T) {
	p := New()
	require.NoError(t, p.Append("add", addFunc, 1.0))
	require.NoError(t, p.Append("mul", mulFunc, 2.0))
	require.NoError(t, p.Append("add2", addFunc, 3.0))

	t.Run("remove leaves earlier slices intact", func(t *testing.T) {
		before := p.steps
		require.True(t, p.Remove("add"))
		assert.Equal(t, "add", before[0].name)
		assert.Equal(t, "mul", before[1].name)
		assert.Equal(t, []string{"mul", "add2"}, p.Names())
	})

	t.Run("apply while editing", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_, err := p.Apply(array.Full(1, 2))
				assert.NoError(t, err)
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = p.Append("add", addFunc, 1.0)
				p.Remove("add")
			}
		}()
		wg.Wait()
		assert.Equal(t, []string{"mul", "add2"}, p.Names())
	})
}

func TestPipeline_Clone(t *testing.T) {
	p := New()
	require.NoError(t, p.Append("add", addFunc, 1.0))
	snapshot := p.Clone()
	require.NoError(t, p.Append("mul", mulFunc, 3.0))

	assert.Equal(t, 1, snapshot.Len())
	assert.Equal(t, 2, p.Len())

	var nilPipeline *Pipeline
	assert.Equal(t, 0, nilPipeline.Clone().Len())
}

func TestPipeline_Errors(t *testing.T) {
	p := New()
	assert.True(t, errors.Is(p.Append("", addFunc), geobatch.ErrInvalidParameter))
	assert.True(t, errors.Is(p.Append("nil", nil), geobatch.ErrInvalidParameter))

	boom := errors.New("boom")
	require.NoError(t, p.Append("fails", func(a *array.Array, _ ...interface{}) (*array.Array, error) {
		return nil, boom
	}))
	_, err := p.Apply(array.New(1))
	require.Error(t, err)

	var perr geobatch.ProcessorError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "fails", perr.Name)
	assert.True(t, errors.Is(err, boom))
}

func TestNormalize(t *testing.T) {
	t.Run("2d", func(t *testing.T) {
		a, _ := array.FromSlice([]float64{0, 50, 100, 25}, 2, 2)
		out, err := Normalize(0, 100, 0)(a)
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 0.5, 1, 0.25}, out.Data())
	})

	t.Run("3d scales one band", func(t *testing.T) {
		a, _ := array.FromSlice([]float64{10, 20, 10, 20}, 2, 1, 2)
		out, err := Normalize(10, 20, 1)(a)
		require.NoError(t, err)
		assert.Equal(t, []float64{10, 20, 0, 1}, out.Data())
		assert.Equal(t, 20.0, a.At(1, 0, 1), "input untouched")
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := Normalize(1, 1, 0)(array.New(2, 2))
		assert.True(t, errors.Is(err, geobatch.ErrInvalidParameter))
		_, err = Normalize(0, 1, 3)(array.New(2, 2, 2))
		assert.True(t, errors.Is(err, geobatch.ErrInvalidParameter))
	})
}

func TestStandardize(t *testing.T) {
	a, _ := array.FromSlice([]float64{2, 4, 4, 4, 5, 5, 7, 9, math.NaN()}, 9)
	out, err := Standardize()(a)
	require.NoError(t, err)
	// mean 5, population std 2
	assert.InDelta(t, -1.5, out.At(0), 1e-12)
	assert.InDelta(t, 2, out.At(7), 1e-12)
	assert.True(t, math.IsNaN(out.At(8)))

	flat, err := Standardize()(array.Full(3, 4))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0}, flat.Data())
}

func TestReorderBands(t *testing.T) {
	a, _ := array.FromSlice([]float64{1, 1, 2, 2, 3, 3}, 3, 1, 2)
	out, err := ReorderBands(2, 0)(a)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1, 2}, out.Shape())
	assert.Equal(t, []float64{3, 3, 1, 1}, out.Data())

	_, err = ReorderBands(3)(a)
	assert.True(t, errors.Is(err, geobatch.ErrInvalidParameter))
}

func TestExpandDims(t *testing.T) {
	out, err := ExpandDims(-1)(array.New(2, 3))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 1}, out.Shape())

	_, err = ExpandDims(5)(array.New(2, 3))
	assert.True(t, errors.Is(err, geobatch.ErrInvalidParameter))
}
