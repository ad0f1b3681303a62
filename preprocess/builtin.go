package preprocess

import (
	"math"

	"github.com/MasterOfBinary/geobatch"
	"github.com/MasterOfBinary/geobatch/array"
	"github.com/montanaflynn/stats"
)

// Normalize scales values to (0, 1) given the sample set's min and max. A
// 2-D sample is scaled whole; otherwise only plane band of the first axis is.
func Normalize(min, max float64, band int) Func {
	return func(a *array.Array, _ ...interface{}) (*array.Array, error) {
		span := max - min
		if span == 0 || math.IsNaN(span) {
			return nil, geobatch.InvalidParameter("cannot normalize with min %v and max %v", min, max)
		}
		scale := func(v float64) float64 { return (v - min) / span }

		switch a.Dims() {
		case 2:
			return a.Map(scale), nil
		case 3:
			if band < 0 || band >= a.Dim(0) {
				return nil, geobatch.InvalidParameter("band %d out of range for shape %v", band, a.Shape())
			}
			out := a.Clone()
			plane := a.Dim(1) * a.Dim(2)
			data := out.Data()[band*plane : (band+1)*plane]
			for i, v := range data {
				data[i] = scale(v)
			}
			return out, nil
		default:
			return nil, geobatch.InvalidParameter("cannot normalize shape %v", a.Shape())
		}
	}
}

// Standardize rescales the sample to zero mean and unit standard deviation.
// NaN values are ignored when computing the moments and stay NaN.
func Standardize() Func {
	return func(a *array.Array, _ ...interface{}) (*array.Array, error) {
		valid := make(stats.Float64Data, 0, a.Size())
		for _, v := range a.Data() {
			if !math.IsNaN(v) {
				valid = append(valid, v)
			}
		}
		if len(valid) == 0 {
			return a.Clone(), nil
		}

		mean, err := stats.Mean(valid)
		if err != nil {
			return nil, err
		}
		std, err := stats.StandardDeviationPopulation(valid)
		if err != nil {
			return nil, err
		}
		if std == 0 {
			std = 1
		}
		return a.Map(func(v float64) float64 { return (v - mean) / std }), nil
	}
}

// ReorderBands keeps the planes of the first axis listed in order, 0-based.
func ReorderBands(order ...int) Func {
	return func(a *array.Array, _ ...interface{}) (*array.Array, error) {
		if a.Dims() < 2 || len(order) == 0 {
			return nil, geobatch.InvalidParameter("cannot reorder shape %v by %v", a.Shape(), order)
		}
		planes := make([]*array.Array, len(order))
		for i, b := range order {
			if b < 0 || b >= a.Dim(0) {
				return nil, geobatch.InvalidParameter("band %d out of range for shape %v", b, a.Shape())
			}
			planes[i] = a.Index(b)
		}
		return array.Stack(planes)
	}
}

// ExpandDims inserts an axis of length one. Negative axes count from the end.
func ExpandDims(axis int) Func {
	return func(a *array.Array, _ ...interface{}) (*array.Array, error) {
		if axis > a.Dims() || axis < -a.Dims()-1 {
			return nil, geobatch.InvalidParameter("axis %d out of range for shape %v", axis, a.Shape())
		}
		return a.ExpandDims(axis), nil
	}
}
