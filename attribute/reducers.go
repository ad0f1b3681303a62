package attribute

import (
	"math"

	"github.com/MasterOfBinary/geobatch"
	"github.com/MasterOfBinary/geobatch/array"
	"github.com/montanaflynn/stats"
)

// CountValue counts the cells equal to args[0], which must be a float64. A
// NaN value counts NaN cells.
func CountValue(a *array.Array, args ...interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, geobatch.InvalidParameter("CountValue takes one value, got %d", len(args))
	}
	v, ok := args[0].(float64)
	if !ok {
		return nil, geobatch.InvalidParameter("CountValue needs a float64, got %T", args[0])
	}
	return int64(a.Count(v)), nil
}

// Min returns the smallest cell.
func Min(a *array.Array, _ ...interface{}) (interface{}, error) {
	return reduce(a, stats.Min)
}

// Max returns the largest cell.
func Max(a *array.Array, _ ...interface{}) (interface{}, error) {
	return reduce(a, stats.Max)
}

// Mean returns the mean of the cells.
func Mean(a *array.Array, _ ...interface{}) (interface{}, error) {
	return reduce(a, stats.Mean)
}

// Std returns the population standard deviation of the cells.
func Std(a *array.Array, _ ...interface{}) (interface{}, error) {
	return reduce(a, stats.StandardDeviationPopulation)
}

// reduce applies fn to every cell. Any NaN cell makes the result NaN.
func reduce(a *array.Array, fn func(stats.Float64Data) (float64, error)) (interface{}, error) {
	data := a.Data()
	for _, v := range data {
		if math.IsNaN(v) {
			return math.NaN(), nil
		}
	}
	v, err := fn(data)
	if err != nil {
		return nil, err
	}
	return v, nil
}
