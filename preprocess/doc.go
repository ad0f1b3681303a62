// Package preprocess holds the ordered, named callbacks applied to every
// sample before it is stacked into a batch, along with a few common ones:
//
//   - Normalize: scales one band (or a 2-D sample) to (0, 1) from known bounds
//   - Standardize: subtracts the mean and divides by the standard deviation
//   - ReorderBands: selects and reorders planes along the first axis
//   - ExpandDims: inserts an axis of length one
//
// Basic usage:
//
//	p := preprocess.New()
//	p.Append("scale", preprocess.Normalize(0, 255, 0))
//	p.Append("channels", preprocess.ExpandDims(-1))
//	out, err := p.Apply(sample)
//
// Appending a name that already exists replaces the callback in place, so the
// order of the pipeline is the order names were first added.
package preprocess
