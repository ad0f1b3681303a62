package batch

import "github.com/MasterOfBinary/geobatch/raster"

// Defaults used by the command line tools and by zero-valued options.
const (
	// DefaultBatchSize is the number of samples per batch when none is given.
	DefaultBatchSize = 32

	// DefaultResampling is the resampling used by a zero Config.
	DefaultResampling = raster.Nearest
)

// windowTolerance is how far, in pixels, a derived window may differ from
// the requested sample size and still be snapped to it instead of resized.
const windowTolerance = 1
