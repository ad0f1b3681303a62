package batch

import (
	"runtime"

	"github.com/MasterOfBinary/geobatch"
	"github.com/dustin/go-humanize"
)

// bytesPerValue is the size of one sample value.
const bytesPerValue = 8

// ResourceLimits bounds the memory a flow may allocate. A zero field means
// no limit.
type ResourceLimits struct {
	// MaxBatchBytes limits the size of one stacked batch.
	MaxBatchBytes int64
}

// DefaultResourceLimits allows a batch to use a quarter of the memory the
// runtime has obtained from the system, with a floor of 256 MiB.
func DefaultResourceLimits() ResourceLimits {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	limit := int64(ms.Sys / 4)
	if floor := int64(256 << 20); limit < floor {
		limit = floor
	}
	return ResourceLimits{MaxBatchBytes: limit}
}

// Validate checks the limits.
func (r ResourceLimits) Validate() error {
	if r.MaxBatchBytes < 0 {
		return geobatch.InvalidParameter("MaxBatchBytes cannot be negative")
	}
	return nil
}

// BatchBytes estimates the memory of a batch before preprocessing.
func BatchBytes(batchSize, bands, width, height int) int64 {
	return int64(batchSize) * int64(bands) * int64(width) * int64(height) * bytesPerValue
}

func (r ResourceLimits) checkBatch(batchSize, bands, width, height int) error {
	if r.MaxBatchBytes == 0 {
		return nil
	}
	if n := BatchBytes(batchSize, bands, width, height); n > r.MaxBatchBytes {
		return geobatch.InvalidParameter("batch of %d x %d x %dx%d needs %s, limit is %s",
			batchSize, bands, height, width, humanize.IBytes(uint64(n)), humanize.IBytes(uint64(r.MaxBatchBytes)))
	}
	return nil
}
