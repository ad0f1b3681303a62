package batch

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// StatsCollector receives counters from running flows. It is optional;
// without one nothing is recorded.
type StatsCollector interface {
	// RecordBatchStart is called before the samples of a batch are read.
	RecordBatchStart(batchSize int)

	// RecordBatchComplete is called once a batch has been stacked.
	RecordBatchComplete(batchSize int, duration time.Duration)

	// RecordSampleRead is called for each sample read from the raster.
	RecordSampleRead()

	// RecordSampleDegraded is called when a sample window could not be read
	// and was replaced by nodata.
	RecordSampleDegraded()

	// RecordSourceError is called when the raster fails to open a view or
	// read a window.
	RecordSourceError()

	// RecordProcessorError is called when a preprocessing callback fails.
	RecordProcessorError()

	// GetStats returns a snapshot of the counters.
	GetStats() Stats
}

// Stats is a snapshot of batching counters.
type Stats struct {
	BatchesStarted   uint64
	BatchesCompleted uint64
	SamplesRead      uint64
	SamplesDegraded  uint64
	SourceErrors     uint64
	ProcessorErrors  uint64

	// TotalProcessingTime is the time spent building completed batches.
	TotalProcessingTime time.Duration
	MinBatchTime        time.Duration
	MaxBatchTime        time.Duration

	MinBatchSize int
	MaxBatchSize int

	StartTime      time.Time
	LastUpdateTime time.Time
}

// NoOpStatsCollector discards every record. It is the default
// StatsCollector.
type NoOpStatsCollector struct{}

// RecordBatchStart implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordBatchStart(batchSize int) {}

// RecordBatchComplete implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordBatchComplete(batchSize int, duration time.Duration) {}

// RecordSampleRead implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordSampleRead() {}

// RecordSampleDegraded implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordSampleDegraded() {}

// RecordSourceError implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordSourceError() {}

// RecordProcessorError implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordProcessorError() {}

// GetStats implements the StatsCollector interface.
func (n *NoOpStatsCollector) GetStats() Stats {
	return Stats{}
}

// BasicStatsCollector keeps counters in memory. It is safe for concurrent
// use.
type BasicStatsCollector struct {
	mu    sync.RWMutex
	stats Stats

	batchesStarted   uint64
	batchesCompleted uint64
	samplesRead      uint64
	samplesDegraded  uint64
	sourceErrors     uint64
	processorErrors  uint64
}

// NewBasicStatsCollector returns a collector whose clock starts now.
func NewBasicStatsCollector() *BasicStatsCollector {
	now := time.Now()
	return &BasicStatsCollector{
		stats: Stats{
			StartTime:      now,
			LastUpdateTime: now,
			MinBatchTime:   time.Duration(math.MaxInt64),
		},
	}
}

// RecordBatchStart implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordBatchStart(batchSize int) {
	atomic.AddUint64(&b.batchesStarted, 1)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats.LastUpdateTime = time.Now()
	if batchSize < b.stats.MinBatchSize || b.stats.MinBatchSize == 0 {
		b.stats.MinBatchSize = batchSize
	}
	if batchSize > b.stats.MaxBatchSize {
		b.stats.MaxBatchSize = batchSize
	}
}

// RecordBatchComplete implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordBatchComplete(batchSize int, duration time.Duration) {
	atomic.AddUint64(&b.batchesCompleted, 1)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats.LastUpdateTime = time.Now()
	b.stats.TotalProcessingTime += duration
	if duration < b.stats.MinBatchTime {
		b.stats.MinBatchTime = duration
	}
	if duration > b.stats.MaxBatchTime {
		b.stats.MaxBatchTime = duration
	}
}

// RecordSampleRead implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordSampleRead() {
	atomic.AddUint64(&b.samplesRead, 1)
}

// RecordSampleDegraded implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordSampleDegraded() {
	atomic.AddUint64(&b.samplesDegraded, 1)
}

// RecordSourceError implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordSourceError() {
	atomic.AddUint64(&b.sourceErrors, 1)
}

// RecordProcessorError implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordProcessorError() {
	atomic.AddUint64(&b.processorErrors, 1)
}

// GetStats implements the StatsCollector interface.
func (b *BasicStatsCollector) GetStats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stats := b.stats
	stats.BatchesStarted = atomic.LoadUint64(&b.batchesStarted)
	stats.BatchesCompleted = atomic.LoadUint64(&b.batchesCompleted)
	stats.SamplesRead = atomic.LoadUint64(&b.samplesRead)
	stats.SamplesDegraded = atomic.LoadUint64(&b.samplesDegraded)
	stats.SourceErrors = atomic.LoadUint64(&b.sourceErrors)
	stats.ProcessorErrors = atomic.LoadUint64(&b.processorErrors)
	if stats.BatchesCompleted == 0 {
		stats.MinBatchTime = 0
	}
	return stats
}

// Samples returns the number of samples delivered, read or degraded.
func (s *Stats) Samples() uint64 {
	return s.SamplesRead + s.SamplesDegraded
}

// AverageBatchTime returns the mean time to build a batch, or 0.
func (s *Stats) AverageBatchTime() time.Duration {
	if s.BatchesCompleted == 0 {
		return 0
	}
	return s.TotalProcessingTime / time.Duration(s.BatchesCompleted)
}

// AverageBatchSize returns the mean number of samples per completed batch,
// or 0.
func (s *Stats) AverageBatchSize() float64 {
	if s.BatchesCompleted == 0 {
		return 0
	}
	return float64(s.Samples()) / float64(s.BatchesCompleted)
}

// DegradedRate returns the percentage of samples replaced by nodata.
func (s *Stats) DegradedRate() float64 {
	total := s.Samples()
	if total == 0 {
		return 0
	}
	return float64(s.SamplesDegraded) / float64(total) * 100
}

// Duration returns the time between the first and latest record.
func (s *Stats) Duration() time.Duration {
	return s.LastUpdateTime.Sub(s.StartTime)
}
