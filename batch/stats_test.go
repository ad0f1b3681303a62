package batch_test

import (
	"sync"
	"testing"
	"time"

	"github.com/MasterOfBinary/geobatch/batch"
)

func TestNoOpStatsCollector(t *testing.T) {
	stats := &batch.NoOpStatsCollector{}

	stats.RecordBatchStart(10)
	stats.RecordBatchComplete(10, time.Second)
	stats.RecordSampleRead()
	stats.RecordSampleDegraded()
	stats.RecordSourceError()
	stats.RecordProcessorError()

	s := stats.GetStats()
	if s.BatchesStarted != 0 || s.SamplesRead != 0 {
		t.Error("NoOpStatsCollector returned non-zero stats")
	}
}

func TestBasicStatsCollector(t *testing.T) {
	stats := batch.NewBasicStatsCollector()

	stats.RecordBatchStart(5)
	stats.RecordBatchComplete(5, 100*time.Millisecond)
	stats.RecordBatchStart(3)
	stats.RecordBatchComplete(3, 50*time.Millisecond)
	stats.RecordBatchStart(7)
	stats.RecordBatchComplete(7, 150*time.Millisecond)

	for i := 0; i < 13; i++ {
		stats.RecordSampleRead()
	}
	for i := 0; i < 2; i++ {
		stats.RecordSampleDegraded()
		stats.RecordSourceError()
	}
	stats.RecordProcessorError()

	s := stats.GetStats()
	if s.BatchesStarted != 3 || s.BatchesCompleted != 3 {
		t.Errorf("batches started/completed = %d/%d, want 3/3", s.BatchesStarted, s.BatchesCompleted)
	}
	if s.SamplesRead != 13 || s.SamplesDegraded != 2 {
		t.Errorf("samples read/degraded = %d/%d, want 13/2", s.SamplesRead, s.SamplesDegraded)
	}
	if s.SourceErrors != 2 || s.ProcessorErrors != 1 {
		t.Errorf("source/processor errors = %d/%d, want 2/1", s.SourceErrors, s.ProcessorErrors)
	}
	if s.MinBatchTime != 50*time.Millisecond || s.MaxBatchTime != 150*time.Millisecond {
		t.Errorf("batch time range = %v..%v, want 50ms..150ms", s.MinBatchTime, s.MaxBatchTime)
	}
	if s.TotalProcessingTime != 300*time.Millisecond {
		t.Errorf("TotalProcessingTime = %v, want 300ms", s.TotalProcessingTime)
	}
	if s.MinBatchSize != 3 || s.MaxBatchSize != 7 {
		t.Errorf("batch size range = %d..%d, want 3..7", s.MinBatchSize, s.MaxBatchSize)
	}
	if got := s.AverageBatchSize(); got != 5 {
		t.Errorf("AverageBatchSize() = %v, want 5", got)
	}
}

func TestBasicStatsCollector_Concurrent(t *testing.T) {
	stats := batch.NewBasicStatsCollector()

	var wg sync.WaitGroup
	const goroutines = 10
	const operations = 100

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < operations; j++ {
				stats.RecordBatchStart(id + j)
				stats.RecordSampleRead()
				stats.RecordBatchComplete(id+j, time.Duration(j)*time.Millisecond)
				if j%10 == 0 {
					stats.RecordSampleDegraded()
				}
			}
		}(i)
	}
	wg.Wait()

	s := stats.GetStats()
	want := uint64(goroutines * operations)
	if s.BatchesStarted != want || s.BatchesCompleted != want || s.SamplesRead != want {
		t.Errorf("got %d/%d/%d, want %d each", s.BatchesStarted, s.BatchesCompleted, s.SamplesRead, want)
	}
	if s.SamplesDegraded != goroutines*10 {
		t.Errorf("SamplesDegraded = %d, want %d", s.SamplesDegraded, goroutines*10)
	}
}

func TestStats_CalculatedMetrics(t *testing.T) {
	tests := []struct {
		name         string
		stats        batch.Stats
		avgBatchTime time.Duration
		avgBatchSize float64
		degraded     float64
	}{
		{
			name: "normal stats",
			stats: batch.Stats{
				BatchesCompleted:    5,
				SamplesRead:         45,
				SamplesDegraded:     5,
				TotalProcessingTime: 500 * time.Millisecond,
			},
			avgBatchTime: 100 * time.Millisecond,
			avgBatchSize: 10.0,
			degraded:     10.0,
		},
		{
			name:  "no batches completed",
			stats: batch.Stats{},
		},
		{
			name:     "all degraded",
			stats:    batch.Stats{SamplesDegraded: 10},
			degraded: 100.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stats.AverageBatchTime(); got != tt.avgBatchTime {
				t.Errorf("AverageBatchTime() = %v, want %v", got, tt.avgBatchTime)
			}
			if got := tt.stats.AverageBatchSize(); got != tt.avgBatchSize {
				t.Errorf("AverageBatchSize() = %v, want %v", got, tt.avgBatchSize)
			}
			if got := tt.stats.DegradedRate(); got != tt.degraded {
				t.Errorf("DegradedRate() = %v, want %v", got, tt.degraded)
			}
		})
	}
}

func TestStats_Duration(t *testing.T) {
	start := time.Now()
	stats := batch.Stats{
		StartTime:      start,
		LastUpdateTime: start.Add(5 * time.Second),
	}
	if d := stats.Duration(); d != 5*time.Second {
		t.Errorf("Duration() = %v, want 5s", d)
	}
}
