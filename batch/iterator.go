package batch

import (
	"context"
	"io"
	"iter"
	"time"

	"github.com/MasterOfBinary/geobatch"
	"github.com/MasterOfBinary/geobatch/array"
	"github.com/MasterOfBinary/geobatch/grid"
	"github.com/MasterOfBinary/geobatch/preprocess"
	"github.com/MasterOfBinary/geobatch/raster"
)

// Iterator yields the batches of one Flow. It is not safe for concurrent use
// and cannot be restarted.
type Iterator struct {
	ctx       context.Context
	table     *grid.Table
	view      raster.View
	transform raster.GeoTransform

	width, height int
	batchSize     int
	bands         []int
	scalar        bool
	pixel         bool
	nodata        float64
	pipeline      *preprocess.Pipeline

	logger Logger
	stats  StatsCollector

	pos    int
	closed bool
}

// Len returns the total number of batches.
func (it *Iterator) Len() int {
	return (it.table.Len() + it.batchSize - 1) / it.batchSize
}

// Samples returns the number of samples in the flow.
func (it *Iterator) Samples() int {
	return it.table.Len()
}

// Table returns the rows in the order they are delivered, after any shuffle.
func (it *Iterator) Table() *grid.Table {
	return it.table
}

// Next returns the next batch. It returns io.EOF once every sample has been
// delivered. The view is released as soon as the last batch is read, and on
// any error.
func (it *Iterator) Next() (*array.Array, error) {
	if it.closed {
		return nil, io.EOF
	}
	if it.pos >= it.table.Len() {
		it.Close()
		return nil, io.EOF
	}
	if err := it.ctx.Err(); err != nil {
		it.Close()
		return nil, err
	}

	start := time.Now()
	end := min(it.pos+it.batchSize, it.table.Len())
	it.stats.RecordBatchStart(end - it.pos)

	samples := make([]*array.Array, 0, end-it.pos)
	for i := it.pos; i < end; i++ {
		s, err := it.sample(i)
		if err != nil {
			it.logger.Error("sample %d: %v", i, err)
			it.Close()
			return nil, err
		}
		samples = append(samples, s)
	}
	it.pos = end

	out, err := array.Stack(samples)
	if err != nil {
		it.stats.RecordProcessorError()
		it.Close()
		return nil, geobatch.ProcessorError{Err: err}
	}
	it.stats.RecordBatchComplete(len(samples), time.Since(start))
	if it.pos >= it.table.Len() {
		it.Close()
	}
	return out, nil
}

func (it *Iterator) sample(i int) (*array.Array, error) {
	w, resize := sampleWindow(it.transform, it.table.Bound(i), it.width, it.height)

	a, err := it.view.Read(it.bands, w)
	switch {
	case err != nil:
		it.logger.Warn("sample %d: reading %v: %v, using nodata", i, w, err)
		it.stats.RecordSourceError()
		it.stats.RecordSampleDegraded()
		a = array.Full(it.nodata, len(it.bands), it.height, it.width)
	case resize:
		it.logger.Debug("sample %d: resizing %v to %dx%d", i, w, it.width, it.height)
		it.stats.RecordSampleRead()
		a = a.ResizeNearest(it.height, it.width)
	default:
		it.stats.RecordSampleRead()
	}

	if it.scalar {
		a = a.Index(0)
	} else if it.pixel && len(it.bands) > 1 {
		a = a.MoveAxis(0, 2)
	}

	a, err = it.pipeline.Apply(a)
	if err != nil {
		it.stats.RecordProcessorError()
		return nil, err
	}
	return a, nil
}

// Close releases the iterator's view. It is safe to call more than once.
func (it *Iterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	if it.view == nil {
		return nil
	}
	err := it.view.Close()
	it.view = nil
	return err
}

// All returns a range-over-func sequence of batches. The sequence stops
// after the first error; breaking out of the loop closes the iterator.
func (it *Iterator) All() iter.Seq2[*array.Array, error] {
	return func(yield func(*array.Array, error) bool) {
		defer it.Close()
		for {
			a, err := it.Next()
			if err == io.EOF {
				return
			}
			if !yield(a, err) || err != nil {
				return
			}
		}
	}
}
