// Package attribute computes per-sample values and stores them as columns of
// a sample table.
//
// A Generator holds named callbacks. Fill reads every row of a table through
// a batch.Batcher one sample at a time, calls each callback on the sample and
// writes the results back as columns:
//
//	g := attribute.New()
//	_ = g.Stats()
//	_ = g.Nodata(-9999)
//	err := g.Fill(ctx, table, b, 64, 64)
//
// Samples are read exactly as Batcher.Flow reads them, so the attributes
// describe the arrays a model will see.
package attribute

import (
	"context"
	"sync"

	"github.com/MasterOfBinary/geobatch"
	"github.com/MasterOfBinary/geobatch/array"
	"github.com/MasterOfBinary/geobatch/batch"
	"github.com/MasterOfBinary/geobatch/grid"
)

// Func computes one value from a sample. The value must be a number, string
// or bool, and every row must produce the same kind.
type Func func(a *array.Array, args ...interface{}) (interface{}, error)

type callback struct {
	name string
	fn   Func
	args []interface{}
}

// Generator is an ordered set of named callbacks. It is safe for concurrent
// use.
type Generator struct {
	mu        sync.RWMutex
	callbacks []callback
}

// New returns an empty Generator.
func New() *Generator {
	return &Generator{}
}

// Append registers fn under name with args bound after the sample. A name
// that is already registered is replaced in place.
func (g *Generator) Append(name string, fn Func, args ...interface{}) error {
	if name == "" {
		return geobatch.InvalidParameter("attribute name cannot be empty")
	}
	if fn == nil {
		return geobatch.InvalidParameter("attribute %q has no function", name)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	c := callback{name: name, fn: fn, args: args}
	for i := range g.callbacks {
		if g.callbacks[i].name == name {
			g.callbacks[i] = c
			return nil
		}
	}
	g.callbacks = append(g.callbacks, c)
	return nil
}

// Names returns the registered names in order.
func (g *Generator) Names() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	names := make([]string, len(g.callbacks))
	for i, c := range g.callbacks {
		names[i] = c.name
	}
	return names
}

// Nodata registers "nodata", the number of cells equal to value.
func (g *Generator) Nodata(value float64) error {
	return g.Append("nodata", CountValue, value)
}

// MinMax registers "min" and "max".
func (g *Generator) MinMax() error {
	if err := g.Append("min", Min); err != nil {
		return err
	}
	return g.Append("max", Max)
}

// Stats registers "min", "max", "mean" and "std".
func (g *Generator) Stats() error {
	if err := g.MinMax(); err != nil {
		return err
	}
	if err := g.Append("mean", Mean); err != nil {
		return err
	}
	return g.Append("std", Std)
}

// Fill reads every row of table through b as a width x height sample and
// sets one column per callback, overwriting columns of the same name.
// Samples are read in table order with a batch size of one whatever the
// Batcher's shuffle setting is. No column is written until every row has
// been read.
func (g *Generator) Fill(ctx context.Context, table *grid.Table, b *batch.Batcher, width, height int) error {
	if table == nil || b == nil {
		return geobatch.InvalidParameter("Fill needs a sample table and a batcher")
	}

	g.mu.RLock()
	callbacks := append([]callback(nil), g.callbacks...)
	g.mu.RUnlock()

	it, err := b.Flow(ctx, table, width, height, 1, batch.WithShuffle(false))
	if err != nil {
		return err
	}
	defer it.Close()

	columns := make([][]interface{}, len(callbacks))
	for i := range columns {
		columns[i] = make([]interface{}, 0, table.Len())
	}

	row := 0
	for a, err := range it.All() {
		if err != nil {
			return err
		}
		sample := a.Index(0)
		for i, c := range callbacks {
			v, err := c.fn(sample, c.args...)
			if err != nil {
				return geobatch.ProcessorError{Name: c.name, Err: err}
			}
			columns[i] = append(columns[i], v)
		}
		row++
	}
	if row != table.Len() {
		return geobatch.InvalidParameter("read %d of %d samples", row, table.Len())
	}

	for i, c := range callbacks {
		if err := table.SetColumn(c.name, columns[i]); err != nil {
			return err
		}
	}
	return nil
}
