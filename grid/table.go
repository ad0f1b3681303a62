package grid

import (
	"fmt"
	"math/rand"

	"github.com/MasterOfBinary/geobatch"
	"github.com/MasterOfBinary/geobatch/crs"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"github.com/pkg/errors"
)

// Table is an ordered collection of sample geometries sharing one CRS, with
// named attribute columns. Column values are float64, int64, string, bool or
// nil for a missing value.
type Table struct {
	crs   crs.CRS
	geoms []orb.Geometry
	cols  []column
}

type column struct {
	name   string
	values []interface{}
}

// NewTable returns a table holding geoms in the given CRS. The slice is
// copied.
func NewTable(c crs.CRS, geoms []orb.Geometry) *Table {
	return &Table{
		crs:   c,
		geoms: append([]orb.Geometry(nil), geoms...),
	}
}

// CRS returns the table's coordinate reference system.
func (t *Table) CRS() crs.CRS {
	return t.crs
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.geoms)
}

// Geometry returns the geometry of row i.
func (t *Table) Geometry(i int) orb.Geometry {
	return t.geoms[i]
}

// Bound returns the bounding box of row i.
func (t *Table) Bound(i int) orb.Bound {
	return t.geoms[i].Bound()
}

// TotalBounds returns the union of every row's bounding box.
func (t *Table) TotalBounds() (Extent, error) {
	if len(t.geoms) == 0 {
		return Extent{}, errors.Wrap(geobatch.ErrInvalidParameter, "empty table has no bounds")
	}
	b := t.geoms[0].Bound()
	for _, g := range t.geoms[1:] {
		b = b.Union(g.Bound())
	}
	return ExtentFromBound(b), nil
}

// SampleSize returns the width and height of the first row.
func (t *Table) SampleSize() (width, height float64, err error) {
	if len(t.geoms) == 0 {
		return 0, 0, errors.Wrap(geobatch.ErrInvalidParameter, "empty table has no sample size")
	}
	b := t.geoms[0].Bound()
	return b.Max[0] - b.Min[0], b.Max[1] - b.Min[1], nil
}

// Columns returns the column names in insertion order.
func (t *Table) Columns() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.name
	}
	return names
}

// Column returns the values of a column.
func (t *Table) Column(name string) ([]interface{}, bool) {
	for _, c := range t.cols {
		if c.name == name {
			return c.values, true
		}
	}
	return nil, false
}

// SetColumn adds a column, or overwrites an existing column of the same name
// in place. values must have one entry per row and a single value kind.
func (t *Table) SetColumn(name string, values []interface{}) error {
	if name == "" {
		return errors.Wrap(geobatch.ErrInvalidParameter, "column name is empty")
	}
	if len(values) != len(t.geoms) {
		return errors.Wrapf(geobatch.ErrInvalidParameter,
			"column %q has %d values for %d rows", name, len(values), len(t.geoms))
	}

	normalized := make([]interface{}, len(values))
	var kind string
	for i, v := range values {
		nv, err := normalize(v)
		if err != nil {
			return errors.Wrapf(err, "column %q row %d", name, i)
		}
		if nv == nil {
			continue
		}
		k := kindOf(nv)
		if kind == "" {
			kind = k
		} else if k != kind {
			return errors.Wrapf(geobatch.ErrInvalidParameter,
				"column %q mixes %s and %s values", name, kind, k)
		}
		normalized[i] = nv
	}

	for i := range t.cols {
		if t.cols[i].name == name {
			t.cols[i].values = normalized
			return nil
		}
	}
	t.cols = append(t.cols, column{name: name, values: normalized})
	return nil
}

// Take returns a new table whose row i is row perm[i] of t.
func (t *Table) Take(perm []int) (*Table, error) {
	out := &Table{
		crs:   t.crs,
		geoms: make([]orb.Geometry, len(perm)),
		cols:  make([]column, len(t.cols)),
	}
	for i, p := range perm {
		if p < 0 || p >= len(t.geoms) {
			return nil, errors.Wrapf(geobatch.ErrInvalidParameter, "row %d out of range", p)
		}
		out.geoms[i] = t.geoms[p]
	}
	for c, col := range t.cols {
		values := make([]interface{}, len(perm))
		for i, p := range perm {
			values[i] = col.values[p]
		}
		out.cols[c] = column{name: col.name, values: values}
	}
	return out, nil
}

// Shuffle returns a copy of t with its rows in random order.
func (t *Table) Shuffle(rng *rand.Rand) *Table {
	out, _ := t.Take(rng.Perm(len(t.geoms)))
	return out
}

// Reproject returns a copy of t with every geometry transformed to the given
// CRS.
func (t *Table) Reproject(to crs.CRS) (*Table, error) {
	fn, err := crs.Transformer(t.crs, to)
	if err != nil {
		return nil, err
	}

	out, _ := t.Take(identity(len(t.geoms)))
	out.crs = to
	proj := func(p orb.Point) orb.Point {
		x, y := fn(p[0], p[1])
		return orb.Point{x, y}
	}
	for i, g := range out.geoms {
		out.geoms[i] = project.Geometry(orb.Clone(g), proj)
	}
	return out, nil
}

func identity(n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	return perm
}

func normalize(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case string:
		return x, nil
	case bool:
		return x, nil
	default:
		return nil, errors.Wrapf(geobatch.ErrInvalidParameter, "unsupported column value type %T", v)
	}
}

const (
	kindFloat  = "float"
	kindInt    = "int"
	kindString = "string"
	kindBool   = "bool"
)

func kindOf(v interface{}) string {
	switch v.(type) {
	case float64:
		return kindFloat
	case int64:
		return kindInt
	case string:
		return kindString
	case bool:
		return kindBool
	default:
		panic(fmt.Sprintf("grid: unexpected column value %T", v))
	}
}
