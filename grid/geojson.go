package grid

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"

	"github.com/MasterOfBinary/geobatch"
	"github.com/MasterOfBinary/geobatch/crs"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// document is a GeoJSON FeatureCollection with the named-CRS member and a
// column schema so attribute types survive a round trip.
type document struct {
	Type     string             `json:"type"`
	CRS      *crsMember         `json:"crs,omitempty"`
	Columns  []columnSchema     `json:"columns,omitempty"`
	Features []*geojson.Feature `json:"features"`
}

// rawDocument is document with the features left encoded.
type rawDocument struct {
	Type     string            `json:"type"`
	CRS      *crsMember        `json:"crs,omitempty"`
	Columns  []columnSchema    `json:"columns,omitempty"`
	Features []json.RawMessage `json:"features"`
}

type crsMember struct {
	Type       string `json:"type"`
	Properties struct {
		Name string `json:"name"`
	} `json:"properties"`
}

type columnSchema struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Save writes t to path as GeoJSON.
func Save(fs afero.Fs, path string, t *Table) error {
	data, err := Marshal(t)
	if err != nil {
		return err
	}
	return errors.Wrapf(afero.WriteFile(fs, path, data, 0644), "writing %s", path)
}

// Load reads a table written by Save. Plain GeoJSON feature collections are
// accepted too; their columns are taken from the first feature's properties.
func Load(fs afero.Fs, path string) (*Table, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	t, err := Unmarshal(data)
	return t, errors.Wrapf(err, "decoding %s", path)
}

// Marshal encodes t as a GeoJSON FeatureCollection.
func Marshal(t *Table) ([]byte, error) {
	doc := document{
		Type:     "FeatureCollection",
		Features: make([]*geojson.Feature, t.Len()),
	}
	if !t.crs.IsZero() {
		doc.CRS = &crsMember{Type: "name"}
		doc.CRS.Properties.Name = t.crs.String()
	}
	for _, c := range t.cols {
		doc.Columns = append(doc.Columns, columnSchema{Name: c.name, Type: columnKind(c.values)})
	}

	for i, g := range t.geoms {
		f := geojson.NewFeature(g)
		for _, c := range t.cols {
			f.Properties[c.name] = encodeValue(c.values[i])
		}
		doc.Features[i] = f
	}
	return json.Marshal(doc)
}

// Unmarshal decodes a GeoJSON FeatureCollection.
func Unmarshal(data []byte) (*Table, error) {
	var doc rawDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(geobatch.ErrInvalidParameter, err.Error())
	}
	if doc.Type != "FeatureCollection" {
		return nil, errors.Wrapf(geobatch.ErrInvalidParameter, "expected a FeatureCollection, got %q", doc.Type)
	}

	var c crs.CRS
	if doc.CRS != nil {
		var err error
		if c, err = crs.Parse(doc.CRS.Properties.Name); err != nil {
			return nil, err
		}
	}

	geoms := make([]orb.Geometry, len(doc.Features))
	props := make([]map[string]interface{}, len(doc.Features))
	for i, raw := range doc.Features {
		f, err := geojson.UnmarshalFeature(raw)
		if err != nil {
			return nil, errors.Wrapf(geobatch.ErrInvalidParameter, "feature %d: %v", i, err)
		}
		if f.Geometry == nil {
			return nil, errors.Wrapf(geobatch.ErrInvalidParameter, "feature %d has no geometry", i)
		}
		geoms[i] = f.Geometry
		if props[i], err = decodeProperties(raw); err != nil {
			return nil, errors.Wrapf(err, "feature %d", i)
		}
	}
	t := NewTable(c, geoms)

	schema := doc.Columns
	if schema == nil && len(props) > 0 {
		schema = inferSchema(props[0])
	}
	for _, s := range schema {
		values := make([]interface{}, len(props))
		for i, p := range props {
			v, err := decodeValue(p[s.Name], s.Type)
			if err != nil {
				return nil, errors.Wrapf(err, "feature %d column %q", i, s.Name)
			}
			values[i] = v
		}
		if err := t.SetColumn(s.Name, values); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// decodeProperties keeps numbers as json.Number so int64 columns survive
// unchanged.
func decodeProperties(raw json.RawMessage) (map[string]interface{}, error) {
	var f struct {
		Properties map[string]interface{} `json:"properties"`
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Wrap(geobatch.ErrInvalidParameter, err.Error())
	}
	return f.Properties, nil
}

func columnKind(values []interface{}) string {
	for _, v := range values {
		if v != nil {
			return kindOf(v)
		}
	}
	return kindFloat
}

func inferSchema(props map[string]interface{}) []columnSchema {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	schema := make([]columnSchema, 0, len(names))
	for _, name := range names {
		kind := kindFloat
		switch props[name].(type) {
		case string:
			kind = kindString
		case bool:
			kind = kindBool
		}
		schema = append(schema, columnSchema{Name: name, Type: kind})
	}
	return schema
}

// encodeValue maps non-finite floats to strings, which JSON cannot carry as
// numbers.
func encodeValue(v interface{}) interface{} {
	f, ok := v.(float64)
	if !ok || !(math.IsNaN(f) || math.IsInf(f, 0)) {
		return v
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func decodeValue(v interface{}, kind string) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch kind {
	case kindFloat:
		switch x := v.(type) {
		case json.Number:
			f, err := x.Float64()
			if err != nil {
				return nil, errors.Wrap(geobatch.ErrInvalidParameter, err.Error())
			}
			return f, nil
		case string:
			f, err := strconv.ParseFloat(x, 64)
			if err != nil {
				return nil, errors.Wrap(geobatch.ErrInvalidParameter, err.Error())
			}
			return f, nil
		}
	case kindInt:
		if x, ok := v.(json.Number); ok {
			if n, err := x.Int64(); err == nil {
				return n, nil
			}
			if f, err := x.Float64(); err == nil && f == math.Trunc(f) {
				return int64(f), nil
			}
		}
	case kindString:
		if x, ok := v.(string); ok {
			return x, nil
		}
	case kindBool:
		if x, ok := v.(bool); ok {
			return x, nil
		}
	default:
		return nil, errors.Wrapf(geobatch.ErrInvalidParameter, "unknown column type %q", kind)
	}
	return nil, errors.Wrapf(geobatch.ErrInvalidParameter, "value %v is not a %s", v, kind)
}
