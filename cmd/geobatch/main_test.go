package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/MasterOfBinary/geobatch"
	"github.com/MasterOfBinary/geobatch/crs"
	"github.com/MasterOfBinary/geobatch/export"
	"github.com/MasterOfBinary/geobatch/grid"
	"github.com/MasterOfBinary/geobatch/raster"
	"github.com/MasterOfBinary/geobatch/raster/memory"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// 100 x 100 map units at 1 unit per pixel, and the same area at 2.
	for name, res := range map[string]float64{"cli-fine": 1, "cli-coarse": 2} {
		n := int(100 / res)
		r, err := memory.New(crs.WebMercator, raster.FromOrigin(0, 100, res, res), n, n, 2, -1)
		if err != nil {
			panic(err)
		}
		_ = r.SetBandFunc(1, func(col, row int) float64 {
			if col >= n/2 {
				return -1
			}
			return float64(col)
		})
		_ = r.SetBandFunc(2, func(col, row int) float64 { return float64(row) })
		memory.Put(name, r)
	}
}

func run(fs afero.Fs, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCmd(fs, io.Discard, io.Discard)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGrid(t *testing.T) {
	t.Run("from raster", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		out, err := run(fs, "grid", "/tiles.geojson", "25", "25", "--raster", "mem://cli-fine")
		require.NoError(t, err)
		assert.Contains(t, out, "wrote 16 samples to /tiles.geojson")

		table, err := grid.Load(fs, "/tiles.geojson")
		require.NoError(t, err)
		assert.Equal(t, 16, table.Len())
		assert.Equal(t, crs.WebMercator, table.CRS())
	})

	t.Run("size in pixels", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		_, err := run(fs, "grid", "/tiles.geojson", "25", "25", "--raster", "mem://cli-coarse", "--size-in-pixels")
		require.NoError(t, err)

		table, err := grid.Load(fs, "/tiles.geojson")
		require.NoError(t, err)
		assert.Equal(t, 4, table.Len())
		w, h, err := table.SampleSize()
		require.NoError(t, err)
		assert.Equal(t, 50.0, w)
		assert.Equal(t, 50.0, h)
	})

	t.Run("overlap", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		_, err := run(fs, "grid", "/tiles.geojson", "25", "25", "-r", "mem://cli-fine", "--overlap", "50")
		require.NoError(t, err)
		table, err := grid.Load(fs, "/tiles.geojson")
		require.NoError(t, err)
		assert.Equal(t, 49, table.Len())
	})

	t.Run("extent reprojected", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		_, err := run(fs, "grid", "/tiles.geojson", "5", "5",
			"--extent", "0,0,10,10", "--extent-crs", "epsg:4326", "--target-crs", "EPSG:3857")
		require.NoError(t, err)

		table, err := grid.Load(fs, "/tiles.geojson")
		require.NoError(t, err)
		assert.Equal(t, 4, table.Len())
		assert.Equal(t, crs.WebMercator, table.CRS())
		ext, err := table.TotalBounds()
		require.NoError(t, err)
		assert.InDelta(t, 1113194.9, ext.XMax, 0.1)
	})

	t.Run("random", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		_, err := run(fs, "grid", "/a.geojson", "10", "10", "-r", "mem://cli-fine", "--random-count", "10", "--seed", "3")
		require.NoError(t, err)
		_, err = run(fs, "grid", "/b.geojson", "10", "10", "-r", "mem://cli-fine", "--random-count", "10", "--seed", "3")
		require.NoError(t, err)

		a, err := afero.ReadFile(fs, "/a.geojson")
		require.NoError(t, err)
		b, err := afero.ReadFile(fs, "/b.geojson")
		require.NoError(t, err)
		assert.Equal(t, a, b, "same seed same grid")

		table, err := grid.Load(fs, "/a.geojson")
		require.NoError(t, err)
		assert.Equal(t, 10, table.Len())
	})

	invalid := map[string][]string{
		"no extent":             {"grid", "/t.geojson", "5", "5"},
		"short extent":          {"grid", "/t.geojson", "5", "5", "-e", "0,0,10"},
		"overlap 100":           {"grid", "/t.geojson", "5", "5", "-e", "0,0,10,10", "--overlap", "100"},
		"pixels without raster": {"grid", "/t.geojson", "5", "5", "-e", "0,0,10,10", "--size-in-pixels"},
		"bad width":             {"grid", "/t.geojson", "five", "5", "-e", "0,0,10,10"},
		"tile too large":        {"grid", "/t.geojson", "50", "5", "-e", "0,0,10,10"},
	}
	for name, args := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := run(afero.NewMemMapFs(), args...)
			assert.True(t, errors.Is(err, geobatch.ErrInvalidParameter), "got %v", err)
		})
	}

	t.Run("missing raster", func(t *testing.T) {
		_, err := run(afero.NewMemMapFs(), "grid", "/t.geojson", "5", "5", "-r", "mem://nope")
		assert.True(t, errors.Is(err, geobatch.ErrSourceUnavailable))
	})
}

func TestAttrs(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := run(fs, "grid", "/tiles.geojson", "50", "50", "-r", "mem://cli-fine")
	require.NoError(t, err)

	out, err := run(fs, "attrs", "/tiles.geojson", "-r", "mem://cli-fine", "--width", "10", "--height", "10",
		"--band", "1", "--stats", "--nodata", "-o", "/annotated.geojson")
	require.NoError(t, err)
	assert.Contains(t, out, "added min, max, mean, std, nodata to 4 samples in /annotated.geojson")

	plain, err := grid.Load(fs, "/tiles.geojson")
	require.NoError(t, err)
	assert.Empty(t, plain.Columns(), "input is left alone with --output")

	table, err := grid.Load(fs, "/annotated.geojson")
	require.NoError(t, err)
	assert.Equal(t, []string{"min", "max", "mean", "std", "nodata"}, table.Columns())

	counts, _ := table.Column("nodata")
	for i := 0; i < table.Len(); i++ {
		if table.Bound(i).Min[0] >= 50 {
			assert.Equal(t, int64(100), counts[i])
		} else {
			assert.Equal(t, int64(0), counts[i])
		}
	}

	t.Run("in place", func(t *testing.T) {
		_, err := run(fs, "attrs", "/tiles.geojson", "-r", "mem://cli-fine", "--width", "10", "--height", "10", "--minmax")
		require.NoError(t, err)
		table, err := grid.Load(fs, "/tiles.geojson")
		require.NoError(t, err)
		assert.Equal(t, []string{"min", "max"}, table.Columns())
	})

	t.Run("nothing requested", func(t *testing.T) {
		_, err := run(fs, "attrs", "/tiles.geojson", "-r", "mem://cli-fine")
		assert.True(t, errors.Is(err, geobatch.ErrInvalidParameter))
	})
}

func TestFlow(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := run(fs, "grid", "/tiles.geojson", "25", "25", "-r", "mem://cli-fine")
	require.NoError(t, err)

	out, err := run(fs, "flow", "/tiles.geojson", "-r", "mem://cli-fine", "--width", "5", "--height", "5",
		"--batch-size", "4", "--bands", "2,1", "--interleave", "pixel", "--shuffle", "--seed", "4", "--out", "/batches.bin")
	require.NoError(t, err)
	assert.Contains(t, out, "4 batches, 16 samples of shape [5 5 2]")
	assert.Contains(t, out, "wrote /batches.bin")

	f, err := fs.Open("/batches.bin")
	require.NoError(t, err)
	defer f.Close()
	r := export.NewReader(f)
	n := 0
	for {
		a, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.Equal(t, []int{4, 5, 5, 2}, a.Shape())
		n++
	}
	assert.Equal(t, 4, n)

	t.Run("config file", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fs, "/geobatch.yaml", []byte(`
raster: mem://cli-coarse
sample:
  width: 8
  height: 8
batch:
  size: 16
  band: 2
  resampling: average
log:
  level: error
`), 0644))
		out, err := run(fs, "flow", "/tiles.geojson", "--config", "/geobatch.yaml", "--normalize", "0,50")
		require.NoError(t, err)
		assert.Contains(t, out, "1 batches, 16 samples of shape [8 8]")
	})

	t.Run("limit", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fs, "/small.yaml", []byte("batch:\n  max_bytes: 1 KiB\n"), 0644))
		_, err := run(fs, "flow", "/tiles.geojson", "--config", "/small.yaml", "-r", "mem://cli-fine")
		assert.True(t, errors.Is(err, geobatch.ErrInvalidParameter))
	})

	t.Run("no raster", func(t *testing.T) {
		_, err := run(fs, "flow", "/tiles.geojson")
		assert.True(t, errors.Is(err, geobatch.ErrInvalidParameter))
	})

	t.Run("bad config", func(t *testing.T) {
		_, err := run(fs, "flow", "/tiles.geojson", "--config", "/missing.yaml")
		assert.Error(t, err)
	})

	t.Run("default config file", func(t *testing.T) {
		local := afero.NewMemMapFs()
		_, err := run(local, "grid", "/tiles.geojson", "50", "50", "-r", "mem://cli-coarse")
		require.NoError(t, err)
		require.NoError(t, afero.WriteFile(local, defaultConfigPath,
			[]byte("raster: mem://cli-coarse\nsample:\n  width: 10\n  height: 10\n"), 0644))

		out, err := run(local, "flow", "/tiles.geojson")
		require.NoError(t, err)
		assert.Contains(t, out, "1 batches, 4 samples of shape [2 10 10]")
	})
}

func TestInfo(t *testing.T) {
	out, err := run(afero.NewMemMapFs(), "info", "mem://cli-coarse")
	require.NoError(t, err)
	assert.Contains(t, out, "crs:        EPSG:3857")
	assert.Contains(t, out, "bounds:     0 0 100 100")
	assert.Contains(t, out, "size:       50 x 50 (2,500 pixels)")
	assert.Contains(t, out, "bands:      2")
	assert.Contains(t, out, "resolution: 2 x 2")
	assert.Contains(t, out, "0.000898 0.000898\n")
}
