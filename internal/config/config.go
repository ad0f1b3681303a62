// Package config loads the geobatch command's YAML configuration file.
//
// Every field is optional. Values from the file replace the defaults, and
// command line flags replace values from the file.
package config

import (
	"os"

	"github.com/MasterOfBinary/geobatch"
	"github.com/MasterOfBinary/geobatch/batch"
	"github.com/MasterOfBinary/geobatch/raster"
	"github.com/MasterOfBinary/geobatch/raster/s3"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

// Config is the file format.
type Config struct {
	// Raster is the default raster URI.
	Raster string `yaml:"raster"`

	Sample Sample `yaml:"sample"`
	Batch  Batch  `yaml:"batch"`
	Log    Log    `yaml:"log"`
	S3     S3     `yaml:"s3"`
}

// Sample is the output size of each sample in pixels.
type Sample struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Batch mirrors batch.Config plus the flow settings.
type Batch struct {
	Size int `yaml:"size"`
	// Band selects a single band and drops the band axis. It cannot be
	// combined with Bands.
	Band       int    `yaml:"band"`
	Bands      []int  `yaml:"bands"`
	Interleave string `yaml:"interleave"`
	Resampling string `yaml:"resampling"`
	Shuffle    bool   `yaml:"shuffle"`
	Seed       int64  `yaml:"seed"`
	// MaxBytes limits the size of one batch, such as "512 MiB". Empty means
	// no limit.
	MaxBytes string `yaml:"max_bytes"`
}

// Log configures internal/logging.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// S3 configures the download cache used for s3:// rasters.
type S3 struct {
	CacheDir  string `yaml:"cache_dir"`
	CacheSize int    `yaml:"cache_size"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Sample: Sample{Width: 64, Height: 64},
		Batch: Batch{
			Size:       batch.DefaultBatchSize,
			Interleave: batch.BandInterleave.String(),
			Resampling: batch.DefaultResampling.String(),
		},
		Log: Log{Level: "info", Format: "console"},
		S3:  S3{CacheSize: s3.DefaultCacheSize},
	}
}

// Load reads path from fs over the defaults. Unknown keys are an error.
func Load(fs afero.Fs, path string) (Config, error) {
	c := Default()
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return c, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return c, errors.Wrapf(err, "parsing config %s", path)
	}
	if err := c.Validate(); err != nil {
		return c, errors.Wrapf(err, "config %s", path)
	}
	return c, nil
}

// LoadOptional is Load, except that a missing file yields the defaults.
func LoadOptional(fs afero.Fs, path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := fs.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(fs, path)
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Sample.Width < 0 || c.Sample.Height < 0 {
		return geobatch.InvalidParameter("sample size %dx%d cannot be negative", c.Sample.Width, c.Sample.Height)
	}
	if c.Batch.Size < 0 {
		return geobatch.InvalidParameter("batch size %d cannot be negative", c.Batch.Size)
	}
	if c.S3.CacheSize < 0 {
		return geobatch.InvalidParameter("s3 cache size %d cannot be negative", c.S3.CacheSize)
	}
	bc, err := c.BatchConfig()
	if err != nil {
		return err
	}
	if err := bc.Validate(); err != nil {
		return err
	}
	_, err = c.ResourceLimits()
	return err
}

// BatchConfig converts the batch section to a batch.Config.
func (c Config) BatchConfig() (batch.Config, error) {
	var bc batch.Config
	switch {
	case c.Batch.Band != 0 && len(c.Batch.Bands) > 0:
		return bc, geobatch.InvalidParameter("band and bands cannot both be set")
	case c.Batch.Band != 0:
		bc.Bands = batch.Band(c.Batch.Band)
	case len(c.Batch.Bands) > 0:
		bc.Bands = batch.Bands(c.Batch.Bands...)
	}

	interleave, err := batch.ParseInterleave(c.Batch.Interleave)
	if err != nil {
		return bc, err
	}
	bc.Interleave = interleave

	bc.Resampling = batch.DefaultResampling
	if c.Batch.Resampling != "" {
		if bc.Resampling, err = raster.ParseResampling(c.Batch.Resampling); err != nil {
			return bc, err
		}
	}
	bc.Shuffle = c.Batch.Shuffle
	bc.Seed = c.Batch.Seed
	return bc, nil
}

// ResourceLimits converts max_bytes to batch.ResourceLimits.
func (c Config) ResourceLimits() (batch.ResourceLimits, error) {
	if c.Batch.MaxBytes == "" {
		return batch.ResourceLimits{}, nil
	}
	n, err := humanize.ParseBytes(c.Batch.MaxBytes)
	if err != nil {
		return batch.ResourceLimits{}, geobatch.InvalidParameter("max_bytes %q: %v", c.Batch.MaxBytes, err)
	}
	return batch.ResourceLimits{MaxBatchBytes: int64(n)}, nil
}
