package main

import (
	"context"
	"io"

	"github.com/MasterOfBinary/geobatch"
	"github.com/MasterOfBinary/geobatch/batch"
	"github.com/MasterOfBinary/geobatch/internal/config"
	"github.com/MasterOfBinary/geobatch/internal/logging"
	"github.com/MasterOfBinary/geobatch/raster/s3"
	"github.com/aws/aws-sdk-go/aws/session"
	awss3 "github.com/aws/aws-sdk-go/service/s3"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// defaultConfigPath is read when --config is not given, if it exists.
const defaultConfigPath = "geobatch.yaml"

// cli holds the state shared by every subcommand.
type cli struct {
	fs             afero.Fs
	logOut, logErr io.Writer

	configPath string
	verbose    bool

	conf   config.Config
	logger *zap.Logger
}

func newRootCmd(fs afero.Fs, logOut, logErr io.Writer) *cobra.Command {
	c := &cli{fs: fs, logOut: logOut, logErr: logErr, logger: zap.NewNop()}

	root := &cobra.Command{
		Use:               "geobatch",
		Short:             "sample grids and training batches from rasters",
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = c.logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "YAML configuration file (default "+defaultConfigPath+" if present)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log at debug level")
	root.AddCommand(c.gridCmd(), c.attrsCmd(), c.flowCmd(), c.infoCmd())
	return root
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	var err error
	if c.configPath != "" {
		c.conf, err = config.Load(c.fs, c.configPath)
	} else {
		c.conf, err = config.LoadOptional(c.fs, defaultConfigPath)
	}
	if err != nil {
		return err
	}
	if c.verbose {
		c.conf.Log.Level = "debug"
	}

	c.logger, err = logging.New(logging.Options{
		Level:  c.conf.Log.Level,
		Format: c.conf.Log.Format,
		Stdout: c.logOut,
		Stderr: c.logErr,
	})
	if err != nil {
		return err
	}

	if c.conf.S3.CacheDir != "" {
		sess, err := session.NewSession()
		if err != nil {
			return err
		}
		f, err := s3.NewFetcher(awss3.New(sess), afero.NewOsFs(), c.conf.S3.CacheDir, c.conf.S3.CacheSize)
		if err != nil {
			return err
		}
		s3.SetDefault(f)
	}
	return nil
}

// batchFlags are the settings shared by commands that read samples. Unset
// flags fall back to the configuration file.
type batchFlags struct {
	raster        string
	width, height int
	band          int
	bands         []int
	interleave    string
	resampling    string
}

func (f *batchFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.raster, "raster", "r", "", "raster URI (file path, http(s)://, s3:// or mem://)")
	flags.IntVar(&f.width, "width", 0, "sample width in pixels")
	flags.IntVar(&f.height, "height", 0, "sample height in pixels")
	flags.IntVar(&f.band, "band", 0, "read a single band and drop the band axis")
	flags.IntSliceVar(&f.bands, "bands", nil, "bands to read, in order (default all)")
	flags.StringVar(&f.interleave, "interleave", "", "band or pixel")
	flags.StringVar(&f.resampling, "resampling", "", "nearest, bilinear, cubic, average, mode or lanczos")
}

// resolve merges the flags into a copy of the configuration.
func (f *batchFlags) resolve(cmd *cobra.Command, conf config.Config) config.Config {
	flags := cmd.Flags()
	if flags.Changed("raster") {
		conf.Raster = f.raster
	}
	if flags.Changed("width") {
		conf.Sample.Width = f.width
	}
	if flags.Changed("height") {
		conf.Sample.Height = f.height
	}
	if flags.Changed("band") {
		conf.Batch.Band, conf.Batch.Bands = f.band, nil
	}
	if flags.Changed("bands") {
		conf.Batch.Band, conf.Batch.Bands = 0, f.bands
	}
	if flags.Changed("interleave") {
		conf.Batch.Interleave = f.interleave
	}
	if flags.Changed("resampling") {
		conf.Batch.Resampling = f.resampling
	}
	return conf
}

// openBatcher returns a Batcher reading conf.Raster.
func (c *cli) openBatcher(ctx context.Context, conf config.Config, stats batch.StatsCollector) (*batch.Batcher, error) {
	if conf.Raster == "" {
		return nil, geobatch.InvalidParameter("no raster given; use --raster or set raster in the config file")
	}
	bc, err := conf.BatchConfig()
	if err != nil {
		return nil, err
	}
	limits, err := conf.ResourceLimits()
	if err != nil {
		return nil, err
	}
	if limits.MaxBatchBytes == 0 {
		limits = batch.DefaultResourceLimits()
	}

	b := batch.New(bc).
		WithLogger(batch.NewZapLogger(c.logger)).
		WithStats(stats).
		WithResourceLimits(limits)
	if err := b.SetSource(ctx, conf.Raster); err != nil {
		return nil, err
	}
	return b, nil
}
