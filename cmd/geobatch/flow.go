package main

import (
	"fmt"
	"io"

	"github.com/MasterOfBinary/geobatch"
	"github.com/MasterOfBinary/geobatch/batch"
	"github.com/MasterOfBinary/geobatch/export"
	"github.com/MasterOfBinary/geobatch/grid"
	"github.com/MasterOfBinary/geobatch/preprocess"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func (c *cli) flowCmd() *cobra.Command {
	var (
		bf          batchFlags
		batchSize   int
		shuffle     bool
		seed        int64
		normalize   []float64
		standardize bool
		output      string
	)

	cmd := &cobra.Command{
		Use:   "flow TABLE",
		Short: "Read the samples of a grid as batches",
		Long: `Read every sample of TABLE from the raster in batches, optionally writing
them to a snappy compressed msgpack stream, and print a summary.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conf := bf.resolve(cmd, c.conf)
			if cmd.Flags().Changed("batch-size") {
				conf.Batch.Size = batchSize
			}
			if cmd.Flags().Changed("shuffle") {
				conf.Batch.Shuffle = shuffle
			}
			if cmd.Flags().Changed("seed") {
				conf.Batch.Seed = seed
			}
			if len(normalize) != 0 && len(normalize) != 2 {
				return geobatch.InvalidParameter("--normalize needs min,max")
			}

			table, err := grid.Load(c.fs, args[0])
			if err != nil {
				return err
			}
			stats := batch.NewBasicStatsCollector()
			b, err := c.openBatcher(ctx, conf, stats)
			if err != nil {
				return err
			}
			defer b.Close()

			if standardize {
				if err := b.Preprocess().Append("standardize", preprocess.Standardize()); err != nil {
					return err
				}
			}
			if len(normalize) == 2 {
				if err := b.Preprocess().Append("normalize", preprocess.Normalize(normalize[0], normalize[1], 0)); err != nil {
					return err
				}
			}

			it, err := b.Flow(ctx, table, conf.Sample.Width, conf.Sample.Height, conf.Batch.Size)
			if err != nil {
				return err
			}
			defer it.Close()

			var w *export.Writer
			if output != "" {
				f, err := c.fs.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = export.NewWriter(f)
			}

			var batches int
			var bytes uint64
			var shape []int
			for a, err := range it.All() {
				if err != nil {
					return err
				}
				batches++
				bytes += uint64(a.Size()) * 8
				shape = a.Shape()[1:]
				if w != nil {
					if err := w.Write(a); err != nil {
						return err
					}
				}
			}
			if w != nil {
				if err := w.Close(); err != nil {
					return err
				}
			}

			printSummary(cmd.OutOrStdout(), b.Stats(), batches, shape, bytes, output)
			return nil
		},
	}

	bf.register(cmd)
	flags := cmd.Flags()
	flags.IntVar(&batchSize, "batch-size", batch.DefaultBatchSize, "samples per batch")
	flags.BoolVar(&shuffle, "shuffle", false, "shuffle the samples once before reading")
	flags.Int64Var(&seed, "seed", 0, "shuffle seed (default from the clock)")
	flags.Float64SliceVar(&normalize, "normalize", nil, "scale values from min,max to [0, 1]")
	flags.BoolVar(&standardize, "standardize", false, "scale each sample to zero mean and unit variance")
	flags.StringVarP(&output, "out", "o", "", "write batches to this file")
	return cmd
}

func printSummary(out io.Writer, s batch.Stats, batches int, shape []int, bytes uint64, output string) {
	fmt.Fprintf(out, "%s batches, %s samples of shape %v, %s\n",
		humanize.Comma(int64(batches)), humanize.Comma(int64(s.Samples())), shape, humanize.IBytes(bytes))
	if s.SamplesDegraded > 0 {
		fmt.Fprintf(out, "%s samples filled with nodata after read errors\n", humanize.Comma(int64(s.SamplesDegraded)))
	}
	if batches > 0 {
		fmt.Fprintf(out, "average batch time %v\n", s.AverageBatchTime())
	}
	if output != "" {
		fmt.Fprintf(out, "wrote %s\n", output)
	}
}
