package main

import (
	"fmt"
	"strings"

	"github.com/MasterOfBinary/geobatch"
	"github.com/MasterOfBinary/geobatch/attribute"
	"github.com/MasterOfBinary/geobatch/batch"
	"github.com/MasterOfBinary/geobatch/grid"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func (c *cli) attrsCmd() *cobra.Command {
	var (
		bf     batchFlags
		minmax bool
		stats  bool
		nodata bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "attrs TABLE",
		Short: "Add per-sample attributes to a grid",
		Long: `Read every sample of TABLE from the raster and store the requested
attributes as columns. TABLE is overwritten unless --output is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conf := bf.resolve(cmd, c.conf)

			table, err := grid.Load(c.fs, args[0])
			if err != nil {
				return err
			}
			b, err := c.openBatcher(ctx, conf, &batch.NoOpStatsCollector{})
			if err != nil {
				return err
			}
			defer b.Close()

			g := attribute.New()
			if stats {
				err = g.Stats()
			} else if minmax {
				err = g.MinMax()
			}
			if err != nil {
				return err
			}
			if nodata {
				p, err := b.Profile()
				if err != nil {
					return err
				}
				if err := g.Nodata(p.NoData); err != nil {
					return err
				}
			}
			if len(g.Names()) == 0 {
				return geobatch.InvalidParameter("no attributes requested; use --minmax, --stats or --nodata")
			}

			if err := g.Fill(ctx, table, b, conf.Sample.Width, conf.Sample.Height); err != nil {
				return err
			}
			if output == "" {
				output = args[0]
			}
			if err := grid.Save(c.fs, output, table); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s to %s samples in %s\n",
				strings.Join(g.Names(), ", "), humanize.Comma(int64(table.Len())), output)
			return nil
		},
	}

	bf.register(cmd)
	flags := cmd.Flags()
	flags.BoolVar(&minmax, "minmax", false, "add min and max")
	flags.BoolVar(&stats, "stats", false, "add min, max, mean and std")
	flags.BoolVar(&nodata, "nodata", false, "add the number of nodata cells")
	flags.StringVarP(&output, "output", "o", "", "write the annotated grid here instead of TABLE")
	return cmd
}
