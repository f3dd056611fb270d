package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bobinette/seedgraph/dot"
	"github.com/bobinette/seedgraph/gonum"
	"github.com/bobinette/seedgraph/loader"
)

var (
	dotOutput string
	dotRoot   string
)

func init() {
	DotCommand.Flags().StringVarP(&dotOutput, "output", "o", "", "output file, stdout by default")
	DotCommand.Flags().StringVarP(&dotRoot, "root", "r", "", "only export this seed and its descendants")

	RootCmd.AddCommand(&DotCommand)
}

var DotCommand = cobra.Command{
	Use:   "dot",
	Short: "Export the seed lineage as a graphviz digraph",
	Long:  "Export the seed lineage as a graphviz digraph, crashes filled in red. Parents are written before their children unless the lineage has a cycle.",
	Run: func(cmd *cobra.Command, args []string) {
		g, err := loader.Load(context.Background(), source())
		if err != nil {
			logger.Fatalf("could not load seed graph: %v", err)
		}

		index := gonum.New(g)
		d := dot.FromSeeds(g)
		if order, err := index.Order(); err != nil {
			logger.WithField("err", err).Debugf("keeping load order")
		} else {
			d.Reorder(order)
		}

		if dotRoot != "" {
			descendants, err := index.Descendants(dotRoot)
			if err != nil {
				logger.Fatalf("could not export %s: %v", dotRoot, err)
			}
			d.Keep(append([]string{dotRoot}, descendants...))
		}

		var w io.Writer = os.Stdout
		if dotOutput != "" {
			f, err := os.Create(dotOutput)
			if err != nil {
				logger.Fatalf("could not create %s: %v", dotOutput, err)
			}
			defer f.Close()
			w = f
		}

		if _, err := d.WriteTo(w); err != nil {
			logger.Fatalf("could not write digraph: %v", err)
		}
	},
}
