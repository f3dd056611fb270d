package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/bobinette/seedgraph/tui"
)

var browseSeed string

func init() {
	BrowseCommand.Flags().StringVarP(&browseSeed, "k", "k", "", "seed to select")

	RootCmd.AddCommand(&BrowseCommand)
}

var BrowseCommand = cobra.Command{
	Use:   "browse",
	Short: "Browse the seed graph in the terminal",
	Long:  "Search the seeds and inspect their lineage in the terminal",
	Run: func(cmd *cobra.Command, args []string) {
		graphs := createGraphService(nil, nil, nil)
		defer graphs.Close()

		ctx := context.Background()
		if err := graphs.Load(ctx); err != nil {
			logger.Fatalf("could not load seed graph: %v", err)
		}
		if err := graphs.WaitSettled(ctx); err != nil {
			logger.Errorf("browsing before the layout settled: %v", err)
		}

		g, err := graphs.Graph()
		if err != nil {
			logger.Fatal(err)
		}
		_, v, err := graphs.Session("")
		if err != nil {
			logger.Fatal(err)
		}
		v.InitialCamera(browseSeed)

		if err := tui.Run(g, v); err != nil {
			logger.Fatal(err)
		}
	},
}
