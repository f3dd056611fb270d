package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bobinette/seedgraph/render"
)

var (
	renderFormat string
	renderOutput string
	renderSeed   string
	renderFilter string
)

func init() {
	RenderCommand.Flags().StringVarP(&renderFormat, "format", "f", "svg", "svg or html")
	RenderCommand.Flags().StringVarP(&renderOutput, "output", "o", "", "output file, stdout by default")
	RenderCommand.Flags().StringVarP(&renderSeed, "k", "k", "", "seed to select")
	RenderCommand.Flags().StringVar(&renderFilter, "filter", "", "stats filter of the html page")

	RootCmd.AddCommand(&RenderCommand)
}

var RenderCommand = cobra.Command{
	Use:   "render",
	Short: "Render the settled seed graph to a file",
	Long:  "Render the settled seed graph as a standalone SVG or as the full viewer page",
	Run: func(cmd *cobra.Command, args []string) {
		if renderFormat != "svg" && renderFormat != "html" {
			logger.Fatalf("unknown format %q, should be svg or html", renderFormat)
		}

		driver, index, closeStores := openStores()
		defer closeStores()

		fuzzers := createFuzzerService(driver, index)
		graphs := createGraphService(driver, fuzzers, nil)
		defer graphs.Close()

		ctx := context.Background()
		if err := graphs.Load(ctx); err != nil {
			logger.Fatalf("could not load seed graph: %v", err)
		}
		if err := graphs.WaitSettled(ctx); err != nil {
			logger.Errorf("rendering before the layout settled: %v", err)
		}

		id, v, err := graphs.Session("")
		if err != nil {
			logger.Fatal(err)
		}
		v.InitialCamera(renderSeed)

		scene, err := graphs.Scene(id)
		if err != nil {
			logger.Fatal(err)
		}

		var w io.Writer = os.Stdout
		if renderOutput != "" {
			f, err := os.Create(renderOutput)
			if err != nil {
				logger.Fatalf("could not create %s: %v", renderOutput, err)
			}
			defer f.Close()
			w = f
		}

		if renderFormat == "svg" {
			err = render.SVG(w, scene)
		} else {
			res, cursor := v.Result()
			err = render.Page(w, render.PageData{
				Scene:   scene,
				Infobox: v.Infobox(),
				Search:  res,
				Cursor:  cursor,
				Stats:   fuzzers.Stats(renderFilter),
			})
		}
		if err != nil {
			logger.Fatalf("could not render: %v", err)
		}
	},
}
