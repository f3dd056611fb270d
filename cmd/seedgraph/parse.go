package main

import (
	"fmt"
	"io/ioutil"

	"github.com/spf13/cobra"

	"github.com/bobinette/seedgraph/afl"
	"github.com/bobinette/seedgraph/loader"
)

var (
	parseOutput string
	parseMatch  string
)

func init() {
	ParseCommand.AddCommand(&ParseAFLCommand)
	ParseCommand.AddCommand(&ParseDOTCommand)

	ParseAFLCommand.Flags().StringVarP(&parseOutput, "output", "o", "", "output directory, the data directory by default")
	ParseAFLCommand.Flags().StringVar(&parseMatch, "match", "", "only keep the crashes whose name contains this")
	ParseDOTCommand.Flags().StringVarP(&parseOutput, "output", "o", "", "output directory, the data directory by default")

	RootCmd.AddCommand(&ParseCommand)
}

var ParseCommand = cobra.Command{
	Use:   "parse",
	Short: "Build the graph documents from fuzzer logs",
	Long:  "Build the graph documents from fuzzer logs",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var ParseAFLCommand = cobra.Command{
	Use:   "afl <campaign>",
	Short: "Parse the seed and replay logs of an AFL campaign",
	Long: fmt.Sprintf(
		"Parse %s and %s of an AFL campaign and write %s, %s and %s/",
		afl.SeedLogFile, afl.ReplayLogFile, loader.GraphFile, loader.MetadataFile, afl.MutationDeltaDir,
	),
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run, err := afl.Parse(args[0], afl.Options{Match: parseMatch})
		if err != nil {
			logger.Fatalf("could not parse campaign: %v", err)
		}

		out := parseOutput
		if out == "" {
			out = conf.Data.Dir
		}
		if err := run.Write(out); err != nil {
			logger.Fatalf("could not write documents: %v", err)
		}

		title.Printf("%s\n", args[0])
		fmt.Printf("  seeds:   %s\n", good.Sprint(len(run.Seeds)))
		if len(run.Crashes) > 0 {
			fmt.Printf("  crashes: %s\n", bad.Sprint(len(run.Crashes)))
		} else {
			fmt.Printf("  crashes: %s\n", subtle.Sprint("none"))
		}
		fmt.Printf("  written to %s\n", out)
	},
}

var ParseDOTCommand = cobra.Command{
	Use:   "dot <file>",
	Short: "Convert a graphviz lineage into the graph documents",
	Long: fmt.Sprintf(
		"Convert a graphviz digraph, as written by the dot command, into %s and %s. Labels \"<id> <secs> sec\" set the found time and red filled nodes are crashes.",
		loader.GraphFile, loader.MetadataFile,
	),
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := ioutil.ReadFile(args[0])
		if err != nil {
			logger.Fatalf("could not read %s: %v", args[0], err)
		}

		g, err := loader.ParseDOT(data)
		if err != nil {
			logger.Fatalf("could not parse digraph: %v", err)
		}

		out := parseOutput
		if out == "" {
			out = conf.Data.Dir
		}
		if err := loader.Write(out, g); err != nil {
			logger.Fatalf("could not write documents: %v", err)
		}

		crashes := 0
		for _, s := range g.Seeds {
			if s.IsCrash() {
				crashes++
			}
		}

		title.Printf("%s\n", args[0])
		fmt.Printf("  seeds:   %s\n", good.Sprint(len(g.Seeds)-crashes))
		if crashes > 0 {
			fmt.Printf("  crashes: %s\n", bad.Sprint(crashes))
		} else {
			fmt.Printf("  crashes: %s\n", subtle.Sprint("none"))
		}
		fmt.Printf("  written to %s\n", out)
	},
}
