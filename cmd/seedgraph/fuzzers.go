package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bobinette/seedgraph"
	"github.com/bobinette/seedgraph/bolt"
	"github.com/bobinette/seedgraph/catalog"
	"github.com/bobinette/seedgraph/services"
	"github.com/bobinette/seedgraph/stats"
)

var (
	// Flags
	fuzzerLimit  int
	fuzzerOffset int

	fuzzerService     *services.FuzzerService
	closeFuzzerStores func()
)

func init() {
	FuzzerCommand.AddCommand(&FuzzerListCommand)
	FuzzerCommand.AddCommand(&FuzzerSearchCommand)
	FuzzerCommand.AddCommand(&FuzzerImportCommand)
	FuzzerCommand.AddCommand(&FuzzerDeleteCommand)
	FuzzerCommand.AddCommand(&FuzzerStatsCommand)

	FuzzerSearchCommand.Flags().IntVar(&fuzzerLimit, "limit", 20, "maximum number of results")
	FuzzerSearchCommand.Flags().IntVar(&fuzzerOffset, "offset", 0, "number of results to skip")

	inheritPersistentPreRun(&FuzzerCommand)

	RootCmd.AddCommand(&FuzzerCommand)
}

func inheritPersistentPreRun(cmd *cobra.Command) {
	ppr := cmd.PersistentPreRun
	cmd.PersistentPreRun = func(c *cobra.Command, args []string) {
		// Run parent persistent pre run
		if cmd.Parent() != nil && cmd.Parent().PersistentPreRun != nil {
			cmd.Parent().PersistentPreRun(c, args)
		}

		// Run command persistent pre run
		if ppr != nil {
			ppr(c, args)
		}
	}
}

var FuzzerCommand = cobra.Command{
	Use:   "fuzzers",
	Short: "Manage the fuzzer catalog",
	Long:  "Manage the fuzzer catalog stored in bolt and indexed in bleve",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		driver, index, f := openStores()
		closeFuzzerStores = f
		fuzzerService = services.NewFuzzerService(&bolt.FuzzerRepository{Driver: driver}, index)
		if err := fuzzerService.Refresh(); err != nil {
			logger.Fatalf("could not read fuzzers: %v", err)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closeFuzzerStores != nil {
			closeFuzzerStores()
		}
	},
}

var FuzzerListCommand = cobra.Command{
	Use:   "list",
	Short: "List the fuzzers",
	Long:  "List the fuzzers ordered by id",
	Run: func(cmd *cobra.Command, args []string) {
		fuzzers, err := fuzzerService.List()
		if err != nil {
			logger.Fatal(err)
		}
		printFuzzers(fuzzers)
	},
}

var FuzzerSearchCommand = cobra.Command{
	Use:   "search <query>",
	Short: "Search the fuzzers",
	Long:  "Search the fuzzers by name, title, authors, venue and targets",
	Run: func(cmd *cobra.Command, args []string) {
		res, err := fuzzerService.Search(strings.Join(args, " "), fuzzerLimit, fuzzerOffset)
		if err != nil {
			logger.Fatal(err)
		}
		printFuzzers(res.Fuzzers)
		subtle.Printf("%d/%d results\n", len(res.Fuzzers), res.Pagination.Total)
	},
}

var FuzzerImportCommand = cobra.Command{
	Use:   "import <file>",
	Short: "Import a JSON or YAML catalog",
	Long:  "Import a JSON or YAML catalog. Fuzzers already stored under the same name are updated.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fuzzers, err := catalog.Load(args[0])
		if err != nil {
			logger.Fatal(err)
		}
		n, err := fuzzerService.Import(fuzzers)
		if err != nil {
			logger.Fatal(err)
		}
		good.Printf("%d fuzzers imported\n", n)
	},
}

var FuzzerDeleteCommand = cobra.Command{
	Use:   "delete <name>...",
	Short: "Delete fuzzers by name",
	Long:  "Delete fuzzers by name",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range args {
			if err := fuzzerService.Delete(name); err != nil {
				logger.Fatal(err)
			}
			bad.Printf("%s deleted\n", name)
		}
	},
}

var FuzzerStatsCommand = cobra.Command{
	Use:   "stats [filter]",
	Short: "Print the venue, target and author groups",
	Long:  "Print the venue, target and author groups, filtered by the optional text",
	Run: func(cmd *cobra.Command, args []string) {
		panel := fuzzerService.Stats(strings.Join(args, " "))
		fmt.Println(panel.Summary)
		printGroups("Venues", panel.Venues)
		printGroups("Targets", panel.Targets)
		printGroups("Authors", panel.Authors)
	},
}

func printGroups(name string, groups []stats.Group) {
	title.Println(name)
	for _, g := range groups {
		fmt.Printf("  %s\n", g.Header())
		for _, e := range g.Entries {
			if !e.Hidden {
				fmt.Printf("    %s\n", subtle.Sprint(e.Citation))
			}
		}
	}
}

func printFuzzers(fuzzers []seedgraph.Fuzzer) {
	for _, f := range fuzzers {
		year := subtle.Sprint("----")
		if f.Year != 0 {
			year = strconv.Itoa(f.Year)
		}
		fmt.Printf("%s  %s  %s\n", year, title.Sprint(f.Name), strings.Join(f.Targets, ", "))
	}
}
