package main

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/bobinette/seedgraph/layout"
	"github.com/bobinette/seedgraph/log"
	"github.com/bobinette/seedgraph/services"
)

var (
	// flags
	env        string
	configFile string

	// logger
	logger log.Logger

	// configuration
	conf Configuration
)

type Configuration struct {
	Addr string `toml:"addr"`
	Data struct {
		// Dir is a local directory holding the graph documents. URL is used
		// when Dir is empty.
		Dir string `toml:"dir"`
		URL string `toml:"url"`
	} `toml:"data"`
	// Catalog is a JSON or YAML fuzzer catalog imported on start.
	Catalog string `toml:"catalog"`
	Bolt    struct {
		Store string `toml:"store"`
	} `toml:"bolt"`
	Bleve struct {
		Store string `toml:"store"`
	} `toml:"bleve"`
	Graph services.GraphConfig `toml:"graph"`
}

func defaultConfiguration() Configuration {
	var c Configuration
	c.Addr = ":1705"
	c.Data.Dir = "data"
	c.Bolt.Store = "data/seedgraph.db"
	c.Bleve.Store = "data/seedgraph.index"
	c.Graph = services.GraphConfig{
		Lineage:       services.LineageGonum,
		SettleTimeout: services.DefaultSettleTimeout,
		Layout:        layout.DefaultConfig(),
	}
	return c
}

func init() {
	RootCmd.PersistentFlags().StringVar(&env, "env", "dev", "environment")
	RootCmd.PersistentFlags().StringVar(&configFile, "config", "", "configuration file")
}

var RootCmd = cobra.Command{
	Use:          "seedgraph",
	Short:        "Explore the seed lineage of a fuzzing campaign",
	Long:         "Explore the seed lineage of a fuzzing campaign and the bibliography of fuzzers",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = log.New(env)

		explicit := configFile != ""
		if !explicit {
			configFile = path.Join("configuration", fmt.Sprintf("config.%s.toml", env))
		}

		conf = defaultConfiguration()
		_, err := toml.DecodeFile(configFile, &conf)
		if os.IsNotExist(err) && !explicit {
			logger.Debugf("no configuration file %s, using defaults", configFile)
		} else if err != nil {
			logger.Fatal("error reading configuration:", err)
		}

		if conf.Graph.SettleTimeout <= 0 {
			conf.Graph.SettleTimeout = 10 * time.Second
		}
	},
}
