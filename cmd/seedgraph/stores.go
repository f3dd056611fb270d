package main

import (
	"github.com/bobinette/seedgraph/bleve"
	"github.com/bobinette/seedgraph/bolt"
	"github.com/bobinette/seedgraph/catalog"
	"github.com/bobinette/seedgraph/loader"
	"github.com/bobinette/seedgraph/metrics"
	"github.com/bobinette/seedgraph/services"
)

// openStores opens the bolt database and the bleve index. The returned
// function closes both.
func openStores() (*bolt.Driver, *bleve.FuzzerIndex, func()) {
	driver := &bolt.Driver{}
	if err := driver.Open(conf.Bolt.Store); err != nil {
		logger.Fatalf("could not open bolt: %v", err)
	}

	index := &bleve.FuzzerIndex{}
	if err := index.Open(conf.Bleve.Store); err != nil {
		driver.Close()
		logger.Fatalf("could not open bleve: %v", err)
	}

	return driver, index, func() {
		index.Close()
		driver.Close()
	}
}

func createFuzzerService(driver *bolt.Driver, index *bleve.FuzzerIndex) *services.FuzzerService {
	fuzzers := services.NewFuzzerService(&bolt.FuzzerRepository{Driver: driver}, index)
	if conf.Catalog != "" {
		records, err := catalog.Load(conf.Catalog)
		if err != nil {
			logger.Fatalf("could not load catalog: %v", err)
		}
		n, err := fuzzers.Import(records)
		if err != nil {
			logger.Fatalf("could not import catalog: %v", err)
		}
		logger.Printf("%d fuzzers imported from %s", n, conf.Catalog)
	}

	if err := fuzzers.Refresh(); err != nil {
		logger.Fatalf("could not read fuzzers: %v", err)
	}
	return fuzzers
}

func source() loader.Source {
	if conf.Data.Dir == "" && conf.Data.URL != "" {
		return loader.NewHTTPSource(conf.Data.URL)
	}
	return loader.DirSource(conf.Data.Dir)
}

// createGraphService creates the graph service, annotated with the tool urls
// of the catalog when fuzzers is not nil. The graph is not loaded.
func createGraphService(driver *bolt.Driver, fuzzers *services.FuzzerService, m *metrics.Metrics) *services.GraphService {
	var layouts services.LayoutRepository
	if driver != nil {
		layouts = &bolt.LayoutStore{Driver: driver}
	}

	graphs := services.NewGraphService(source(), layouts, conf.Graph, logger, m)
	if fuzzers != nil {
		graphs.AnnotateWith(fuzzers.Annotate)
	}
	return graphs
}
