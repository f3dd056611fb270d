package services

import (
	"fmt"
	"sync"

	"github.com/bobinette/seedgraph"
	"github.com/bobinette/seedgraph/catalog"
	"github.com/bobinette/seedgraph/errors"
	"github.com/bobinette/seedgraph/stats"
)

const defaultFuzzerLimit = 20

func errFuzzerNotFound(name string) error {
	return errors.New(fmt.Sprintf("fuzzer %s not found", name), errors.NotFound())
}

// FuzzerService keeps the catalog in the repository, the index and the
// stats panel in sync.
type FuzzerService struct {
	repository seedgraph.FuzzerRepository
	index      seedgraph.FuzzerIndex

	mu    sync.RWMutex
	stats *stats.Stats
}

func NewFuzzerService(repo seedgraph.FuzzerRepository, index seedgraph.FuzzerIndex) *FuzzerService {
	return &FuzzerService{
		repository: repo,
		index:      index,
		stats:      stats.New(nil),
	}
}

// Import validates fuzzers, then stores and indexes each of them. Records
// already stored under the same name are updated.
func (s *FuzzerService) Import(fuzzers []seedgraph.Fuzzer) (int, error) {
	if err := catalog.Validate(fuzzers); err != nil {
		return 0, err
	}

	for i := range fuzzers {
		f := fuzzers[i]
		if err := s.repository.Upsert(&f); err != nil {
			return i, errors.New("could not store "+f.Name, errors.WithCause(err))
		}
		if err := s.index.Index(&f); err != nil {
			return i, errors.New("could not index "+f.Name, errors.WithCause(err))
		}
	}

	return len(fuzzers), s.Refresh()
}

// Refresh rebuilds the stats from the repository.
func (s *FuzzerService) Refresh() error {
	fuzzers, err := s.repository.List()
	if err != nil {
		return err
	}

	st := stats.New(fuzzers)
	s.mu.Lock()
	s.stats = st
	s.mu.Unlock()
	return nil
}

func (s *FuzzerService) List() ([]seedgraph.Fuzzer, error) {
	fuzzers, err := s.repository.List()
	if err != nil {
		return nil, err
	}
	if fuzzers == nil {
		fuzzers = make([]seedgraph.Fuzzer, 0)
	}
	return fuzzers, nil
}

func (s *FuzzerService) Get(name string) (seedgraph.Fuzzer, error) {
	f, found, err := s.repository.GetByName(name)
	if err != nil {
		return seedgraph.Fuzzer{}, err
	} else if !found {
		return seedgraph.Fuzzer{}, errFuzzerNotFound(name)
	}
	return f, nil
}

func (s *FuzzerService) Delete(name string) error {
	f, err := s.Get(name)
	if err != nil {
		return err
	}

	if err := s.repository.Delete(f.ID); err != nil {
		return err
	}
	if err := s.index.Delete(f.ID); err != nil {
		return err
	}
	return s.Refresh()
}

type FuzzerSearchResults struct {
	Fuzzers    []seedgraph.Fuzzer   `json:"fuzzers"`
	Pagination seedgraph.Pagination `json:"pagination"`
}

func (s *FuzzerService) Search(q string, limit, offset int) (FuzzerSearchResults, error) {
	if limit <= 0 {
		limit = defaultFuzzerLimit
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.index.Search(seedgraph.FuzzerSearch{
		Q:      q,
		Limit:  uint64(limit),
		Offset: uint64(offset),
	})
	if err != nil {
		return FuzzerSearchResults{}, err
	}

	fuzzers, err := s.repository.Get(res.IDs...)
	if err != nil {
		return FuzzerSearchResults{}, err
	}

	return FuzzerSearchResults{
		Fuzzers:    fuzzers,
		Pagination: res.Pagination,
	}, nil
}

// Stats returns the accordion panel filtered by text.
func (s *FuzzerService) Stats(filter string) stats.Panel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats.Filter(filter)
}

// Annotate sets the tool url of the seeds named after a fuzzer of the
// catalog.
func (s *FuzzerService) Annotate(g *seedgraph.Graph) error {
	fuzzers, err := s.repository.List()
	if err != nil {
		return err
	}

	for _, f := range fuzzers {
		if f.ToolURL == "" {
			continue
		}
		if seed, ok := g.Get(f.Name); ok {
			seed.ToolURL = f.ToolURL
		}
	}
	return nil
}
