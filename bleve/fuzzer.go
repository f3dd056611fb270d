package bleve

import (
	"os"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/analysis/lang/en"
	"github.com/blevesearch/bleve/mapping"
	"github.com/blevesearch/bleve/search/query"

	"github.com/bobinette/seedgraph"
)

type FuzzerIndex struct {
	index bleve.Index
}

// Open opens the index at path, creating it if needed.
func (s *FuzzerIndex) Open(path string) error {
	index, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		index, err = bleve.New(path, indexMapping())
	}
	if err != nil {
		return err
	}

	s.index = index
	return nil
}

// OpenMem creates an index living in memory only.
func (s *FuzzerIndex) OpenMem() error {
	index, err := bleve.NewMemOnly(indexMapping())
	if err != nil {
		return err
	}

	s.index = index
	return nil
}

func (s *FuzzerIndex) Close() error {
	if s.index == nil {
		return nil
	}

	return s.index.Close()
}

// Reset drops the index at path so the next Open starts from scratch.
func Reset(path string) error {
	return os.RemoveAll(path)
}

func indexMapping() mapping.IndexMapping {
	english := bleve.NewTextFieldMapping()
	english.Analyzer = en.AnalyzerName

	words := bleve.NewTextFieldMapping()
	words.Analyzer = simple.Name

	fuzzer := bleve.NewDocumentMapping()
	fuzzer.AddFieldMappingsAt("name", words)
	fuzzer.AddFieldMappingsAt("title", english)
	fuzzer.AddFieldMappingsAt("author", words)
	fuzzer.AddFieldMappingsAt("targets", words)
	fuzzer.AddFieldMappingsAt("venue", words)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = fuzzer
	return m
}

func (s *FuzzerIndex) Index(fuzzer *seedgraph.Fuzzer) error {
	venue := fuzzer.Booktitle
	if venue == "" {
		venue = fuzzer.Journal
	}

	data := map[string]interface{}{
		"name":    fuzzer.Name,
		"title":   fuzzer.Title,
		"author":  fuzzer.Author,
		"targets": fuzzer.Targets,
		"venue":   venue,
	}

	return s.index.Index(strconv.Itoa(fuzzer.ID), data)
}

func (s *FuzzerIndex) Delete(id int) error {
	return s.index.Delete(strconv.Itoa(id))
}

func (s *FuzzerIndex) Search(search seedgraph.FuzzerSearch) (seedgraph.FuzzerSearchResults, error) {
	q := andQ(
		query.NewMatchAllQuery(),
		s.searchWords(search.Q),
	)

	searchRequest := bleve.NewSearchRequest(q)
	searchRequest.SortBy([]string{"_id"})

	if search.Limit > 0 {
		searchRequest.Size = int(search.Limit)
	}
	searchRequest.From = int(search.Offset)

	searchResults, err := s.index.Search(searchRequest)
	if err != nil {
		return seedgraph.FuzzerSearchResults{}, err
	}

	ids := make([]int, len(searchResults.Hits))
	for i, hit := range searchResults.Hits {
		ids[i], err = strconv.Atoi(hit.ID)
		if err != nil {
			return seedgraph.FuzzerSearchResults{}, err
		}
	}

	return seedgraph.FuzzerSearchResults{
		IDs: ids,
		Pagination: seedgraph.Pagination{
			Total:  searchResults.Total,
			Limit:  search.Limit,
			Offset: search.Offset,
		},
	}, nil
}

func andQ(qs ...query.Query) query.Query {
	ands := make([]query.Query, 0, len(qs))
	for _, q := range qs {
		if q != nil {
			ands = append(ands, q)
		}
	}

	if len(ands) == 0 {
		return nil
	}
	return query.NewConjunctionQuery(ands)
}

func orQ(qs ...query.Query) query.Query {
	ors := make([]query.Query, 0, len(qs))
	for _, q := range qs {
		if q != nil {
			ors = append(ors, q)
		}
	}

	if len(ors) == 0 {
		return nil
	}
	return query.NewDisjunctionQuery(ors)
}

// searchWords requires every word of the query to prefix match at least one
// field.
func (s *FuzzerIndex) searchWords(queryString string) query.Query {
	words := strings.Fields(queryString)

	ands := make([]query.Query, 0, len(words))
	for _, word := range words {
		ands = append(ands, orQ(
			s.prefixQuery(word, "title", en.AnalyzerName),
			s.prefixQuery(word, "name", simple.Name),
			s.prefixQuery(word, "author", simple.Name),
			s.prefixQuery(word, "targets", simple.Name),
			s.prefixQuery(word, "venue", simple.Name),
		))
	}

	return andQ(ands...)
}

func (s *FuzzerIndex) prefixQuery(word, field, analyzerName string) query.Query {
	analyzer := s.index.Mapping().AnalyzerNamed(analyzerName)
	tokens := analyzer.Analyze([]byte(word))
	if len(tokens) == 0 {
		return nil
	}

	conjuncs := make([]query.Query, len(tokens))
	for i, token := range tokens {
		q := query.NewPrefixQuery(string(token.Term))
		q.SetField(field)
		conjuncs[i] = q
	}

	return query.NewConjunctionQuery(conjuncs)
}
