package endpoints

import (
	"context"

	"github.com/bobinette/seedgraph"
	"github.com/bobinette/seedgraph/services"
)

type FuzzerEndpoint struct {
	service *services.FuzzerService
}

func NewFuzzerEndpoint(service *services.FuzzerService) *FuzzerEndpoint {
	return &FuzzerEndpoint{
		service: service,
	}
}

type SearchFuzzerRequest struct {
	Q      string
	Limit  int
	Offset int
}

func (ep *FuzzerEndpoint) Search(ctx context.Context, r interface{}) (interface{}, error) {
	req, ok := r.(SearchFuzzerRequest)
	if !ok {
		return nil, errInvalidRequest
	}

	res, err := ep.service.Search(req.Q, req.Limit, req.Offset)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"data":       res.Fuzzers,
		"pagination": res.Pagination,
	}, nil
}

func (ep *FuzzerEndpoint) Get(ctx context.Context, r interface{}) (interface{}, error) {
	name, ok := r.(string)
	if !ok {
		return nil, errInvalidRequest
	}

	fuzzer, err := ep.service.Get(name)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"data": fuzzer,
	}, nil
}

// Import stores a list of fuzzers, validated as a whole.
func (ep *FuzzerEndpoint) Import(ctx context.Context, r interface{}) (interface{}, error) {
	fuzzers, ok := r.([]seedgraph.Fuzzer)
	if !ok {
		return nil, errInvalidRequest
	}

	n, err := ep.service.Import(fuzzers)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"data": map[string]int{"imported": n},
	}, nil
}

// Stats returns the accordion panel, filtered by the request text.
func (ep *FuzzerEndpoint) Stats(ctx context.Context, r interface{}) (interface{}, error) {
	filter, ok := r.(string)
	if !ok {
		return nil, errInvalidRequest
	}

	return map[string]interface{}{
		"data": ep.service.Stats(filter),
	}, nil
}
