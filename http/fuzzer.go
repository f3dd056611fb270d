package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	kithttp "github.com/go-kit/kit/transport/http"

	"github.com/bobinette/seedgraph"
	"github.com/bobinette/seedgraph/endpoints"
	"github.com/bobinette/seedgraph/errors"
	"github.com/bobinette/seedgraph/services"
)

func RegisterFuzzerEndpoints(srv Server, service *services.FuzzerService) {
	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(encodeError),
	}

	// Create endpoint
	ep := endpoints.NewFuzzerEndpoint(service)

	// Search fuzzer handler
	searchFuzzerHandler := kithttp.NewServer(
		ep.Search,
		decodeSearchFuzzerRequest,
		kithttp.EncodeJSONResponse,
		opts...,
	)

	// Get fuzzer handler
	getFuzzerHandler := kithttp.NewServer(
		ep.Get,
		decodeNameRequest,
		kithttp.EncodeJSONResponse,
		opts...,
	)

	// Import fuzzers handler
	importFuzzersHandler := kithttp.NewServer(
		ep.Import,
		decodeImportFuzzersRequest,
		kithttp.EncodeJSONResponse,
		opts...,
	)

	// Stats handler
	statsHandler := kithttp.NewServer(
		ep.Stats,
		decodeStatsRequest,
		kithttp.EncodeJSONResponse,
		opts...,
	)

	// Register all handlers
	srv.RegisterHandler("/api/fuzzers", "GET", searchFuzzerHandler)
	srv.RegisterHandler("/api/fuzzers", "POST", importFuzzersHandler)
	srv.RegisterHandler("/api/fuzzers/:name", "GET", getFuzzerHandler)
	srv.RegisterHandler("/api/stats", "GET", statsHandler)
}

func decodeSearchFuzzerRequest(_ context.Context, r *http.Request) (interface{}, error) {
	defer r.Body.Close()

	req := endpoints.SearchFuzzerRequest{}
	req.Q = r.URL.Query().Get("q")

	limit := r.URL.Query().Get("limit")
	if limit != "" {
		var err error
		req.Limit, err = strconv.Atoi(limit)
		if err != nil {
			return nil, errors.New("invalid parameter: limit", errors.BadRequest(), errors.WithCause(err))
		}
	}

	offset := r.URL.Query().Get("offset")
	if offset != "" {
		var err error
		req.Offset, err = strconv.Atoi(offset)
		if err != nil {
			return nil, errors.New("invalid parameter: offset", errors.BadRequest(), errors.WithCause(err))
		}
	}

	return req, nil
}

func decodeImportFuzzersRequest(_ context.Context, r *http.Request) (interface{}, error) {
	defer r.Body.Close()

	var fuzzers []seedgraph.Fuzzer
	if err := json.NewDecoder(r.Body).Decode(&fuzzers); err != nil {
		return nil, errors.New("could not read body", errors.BadRequest(), errors.WithCause(err))
	}
	return fuzzers, nil
}

func decodeStatsRequest(_ context.Context, r *http.Request) (interface{}, error) {
	defer r.Body.Close()

	return r.URL.Query().Get("filter"), nil
}
