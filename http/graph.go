package http

import (
	"context"
	"encoding/json"
	"net/http"

	kithttp "github.com/go-kit/kit/transport/http"

	"github.com/bobinette/seedgraph/endpoints"
	"github.com/bobinette/seedgraph/errors"
	"github.com/bobinette/seedgraph/search"
	"github.com/bobinette/seedgraph/services"
)

func RegisterGraphEndpoints(srv Server, service *services.GraphService) {
	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(encodeError),
	}

	// Create endpoint
	ep := endpoints.NewGraphEndpoint(service)

	// Scene handler
	sceneHandler := kithttp.NewServer(
		ep.Scene,
		decodeSessionRequest,
		encodeSessionResponse,
		opts...,
	)

	// Select handler
	selectHandler := kithttp.NewServer(
		ep.Select,
		decodeSeedRequest,
		encodeSessionResponse,
		opts...,
	)

	// Search handlers
	searchHandler := kithttp.NewServer(
		ep.Search,
		decodeSearchRequest,
		encodeSessionResponse,
		opts...,
	)
	keyHandler := kithttp.NewServer(
		ep.Key,
		decodeKeyRequest,
		encodeSessionResponse,
		opts...,
	)
	clearHandler := kithttp.NewServer(
		ep.Clear,
		decodeSessionRequest,
		encodeSessionResponse,
		opts...,
	)

	// Infobox handler
	closeHandler := kithttp.NewServer(
		ep.CloseInfobox,
		decodeSessionRequest,
		encodeSessionResponse,
		opts...,
	)

	// Drag handlers
	pinHandler := kithttp.NewServer(
		ep.Pin,
		decodePinRequest,
		kithttp.EncodeJSONResponse,
		opts...,
	)
	releaseHandler := kithttp.NewServer(
		ep.Release,
		decodeNameRequest,
		kithttp.EncodeJSONResponse,
		opts...,
	)

	cyclesHandler := kithttp.NewServer(
		ep.Cycles,
		kithttp.NopRequestDecoder,
		kithttp.EncodeJSONResponse,
		opts...,
	)

	// Register all handlers
	srv.RegisterHandler("/api/graph", "GET", sceneHandler)
	srv.RegisterHandler("/api/graph/cycles", "GET", cyclesHandler)
	srv.RegisterHandler("/api/seeds/:name", "GET", selectHandler)
	srv.RegisterHandler("/api/seeds/:name/pin", "POST", pinHandler)
	srv.RegisterHandler("/api/seeds/:name/pin", "DELETE", releaseHandler)
	srv.RegisterHandler("/api/search", "GET", searchHandler)
	srv.RegisterHandler("/api/search", "DELETE", clearHandler)
	srv.RegisterHandler("/api/search/key", "POST", keyHandler)
	srv.RegisterHandler("/api/infobox", "DELETE", closeHandler)
}

func decodeSessionRequest(_ context.Context, r *http.Request) (interface{}, error) {
	defer r.Body.Close()

	return endpoints.SessionRequest{Session: sessionID(r)}, nil
}

func decodeSeedRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	defer r.Body.Close()

	req := endpoints.SeedRequest{
		Session: sessionID(r),
		Name:    params(ctx)["name"],
	}
	return req, nil
}

func decodeNameRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	defer r.Body.Close()

	return params(ctx)["name"], nil
}

func decodeSearchRequest(_ context.Context, r *http.Request) (interface{}, error) {
	defer r.Body.Close()

	req := endpoints.SearchRequest{
		Session: sessionID(r),
		Q:       r.URL.Query().Get("q"),
	}
	return req, nil
}

func decodeKeyRequest(_ context.Context, r *http.Request) (interface{}, error) {
	defer r.Body.Close()

	var body struct {
		Key   string `json:"key"`
		Input string `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, errors.New("could not read body", errors.BadRequest(), errors.WithCause(err))
	}

	req := endpoints.KeyRequest{
		Session: sessionID(r),
		Key:     search.ParseKey(body.Key),
		Input:   body.Input,
	}
	return req, nil
}

func decodePinRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	defer r.Body.Close()

	req := endpoints.PinRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.New("could not read body", errors.BadRequest(), errors.WithCause(err))
	}
	req.Name = params(ctx)["name"]
	return req, nil
}
