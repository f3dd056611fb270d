package endpoints

import (
	"context"

	"github.com/bobinette/seedgraph/errors"
	"github.com/bobinette/seedgraph/search"
	"github.com/bobinette/seedgraph/services"
)

// Variables and functions for specific errors
var (
	errInvalidRequest = errors.New("invalid request", errors.BadRequest())
)

type GraphEndpoint struct {
	service *services.GraphService
}

func NewGraphEndpoint(service *services.GraphService) *GraphEndpoint {
	return &GraphEndpoint{
		service: service,
	}
}

// SessionRequest is any request only needing the session of the caller.
type SessionRequest struct {
	Session string
}

type SeedRequest struct {
	Session string
	Name    string
}

type SearchRequest struct {
	Session string
	Q       string
}

type KeyRequest struct {
	Session string
	Key     search.Key
	Input   string
}

type PinRequest struct {
	Name string
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

func (ep *GraphEndpoint) Scene(ctx context.Context, r interface{}) (interface{}, error) {
	req, ok := r.(SessionRequest)
	if !ok {
		return nil, errInvalidRequest
	}

	id, _, err := ep.service.Session(req.Session)
	if err != nil {
		return nil, err
	}

	scene, err := ep.service.Scene(id)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"data":    scene,
		"session": id,
	}, nil
}

func (ep *GraphEndpoint) Select(ctx context.Context, r interface{}) (interface{}, error) {
	req, ok := r.(SeedRequest)
	if !ok {
		return nil, errInvalidRequest
	}

	id, v, err := ep.service.Session(req.Session)
	if err != nil {
		return nil, err
	}

	infobox, err := v.Select(req.Name)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"data":    infobox,
		"camera":  v.Camera(),
		"fills":   v.Fills(),
		"session": id,
	}, nil
}

func (ep *GraphEndpoint) Search(ctx context.Context, r interface{}) (interface{}, error) {
	req, ok := r.(SearchRequest)
	if !ok {
		return nil, errInvalidRequest
	}

	id, _, err := ep.service.Session(req.Session)
	if err != nil {
		return nil, err
	}

	res, err := ep.service.Search(id, req.Q)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"data":    res,
		"session": id,
	}, nil
}

// Key applies a key press of the search box and returns the resulting
// dropdown.
func (ep *GraphEndpoint) Key(ctx context.Context, r interface{}) (interface{}, error) {
	req, ok := r.(KeyRequest)
	if !ok {
		return nil, errInvalidRequest
	}

	id, v, err := ep.service.Session(req.Session)
	if err != nil {
		return nil, err
	}

	action, err := ep.service.Key(id, req.Key, req.Input)
	if err != nil {
		return nil, err
	}

	res, cursor := v.Result()
	return map[string]interface{}{
		"data": map[string]interface{}{
			"action":  action.String(),
			"result":  res,
			"cursor":  cursor,
			"infobox": v.Infobox(),
		},
		"session": id,
	}, nil
}

// Clear empties the dropdown and the highlights, as a click on the canvas
// background does.
func (ep *GraphEndpoint) Clear(ctx context.Context, r interface{}) (interface{}, error) {
	req, ok := r.(SessionRequest)
	if !ok {
		return nil, errInvalidRequest
	}

	id, _, err := ep.service.Session(req.Session)
	if err != nil {
		return nil, err
	}

	if err := ep.service.ClearSearch(id); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"data":    "ok",
		"session": id,
	}, nil
}

func (ep *GraphEndpoint) CloseInfobox(ctx context.Context, r interface{}) (interface{}, error) {
	req, ok := r.(SessionRequest)
	if !ok {
		return nil, errInvalidRequest
	}

	id, _, err := ep.service.Session(req.Session)
	if err != nil {
		return nil, err
	}

	if err := ep.service.CloseInfobox(id); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"data":    "ok",
		"session": id,
	}, nil
}

func (ep *GraphEndpoint) Pin(ctx context.Context, r interface{}) (interface{}, error) {
	req, ok := r.(PinRequest)
	if !ok {
		return nil, errInvalidRequest
	}

	if err := ep.service.Pin(req.Name, req.X, req.Y); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"data": "ok",
	}, nil
}

func (ep *GraphEndpoint) Release(ctx context.Context, r interface{}) (interface{}, error) {
	name, ok := r.(string)
	if !ok {
		return nil, errInvalidRequest
	}

	if err := ep.service.Release(name); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"data": "ok",
	}, nil
}

// Cycles lists the cycles of the loaded lineage, empty for a DAG.
func (ep *GraphEndpoint) Cycles(ctx context.Context, r interface{}) (interface{}, error) {
	cycles, err := ep.service.Cycles()
	if err != nil {
		return nil, err
	}
	if cycles == nil {
		cycles = make([][]string, 0)
	}

	return map[string]interface{}{
		"data": cycles,
	}, nil
}
