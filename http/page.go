package http

import (
	"bytes"
	"net/http"

	"github.com/bobinette/seedgraph/errors"
	"github.com/bobinette/seedgraph/log"
	"github.com/bobinette/seedgraph/render"
	"github.com/bobinette/seedgraph/services"
)

// PageHandler renders the viewer page of the session of the request.
//
// Query parameters: k selects a seed, q runs a search (an empty q clears
// it), close hides the infobox and filter filters the stats panel.
type PageHandler struct {
	Graphs  *services.GraphService
	Fuzzers *services.FuzzerService
	Logger  log.Logger
}

func RegisterPage(srv Server, h *PageHandler) {
	srv.RegisterHandler("/", "GET", h)
}

func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	cookie := sessionID(r)
	id, v, err := h.Graphs.Session(cookie)
	if err != nil {
		encodeError(ctx, err, w)
		return
	}

	k := query.Get("k")
	if id != cookie {
		// First page of a session: the camera is placed once the layout
		// settled.
		if err := h.Graphs.WaitSettled(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			h.Logger.Errorf("rendering page before the layout settled: %v", err)
		}
		v.InitialCamera(k)
	} else if k != "" {
		if _, err := v.Select(k); err != nil && errors.Code(err) != http.StatusNotFound {
			encodeError(ctx, err, w)
			return
		}
	}

	if query.Get("close") != "" {
		v.Close()
	}

	if q, ok := query["q"]; ok {
		if _, err := v.Search(q[0]); err != nil {
			encodeError(ctx, err, w)
			return
		}
	}

	scene, err := h.Graphs.Scene(id)
	if err != nil {
		encodeError(ctx, err, w)
		return
	}

	res, cursor := v.Result()
	data := render.PageData{
		Scene:   scene,
		Infobox: v.Infobox(),
		Search:  res,
		Cursor:  cursor,
	}
	if h.Fuzzers != nil {
		data.Stats = h.Fuzzers.Stats(query.Get("filter"))
	}

	var buf bytes.Buffer
	if err := render.Page(&buf, data); err != nil {
		h.Logger.Errorf("could not render page: %v", err)
		encodeError(ctx, errors.New("could not render page", errors.WithCause(err)), w)
		return
	}

	setSessionCookie(w, id)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
