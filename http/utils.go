package http

import (
	"context"
	"encoding/json"
	"net/http"

	kithttp "github.com/go-kit/kit/transport/http"

	"github.com/bobinette/seedgraph/errors"
	"github.com/bobinette/seedgraph/session"
)

// encodeError writes an error as an HTTP response. It handles the status code
// contained in the error.
func encodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(errors.Code(err))

	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
	})
}

// encodeSessionResponse hands the session id of the response back to the
// client as a cookie before writing the JSON body.
func encodeSessionResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	if res, ok := response.(map[string]interface{}); ok {
		if id, ok := res["session"].(string); ok && id != "" {
			setSessionCookie(w, id)
		}
	}
	return kithttp.EncodeJSONResponse(ctx, w, response)
}

func setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
	})
}

// sessionID reads the session cookie. An empty id makes the service start a
// new session.
func sessionID(r *http.Request) string {
	c, err := r.Cookie(session.CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func params(ctx context.Context) map[string]string {
	p, ok := ctx.Value("params").(map[string]string)
	if !ok {
		return map[string]string{}
	}
	return p
}

// Server defines the interface to register the http handlers.
type Server interface {
	RegisterHandler(path, method string, f http.Handler)
}
