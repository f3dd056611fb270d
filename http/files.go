package http

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/bobinette/seedgraph/errors"
	"github.com/bobinette/seedgraph/loader"
)

// RegisterDataFiles serves the documents of a local data directory: both
// graph documents and the mutation delta files linked from the infobox.
func RegisterDataFiles(srv Server, dir string) {
	for _, name := range []string{loader.GraphFile, loader.MetadataFile} {
		path := filepath.Join(dir, name)
		srv.RegisterHandler("/"+name, "GET", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, path)
		}))
	}

	deltas := filepath.Join(dir, "mutation_delta")
	srv.RegisterHandler("/mutation_delta/:file", "GET", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file := params(r.Context())["file"]
		if file == "" || file != filepath.Base(file) || strings.HasPrefix(file, ".") {
			encodeError(r.Context(), errors.New("invalid file name", errors.BadRequest()), w)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		http.ServeFile(w, r, filepath.Join(deltas, file))
	}))
}
