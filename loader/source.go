package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/bobinette/seedgraph/errors"
)

// Source opens the documents of a seed graph by file name.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// DirSource reads documents from a local directory.
type DirSource string

func (d DirSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(string(d), name))
	if os.IsNotExist(err) {
		return nil, errors.New(fmt.Sprintf("%s not found in %s", name, string(d)), errors.NotFound())
	} else if err != nil {
		return nil, err
	}
	return f, nil
}

// HTTPSource fetches documents relative to a base URL.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPSource(baseURL string) *HTTPSource {
	return &HTTPSource{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 20 * time.Second},
	}
}

func (s *HTTPSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return nil, errors.New("invalid base url", errors.BadRequest(), errors.WithCause(err))
	}
	u.Path = path.Join(u.Path, name)

	req, err := http.NewRequest("GET", u.String(), nil)
	if err != nil {
		return nil, err
	}

	res, err := s.Client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		res.Body.Close()
		return nil, errors.New(fmt.Sprintf("GET %s: %s", u.String(), res.Status), errors.WithCode(res.StatusCode))
	}
	return res.Body, nil
}
