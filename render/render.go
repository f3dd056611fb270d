// Package render draws the seed graph as SVG and the viewer page around it.
package render

import (
	"embed"
	"html/template"
	"io"
	"strconv"

	"github.com/bobinette/seedgraph/search"
	"github.com/bobinette/seedgraph/session"
	"github.com/bobinette/seedgraph/stats"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(
	template.New("").
		Funcs(template.FuncMap{"num": num}).
		ParseFS(templateFS, "templates/*.html"),
)

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>` + "\n"

// SVG writes the scene as a standalone SVG document.
func SVG(w io.Writer, s Scene) error {
	if _, err := io.WriteString(w, xmlHeader); err != nil {
		return err
	}
	return templates.ExecuteTemplate(w, "svg", s)
}

type PageData struct {
	Title   string
	Scene   Scene
	Infobox session.Infobox
	Search  search.Result
	// Cursor is the active dropdown item, -1 for none.
	Cursor int
	Stats  stats.Panel
}

// Page writes the full viewer page.
func Page(w io.Writer, d PageData) error {
	if d.Title == "" {
		d.Title = "Seed graph"
	}
	return templates.ExecuteTemplate(w, "page", d)
}
