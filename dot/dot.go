// Package dot writes a seed lineage as a Graphviz digraph.
package dot

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/bobinette/seedgraph"
)

const crashColor = "red"

type node struct {
	name  string
	found int64
	crash bool
}

type edge struct {
	s string
	t string
}

type Graph struct {
	order    []string
	vertices map[string]node
	edges    []edge
}

func NewGraph() *Graph {
	return &Graph{
		vertices: make(map[string]node),
		edges:    make([]edge, 0),
	}
}

// FromSeeds copies the seeds and edges of a lineage graph.
func FromSeeds(g *seedgraph.Graph) *Graph {
	d := NewGraph()
	for _, s := range g.Seeds {
		d.AddVertex(s)
	}
	for _, e := range g.Edges {
		d.edges = append(d.edges, edge{s: e.Source, t: e.Target})
	}
	return d
}

// Reorder writes the listed vertices first, in the given order. Unknown
// names are ignored.
func (g *Graph) Reorder(names []string) {
	order := make([]string, 0, len(g.order))
	seen := make(map[string]bool, len(g.order))
	for _, name := range names {
		if _, ok := g.vertices[name]; ok && !seen[name] {
			order = append(order, name)
			seen[name] = true
		}
	}
	for _, name := range g.order {
		if !seen[name] {
			order = append(order, name)
		}
	}
	g.order = order
}

// Keep drops every vertex not listed, along with its edges.
func (g *Graph) Keep(names []string) {
	keep := make(map[string]bool, len(names))
	for _, name := range names {
		keep[name] = true
	}

	order := g.order[:0]
	for _, name := range g.order {
		if keep[name] {
			order = append(order, name)
		} else {
			delete(g.vertices, name)
		}
	}
	g.order = order

	edges := g.edges[:0]
	for _, e := range g.edges {
		if keep[e.s] && keep[e.t] {
			edges = append(edges, e)
		}
	}
	g.edges = edges
}

func (g *Graph) AddVertex(s *seedgraph.Seed) {
	if _, ok := g.vertices[s.Name]; !ok {
		g.order = append(g.order, s.Name)
	}
	g.vertices[s.Name] = node{name: s.Name, found: s.FoundTime, crash: s.IsCrash()}
}

func (g *Graph) AddEdge(s, t *seedgraph.Seed) {
	g.AddVertex(s)
	g.AddVertex(t)
	g.edges = append(g.edges, edge{s: s.Name, t: t.Name})
}

func (g *Graph) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	b.WriteString("digraph G {\n")
	b.WriteString("  node [shape=box]\n")

	for _, name := range g.order {
		fmt.Fprintf(&b, "  %s\n", g.formatNode(g.vertices[name]))
	}

	for _, e := range g.edges {
		fmt.Fprintf(&b, "  %s -> %s\n", quote(e.s), quote(e.t))
	}
	b.WriteString("}\n")

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

func (g *Graph) formatNode(n node) string {
	attr := map[string]string{
		"label": fmt.Sprintf("%s %d sec", n.name, n.found),
	}

	if n.crash {
		attr["style"] = "filled"
		attr["color"] = crashColor
	}

	keys := make([]string, 0, len(attr))
	for k := range attr {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrl := make([]string, len(keys))
	for i, k := range keys {
		attrl[i] = fmt.Sprintf("%s=%s", k, quote(attr[k]))
	}

	return fmt.Sprintf("%s [%s]", quote(n.name), strings.Join(attrl, ","))
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
