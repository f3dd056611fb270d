package loader

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/graph/formats/dot"
	"gonum.org/v1/gonum/graph/formats/dot/ast"

	"github.com/bobinette/seedgraph"
	"github.com/bobinette/seedgraph/errors"
)

// ParseDOT builds a graph from the first digraph of a Graphviz file. Node
// labels of the form "<id> <secs> sec" set the found time, and nodes filled
// red are crashes.
func ParseDOT(data []byte) (*seedgraph.Graph, error) {
	f, err := dot.ParseBytes(data)
	if err != nil {
		return nil, errors.New("could not parse dot file", errors.BadRequest(), errors.WithCause(err))
	}
	if len(f.Graphs) == 0 {
		return nil, errors.New("dot file contains no graph", errors.BadRequest())
	}
	if !f.Graphs[0].Directed {
		return nil, errors.New("lineage must be a digraph", errors.BadRequest())
	}

	b := dotBuilder{
		graph: seedgraph.NewGraph(),
		names: make(map[string]string),
	}
	b.nodes(f.Graphs[0].Stmts)
	if err := b.edges(f.Graphs[0].Stmts); err != nil {
		return nil, err
	}
	return b.graph, nil
}

type dotBuilder struct {
	graph *seedgraph.Graph

	// dot id -> seed name
	names map[string]string
}

func (b *dotBuilder) nodes(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.NodeStmt:
			b.node(s.Node.ID, s.Attrs)
		case *ast.EdgeStmt:
			for _, id := range vertexIDs(s.From) {
				b.node(id, nil)
			}
			for e := s.To; e != nil; e = e.To {
				for _, id := range vertexIDs(e.Vertex) {
					b.node(id, nil)
				}
			}
		case *ast.Subgraph:
			b.nodes(s.Stmts)
		}
	}
}

func (b *dotBuilder) node(rawID string, attrs []*ast.Attr) {
	id := unquote(rawID)
	attr := make(map[string]string, len(attrs))
	for _, a := range attrs {
		attr[a.Key] = unquote(a.Val)
	}

	name, seen := b.names[id]
	if !seen {
		name = id
		if attr["color"] == "red" && strings.Contains(attr["style"], "filled") && !strings.Contains(id, seedgraph.CrashMarker) {
			name = seedgraph.CrashMarker + ": " + id
		}
		b.names[id] = name
		b.graph.Add(&seedgraph.Seed{
			Name:     name,
			Parents:  make([]string, 0),
			Children: make([]string, 0),
		})
	}

	if label, ok := attr["label"]; ok {
		s, _ := b.graph.Get(name)
		s.FoundTime = labelTime(label)
	}
}

func (b *dotBuilder) edges(stmts []ast.Stmt) error {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.EdgeStmt:
			from := vertexIDs(s.From)
			for e := s.To; e != nil; e = e.To {
				to := vertexIDs(e.Vertex)
				for _, f := range from {
					for _, t := range to {
						if !b.graph.Link(b.names[unquote(f)], b.names[unquote(t)]) {
							return errors.New(fmt.Sprintf("edge %s -> %s references an unknown node", f, t), errors.BadRequest())
						}
					}
				}
				from = to
			}
		case *ast.Subgraph:
			if err := b.edges(s.Stmts); err != nil {
				return err
			}
		}
	}
	return nil
}

func vertexIDs(v ast.Vertex) []string {
	switch v := v.(type) {
	case *ast.Node:
		return []string{v.ID}
	case *ast.Subgraph:
		var ids []string
		for _, stmt := range v.Stmts {
			if n, ok := stmt.(*ast.NodeStmt); ok {
				ids = append(ids, n.Node.ID)
			}
		}
		return ids
	}
	return nil
}

// labelTime extracts N from "<id> N sec".
func labelTime(label string) int64 {
	fields := strings.Fields(label)
	for i := 1; i < len(fields); i++ {
		if fields[i] != "sec" {
			continue
		}
		if n, err := strconv.ParseInt(fields[i-1], 10, 64); err == nil {
			return n
		}
	}
	return 0
}

func unquote(s string) string {
	if strings.HasPrefix(s, `"`) {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
	}
	return s
}
