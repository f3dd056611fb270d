package cayley

import (
	"context"
	"fmt"
	"sort"

	"github.com/cayleygraph/cayley"
	"github.com/cayleygraph/cayley/graph"
	"github.com/cayleygraph/cayley/graph/path"
	"github.com/cayleygraph/cayley/quad"

	"github.com/bobinette/seedgraph"
	"github.com/bobinette/seedgraph/errors"
)

var childEdge = quad.IRI("child")

// LineageIndex stores the lineage as <parent> <child> <child> quads in an
// in-memory cayley graph.
type LineageIndex struct {
	store *cayley.Handle
	order map[string]int
}

func New(g *seedgraph.Graph) (*LineageIndex, error) {
	store, err := cayley.NewMemoryGraph()
	if err != nil {
		return nil, err
	}

	order := make(map[string]int, len(g.Seeds))
	for i, s := range g.Seeds {
		order[s.Name] = i
	}

	tx := graph.NewTransaction()
	for _, e := range g.Edges {
		tx.AddQuad(quad.Make(quad.String(e.Source), childEdge, quad.String(e.Target), ""))
	}
	if err := store.ApplyTransaction(tx); err != nil {
		store.Close()
		return nil, err
	}

	return &LineageIndex{
		store: store,
		order: order,
	}, nil
}

// Close closes the underlying store, returning the error if any.
func (l *LineageIndex) Close() error {
	return l.store.Close()
}

func (l *LineageIndex) Ancestors(name string) ([]string, error) {
	return l.follow(name, path.StartMorphism().In(childEdge))
}

func (l *LineageIndex) Descendants(name string) ([]string, error) {
	return l.follow(name, path.StartMorphism().Out(childEdge))
}

// follow walks the morphism recursively. The depth bound is the number of
// seeds, so any walk that does not revisit a seed fits in it.
func (l *LineageIndex) follow(name string, via *path.Path) ([]string, error) {
	if _, ok := l.order[name]; !ok {
		return nil, errors.New(fmt.Sprintf("seed %s not found", name), errors.NotFound())
	}

	p := cayley.StartPath(l.store, quad.String(name)).FollowRecursive(via, len(l.order)+1, nil)

	seen := make(map[string]bool)
	err := p.Iterate(context.Background()).EachValue(l.store, func(v quad.Value) {
		s, ok := quad.NativeOf(v).(string)
		if !ok || s == name {
			return
		}
		if _, known := l.order[s]; known {
			seen[s] = true
		}
	})
	if err != nil {
		return nil, errors.New("could not walk lineage", errors.WithCause(err))
	}

	names := make([]string, 0, len(seen))
	for s := range seen {
		names = append(names, s)
	}
	sort.Slice(names, func(i, j int) bool { return l.order[names[i]] < l.order[names[j]] })
	return names, nil
}
