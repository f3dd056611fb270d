package gonum

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/bobinette/seedgraph"
	"github.com/bobinette/seedgraph/errors"
)

// LineageIndex keeps the lineage twice, parent -> child and child -> parent,
// so both directions are plain breadth first walks.
type LineageIndex struct {
	ids   map[string]int64
	names []string

	forward *simple.DirectedGraph
	reverse *simple.DirectedGraph

	selfLoops []string
}

func New(g *seedgraph.Graph) *LineageIndex {
	l := &LineageIndex{
		ids:     make(map[string]int64, len(g.Seeds)),
		names:   make([]string, len(g.Seeds)),
		forward: simple.NewDirectedGraph(),
		reverse: simple.NewDirectedGraph(),
	}

	for i, s := range g.Seeds {
		id := int64(i)
		l.ids[s.Name] = id
		l.names[i] = s.Name
		l.forward.AddNode(simple.Node(id))
		l.reverse.AddNode(simple.Node(id))
	}

	for _, e := range g.Edges {
		from, ok := l.ids[e.Source]
		if !ok {
			continue
		}
		to, ok := l.ids[e.Target]
		if !ok {
			continue
		}

		// simple graphs panic on self loops
		if from == to {
			l.selfLoops = append(l.selfLoops, e.Source)
			continue
		}
		l.forward.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
		l.reverse.SetEdge(simple.Edge{F: simple.Node(to), T: simple.Node(from)})
	}

	return l
}

// Ancestors returns every seed reachable through parent links, in load
// order. The seed itself is never part of the result, even on a cycle.
func (l *LineageIndex) Ancestors(name string) ([]string, error) {
	return l.walk(l.reverse, name)
}

// Descendants returns every seed reachable through child links, in load
// order.
func (l *LineageIndex) Descendants(name string) ([]string, error) {
	return l.walk(l.forward, name)
}

func (l *LineageIndex) walk(g *simple.DirectedGraph, name string) ([]string, error) {
	start, ok := l.ids[name]
	if !ok {
		return nil, errors.New(fmt.Sprintf("seed %s not found", name), errors.NotFound())
	}

	reached := make(map[int64]bool)
	bf := traverse.BreadthFirst{
		Visit: func(n graph.Node) {
			if n.ID() != start {
				reached[n.ID()] = true
			}
		},
	}
	bf.Walk(g, simple.Node(start), nil)

	return l.sorted(reached), nil
}

// Cycles reports the cycles of the lineage. Each cycle lists its seeds
// once, starting from the seed loaded first.
func (l *LineageIndex) Cycles() [][]string {
	var cycles [][]string
	for _, name := range l.selfLoops {
		cycles = append(cycles, []string{name})
	}

	for _, c := range topo.DirectedCyclesIn(l.forward) {
		// the first node is repeated at the end
		if len(c) > 1 {
			c = c[:len(c)-1]
		}
		names := make([]string, len(c))
		lowest := 0
		for i, n := range c {
			names[i] = l.names[n.ID()]
			if n.ID() < c[lowest].ID() {
				lowest = i
			}
		}
		cycles = append(cycles, append(names[lowest:], names[:lowest]...))
	}
	return cycles
}

// Order returns the seeds sorted so every parent comes before its children.
// It fails when the lineage has a cycle.
func (l *LineageIndex) Order() ([]string, error) {
	if len(l.selfLoops) > 0 {
		return nil, errors.New(fmt.Sprintf("seed %s is its own parent", l.selfLoops[0]), errors.Unprocessable())
	}

	nodes, err := topo.SortStabilized(l.forward, func(ns []graph.Node) {
		sort.Slice(ns, func(i, j int) bool { return ns[i].ID() < ns[j].ID() })
	})
	if err != nil {
		return nil, errors.New("lineage is not acyclic", errors.Unprocessable(), errors.WithCause(err))
	}

	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = l.names[n.ID()]
	}
	return names, nil
}

func (l *LineageIndex) sorted(ids map[int64]bool) []string {
	sortedIDs := make([]int64, 0, len(ids))
	for id := range ids {
		sortedIDs = append(sortedIDs, id)
	}
	sort.Slice(sortedIDs, func(i, j int) bool { return sortedIDs[i] < sortedIDs[j] })

	names := make([]string, len(sortedIDs))
	for i, id := range sortedIDs {
		names[i] = l.names[id]
	}
	return names
}
