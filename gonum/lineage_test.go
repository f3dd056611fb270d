package gonum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobinette/seedgraph"
	"github.com/bobinette/seedgraph/errors"
)

func buildGraph(t *testing.T, names []string, edges [][2]string) *seedgraph.Graph {
	g := seedgraph.NewGraph()
	for _, name := range names {
		require.True(t, g.Add(&seedgraph.Seed{Name: name}))
	}
	for _, e := range edges {
		require.True(t, g.Link(e[0], e[1]))
	}
	return g
}

func TestLineageIndex(t *testing.T) {
	g := buildGraph(t,
		[]string{"1", "2", "3", "4", "Crash: 1", "5"},
		[][2]string{{"1", "2"}, {"1", "3"}, {"2", "4"}, {"3", "4"}, {"4", "Crash: 1"}},
	)
	idx := New(g)

	tts := map[string]struct {
		name        string
		ancestors   []string
		descendants []string
	}{
		"root":     {name: "1", ancestors: []string{}, descendants: []string{"2", "3", "4", "Crash: 1"}},
		"diamond":  {name: "4", ancestors: []string{"1", "2", "3"}, descendants: []string{"Crash: 1"}},
		"leaf":     {name: "Crash: 1", ancestors: []string{"1", "2", "3", "4"}, descendants: []string{}},
		"isolated": {name: "5", ancestors: []string{}, descendants: []string{}},
	}

	for name, tt := range tts {
		ancestors, err := idx.Ancestors(tt.name)
		require.NoError(t, err, name)
		assert.Equal(t, tt.ancestors, ancestors, name)

		descendants, err := idx.Descendants(tt.name)
		require.NoError(t, err, name)
		assert.Equal(t, tt.descendants, descendants, name)
	}

	assert.Empty(t, idx.Cycles())

	order, err := idx.Order()
	require.NoError(t, err)
	require.Len(t, order, 6)
	pos := make(map[string]int)
	for i, name := range order {
		pos[name] = i
	}
	for _, e := range g.Edges {
		assert.Less(t, pos[e.Source], pos[e.Target], "%s should come before %s", e.Source, e.Target)
	}
}

func TestLineageIndex_Unknown(t *testing.T) {
	idx := New(seedgraph.NewGraph())

	_, err := idx.Ancestors("nope")
	errors.AssertCode(t, err, 404)

	_, err = idx.Descendants("nope")
	errors.AssertCode(t, err, 404)
}

func TestLineageIndex_Cycles(t *testing.T) {
	g := buildGraph(t,
		[]string{"A", "B", "C", "D"},
		[][2]string{{"A", "B"}, {"B", "C"}, {"C", "A"}, {"D", "D"}},
	)
	idx := New(g)

	ancestors, err := idx.Ancestors("B")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, ancestors)

	ancestors, err = idx.Ancestors("D")
	require.NoError(t, err)
	assert.Empty(t, ancestors)

	cycles := idx.Cycles()
	assert.ElementsMatch(t, [][]string{{"D"}, {"A", "B", "C"}}, cycles)

	_, err = idx.Order()
	errors.AssertCode(t, err, 422)
}
