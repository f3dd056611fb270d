package services

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobinette/seedgraph"
	"github.com/bobinette/seedgraph/errors"
	"github.com/bobinette/seedgraph/layout"
	"github.com/bobinette/seedgraph/loader"
	"github.com/bobinette/seedgraph/log"
	"github.com/bobinette/seedgraph/session"
)

const (
	graphJSON = `{"nodes": ["A", "B", "Crash1"], "edges": [["A", "B"], ["B", "Crash1"]]}`
	metaJSON  = `{"A": {"found_time": 0}, "B": {"found_time": 35}, "Crash1": {"found_time": 80}, "visit": {"A": 1, "B": 4}, "target": "Crash1"}`
)

type memLayouts struct {
	mu    sync.Mutex
	snaps map[string]layout.Snapshot
	loads int
}

func newMemLayouts() *memLayouts {
	return &memLayouts{snaps: make(map[string]layout.Snapshot)}
}

func (m *memLayouts) Save(key string, snap layout.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[key] = snap
	return nil
}

func (m *memLayouts) Load(key string) (layout.Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	snap, ok := m.snaps[key]
	return snap, ok, nil
}

func (m *memLayouts) saved(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.snaps[key]
	return ok
}

func writeDocuments(t *testing.T, dir, graph, meta string) {
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, loader.GraphFile), []byte(graph), 0644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, loader.MetadataFile), []byte(meta), 0644))
}

func testConfig() GraphConfig {
	conf := GraphConfig{Layout: layout.DefaultConfig()}
	conf.Layout.Cadence = 0
	conf.SettleTimeout = 5 * time.Second
	return conf
}

func createGraphService(t *testing.T, conf GraphConfig, layouts LayoutRepository) (*GraphService, string, func()) {
	dir, err := ioutil.TempDir("", "")
	require.NoError(t, err)
	writeDocuments(t, dir, graphJSON, metaJSON)

	s := NewGraphService(loader.DirSource(dir), layouts, conf, log.Discard(), nil)
	return s, dir, func() {
		s.Close()
		os.RemoveAll(dir)
	}
}

func TestGraphService_NoGraph(t *testing.T) {
	s := NewGraphService(loader.DirSource("nowhere"), nil, testConfig(), log.Discard(), nil)

	_, err := s.Graph()
	errors.AssertCode(t, err, 503)
	_, _, err = s.Session("")
	errors.AssertCode(t, err, 503)
	errors.AssertCode(t, s.Pin("A", 0, 0), 503)

	err = s.Load(context.Background())
	errors.AssertCode(t, err, 404)
}

func TestGraphService_Select(t *testing.T) {
	tts := map[string]string{
		"gonum":  LineageGonum,
		"cayley": LineageCayley,
	}

	for name, backend := range tts {
		conf := testConfig()
		conf.Lineage = backend
		s, _, f := createGraphService(t, conf, nil)

		ctx, cancel := context.WithCancel(context.Background())
		require.NoError(t, s.Load(ctx), name)
		require.NoError(t, s.WaitSettled(ctx), name)

		id, v, err := s.Session("")
		require.NoError(t, err, name)
		require.NotEmpty(t, id, name)

		box, err := s.Select(id, "Crash1")
		require.NoError(t, err, name)
		assert.Equal(t, []string{"B"}, box.Parents, name)
		assert.Equal(t, "Crash1", v.Selection(), name)

		scene, err := s.Scene(id)
		require.NoError(t, err, name)
		fills := make(map[string]string)
		for _, n := range scene.Nodes {
			fills[n.ID] = n.Fill
		}
		assert.Equal(t, map[string]string{
			"A":      session.FillAncestor,
			"B":      session.FillAncestor,
			"Crash1": session.FillCrash,
		}, fills, name)

		_, err = s.Select(id, "Z")
		errors.AssertCode(t, err, 404)

		cancel()
		f()
	}
}

func TestGraphService_UnknownLineage(t *testing.T) {
	conf := testConfig()
	conf.Lineage = "neo4j"
	s, _, f := createGraphService(t, conf, nil)
	defer f()

	err := s.Load(context.Background())
	errors.AssertCode(t, err, 400)
}

func TestGraphService_Search(t *testing.T) {
	s, _, f := createGraphService(t, testConfig(), nil)
	defer f()
	require.NoError(t, s.Load(context.Background()))

	id, _, err := s.Session("")
	require.NoError(t, err)

	res, err := s.Search(id, "a,crash")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "Crash1"}, res.Matches)

	require.NoError(t, s.ClearSearch(id))
	_, v, err := s.Session(id)
	require.NoError(t, err)
	assert.Empty(t, v.Found())
}

func TestGraphService_Sessions(t *testing.T) {
	s, _, f := createGraphService(t, testConfig(), nil)
	defer f()
	require.NoError(t, s.Load(context.Background()))

	id, v, err := s.Session("")
	require.NoError(t, err)

	again, same, err := s.Session(id)
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.True(t, v == same)

	other, _, err := s.Session("unknown")
	require.NoError(t, err)
	assert.NotEqual(t, "unknown", other)

	// A reload drops every session.
	require.NoError(t, s.Load(context.Background()))
	reloaded, _, err := s.Session(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, reloaded)
}

func TestGraphService_PinRelease(t *testing.T) {
	s, _, f := createGraphService(t, testConfig(), nil)
	defer f()
	require.NoError(t, s.Load(context.Background()))

	require.NoError(t, s.Pin("A", 10, 20))
	snap, err := s.Positions()
	require.NoError(t, err)
	p := snap.Lookup()["A"]
	assert.True(t, p.Fixed)

	require.NoError(t, s.Release("A"))
	errors.AssertCode(t, s.Pin("Z", 0, 0), 404)
	errors.AssertCode(t, s.Release("Z"), 404)
}

func TestGraphService_PersistsLayout(t *testing.T) {
	layouts := newMemLayouts()
	s, dir, f := createGraphService(t, testConfig(), layouts)
	defer f()

	ctx := context.Background()
	require.NoError(t, s.Load(ctx))
	require.NoError(t, s.WaitSettled(ctx))

	g, err := s.Graph()
	require.NoError(t, err)
	key := GraphKey(g)
	require.Eventually(t, func() bool { return layouts.saved(key) }, 2*time.Second, 10*time.Millisecond)

	saved := layouts.snaps[key].Lookup()

	// A second service on the same documents starts from the saved layout.
	other := NewGraphService(loader.DirSource(dir), layouts, testConfig(), log.Discard(), nil)
	defer other.Close()
	require.NoError(t, other.Load(ctx))
	require.NoError(t, other.WaitSettled(ctx))
	assert.Equal(t, 2, layouts.loads)

	snap, err := other.Positions()
	require.NoError(t, err)
	for _, p := range snap.Points {
		assert.InDelta(t, saved[p.ID].X, p.X, 1, p.ID)
		assert.InDelta(t, saved[p.ID].Y, p.Y, 1, p.ID)
	}
}

func TestGraphService_DecayDefaults(t *testing.T) {
	tts := map[string]struct {
		alphaMin      float64
		velocityDecay float64
	}{
		"zero":     {alphaMin: 0, velocityDecay: 0},
		"negative": {alphaMin: -0.5, velocityDecay: -1},
		"above 1":  {alphaMin: 2, velocityDecay: 1.5},
	}

	for name, tt := range tts {
		conf := testConfig()
		conf.Layout.AlphaMin = tt.alphaMin
		conf.Layout.VelocityDecay = tt.velocityDecay

		s, _, f := createGraphService(t, conf, nil)
		assert.Equal(t, layout.DefaultConfig().AlphaMin, s.conf.Layout.AlphaMin, name)
		assert.Equal(t, layout.DefaultConfig().VelocityDecay, s.conf.Layout.VelocityDecay, name)

		ctx := context.Background()
		require.NoError(t, s.Load(ctx), name)
		assert.NoError(t, s.WaitSettled(ctx), name)
		f()
	}
}

func TestGraphKey(t *testing.T) {
	build := func(names []string, edges [][2]string) *seedgraph.Graph {
		g := seedgraph.NewGraph()
		for _, n := range names {
			g.Add(&seedgraph.Seed{Name: n})
		}
		for _, e := range edges {
			g.Link(e[0], e[1])
		}
		return g
	}

	a := build([]string{"A", "B"}, [][2]string{{"A", "B"}})
	assert.Equal(t, GraphKey(a), GraphKey(build([]string{"A", "B"}, [][2]string{{"A", "B"}})))
	assert.NotEqual(t, GraphKey(a), GraphKey(build([]string{"A", "B"}, nil)))
	assert.NotEqual(t, GraphKey(a), GraphKey(build([]string{"AB"}, nil)))
}

func TestGraphService_Cycles(t *testing.T) {
	s, dir, f := createGraphService(t, testConfig(), nil)
	defer f()
	writeDocuments(t, dir, `{"nodes": ["A", "B"], "edges": [["A", "B"], ["B", "A"]]}`, `{}`)

	require.NoError(t, s.Load(context.Background()))
	cycles, err := s.Cycles()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A", "B"}}, cycles)

	id, _, err := s.Session("")
	require.NoError(t, err)
	box, err := s.Select(id, "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, box.Parents)
}

func TestGraphService_Annotate(t *testing.T) {
	s, _, f := createGraphService(t, testConfig(), nil)
	defer f()

	s.AnnotateWith(func(g *seedgraph.Graph) error {
		if seed, ok := g.Get("A"); ok {
			seed.ToolURL = "https://example.com/a"
		}
		return nil
	})
	require.NoError(t, s.Load(context.Background()))

	id, _, err := s.Session("")
	require.NoError(t, err)
	box, err := s.Select(id, "A")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", box.ToolText())
}

func TestGraphService_Watch(t *testing.T) {
	s, dir, f := createGraphService(t, testConfig(), nil)
	defer f()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Load(ctx))

	done := make(chan error)
	go func() { done <- s.Watch(ctx, dir, 20*time.Millisecond) }()
	// Let the watcher register the directory.
	time.Sleep(100 * time.Millisecond)

	writeDocuments(t, dir, `{"nodes": ["A", "B", "C"], "edges": [["A", "B"]]}`, `{}`)
	require.Eventually(t, func() bool {
		g, err := s.Graph()
		return err == nil && len(g.Seeds) == 3
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
