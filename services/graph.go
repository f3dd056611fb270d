package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bobinette/seedgraph"
	"github.com/bobinette/seedgraph/cayley"
	"github.com/bobinette/seedgraph/errors"
	"github.com/bobinette/seedgraph/gonum"
	"github.com/bobinette/seedgraph/layout"
	"github.com/bobinette/seedgraph/loader"
	"github.com/bobinette/seedgraph/log"
	"github.com/bobinette/seedgraph/metrics"
	"github.com/bobinette/seedgraph/render"
	"github.com/bobinette/seedgraph/search"
	"github.com/bobinette/seedgraph/session"
)

const (
	LineageGonum  = "gonum"
	LineageCayley = "cayley"

	DefaultSettleTimeout = 10 * time.Second

	frameBuffer = 64
)

var errNoGraph = errors.New("no graph loaded", errors.Unavailable())

// LayoutRepository persists settled positions between runs.
type LayoutRepository interface {
	Save(key string, snap layout.Snapshot) error
	Load(key string) (layout.Snapshot, bool, error)
}

type GraphConfig struct {
	// Lineage selects the ancestor index: gonum (default) or cayley.
	Lineage       string        `toml:"lineage"`
	SettleTimeout time.Duration `toml:"settle_timeout"`
	Layout        layout.Config `toml:"layout"`
}

type graph struct {
	key     string
	graph   *seedgraph.Graph
	lineage seedgraph.LineageIndex
	cycles  [][]string
	sim     *layout.Simulation

	done    chan struct{}
	wg      sync.WaitGroup
	closers []func() error
}

func (g *graph) close() {
	close(g.done)
	g.sim.Stop()
	g.sim.CloseSubscriptions()
	g.wg.Wait()
	for _, f := range g.closers {
		f()
	}
}

// GraphService owns the loaded seed graph, its layout simulation and the
// viewer sessions. Loading a new graph replaces all three.
type GraphService struct {
	source   loader.Source
	layouts  LayoutRepository
	conf     GraphConfig
	logger   log.Logger
	metrics  *metrics.Metrics
	sessions *session.Store
	annotate func(*seedgraph.Graph) error

	mu      sync.RWMutex
	current *graph
}

// NewGraphService creates a service without graph. layouts and m may be
// nil.
func NewGraphService(src loader.Source, layouts LayoutRepository, conf GraphConfig, logger log.Logger, m *metrics.Metrics) *GraphService {
	if conf.SettleTimeout <= 0 {
		conf.SettleTimeout = DefaultSettleTimeout
	}
	if conf.Layout.Width <= 0 || conf.Layout.Height <= 0 {
		conf.Layout = layout.DefaultConfig()
	}
	// alpha only decays below alpha_min for 0 < alpha_min < 1
	if conf.Layout.AlphaMin <= 0 || conf.Layout.AlphaMin >= 1 {
		conf.Layout.AlphaMin = layout.DefaultConfig().AlphaMin
	}
	if conf.Layout.VelocityDecay <= 0 || conf.Layout.VelocityDecay >= 1 {
		conf.Layout.VelocityDecay = layout.DefaultConfig().VelocityDecay
	}

	return &GraphService{
		source:   src,
		layouts:  layouts,
		conf:     conf,
		logger:   logger,
		metrics:  m,
		sessions: session.NewStore(nil),
	}
}

// AnnotateWith registers a function run on every graph before it is
// installed.
func (s *GraphService) AnnotateWith(f func(*seedgraph.Graph) error) {
	s.annotate = f
}

// Load fetches both documents from the source and installs the graph.
func (s *GraphService) Load(ctx context.Context) error {
	g, err := loader.Load(ctx, s.source)
	if err != nil {
		s.observeLoad(0, err)
		return err
	}
	return s.Use(ctx, g)
}

// Use installs g: the lineage index is built, the layout restarts from the
// persisted snapshot if there is one, and every session is dropped. The
// simulation runs until it settles or ctx is done.
func (s *GraphService) Use(ctx context.Context, g *seedgraph.Graph) error {
	if s.annotate != nil {
		if err := s.annotate(g); err != nil {
			s.logger.Errorf("could not annotate graph: %v", err)
		}
	}

	next, err := s.build(g)
	if err != nil {
		s.observeLoad(0, err)
		return err
	}
	s.observeLoad(len(g.Seeds), nil)

	w, h := s.conf.Layout.Width, s.conf.Layout.Height
	factory := func() *session.View {
		return session.NewView(next.graph, next.lineage, next.sim, w, h)
	}

	next.sim.Start(ctx)
	next.wg.Add(1)
	go func() {
		defer next.wg.Done()
		select {
		case <-next.sim.Settled():
			s.persist(next)
		case <-next.done:
		case <-ctx.Done():
		}
	}()

	s.mu.Lock()
	previous := s.current
	s.current = next
	s.sessions.Reset(factory)
	s.mu.Unlock()

	if previous != nil {
		s.persist(previous)
		previous.close()
	}

	s.logger.Printf("loaded %d seeds and %d edges", len(g.Seeds), len(g.Edges))
	return nil
}

func (s *GraphService) build(g *seedgraph.Graph) (*graph, error) {
	next := &graph{
		key:   GraphKey(g),
		graph: g,
		done:  make(chan struct{}),
	}

	index := gonum.New(g)
	next.lineage = index
	next.cycles = index.Cycles()
	for _, c := range next.cycles {
		s.logger.WithField("cycle", strings.Join(c, " -> ")).Error("lineage is not acyclic")
	}

	switch s.conf.Lineage {
	case "", LineageGonum:
	case LineageCayley:
		store, err := cayley.New(g)
		if err != nil {
			return nil, errors.New("could not build cayley lineage", errors.WithCause(err))
		}
		next.lineage = store
		next.closers = append(next.closers, store.Close)
	default:
		return nil, errors.New(fmt.Sprintf("unknown lineage backend %q", s.conf.Lineage), errors.BadRequest())
	}

	next.sim = layout.New(g, s.conf.Layout)
	if s.layouts != nil {
		snap, found, err := s.layouts.Load(next.key)
		if err != nil {
			s.logger.Errorf("could not load layout %s: %v", next.key, err)
		} else if found {
			n := next.sim.Restore(snap)
			s.logger.Printf("restored %d/%d positions from layout %s", n, len(g.Seeds), next.key)
		}
	}

	if s.metrics != nil {
		frames, unsubscribe := next.sim.Subscribe(frameBuffer)
		go func() {
			for f := range frames {
				s.metrics.ObserveFrame(f)
			}
		}()
		next.closers = append(next.closers, func() error {
			unsubscribe()
			return nil
		})
	}

	return next, nil
}

func (s *GraphService) persist(g *graph) {
	if s.layouts == nil {
		return
	}
	if err := s.layouts.Save(g.key, g.sim.Positions()); err != nil {
		s.logger.Errorf("could not save layout %s: %v", g.key, err)
	}
}

func (s *GraphService) observeLoad(seeds int, err error) {
	if s.metrics != nil {
		s.metrics.ObserveLoad(seeds, err)
	}
}

// GraphKey identifies a topology: the same seeds and edges give the same
// key.
func GraphKey(g *seedgraph.Graph) string {
	var b strings.Builder
	for _, s := range g.Seeds {
		b.WriteString(s.Name)
		b.WriteByte(0)
	}
	b.WriteByte(0)
	for _, e := range g.Edges {
		b.WriteString(e.Source)
		b.WriteByte(0)
		b.WriteString(e.Target)
		b.WriteByte(0)
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(b.String())).String()
}

func (s *GraphService) get() (*graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, errNoGraph
	}
	return s.current, nil
}

// Close stops the simulation and persists the last positions.
func (s *GraphService) Close() {
	s.mu.Lock()
	current := s.current
	s.current = nil
	s.mu.Unlock()

	if current != nil {
		s.persist(current)
		current.close()
	}
}

func (s *GraphService) Graph() (*seedgraph.Graph, error) {
	g, err := s.get()
	if err != nil {
		return nil, err
	}
	return g.graph, nil
}

// Cycles lists the cycles found in the loaded lineage.
func (s *GraphService) Cycles() ([][]string, error) {
	g, err := s.get()
	if err != nil {
		return nil, err
	}
	return g.cycles, nil
}

// WaitSettled blocks until the layout settled, ctx is done or the settle
// timeout expires.
func (s *GraphService) WaitSettled(ctx context.Context) error {
	g, err := s.get()
	if err != nil {
		return err
	}

	timer := time.NewTimer(s.conf.SettleTimeout)
	defer timer.Stop()

	select {
	case <-g.sim.Settled():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errors.New("layout did not settle in time", errors.Unavailable())
	}
}

func (s *GraphService) Positions() (layout.Snapshot, error) {
	g, err := s.get()
	if err != nil {
		return layout.Snapshot{}, err
	}
	return g.sim.Positions(), nil
}

// Subscribe streams the layout frames of the current graph.
func (s *GraphService) Subscribe() (<-chan layout.Frame, func(), error) {
	g, err := s.get()
	if err != nil {
		return nil, nil, err
	}
	frames, unsubscribe := g.sim.Subscribe(frameBuffer)
	return frames, unsubscribe, nil
}

// Pin fixes a seed at (x, y), as when a drag starts or moves.
func (s *GraphService) Pin(name string, x, y float64) error {
	g, err := s.get()
	if err != nil {
		return err
	}
	return g.sim.Pin(name, x, y)
}

// Release unpins a seed at the end of a drag.
func (s *GraphService) Release(name string) error {
	g, err := s.get()
	if err != nil {
		return err
	}
	return g.sim.Release(name)
}

// Session returns the view of the session id, creating a new session when
// id is unknown. The returned id is the one to give back to the client.
func (s *GraphService) Session(id string) (string, *session.View, error) {
	if _, err := s.get(); err != nil {
		return "", nil, err
	}
	id, v := s.sessions.Ensure(id)
	return id, v, nil
}

func (s *GraphService) view(id string) (*session.View, error) {
	_, v, err := s.Session(id)
	return v, err
}

func (s *GraphService) Select(sessionID, name string) (session.Infobox, error) {
	v, err := s.view(sessionID)
	if err != nil {
		return session.Infobox{}, err
	}
	return v.Select(name)
}

func (s *GraphService) Search(sessionID, q string) (search.Result, error) {
	v, err := s.view(sessionID)
	if err != nil {
		return search.Result{}, err
	}
	return v.Search(q)
}

func (s *GraphService) ClearSearch(sessionID string) error {
	v, err := s.view(sessionID)
	if err != nil {
		return err
	}
	v.ClearSearch()
	return nil
}

// Scene projects the current positions with the style of a session.
func (s *GraphService) Scene(sessionID string) (render.Scene, error) {
	g, err := s.get()
	if err != nil {
		return render.Scene{}, err
	}
	v, err := s.view(sessionID)
	if err != nil {
		return render.Scene{}, err
	}

	return render.Project(g.graph, g.sim.Positions(), s.conf.Layout.Width, s.conf.Layout.Height, render.ViewStyle(v)), nil
}

// Key applies a key press of the search box of a session.
func (s *GraphService) Key(sessionID string, k search.Key, input string) (search.Action, error) {
	v, err := s.view(sessionID)
	if err != nil {
		return search.ActionNone, err
	}
	return v.Key(k, input)
}

// CloseInfobox hides the infobox of a session.
func (s *GraphService) CloseInfobox(sessionID string) error {
	v, err := s.view(sessionID)
	if err != nil {
		return err
	}
	v.Close()
	return nil
}
