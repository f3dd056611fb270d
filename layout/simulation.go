// Package layout runs the force directed placement of the seed graph. The
// simulation is a view model: nodes carry positions that the renderer
// projects, and Tick advances them by one step.
package layout

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/bobinette/seedgraph"
	"github.com/bobinette/seedgraph/errors"
)

const (
	initialRadius = 10
	// PinAlphaTarget keeps the simulation warm while a node is dragged.
	PinAlphaTarget = 0.3
)

var initialAngle = math.Pi * (3 - math.Sqrt(5))

type Node struct {
	ID string
	X  float64
	Y  float64
	VX float64
	VY float64
	// FX and FY are set while the node is pinned.
	FX *float64
	FY *float64
}

type Config struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`

	Charge        float64 `toml:"charge"`
	DistanceMax   float64 `toml:"distance_max"`
	CollideRadius float64 `toml:"collide_radius"`
	LinkDistance  float64 `toml:"link_distance"`

	AlphaMin      float64 `toml:"alpha_min"`
	VelocityDecay float64 `toml:"velocity_decay"`

	// Cadence is the delay between two ticks of Run. Zero ticks as fast as
	// possible.
	Cadence time.Duration `toml:"cadence"`
	Seed    int64         `toml:"seed"`
}

func DefaultConfig() Config {
	return Config{
		Width:         1200,
		Height:        800,
		Charge:        -500,
		DistanceMax:   800,
		CollideRadius: 50,
		LinkDistance:  30,
		AlphaMin:      0.001,
		VelocityDecay: 0.4,
		Cadence:       16 * time.Millisecond,
		Seed:          1,
	}
}

type Simulation struct {
	cfg Config

	mu     sync.Mutex
	nodes  []*Node
	index  map[string]int
	forces []Force

	alpha         float64
	alphaDecay    float64
	alphaTarget   float64
	velocityDecay float64
	ticks         int

	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	settled     chan struct{}
	settledOnce sync.Once

	subMu       sync.Mutex
	subscribers map[chan Frame]struct{}
}

// New places the seeds of g on a phyllotaxis spiral and sets up the forces.
// The simulation does not tick until Tick, Run or Start is called.
func New(g *seedgraph.Graph, cfg Config) *Simulation {
	s := &Simulation{
		cfg:           cfg,
		nodes:         make([]*Node, len(g.Seeds)),
		index:         make(map[string]int, len(g.Seeds)),
		alpha:         1,
		alphaDecay:    1 - math.Pow(cfg.AlphaMin, 1.0/300),
		velocityDecay: 1 - cfg.VelocityDecay,
		settled:       make(chan struct{}),
		subscribers:   make(map[chan Frame]struct{}),
	}

	for i, seed := range g.Seeds {
		radius := initialRadius * math.Sqrt(0.5+float64(i))
		angle := float64(i) * initialAngle
		s.nodes[i] = &Node{
			ID: seed.Name,
			X:  radius * math.Cos(angle),
			Y:  radius * math.Sin(angle),
		}
		s.index[seed.Name] = i
	}

	pairs := make([][2]int, 0, len(g.Edges))
	for _, e := range g.Edges {
		source, ok := s.index[e.Source]
		if !ok {
			continue
		}
		target, ok := s.index[e.Target]
		if !ok {
			continue
		}
		pairs = append(pairs, [2]int{source, target})
	}

	j := jiggler{rnd: rand.New(rand.NewSource(cfg.Seed))}
	s.forces = []Force{
		newLinkForce(j, pairs, len(s.nodes), cfg.LinkDistance),
		&manyBodyForce{jiggler: j, strength: cfg.Charge, distanceMin: 1, distanceMax: cfg.DistanceMax},
		&centerForce{x: cfg.Width / 2, y: cfg.Height / 2},
		&collideForce{jiggler: j, radius: cfg.CollideRadius, strength: 1},
	}

	return s
}

func (s *Simulation) Config() Config {
	return s.cfg
}

// Tick advances the simulation by one step and returns the new alpha.
func (s *Simulation) Tick() float64 {
	s.mu.Lock()
	alpha := s.tick()
	frame := s.frame()
	s.mu.Unlock()

	s.broadcast(frame)
	return alpha
}

func (s *Simulation) tick() float64 {
	s.alpha += (s.alphaTarget - s.alpha) * s.alphaDecay

	for _, f := range s.forces {
		f.Apply(s.nodes, s.alpha)
	}

	for _, n := range s.nodes {
		if n.FX == nil {
			n.VX *= s.velocityDecay
			n.X += n.VX
		} else {
			n.X = *n.FX
			n.VX = 0
		}
		if n.FY == nil {
			n.VY *= s.velocityDecay
			n.Y += n.VY
		} else {
			n.Y = *n.FY
			n.VY = 0
		}
	}

	s.ticks++
	return s.alpha
}

func (s *Simulation) Alpha() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alpha
}

// Running reports whether a tick loop is active.
func (s *Simulation) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Settled is closed the first time the simulation cools below alpha min.
func (s *Simulation) Settled() <-chan struct{} {
	return s.settled
}

func (s *Simulation) markSettled() {
	s.settledOnce.Do(func() { close(s.settled) })
}

// Run ticks on the configured cadence until the simulation cools or ctx is
// done. Only one loop may run at a time.
func (s *Simulation) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("simulation is already running", errors.Conflict())
	}
	s.running = true
	s.mu.Unlock()

	return s.loop(ctx)
}

func (s *Simulation) loop(ctx context.Context) error {
	var ticker *time.Ticker
	if s.cfg.Cadence > 0 {
		ticker = time.NewTicker(s.cfg.Cadence)
		defer ticker.Stop()
	}

	for {
		s.mu.Lock()
		s.tick()
		frame := s.frame()
		// deciding to stop and clearing running happen under the same lock,
		// so a concurrent Pin either sees the loop or starts a new one
		cooled := s.alpha < s.cfg.AlphaMin
		if cooled {
			s.running = false
		}
		s.mu.Unlock()

		s.broadcast(frame)
		if cooled {
			s.markSettled()
			return nil
		}

		if ticker == nil {
			select {
			case <-ctx.Done():
				return s.abort(ctx)
			default:
			}
			continue
		}

		select {
		case <-ctx.Done():
			return s.abort(ctx)
		case <-ticker.C:
		}
	}
}

func (s *Simulation) abort(ctx context.Context) error {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return ctx.Err()
}

// Start runs the tick loop in the background. The context is kept so that
// pinning a node after the simulation settled starts a new loop.
func (s *Simulation) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.restart()
}

// Stop cancels the background loop and waits for it.
func (s *Simulation) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *Simulation) restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restartLocked()
}

func (s *Simulation) restartLocked() {
	if s.running || s.ctx == nil || s.ctx.Err() != nil {
		return
	}

	s.running = true
	ctx := s.ctx
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx)
	}()
}

// Pin fixes a node at (x, y) and reheats the simulation.
func (s *Simulation) Pin(id string, x, y float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return errors.New(fmt.Sprintf("node %s not found", id), errors.NotFound())
	}

	n := s.nodes[i]
	n.FX = &x
	n.FY = &y
	s.alphaTarget = PinAlphaTarget
	s.restartLocked()
	return nil
}

// Release unpins a node and lets the simulation cool down.
func (s *Simulation) Release(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return errors.New(fmt.Sprintf("node %s not found", id), errors.NotFound())
	}

	n := s.nodes[i]
	n.FX = nil
	n.FY = nil
	s.alphaTarget = 0
	return nil
}

// Settle ticks synchronously until the simulation cools, at most max times.
// It reports whether it cooled.
func (s *Simulation) Settle(max int) bool {
	for i := 0; i < max; i++ {
		if s.Tick() < s.cfg.AlphaMin {
			s.markSettled()
			return true
		}
	}
	return false
}
