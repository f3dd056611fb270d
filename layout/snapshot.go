package layout

type Point struct {
	ID    string  `json:"id" msgpack:"id"`
	X     float64 `json:"x" msgpack:"x"`
	Y     float64 `json:"y" msgpack:"y"`
	Fixed bool    `json:"fixed,omitempty" msgpack:"fixed,omitempty"`
}

// Snapshot is a copy of the node positions, in seed order.
type Snapshot struct {
	Points []Point `json:"points" msgpack:"points"`
}

// Lookup indexes the snapshot by node id.
func (s Snapshot) Lookup() map[string]Point {
	m := make(map[string]Point, len(s.Points))
	for _, p := range s.Points {
		m[p.ID] = p
	}
	return m
}

// Frame is sent to subscribers after every tick.
type Frame struct {
	Tick     int      `json:"tick"`
	Alpha    float64  `json:"alpha"`
	Snapshot Snapshot `json:"snapshot"`
}

func (s *Simulation) Positions() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Simulation) snapshot() Snapshot {
	points := make([]Point, len(s.nodes))
	for i, n := range s.nodes {
		points[i] = Point{ID: n.ID, X: n.X, Y: n.Y, Fixed: n.FX != nil}
	}
	return Snapshot{Points: points}
}

func (s *Simulation) frame() Frame {
	return Frame{Tick: s.ticks, Alpha: s.alpha, Snapshot: s.snapshot()}
}

// Restore moves nodes to the positions of a previous snapshot and returns
// how many nodes were found in it. When it covers every node the
// simulation is considered settled.
func (s *Simulation) Restore(snap Snapshot) int {
	s.mu.Lock()

	restored := 0
	for _, p := range snap.Points {
		i, ok := s.index[p.ID]
		if !ok {
			continue
		}
		n := s.nodes[i]
		n.X, n.Y = p.X, p.Y
		n.VX, n.VY = 0, 0
		restored++
	}

	complete := restored > 0 && restored == len(s.nodes)
	if complete {
		s.alpha = 0
	}
	s.mu.Unlock()

	if complete {
		s.markSettled()
	}
	return restored
}

// Subscribe returns a channel receiving a frame after every tick and a
// function to unsubscribe. Frames are dropped when the channel is full.
func (s *Simulation) Subscribe(buffer int) (<-chan Frame, func()) {
	ch := make(chan Frame, buffer)

	s.subMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subMu.Unlock()

	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if _, ok := s.subscribers[ch]; !ok {
			return
		}
		delete(s.subscribers, ch)
		close(ch)
	}
}

// CloseSubscriptions closes the channel of every subscriber. Unsubscribing
// afterwards is a no-op.
func (s *Simulation) CloseSubscriptions() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *Simulation) broadcast(f Frame) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for ch := range s.subscribers {
		select {
		case ch <- f:
		default:
		}
	}
}
