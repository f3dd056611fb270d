package render

import (
	"github.com/bobinette/seedgraph"
	"github.com/bobinette/seedgraph/layout"
	"github.com/bobinette/seedgraph/session"
)

const (
	NodeRX   = 70
	NodeRY   = 12
	TargetRX = 140
	TargetRY = 24
)

type NodeView struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	RX     float64 `json:"rx"`
	RY     float64 `json:"ry"`
	Fill   string  `json:"fill"`
	Found  bool    `json:"found,omitempty"`
	Fixed  bool    `json:"fixed,omitempty"`
	Target bool    `json:"target,omitempty"`
}

type EdgeView struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
	X2     float64 `json:"x2"`
	Y2     float64 `json:"y2"`
}

// Scene is everything drawn on the canvas.
type Scene struct {
	Width  float64        `json:"width"`
	Height float64        `json:"height"`
	Camera session.Camera `json:"camera"`
	Nodes  []NodeView     `json:"nodes"`
	Edges  []EdgeView     `json:"edges"`
}

// Style carries the per viewer state of the drawing. Fills replace the
// replay colors once a seed is selected.
type Style struct {
	Camera   session.Camera
	Selected bool
	Fills    map[string]string
	Found    map[string]bool
}

// ViewStyle reads the style of a session view.
func ViewStyle(v *session.View) Style {
	return Style{
		Camera:   v.Camera(),
		Selected: v.Selection() != "",
		Fills:    v.Fills(),
		Found:    v.Found(),
	}
}

// Project places the seeds of g at the positions of snap.
func Project(g *seedgraph.Graph, snap layout.Snapshot, width, height float64, st Style) Scene {
	points := snap.Lookup()

	var scale Scale
	if len(g.Visits) > 0 {
		scale = NewScale(g.Visits)
	}

	nodes := make([]NodeView, len(g.Seeds))
	for i, s := range g.Seeds {
		p := points[s.Name]
		n := NodeView{
			ID:    s.Name,
			X:     p.X,
			Y:     p.Y,
			RX:    NodeRX,
			RY:    NodeRY,
			Fill:  session.BaseFill(s),
			Found: st.Found[s.Name],
			Fixed: p.Fixed,
		}

		if st.Selected {
			if fill, ok := st.Fills[s.Name]; ok {
				n.Fill = fill
			}
		} else if visits, ok := g.Visits[s.Name]; ok {
			n.Fill = scale.Color(visits)
		}

		if g.Target != "" && s.Name == g.Target {
			n.RX, n.RY = TargetRX, TargetRY
			n.Target = true
		}
		nodes[i] = n
	}

	edges := make([]EdgeView, 0, len(g.Edges))
	for _, e := range g.Edges {
		source, target := points[e.Source], points[e.Target]
		edges = append(edges, EdgeView{
			Source: e.Source,
			Target: e.Target,
			X1:     source.X,
			Y1:     source.Y,
			X2:     target.X,
			Y2:     target.Y,
		})
	}

	return Scene{
		Width:  width,
		Height: height,
		Camera: st.Camera,
		Nodes:  nodes,
		Edges:  edges,
	}
}
