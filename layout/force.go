package layout

import (
	"math"
	"math/rand"
)

// Force mutates node velocities (or positions) for one tick at the given
// alpha.
type Force interface {
	Apply(nodes []*Node, alpha float64)
}

// jiggler breaks ties when two nodes sit exactly on top of each other.
type jiggler struct {
	rnd *rand.Rand
}

func (j jiggler) jiggle() float64 {
	return (j.rnd.Float64() - 0.5) * 1e-6
}

type link struct {
	source, target int
	strength       float64
	bias           float64
}

// linkForce pulls linked nodes towards a fixed distance. Strength and bias
// derive from node degrees so hubs are not pulled around.
type linkForce struct {
	jiggler
	links    []link
	distance float64
}

func newLinkForce(j jiggler, pairs [][2]int, n int, distance float64) *linkForce {
	count := make([]int, n)
	for _, p := range pairs {
		count[p[0]]++
		count[p[1]]++
	}

	links := make([]link, len(pairs))
	for i, p := range pairs {
		s, t := count[p[0]], count[p[1]]
		links[i] = link{
			source:   p[0],
			target:   p[1],
			strength: 1 / math.Min(float64(s), float64(t)),
			bias:     float64(s) / float64(s+t),
		}
	}

	return &linkForce{jiggler: j, links: links, distance: distance}
}

func (f *linkForce) Apply(nodes []*Node, alpha float64) {
	for _, l := range f.links {
		source, target := nodes[l.source], nodes[l.target]

		x := target.X + target.VX - source.X - source.VX
		if x == 0 {
			x = f.jiggle()
		}
		y := target.Y + target.VY - source.Y - source.VY
		if y == 0 {
			y = f.jiggle()
		}

		d := math.Sqrt(x*x + y*y)
		d = (d - f.distance) / d * alpha * l.strength
		x *= d
		y *= d

		target.VX -= x * l.bias
		target.VY -= y * l.bias
		source.VX += x * (1 - l.bias)
		source.VY += y * (1 - l.bias)
	}
}

// manyBodyForce is the pairwise charge between every two nodes, ignored
// beyond distanceMax.
type manyBodyForce struct {
	jiggler
	strength    float64
	distanceMin float64
	distanceMax float64
}

func (f *manyBodyForce) Apply(nodes []*Node, alpha float64) {
	min2 := f.distanceMin * f.distanceMin
	max2 := f.distanceMax * f.distanceMax

	for i, node := range nodes {
		for j, other := range nodes {
			if i == j {
				continue
			}

			x := other.X - node.X
			y := other.Y - node.Y
			l := x*x + y*y
			if l >= max2 {
				continue
			}

			if x == 0 {
				x = f.jiggle()
				l += x * x
			}
			if y == 0 {
				y = f.jiggle()
				l += y * y
			}
			if l < min2 {
				l = math.Sqrt(min2 * l)
			}

			w := f.strength * alpha / l
			node.VX += x * w
			node.VY += y * w
		}
	}
}

// centerForce translates all nodes so their mean sits on the center.
type centerForce struct {
	x, y float64
}

func (f *centerForce) Apply(nodes []*Node, _ float64) {
	if len(nodes) == 0 {
		return
	}

	var sx, sy float64
	for _, n := range nodes {
		sx += n.X
		sy += n.Y
	}
	sx = sx/float64(len(nodes)) - f.x
	sy = sy/float64(len(nodes)) - f.y

	for _, n := range nodes {
		n.X -= sx
		n.Y -= sy
	}
}

// collideForce pushes apart nodes whose circles of the given radius
// overlap. Each pair is handled once.
type collideForce struct {
	jiggler
	radius   float64
	strength float64
}

func (f *collideForce) Apply(nodes []*Node, _ float64) {
	r := 2 * f.radius
	for i, node := range nodes {
		xi := node.X + node.VX
		yi := node.Y + node.VY

		for _, other := range nodes[i+1:] {
			x := xi - other.X - other.VX
			y := yi - other.Y - other.VY
			l := x*x + y*y
			if l >= r*r {
				continue
			}

			if x == 0 {
				x = f.jiggle()
				l += x * x
			}
			if y == 0 {
				y = f.jiggle()
				l += y * y
			}

			l = math.Sqrt(l)
			l = (r - l) / l * f.strength
			x *= l
			y *= l

			// equal radii share the push evenly
			node.VX += x * 0.5
			node.VY += y * 0.5
			other.VX -= x * 0.5
			other.VY -= y * 0.5
		}
	}
}
