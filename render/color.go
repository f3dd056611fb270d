package render

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// reds is the nine class sequential Reds scheme, from white to dark red.
var reds = mustHexes(
	"#fff5f0", "#fee0d2", "#fcbba1", "#fc9272", "#fb6a4a",
	"#ef3b2c", "#cb181d", "#a50f15", "#67000d",
)

func mustHexes(hexes ...string) []colorful.Color {
	colors := make([]colorful.Color, len(hexes))
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			panic(err)
		}
		colors[i] = c
	}
	return colors
}

// Reds interpolates the Reds scheme at t in [0, 1]. Values outside are
// clamped.
func Reds(t float64) string {
	if math.IsNaN(t) || t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	n := len(reds) - 1
	pos := t * float64(n)
	i := int(math.Floor(pos))
	if i >= n {
		return reds[n].Hex()
	}
	return reds[i].BlendRgb(reds[i+1], pos-float64(i)).Clamped().Hex()
}

// Scale maps visit counts onto the Reds scheme over the [min, max] domain
// of the counts.
type Scale struct {
	min, max float64
}

func NewScale(visits map[string]int) Scale {
	s := Scale{min: math.Inf(1), max: math.Inf(-1)}
	for _, v := range visits {
		s.min = math.Min(s.min, float64(v))
		s.max = math.Max(s.max, float64(v))
	}
	return s
}

// Color returns the fill of a node visited v times. A domain reduced to one
// value maps to the middle of the scheme.
func (s Scale) Color(v int) string {
	if s.max == s.min {
		return Reds(0.5)
	}
	return Reds((float64(v) - s.min) / (s.max - s.min))
}
