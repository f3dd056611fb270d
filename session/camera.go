package session

import (
	"fmt"
	"time"
)

const (
	// MinScale is the scale of the camera before anything is selected.
	MinScale = 0.2
	// SelectScale is the zoom applied when a seed is selected.
	SelectScale = 2.0
	// Transition is the duration of the camera move on selection.
	Transition = 750 * time.Millisecond
)

// Camera is the pan and zoom applied to the whole drawing group.
type Camera struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	K float64 `json:"k"`
	// Duration of the animated move to this camera.
	Duration time.Duration `json:"duration"`
}

// Transform is the SVG transform attribute of the camera.
func (c Camera) Transform() string {
	return fmt.Sprintf("translate(%g,%g) scale(%g)", c.X, c.Y, c.K)
}

// DefaultCamera zooms out to MinScale and centers the point
// (0, height/2/MinScale).
func DefaultCamera(width, height float64) Camera {
	y := height / 2 / MinScale
	return Camera{
		X: width / 2,
		Y: height/2 - y*MinScale,
		K: MinScale,
	}
}

// FocusCamera centers the point (x, y) at SelectScale.
func FocusCamera(x, y, width, height float64) Camera {
	return Camera{
		X:        -x*SelectScale + width/2,
		Y:        -y*SelectScale + height/2,
		K:        SelectScale,
		Duration: Transition,
	}
}
