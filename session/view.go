// Package session holds the state of one viewer of the seed graph: the
// selected seed, the camera, the infobox, the search dropdown and the node
// colors.
package session

import (
	"fmt"
	"sync"

	"github.com/bobinette/seedgraph"
	"github.com/bobinette/seedgraph/errors"
	"github.com/bobinette/seedgraph/layout"
	"github.com/bobinette/seedgraph/search"
)

const (
	FillDefault  = "white"
	FillCrash    = "lightgreen"
	FillAncestor = "red"
)

// Layout gives the current node positions.
type Layout interface {
	Positions() layout.Snapshot
}

type View struct {
	graph   *seedgraph.Graph
	lineage seedgraph.LineageIndex
	layout  Layout
	width   float64
	height  float64

	mu        sync.Mutex
	selection string
	camera    Camera
	infobox   Infobox
	fills     map[string]string
	found     map[string]bool
	result    search.Result
	cursor    *search.Cursor
}

func NewView(g *seedgraph.Graph, lineage seedgraph.LineageIndex, l Layout, width, height float64) *View {
	v := &View{
		graph:   g,
		lineage: lineage,
		layout:  l,
		width:   width,
		height:  height,
		camera:  DefaultCamera(width, height),
		infobox: emptyInfobox(),
		found:   make(map[string]bool),
		result:  search.Result{Matches: []string{}, Shown: []string{}},
		cursor:  search.NewCursor(nil),
	}
	v.fills = v.baseFills()
	return v
}

// BaseFill is the color of a seed when no ancestor chain is shown.
func BaseFill(s *seedgraph.Seed) string {
	if s.IsCrash() {
		return FillCrash
	}
	return FillDefault
}

func (v *View) baseFills() map[string]string {
	fills := make(map[string]string, len(v.graph.Seeds))
	for _, s := range v.graph.Seeds {
		fills[s.Name] = BaseFill(s)
	}
	return fills
}

// Selection returns the name of the selected seed, empty when none is.
func (v *View) Selection() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selection
}

// Select makes name the current selection: the camera moves onto it, the
// infobox describes it, the search dropdown is cleared and its ancestors are
// colored. An unknown name leaves the view untouched.
func (v *View) Select(name string) (Infobox, error) {
	seed, ok := v.graph.Get(name)
	if !ok {
		return Infobox{}, errors.New(fmt.Sprintf("seed %s not found", name), errors.NotFound())
	}

	ancestors, err := v.lineage.Ancestors(name)
	if err != nil {
		return Infobox{}, err
	}

	var x, y float64
	if p, ok := v.layout.Positions().Lookup()[name]; ok {
		x, y = p.X, p.Y
	}

	fills := v.baseFills()
	for _, a := range ancestors {
		fills[a] = FillAncestor
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.selection = name
	v.camera = FocusCamera(x, y, v.width, v.height)
	v.infobox = newInfobox(seed)
	v.fills = fills
	v.clearSearch()
	return v.infobox, nil
}

// InitialCamera positions the camera for a page opened with the k query
// parameter. A known seed is selected, anything else gets the default
// camera. It must be called once the layout settled.
func (v *View) InitialCamera(k string) Camera {
	if k != "" {
		if _, err := v.Select(k); err == nil {
			return v.Camera()
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.camera = DefaultCamera(v.width, v.height)
	return v.camera
}

func (v *View) Camera() Camera {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.camera
}

func (v *View) Infobox() Infobox {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.infobox
}

// Close hides the infobox. The selection is kept.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.infobox.Visible = false
}

// Fills returns a copy of the node colors.
func (v *View) Fills() map[string]string {
	v.mu.Lock()
	defer v.mu.Unlock()

	fills := make(map[string]string, len(v.fills))
	for k, c := range v.fills {
		fills[k] = c
	}
	return fills
}

// Found returns the highlighted seeds.
func (v *View) Found() map[string]bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	found := make(map[string]bool, len(v.found))
	for k := range v.found {
		found[k] = true
	}
	return found
}

// Search highlights every seed matching q and fills the dropdown. An empty
// query clears the results.
func (v *View) Search(q string) (search.Result, error) {
	res, err := search.Run(v.graph.Names(), q)
	if err != nil {
		return search.Result{}, errors.New("invalid query", errors.BadRequest(), errors.WithCause(err))
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.clearSearch()
	if res.Empty() {
		return v.result, nil
	}

	v.result = res
	for _, name := range res.Matches {
		v.found[name] = true
	}
	v.cursor.Reset(res.Shown)
	return res, nil
}

// Result returns the current search result and the dropdown cursor position.
func (v *View) Result() (search.Result, int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.result, v.cursor.Pos()
}

// ClearSearch empties the dropdown and only keeps the selection
// highlighted.
func (v *View) ClearSearch() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.clearSearch()
}

func (v *View) clearSearch() {
	v.result = search.Result{Matches: []string{}, Shown: []string{}}
	v.cursor.Reset(nil)
	v.found = make(map[string]bool)
	if v.selection != "" {
		v.found[v.selection] = true
	}
}

// HideDropdown empties the dropdown but keeps the highlights.
func (v *View) HideDropdown() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.result.Shown = []string{}
	v.cursor.Reset(nil)
}

// Key applies a key press of the search box whose value is input.
func (v *View) Key(k search.Key, input string) (search.Action, error) {
	v.mu.Lock()
	action, name := v.cursor.Key(k)
	v.mu.Unlock()

	switch action {
	case search.ActionSelect:
		_, err := v.Select(name)
		return action, err
	case search.ActionHide:
		v.HideDropdown()
	case search.ActionSearch:
		_, err := v.Search(input)
		return action, err
	}
	return action, nil
}
