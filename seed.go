package seedgraph

import (
	"strings"
)

// CrashMarker is the substring that flags a seed as a crashing input.
const CrashMarker = "Crash"

type Seed struct {
	Name     string   `json:"name"`
	Parents  []string `json:"parents"`
	Children []string `json:"children"`

	FoundTime     int64  `json:"found_time"`
	TimeDelta     int64  `json:"time_delta"`
	Mutation      string `json:"mutation"`
	MutationDelta string `json:"mutation_delta"`
	Coverage      string `json:"coverage"`

	// ToolURL is only set when a seed shares its name with a catalog entry.
	ToolURL string `json:"toolurl,omitempty"`
}

// IsCrash reports whether the seed name carries the crash marker.
func (s *Seed) IsCrash() bool {
	return strings.Contains(s.Name, CrashMarker)
}

type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Graph is the loaded lineage. Seeds keep the order of the node list they
// were loaded from.
type Graph struct {
	Seeds []*Seed `json:"nodes"`
	Edges []Edge  `json:"links"`

	Visits map[string]int `json:"visits,omitempty"`
	Target string         `json:"target,omitempty"`

	index map[string]*Seed
}

// NewGraph creates an empty graph ready to receive seeds.
func NewGraph() *Graph {
	return &Graph{
		Seeds:  make([]*Seed, 0),
		Edges:  make([]Edge, 0),
		Visits: make(map[string]int),
		index:  make(map[string]*Seed),
	}
}

// Add appends a seed. It returns false if the name is already taken.
func (g *Graph) Add(s *Seed) bool {
	if g.index == nil {
		g.reindex()
	}
	if _, ok := g.index[s.Name]; ok {
		return false
	}
	g.index[s.Name] = s
	g.Seeds = append(g.Seeds, s)
	return true
}

// Link records the edge parent -> child on both endpoints. It returns false
// if either endpoint is unknown, in which case nothing is changed.
func (g *Graph) Link(parent, child string) bool {
	p, ok := g.Get(parent)
	if !ok {
		return false
	}
	c, ok := g.Get(child)
	if !ok {
		return false
	}

	p.Children = append(p.Children, child)
	c.Parents = append(c.Parents, parent)
	g.Edges = append(g.Edges, Edge{Source: parent, Target: child})
	return true
}

// Get retrieves a seed by name.
func (g *Graph) Get(name string) (*Seed, bool) {
	if g.index == nil {
		g.reindex()
	}
	s, ok := g.index[name]
	return s, ok
}

// Names returns the seed names in load order.
func (g *Graph) Names() []string {
	names := make([]string, len(g.Seeds))
	for i, s := range g.Seeds {
		names[i] = s.Name
	}
	return names
}

func (g *Graph) reindex() {
	g.index = make(map[string]*Seed, len(g.Seeds))
	for _, s := range g.Seeds {
		g.index[s.Name] = s
	}
}

// LineageIndex answers transitive questions about the parent/child relation.
// Implementations must terminate on cyclic input.
type LineageIndex interface {
	Ancestors(name string) ([]string, error)
	Descendants(name string) ([]string, error)
}
