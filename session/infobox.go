package session

import (
	"fmt"

	"github.com/bobinette/seedgraph"
)

const (
	// Placeholder is the infobox title when nothing is selected.
	Placeholder = "Select a seed"
	// NoToolURL replaces the tool link of seeds without one.
	NoToolURL = "Not available."
)

// Infobox is the side panel describing the selected seed.
type Infobox struct {
	Visible bool   `json:"visible"`
	Title   string `json:"title"`

	ToolURL  string   `json:"toolurl,omitempty"`
	Parents  []string `json:"parents"`
	Children []string `json:"children"`

	Coverage         string `json:"coverage"`
	FoundTime        int64  `json:"found_time"`
	TimeDelta        int64  `json:"time_delta"`
	Mutation         string `json:"mutation"`
	MutationDeltaURL string `json:"mutation_delta_url"`
}

func emptyInfobox() Infobox {
	return Infobox{Title: Placeholder, Parents: []string{}, Children: []string{}}
}

func newInfobox(s *seedgraph.Seed) Infobox {
	parents := make([]string, len(s.Parents))
	copy(parents, s.Parents)
	children := make([]string, len(s.Children))
	copy(children, s.Children)

	return Infobox{
		Visible:          true,
		Title:            s.Name,
		ToolURL:          s.ToolURL,
		Parents:          parents,
		Children:         children,
		Coverage:         s.Coverage,
		FoundTime:        s.FoundTime,
		TimeDelta:        s.TimeDelta,
		Mutation:         s.Mutation,
		MutationDeltaURL: MutationDeltaURL(s.Name),
	}
}

// ToolText is the text of the tool line.
func (i Infobox) ToolText() string {
	if i.ToolURL == "" {
		return NoToolURL
	}
	return i.ToolURL
}

func (i Infobox) FoundText() string {
	return fmt.Sprintf("At %d seconds", i.FoundTime)
}

func (i Infobox) DeltaText() string {
	return fmt.Sprintf("After %d seconds", i.TimeDelta)
}

// MutationDeltaURL is the relative link to the diff file of a seed.
func MutationDeltaURL(name string) string {
	return "mutation_delta/" + name + ".txt"
}
