// Package stats groups the fuzzer catalog into the venue, target and author
// sections of the accordion panel.
package stats

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/bobinette/seedgraph"
)

type Kind string

const (
	Venue  Kind = "venue"
	Target Kind = "target"
	Author Kind = "author"
)

var whitespace = regexp.MustCompile(`\s`)

// SectionID is the DOM id of the collapsible section of a group.
func SectionID(kind Kind, name string) string {
	return "js-" + string(kind) + "-" + whitespace.ReplaceAllString(name, "")
}

type Entry struct {
	Name     string `json:"name"`
	Year     int    `json:"year,omitempty"`
	Citation string `json:"citation"`
	Link     string `json:"link"`
	Text     string `json:"text"`
	Hidden   bool   `json:"hidden,omitempty"`
}

type Group struct {
	Kind    Kind    `json:"kind"`
	Name    string  `json:"name"`
	ID      string  `json:"id"`
	Count   int     `json:"count"`
	Entries []Entry `json:"entries"`
}

// Header is the text of the section toggle.
func (g Group) Header() string {
	return fmt.Sprintf("%s (%d)", g.Name, g.Count)
}

// Panel is what the stats panel displays for one filter value.
type Panel struct {
	Summary string  `json:"summary"`
	Filter  string  `json:"filter"`
	Venues  []Group `json:"venues"`
	Targets []Group `json:"targets"`
	Authors []Group `json:"authors"`
}

// Stats holds the three groupings of a catalog, each group listing its
// entries by descending year.
type Stats struct {
	fuzzers int
	venues  []Group
	targets []Group
	authors []Group
}

func New(fuzzers []seedgraph.Fuzzer) *Stats {
	venues := make(map[string][]Entry)
	targets := make(map[string][]Entry)
	authors := make(map[string][]Entry)

	for _, f := range fuzzers {
		e := Entry{
			Name:     f.Name,
			Year:     f.Year,
			Citation: Cite(f),
			Link:     Link(f.Name),
			Text:     SearchText(f),
		}

		for _, a := range f.Author {
			authors[a] = append(authors[a], e)
		}
		if f.Booktitle != "" {
			venues[f.Booktitle] = append(venues[f.Booktitle], e)
		}
		for _, t := range f.Targets {
			targets[t] = append(targets[t], e)
		}
	}

	return &Stats{
		fuzzers: len(fuzzers),
		venues:  groups(Venue, venues),
		targets: groups(Target, targets),
		authors: groups(Author, authors),
	}
}

func groups(kind Kind, entries map[string][]Entry) []Group {
	gs := make([]Group, 0, len(entries))
	for name, es := range entries {
		sort.SliceStable(es, func(i, j int) bool { return es[i].Year > es[j].Year })
		gs = append(gs, Group{
			Kind:    kind,
			Name:    name,
			ID:      SectionID(kind, name),
			Count:   len(es),
			Entries: es,
		})
	}

	sort.Slice(gs, func(i, j int) bool {
		if len(gs[i].Entries) != len(gs[j].Entries) {
			return len(gs[i].Entries) > len(gs[j].Entries)
		}
		return gs[i].Name < gs[j].Name
	})
	return gs
}

// Summary is the sentence shown on top of the panel.
func (s *Stats) Summary() string {
	return fmt.Sprintf(
		"Currently, there are a total of %d fuzzers and %d authors in the DB, collected from %d different venues.",
		s.fuzzers, len(s.authors), len(s.venues),
	)
}

func (s *Stats) Venues() []Group  { return s.venues }
func (s *Stats) Targets() []Group { return s.targets }
func (s *Stats) Authors() []Group { return s.authors }

// Filter hides the entries whose search text does not contain text, case
// insensitively. Groups without any match are dropped, the others are
// sorted by descending match count and their count updated. An empty text
// matches everything.
func (s *Stats) Filter(text string) Panel {
	return Panel{
		Summary: s.Summary(),
		Filter:  text,
		Venues:  filter(s.venues, text),
		Targets: filter(s.targets, text),
		Authors: filter(s.authors, text),
	}
}

func filter(gs []Group, text string) []Group {
	needle := strings.ToUpper(text)

	filtered := make([]Group, 0, len(gs))
	for _, g := range gs {
		entries := make([]Entry, len(g.Entries))
		matches := 0
		for i, e := range g.Entries {
			e.Hidden = !strings.Contains(strings.ToUpper(e.Text), needle)
			if !e.Hidden {
				matches++
			}
			entries[i] = e
		}
		if matches == 0 {
			continue
		}

		g.Entries = entries
		g.Count = matches
		filtered = append(filtered, g)
	}

	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Count > filtered[j].Count })
	return filtered
}
