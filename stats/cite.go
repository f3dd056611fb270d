package stats

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/bobinette/seedgraph"
)

// Cite formats f as a reference: quoted title (or name), authors, venue,
// journal and year, each part only when set.
func Cite(f seedgraph.Fuzzer) string {
	var b strings.Builder

	title := f.Title
	if title == "" {
		title = f.Name
	}
	b.WriteString(`"` + title + `"`)

	for i, a := range f.Author {
		if i == len(f.Author)-1 && len(f.Author) > 1 {
			b.WriteString(", and ")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(a)
	}

	if f.Booktitle != "" {
		b.WriteString(". In ")
		b.WriteString(f.Booktitle)
	}

	if f.Journal != "" {
		b.WriteString(". ")
		b.WriteString(f.Journal)
		if f.Volume != "" {
			b.WriteString(", ")
			b.WriteString(f.Volume)
		}
		if f.Number != "" {
			fmt.Fprintf(&b, "(%s)", f.Number)
		}
	}

	if f.Year != 0 {
		fmt.Fprintf(&b, ", %d", f.Year)
	}
	return b.String()
}

// SearchText is the text the panel filter is matched against.
func SearchText(f seedgraph.Fuzzer) string {
	parts := []string{f.Name}
	if f.Year != 0 {
		parts = append(parts, strconv.Itoa(f.Year))
	}
	if len(f.Author) > 0 {
		parts = append(parts, strings.Join(f.Author, ","))
	}
	if f.Title != "" {
		parts = append(parts, f.Title)
	}
	if f.Booktitle != "" {
		parts = append(parts, f.Booktitle)
	}
	if len(f.Targets) > 0 {
		parts = append(parts, strings.Join(f.Targets, ","))
	}
	return strings.Join(parts, " ")
}

// Link points back to the page with the fuzzer selected.
func Link(name string) string {
	return "./?k=" + url.QueryEscape(name)
}
