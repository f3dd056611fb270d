// Package search matches seed names against the free-text query typed in the
// search box.
package search

import (
	"regexp"
	"strings"
)

// MaxShow is the number of matches listed in the dropdown.
const MaxShow = 10

var metachars = regexp.MustCompile(`[.*+\-?^${}()|[\]\\]`)

// Escape quotes every regexp metacharacter of q, then turns each comma into
// an alternation.
func Escape(q string) string {
	return strings.Replace(metachars.ReplaceAllString(q, `\$0`), ",", "|", -1)
}

// Compile builds the case insensitive pattern for q. An empty query has no
// pattern.
func Compile(q string) (*regexp.Regexp, error) {
	if q == "" {
		return nil, nil
	}
	return regexp.Compile("(?i)" + Escape(q))
}

// Result holds every name matched by a query and the head of it shown in the
// dropdown.
type Result struct {
	Query   string   `json:"query"`
	Matches []string `json:"matches"`
	Shown   []string `json:"shown"`
}

// Empty reports whether the result shows nothing.
func (r Result) Empty() bool {
	return len(r.Matches) == 0
}

// Run matches names against q, keeping the order of names.
func Run(names []string, q string) (Result, error) {
	res := Result{Query: q, Matches: []string{}, Shown: []string{}}

	re, err := Compile(q)
	if err != nil || re == nil {
		return res, err
	}

	for _, name := range names {
		if re.MatchString(name) {
			res.Matches = append(res.Matches, name)
		}
	}

	shown := len(res.Matches)
	if shown > MaxShow {
		shown = MaxShow
	}
	res.Shown = res.Matches[:shown]
	return res, nil
}
