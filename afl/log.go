package afl

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/bobinette/seedgraph/errors"
)

const (
	seedToken   = "Seed - "
	replayToken = "Replaying crash - "

	// Allocation site details follow some replays and are not part of the
	// crash description.
	locatedToken = " is located "
)

var (
	idRe        = regexp.MustCompile(`id:(\d{6})`)
	srcRe       = regexp.MustCompile(`src:([^,\s]+)`)
	repRe       = regexp.MustCompile(`rep:(\d+)`)
	foundRe     = regexp.MustCompile(`\(found at (\d+) sec`)
	seedNameRe  = regexp.MustCompile(`Seed - (.*) \(found at`)
	crashNameRe = regexp.MustCompile(`(id:[^ ]+) \(found at`)
)

// ParseSeedLog reads the queue entries of a seed log in log order. Found
// times are the raw ones; see FixFoundTimes.
func ParseSeedLog(r io.Reader) ([]*Entry, error) {
	var entries []*Entry

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for n := 1; scanner.Scan(); n++ {
		line := scanner.Text()
		if !strings.Contains(line, seedToken) {
			continue
		}

		e, err := parseEntry(line, seedNameRe)
		if err != nil {
			return nil, errors.New(fmt.Sprintf("seed log line %d", n), errors.BadRequest(), errors.WithCause(err))
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// ParseReplayLog reads the crash replays of a replay log. A replay spans
// from its header to the next one. When match is not empty only the
// replays containing it are kept.
func ParseReplayLog(r io.Reader, match string) ([]*Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var crashes []*Entry
	blocks := strings.Split(string(data), replayToken)
	for i, block := range blocks[1:] {
		if idx := strings.Index(block, locatedToken); idx >= 0 {
			block = block[:idx]
		}
		if match != "" && !strings.Contains(block, match) {
			continue
		}

		e, err := parseEntry(replayToken+block, crashNameRe)
		if err != nil {
			return nil, errors.New(fmt.Sprintf("replay %d", i+1), errors.BadRequest(), errors.WithCause(err))
		}
		e.Crash = true
		crashes = append(crashes, e)
	}

	return crashes, nil
}

func parseEntry(text string, nameRe *regexp.Regexp) (*Entry, error) {
	name := nameRe.FindStringSubmatch(text)
	if name == nil {
		return nil, errors.New("missing entry name")
	}

	id := idRe.FindStringSubmatch(name[1])
	if id == nil {
		return nil, errors.New(fmt.Sprintf("missing id in %q", name[1]))
	}
	num, _ := strconv.Atoi(id[1])

	found := foundRe.FindStringSubmatch(text)
	if found == nil {
		return nil, errors.New(fmt.Sprintf("missing found time in %q", name[1]))
	}
	secs, _ := strconv.ParseInt(found[1], 10, 64)

	e := &Entry{
		ID:        num,
		Key:       id[1],
		FullName:  name[1],
		Parents:   make([]int, 0),
		FoundTime: secs,
	}

	src := srcRe.FindStringSubmatch(name[1])
	if src == nil {
		return e, nil
	}
	for _, p := range strings.Split(src[1], "+") {
		parent, err := strconv.Atoi(p)
		if err != nil {
			return nil, errors.New(fmt.Sprintf("invalid parent %q in %q", p, name[1]))
		}
		e.Parents = append(e.Parents, parent)
	}

	if rep := repRe.FindStringSubmatch(name[1]); rep != nil {
		e.Mutation = rep[1] + " operations overlapped"
	}
	if strings.Contains(name[1], "+cov") || strings.Contains(name[1], "cov+") {
		if e.Mutation != "" {
			e.Mutation += ", "
		}
		e.Mutation += "new branch edge covered"
	}

	return e, nil
}
