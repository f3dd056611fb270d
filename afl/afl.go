// Package afl turns the output directory of an AFL-style fuzzing campaign
// into the seed graph documents read by the viewer.
package afl

import (
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/bobinette/seedgraph"
	"github.com/bobinette/seedgraph/errors"
)

const (
	SeedLogFile   = "seed_log.txt"
	ReplayLogFile = "replay_log.txt"

	QueueDir    = "queue"
	CrashesDir  = "crashes"
	CoverageDir = "coverage"

	coverageToken = "Line : "

	// NoCoverage is reported for crashes and seeds without a coverage file.
	NoCoverage = "N/A"
)

// Entry is a queue entry or a crash of the campaign.
type Entry struct {
	ID int
	// Key is the zero-padded id, as found in the file name.
	Key      string
	FullName string
	Parents  []int
	Crash    bool

	FoundTime     int64
	TimeDelta     int64
	Mutation      string
	MutationDelta string

	// NewCoverage is the number of lines first covered by this entry, or -1
	// when unknown.
	NewCoverage int
}

// Name is the node name of the entry in the seed graph.
func (e *Entry) Name() string {
	if e.Crash {
		return seedgraph.CrashMarker + ": " + e.Key
	}
	return strconv.Itoa(e.ID)
}

type Options struct {
	// Match keeps only the crashes whose replay contains it.
	Match string
}

// Run is a parsed campaign.
type Run struct {
	Seeds   []*Entry
	Crashes []*Entry

	byID map[int]*Entry
}

// Parse reads the logs of dir and computes found times, time deltas,
// mutation deltas and coverage. The replay log and the queue, crashes and
// coverage directories are optional.
func Parse(dir string, opts Options) (*Run, error) {
	f, err := os.Open(filepath.Join(dir, SeedLogFile))
	if err != nil {
		return nil, errors.New("could not open seed log", errors.NotFound(), errors.WithCause(err))
	}
	seeds, err := ParseSeedLog(f)
	f.Close()
	if err != nil {
		return nil, err
	}

	var crashes []*Entry
	if f, err := os.Open(filepath.Join(dir, ReplayLogFile)); err == nil {
		crashes, err = ParseReplayLog(f, opts.Match)
		f.Close()
		if err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	r, err := NewRun(seeds, crashes)
	if err != nil {
		return nil, err
	}

	if err := r.computeMutationDeltas(dir); err != nil {
		return nil, err
	}
	if err := r.computeCoverage(dir); err != nil {
		return nil, err
	}
	return r, nil
}

// NewRun links the entries, fixes the found times of the seeds and
// computes the time deltas.
func NewRun(seeds, crashes []*Entry) (*Run, error) {
	r := &Run{
		Seeds:   seeds,
		Crashes: crashes,
		byID:    make(map[int]*Entry, len(seeds)),
	}
	for _, s := range seeds {
		if _, ok := r.byID[s.ID]; ok {
			return nil, errors.New(fmt.Sprintf("duplicate seed id %d", s.ID), errors.BadRequest())
		}
		r.byID[s.ID] = s
		s.NewCoverage = -1
	}
	for _, c := range crashes {
		c.NewCoverage = -1
	}

	FixFoundTimes(seeds)

	for _, e := range r.entries() {
		delta, err := r.timeDelta(e)
		if err != nil {
			return nil, err
		}
		e.TimeDelta = delta
	}
	return r, nil
}

func (r *Run) entries() []*Entry {
	all := make([]*Entry, 0, len(r.Seeds)+len(r.Crashes))
	all = append(all, r.Seeds...)
	return append(all, r.Crashes...)
}

// FixFoundTimes walks the seeds backwards so that no seed appears to be
// found later than the seeds queued after it. The last seed takes the
// largest time of the log.
func FixFoundTimes(seeds []*Entry) {
	if len(seeds) == 0 {
		return
	}

	max := seeds[0].FoundTime
	for _, s := range seeds {
		if s.FoundTime > max {
			max = s.FoundTime
		}
	}

	prev := max
	seeds[len(seeds)-1].FoundTime = max
	for i := len(seeds) - 1; i >= 0; i-- {
		if seeds[i].FoundTime > prev {
			seeds[i].FoundTime = prev
		} else {
			prev = seeds[i].FoundTime
		}
	}
}

// timeDelta is the time elapsed since the closest parent was found: 0 for
// initial seeds and -1 when there are more than two parents.
func (r *Run) timeDelta(e *Entry) (int64, error) {
	switch len(e.Parents) {
	case 0:
		return 0, nil
	case 1, 2:
		var delta int64
		for i, id := range e.Parents {
			p, ok := r.byID[id]
			if !ok {
				return 0, errors.New(fmt.Sprintf("%s: unknown parent %d", e.Name(), id), errors.BadRequest())
			}
			if d := e.FoundTime - p.FoundTime; i == 0 || d < delta {
				delta = d
			}
		}
		return delta, nil
	}
	return -1, nil
}

func (r *Run) computeMutationDeltas(dir string) error {
	if _, err := os.Stat(filepath.Join(dir, QueueDir)); os.IsNotExist(err) {
		return nil
	}

	for _, e := range r.entries() {
		if len(e.Parents) != 1 {
			continue
		}
		parent := r.byID[e.Parents[0]]

		entryDir := QueueDir
		if e.Crash {
			entryDir = CrashesDir
		}
		data, err := ioutil.ReadFile(filepath.Join(dir, entryDir, e.FullName))
		if err != nil {
			return errors.New("could not read "+e.FullName, errors.WithCause(err))
		}
		parentData, err := ioutil.ReadFile(filepath.Join(dir, QueueDir, parent.FullName))
		if err != nil {
			return errors.New("could not read "+parent.FullName, errors.WithCause(err))
		}

		delta, err := MutationDelta(parentData, data, parent.Name(), e.Name())
		if err != nil {
			return err
		}
		e.MutationDelta = delta
	}
	return nil
}

// MutationDelta is the unified diff of the hex bytes of a parent and its
// child, one byte per line.
func MutationDelta(parent, child []byte, parentName, childName string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        hexLines(parent),
		B:        hexLines(child),
		FromFile: parentName,
		ToFile:   childName,
		Context:  3,
	})
}

func hexLines(data []byte) []string {
	lines := make([]string, len(data))
	for i := range data {
		lines[i] = hex.EncodeToString(data[i:i+1]) + "\n"
	}
	return lines
}

// computeCoverage counts, in queue order, the lines each seed covers that
// no seed before it did.
func (r *Run) computeCoverage(dir string) error {
	if _, err := os.Stat(filepath.Join(dir, CoverageDir)); os.IsNotExist(err) {
		return nil
	}

	covered := make(map[string]struct{})
	for _, s := range r.Seeds {
		data, err := ioutil.ReadFile(filepath.Join(dir, CoverageDir, s.FullName))
		if os.IsNotExist(err) {
			continue
		} else if err != nil {
			return err
		}

		n := 0
		for _, line := range strings.Split(string(data), "\n") {
			idx := strings.Index(line, coverageToken)
			if idx < 0 {
				continue
			}
			l := strings.TrimSpace(line[idx+len(coverageToken):])
			if _, ok := covered[l]; ok {
				continue
			}
			covered[l] = struct{}{}
			n++
		}
		s.NewCoverage = n
	}
	return nil
}

// Graph builds the seed graph of the run, crashes last.
func (r *Run) Graph() (*seedgraph.Graph, error) {
	g := seedgraph.NewGraph()
	for _, e := range r.entries() {
		g.Add(&seedgraph.Seed{
			Name:      e.Name(),
			Parents:   make([]string, 0),
			Children:  make([]string, 0),
			FoundTime: e.FoundTime,
			TimeDelta: e.TimeDelta,
			Mutation:  e.Mutation,
			Coverage:  e.coverage(),
		})
	}

	for _, e := range r.entries() {
		for _, id := range e.Parents {
			p, ok := r.byID[id]
			if !ok || !g.Link(p.Name(), e.Name()) {
				return nil, errors.New(fmt.Sprintf("%s: unknown parent %d", e.Name(), id), errors.BadRequest())
			}
		}
	}
	if len(r.Crashes) > 0 {
		g.Target = r.Crashes[0].Name()
	}
	return g, nil
}

func (e *Entry) coverage() string {
	if e.NewCoverage < 0 {
		return NoCoverage
	}
	return strconv.Itoa(e.NewCoverage)
}
