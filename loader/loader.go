package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/bobinette/seedgraph"
	"github.com/bobinette/seedgraph/errors"
)

const (
	GraphFile    = "seed_graph.json"
	MetadataFile = "metadata.json"

	visitKey  = "visit"
	targetKey = "target"
)

// GraphDocument is the topology document: node ids and [parent, child]
// pairs.
type GraphDocument struct {
	Nodes []string   `json:"nodes"`
	Edges [][]string `json:"edges"`
}

// Record holds the replay scalars of one seed.
type Record struct {
	FoundTime     flexInt    `json:"found_time"`
	TimeDelta     flexInt    `json:"time_delta"`
	Mutation      string     `json:"mutation"`
	MutationDelta string     `json:"mutation_delta"`
	Coverage      flexString `json:"coverage"`
}

// Metadata is the replay document: one record per seed id plus the visit
// counts and the designated target.
type Metadata struct {
	Records map[string]Record
	Visits  map[string]int
	Target  string
}

func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	m.Records = make(map[string]Record, len(raw))
	m.Visits = make(map[string]int)
	for key, value := range raw {
		switch key {
		case visitKey:
			if err := json.Unmarshal(value, &m.Visits); err != nil {
				return fmt.Errorf("invalid %s map: %v", visitKey, err)
			}
		case targetKey:
			if err := json.Unmarshal(value, &m.Target); err != nil {
				return fmt.Errorf("invalid %s: %v", targetKey, err)
			}
		default:
			var r Record
			if err := json.Unmarshal(value, &r); err != nil {
				return fmt.Errorf("invalid record %s: %v", key, err)
			}
			m.Records[key] = r
		}
	}
	return nil
}

// Parse builds a graph from the two decoded documents. Every edge endpoint
// must name a node of the topology document.
func Parse(doc GraphDocument, meta Metadata) (*seedgraph.Graph, error) {
	g := seedgraph.NewGraph()

	for _, name := range doc.Nodes {
		r := meta.Records[name]
		seed := &seedgraph.Seed{
			Name:     name,
			Parents:  make([]string, 0),
			Children: make([]string, 0),

			FoundTime:     int64(r.FoundTime),
			TimeDelta:     int64(r.TimeDelta),
			Mutation:      r.Mutation,
			MutationDelta: r.MutationDelta,
			Coverage:      string(r.Coverage),
		}
		if !g.Add(seed) {
			return nil, errors.New(fmt.Sprintf("duplicate node %q", name), errors.BadRequest())
		}
	}

	for i, e := range doc.Edges {
		if len(e) != 2 {
			return nil, errors.New(fmt.Sprintf("edge %d: expected [parent, child], got %d ids", i, len(e)), errors.BadRequest())
		}
		if !g.Link(e[0], e[1]) {
			return nil, errors.New(fmt.Sprintf("edge %d (%s -> %s) references an unknown node", i, e[0], e[1]), errors.BadRequest())
		}
	}

	for name, count := range meta.Visits {
		g.Visits[name] = count
	}
	g.Target = meta.Target

	return g, nil
}

// Decode reads both documents and parses them.
func Decode(graphData, metaData io.Reader) (*seedgraph.Graph, error) {
	var doc GraphDocument
	if err := json.NewDecoder(graphData).Decode(&doc); err != nil {
		return nil, errors.New("could not decode "+GraphFile, errors.BadRequest(), errors.WithCause(err))
	}

	var meta Metadata
	if err := json.NewDecoder(metaData).Decode(&meta); err != nil {
		return nil, errors.New("could not decode "+MetadataFile, errors.BadRequest(), errors.WithCause(err))
	}

	return Parse(doc, meta)
}

// Load fetches both documents from src concurrently and parses them once
// both are available. The first failed fetch cancels the other.
func Load(ctx context.Context, src Source) (*seedgraph.Graph, error) {
	var graphData, metaData []byte

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		graphData, err = fetch(ctx, src, GraphFile)
		return err
	})
	eg.Go(func() error {
		var err error
		metaData, err = fetch(ctx, src, MetadataFile)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return Decode(bytes.NewReader(graphData), bytes.NewReader(metaData))
}

func fetch(ctx context.Context, src Source, name string) ([]byte, error) {
	rc, err := src.Open(ctx, name)
	if err != nil {
		return nil, errors.New("could not fetch "+name, errors.WithCause(err))
	}
	defer rc.Close()

	data, err := ioutil.ReadAll(rc)
	if err != nil {
		return nil, errors.New("could not read "+name, errors.WithCause(err))
	}
	return data, nil
}

// flexInt accepts a JSON number or a numeric string. Fractional values are
// truncated.
type flexInt int64

func (i *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*i = 0
		return nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %s", data)
	}
	*i = flexInt(f)
	return nil
}

// flexString keeps any JSON value as display text. Lists are comma-joined,
// objects are rendered as sorted key=value pairs.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = flexString(display(v))
	return nil
}

func display(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []interface{}:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = display(e)
		}
		return strings.Join(parts, ",")
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + display(v[k])
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(v)
}
