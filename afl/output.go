package afl

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bobinette/seedgraph/loader"
	"github.com/bobinette/seedgraph/session"
)

// MutationDeltaDir holds one diff file per node, named after the node.
const MutationDeltaDir = "mutation_delta"

type record struct {
	FoundTime     int64       `json:"found_time"`
	Parents       []string    `json:"parents"`
	TimeDelta     int64       `json:"time_delta"`
	Mutation      string      `json:"mutation"`
	MutationDelta string      `json:"mutation_delta"`
	Coverage      interface{} `json:"coverage"`
}

// Documents returns the topology and metadata documents of the run.
func (r *Run) Documents() (loader.GraphDocument, map[string]interface{}) {
	doc := loader.GraphDocument{
		Nodes: make([]string, 0, len(r.Seeds)+len(r.Crashes)),
		Edges: make([][]string, 0),
	}
	meta := make(map[string]interface{})

	for _, e := range r.entries() {
		doc.Nodes = append(doc.Nodes, e.Name())

		parents := make([]string, len(e.Parents))
		for i, id := range e.Parents {
			parents[i] = strconv.Itoa(id)
			doc.Edges = append(doc.Edges, []string{parents[i], e.Name()})
		}

		rec := record{
			FoundTime: e.FoundTime,
			Parents:   parents,
			TimeDelta: e.TimeDelta,
			Mutation:  e.Mutation,
			Coverage:  NoCoverage,
		}
		if e.MutationDelta != "" {
			rec.MutationDelta = session.MutationDeltaURL(e.Name())
		}
		if e.NewCoverage >= 0 {
			rec.Coverage = e.NewCoverage
		}
		meta[e.Name()] = rec
	}

	if len(r.Crashes) > 0 {
		meta["target"] = r.Crashes[0].Name()
	}
	return doc, meta
}

// Write writes seed_graph.json, metadata.json and the mutation deltas to
// dir.
func (r *Run) Write(dir string) error {
	if err := os.MkdirAll(filepath.Join(dir, MutationDeltaDir), 0755); err != nil {
		return err
	}

	doc, meta := r.Documents()
	if err := writeJSON(filepath.Join(dir, loader.GraphFile), doc); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, loader.MetadataFile), meta); err != nil {
		return err
	}

	for _, e := range r.entries() {
		if e.MutationDelta == "" {
			continue
		}
		path := filepath.Join(dir, MutationDeltaDir, e.Name()+".txt")
		if err := ioutil.WriteFile(path, []byte(e.MutationDelta), 0644); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(path, data, 0644)
}
