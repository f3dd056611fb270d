package loader

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/bobinette/seedgraph"
	"github.com/bobinette/seedgraph/errors"
)

// Documents encodes g as the topology and replay documents read by Decode.
func Documents(g *seedgraph.Graph) (GraphDocument, map[string]interface{}) {
	doc := GraphDocument{
		Nodes: g.Names(),
		Edges: make([][]string, len(g.Edges)),
	}
	for i, e := range g.Edges {
		doc.Edges[i] = []string{e.Source, e.Target}
	}

	meta := make(map[string]interface{}, len(g.Seeds)+2)
	for _, s := range g.Seeds {
		meta[s.Name] = Record{
			FoundTime:     flexInt(s.FoundTime),
			TimeDelta:     flexInt(s.TimeDelta),
			Mutation:      s.Mutation,
			MutationDelta: s.MutationDelta,
			Coverage:      flexString(s.Coverage),
		}
	}
	if len(g.Visits) > 0 {
		meta[visitKey] = g.Visits
	}
	if g.Target != "" {
		meta[targetKey] = g.Target
	}
	return doc, meta
}

// Write writes the documents of g to dir, creating it if needed.
func Write(dir string, g *seedgraph.Graph) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.New("could not create "+dir, errors.WithCause(err))
	}

	doc, meta := Documents(g)
	if err := writeJSON(filepath.Join(dir, GraphFile), doc); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, MetadataFile), meta)
}

func writeJSON(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.New("could not encode "+filepath.Base(path), errors.WithCause(err))
	}
	if err := ioutil.WriteFile(path, data, 0644); err != nil {
		return errors.New("could not write "+path, errors.WithCause(err))
	}
	return nil
}
