package bolt

import (
	"github.com/boltdb/bolt"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/bobinette/seedgraph/layout"
)

var layoutBucket = []byte("layouts")

// LayoutStore keeps the last settled positions of each graph, msgpack
// encoded, so a restart does not have to run the simulation again.
type LayoutStore struct {
	Driver *Driver
}

// Save stores snap under key, replacing any previous snapshot.
func (s *LayoutStore) Save(key string, snap layout.Snapshot) error {
	data, err := msgpack.Marshal(snap)
	if err != nil {
		return err
	}

	return s.Driver.store.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(layoutBucket).Put([]byte(key), data)
	})
}

// Load returns the snapshot stored under key. The boolean is false when
// there is none.
func (s *LayoutStore) Load(key string) (layout.Snapshot, bool, error) {
	var snap layout.Snapshot
	found := false
	err := s.Driver.store.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(layoutBucket).Get([]byte(key))
		if data == nil {
			return nil
		}
		found = true
		return msgpack.Unmarshal(data, &snap)
	})
	if err != nil {
		return layout.Snapshot{}, false, err
	}
	return snap, found, nil
}

func (s *LayoutStore) Delete(key string) error {
	return s.Driver.store.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(layoutBucket).Delete([]byte(key))
	})
}
