package bolt

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/boltdb/bolt"

	"github.com/bobinette/seedgraph"
)

var (
	fuzzerBucket     = []byte("fuzzers")
	fuzzerNameBucket = []byte("fuzzer_names")
)

// FuzzerRepository stores the fuzzer catalog. Records are keyed by id and a
// second bucket maps names to ids, so importing the same catalog twice
// updates records in place.
type FuzzerRepository struct {
	Driver *Driver
}

// Get retrieves the fuzzers defined by ids. Unknown ids are skipped.
func (r *FuzzerRepository) Get(ids ...int) ([]seedgraph.Fuzzer, error) {
	fuzzers := make([]seedgraph.Fuzzer, 0, len(ids))
	err := r.Driver.store.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(fuzzerBucket)

		for _, id := range ids {
			data := bucket.Get(itob(id))
			if data == nil {
				continue
			}

			f, err := decodeFuzzer(id, data)
			if err != nil {
				return err
			}
			fuzzers = append(fuzzers, f)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return fuzzers, nil
}

func (r *FuzzerRepository) GetByName(name string) (seedgraph.Fuzzer, bool, error) {
	var f seedgraph.Fuzzer
	found := false
	err := r.Driver.store.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(fuzzerNameBucket).Get([]byte(name))
		if id == nil {
			return nil
		}

		data := tx.Bucket(fuzzerBucket).Get(id)
		if data == nil {
			return nil
		}

		var err error
		f, err = decodeFuzzer(btoi(id), data)
		found = err == nil
		return err
	})
	return f, found, err
}

// List returns every fuzzer, ordered by id.
func (r *FuzzerRepository) List() ([]seedgraph.Fuzzer, error) {
	var fuzzers []seedgraph.Fuzzer

	err := r.Driver.store.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(fuzzerBucket).Cursor()
		for id, data := c.First(); id != nil; id, data = c.Next() {
			f, err := decodeFuzzer(btoi(id), data)
			if err != nil {
				return err
			}
			fuzzers = append(fuzzers, f)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return fuzzers, nil
}

// Upsert inserts or updates a fuzzer. A fuzzer without id takes the id of
// the stored fuzzer with the same name, or a new one.
func (r *FuzzerRepository) Upsert(f *seedgraph.Fuzzer) error {
	return r.Driver.store.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(fuzzerBucket)
		names := tx.Bucket(fuzzerNameBucket)

		if f.ID <= 0 {
			if id := names.Get([]byte(f.Name)); id != nil {
				f.ID = btoi(id)
			} else {
				id, err := bucket.NextSequence()
				if err != nil {
					return fmt.Errorf("error incrementing id: %v", err)
				}
				f.ID = int(id)
			}
		}

		// A rename frees the previous name.
		if data := bucket.Get(itob(f.ID)); data != nil {
			previous, err := decodeFuzzer(f.ID, data)
			if err != nil {
				return err
			}
			if previous.Name != f.Name {
				if err := names.Delete([]byte(previous.Name)); err != nil {
					return err
				}
			}
		}

		data, err := json.Marshal(f)
		if err != nil {
			return err
		}

		if err := bucket.Put(itob(f.ID), data); err != nil {
			return err
		}
		return names.Put([]byte(f.Name), itob(f.ID))
	})
}

func (r *FuzzerRepository) Delete(id int) error {
	return r.Driver.store.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(fuzzerBucket)

		data := bucket.Get(itob(id))
		if data == nil {
			return nil
		}

		f, err := decodeFuzzer(id, data)
		if err != nil {
			return err
		}
		if err := tx.Bucket(fuzzerNameBucket).Delete([]byte(f.Name)); err != nil {
			return err
		}
		return bucket.Delete(itob(id))
	})
}

func decodeFuzzer(id int, data []byte) (seedgraph.Fuzzer, error) {
	var f seedgraph.Fuzzer
	if err := json.Unmarshal(data, &f); err != nil {
		return f, err
	}
	f.ID = id
	return f, nil
}

// ------------------------------------------------------------------------------------------------
// Helpers
// ------------------------------------------------------------------------------------------------

// itob returns an 8-byte big endian representation of v.
func itob(v int) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

func btoi(b []byte) int {
	return int(binary.BigEndian.Uint64(b))
}
