package catalog

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobinette/seedgraph"
	"github.com/bobinette/seedgraph/errors"
)

const (
	catalogJSON = `[
		{"name": "AFL", "year": 2013, "author": ["Michal Zalewski"], "targets": ["binary"], "toolurl": "https://github.com/google/AFL"},
		{"name": "AFLFast", "year": 2016, "title": "Coverage-based Greybox Fuzzing as Markov Chain", "booktitle": "CCS", "targets": ["binary"]}
	]`

	catalogYAML = `
- name: AFL
  year: 2013
  author: [Michal Zalewski]
  targets: [binary]
- name: jsfunfuzz
  booktitle: Black Hat USA
  targets:
    - javascript
`
)

func TestDecode(t *testing.T) {
	fuzzers, err := Decode(strings.NewReader(catalogJSON), JSON)
	require.NoError(t, err)
	require.Len(t, fuzzers, 2)
	assert.Equal(t, "https://github.com/google/AFL", fuzzers[0].ToolURL)
	assert.Equal(t, "CCS", fuzzers[1].Booktitle)

	fuzzers, err = Decode(strings.NewReader(catalogYAML), YAML)
	require.NoError(t, err)
	require.Len(t, fuzzers, 2)
	assert.Equal(t, []string{"Michal Zalewski"}, fuzzers[0].Author)
	assert.Equal(t, []string{"javascript"}, fuzzers[1].Targets)
	assert.Equal(t, 0, fuzzers[1].Year)
}

func TestValidateOne(t *testing.T) {
	tts := map[string]struct {
		fuzzer seedgraph.Fuzzer
		valid  bool
	}{
		"minimal":        {fuzzer: seedgraph.Fuzzer{Name: "AFL", Targets: []string{"binary"}}, valid: true},
		"no name":        {fuzzer: seedgraph.Fuzzer{Targets: []string{"binary"}}, valid: false},
		"no targets":     {fuzzer: seedgraph.Fuzzer{Name: "AFL"}, valid: false},
		"empty target":   {fuzzer: seedgraph.Fuzzer{Name: "AFL", Targets: []string{""}}, valid: false},
		"year too small": {fuzzer: seedgraph.Fuzzer{Name: "AFL", Targets: []string{"x"}, Year: 12}, valid: false},
		"bad url":        {fuzzer: seedgraph.Fuzzer{Name: "AFL", Targets: []string{"x"}, ToolURL: "not a url"}, valid: false},
	}

	for name, tt := range tts {
		err := ValidateOne(tt.fuzzer)
		if tt.valid {
			assert.NoError(t, err, name)
		} else {
			errors.AssertCode(t, err, 422)
		}
	}
}

func TestDecode_Errors(t *testing.T) {
	tts := map[string]struct {
		data   string
		format Format
		code   int
	}{
		"malformed json":  {data: `[{"name": }]`, format: JSON, code: 400},
		"invalid record":  {data: `[{"name": "AFL"}]`, format: JSON, code: 422},
		"duplicated name": {data: `[{"name": "A", "targets": ["x"]}, {"name": "A", "targets": ["y"]}]`, format: JSON, code: 409},
		"unknown format":  {data: `[]`, format: Format("toml"), code: 400},
	}

	for name, tt := range tts {
		_, err := Decode(strings.NewReader(tt.data), tt.format)
		require.Error(t, err, name)
		assert.Equal(t, tt.code, errors.Code(err), name)
	}
}

func TestLoad(t *testing.T) {
	dir, err := ioutil.TempDir("", "catalog")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "fuzzers.yml")
	require.NoError(t, ioutil.WriteFile(path, []byte(catalogYAML), 0644))

	fuzzers, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, fuzzers, 2)

	_, err = Load(filepath.Join(dir, "missing.json"))
	errors.AssertCode(t, err, 404)

	_, err = Load(filepath.Join(dir, "fuzzers.txt"))
	errors.AssertCode(t, err, 400)
}
