// Package catalog reads the list of fuzzer records shown in the stats panel.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/bobinette/seedgraph"
	"github.com/bobinette/seedgraph/errors"
)

type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

var validate = validator.New()

// FormatOf guesses the format of a catalog file from its extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return "", errors.New(fmt.Sprintf("unknown catalog format for %s", path), errors.BadRequest())
}

// Load reads and validates the catalog file at path.
func Load(path string) ([]seedgraph.Fuzzer, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.New(fmt.Sprintf("catalog %s not found", path), errors.NotFound())
	} else if err != nil {
		return nil, err
	}
	defer f.Close()

	return Decode(f, format)
}

// Decode reads a list of fuzzers and validates them.
func Decode(r io.Reader, format Format) ([]seedgraph.Fuzzer, error) {
	var fuzzers []seedgraph.Fuzzer

	var err error
	switch format {
	case JSON:
		err = json.NewDecoder(r).Decode(&fuzzers)
	case YAML:
		err = yaml.NewDecoder(r).Decode(&fuzzers)
		if err == io.EOF {
			err = nil
		}
	default:
		return nil, errors.New(fmt.Sprintf("unknown catalog format %s", format), errors.BadRequest())
	}
	if err != nil {
		return nil, errors.New("could not decode catalog", errors.BadRequest(), errors.WithCause(err))
	}

	if err := Validate(fuzzers); err != nil {
		return nil, err
	}
	return fuzzers, nil
}

// Validate checks every record and rejects duplicated names.
func Validate(fuzzers []seedgraph.Fuzzer) error {
	seen := make(map[string]int, len(fuzzers))
	for i, f := range fuzzers {
		if err := ValidateOne(f); err != nil {
			return errors.New(fmt.Sprintf("fuzzer #%d: %s", i, err.Error()), errors.WithCause(err))
		}

		if j, ok := seen[f.Name]; ok {
			return errors.New(fmt.Sprintf("fuzzer #%d: name %s already used by fuzzer #%d", i, f.Name, j), errors.Conflict())
		}
		seen[f.Name] = i
	}
	return nil
}

// ValidateOne checks a single record: a name, at least one target, and a
// plausible year when one is set.
func ValidateOne(f seedgraph.Fuzzer) error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag())
	}
	return errors.New(strings.Join(msgs, ", "), errors.Unprocessable())
}
