// Package seqregion summarizes sequence-region metadata files.
package seqregion

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/inodb/manifest-stats/internal/input"
)

// ErrMalformed is returned for descriptors lacking required fields.
var ErrMalformed = errors.New("malformed seq_region")

// genBankSource is the synonym source preferred for display names.
const genBankSource = "GenBank"

// Synonym is an alternative name for a sequence region.
type Synonym struct {
	Source string `json:"source"`
	Name   string `json:"name"`
}

// Region is one sequence-region descriptor.
type Region struct {
	Name             string
	CoordSystemLevel string
	Length           int64
	Synonyms         []Synonym

	// Circular records the presence of the "circular" key, whatever its value.
	Circular   bool
	CodonTable *string
	Location   *string
}

// DisplayName returns the first GenBank synonym, falling back to Name.
func (r *Region) DisplayName() string {
	for _, syn := range r.Synonyms {
		if syn.Source == genBankSource {
			if syn.Name != "" {
				return syn.Name
			}
			break
		}
	}
	return r.Name
}

// UnmarshalJSON decodes a descriptor, tracking which optional keys are present.
func (r *Region) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	required := []struct {
		key  string
		dest any
	}{
		{"name", &r.Name},
		{"coord_system_level", &r.CoordSystemLevel},
		{"length", &r.Length},
	}
	for _, field := range required {
		value, ok := raw[field.key]
		if !ok {
			return fmt.Errorf("%w: missing %q", ErrMalformed, field.key)
		}
		if err := json.Unmarshal(value, field.dest); err != nil {
			return fmt.Errorf("%w: field %q: %v", ErrMalformed, field.key, err)
		}
	}

	if value, ok := raw["synonyms"]; ok {
		if err := json.Unmarshal(value, &r.Synonyms); err != nil {
			return fmt.Errorf("%w: field %q: %v", ErrMalformed, "synonyms", err)
		}
	}

	_, r.Circular = raw["circular"]
	if value, ok := raw["codon_table"]; ok {
		s := scalarText(value)
		r.CodonTable = &s
	}
	if value, ok := raw["location"]; ok {
		s := scalarText(value)
		r.Location = &s
	}

	return nil
}

// scalarText renders a JSON scalar as text: strings are unquoted, anything
// else keeps its JSON spelling (codon tables are often plain integers).
func scalarText(value json.RawMessage) string {
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(value))
}

// Load reads a JSON array of descriptors from path.
func Load(path string) ([]Region, error) {
	in, err := input.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seq_region file: %w", err)
	}
	defer in.Close()

	var regions []Region
	if err := json.NewDecoder(in).Decode(&regions); err != nil {
		if errors.Is(err, ErrMalformed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: decode %s: %v", ErrMalformed, path, err)
	}
	return regions, nil
}
