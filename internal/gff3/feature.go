// Package gff3 streams GFF3 annotation files as records of nested features.
package gff3

import (
	"errors"

	"github.com/biogo/biogo/seq"
)

// ErrMalformed is returned for lines that cannot be parsed as GFF3.
var ErrMalformed = errors.New("malformed GFF3")

// Column indices of a GFF3 feature line.
const (
	fieldSeqID = iota
	fieldSource
	fieldType
	fieldStart
	fieldEnd
	fieldScore
	fieldStrand
	fieldPhase
	fieldAttributes
	numFields
)

// Feature is one GFF3 feature with its sub-features.
type Feature struct {
	SeqID      string
	Source     string
	Type       string
	Start      int64 // 1-based, inclusive
	End        int64
	Score      string
	Strand     seq.Strand
	Phase      string
	ID         string
	Attributes map[string][]string
	Children   []*Feature
}

// Attribute returns the first value of the named attribute, or "".
func (f *Feature) Attribute(key string) string {
	if v := f.Attributes[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Parents returns the IDs listed in the Parent attribute.
func (f *Feature) Parents() []string {
	return f.Attributes["Parent"]
}

// Record groups the top-level features of one sequence.
type Record struct {
	SeqID    string
	Features []*Feature
}
