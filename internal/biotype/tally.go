// Package biotype tallies feature types in GFF3 annotation files.
package biotype

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/inodb/manifest-stats/internal/gff3"
)

// Entry is the tally of one biotype.
type Entry struct {
	Biotype string
	Count   int
	Example string // ID of the most recently seen feature
}

// Tally accumulates biotype counts in first-seen order.
type Tally struct {
	entries map[string]*Entry
	order   []string
	total   int
}

// NewTally creates an empty tally.
func NewTally() *Tally {
	return &Tally{entries: make(map[string]*Entry)}
}

// Add counts one feature.
func (t *Tally) Add(f *gff3.Feature) {
	t.total++
	e, ok := t.entries[f.Type]
	if !ok {
		t.entries[f.Type] = &Entry{Biotype: f.Type, Count: 1, Example: f.ID}
		t.order = append(t.order, f.Type)
		return
	}
	e.Count++
	e.Example = f.ID
}

// AddRecord counts the top-level features of a record, their children and
// their grandchildren. Deeper features are not visited.
func (t *Tally) AddRecord(rec *gff3.Record) {
	for _, feat := range rec.Features {
		t.Add(feat)
		for _, child := range feat.Children {
			t.Add(child)
			for _, grandchild := range child.Children {
				t.Add(grandchild)
			}
		}
	}
}

// Total returns the number of features counted.
func (t *Tally) Total() int {
	return t.total
}

// Sorted returns the entries ordered by biotype name.
func (t *Tally) Sorted() []Entry {
	entries := make([]Entry, 0, len(t.order))
	for _, name := range t.order {
		entries = append(entries, *t.entries[name])
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		return strings.Compare(a.Biotype, b.Biotype)
	})
	return entries
}

// RecordSource yields annotation records; nil, nil marks the end.
type RecordSource interface {
	Next() (*gff3.Record, error)
}

// Analyze consumes all records from src and renders the report section.
func Analyze(source string, src RecordSource) ([]string, error) {
	t := NewTally()
	for {
		rec, err := src.Next()
		if err != nil {
			return nil, fmt.Errorf("read GFF3 record: %w", err)
		}
		if rec == nil {
			break
		}
		t.AddRecord(rec)
	}
	return Lines(source, t.Sorted()), nil
}

// Lines renders a section: the source name, one line per biotype and a
// trailing blank element.
func Lines(source string, entries []Entry) []string {
	lines := make([]string, 0, len(entries)+2)
	lines = append(lines, source)
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%9d\t%20s\tID = %s", e.Count, e.Biotype, e.Example))
	}
	return append(lines, "\n")
}

// AnalyzeFile parses a GFF3 file (optionally compressed) and renders its
// report section, headed by the file's base name.
func AnalyzeFile(path string) ([]string, error) {
	p, err := gff3.NewParser(path)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	return Analyze(filepath.Base(path), p)
}
