package gff3

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/biogo/biogo/seq"

	"github.com/inodb/manifest-stats/internal/input"
)

// Parser reads GFF3 records from a stream.
//
// Features are buffered until a "###" directive or the end of the annotation
// section, at which point Parent references are resolved and one Record per
// sequence is emitted in first-seen order.
type Parser struct {
	scanner    *bufio.Scanner
	closer     io.Closer
	lineNumber int
	pending    []*Record
	done       bool
}

// NewParser opens a GFF3 file. Files ending in .gz or .xz are decompressed.
func NewParser(path string) (*Parser, error) {
	in, err := input.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open GFF3 file: %w", err)
	}
	p := NewParserFromReader(in)
	p.closer = in
	return p, nil
}

// NewParserFromReader creates a parser over r. The caller owns r.
func NewParserFromReader(r io.Reader) *Parser {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 16*1024*1024)
	return &Parser{scanner: scanner}
}

// Close releases the underlying file, if the parser opened one.
func (p *Parser) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

// LineNumber returns the number of lines read so far.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Next returns the next record.
// Returns nil, nil when there are no more records.
func (p *Parser) Next() (*Record, error) {
	for len(p.pending) == 0 {
		if p.done {
			return nil, nil
		}
		records, err := p.readWindow()
		if err != nil {
			p.done = true
			return nil, err
		}
		p.pending = records
	}

	rec := p.pending[0]
	p.pending = p.pending[1:]
	return rec, nil
}

// readWindow reads lines up to the next "###" barrier or the end of the
// annotation section and assembles them into records.
func (p *Parser) readWindow() ([]*Record, error) {
	w := newWindow()

	for p.scanner.Scan() {
		p.lineNumber++
		line := strings.TrimRight(p.scanner.Text(), "\r")

		switch {
		case strings.TrimSpace(line) == "":
			continue
		case line == "###":
			return w.records(), nil
		case strings.HasPrefix(line, "##FASTA"), strings.HasPrefix(line, ">"):
			p.done = true
			return w.records(), nil
		case strings.HasPrefix(line, "#"):
			continue
		}

		feat, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", p.lineNumber, err)
		}
		w.add(feat)
	}

	if err := p.scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan GFF3: %w", err)
	}

	p.done = true
	return w.records(), nil
}

// window accumulates the features between two flush points.
type window struct {
	features []*Feature
	byID     map[string]*Feature
}

func newWindow() *window {
	return &window{byID: make(map[string]*Feature)}
}

// add appends a feature. A line repeating an ID already seen on the same
// sequence extends that feature instead of creating a new one.
func (w *window) add(f *Feature) {
	if f.ID != "" {
		if prev, ok := w.byID[f.ID]; ok && prev.SeqID == f.SeqID {
			prev.Start = min(prev.Start, f.Start)
			prev.End = max(prev.End, f.End)
			for _, parent := range f.Parents() {
				if !slices.Contains(prev.Parents(), parent) {
					prev.Attributes["Parent"] = append(prev.Attributes["Parent"], parent)
				}
			}
			return
		}
		w.byID[f.ID] = f
	}
	w.features = append(w.features, f)
}

// records links children to parents and groups the remaining top-level
// features by sequence.
func (w *window) records() []*Record {
	var records []*Record
	bySeq := make(map[string]*Record)

	for _, f := range w.features {
		rec, ok := bySeq[f.SeqID]
		if !ok {
			rec = &Record{SeqID: f.SeqID}
			bySeq[f.SeqID] = rec
			records = append(records, rec)
		}

		attached := false
		for _, parentID := range f.Parents() {
			if parent, ok := w.byID[parentID]; ok && parent != f {
				parent.Children = append(parent.Children, f)
				attached = true
			}
		}
		if !attached {
			rec.Features = append(rec.Features, f)
		}
	}

	return records
}

// parseLine parses a single GFF3 feature line.
func parseLine(line string) (*Feature, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != numFields {
		return nil, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformed, numFields, len(fields))
	}

	start, err := strconv.ParseInt(fields[fieldStart], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: parse start: %v", ErrMalformed, err)
	}
	end, err := strconv.ParseInt(fields[fieldEnd], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: parse end: %v", ErrMalformed, err)
	}

	strand, err := parseStrand(fields[fieldStrand])
	if err != nil {
		return nil, err
	}

	attrs := parseAttributes(fields[fieldAttributes])

	f := &Feature{
		SeqID:      unescape(fields[fieldSeqID]),
		Source:     fields[fieldSource],
		Type:       unescape(fields[fieldType]),
		Start:      start,
		End:        end,
		Score:      fields[fieldScore],
		Strand:     strand,
		Phase:      fields[fieldPhase],
		Attributes: attrs,
	}
	f.ID = f.Attribute("ID")

	return f, nil
}

// parseStrand converts the strand column.
func parseStrand(s string) (seq.Strand, error) {
	switch s {
	case "+":
		return seq.Plus, nil
	case "-":
		return seq.Minus, nil
	case ".", "?":
		return seq.None, nil
	}
	return seq.None, fmt.Errorf("%w: invalid strand %q", ErrMalformed, s)
}

// parseAttributes parses the GFF3 attribute column.
// Format: key=value1,value2;key=value
func parseAttributes(attrStr string) map[string][]string {
	attrs := make(map[string][]string)
	if attrStr == "." {
		return attrs
	}

	for _, part := range strings.Split(attrStr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		key, value, ok := strings.Cut(part, "=")
		if !ok {
			// Tolerate bare tags.
			attrs[unescape(key)] = nil
			continue
		}

		var values []string
		for _, v := range strings.Split(value, ",") {
			values = append(values, unescape(v))
		}
		attrs[unescape(key)] = values
	}

	return attrs
}

// unescape decodes GFF3 percent-encoding, leaving invalid escapes as is.
func unescape(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	if u, err := url.PathUnescape(s); err == nil {
		return u
	}
	return s
}
