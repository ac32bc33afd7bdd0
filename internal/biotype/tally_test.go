package biotype

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/manifest-stats/internal/gff3"
)

// sliceSource replays a fixed list of records.
type sliceSource struct {
	records []*gff3.Record
	err     error
}

func (s *sliceSource) Next() (*gff3.Record, error) {
	if len(s.records) == 0 {
		return nil, s.err
	}
	rec := s.records[0]
	s.records = s.records[1:]
	return rec, nil
}

func feat(typ, id string, children ...*gff3.Feature) *gff3.Feature {
	return &gff3.Feature{Type: typ, ID: id, Children: children}
}

func TestTally_SortedAndLastExample(t *testing.T) {
	tally := NewTally()
	tally.AddRecord(&gff3.Record{Features: []*gff3.Feature{
		feat("mRNA", "m1"),
		feat("gene", "g1"),
		feat("mRNA", "m2"),
	}})

	entries := tally.Sorted()
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Biotype: "gene", Count: 1, Example: "g1"}, entries[0])
	assert.Equal(t, Entry{Biotype: "mRNA", Count: 2, Example: "m2"}, entries[1])
}

func TestTally_VisitsThreeLevels(t *testing.T) {
	deep := feat("too_deep", "x")
	rec := &gff3.Record{Features: []*gff3.Feature{
		feat("gene", "g1",
			feat("mRNA", "t1",
				feat("exon", "e1", deep),
				feat("CDS", "c1"),
			),
			feat("mRNA", "t2",
				feat("exon", "e2"),
			),
		),
		feat("pseudogene", ""),
	}}

	tally := NewTally()
	tally.AddRecord(rec)

	assert.Equal(t, 7, tally.Total())

	var sum int
	names := make([]string, 0)
	for _, e := range tally.Sorted() {
		sum += e.Count
		names = append(names, e.Biotype)
	}
	assert.Equal(t, tally.Total(), sum)
	assert.Equal(t, []string{"CDS", "exon", "gene", "mRNA", "pseudogene"}, names)
}

func TestAnalyze_GeneScenario(t *testing.T) {
	src := &sliceSource{records: []*gff3.Record{{
		SeqID:    "chr1",
		Features: []*gff3.Feature{feat("gene", "g1", feat("mRNA", "m1"))},
	}}}

	lines, err := Analyze("genes.gff3", src)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"genes.gff3",
		"        1\t                gene\tID = g1",
		"        1\t                mRNA\tID = m1",
		"\n",
	}, lines)
}

func TestAnalyze_MissingIDRendersEmpty(t *testing.T) {
	src := &sliceSource{records: []*gff3.Record{{
		Features: []*gff3.Feature{feat("region", "")},
	}}}

	lines, err := Analyze("x.gff3", src)
	require.NoError(t, err)
	assert.Equal(t, "        1\t              region\tID = ", lines[1])
}

func TestAnalyze_Error(t *testing.T) {
	boom := errors.New("boom")
	_, err := Analyze("x.gff3", &sliceSource{err: boom})
	assert.ErrorIs(t, err, boom)
}

func TestAnalyzeFile(t *testing.T) {
	content := `##gff-version 3
chr1	ensembl	gene	1	1000	.	+	.	ID=gene:A
chr1	ensembl	mRNA	1	1000	.	+	.	ID=transcript:A1;Parent=gene:A
chr1	ensembl	exon	1	200	.	+	.	ID=exon:A1.1;Parent=transcript:A1
chr1	ensembl	exon	800	1000	.	+	.	ID=exon:A1.2;Parent=transcript:A1
###
chr2	ensembl	gene	1	500	.	-	.	ID=gene:B
chr2	ensembl	lnc_RNA	1	500	.	-	.	ID=transcript:B1;Parent=gene:B
`
	path := filepath.Join(t.TempDir(), "annotation.gff3")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	lines, err := AnalyzeFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"annotation.gff3",
		"        2\t                exon\tID = exon:A1.2",
		"        2\t                gene\tID = gene:B",
		"        1\t             lnc_RNA\tID = transcript:B1",
		"        1\t                mRNA\tID = transcript:A1",
		"\n",
	}, lines)
}

func TestAnalyzeFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.gff3")
	require.NoError(t, os.WriteFile(path, []byte("chr1\tgene\t1\n"), 0644))

	_, err := AnalyzeFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, gff3.ErrMalformed)
}

func TestAnalyzeFile_BadGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.gff3.gz")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", 64)), 0644))

	_, err := AnalyzeFile(path)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, gff3.ErrMalformed)
}
