package duckdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func fingerprint(t *testing.T, name, content string) FileFingerprint {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	fp, err := FingerprintFile(path)
	require.NoError(t, err)
	return fp
}

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	assert.NotNil(t, s.DB())
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.duckdb")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestFingerprintFile(t *testing.T) {
	a := fingerprint(t, "seq_region.json", "[]")
	b := fingerprint(t, "seq_region.json", "[]")
	c := fingerprint(t, "seq_region.json", "[{}]")

	assert.Equal(t, "seq_region.json", a.Source())
	assert.Equal(t, int64(2), a.Size)
	assert.Len(t, a.Digest, 64)
	assert.Equal(t, a.Digest, b.Digest)
	assert.NotEqual(t, a.Digest, c.Digest)

	_, err := FingerprintFile(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteAndLookupSection(t *testing.T) {
	s := openInMemory(t)
	fp := fingerprint(t, "genes.gff3", "chr1\t.\tgene\t1\t2\t.\t+\t.\tID=g1\n")

	lines := []string{"genes.gff3", "        1\t                gene\tID = g1", "\n"}
	require.NoError(t, s.WriteSection("gff3", fp, lines))

	got, ok, err := s.LookupSection("gff3", fp)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, lines, got)

	_, ok, err = s.LookupSection("seq_region", fp)
	require.NoError(t, err)
	assert.False(t, ok, "dataset is part of the key")
}

func TestLookupSection_DigestMismatch(t *testing.T) {
	s := openInMemory(t)
	before := fingerprint(t, "genes.gff3", "one")
	after := fingerprint(t, "genes.gff3", "two")

	require.NoError(t, s.WriteSection("gff3", before, []string{"genes.gff3", "\n"}))

	_, ok, err := s.LookupSection("gff3", after)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWriteSection_Replaces(t *testing.T) {
	s := openInMemory(t)
	fp := fingerprint(t, "genes.gff3", "x")

	require.NoError(t, s.WriteSection("gff3", fp, []string{"old"}))
	require.NoError(t, s.WriteSection("gff3", fp, []string{"new"}))

	n, err := s.SectionCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, ok, err := s.LookupSection("gff3", fp)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"new"}, got)
}

func TestClearSections(t *testing.T) {
	s := openInMemory(t)
	fp := fingerprint(t, "genes.gff3", "x")
	require.NoError(t, s.WriteSection("gff3", fp, []string{"a"}))

	require.NoError(t, s.ClearSections())

	n, err := s.SectionCount()
	require.NoError(t, err)
	assert.Zero(t, n)
}
