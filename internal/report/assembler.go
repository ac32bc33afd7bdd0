// Package report assembles the stats.txt report for a genome import manifest.
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/inodb/manifest-stats/internal/biotype"
	"github.com/inodb/manifest-stats/internal/duckdb"
	"github.com/inodb/manifest-stats/internal/manifest"
	"github.com/inodb/manifest-stats/internal/seqregion"
)

// FileName is the name of the report written next to the manifest.
const FileName = "stats.txt"

// ErrNoManifest is returned when no manifest path is given.
var ErrNoManifest = errors.New("manifest path is required")

// SectionCache stores rendered sections keyed by input content.
type SectionCache interface {
	LookupSection(dataset string, fp duckdb.FileFingerprint) ([]string, bool, error)
	WriteSection(dataset string, fp duckdb.FileFingerprint, lines []string) error
}

// analyzer renders the report section for one input file.
type analyzer func(path string) ([]string, error)

// sections lists the datasets in report order.
var sections = []struct {
	dataset string
	analyze analyzer
}{
	{manifest.GFF3, biotype.AnalyzeFile},
	{manifest.SeqRegion, seqregion.AnalyzeFile},
}

// Assembler builds and writes stats reports.
type Assembler struct {
	cache  SectionCache
	logger *zap.Logger
}

// NewAssembler creates an assembler without a section cache.
func NewAssembler() *Assembler {
	return &Assembler{logger: zap.NewNop()}
}

// SetCache enables caching of rendered sections.
func (a *Assembler) SetCache(c SectionCache) {
	a.cache = c
}

// SetLogger sets the logger for debug messages.
func (a *Assembler) SetLogger(l *zap.Logger) {
	a.logger = l
}

// OutputPath returns the report path for a manifest.
func OutputPath(manifestPath string) string {
	return filepath.Join(filepath.Dir(manifestPath), FileName)
}

// Run resolves the manifest, computes the stats of its gff3 and seq_region
// datasets, and writes them to stats.txt in the manifest's directory.
// It returns the path written.
func (a *Assembler) Run(manifestPath string) (string, error) {
	if manifestPath == "" {
		return "", ErrNoManifest
	}

	m, err := manifest.Load(manifestPath)
	if err != nil {
		return "", err
	}
	a.logger.Debug("resolved manifest",
		zap.String("path", manifestPath),
		zap.Strings("datasets", m.Names()))

	lines, err := a.Build(m)
	if err != nil {
		return "", err
	}

	outPath := OutputPath(manifestPath)
	if err := writeFile(outPath, strings.Join(lines, "\n")); err != nil {
		return "", err
	}
	return outPath, nil
}

// Build returns the report lines for the datasets present in the manifest.
func (a *Assembler) Build(m *manifest.Manifest) ([]string, error) {
	var lines []string
	for _, s := range sections {
		path, ok, err := m.File(s.dataset)
		if err != nil {
			return nil, err
		}
		if !ok {
			a.logger.Debug("dataset not in manifest", zap.String("dataset", s.dataset))
			continue
		}

		section, err := a.section(s.dataset, path, s.analyze)
		if err != nil {
			return nil, fmt.Errorf("%s stats: %w", s.dataset, err)
		}
		lines = append(lines, section...)
	}
	return lines, nil
}

// section runs an analyzer, consulting the cache first when one is set.
func (a *Assembler) section(dataset, path string, analyze analyzer) ([]string, error) {
	if a.cache == nil {
		a.logger.Debug("computing stats", zap.String("dataset", dataset), zap.String("path", path))
		return analyze(path)
	}

	fp, err := duckdb.FingerprintFile(path)
	if err != nil {
		return nil, fmt.Errorf("fingerprint input: %w", err)
	}

	log := a.logger.With(
		zap.String("dataset", dataset),
		zap.String("path", path),
		zap.String("size", humanize.Bytes(uint64(fp.Size))),
		zap.String("digest", fp.Digest))

	if lines, ok, err := a.cache.LookupSection(dataset, fp); err != nil {
		log.Warn("section cache lookup failed", zap.Error(err))
	} else if ok {
		log.Debug("section cache hit")
		return lines, nil
	}

	log.Debug("computing stats")
	lines, err := analyze(path)
	if err != nil {
		return nil, err
	}

	if err := a.cache.WriteSection(dataset, fp, lines); err != nil {
		log.Warn("section cache write failed", zap.Error(err))
	}
	return lines, nil
}

// writeFile replaces path with content. The content goes to a temporary
// sibling first so a failed write leaves any previous report in place.
func writeFile(path, content string) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(content), 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename report: %w", err)
	}
	return nil
}
