package duckdb

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// LookupSection returns the cached lines for a dataset computed from a file
// with the given fingerprint. The bool is false on a cache miss.
func (s *Store) LookupSection(dataset string, fp FileFingerprint) ([]string, bool, error) {
	var encoded string
	err := s.db.QueryRow(`SELECT lines FROM section_cache
		WHERE dataset=? AND source=? AND digest=?`,
		dataset, fp.Source(), fp.Digest).Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query section: %w", err)
	}

	var lines []string
	if err := json.Unmarshal([]byte(encoded), &lines); err != nil {
		return nil, false, fmt.Errorf("decode section: %w", err)
	}
	return lines, true, nil
}

// WriteSection stores the rendered lines for a dataset, replacing any entry
// with the same key.
func (s *Store) WriteSection(dataset string, fp FileFingerprint, lines []string) error {
	encoded, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode section: %w", err)
	}

	_, err = s.db.Exec(`INSERT OR REPLACE INTO section_cache
		(dataset, source, digest, size, lines, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		dataset, fp.Source(), fp.Digest, fp.Size, string(encoded), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("write section: %w", err)
	}
	return nil
}

// SectionCount returns the number of cached sections.
func (s *Store) SectionCount() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT count(*) FROM section_cache").Scan(&n); err != nil {
		return 0, fmt.Errorf("count sections: %w", err)
	}
	return n, nil
}

// ClearSections removes all cached sections.
func (s *Store) ClearSections() error {
	_, err := s.db.Exec("DELETE FROM section_cache")
	return err
}
