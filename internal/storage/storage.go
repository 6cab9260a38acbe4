// Package storage persists daily pick archives and result files as JSON
// under the data directory.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/konradsoares/UK-GB-IE-daily-horseracing-picks/internal/model"
)

// ErrNoArchive reports that no picks archive exists for the requested
// date. Callers treat it as "nothing to do", not a failure.
var ErrNoArchive = errors.New("no picks archive for date")

// Archive is one day's harvested races with their shortlists. Result
// reconciliation later merges {result, hit} into each race in place.
type Archive struct {
	Date  string       `json:"date"`
	Races []model.Race `json:"races"`
}

// ResultsFile is one day's reconciliation output.
type ResultsFile struct {
	Date    string               `json:"date"`
	Results []model.ResultRecord `json:"results"`
}

// Store reads and writes the JSON files under a data directory.
type Store struct {
	dataDir string
}

// New creates the store, expanding a leading ~ and creating the data
// directory if needed.
func New(dataDir string) (*Store, error) {
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	return &Store{dataDir: dataDir}, nil
}

func (s *Store) picksPath(date string) string {
	return filepath.Join(s.dataDir, fmt.Sprintf("picks_%s.json", date))
}

func (s *Store) resultsPath(date string) string {
	return filepath.Join(s.dataDir, fmt.Sprintf("results_%s.json", date))
}

// SavePicks writes the day's archive and overwrites latest.json with the
// same content. The latest snapshot is an idempotent overwrite keyed by
// date: re-running the same day produces the same file.
func (s *Store) SavePicks(archive *Archive) error {
	if err := writeJSON(s.picksPath(archive.Date), archive); err != nil {
		return err
	}
	return writeJSON(filepath.Join(s.dataDir, "latest.json"), archive)
}

// LoadPicks reads the archive for a date. A missing file returns
// ErrNoArchive; a present but unreadable file is an error.
func (s *Store) LoadPicks(date string) (*Archive, error) {
	data, err := os.ReadFile(s.picksPath(date))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoArchive, date)
		}
		return nil, fmt.Errorf("read picks archive: %w", err)
	}

	var archive Archive
	if err := json.Unmarshal(data, &archive); err != nil {
		return nil, fmt.Errorf("parse picks archive %s: %w", date, err)
	}
	return &archive, nil
}

// UpdatePicks rewrites an existing archive in place, after result
// reconciliation merged outcomes into its races.
func (s *Store) UpdatePicks(archive *Archive) error {
	return writeJSON(s.picksPath(archive.Date), archive)
}

// SaveResults writes the day's reconciliation output.
func (s *Store) SaveResults(results *ResultsFile) error {
	return writeJSON(s.resultsPath(results.Date), results)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
