package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Stats maintains the aggregate counters file. Updates read, modify and
// atomically replace the whole document; the process-level lock keeps
// concurrent archivals from losing increments.
type Stats struct {
	mu   sync.Mutex
	path string
}

// StatsDocument is the on-disk shape of the counters file.
type StatsDocument struct {
	GamesPlayed GamesPlayedCounters `json:"gamesPlayed"`
	MoveCount   map[string]int64    `json:"moveCount"`
}

// GamesPlayedCounters buckets the archived-game count by calendar day
// and month alongside the running total.
type GamesPlayedCounters struct {
	ByDay   map[string]int64 `json:"byDay"`
	ByMonth map[string]int64 `json:"byMonth"`
	AllTime int64            `json:"allTime"`
}

// NewStats points the collector at the counters file; the file is
// created on first update.
func NewStats(path string) *Stats {
	return &Stats{path: path}
}

// Record counts one archived game and its moves under the day, month
// and variant buckets.
func (s *Stats) Record(variant string, moveCount int, when time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	day := when.UTC().Format("2006-01-02")
	month := when.UTC().Format("2006-01")
	doc.GamesPlayed.ByDay[day]++
	doc.GamesPlayed.ByMonth[month]++
	doc.GamesPlayed.AllTime++
	doc.MoveCount["all"] += int64(moveCount)
	if variant != "" {
		doc.MoveCount[variant] += int64(moveCount)
	}
	doc.MoveCount[month] += int64(moveCount)

	return s.save(doc)
}

// Snapshot returns the current counters, zero-valued when the file does
// not exist yet.
func (s *Stats) Snapshot() (StatsDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return StatsDocument{}, err
	}
	return *doc, nil
}

func (s *Stats) load() (*StatsDocument, error) {
	doc := &StatsDocument{
		GamesPlayed: GamesPlayedCounters{
			ByDay:   make(map[string]int64),
			ByMonth: make(map[string]int64),
		},
		MoveCount: make(map[string]int64),
	}
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("archive: cannot read stats file: %w", err)
	}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("archive: corrupt stats file %s: %w", s.path, err)
	}
	if doc.GamesPlayed.ByDay == nil {
		doc.GamesPlayed.ByDay = make(map[string]int64)
	}
	if doc.GamesPlayed.ByMonth == nil {
		doc.GamesPlayed.ByMonth = make(map[string]int64)
	}
	if doc.MoveCount == nil {
		doc.MoveCount = make(map[string]int64)
	}
	return doc, nil
}

// save writes the document to a sibling temp file and renames it over
// the old one, so a crash mid-write never leaves a torn file.
func (s *Stats) save(doc *StatsDocument) error {
	blob, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("archive: cannot encode stats: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("archive: cannot create stats directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return fmt.Errorf("archive: cannot write stats file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("archive: cannot replace stats file: %w", err)
	}
	return nil
}
