// Package archive persists completed games: a two-line append-only game
// log (metadata + ICN transcript), a SQLite index for queries, and the
// aggregate stats file. A sink failure never blocks game removal.
package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/chess-arena/internal/arena"
	"github.com/vovakirdan/chess-arena/internal/icn"
)

// icnUnavailable is written in place of the transcript when the move
// list cannot be rendered. The metadata line is still preserved.
const icnUnavailable = "ICN UNAVAILABLE"

// Sink writes each completed game as two lines of the game log and
// fans the record out to the optional index and stats collectors.
type Sink struct {
	logger *log.Logger
	store  *Store
	stats  *Stats

	mu   sync.Mutex
	file *os.File
}

// NewSink opens (or creates) the append-only game log. store and stats
// may be nil.
func NewSink(logPath string, store *Store, stats *Stats, logger *log.Logger) (*Sink, error) {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "archive"})
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, fmt.Errorf("archive: cannot create log directory: %w", err)
	}
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("archive: cannot open game log: %w", err)
	}
	return &Sink{logger: logger, store: store, stats: stats, file: f}, nil
}

// Close flushes and closes the game log.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// ArchiveGame implements arena.Archiver. Games without a single move
// are dropped: nothing happened worth keeping.
func (s *Sink) ArchiveGame(rec arena.ArchiveRecord) error {
	if len(rec.Moves) == 0 {
		s.logger.Debug("skipping moveless game", "game", rec.ID)
		return nil
	}

	meta, err := metadataLine(rec)
	if err != nil {
		return fmt.Errorf("archive: cannot encode metadata for %s: %w", rec.ID, err)
	}
	transcript := transcriptLine(rec)
	if transcript == icnUnavailable {
		s.logger.Error("transcript rendering failed", "game", rec.ID)
	}

	s.mu.Lock()
	if s.file == nil {
		s.mu.Unlock()
		return fmt.Errorf("archive: game log already closed")
	}
	_, err = fmt.Fprintf(s.file, "%s\n%s\n", meta, transcript)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("archive: cannot append to game log: %w", err)
	}

	// Index and stats failures are logged, never propagated: the log
	// line above is the durable record.
	if s.store != nil {
		if err := s.store.SaveGame(rec, transcript); err != nil {
			s.logger.Error("index write failed", "game", rec.ID, "error", err)
		}
	}
	if s.stats != nil {
		if err := s.stats.Record(rec.Variant, len(rec.Moves), rec.ConcludedAt); err != nil {
			s.logger.Error("stats update failed", "game", rec.ID, "error", err)
		}
	}
	return nil
}

// metadataLine renders the first of the two log lines.
func metadataLine(rec arena.ArchiveRecord) (string, error) {
	payload := struct {
		ID          string `json:"id"`
		Publicity   string `json:"publicity"`
		Rated       bool   `json:"rated"`
		ClockWhite  int64  `json:"clockWhite,omitempty"`
		ClockBlack  int64  `json:"clockBlack,omitempty"`
		Pasted      bool   `json:"positionPasted,omitempty"`
		ConcludedAt string `json:"concludedAt"`
	}{
		ID:          rec.ID,
		Publicity:   string(rec.Publicity),
		Rated:       rec.Rated,
		ConcludedAt: rec.ConcludedAt.UTC().Format(time.RFC3339),
		Pasted:      rec.PositionPasted,
	}
	if rec.Timed {
		payload.ClockWhite = rec.ClockWhite.Milliseconds()
		payload.ClockBlack = rec.ClockBlack.Milliseconds()
	}
	blob, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Players: White=%q Black=%q Game=%s", rec.White, rec.Black, blob), nil
}

// transcriptLine renders the ICN transcript flattened to a single line,
// or the sentinel when the moves cannot be parsed back.
func transcriptLine(rec arena.ArchiveRecord) string {
	doc := &icn.Document{
		Headers: []icn.Header{
			{Key: "Event", Value: eventName(rec)},
			{Key: "Site", Value: "chess-arena"},
			{Key: "Round", Value: "-"},
			{Key: "Variant", Value: rec.Variant},
			{Key: "White", Value: rec.White},
			{Key: "Black", Value: rec.Black},
			{Key: "TimeControl", Value: rec.TimeControl},
			{Key: "UTCDate", Value: rec.ConcludedAt.UTC().Format("2006.01.02")},
			{Key: "UTCTime", Value: rec.ConcludedAt.UTC().Format("15:04:05")},
			{Key: "Result", Value: Result(rec.Conclusion)},
			{Key: "Termination", Value: TerminationLabel(rec.Conclusion)},
		},
		WhiteToMove: !rec.BlackMovesFirst,
		FullMove:    1,
	}
	for _, raw := range rec.Moves {
		mv, err := icn.ParseMove(raw)
		if err != nil {
			return icnUnavailable
		}
		doc.Moves = append(doc.Moves, mv)
	}
	text, err := icn.Serialize(doc, icn.SerializeOptions{CompactMoves: true})
	if err != nil {
		return icnUnavailable
	}
	return strings.Join(strings.Fields(text), " ")
}

func eventName(rec arena.ArchiveRecord) string {
	kind := "Casual"
	if rec.Rated {
		kind = "Rated"
	}
	return fmt.Sprintf("%s %s infinite chess game", kind, rec.Variant)
}

// Result maps a conclusion to the conventional result tag.
func Result(c arena.Conclusion) string {
	switch c.Winner() {
	case "white":
		return "1-0"
	case "black":
		return "0-1"
	case "draw":
		return "1/2-1/2"
	}
	return "0-0"
}

// terminationLabels maps conclusion terminations to the human labels
// the game log carries.
var terminationLabels = map[string]string{
	"checkmate":         "Checkmate",
	"stalemate":         "Stalemate",
	"repetition":        "Threefold repetition",
	"moverule":          "Move rule",
	"insuffmat":         "Insufficient material",
	"royalcapture":      "Royal capture",
	"allroyalscaptured": "All royals captured",
	"allpiecescaptured": "All pieces captured",
	"threecheck":        "Three checks",
	"koth":              "King of the hill",
	"time":              "Time forfeit",
	"resignation":       "Resignation",
	"disconnect":        "Abandoned",
	"agreement":         "Draw agreement",
	"aborted":           "Aborted",
}

// TerminationLabel maps a conclusion to the termination header value.
func TerminationLabel(c arena.Conclusion) string {
	if label, ok := terminationLabels[c.Termination()]; ok {
		return label
	}
	return c.Termination()
}
