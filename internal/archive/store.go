package archive

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/chess-arena/internal/arena"
)

// Store is the SQLite index of archived games. The append-only game log
// is the durable record; the index exists so completed games can be
// queried without scanning it.
type Store struct {
	db *sql.DB
}

// IndexEntry is one archived game as read back from the index.
type IndexEntry struct {
	ID          int64
	GameID      string
	Variant     string
	White       string
	Black       string
	Rated       bool
	TimeControl string
	Result      string
	Termination string
	MoveCount   int
	ICN         string
	ConcludedAt time.Time
}

// OpenStore creates or opens the index database at the given path,
// creating parent directories and running migrations.
func OpenStore(dbPath string) (*Store, error) {
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("archive: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("archive: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("archive: cannot open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: migration failed: %w", err)
	}
	return store, nil
}

// migrate creates the schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS archived_games (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			game_id TEXT NOT NULL UNIQUE,
			variant TEXT NOT NULL,
			white TEXT NOT NULL,
			black TEXT NOT NULL,
			rated INTEGER NOT NULL DEFAULT 0,
			time_control TEXT NOT NULL,
			result TEXT NOT NULL,
			termination TEXT NOT NULL,
			move_count INTEGER NOT NULL DEFAULT 0,
			icn TEXT NOT NULL,
			concluded_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_archived_games_variant ON archived_games(variant);
		CREATE INDEX IF NOT EXISTS idx_archived_games_concluded ON archived_games(concluded_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveGame indexes one archived game with its rendered transcript.
func (s *Store) SaveGame(rec arena.ArchiveRecord, transcript string) error {
	_, err := s.db.Exec(
		`INSERT INTO archived_games
		 (game_id, variant, white, black, rated, time_control, result, termination, move_count, icn, concluded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Variant,
		rec.White,
		rec.Black,
		rec.Rated,
		rec.TimeControl,
		Result(rec.Conclusion),
		TerminationLabel(rec.Conclusion),
		len(rec.Moves),
		transcript,
		rec.ConcludedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("archive: cannot index game %s: %w", rec.ID, err)
	}
	return nil
}

// RecentGames retrieves the most recently archived games.
func (s *Store) RecentGames(limit int) ([]IndexEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, game_id, variant, white, black, rated, time_control,
		        result, termination, move_count, icn, concluded_at
		 FROM archived_games
		 ORDER BY concluded_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("archive: cannot query recent games: %w", err)
	}
	defer rows.Close()

	var entries []IndexEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("archive: row iteration error: %w", err)
	}
	return entries, nil
}

// GameByID retrieves one archived game, nil when absent.
func (s *Store) GameByID(gameID string) (*IndexEntry, error) {
	row := s.db.QueryRow(
		`SELECT id, game_id, variant, white, black, rated, time_control,
		        result, termination, move_count, icn, concluded_at
		 FROM archived_games
		 WHERE game_id = ?`,
		gameID,
	)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// VariantCounts aggregates archived games per variant.
func (s *Store) VariantCounts() (map[string]int, error) {
	rows, err := s.db.Query(
		`SELECT variant, COUNT(*) FROM archived_games GROUP BY variant`,
	)
	if err != nil {
		return nil, fmt.Errorf("archive: cannot aggregate variants: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var variant string
		var n int
		if err := rows.Scan(&variant, &n); err != nil {
			return nil, fmt.Errorf("archive: cannot scan row: %w", err)
		}
		counts[variant] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("archive: row iteration error: %w", err)
	}
	return counts, nil
}

// TotalGames returns the number of archived games and moves.
func (s *Store) TotalGames() (games int, moves int64, err error) {
	err = s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(move_count), 0) FROM archived_games`,
	).Scan(&games, &moves)
	if err != nil {
		return 0, 0, fmt.Errorf("archive: cannot count games: %w", err)
	}
	return games, moves, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (IndexEntry, error) {
	var e IndexEntry
	var concludedAt any
	if err := row.Scan(
		&e.ID,
		&e.GameID,
		&e.Variant,
		&e.White,
		&e.Black,
		&e.Rated,
		&e.TimeControl,
		&e.Result,
		&e.Termination,
		&e.MoveCount,
		&e.ICN,
		&concludedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return IndexEntry{}, err
		}
		return IndexEntry{}, fmt.Errorf("archive: cannot scan row: %w", err)
	}

	// Parse the datetime - handle both time.Time and string
	switch v := concludedAt.(type) {
	case time.Time:
		e.ConcludedAt = v
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
			e.ConcludedAt = parsed
		} else if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			e.ConcludedAt = parsed
		}
	}
	return e, nil
}
