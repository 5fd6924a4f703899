package archive

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/chess-arena/internal/arena"
)

func testRecord() arena.ArchiveRecord {
	return arena.ArchiveRecord{
		ID:          "abc12",
		CreatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		ConcludedAt: time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC),
		Publicity:   arena.Public,
		Variant:     "Classical",
		Rated:       false,
		TimeControl: "600+4",
		White:       "Alice",
		Black:       "Bob",
		Moves:       []string{"4,2>4,4", "4,7>4,5", "4,1>4,3"},
		Conclusion:  arena.Conclusion("white checkmate"),
		ClockWhite:  500 * time.Second,
		ClockBlack:  480 * time.Second,
		Timed:       true,
	}
}

func newTestSink(t *testing.T, store *Store, stats *Stats) (*Sink, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gamelog.txt")
	sink, err := NewSink(path, store, stats, log.New(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { sink.Close() })
	return sink, path
}

func TestSinkWritesTwoLinesPerGame(t *testing.T) {
	sink, path := newTestSink(t, nil, nil)

	require.NoError(t, sink.ArchiveGame(testRecord()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, 2)

	assert.Contains(t, lines[0], `White="Alice"`)
	assert.Contains(t, lines[0], `Black="Bob"`)
	assert.Contains(t, lines[0], `"id":"abc12"`)
	assert.Contains(t, lines[0], `"publicity":"public"`)

	assert.Contains(t, lines[1], "[Result: 1-0]")
	assert.Contains(t, lines[1], "[Termination: Checkmate]")
	assert.Contains(t, lines[1], "[TimeControl: 600+4]")
	assert.Contains(t, lines[1], "4,2>4,4 4,7>4,5 4,1>4,3")
	assert.NotContains(t, lines[1], "\n")
}

func TestTranscriptTurnIndicatorFollowsVariant(t *testing.T) {
	sink, path := newTestSink(t, nil, nil)

	first := testRecord()
	second := testRecord()
	second.ID = "def34"
	second.BlackMovesFirst = true
	require.NoError(t, sink.ArchiveGame(first))
	require.NoError(t, sink.ArchiveGame(second))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "] w 1 ")
	assert.Contains(t, lines[3], "] b 1 ")
}

func TestSinkSkipsMovelessGames(t *testing.T) {
	sink, path := newTestSink(t, nil, nil)

	rec := testRecord()
	rec.Moves = nil
	rec.Conclusion = arena.ConclusionAborted
	require.NoError(t, sink.ArchiveGame(rec))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestSinkSentinelOnBadMoves(t *testing.T) {
	sink, path := newTestSink(t, nil, nil)

	rec := testRecord()
	rec.Moves = []string{"not-a-move"}
	require.NoError(t, sink.ArchiveGame(rec))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "ICN UNAVAILABLE", lines[1])
}

func TestResultMapping(t *testing.T) {
	cases := []struct {
		conclusion  string
		result      string
		termination string
	}{
		{"white checkmate", "1-0", "Checkmate"},
		{"black time", "0-1", "Time forfeit"},
		{"white resignation", "1-0", "Resignation"},
		{"black disconnect", "0-1", "Abandoned"},
		{"draw agreement", "1/2-1/2", "Draw agreement"},
		{"draw stalemate", "1/2-1/2", "Stalemate"},
		{"aborted", "0-0", "Aborted"},
	}
	for _, tc := range cases {
		c := arena.Conclusion(tc.conclusion)
		assert.Equal(t, tc.result, Result(c), tc.conclusion)
		assert.Equal(t, tc.termination, TerminationLabel(c), tc.conclusion)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	rec := testRecord()
	require.NoError(t, store.SaveGame(rec, "transcript"))

	entry, err := store.GameByID(rec.ID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "Classical", entry.Variant)
	assert.Equal(t, "Alice", entry.White)
	assert.Equal(t, "1-0", entry.Result)
	assert.Equal(t, "Checkmate", entry.Termination)
	assert.Equal(t, 3, entry.MoveCount)
	assert.Equal(t, "transcript", entry.ICN)

	missing, err := store.GameByID("zzzzz")
	require.NoError(t, err)
	assert.Nil(t, missing)

	recent, err := store.RecentGames(10)
	require.NoError(t, err)
	require.Len(t, recent, 1)

	games, moves, err := store.TotalGames()
	require.NoError(t, err)
	assert.Equal(t, 1, games)
	assert.Equal(t, int64(3), moves)

	counts, err := store.VariantCounts()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Classical": 1}, counts)
}

func TestStoreRejectsDuplicateGame(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	rec := testRecord()
	require.NoError(t, store.SaveGame(rec, "one"))
	assert.Error(t, store.SaveGame(rec, "two"))
}

func TestStatsAccumulate(t *testing.T) {
	stats := NewStats(filepath.Join(t.TempDir(), "stats.json"))
	when := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, stats.Record("Classical", 40, when))
	require.NoError(t, stats.Record("Classical", 10, when))
	require.NoError(t, stats.Record("Core", 5, when.AddDate(0, 1, 0)))

	doc, err := stats.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, int64(3), doc.GamesPlayed.AllTime)
	assert.Equal(t, int64(2), doc.GamesPlayed.ByDay["2025-06-01"])
	assert.Equal(t, int64(2), doc.GamesPlayed.ByMonth["2025-06"])
	assert.Equal(t, int64(1), doc.GamesPlayed.ByMonth["2025-07"])
	assert.Equal(t, int64(55), doc.MoveCount["all"])
	assert.Equal(t, int64(50), doc.MoveCount["Classical"])
	assert.Equal(t, int64(5), doc.MoveCount["Core"])
	assert.Equal(t, int64(50), doc.MoveCount["2025-06"])
}

func TestSinkFeedsStoreAndStats(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	stats := NewStats(filepath.Join(t.TempDir(), "stats.json"))
	sink, _ := newTestSink(t, store, stats)

	require.NoError(t, sink.ArchiveGame(testRecord()))

	games, moves, err := store.TotalGames()
	require.NoError(t, err)
	assert.Equal(t, 1, games)
	assert.Equal(t, int64(3), moves)

	doc, err := stats.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, int64(1), doc.GamesPlayed.AllTime)
}
