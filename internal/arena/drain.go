package arena

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/chess-arena/internal/player"
)

// BroadcastShutdownWindow announces an upcoming restart to every seated
// player. A zero restartAt clears a previously announced window. The
// deadline also rides along on every subsequent game projection.
func (m *Manager) BroadcastShutdownWindow(restartAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.restartAt.Equal(restartAt) {
		return
	}
	m.restartAt = restartAt

	var value any
	if !restartAt.IsZero() {
		value = map[string]int64{"serverRestartingAt": unixMs(restartAt)}
	}
	for _, g := range m.games {
		for _, c := range []player.Color{player.White, player.Black} {
			m.sendGame(g.endpoints[c], sendServerRestart, value, "")
		}
	}
	m.logger.Info("restart window broadcast", "restartAt", restartAt, "games", len(m.games))
}

// DrainAndArchive is the shutdown path: every active game is aborted
// and both seats told, every deletion timer cancelled, the registry and
// player index cleared, and the collected records handed to the sink in
// parallel. Blocks until archival finishes or ctx is cancelled.
func (m *Manager) DrainAndArchive(ctx context.Context) error {
	m.mu.Lock()
	records := make([]ArchiveRecord, 0, len(m.games))
	for _, g := range m.games {
		if g.Active() {
			m.concludeGame(g, ConclusionAborted)
			m.broadcastGameUpdate(g)
		}
		g.deletionTimer.cancel()
		g.deletionTimer = nil
		records = append(records, m.archiveRecord(g))
	}
	m.games = make(map[string]*Game)
	m.memberGames = make(map[int64]string)
	m.guestGames = make(map[string]string)
	m.mu.Unlock()

	m.logger.Info("draining games", "count", len(records))
	if m.archiver == nil {
		return nil
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(8)
	for _, rec := range records {
		rec := rec
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := m.archiver.ArchiveGame(rec); err != nil {
				m.logger.Error("archive failed during drain", "game", rec.ID, "error", err)
			}
			return nil
		})
	}
	return eg.Wait()
}
