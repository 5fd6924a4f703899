package arena

import (
	"time"

	"github.com/vovakirdan/chess-arena/internal/player"
)

var zeroTime time.Time

// concludeGame moves a game to its terminal state: stops the clocks,
// cancels every play timer, forces the draw-offer slots to declined and
// arms the deletion grace. The conclusion is monotonic; a second call
// is a no-op. Messaging is the caller's responsibility. Callers hold
// m.mu.
func (m *Manager) concludeGame(g *Game, c Conclusion) {
	if !g.Active() || c == ConclusionNone {
		return
	}
	m.stopClocks(g)
	g.Conclusion = c
	g.cancelPlayTimers()

	for _, seat := range []player.Color{player.White, player.Black} {
		if g.drawOffer[seat] != OfferNone {
			g.drawOffer[seat] = OfferDeclined
		}
	}

	m.armDeletionTimer(g)
	m.logger.Info("game concluded", "game", g.ID, "conclusion", string(c), "moves", len(g.Moves))
}

// armDeletionTimer schedules archival and removal, giving both clients
// a grace window to observe the conclusion first.
func (m *Manager) armDeletionTimer(g *Game) {
	g.deletionTimer.cancel()
	var gt *gameTimer
	gt = m.schedule(m.cfg.DeletionGrace, func() {
		if m.games[g.ID] != g || g.deletionTimer != gt {
			return
		}
		m.removeGame(g)
	})
	g.deletionTimer = gt
}
