package arena

import (
	"github.com/vovakirdan/chess-arena/internal/transport"
)

// handleAFK arms the auto-resign timer after the active player declared
// itself away. A disconnect timer already armed for the same seat wins
// (the two are never armed together).
func (m *Manager) handleAFK(ep transport.Endpoint) {
	g, c, ok := m.gameForEndpoint(ep)
	if !ok {
		m.logger.Warn("AFK without a game", "endpoint", ep.ID())
		return
	}
	if !g.Active() || g.whoseTurn != c {
		m.logger.Warn("AFK out of turn", "game", g.ID, "by", c.String())
		return
	}
	if g.disconnect[c].armed() {
		m.logger.Warn("AFK while disconnect timer armed", "game", g.ID, "by", c.String())
		return
	}
	if g.afkTimer != nil {
		return
	}

	g.afkLossAt = m.now().Add(m.cfg.AFKAutoResign)
	var gt *gameTimer
	gt = m.schedule(m.cfg.AFKAutoResign, func() {
		if m.games[g.ID] != g || g.afkTimer != gt || !g.Active() {
			return
		}
		g.afkTimer = nil
		loser := g.whoseTurn
		conclusion := ConclusionAborted
		if g.Resignable() {
			conclusion = Conclusion(loser.Opposite().String() + " disconnect")
		}
		m.concludeGame(g, conclusion)
		m.logger.Info("AFK timer expired", "game", g.ID, "loser", loser.String())
		m.broadcastGameUpdate(g)
	})
	g.afkTimer = gt

	m.sendGame(g.endpoints[c.Opposite()], sendOpponentAFK,
		map[string]int64{"autoAFKResignTime": unixMs(g.afkLossAt)}, "")
}

// handleAFKReturn cancels the AFK timer and tells the opponent.
func (m *Manager) handleAFKReturn(ep transport.Endpoint) {
	g, c, ok := m.gameForEndpoint(ep)
	if !ok {
		m.logger.Warn("AFK-Return without a game", "endpoint", ep.ID())
		return
	}
	if !g.Active() || g.whoseTurn != c || g.afkTimer == nil {
		return
	}
	m.cancelAFK(g)
	m.sendGame(g.endpoints[c.Opposite()], sendOpponentAFKBack, nil, "")
}

func (m *Manager) cancelAFK(g *Game) {
	g.afkTimer.cancel()
	g.afkTimer = nil
	g.afkLossAt = zeroTime
}
