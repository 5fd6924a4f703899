package arena

import (
	"github.com/vovakirdan/chess-arena/internal/player"
	"github.com/vovakirdan/chess-arena/internal/transport"
)

// startDisconnectFlow detaches a closed endpoint from its seat and, if
// the game is still running, begins the disconnect countdown. Callers
// hold m.mu.
func (m *Manager) startDisconnectFlow(ep transport.Endpoint, byChoice bool) {
	g, c, ok := m.gameForEndpoint(ep)
	if !ok {
		return
	}
	// Only the endpoint currently holding the seat may vacate it;
	// a stale duplicate tab closing must not disturb the live one.
	if g.endpoints[c] == nil || g.endpoints[c].ID() != ep.ID() {
		return
	}
	g.endpoints[c] = nil
	if !g.Active() {
		return
	}
	m.startDisconnectForSeat(g, c, byChoice)
}

// startDisconnectForSeat begins the countdown for the vacated seat. A
// deliberate close (tab navigation, bye frame) arms the auto-resign
// timer at once; a dropped connection gets a short grace first, since
// the client is probably about to reconnect.
func (m *Manager) startDisconnectForSeat(g *Game, c player.Color, byChoice bool) {
	d := &g.disconnect[c]
	if d.armed() {
		return
	}
	d.byChoice = byChoice
	if byChoice {
		m.armAutoResign(g, c)
		return
	}
	var gt *gameTimer
	gt = m.schedule(m.cfg.DisconnectGrace, func() {
		if m.games[g.ID] != g || g.disconnect[c].startDelay != gt || !g.Active() {
			return
		}
		g.disconnect[c].startDelay = nil
		m.armAutoResign(g, c)
	})
	d.startDelay = gt
}

// armAutoResign arms the timer that ends the game against the absent
// seat, and tells the opponent when the forfeit will land. A running
// AFK countdown on the same seat is absorbed: its deadline carries over
// when it is the earlier of the two.
func (m *Manager) armAutoResign(g *Game, c player.Color) {
	d := &g.disconnect[c]
	dur := m.cfg.DisconnectAbortFallback
	if !d.byChoice && g.Resignable() {
		dur = m.cfg.DisconnectAutoResign
	}
	lossAt := m.now().Add(dur)

	if g.afkTimer != nil && g.whoseTurn == c {
		if !g.afkLossAt.IsZero() && g.afkLossAt.Before(lossAt) {
			lossAt = g.afkLossAt
			dur = lossAt.Sub(m.now())
			if dur < 0 {
				dur = 0
			}
		}
		m.cancelAFK(g)
	}

	d.lossAt = lossAt
	var gt *gameTimer
	gt = m.schedule(dur, func() {
		if m.games[g.ID] != g || g.disconnect[c].autoResign != gt || !g.Active() {
			return
		}
		g.disconnect[c].autoResign = nil
		conclusion := ConclusionAborted
		if g.Resignable() {
			conclusion = Conclusion(c.Opposite().String() + " disconnect")
		}
		m.concludeGame(g, conclusion)
		m.logger.Info("disconnect timer expired", "game", g.ID, "seat", c.String())
		m.broadcastGameUpdate(g)
	})
	d.autoResign = gt

	m.sendGame(g.endpoints[c.Opposite()], sendOpponentGone, DisconnectView{
		AutoDisconnectResignTime: unixMs(lossAt),
		WasByChoice:              d.byChoice,
	}, "")
}

// cancelDisconnectForSeat stops the countdown after the seat came back.
func (m *Manager) cancelDisconnectForSeat(g *Game, c player.Color) {
	d := &g.disconnect[c]
	if !d.armed() {
		return
	}
	wasArmed := d.autoResign != nil
	d.cancel()
	if wasArmed {
		m.sendGame(g.endpoints[c.Opposite()], sendOpponentBack, nil, "")
	}
}
