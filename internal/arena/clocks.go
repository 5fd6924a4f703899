package arena

import "github.com/vovakirdan/chess-arena/internal/player"

// pushClock flips the turn and settles the mover's clock. Clocks do not
// advance until after the second ply has been played (the game is still
// abortable before that), and the increment is first credited on the
// third ply. Callers hold m.mu and have already appended the move.
func (m *Manager) pushClock(g *Game) {
	mover := g.whoseTurn
	g.whoseTurn = mover.Opposite()
	if g.TimeControl.Infinite {
		return
	}
	if len(g.Moves) < 2 {
		return
	}

	now := m.now()
	newTime := g.clocks[mover]
	if len(g.Moves) > 2 {
		spent := now.Sub(g.turnStartedAt)
		newTime = g.remainingAtTurnStart - spent
	}

	g.turnStartedAt = now
	g.remainingAtTurnStart = g.clocks[g.whoseTurn]
	g.nextLossAt = now.Add(g.remainingAtTurnStart)
	m.armTimeLossTimer(g)

	if len(g.Moves) > 2 {
		newTime += g.TimeControl.Increment
	}
	if newTime < 0 {
		newTime = 0
	}
	g.clocks[mover] = newTime
}

// armTimeLossTimer (re-)arms the flag-fall timer for the active seat.
func (m *Manager) armTimeLossTimer(g *Game) {
	g.autoTimeLossTimer.cancel()
	var gt *gameTimer
	gt = m.schedule(g.remainingAtTurnStart, func() {
		if m.games[g.ID] != g || g.autoTimeLossTimer != gt || !g.Active() {
			return
		}
		loser := g.whoseTurn
		g.clocks[loser] = 0
		m.concludeGame(g, Conclusion(loser.Opposite().String()+" time"))
		m.logger.Info("flag fell", "game", g.ID, "loser", loser.String())
		m.broadcastGameUpdate(g)
	})
	g.autoTimeLossTimer = gt
}

// stopClocks freezes the clock state at termination. Each seat keeps
// the reserve it had when its last turn ended; the active seat is
// charged for the partial turn, clamped at zero.
func (m *Manager) stopClocks(g *Game) {
	if g.TimeControl.Infinite {
		return
	}
	if g.Resignable() && !g.turnStartedAt.IsZero() {
		rem := g.remainingAtTurnStart - m.now().Sub(g.turnStartedAt)
		if rem < 0 {
			rem = 0
		}
		g.clocks[g.whoseTurn] = rem
	}
	g.turnStartedAt = zeroTime
	g.nextLossAt = zeroTime
	g.remainingAtTurnStart = 0
}

// broadcastGameUpdate sends the full projection to both seats.
func (m *Manager) broadcastGameUpdate(g *Game) {
	for _, c := range []player.Color{player.White, player.Black} {
		if ep := g.endpoints[c]; ep != nil {
			m.sendGame(ep, sendGameUpdate, m.viewFor(g, c), "")
		}
	}
}
