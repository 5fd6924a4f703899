package arena

import (
	"github.com/vovakirdan/chess-arena/internal/player"
	"github.com/vovakirdan/chess-arena/internal/transport"
)

// handleAbort ends a game that has seen fewer than two plies. Once both
// sides have moved an abort is no longer available and the caller is
// told to resign instead; the game state is re-sent so an optimistic
// client can recover.
func (m *Manager) handleAbort(ep transport.Endpoint, msg transport.Message) {
	g, c, ok := m.gameForEndpoint(ep)
	if !ok {
		m.printError(ep, "game does not exist")
		return
	}
	if !g.Active() {
		return
	}
	if g.Resignable() {
		m.notify(ep, "ws-no_abort_after_moves")
		m.sendGame(ep, sendGameUpdate, m.viewFor(g, c), msg.ID)
		return
	}
	m.concludeGame(g, ConclusionAborted)
	m.detachSeat(g, c)
	m.sendGame(g.endpoints[c.Opposite()], sendGameUpdate, m.viewFor(g, c.Opposite()), "")
}

// handleResign concedes the game. Before the game is resignable this
// degrades to an abort, so an instant "resign" cannot gift a win.
func (m *Manager) handleResign(ep transport.Endpoint, msg transport.Message) {
	g, c, ok := m.gameForEndpoint(ep)
	if !ok {
		m.printError(ep, "game does not exist")
		return
	}
	if !g.Active() {
		return
	}
	conclusion := ConclusionAborted
	if g.Resignable() {
		conclusion = Conclusion(c.Opposite().String() + " resignation")
	}
	m.concludeGame(g, conclusion)
	m.detachSeat(g, c)
	m.sendGame(g.endpoints[c.Opposite()], sendGameUpdate, m.viewFor(g, c.Opposite()), "")
}

// handleUnsubscribe detaches the caller from its concluded game so a
// lingering index entry does not block it from accepting new invites.
// Resigning and aborting already detach the seat, so the game is
// resolved by identity rather than only by subscription. The registry
// entry itself stays until the deletion grace runs out.
func (m *Manager) handleUnsubscribe(ep transport.Endpoint) {
	g, ok := m.locateGameFor(ep, "")
	if !ok {
		ep.Unsubscribe()
		return
	}
	c, seated := g.SeatOf(ep.Identity())
	if !seated {
		ep.Unsubscribe()
		return
	}
	if g.Active() {
		m.logger.Warn("unsubscribe from an active game ignored", "game", g.ID, "by", c.String())
		return
	}
	m.detachSeat(g, c)
	ep.Unsubscribe()
	m.indexRemove(g.seats[c])
	m.sendGame(ep, sendUnsub, nil, "")
}

// detachSeat unwires the seat's endpoint without any farewell frame.
func (m *Manager) detachSeat(g *Game, c player.Color) {
	if ep := g.endpoints[c]; ep != nil {
		ep.Unsubscribe()
		g.endpoints[c] = nil
	}
}
