package arena

import (
	"github.com/vovakirdan/chess-arena/internal/player"
	"github.com/vovakirdan/chess-arena/internal/transport"
)

// handleOfferDraw extends a draw offer from the caller's seat.
// Requires an active, resignable game, no offer currently on the table
// from either seat, and at least the configured number of plies since
// this seat's previous offer.
func (m *Manager) handleOfferDraw(ep transport.Endpoint) {
	g, c, ok := m.gameForEndpoint(ep)
	if !ok {
		m.logger.Warn("offerdraw without a game", "endpoint", ep.ID())
		return
	}
	opp := c.Opposite()
	switch {
	case !g.Active(), !g.Resignable():
		m.notify(ep, "ws-cannot_offer_draw")
		return
	case g.drawOffer[c] == OfferOffered || g.drawOffer[opp] == OfferOffered:
		m.notify(ep, "ws-draw_already_offered")
		return
	case len(g.Moves)-g.drawOfferLastPly[c] < m.cfg.DrawOfferCadence:
		m.notify(ep, "ws-cannot_offer_draw")
		return
	}

	g.drawOffer[c] = OfferOffered
	g.drawOffer[opp] = OfferUnconfirmed
	g.drawOfferLastPly[c] = len(g.Moves)
	m.logger.Info("draw offered", "game", g.ID, "by", c.String(), "ply", len(g.Moves))
	m.sendGame(g.endpoints[opp], sendDrawOffer, nil, "")
}

// handleAcceptDraw confirms the opponent's outstanding offer and ends
// the game as a draw by agreement.
func (m *Manager) handleAcceptDraw(ep transport.Endpoint) {
	g, c, ok := m.gameForEndpoint(ep)
	if !ok {
		m.logger.Warn("acceptdraw without a game", "endpoint", ep.ID())
		return
	}
	if !g.Active() || g.drawOffer[c.Opposite()] != OfferOffered {
		m.logger.Warn("acceptdraw with no offer on the table", "game", g.ID, "by", c.String())
		return
	}
	g.drawOffer[c] = OfferConfirmed
	m.concludeGame(g, Conclusion("draw agreement"))
	m.broadcastGameUpdate(g)
}

// handleDeclineDraw rejects the opponent's outstanding offer.
func (m *Manager) handleDeclineDraw(ep transport.Endpoint) {
	g, c, ok := m.gameForEndpoint(ep)
	if !ok {
		m.logger.Warn("declinedraw without a game", "endpoint", ep.ID())
		return
	}
	if !g.Active() {
		return
	}
	m.declineOffer(g, c)
}

// declineOffer runs the decline transition for the seat at c: its own
// slot becomes declined, the opponent's offered slot is cleared, and
// the offerer is told. Silent no-op when no offer is outstanding.
func (m *Manager) declineOffer(g *Game, c player.Color) {
	opp := c.Opposite()
	if g.drawOffer[opp] != OfferOffered {
		return
	}
	g.drawOffer[c] = OfferDeclined
	g.drawOffer[opp] = OfferNone
	m.sendGame(g.endpoints[opp], sendDeclineDraw, nil, "")
}

// autoDeclineOffer runs after every accepted move: a move played over
// the opponent's outstanding offer declines it.
func (m *Manager) autoDeclineOffer(g *Game, mover player.Color) {
	m.declineOffer(g, mover)
}
