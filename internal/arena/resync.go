package arena

import (
	"encoding/json"

	"github.com/vovakirdan/chess-arena/internal/transport"
)

// locateGameFor finds the game an endpoint belongs to: its live
// subscription first, then an explicitly named id, then the player
// index. The returned seat is always verified against the endpoint's
// identity so a subscription from a previous connection cannot leak a
// seat it no longer owns.
func (m *Manager) locateGameFor(ep transport.Endpoint, wantID string) (*Game, bool) {
	if sub, ok := ep.Subscription(); ok {
		if g, ok := m.games[sub.GameID]; ok {
			return g, true
		}
	}
	if wantID != "" {
		if g, ok := m.games[wantID]; ok {
			return g, true
		}
	}
	if id, ok := m.gameIDForHandle(ep.Identity()); ok {
		if g, ok := m.games[id]; ok {
			return g, true
		}
	}
	return nil, false
}

// handleResync answers a client that woke up unsure of the game state:
// it re-attaches the endpoint to its seat and replies with the full
// projection, tagged with the request id so the client can match it.
func (m *Manager) handleResync(ep transport.Endpoint, msg transport.Message) {
	var payload struct {
		GameID string `json:"gameID"`
	}
	if len(msg.Value) > 0 {
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			m.printError(ep, "invalid resync payload")
			return
		}
	}

	g, ok := m.locateGameFor(ep, payload.GameID)
	if !ok {
		m.sendGame(ep, sendNoGame, nil, msg.ID)
		return
	}
	c, seated := g.SeatOf(ep.Identity())
	if !seated {
		m.sendGame(ep, sendNoGame, nil, msg.ID)
		return
	}

	m.attachEndpoint(g, c, ep)
	if g.Active() {
		m.cancelDisconnectForSeat(g, c)
	}
	m.sendGame(ep, sendGameUpdate, m.viewFor(g, c), msg.ID)
}

// handleRejoin serves the joingame action: a fresh connection from a
// seated player gets its seat back and a join snapshot. Rejoining also
// clears the caller's AFK countdown, since showing up is returning.
func (m *Manager) handleRejoin(ep transport.Endpoint, msg transport.Message) {
	var payload struct {
		GameID string `json:"gameID"`
	}
	if len(msg.Value) > 0 {
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			m.printError(ep, "invalid joingame payload")
			return
		}
	}

	g, ok := m.locateGameFor(ep, payload.GameID)
	if !ok {
		m.sendGame(ep, sendNoGame, nil, msg.ID)
		return
	}
	c, seated := g.SeatOf(ep.Identity())
	if !seated {
		m.sendGame(ep, sendNoGame, nil, msg.ID)
		return
	}

	m.attachEndpoint(g, c, ep)
	if g.Active() {
		if g.afkTimer != nil && g.whoseTurn == c {
			m.cancelAFK(g)
			m.sendGame(g.endpoints[c.Opposite()], sendOpponentAFKBack, nil, "")
		}
		m.cancelDisconnectForSeat(g, c)
	}
	m.sendGame(ep, sendJoinGame, m.viewFor(g, c), msg.ID)
}
