package arena

import (
	"encoding/json"

	"github.com/vovakirdan/chess-arena/internal/player"
	"github.com/vovakirdan/chess-arena/internal/transport"
)

type reportPayload struct {
	Reason              string `json:"reason"`
	OpponentsMoveNumber int    `json:"opponentsMoveNumber"`
}

// handleReport processes a client-side cheat detection: the reporter's
// engine rejected the opponent's latest move as illegal. The offending
// move is popped, the game is aborted and both players are told. A
// report that fails its own sanity checks is itself logged as probable
// abuse, since honest clients cannot produce one.
func (m *Manager) handleReport(ep transport.Endpoint, msg transport.Message) {
	g, c, ok := m.gameForEndpoint(ep)
	if !ok {
		m.hackLogger.Warn("cheat report from an unseated endpoint", "endpoint", ep.ID())
		return
	}
	if !g.Active() {
		return
	}

	var payload reportPayload
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		m.hackLogger.Warn("undecodable cheat report", "game", g.ID, "player", ep.Identity().Key(), "error", err)
		return
	}
	if g.Publicity == Private {
		m.hackLogger.Warn("cheat report in a private game", "game", g.ID, "player", ep.Identity().Key())
		return
	}
	if len(g.Moves) == 0 || m.moverOfPly(g, len(g.Moves)) == c {
		m.hackLogger.Warn("cheat report against reporter's own move",
			"game", g.ID,
			"player", ep.Identity().Key(),
			"reason", payload.Reason,
		)
		return
	}

	m.hackLogger.Warn("cheat report accepted, aborting game",
		"game", g.ID,
		"reporter", ep.Identity().Key(),
		"reported", g.seats[c.Opposite()].Key(),
		"reason", payload.Reason,
		"move", g.Moves[len(g.Moves)-1],
		"moveNumber", payload.OpponentsMoveNumber,
	)

	g.Moves = g.Moves[:len(g.Moves)-1]
	m.concludeGame(g, ConclusionAborted)
	for _, seat := range []player.Color{player.White, player.Black} {
		if sep := g.endpoints[seat]; sep != nil {
			m.notify(sep, "ws-game_aborted_cheating")
			m.sendGame(sep, sendGameUpdate, m.viewFor(g, seat), "")
		}
	}
}

// moverOfPly returns the color that played the 1-based ply n.
func (m *Manager) moverOfPly(g *Game, n int) player.Color {
	first := player.White
	if g.BlackMovesFirst {
		first = player.Black
	}
	if n%2 == 1 {
		return first
	}
	return first.Opposite()
}
