package arena

import (
	"encoding/json"

	"github.com/vovakirdan/chess-arena/internal/icn"
	"github.com/vovakirdan/chess-arena/internal/player"
	"github.com/vovakirdan/chess-arena/internal/transport"
)

// submitMovePayload is the wire shape of a submitmove frame. The client
// sends gameConclusion as either false (game continues) or a conclusion
// string it computed from the board.
type submitMovePayload struct {
	Move       string
	MoveNumber int
	Claimed    Conclusion
}

func parseSubmitMove(raw json.RawMessage) (submitMovePayload, error) {
	var aux struct {
		Move           string          `json:"move"`
		MoveNumber     int             `json:"moveNumber"`
		GameConclusion json.RawMessage `json:"gameConclusion"`
	}
	if err := json.Unmarshal(raw, &aux); err != nil {
		return submitMovePayload{}, err
	}
	p := submitMovePayload{Move: aux.Move, MoveNumber: aux.MoveNumber}
	if len(aux.GameConclusion) > 0 && string(aux.GameConclusion) != "false" {
		var s string
		if err := json.Unmarshal(aux.GameConclusion, &s); err != nil {
			return submitMovePayload{}, err
		}
		p.Claimed = Conclusion(s)
	}
	return p, nil
}

// handleSubmitMove checks the move preconditions in order, each failure
// producing its own targeted reply, then applies the move. Callers hold
// m.mu.
func (m *Manager) handleSubmitMove(ep transport.Endpoint, msg transport.Message) {
	sub, ok := ep.Subscription()
	if !ok {
		m.logger.Warn("submitmove without a game subscription", "endpoint", ep.ID())
		return
	}
	g, ok := m.games[sub.GameID]
	if !ok {
		m.printError(ep, "game does not exist")
		return
	}
	c := sub.Color
	if !g.Active() {
		// The conclusion is already on its way to the client.
		return
	}

	payload, err := parseSubmitMove(msg.Value)
	if err != nil {
		m.hackLogger.Warn("undecodable submitmove payload", "game", g.ID, "player", ep.Identity().Key(), "error", err)
		m.printError(ep, "invalid move format")
		return
	}
	if payload.MoveNumber != len(g.Moves)+1 {
		m.hackLogger.Warn("move number out of sequence",
			"game", g.ID,
			"player", ep.Identity().Key(),
			"got", payload.MoveNumber,
			"want", len(g.Moves)+1,
		)
		m.sendGame(ep, sendGameUpdate, m.viewFor(g, c), msg.ID)
		return
	}
	if g.whoseTurn != c {
		m.printError(ep, "not your turn")
		return
	}
	if err := icn.ValidateSubmittedMove(payload.Move); err != nil {
		m.hackLogger.Warn("malformed move", "game", g.ID, "player", ep.Identity().Key(), "move", payload.Move)
		m.printError(ep, "invalid move format")
		return
	}
	if !m.claimAllowed(payload.Claimed, c) {
		m.hackLogger.Warn("implausible conclusion claim",
			"game", g.ID,
			"player", ep.Identity().Key(),
			"claim", string(payload.Claimed),
		)
		m.printError(ep, "invalid game conclusion")
		return
	}

	g.Moves = append(g.Moves, payload.Move)
	m.pushClock(g)
	if payload.Claimed != ConclusionNone {
		m.concludeGame(g, payload.Claimed)
	}
	m.autoDeclineOffer(g, c)

	if !g.Active() {
		m.sendGame(ep, sendGameUpdate, m.viewFor(g, c), "")
	} else if !g.TimeControl.Infinite {
		m.sendGame(ep, sendClock, m.clockView(g), "")
	}
	m.sendMoveToOpponent(g, c)
}

// claimAllowed enforces that a mover may only claim a conclusion whose
// winner is not the opponent, and only one the board itself can cause.
func (m *Manager) claimAllowed(claim Conclusion, mover player.Color) bool {
	if claim == ConclusionNone {
		return true
	}
	if !claim.Decisive() {
		return false
	}
	return claim.Winner() != mover.Opposite().String()
}

func (m *Manager) sendMoveToOpponent(g *Game, mover player.Color) {
	opp := g.endpoints[mover.Opposite()]
	if opp == nil {
		return
	}
	v := MoveView{
		Move:       g.Moves[len(g.Moves)-1],
		MoveNumber: len(g.Moves),
	}
	if !g.Active() {
		v.Conclusion = string(g.Conclusion)
	}
	if !g.TimeControl.Infinite {
		v.TimerWhite = int64Ptr(durMs(g.clocks[player.White]))
		v.TimerBlack = int64Ptr(durMs(g.clocks[player.Black]))
		if !g.nextLossAt.IsZero() {
			v.AutoTimeLossAt = int64Ptr(unixMs(g.nextLossAt))
		}
	}
	m.sendGame(opp, sendMove, v, "")
}
