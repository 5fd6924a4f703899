package arena

import (
	"fmt"
	"math/rand"

	"github.com/vovakirdan/chess-arena/internal/clock"
	"github.com/vovakirdan/chess-arena/internal/player"
	"github.com/vovakirdan/chess-arena/internal/transport"
)

// Invite carries the options a game is created from. It is consumed
// once, at the moment of acceptance; the invite bookkeeping itself
// lives outside the coordinator.
type Invite struct {
	Variant         string
	TimeControl     string
	ColorPreference player.ColorPreference
	Rated           bool
	Publicity       Publicity
	Owner           player.Handle

	// BlackMovesFirst is variant metadata passed through unchanged.
	BlackMovesFirst bool
}

const gameIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
const gameIDLength = 5

// sentinel for "this seat has never offered a draw".
const noOfferYet = -(1 << 20)

// CreateGameFromInvite builds a new game, seats both players, attaches
// their endpoints and sends each a join snapshot. ownerEp may be nil
// when the owner's channel closed between acceptance and creation; the
// owner's seat then immediately enters the disconnect flow with the
// short (not-by-choice) delay.
func (m *Manager) CreateGameFromInvite(inv Invite, ownerEp, accepterEp transport.Endpoint) (*Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctrl, err := clock.Parse(inv.TimeControl)
	if err != nil {
		return nil, fmt.Errorf("arena: invite carries bad time control: %w", err)
	}
	accepter := accepterEp.Identity()
	if inv.Owner.Key() == accepter.Key() {
		return nil, fmt.Errorf("arena: cannot seat %s against itself", inv.Owner.Key())
	}

	ownerColor := player.White
	switch inv.ColorPreference {
	case player.PrefWhite:
		ownerColor = player.White
	case player.PrefBlack:
		ownerColor = player.Black
	case player.PrefRandom:
		if rand.Intn(2) == 1 {
			ownerColor = player.Black
		}
	}

	g := &Game{
		ID:              m.newGameID(),
		CreatedAt:       m.now(),
		Publicity:       inv.Publicity,
		Variant:         inv.Variant,
		Rated:           inv.Rated,
		TimeControl:     ctrl,
		TimeControlStr:  inv.TimeControl,
		BlackMovesFirst: inv.BlackMovesFirst,
	}
	g.seats[ownerColor] = inv.Owner
	g.seats[ownerColor.Opposite()] = accepter
	g.whoseTurn = player.White
	if g.BlackMovesFirst {
		g.whoseTurn = player.Black
	}
	if !ctrl.Infinite {
		g.clocks[player.White] = ctrl.Initial
		g.clocks[player.Black] = ctrl.Initial
	}
	g.drawOfferLastPly = [2]int{noOfferYet, noOfferYet}

	// Index before any snapshot goes out.
	m.games[g.ID] = g
	m.indexAdd(g.seats[player.White], g.ID)
	m.indexAdd(g.seats[player.Black], g.ID)

	if ownerEp != nil {
		m.attachEndpoint(g, ownerColor, ownerEp)
	}
	m.attachEndpoint(g, ownerColor.Opposite(), accepterEp)

	m.logger.Info("game created",
		"game", g.ID,
		"variant", g.Variant,
		"clock", g.TimeControlStr,
		"rated", g.Rated,
		"publicity", string(g.Publicity),
		"white", g.seats[player.White].Key(),
		"black", g.seats[player.Black].Key(),
	)
	m.fireCountChanged()

	for _, c := range []player.Color{player.White, player.Black} {
		if ep := g.endpoints[c]; ep != nil {
			m.sendGame(ep, sendJoinGame, m.viewFor(g, c), "")
		}
	}

	if ownerEp == nil {
		m.startDisconnectForSeat(g, ownerColor, false)
	}
	return g, nil
}

// newGameID samples a 5-character id, retrying on collision with the
// registry. Callers hold m.mu.
func (m *Manager) newGameID() string {
	for {
		b := make([]byte, gameIDLength)
		for i := range b {
			b[i] = gameIDAlphabet[rand.Intn(len(gameIDAlphabet))]
		}
		id := string(b)
		if _, taken := m.games[id]; !taken {
			return id
		}
	}
}

// attachEndpoint wires an endpoint to a seat. A previous endpoint on
// the same seat (duplicate tab) is told to leave and detached first.
func (m *Manager) attachEndpoint(g *Game, c player.Color, ep transport.Endpoint) {
	if prev := g.endpoints[c]; prev != nil && prev.ID() != ep.ID() {
		m.sendGame(prev, sendLeaveGame, nil, "")
		prev.Unsubscribe()
	}
	g.endpoints[c] = ep
	ep.Subscribe(transport.Subscription{GameID: g.ID, Color: c})
}
