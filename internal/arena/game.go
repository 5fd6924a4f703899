package arena

import (
	"time"

	"github.com/vovakirdan/chess-arena/internal/clock"
	"github.com/vovakirdan/chess-arena/internal/player"
	"github.com/vovakirdan/chess-arena/internal/transport"
)

// Publicity controls whether a game is listed or reachable by id only.
type Publicity string

const (
	Public  Publicity = "public"
	Private Publicity = "private"
)

// OfferState is one seat's slot of the draw-offer state machine.
type OfferState int

const (
	OfferNone OfferState = iota
	OfferOffered
	OfferUnconfirmed
	OfferDeclined
	OfferConfirmed
)

// disconnectState tracks one seat's disconnect flow: an optional grace
// delay before the auto-resign timer arms, and the armed timer itself.
type disconnectState struct {
	startDelay *gameTimer
	autoResign *gameTimer
	lossAt     time.Time // zero when no auto-resign armed
	byChoice   bool
}

func (d *disconnectState) cancel() {
	d.startDelay.cancel()
	d.autoResign.cancel()
	d.startDelay = nil
	d.autoResign = nil
	d.lossAt = time.Time{}
}

func (d *disconnectState) armed() bool {
	return d.startDelay != nil || d.autoResign != nil
}

// Game is one active match. All fields are guarded by the manager's
// lock; nothing outside the arena package mutates a Game.
type Game struct {
	ID        string
	CreatedAt time.Time
	Publicity Publicity
	Variant   string
	Rated     bool

	TimeControl    clock.Control
	TimeControlStr string

	// Seats are fixed at creation; endpoints attach and detach as
	// clients come and go. Indexed by player.Color.
	seats     [2]player.Handle
	endpoints [2]transport.Endpoint

	Moves []string

	// Turn and clock state. whoseTurn is meaningful only while the
	// game is active (invariant: concluded games have no turn).
	whoseTurn            player.Color
	turnStartedAt        time.Time
	remainingAtTurnStart time.Duration
	nextLossAt           time.Time
	clocks               [2]time.Duration
	autoTimeLossTimer    *gameTimer

	// AFK flow for the active seat.
	afkTimer  *gameTimer
	afkLossAt time.Time

	disconnect [2]disconnectState

	drawOffer        [2]OfferState
	drawOfferLastPly [2]int

	Conclusion Conclusion

	deletionTimer  *gameTimer
	PositionPasted bool

	// BlackMovesFirst is passed through from variant metadata; it is
	// the sole externally driven exception to White starting.
	BlackMovesFirst bool
}

// Seat returns the handle seated at color.
func (g *Game) Seat(c player.Color) player.Handle { return g.seats[c] }

// Endpoint returns the attached endpoint for a seat, nil when absent.
func (g *Game) Endpoint(c player.Color) transport.Endpoint { return g.endpoints[c] }

// SeatOf returns the color a handle occupies.
func (g *Game) SeatOf(h player.Handle) (player.Color, bool) {
	if g.seats[player.White].Key() == h.Key() {
		return player.White, true
	}
	if g.seats[player.Black].Key() == h.Key() {
		return player.Black, true
	}
	return 0, false
}

// Active reports whether the game has not concluded.
func (g *Game) Active() bool { return g.Conclusion.Active() }

// Resignable reports whether at least two plies have been played, so
// the game can end as a resignation rather than an abort.
func (g *Game) Resignable() bool { return len(g.Moves) >= 2 }

// WhoseTurn returns the seat to move while the game is active.
func (g *Game) WhoseTurn() (player.Color, bool) {
	if !g.Active() {
		return 0, false
	}
	return g.whoseTurn, true
}

// Clock returns a seat's current reserve for a timed game.
func (g *Game) Clock(c player.Color) time.Duration { return g.clocks[c] }

// cancelPlayTimers stops every timer related to play. The deletion
// timer is handled separately.
func (g *Game) cancelPlayTimers() {
	g.autoTimeLossTimer.cancel()
	g.autoTimeLossTimer = nil
	g.afkTimer.cancel()
	g.afkTimer = nil
	g.afkLossAt = time.Time{}
	g.disconnect[player.White].cancel()
	g.disconnect[player.Black].cancel()
}
