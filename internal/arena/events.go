// Package arena is the game session coordinator: the registry of active
// games, the per-game state machine (turns, clocks, AFK and disconnect
// timers, draw offers, termination) and the player-to-game index.
package arena

import "strings"

// Routes the coordinator listens on.
const (
	RouteGame    = "game"
	RouteInvites = "invites"
)

// Inbound game actions.
const (
	ActionSubmitMove  = "submitmove"
	ActionJoinGame    = "joingame"
	ActionUnsubscribe = "removefromplayersinactivegames"
	ActionResync      = "resync"
	ActionAbort       = "abort"
	ActionResign      = "resign"
	ActionOfferDraw   = "offerdraw"
	ActionAcceptDraw  = "acceptdraw"
	ActionDeclineDraw = "declinedraw"
	ActionAFK         = "AFK"
	ActionAFKReturn   = "AFK-Return"
	ActionReport      = "report"
)

// Outbound game actions.
const (
	sendJoinGame         = "joingame"
	sendGameUpdate       = "gameupdate"
	sendClock            = "clock"
	sendMove             = "move"
	sendDrawOffer        = "drawoffer"
	sendDeclineDraw      = "declinedraw"
	sendOpponentAFK      = "opponentafk"
	sendOpponentAFKBack  = "opponentafkreturn"
	sendOpponentGone     = "opponentdisconnect"
	sendOpponentBack     = "opponentdisconnectreturn"
	sendServerRestart    = "serverrestart"
	sendUnsub            = "unsub"
	sendLeaveGame        = "leavegame"
	sendNoGame           = "nogame"
)

// Outbound general actions.
const (
	sendNotify     = "notify"
	sendPrintError = "printerror"
)

const (
	subjectGame    = "game"
	subjectGeneral = "general"
)

// Conclusion is the terminal tag of a game. The empty string means the
// game is still active; otherwise it is "aborted", "draw <termination>"
// or "<color> <termination>".
type Conclusion string

const (
	ConclusionNone    Conclusion = ""
	ConclusionAborted Conclusion = "aborted"
)

// Active reports whether the game has not concluded.
func (c Conclusion) Active() bool { return c == ConclusionNone }

// Winner returns the winning color name ("white"/"black"), "draw" for a
// drawn game, or "" for aborted/active.
func (c Conclusion) Winner() string {
	word, _, _ := strings.Cut(string(c), " ")
	switch word {
	case "white", "black", "draw":
		return word
	}
	return ""
}

// Termination returns the cause ("checkmate", "time", "agreement", ...).
func (c Conclusion) Termination() string {
	_, term, ok := strings.Cut(string(c), " ")
	if !ok {
		return string(c)
	}
	return term
}

// decisiveTerminations are the causes decided by the board itself, as
// opposed to resignation, timeout, disconnect or abort. Only these may
// accompany a submitted move.
var decisiveTerminations = map[string]struct{}{
	"checkmate":         {},
	"stalemate":         {},
	"repetition":        {},
	"moverule":          {},
	"insuffmat":         {},
	"royalcapture":      {},
	"allroyalscaptured": {},
	"allpiecescaptured": {},
	"threecheck":        {},
	"koth":              {},
}

// Decisive reports whether the conclusion was caused by the board.
func (c Conclusion) Decisive() bool {
	if c.Active() || c == ConclusionAborted {
		return false
	}
	_, ok := decisiveTerminations[c.Termination()]
	return ok
}
