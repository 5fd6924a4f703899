package arena

import (
	"time"

	"github.com/vovakirdan/chess-arena/internal/player"
)

// GameView is the projection of a game sent to one of its players. It
// must never carry the opposing player's guest token; seats appear as
// display names only.
type GameView struct {
	ID        string   `json:"id"`
	CreatedAt int64    `json:"createdAt"`
	Publicity string   `json:"publicity"`
	Variant   string   `json:"variant"`
	Clock     string   `json:"clock"`
	Rated     bool     `json:"rated"`
	Moves     []string `json:"moves"`
	White     string   `json:"white"`
	Black     string   `json:"black"`
	YourColor string   `json:"yourColor"`

	WhoseTurn  string `json:"whosTurn,omitempty"`
	Conclusion string `json:"gameConclusion,omitempty"`

	TimerWhite     *int64 `json:"timerWhite,omitempty"`
	TimerBlack     *int64 `json:"timerBlack,omitempty"`
	AutoTimeLossAt *int64 `json:"autoTimeLossAt,omitempty"`

	AutoAFKResignTime *int64          `json:"autoAFKResignTime,omitempty"`
	Disconnect        *DisconnectView `json:"disconnect,omitempty"`

	ServerRestartingAt *int64 `json:"serverRestartingAt,omitempty"`
}

// DisconnectView describes the opponent's armed auto-resign timer.
type DisconnectView struct {
	AutoDisconnectResignTime int64 `json:"autoDisconnectResignTime"`
	WasByChoice              bool  `json:"wasByChoice"`
}

// ClockView is the incremental clock refresh sent after a move.
type ClockView struct {
	TimerWhite     int64  `json:"timerWhite"`
	TimerBlack     int64  `json:"timerBlack"`
	AutoTimeLossAt *int64 `json:"autoTimeLossAt,omitempty"`
}

// MoveView relays the latest move to the opponent.
type MoveView struct {
	Move       string `json:"move"`
	MoveNumber int    `json:"moveNumber"`
	Conclusion string `json:"gameConclusion,omitempty"`

	TimerWhite     *int64 `json:"timerWhite,omitempty"`
	TimerBlack     *int64 `json:"timerBlack,omitempty"`
	AutoTimeLossAt *int64 `json:"autoTimeLossAt,omitempty"`
}

// viewFor builds the safe projection for the seat at c. Callers hold
// m.mu.
func (m *Manager) viewFor(g *Game, c player.Color) GameView {
	v := GameView{
		ID:        g.ID,
		CreatedAt: unixMs(g.CreatedAt),
		Publicity: string(g.Publicity),
		Variant:   g.Variant,
		Clock:     g.TimeControlStr,
		Rated:     g.Rated,
		Moves:     append([]string(nil), g.Moves...),
		White:     g.seats[player.White].DisplayName(),
		Black:     g.seats[player.Black].DisplayName(),
		YourColor: c.String(),
	}
	if g.Active() {
		v.WhoseTurn = g.whoseTurn.String()
	} else {
		v.Conclusion = string(g.Conclusion)
	}
	if !g.TimeControl.Infinite {
		v.TimerWhite = int64Ptr(durMs(g.clocks[player.White]))
		v.TimerBlack = int64Ptr(durMs(g.clocks[player.Black]))
		if !g.nextLossAt.IsZero() {
			v.AutoTimeLossAt = int64Ptr(unixMs(g.nextLossAt))
		}
	}
	if !g.afkLossAt.IsZero() {
		v.AutoAFKResignTime = int64Ptr(unixMs(g.afkLossAt))
	}
	if d := &g.disconnect[c.Opposite()]; !d.lossAt.IsZero() {
		v.Disconnect = &DisconnectView{
			AutoDisconnectResignTime: unixMs(d.lossAt),
			WasByChoice:              d.byChoice,
		}
	}
	if !m.restartAt.IsZero() {
		v.ServerRestartingAt = int64Ptr(unixMs(m.restartAt))
	}
	return v
}

func (m *Manager) clockView(g *Game) ClockView {
	v := ClockView{
		TimerWhite: durMs(g.clocks[player.White]),
		TimerBlack: durMs(g.clocks[player.Black]),
	}
	if !g.nextLossAt.IsZero() {
		v.AutoTimeLossAt = int64Ptr(unixMs(g.nextLossAt))
	}
	return v
}

func unixMs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func durMs(d time.Duration) int64 { return d.Milliseconds() }

func int64Ptr(v int64) *int64 { return &v }
