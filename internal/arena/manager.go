package arena

import (
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/chess-arena/internal/player"
	"github.com/vovakirdan/chess-arena/internal/transport"
)

// Config holds the coordinator's tunables. The defaults are the
// production values; tests shrink the durations.
type Config struct {
	AFKAutoResign           time.Duration
	DisconnectGrace         time.Duration
	DisconnectAutoResign    time.Duration
	DisconnectAbortFallback time.Duration
	DeletionGrace           time.Duration

	// DrawOfferCadence is the number of plies a seat must wait after
	// its own offer before offering again.
	DrawOfferCadence int
}

// DefaultConfig returns the production timings.
func DefaultConfig() Config {
	return Config{
		AFKAutoResign:           20 * time.Second,
		DisconnectGrace:         5 * time.Second,
		DisconnectAutoResign:    60 * time.Second,
		DisconnectAbortFallback: 20 * time.Second,
		DeletionGrace:           15 * time.Second,
		DrawOfferCadence:        2,
	}
}

// ArchiveRecord is the snapshot handed to the archival sink when a game
// is removed from the registry.
type ArchiveRecord struct {
	ID              string
	CreatedAt       time.Time
	ConcludedAt     time.Time
	Publicity       Publicity
	Variant         string
	Rated           bool
	TimeControl     string
	White           string // display name
	Black           string // display name
	Moves           []string
	Conclusion      Conclusion
	ClockWhite      time.Duration
	ClockBlack      time.Duration
	Timed           bool
	PositionPasted  bool
	BlackMovesFirst bool
}

// Archiver receives completed games. Failures are the sink's problem:
// the manager logs them and removes the game regardless.
type Archiver interface {
	ArchiveGame(rec ArchiveRecord) error
}

// Manager is the session coordinator. One lock serializes every
// mutation (message handlers, endpoint closures and timer callbacks),
// so no handler ever observes a torn game state.
type Manager struct {
	cfg    Config
	logger *log.Logger
	// hackLogger records probable protocol abuse separately.
	hackLogger *log.Logger
	archiver   Archiver
	now        func() time.Time

	mu    sync.Mutex
	games map[string]*Game
	// Player-to-game index: one map per handle kind.
	memberGames map[int64]string
	guestGames  map[string]string

	onCountChanged func(int)
	restartAt      time.Time
}

// New creates a Manager. archiver may be nil, in which case completed
// games are dropped after their deletion grace.
func New(cfg Config, archiver Archiver, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "arena"})
	}
	return &Manager{
		cfg:         cfg,
		logger:      logger,
		hackLogger:  logger.WithPrefix("arena-hack"),
		archiver:    archiver,
		now:         time.Now,
		games:       make(map[string]*Game),
		memberGames: make(map[int64]string),
		guestGames:  make(map[string]string),
	}
}

// SetOnActiveGameCountChanged registers the callback fired whenever the
// number of active games changes. Used by the invite subsystem.
func (m *Manager) SetOnActiveGameCountChanged(fn func(count int)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onCountChanged = fn
}

// ActiveGameCount returns the number of games in the registry.
func (m *Manager) ActiveGameCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.games)
}

// IsPlayerInActiveGame reports whether the handle is seated anywhere.
// Invite acceptance consults this before creating a game.
func (m *Manager) IsPlayerInActiveGame(h player.Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.gameIDForHandle(h)
	return ok
}

// HandleMessage routes one decoded inbound frame. Part of
// transport.Handler.
func (m *Manager) HandleMessage(ep transport.Endpoint, msg transport.Message) {
	if msg.Route != RouteGame {
		m.logger.Warn("message on unknown route", "route", msg.Route, "action", msg.Action)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	switch msg.Action {
	case ActionSubmitMove:
		m.handleSubmitMove(ep, msg)
	case ActionJoinGame:
		m.handleRejoin(ep, msg)
	case ActionUnsubscribe:
		m.handleUnsubscribe(ep)
	case ActionResync:
		m.handleResync(ep, msg)
	case ActionAbort:
		m.handleAbort(ep, msg)
	case ActionResign:
		m.handleResign(ep, msg)
	case ActionOfferDraw:
		m.handleOfferDraw(ep)
	case ActionAcceptDraw:
		m.handleAcceptDraw(ep)
	case ActionDeclineDraw:
		m.handleDeclineDraw(ep)
	case ActionAFK:
		m.handleAFK(ep)
	case ActionAFKReturn:
		m.handleAFKReturn(ep)
	case ActionReport:
		m.handleReport(ep, msg)
	default:
		m.logger.Warn("unknown game action ignored", "action", msg.Action, "endpoint", ep.ID())
	}
}

// HandleClosed begins or schedules the disconnect flow for whichever
// seat the endpoint occupies. A no-op if it is not seated. Part of
// transport.Handler.
func (m *Manager) HandleClosed(ep transport.Endpoint, reason transport.CloseReason) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startDisconnectFlow(ep, reason == transport.ClosedByChoice)
}

// gameForEndpoint resolves the endpoint's subscription slot. Callers
// hold m.mu.
func (m *Manager) gameForEndpoint(ep transport.Endpoint) (*Game, player.Color, bool) {
	sub, ok := ep.Subscription()
	if !ok {
		return nil, 0, false
	}
	g, ok := m.games[sub.GameID]
	if !ok {
		return nil, 0, false
	}
	return g, sub.Color, true
}

func (m *Manager) gameIDForHandle(h player.Handle) (string, bool) {
	switch v := h.(type) {
	case player.Member:
		id, ok := m.memberGames[v.UserID]
		return id, ok
	case player.Guest:
		id, ok := m.guestGames[v.BrowserToken]
		return id, ok
	}
	return "", false
}

func (m *Manager) indexAdd(h player.Handle, gameID string) {
	switch v := h.(type) {
	case player.Member:
		m.memberGames[v.UserID] = gameID
	case player.Guest:
		m.guestGames[v.BrowserToken] = gameID
	}
}

func (m *Manager) indexRemove(h player.Handle) {
	switch v := h.(type) {
	case player.Member:
		delete(m.memberGames, v.UserID)
	case player.Guest:
		delete(m.guestGames, v.BrowserToken)
	}
}

// removeGame archives (when the sink is configured) and deletes the
// game, clears the player index, and fires the count callback.
func (m *Manager) removeGame(g *Game) {
	if _, ok := m.games[g.ID]; !ok {
		return
	}
	if m.archiver != nil {
		if err := m.archiver.ArchiveGame(m.archiveRecord(g)); err != nil {
			m.logger.Error("archive failed, removing game anyway", "game", g.ID, "error", err)
		}
	}
	delete(m.games, g.ID)
	// A seat that unsubscribed and already moved on to a new game has
	// an index entry pointing elsewhere; only mappings still naming
	// this game are cleared.
	for _, h := range [2]player.Handle{g.seats[player.White], g.seats[player.Black]} {
		if id, ok := m.gameIDForHandle(h); ok && id == g.ID {
			m.indexRemove(h)
		}
	}
	m.fireCountChanged()
	m.logger.Info("game removed", "game", g.ID, "conclusion", string(g.Conclusion), "moves", len(g.Moves))
}

func (m *Manager) archiveRecord(g *Game) ArchiveRecord {
	return ArchiveRecord{
		ID:              g.ID,
		CreatedAt:       g.CreatedAt,
		ConcludedAt:     m.now(),
		Publicity:       g.Publicity,
		Variant:         g.Variant,
		Rated:           g.Rated,
		TimeControl:     g.TimeControlStr,
		White:           g.seats[player.White].DisplayName(),
		Black:           g.seats[player.Black].DisplayName(),
		Moves:           append([]string(nil), g.Moves...),
		Conclusion:      g.Conclusion,
		ClockWhite:      g.clocks[player.White],
		ClockBlack:      g.clocks[player.Black],
		Timed:           !g.TimeControl.Infinite,
		PositionPasted:  g.PositionPasted,
		BlackMovesFirst: g.BlackMovesFirst,
	}
}

// fireCountChanged invokes the callback outside the lock.
func (m *Manager) fireCountChanged() {
	if m.onCountChanged == nil {
		return
	}
	fn := m.onCountChanged
	count := len(m.games)
	go fn(count)
}

// Reply helpers. Subjects and actions match the client protocol.

func (m *Manager) sendGame(ep transport.Endpoint, action string, value any, replyTo string) {
	if ep == nil || !ep.IsOpen() {
		return
	}
	ep.Send(subjectGame, action, value, replyTo)
}

func (m *Manager) notify(ep transport.Endpoint, key string) {
	if ep == nil || !ep.IsOpen() {
		return
	}
	ep.Send(subjectGeneral, sendNotify, key, "")
}

func (m *Manager) printError(ep transport.Endpoint, text string) {
	if ep == nil || !ep.IsOpen() {
		return
	}
	ep.Send(subjectGeneral, sendPrintError, text, "")
}
