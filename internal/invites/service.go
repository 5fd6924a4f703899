// Package invites keeps the open-invite list and turns an accepted
// invite into a running game. It fronts the arena manager as the
// transport handler: game traffic passes straight through, invite
// traffic is handled here.
package invites

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/chess-arena/internal/arena"
	"github.com/vovakirdan/chess-arena/internal/clock"
	"github.com/vovakirdan/chess-arena/internal/player"
	"github.com/vovakirdan/chess-arena/internal/transport"
)

// Inbound invite actions.
const (
	ActionCreate      = "createinvite"
	ActionCancel      = "cancelinvite"
	ActionAccept      = "acceptinvite"
	ActionSubscribe   = "subinvites"
	ActionUnsubscribe = "unsubinvites"
)

const (
	subjectInvites = "invites"
	sendUpdate     = "invitesupdate"
)

// Invite is one open seat offer.
type Invite struct {
	ID              string
	Owner           player.Handle
	OwnerEndpointID string
	Variant         string
	TimeControl     string
	ColorPreference player.ColorPreference
	Rated           bool
	Publicity       arena.Publicity
	BlackMovesFirst bool
}

// InviteView is the projection of an invite sent to subscribers. It
// carries display names only, never a guest token.
type InviteView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Variant string `json:"variant"`
	Clock   string `json:"clock"`
	Color   string `json:"color"`
	Rated   bool   `json:"rated"`
	Yours   bool   `json:"yours,omitempty"`
}

// listUpdate is the payload of an invitesupdate frame.
type listUpdate struct {
	Invites   []InviteView `json:"invites"`
	GameCount int          `json:"gameCount"`
}

// Service owns the invite list. It implements transport.Handler and
// forwards everything outside the invites route to the manager.
type Service struct {
	logger  *log.Logger
	manager *arena.Manager
	dev     bool

	mu           sync.Mutex
	invites      map[string]*Invite
	subscribers  map[string]transport.Endpoint
	allowInvites bool
	gameCount    int
}

// NewService wires the invite list in front of the manager. dev opens
// the development-only time controls.
func NewService(manager *arena.Manager, dev bool, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "invites"})
	}
	s := &Service{
		logger:       logger,
		manager:      manager,
		dev:          dev,
		invites:      make(map[string]*Invite),
		subscribers:  make(map[string]transport.Endpoint),
		allowInvites: true,
	}
	manager.SetOnActiveGameCountChanged(s.onGameCountChanged)
	return s
}

// HandleMessage implements transport.Handler.
func (s *Service) HandleMessage(ep transport.Endpoint, msg transport.Message) {
	if msg.Route != arena.RouteInvites {
		s.manager.HandleMessage(ep, msg)
		return
	}
	switch msg.Action {
	case ActionCreate:
		s.handleCreate(ep, msg)
	case ActionCancel:
		s.handleCancel(ep, msg)
	case ActionAccept:
		s.handleAccept(ep, msg)
	case ActionSubscribe:
		s.handleSubscribe(ep)
	case ActionUnsubscribe:
		s.handleUnsubscribe(ep)
	default:
		s.logger.Warn("unknown invite action ignored", "action", msg.Action, "endpoint", ep.ID())
	}
}

// HandleClosed implements transport.Handler: the closing endpoint's
// open invites go with it, then the manager runs its disconnect flow.
func (s *Service) HandleClosed(ep transport.Endpoint, reason transport.CloseReason) {
	s.mu.Lock()
	delete(s.subscribers, ep.ID())
	removed := false
	for id, inv := range s.invites {
		if inv.OwnerEndpointID == ep.ID() {
			delete(s.invites, id)
			removed = true
		}
	}
	s.mu.Unlock()
	if removed {
		s.broadcast()
	}
	s.manager.HandleClosed(ep, reason)
}

// SetAllowInvites gates invite creation; used by the flags watcher
// ahead of a restart.
func (s *Service) SetAllowInvites(allow bool) {
	s.mu.Lock()
	changed := s.allowInvites != allow
	s.allowInvites = allow
	s.mu.Unlock()
	if changed {
		s.logger.Info("invite creation toggled", "allowed", allow)
	}
}

type createPayload struct {
	Variant   string `json:"variant"`
	Clock     string `json:"clock"`
	Color     string `json:"color"`
	Rated     bool   `json:"rated"`
	Publicity string `json:"publicity"`
}

func (s *Service) handleCreate(ep transport.Endpoint, msg transport.Message) {
	var p createPayload
	if err := json.Unmarshal(msg.Value, &p); err != nil {
		s.printError(ep, "invalid invite")
		return
	}
	if !clock.IsValid(p.Clock, s.dev) {
		s.printError(ep, "invalid clock value")
		return
	}
	if s.manager.IsPlayerInActiveGame(ep.Identity()) {
		s.notify(ep, "ws-already_in_game")
		return
	}

	s.mu.Lock()
	if !s.allowInvites {
		s.mu.Unlock()
		s.notify(ep, "ws-server_restarting")
		return
	}
	for _, inv := range s.invites {
		if inv.Owner.Key() == ep.Identity().Key() {
			s.mu.Unlock()
			s.notify(ep, "ws-invite_already_open")
			return
		}
	}
	inv := &Invite{
		ID:              uuid.NewString(),
		Owner:           ep.Identity(),
		OwnerEndpointID: ep.ID(),
		Variant:         p.Variant,
		TimeControl:     p.Clock,
		ColorPreference: parseColorPreference(p.Color),
		Rated:           p.Rated,
		Publicity:       parsePublicity(p.Publicity),
	}
	s.invites[inv.ID] = inv
	s.subscribers[ep.ID()] = ep
	s.mu.Unlock()

	s.logger.Info("invite created", "invite", inv.ID, "owner", inv.Owner.Key(), "clock", inv.TimeControl)
	s.broadcast()
}

type idPayload struct {
	ID string `json:"id"`
}

func (s *Service) handleCancel(ep transport.Endpoint, msg transport.Message) {
	var p idPayload
	if err := json.Unmarshal(msg.Value, &p); err != nil {
		s.printError(ep, "invalid invite")
		return
	}
	s.mu.Lock()
	inv, ok := s.invites[p.ID]
	if ok && inv.Owner.Key() != ep.Identity().Key() {
		s.mu.Unlock()
		s.logger.Warn("cancel of someone else's invite", "invite", p.ID, "by", ep.Identity().Key())
		return
	}
	delete(s.invites, p.ID)
	s.mu.Unlock()
	if ok {
		s.broadcast()
	}
}

func (s *Service) handleAccept(ep transport.Endpoint, msg transport.Message) {
	var p idPayload
	if err := json.Unmarshal(msg.Value, &p); err != nil {
		s.printError(ep, "invalid invite")
		return
	}

	s.mu.Lock()
	inv, ok := s.invites[p.ID]
	if !ok {
		s.mu.Unlock()
		s.notify(ep, "ws-invite_no_longer_exists")
		return
	}
	if inv.Owner.Key() == ep.Identity().Key() {
		s.mu.Unlock()
		return
	}
	if s.manager.IsPlayerInActiveGame(ep.Identity()) || s.manager.IsPlayerInActiveGame(inv.Owner) {
		s.mu.Unlock()
		s.notify(ep, "ws-already_in_game")
		return
	}
	delete(s.invites, p.ID)
	// Any invite the accepter had open is consumed too.
	for id, other := range s.invites {
		if other.Owner.Key() == ep.Identity().Key() {
			delete(s.invites, id)
		}
	}
	ownerEp := s.subscribers[inv.OwnerEndpointID]
	s.mu.Unlock()

	if ownerEp != nil && !ownerEp.IsOpen() {
		ownerEp = nil
	}

	g, err := s.manager.CreateGameFromInvite(arena.Invite{
		Variant:         inv.Variant,
		TimeControl:     inv.TimeControl,
		ColorPreference: inv.ColorPreference,
		Rated:           inv.Rated,
		Publicity:       inv.Publicity,
		Owner:           inv.Owner,
		BlackMovesFirst: inv.BlackMovesFirst,
	}, ownerEp, ep)
	if err != nil {
		s.logger.Error("invite acceptance failed", "invite", inv.ID, "error", err)
		s.printError(ep, "invalid invite")
		s.broadcast()
		return
	}
	s.logger.Info("invite accepted", "invite", inv.ID, "game", g.ID, "by", ep.Identity().Key())
	s.broadcast()
}

func (s *Service) handleSubscribe(ep transport.Endpoint) {
	s.mu.Lock()
	s.subscribers[ep.ID()] = ep
	view := s.updateForLocked(ep)
	s.mu.Unlock()
	ep.Send(subjectInvites, sendUpdate, view, "")
}

func (s *Service) handleUnsubscribe(ep transport.Endpoint) {
	s.mu.Lock()
	delete(s.subscribers, ep.ID())
	s.mu.Unlock()
}

func (s *Service) onGameCountChanged(count int) {
	s.mu.Lock()
	s.gameCount = count
	s.mu.Unlock()
	s.broadcast()
}

// broadcast pushes the invite list to every subscriber. Each gets its
// own copy so "yours" is accurate.
func (s *Service) broadcast() {
	s.mu.Lock()
	type delivery struct {
		ep   transport.Endpoint
		view listUpdate
	}
	out := make([]delivery, 0, len(s.subscribers))
	for _, ep := range s.subscribers {
		out = append(out, delivery{ep: ep, view: s.updateForLocked(ep)})
	}
	s.mu.Unlock()
	for _, d := range out {
		if d.ep.IsOpen() {
			d.ep.Send(subjectInvites, sendUpdate, d.view, "")
		}
	}
}

// updateForLocked builds the list one subscriber sees. Callers hold
// s.mu. Private invites only appear to their owner.
func (s *Service) updateForLocked(ep transport.Endpoint) listUpdate {
	u := listUpdate{Invites: []InviteView{}, GameCount: s.gameCount}
	for _, inv := range s.invites {
		yours := inv.Owner.Key() == ep.Identity().Key()
		if inv.Publicity == arena.Private && !yours {
			continue
		}
		u.Invites = append(u.Invites, InviteView{
			ID:      inv.ID,
			Name:    inv.Owner.DisplayName(),
			Variant: inv.Variant,
			Clock:   inv.TimeControl,
			Color:   colorPreferenceString(inv.ColorPreference),
			Rated:   inv.Rated,
			Yours:   yours,
		})
	}
	return u
}

func (s *Service) notify(ep transport.Endpoint, key string) {
	if ep != nil && ep.IsOpen() {
		ep.Send("general", "notify", key, "")
	}
}

func (s *Service) printError(ep transport.Endpoint, text string) {
	if ep != nil && ep.IsOpen() {
		ep.Send("general", "printerror", text, "")
	}
}

func parseColorPreference(s string) player.ColorPreference {
	switch s {
	case "white":
		return player.PrefWhite
	case "black":
		return player.PrefBlack
	}
	return player.PrefRandom
}

func colorPreferenceString(p player.ColorPreference) string {
	switch p {
	case player.PrefWhite:
		return "white"
	case player.PrefBlack:
		return "black"
	}
	return "random"
}

func parsePublicity(s string) arena.Publicity {
	if s == string(arena.Private) {
		return arena.Private
	}
	return arena.Public
}
