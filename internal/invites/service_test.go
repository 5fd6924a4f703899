package invites

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/chess-arena/internal/arena"
	"github.com/vovakirdan/chess-arena/internal/player"
	"github.com/vovakirdan/chess-arena/internal/transport"
)

type fakeEndpoint struct {
	id       string
	identity player.Handle

	mu     sync.Mutex
	frames []fakeFrame
	sub    *transport.Subscription
}

type fakeFrame struct {
	Subject string
	Action  string
	Value   any
}

func newFakeEndpoint(id string, identity player.Handle) *fakeEndpoint {
	return &fakeEndpoint{id: id, identity: identity}
}

func (e *fakeEndpoint) ID() string              { return e.id }
func (e *fakeEndpoint) Identity() player.Handle { return e.identity }
func (e *fakeEndpoint) IsOpen() bool            { return true }

func (e *fakeEndpoint) Send(subject, action string, value any, replyTo string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.frames = append(e.frames, fakeFrame{Subject: subject, Action: action, Value: value})
}

func (e *fakeEndpoint) Subscription() (transport.Subscription, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sub == nil {
		return transport.Subscription{}, false
	}
	return *e.sub, true
}

func (e *fakeEndpoint) Subscribe(sub transport.Subscription) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sub = &sub
}

func (e *fakeEndpoint) Unsubscribe() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sub = nil
}

func (e *fakeEndpoint) lastFrame(action string) (fakeFrame, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := len(e.frames) - 1; i >= 0; i-- {
		if e.frames[i].Action == action {
			return e.frames[i], true
		}
	}
	return fakeFrame{}, false
}

func newTestService(t *testing.T) (*Service, *arena.Manager) {
	t.Helper()
	m := arena.New(arena.DefaultConfig(), nil, log.New(io.Discard))
	return NewService(m, true, log.New(io.Discard)), m
}

func invitesMessage(t *testing.T, action string, value any) transport.Message {
	t.Helper()
	raw, err := json.Marshal(value)
	require.NoError(t, err)
	return transport.Message{Route: arena.RouteInvites, Action: action, Value: raw}
}

func createInvite(t *testing.T, s *Service, ep *fakeEndpoint, publicity string) string {
	t.Helper()
	s.HandleMessage(ep, invitesMessage(t, ActionCreate, createPayload{
		Variant:   "Classical",
		Clock:     "600+4",
		Color:     "white",
		Publicity: publicity,
	}))
	f, ok := ep.lastFrame(sendUpdate)
	require.True(t, ok, "owner should receive an invite list")
	u := f.Value.(listUpdate)
	require.Len(t, u.Invites, 1)
	require.True(t, u.Invites[0].Yours)
	return u.Invites[0].ID
}

func TestCreateInviteBroadcasts(t *testing.T) {
	s, _ := newTestService(t)
	alice := newFakeEndpoint("ep-a", player.Member{UserID: 1, Name: "Alice"})
	bob := newFakeEndpoint("ep-b", player.Member{UserID: 2, Name: "Bob"})

	s.HandleMessage(bob, invitesMessage(t, ActionSubscribe, nil))
	id := createInvite(t, s, alice, "public")

	f, ok := bob.lastFrame(sendUpdate)
	require.True(t, ok)
	u := f.Value.(listUpdate)
	require.Len(t, u.Invites, 1)
	assert.Equal(t, id, u.Invites[0].ID)
	assert.Equal(t, "Alice", u.Invites[0].Name)
	assert.False(t, u.Invites[0].Yours)
}

func TestCreateInviteRejectsBadClock(t *testing.T) {
	s, _ := newTestService(t)
	alice := newFakeEndpoint("ep-a", player.Member{UserID: 1, Name: "Alice"})

	s.HandleMessage(alice, invitesMessage(t, ActionCreate, createPayload{Clock: "13+37"}))

	f, ok := alice.lastFrame("printerror")
	require.True(t, ok)
	assert.Equal(t, "invalid clock value", f.Value)
}

func TestCreateInviteRejectsDuplicate(t *testing.T) {
	s, _ := newTestService(t)
	alice := newFakeEndpoint("ep-a", player.Member{UserID: 1, Name: "Alice"})

	createInvite(t, s, alice, "public")
	s.HandleMessage(alice, invitesMessage(t, ActionCreate, createPayload{Clock: "600+4"}))

	f, ok := alice.lastFrame("notify")
	require.True(t, ok)
	assert.Equal(t, "ws-invite_already_open", f.Value)
}

func TestCreateInviteBlockedBeforeRestart(t *testing.T) {
	s, _ := newTestService(t)
	s.SetAllowInvites(false)
	alice := newFakeEndpoint("ep-a", player.Member{UserID: 1, Name: "Alice"})

	s.HandleMessage(alice, invitesMessage(t, ActionCreate, createPayload{Clock: "600+4"}))

	f, ok := alice.lastFrame("notify")
	require.True(t, ok)
	assert.Equal(t, "ws-server_restarting", f.Value)
}

func TestPrivateInviteHiddenFromOthers(t *testing.T) {
	s, _ := newTestService(t)
	alice := newFakeEndpoint("ep-a", player.Member{UserID: 1, Name: "Alice"})
	bob := newFakeEndpoint("ep-b", player.Member{UserID: 2, Name: "Bob"})

	s.HandleMessage(bob, invitesMessage(t, ActionSubscribe, nil))
	createInvite(t, s, alice, "private")

	f, ok := bob.lastFrame(sendUpdate)
	require.True(t, ok)
	assert.Empty(t, f.Value.(listUpdate).Invites)
}

func TestAcceptInviteStartsGame(t *testing.T) {
	s, m := newTestService(t)
	alice := newFakeEndpoint("ep-a", player.Member{UserID: 1, Name: "Alice"})
	bob := newFakeEndpoint("ep-b", player.Member{UserID: 2, Name: "Bob"})

	id := createInvite(t, s, alice, "public")
	s.HandleMessage(bob, invitesMessage(t, ActionAccept, idPayload{ID: id}))

	assert.Equal(t, 1, m.ActiveGameCount())
	assert.True(t, m.IsPlayerInActiveGame(alice.identity))
	assert.True(t, m.IsPlayerInActiveGame(bob.identity))
	_, ok := alice.lastFrame("joingame")
	assert.True(t, ok)
	_, ok = bob.lastFrame("joingame")
	assert.True(t, ok)

	f, ok := alice.lastFrame(sendUpdate)
	require.True(t, ok)
	assert.Empty(t, f.Value.(listUpdate).Invites)
}

func TestAcceptOwnInviteIgnored(t *testing.T) {
	s, m := newTestService(t)
	alice := newFakeEndpoint("ep-a", player.Member{UserID: 1, Name: "Alice"})

	id := createInvite(t, s, alice, "public")
	s.HandleMessage(alice, invitesMessage(t, ActionAccept, idPayload{ID: id}))

	assert.Equal(t, 0, m.ActiveGameCount())
}

func TestAcceptMissingInvite(t *testing.T) {
	s, _ := newTestService(t)
	bob := newFakeEndpoint("ep-b", player.Member{UserID: 2, Name: "Bob"})

	s.HandleMessage(bob, invitesMessage(t, ActionAccept, idPayload{ID: "nope"}))

	f, ok := bob.lastFrame("notify")
	require.True(t, ok)
	assert.Equal(t, "ws-invite_no_longer_exists", f.Value)
}

func TestCancelInvite(t *testing.T) {
	s, _ := newTestService(t)
	alice := newFakeEndpoint("ep-a", player.Member{UserID: 1, Name: "Alice"})

	id := createInvite(t, s, alice, "public")
	s.HandleMessage(alice, invitesMessage(t, ActionCancel, idPayload{ID: id}))

	f, ok := alice.lastFrame(sendUpdate)
	require.True(t, ok)
	assert.Empty(t, f.Value.(listUpdate).Invites)
}

func TestEndpointCloseRemovesItsInvites(t *testing.T) {
	s, _ := newTestService(t)
	alice := newFakeEndpoint("ep-a", player.Member{UserID: 1, Name: "Alice"})
	bob := newFakeEndpoint("ep-b", player.Member{UserID: 2, Name: "Bob"})

	s.HandleMessage(bob, invitesMessage(t, ActionSubscribe, nil))
	createInvite(t, s, alice, "public")
	s.HandleClosed(alice, transport.ClosedNotByChoice)

	f, ok := bob.lastFrame(sendUpdate)
	require.True(t, ok)
	assert.Empty(t, f.Value.(listUpdate).Invites)
}

func TestWatcherAnnouncesAndClearsRestart(t *testing.T) {
	s, m := newTestService(t)
	alice := newFakeEndpoint("ep-a", player.Member{UserID: 1, Name: "Alice"})
	bob := newFakeEndpoint("ep-b", player.Member{UserID: 2, Name: "Bob"})
	id := createInvite(t, s, alice, "public")
	s.HandleMessage(bob, invitesMessage(t, ActionAccept, idPayload{ID: id}))
	require.Equal(t, 1, m.ActiveGameCount())

	path := filepath.Join(t.TempDir(), "allowinvites.json")
	w := NewWatcher(path, time.Second, s, m, log.New(io.Discard))

	// Missing file: normal operation.
	w.Poll()
	_, announced := alice.lastFrame("serverrestart")
	assert.False(t, announced)

	require.NoError(t, os.WriteFile(path, []byte(`{"allowInvites": false, "restartIn": 1}`), 0o644))
	w.Poll()
	f, ok := alice.lastFrame("serverrestart")
	require.True(t, ok)
	assert.NotNil(t, f.Value)

	carol := newFakeEndpoint("ep-c", player.Member{UserID: 3, Name: "Carol"})
	s.HandleMessage(carol, invitesMessage(t, ActionCreate, createPayload{Clock: "600+4"}))
	nf, ok := carol.lastFrame("notify")
	require.True(t, ok)
	assert.Equal(t, "ws-server_restarting", nf.Value)

	require.NoError(t, os.WriteFile(path, []byte(`{"allowInvites": true, "restartIn": 0}`), 0o644))
	w.Poll()
	f, ok = bob.lastFrame("serverrestart")
	require.True(t, ok)
	assert.Nil(t, f.Value)
}
