package transport

import (
	"sync"

	"github.com/google/uuid"

	"github.com/vovakirdan/chess-arena/internal/player"
)

// Subscription is the endpoint's slot pointing at the game it is
// attached to and the seat it occupies there.
type Subscription struct {
	GameID string
	Color  player.Color
}

// Endpoint is a handle to one connected client.
type Endpoint interface {
	// ID identifies the connection, not the player; one player may open
	// several connections over a game's lifetime.
	ID() string

	// Identity returns the authenticated player behind the connection.
	Identity() player.Handle

	// Send enqueues one addressed frame. Must never block.
	Send(subject, action string, value any, replyTo string)

	// IsOpen reports whether the connection is still usable.
	IsOpen() bool

	// Subscription returns the current game slot, if any.
	Subscription() (Subscription, bool)

	// Subscribe sets the game slot.
	Subscribe(sub Subscription)

	// Unsubscribe clears the game slot.
	Unsubscribe()
}

// ChannelEndpoint is an Endpoint backed by a buffered channel. The
// transport's writer goroutine drains Events; if the buffer fills the
// oldest frame is dropped so a slow client cannot stall a game.
type ChannelEndpoint struct {
	id       string
	identity player.Handle

	events    chan Outbound
	done      chan struct{}
	closeOnce sync.Once

	mu  sync.Mutex
	sub *Subscription
}

// NewChannelEndpoint creates an endpoint for an authenticated player.
// An empty id is replaced with a fresh one.
func NewChannelEndpoint(id string, identity player.Handle, buffer int) *ChannelEndpoint {
	if id == "" {
		id = uuid.NewString()
	}
	if buffer < 1 {
		buffer = 64
	}
	return &ChannelEndpoint{
		id:       id,
		identity: identity,
		events:   make(chan Outbound, buffer),
		done:     make(chan struct{}),
	}
}

func (e *ChannelEndpoint) ID() string              { return e.id }
func (e *ChannelEndpoint) Identity() player.Handle { return e.identity }

// Send enqueues a frame, dropping the oldest pending frame when full.
func (e *ChannelEndpoint) Send(subject, action string, value any, replyTo string) {
	out := Outbound{Subject: subject, Action: action, Value: value, ReplyTo: replyTo}
	select {
	case <-e.done:
		return
	default:
	}
	select {
	case e.events <- out:
	default:
		select {
		case <-e.events:
		default:
		}
		select {
		case e.events <- out:
		default:
		}
	}
}

// Events is the channel the writer goroutine drains.
func (e *ChannelEndpoint) Events() <-chan Outbound { return e.events }

// Done closes when the endpoint is closed.
func (e *ChannelEndpoint) Done() <-chan struct{} { return e.done }

func (e *ChannelEndpoint) IsOpen() bool {
	select {
	case <-e.done:
		return false
	default:
		return true
	}
}

// Close marks the endpoint closed. Safe to call more than once.
func (e *ChannelEndpoint) Close() {
	e.closeOnce.Do(func() { close(e.done) })
}

func (e *ChannelEndpoint) Subscription() (Subscription, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sub == nil {
		return Subscription{}, false
	}
	return *e.sub, true
}

func (e *ChannelEndpoint) Subscribe(sub Subscription) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sub = &sub
}

func (e *ChannelEndpoint) Unsubscribe() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sub = nil
}
