package transport

import (
	"testing"

	"github.com/vovakirdan/chess-arena/internal/player"
)

func TestChannelEndpointDropsOldestWhenFull(t *testing.T) {
	ep := NewChannelEndpoint("ep-1", player.Guest{BrowserToken: "tok"}, 2)

	ep.Send("game", "a", nil, "")
	ep.Send("game", "b", nil, "")
	ep.Send("game", "c", nil, "") // evicts "a"

	got := []string{(<-ep.Events()).Action, (<-ep.Events()).Action}
	if got[0] != "b" || got[1] != "c" {
		t.Errorf("buffered actions = %v, want [b c]", got)
	}
}

func TestChannelEndpointSendAfterClose(t *testing.T) {
	ep := NewChannelEndpoint("ep-1", player.Guest{BrowserToken: "tok"}, 2)
	ep.Close()
	ep.Close() // idempotent

	ep.Send("game", "a", nil, "")
	select {
	case out := <-ep.Events():
		t.Errorf("unexpected frame after close: %+v", out)
	default:
	}
	if ep.IsOpen() {
		t.Error("IsOpen() = true after Close")
	}
}

func TestChannelEndpointSubscriptionSlot(t *testing.T) {
	ep := NewChannelEndpoint("", player.Member{UserID: 7, Name: "Alice"}, 4)
	if ep.ID() == "" {
		t.Fatal("empty id should be replaced")
	}
	if _, ok := ep.Subscription(); ok {
		t.Fatal("fresh endpoint should have no subscription")
	}

	ep.Subscribe(Subscription{GameID: "abc12", Color: player.Black})
	sub, ok := ep.Subscription()
	if !ok || sub.GameID != "abc12" || sub.Color != player.Black {
		t.Errorf("Subscription() = %+v, %v", sub, ok)
	}

	ep.Unsubscribe()
	if _, ok := ep.Subscription(); ok {
		t.Error("subscription should be cleared")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a := NewChannelEndpoint("a", player.Guest{BrowserToken: "t1"}, 1)
	b := NewChannelEndpoint("b", player.Guest{BrowserToken: "t2"}, 1)

	r.Register(a)
	r.Register(b)
	if r.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", r.Count())
	}
	if got, ok := r.Get("a"); !ok || got.ID() != "a" {
		t.Errorf("Get(a) = %v, %v", got, ok)
	}

	r.Unregister("a")
	if _, ok := r.Get("a"); ok {
		t.Error("endpoint a should be gone")
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}
}
