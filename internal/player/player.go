// Package player defines the identities that can occupy a seat in a game:
// signed-in members and anonymous guests identified by a browser token.
package player

import (
	"strconv"

	"github.com/google/uuid"
)

// GuestDisplayName is shown to the opponent instead of a guest's token.
// The token itself must never leave the server.
const GuestDisplayName = "(Guest)"

// Handle identifies a player for the lifetime of a game. It is the key
// for single-game membership: a handle may be seated in at most one
// active game.
type Handle interface {
	// Key returns a stable string unique across all handles, suitable
	// as a map key.
	Key() string

	// DisplayName returns the name safe to show to the opponent.
	DisplayName() string

	handle()
}

// Member is a signed-in user with a stable account id.
type Member struct {
	UserID int64
	Name   string
}

func (m Member) Key() string         { return "member:" + strconv.FormatInt(m.UserID, 10) }
func (m Member) DisplayName() string { return m.Name }
func (Member) handle()               {}

// Guest is an anonymous player identified by an opaque browser token.
type Guest struct {
	BrowserToken string
}

func (g Guest) Key() string         { return "guest:" + g.BrowserToken }
func (g Guest) DisplayName() string { return GuestDisplayName }
func (Guest) handle()               {}

// NewGuestToken mints a fresh browser token for an anonymous session.
func NewGuestToken() string {
	return uuid.NewString()
}
