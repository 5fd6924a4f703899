package player

import "testing"

func TestHandleKeys(t *testing.T) {
	alice := Member{UserID: 42, Name: "Alice"}
	if alice.Key() != "member:42" {
		t.Errorf("Key() = %q", alice.Key())
	}
	if alice.DisplayName() != "Alice" {
		t.Errorf("DisplayName() = %q", alice.DisplayName())
	}

	// Renames do not change who the member is.
	renamed := Member{UserID: 42, Name: "Alicia"}
	if renamed.Key() != alice.Key() {
		t.Error("member identity should follow the user id, not the name")
	}

	guest := Guest{BrowserToken: "tok-1"}
	if guest.Key() != "guest:tok-1" {
		t.Errorf("Key() = %q", guest.Key())
	}
	if guest.DisplayName() != GuestDisplayName {
		t.Errorf("DisplayName() = %q", guest.DisplayName())
	}

	if (Member{UserID: 1}).Key() == (Guest{BrowserToken: "1"}).Key() {
		t.Error("member and guest keys must not collide")
	}
}

func TestNewGuestTokenUnique(t *testing.T) {
	if NewGuestToken() == NewGuestToken() {
		t.Error("tokens should be unique")
	}
}

func TestColorOpposite(t *testing.T) {
	if White.Opposite() != Black || Black.Opposite() != White {
		t.Error("Opposite() is not an involution")
	}
	if White.String() != "white" || Black.String() != "black" {
		t.Errorf("String() = %q/%q", White.String(), Black.String())
	}
}
