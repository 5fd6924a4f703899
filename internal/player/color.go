package player

// Color is one of the two seats of a game.
type Color int

const (
	White Color = iota
	Black
)

// Opposite returns the other seat.
func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// ColorPreference is the seat the invite owner asked for.
type ColorPreference string

const (
	PrefWhite  ColorPreference = "White"
	PrefBlack  ColorPreference = "Black"
	PrefRandom ColorPreference = "Random"
)
