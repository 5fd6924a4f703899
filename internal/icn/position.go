package icn

import (
	"fmt"
	"strconv"
	"strings"
)

// Coord is a square on the unbounded board. Coordinates are signed and
// must be integers; the text forms "1.5,3", "inf,2" or "NaN,NaN" are all
// rejected by the parser.
type Coord struct {
	X, Y int64
}

func (c Coord) String() string {
	return strconv.FormatInt(c.X, 10) + "," + strconv.FormatInt(c.Y, 10)
}

// ParseCoord parses "x,y" with signed integer components.
func ParseCoord(s string) (Coord, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return Coord{}, fmt.Errorf("icn: malformed coordinate %q", s)
	}
	x, err := strconv.ParseInt(xs, 10, 64)
	if err != nil {
		return Coord{}, fmt.Errorf("icn: non-integer x in %q", s)
	}
	y, err := strconv.ParseInt(ys, 10, 64)
	if err != nil {
		return Coord{}, fmt.Errorf("icn: non-integer y in %q", s)
	}
	return Coord{X: x, Y: y}, nil
}

// Placement is one piece on the board. Special marks the "+" suffix: the
// piece still holds its one-time privilege (pawn double-push, castling
// right).
type Placement struct {
	Piece   string // long name, see pieceTokens
	White   bool
	At      Coord
	Special bool
}

// EncodePosition renders placements as "<token><x>,<y>[+]" joined by "|".
func EncodePosition(pieces []Placement) (string, error) {
	parts := make([]string, 0, len(pieces))
	for _, p := range pieces {
		tok, err := TokenForPiece(p.Piece, p.White)
		if err != nil {
			return "", err
		}
		s := tok + p.At.String()
		if p.Special {
			s += "+"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "|"), nil
}

// ParsePosition parses a pipe-separated placement string.
func ParsePosition(s string) ([]Placement, error) {
	if s == "" {
		return nil, nil
	}
	segments := strings.Split(s, "|")
	pieces := make([]Placement, 0, len(segments))
	for _, seg := range segments {
		p, err := parsePlacement(seg)
		if err != nil {
			return nil, err
		}
		pieces = append(pieces, p)
	}
	return pieces, nil
}

func parsePlacement(seg string) (Placement, error) {
	// Token is the leading run of letters; the coordinate follows.
	i := 0
	for i < len(seg) && isLetter(seg[i]) {
		i++
	}
	if i == 0 || i == len(seg) {
		return Placement{}, fmt.Errorf("icn: malformed placement %q", seg)
	}
	tok := seg[:i]
	rest := seg[i:]

	special := false
	if strings.HasSuffix(rest, "+") {
		special = true
		rest = rest[:len(rest)-1]
	}

	at, err := ParseCoord(rest)
	if err != nil {
		return Placement{}, err
	}
	name, white, err := PieceForToken(tok)
	if err != nil {
		return Placement{}, err
	}
	return Placement{Piece: name, White: white, At: at, Special: special}, nil
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
