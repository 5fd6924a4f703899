// Package icn implements the compact notation used to persist finished
// games: piece placements on an unbounded signed board, move lists, and
// the bracketed header block of a transcript.
package icn

import (
	"fmt"
	"strings"
)

// pieceTokens maps the long piece name to its notation token. Tokens are
// 1-3 letters; uppercase is white, lowercase is black.
var pieceTokens = map[string]string{
	"king":         "K",
	"queen":        "Q",
	"rook":         "R",
	"bishop":       "B",
	"knight":       "N",
	"pawn":         "P",
	"amazon":       "AM",
	"chancellor":   "CH",
	"archbishop":   "AR",
	"guard":        "GU",
	"hawk":         "HA",
	"camel":        "CA",
	"giraffe":      "GI",
	"zebra":        "ZE",
	"knightrider":  "NR",
	"centaur":      "CE",
	"royalQueen":   "RQ",
	"royalCentaur": "RC",
	"rose":         "RO",
	"huygen":       "HU",
}

// tokenPieces is the reverse mapping, keyed by the uppercase token.
var tokenPieces = func() map[string]string {
	m := make(map[string]string, len(pieceTokens))
	for name, tok := range pieceTokens {
		m[tok] = name
	}
	return m
}()

// TokenForPiece returns the notation token for a piece name and color.
func TokenForPiece(name string, white bool) (string, error) {
	tok, ok := pieceTokens[name]
	if !ok {
		return "", fmt.Errorf("icn: unknown piece %q", name)
	}
	if !white {
		return strings.ToLower(tok), nil
	}
	return tok, nil
}

// PieceForToken resolves a notation token to its piece name and color.
// The token must be uniformly upper or lower case.
func PieceForToken(tok string) (name string, white bool, err error) {
	if tok == "" {
		return "", false, fmt.Errorf("icn: empty piece token")
	}
	upper := strings.ToUpper(tok)
	lower := strings.ToLower(tok)
	switch tok {
	case upper:
		white = true
	case lower:
		white = false
	default:
		return "", false, fmt.Errorf("icn: mixed-case piece token %q", tok)
	}
	name, ok := tokenPieces[upper]
	if !ok {
		return "", false, fmt.Errorf("icn: unknown piece token %q", tok)
	}
	return name, white, nil
}
