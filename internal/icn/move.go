package icn

import (
	"fmt"
	"strings"
)

// Move is one ply. Promotion holds the piece token exactly as written.
// Capture, Check and Mate are display annotations; the compact form drops
// them together with the "=" before the promotion token.
type Move struct {
	From      Coord
	To        Coord
	Promotion string
	Capture   bool
	Check     bool
	Mate      bool
}

// String renders the fully annotated form: "1,2>3,4x=Q+".
func (m Move) String() string {
	var b strings.Builder
	b.WriteString(m.From.String())
	b.WriteByte('>')
	b.WriteString(m.To.String())
	if m.Capture {
		b.WriteByte('x')
	}
	if m.Promotion != "" {
		b.WriteByte('=')
		b.WriteString(m.Promotion)
	}
	if m.Mate {
		b.WriteByte('#')
	} else if m.Check {
		b.WriteByte('+')
	}
	return b.String()
}

// Compact renders the move without annotations: "1,2>3,4Q".
func (m Move) Compact() string {
	s := m.From.String() + ">" + m.To.String()
	if m.Promotion != "" {
		s += m.Promotion
	}
	return s
}

// ParseMove parses either the annotated or the compact form.
func ParseMove(s string) (Move, error) {
	fromStr, rest, ok := strings.Cut(s, ">")
	if !ok {
		return Move{}, fmt.Errorf("icn: malformed move %q", s)
	}
	var m Move
	var err error
	if m.From, err = ParseCoord(fromStr); err != nil {
		return Move{}, fmt.Errorf("icn: malformed move %q: %w", s, err)
	}

	coordLen := coordPrefixLen(rest)
	if coordLen == 0 {
		return Move{}, fmt.Errorf("icn: malformed move %q", s)
	}
	if m.To, err = ParseCoord(rest[:coordLen]); err != nil {
		return Move{}, fmt.Errorf("icn: malformed move %q: %w", s, err)
	}
	tail := rest[coordLen:]

	switch {
	case strings.HasSuffix(tail, "#"):
		m.Mate = true
		tail = tail[:len(tail)-1]
	case strings.HasSuffix(tail, "+"):
		m.Check = true
		tail = tail[:len(tail)-1]
	}
	if strings.HasPrefix(tail, "x") {
		m.Capture = true
		tail = tail[1:]
	}
	tail = strings.TrimPrefix(tail, "=")
	if tail != "" {
		for i := 0; i < len(tail); i++ {
			if !isLetter(tail[i]) {
				return Move{}, fmt.Errorf("icn: bad promotion in move %q", s)
			}
		}
		m.Promotion = tail
	}
	return m, nil
}

// ValidateSubmittedMove enforces the strict wire form a client may submit:
// "x,y>x,y" with an optional trailing promotion token of letters only.
func ValidateSubmittedMove(s string) error {
	fromStr, rest, ok := strings.Cut(s, ">")
	if !ok {
		return fmt.Errorf("icn: malformed move %q", s)
	}
	if _, err := ParseCoord(fromStr); err != nil {
		return err
	}
	coordLen := coordPrefixLen(rest)
	if coordLen == 0 {
		return fmt.Errorf("icn: malformed move %q", s)
	}
	if _, err := ParseCoord(rest[:coordLen]); err != nil {
		return err
	}
	for i := coordLen; i < len(rest); i++ {
		if !isLetter(rest[i]) {
			return fmt.Errorf("icn: bad promotion in move %q", s)
		}
	}
	return nil
}

// coordPrefixLen returns the length of the leading "x,y" run of rest,
// or 0 if rest does not start with a coordinate.
func coordPrefixLen(rest string) int {
	i := 0
	scanInt := func() bool {
		if i < len(rest) && rest[i] == '-' {
			i++
		}
		start := i
		for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
			i++
		}
		return i > start
	}
	if !scanInt() {
		return 0
	}
	if i >= len(rest) || rest[i] != ',' {
		return 0
	}
	i++
	if !scanInt() {
		return 0
	}
	return i
}
