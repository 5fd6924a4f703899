package icn

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Header is one "[Key: Value]" line of a transcript.
type Header struct {
	Key   string
	Value string
}

// MoveRule is the "mvs/max" fraction of the fifty-move-style rule.
type MoveRule struct {
	Count int64
	Max   int64
}

// Document is a full transcript: headers, the game description line
// (turn, en passant, move rule, full-move counter, promotion ranks, win
// conditions, extra rules, position) and the move list.
type Document struct {
	Headers []Header

	WhiteToMove    bool
	EnPassant      *Coord
	MoveRule       *MoveRule
	FullMove       int64
	PromotionRanks []int64
	WinConditions  []string
	ExtraRules     json.RawMessage // optional JSON blob for other rules
	Position       []Placement

	Moves []Move
}

// SerializeOptions controls optional annotations of the output.
type SerializeOptions struct {
	// CompactMoves drops the "=", "x", "+", "#" move annotations.
	CompactMoves bool
}

// Serialize renders the document. The layout is: one header per line, a
// blank line, the description line, a blank line, then the moves.
func Serialize(doc *Document, opts SerializeOptions) (string, error) {
	var b strings.Builder
	for _, h := range doc.Headers {
		fmt.Fprintf(&b, "[%s: %s]\n", h.Key, h.Value)
	}
	b.WriteByte('\n')

	fields := []string{turnIndicator(doc.WhiteToMove)}
	if doc.EnPassant != nil {
		fields = append(fields, doc.EnPassant.String())
	}
	if doc.MoveRule != nil {
		fields = append(fields, fmt.Sprintf("%d/%d", doc.MoveRule.Count, doc.MoveRule.Max))
	}
	fields = append(fields, strconv.FormatInt(doc.FullMove, 10))
	if len(doc.PromotionRanks) > 0 {
		ranks := make([]string, len(doc.PromotionRanks))
		for i, r := range doc.PromotionRanks {
			ranks[i] = strconv.FormatInt(r, 10)
		}
		fields = append(fields, "("+strings.Join(ranks, ",")+")")
	}
	if len(doc.WinConditions) > 0 {
		fields = append(fields, "("+strings.Join(doc.WinConditions, ",")+")")
	}
	if len(doc.ExtraRules) > 0 {
		if !json.Valid(doc.ExtraRules) {
			return "", fmt.Errorf("icn: extra rules are not valid JSON")
		}
		fields = append(fields, string(doc.ExtraRules))
	}
	if len(doc.Position) > 0 {
		pos, err := EncodePosition(doc.Position)
		if err != nil {
			return "", err
		}
		fields = append(fields, pos)
	}
	b.WriteString(strings.Join(fields, " "))
	b.WriteByte('\n')

	if len(doc.Moves) > 0 {
		b.WriteByte('\n')
		moves := make([]string, len(doc.Moves))
		for i, m := range doc.Moves {
			if opts.CompactMoves {
				moves[i] = m.Compact()
			} else {
				moves[i] = m.String()
			}
		}
		b.WriteString(strings.Join(moves, " "))
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// Parse reads a transcript back into a Document.
func Parse(text string) (*Document, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	doc := &Document{}

	i := 0
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "[") {
			break
		}
		if !strings.HasSuffix(line, "]") {
			return nil, fmt.Errorf("icn: unterminated header %q", line)
		}
		key, value, ok := strings.Cut(line[1:len(line)-1], ":")
		if !ok {
			return nil, fmt.Errorf("icn: malformed header %q", line)
		}
		doc.Headers = append(doc.Headers, Header{
			Key:   strings.TrimSpace(key),
			Value: strings.TrimSpace(value),
		})
	}

	// Description line.
	for ; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "" {
			break
		}
	}
	if i == len(lines) {
		return nil, fmt.Errorf("icn: missing game description line")
	}
	fields, err := splitFields(strings.TrimSpace(lines[i]))
	if err != nil {
		return nil, err
	}
	if err := doc.parseDescription(fields); err != nil {
		return nil, err
	}
	i++

	// Everything that remains is moves.
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		for _, f := range strings.Fields(line) {
			m, err := ParseMove(f)
			if err != nil {
				return nil, err
			}
			doc.Moves = append(doc.Moves, m)
		}
	}
	return doc, nil
}

func (doc *Document) parseDescription(fields []string) error {
	if len(fields) == 0 {
		return fmt.Errorf("icn: empty game description line")
	}
	switch fields[0] {
	case "w":
		doc.WhiteToMove = true
	case "b":
		doc.WhiteToMove = false
	default:
		return fmt.Errorf("icn: bad turn indicator %q", fields[0])
	}

	sawFullMove := false
	for _, f := range fields[1:] {
		switch {
		case strings.HasPrefix(f, "{"):
			if !json.Valid([]byte(f)) {
				return fmt.Errorf("icn: invalid rules JSON %q", f)
			}
			doc.ExtraRules = json.RawMessage(f)

		case strings.HasPrefix(f, "("):
			if !strings.HasSuffix(f, ")") {
				return fmt.Errorf("icn: unterminated group %q", f)
			}
			inner := strings.Split(f[1:len(f)-1], ",")
			if ranks, ok := parseRanks(inner); ok && doc.PromotionRanks == nil && doc.WinConditions == nil {
				doc.PromotionRanks = ranks
			} else {
				doc.WinConditions = inner
			}

		case strings.Contains(f, "/"):
			cs, ms, _ := strings.Cut(f, "/")
			count, err1 := strconv.ParseInt(cs, 10, 64)
			max, err2 := strconv.ParseInt(ms, 10, 64)
			if err1 != nil || err2 != nil {
				return fmt.Errorf("icn: bad move-rule fraction %q", f)
			}
			doc.MoveRule = &MoveRule{Count: count, Max: max}

		case isPlacementField(f):
			pos, err := ParsePosition(f)
			if err != nil {
				return err
			}
			doc.Position = pos

		case strings.Contains(f, ","):
			c, err := ParseCoord(f)
			if err != nil {
				return err
			}
			doc.EnPassant = &c

		default:
			n, err := strconv.ParseInt(f, 10, 64)
			if err != nil || sawFullMove {
				return fmt.Errorf("icn: unrecognized description field %q", f)
			}
			doc.FullMove = n
			sawFullMove = true
		}
	}
	return nil
}

func parseRanks(parts []string) ([]int64, bool) {
	ranks := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, false
		}
		ranks = append(ranks, n)
	}
	return ranks, true
}

// isPlacementField reports whether a description field is a position
// string: it starts with a piece letter rather than a digit, sign,
// paren or brace.
func isPlacementField(f string) bool {
	return len(f) > 0 && isLetter(f[0])
}

// splitFields splits the description line on spaces while keeping a
// "{...}" JSON blob together. An unterminated brace is an error.
func splitFields(line string) ([]string, error) {
	var fields []string
	for i := 0; i < len(line); {
		for i < len(line) && line[i] == ' ' {
			i++
		}
		if i == len(line) {
			break
		}
		if line[i] == '{' {
			depth := 0
			start := i
			inString := false
			for ; i < len(line); i++ {
				switch line[i] {
				case '"':
					if i == 0 || line[i-1] != '\\' {
						inString = !inString
					}
				case '{':
					if !inString {
						depth++
					}
				case '}':
					if !inString {
						depth--
					}
				}
				if depth == 0 && line[i] == '}' {
					i++
					break
				}
			}
			if depth != 0 {
				return nil, fmt.Errorf("icn: unterminated {...} in %q", line)
			}
			fields = append(fields, line[start:i])
			continue
		}
		start := i
		for i < len(line) && line[i] != ' ' {
			i++
		}
		fields = append(fields, line[start:i])
	}
	return fields, nil
}

func turnIndicator(white bool) string {
	if white {
		return "w"
	}
	return "b"
}
