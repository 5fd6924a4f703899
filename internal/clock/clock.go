// Package clock parses the time-control strings games are created with.
// A control is either the untimed sentinel "-" or "<seconds>+<increment>".
package clock

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Untimed is the sentinel for games without clocks.
const Untimed = "-"

// Control is a parsed time control. The zero Initial with Infinite unset
// never occurs for a valid string.
type Control struct {
	Infinite  bool
	Initial   time.Duration
	Increment time.Duration
}

// whitelist is the closed set of controls the service offers.
var whitelist = map[string]struct{}{
	Untimed:   {},
	"60+2":    {},
	"120+2":   {},
	"180+2":   {},
	"300+2":   {},
	"480+3":   {},
	"600+4":   {},
	"600+6":   {},
	"720+5":   {},
	"900+6":   {},
	"1200+8":  {},
	"1500+10": {},
	"1800+15": {},
	"2400+20": {},
}

// devWhitelist holds short controls enabled only in development.
var devWhitelist = map[string]struct{}{
	"15+2": {},
}

// IsValid reports whether s is an offered time control. When dev is true
// the development-only controls are accepted as well.
func IsValid(s string, dev bool) bool {
	if _, ok := whitelist[s]; ok {
		return true
	}
	if dev {
		_, ok := devWhitelist[s]
		return ok
	}
	return false
}

// Parse converts a time-control string to a Control. It accepts any
// syntactically well-formed "<seconds>+<increment>" so that validation
// and parsing can be layered independently.
func Parse(s string) (Control, error) {
	if s == Untimed {
		return Control{Infinite: true}, nil
	}
	base, inc, ok := strings.Cut(s, "+")
	if !ok {
		return Control{}, fmt.Errorf("clock: malformed time control %q", s)
	}
	seconds, err := strconv.ParseInt(base, 10, 64)
	if err != nil || seconds <= 0 {
		return Control{}, fmt.Errorf("clock: bad initial time in %q", s)
	}
	increment, err := strconv.ParseInt(inc, 10, 64)
	if err != nil || increment < 0 {
		return Control{}, fmt.Errorf("clock: bad increment in %q", s)
	}
	return Control{
		Initial:   time.Duration(seconds) * time.Second,
		Increment: time.Duration(increment) * time.Second,
	}, nil
}

// String renders the control back to its wire form.
func (c Control) String() string {
	if c.Infinite {
		return Untimed
	}
	return fmt.Sprintf("%d+%d", int64(c.Initial/time.Second), int64(c.Increment/time.Second))
}
