package clock

import (
	"testing"
	"time"
)

func TestWhitelist(t *testing.T) {
	valid := []string{
		"-", "60+2", "120+2", "180+2", "300+2", "480+3", "600+4", "600+6",
		"720+5", "900+6", "1200+8", "1500+10", "1800+15", "2400+20",
	}
	for _, s := range valid {
		if !IsValid(s, false) {
			t.Errorf("IsValid(%q) = false, want true", s)
		}
	}

	invalid := []string{"", "60", "60+", "+2", "61+2", "600+4 ", "infinite", "15+2"}
	for _, s := range invalid {
		if IsValid(s, false) {
			t.Errorf("IsValid(%q) = true, want false", s)
		}
	}
}

func TestDevWhitelist(t *testing.T) {
	if IsValid("15+2", false) {
		t.Error("15+2 should be rejected outside development")
	}
	if !IsValid("15+2", true) {
		t.Error("15+2 should be accepted in development")
	}
}

func TestParseTimed(t *testing.T) {
	c, err := Parse("600+4")
	if err != nil {
		t.Fatalf("Parse(600+4): %v", err)
	}
	if c.Infinite {
		t.Error("600+4 should not be infinite")
	}
	if c.Initial != 10*time.Minute {
		t.Errorf("Initial = %v, want 10m", c.Initial)
	}
	if c.Increment != 4*time.Second {
		t.Errorf("Increment = %v, want 4s", c.Increment)
	}
	if c.String() != "600+4" {
		t.Errorf("String() = %q, want 600+4", c.String())
	}
}

func TestParseUntimed(t *testing.T) {
	c, err := Parse("-")
	if err != nil {
		t.Fatalf("Parse(-): %v", err)
	}
	if !c.Infinite {
		t.Error("- should parse as infinite")
	}
	if c.String() != "-" {
		t.Errorf("String() = %q, want -", c.String())
	}
}

// Every whitelisted control must parse.
func TestValidImpliesParses(t *testing.T) {
	for _, s := range []string{
		"-", "60+2", "120+2", "180+2", "300+2", "480+3", "600+4", "600+6",
		"720+5", "900+6", "1200+8", "1500+10", "1800+15", "2400+20", "15+2",
	} {
		if _, err := Parse(s); err != nil {
			t.Errorf("Parse(%q): %v", s, err)
		}
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "abc", "60", "60+x", "-5+2", "1e3+2", "NaN+2"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", s)
		}
	}
}
