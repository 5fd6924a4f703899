package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestLoadCustomPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arena.yaml")
	body := `
server:
  addr: ":9000"
timings:
  afk_auto_resign_sec: 7
  draw_offer_cadence: 3
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Addr = %q, want :9000", cfg.Server.Addr)
	}
	if got := cfg.Timings.ArenaConfig().AFKAutoResign; got != 7*time.Second {
		t.Errorf("AFKAutoResign = %v, want 7s", got)
	}
	if cfg.Timings.DrawOfferCadence != 3 {
		t.Errorf("DrawOfferCadence = %d, want 3", cfg.Timings.DrawOfferCadence)
	}
}

func TestLoadMissingCustomPathFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load() with missing custom path should fail")
	}
}

func TestEmbeddedDefaultMatchesHardcoded(t *testing.T) {
	var cfg Config
	if err := yaml.Unmarshal(defaultArenaYAML, &cfg); err != nil {
		t.Fatalf("embedded default: %v", err)
	}
	want := DefaultConfig()
	if cfg != want {
		t.Errorf("embedded default = %+v, want %+v", cfg, want)
	}
	if got := want.Timings.ArenaConfig(); got.DeletionGrace != 15*time.Second {
		t.Errorf("DeletionGrace = %v, want 15s", got.DeletionGrace)
	}
}

func TestEnvFromOS(t *testing.T) {
	t.Setenv("ARENA_ENV", "production")
	if env := EnvFromOS(); env != Production || env.Dev() {
		t.Errorf("EnvFromOS() = %v", env)
	}
	t.Setenv("ARENA_ENV", "")
	if env := EnvFromOS(); env != Development || !env.Dev() {
		t.Errorf("EnvFromOS() = %v", env)
	}
}
