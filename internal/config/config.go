// Package config provides YAML-based configuration loading for the
// arena server: listen address, data paths, and the coordinator
// timings.
package config

import (
	"os"
	"time"

	"github.com/vovakirdan/chess-arena/internal/arena"
)

// Config is the full server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Paths   PathsConfig   `yaml:"paths"`
	Timings TimingsConfig `yaml:"timings"`
}

// ServerConfig holds the listener settings.
type ServerConfig struct {
	// Addr is the TCP address the server listens on.
	Addr string `yaml:"addr"`

	// ShutdownNoticeSec is how far ahead of the actual stop the restart
	// window is announced to seated players.
	ShutdownNoticeSec int `yaml:"shutdown_notice_sec"`

	// DrainTimeoutSec bounds the drain-and-archive pass on shutdown.
	DrainTimeoutSec int `yaml:"drain_timeout_sec"`
}

// PathsConfig holds the data file locations.
type PathsConfig struct {
	GameLog      string `yaml:"game_log"`
	IndexDB      string `yaml:"index_db"`
	StatsFile    string `yaml:"stats_file"`
	AllowInvites string `yaml:"allow_invites"`
}

// TimingsConfig mirrors the coordinator timings in whole seconds, the
// unit the YAML file speaks; plies for the draw-offer cadence.
type TimingsConfig struct {
	AFKAutoResignSec           int `yaml:"afk_auto_resign_sec"`
	DisconnectGraceSec         int `yaml:"disconnect_grace_sec"`
	DisconnectAutoResignSec    int `yaml:"disconnect_auto_resign_sec"`
	DisconnectAbortFallbackSec int `yaml:"disconnect_abort_fallback_sec"`
	DeletionGraceSec           int `yaml:"deletion_grace_sec"`
	InvitesPollSec             int `yaml:"invites_poll_sec"`
	DrawOfferCadence           int `yaml:"draw_offer_cadence"`
}

// ArenaConfig converts the YAML timings to the coordinator's config.
func (t TimingsConfig) ArenaConfig() arena.Config {
	return arena.Config{
		AFKAutoResign:           time.Duration(t.AFKAutoResignSec) * time.Second,
		DisconnectGrace:         time.Duration(t.DisconnectGraceSec) * time.Second,
		DisconnectAutoResign:    time.Duration(t.DisconnectAutoResignSec) * time.Second,
		DisconnectAbortFallback: time.Duration(t.DisconnectAbortFallbackSec) * time.Second,
		DeletionGrace:           time.Duration(t.DeletionGraceSec) * time.Second,
		DrawOfferCadence:        t.DrawOfferCadence,
	}
}

// InvitesPoll returns the invite-flags polling interval.
func (t TimingsConfig) InvitesPoll() time.Duration {
	return time.Duration(t.InvitesPollSec) * time.Second
}

// Environment selects the runtime profile.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
	Test        Environment = "test"
)

// EnvFromOS reads ARENA_ENV, defaulting to development.
func EnvFromOS() Environment {
	switch os.Getenv("ARENA_ENV") {
	case string(Production):
		return Production
	case string(Test):
		return Test
	}
	return Development
}

// Dev reports whether the dev-only time controls are offered.
func (e Environment) Dev() bool { return e == Development }
