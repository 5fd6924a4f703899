package config

import (
	_ "embed"
)

//go:embed defaults/arena.yaml
var defaultArenaYAML []byte

// DefaultConfig returns the default server configuration. These values
// match the embedded defaults/arena.yaml.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:              ":7654",
			ShutdownNoticeSec: 60,
			DrainTimeoutSec:   30,
		},
		Paths: PathsConfig{
			GameLog:      "database/gamelog.txt",
			IndexDB:      "database/archive.db",
			StatsFile:    "database/stats.json",
			AllowInvites: "database/allowinvites.json",
		},
		Timings: TimingsConfig{
			AFKAutoResignSec:           20,
			DisconnectGraceSec:         5,
			DisconnectAutoResignSec:    60,
			DisconnectAbortFallbackSec: 20,
			DeletionGraceSec:           15,
			InvitesPollSec:             5,
			DrawOfferCadence:           2,
		},
	}
}
