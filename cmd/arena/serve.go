package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/chess-arena/internal/archive"
	"github.com/vovakirdan/chess-arena/internal/arena"
	"github.com/vovakirdan/chess-arena/internal/config"
	"github.com/vovakirdan/chess-arena/internal/invites"
	"github.com/vovakirdan/chess-arena/internal/transport"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the coordinator server",
	Long: `Start the TCP server that coordinates game sessions.

Clients speak newline-delimited JSON: one hello frame to authenticate
(member credentials or a guest token), then game and invite traffic.
Completed games are appended to the game log and indexed in SQLite.

The environment variable ARENA_ENV selects the runtime profile
(development, production, test); development offers the short
time controls.

Examples:
  arena serve                             # Listen on the configured address
  arena serve --addr :7654                # Override the listen address
  arena serve --config ./arena.yaml       # Use a specific config file`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (overrides config)")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagAddr != "" {
		cfg.Server.Addr = flagAddr
	}
	env := config.EnvFromOS()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "arena",
	})
	if env.Dev() {
		logger.SetLevel(log.DebugLevel)
	}
	logger.Info("starting", "env", string(env), "addr", cfg.Server.Addr)

	store, err := archive.OpenStore(cfg.Paths.IndexDB)
	if err != nil {
		return err
	}
	defer store.Close()

	stats := archive.NewStats(cfg.Paths.StatsFile)
	sink, err := archive.NewSink(cfg.Paths.GameLog, store, stats, logger.WithPrefix("archive"))
	if err != nil {
		return err
	}
	defer sink.Close()

	manager := arena.New(cfg.Timings.ArenaConfig(), sink, logger.WithPrefix("arena"))
	service := invites.NewService(manager, env.Dev(), logger.WithPrefix("invites"))
	server := transport.NewServer(cfg.Server.Addr, service, logger.WithPrefix("transport"))
	watcher := invites.NewWatcher(cfg.Paths.AllowInvites, cfg.Timings.InvitesPoll(), service, manager, logger.WithPrefix("invites"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go watcher.Run(ctx)

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.ListenAndServe(ctx) }()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	notice := time.Duration(cfg.Server.ShutdownNoticeSec) * time.Second
	manager.BroadcastShutdownWindow(time.Now().Add(notice))
	// Give the connection writers a moment to flush the announcement.
	time.Sleep(200 * time.Millisecond)

	server.Close()
	<-serveErr

	drainCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.DrainTimeoutSec)*time.Second)
	defer cancel()
	if err := manager.DrainAndArchive(drainCtx); err != nil {
		logger.Error("drain incomplete", "error", err)
	}

	fmt.Println("arena stopped")
	return nil
}
