package invites

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/chess-arena/internal/arena"
)

// Flags is the shape of the allow-invites file. An operator edits it in
// place to wind the server down: restartIn announces a restart that
// many minutes ahead, allowInvites false stops new games forming.
type Flags struct {
	AllowInvites bool    `json:"allowInvites"`
	RestartIn    float64 `json:"restartIn,omitempty"` // minutes, 0 = no restart planned
}

// Watcher polls the allow-invites file and applies its flags to the
// invite service and the manager's shutdown window.
type Watcher struct {
	path     string
	interval time.Duration
	service  *Service
	manager  *arena.Manager
	logger   *log.Logger
	now      func() time.Time

	restartArmed bool
}

// NewWatcher builds a watcher over the flags file. A missing file means
// normal operation.
func NewWatcher(path string, interval time.Duration, service *Service, manager *arena.Manager, logger *log.Logger) *Watcher {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "invites"})
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Watcher{
		path:     path,
		interval: interval,
		service:  service,
		manager:  manager,
		logger:   logger,
		now:      time.Now,
	}
}

// Run polls until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.Poll()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Poll()
		}
	}
}

// Poll reads the flags file once and applies it.
func (w *Watcher) Poll() {
	flags, err := w.read()
	if err != nil {
		w.logger.Error("cannot read invite flags", "path", w.path, "error", err)
		return
	}
	w.service.SetAllowInvites(flags.AllowInvites)

	switch {
	case flags.RestartIn > 0 && !w.restartArmed:
		at := w.now().Add(time.Duration(flags.RestartIn * float64(time.Minute)))
		w.manager.BroadcastShutdownWindow(at)
		w.restartArmed = true
		w.logger.Info("restart window announced", "at", at)
	case flags.RestartIn <= 0 && w.restartArmed:
		w.manager.BroadcastShutdownWindow(time.Time{})
		w.restartArmed = false
		w.logger.Info("restart window cleared")
	}
}

func (w *Watcher) read() (Flags, error) {
	raw, err := os.ReadFile(w.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Flags{AllowInvites: true}, nil
	}
	if err != nil {
		return Flags{}, err
	}
	var flags Flags
	if err := json.Unmarshal(raw, &flags); err != nil {
		return Flags{}, err
	}
	return flags, nil
}
