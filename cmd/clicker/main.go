// Command clicker runs the interactive cookie clicker game.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/talgya/cookie-clicker/internal/api"
	"github.com/talgya/cookie-clicker/internal/config"
	"github.com/talgya/cookie-clicker/internal/console"
	"github.com/talgya/cookie-clicker/internal/economy"
	"github.com/talgya/cookie-clicker/internal/engine"
	"github.com/talgya/cookie-clicker/internal/persistence"
	"github.com/talgya/cookie-clicker/internal/telemetry"
)

func main() {
	cfg, err := config.Load(os.Getenv("CLICKER_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	level, _ := cfg.Log.SlogLevel()

	// Logs go to stderr so they don't interleave with the game on stdout.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if key := envOrDefault("CLICKER_ADMIN_KEY", ""); key != "" {
		cfg.API.AdminKey = key
	}

	// ── Save store ────────────────────────────────────────────────────
	if err := ensureDir(cfg.Save.Path); err != nil {
		slog.Error("failed to create save directory", "path", cfg.Save.Path, "error", err)
		os.Exit(1)
	}
	store, err := persistence.Open(cfg.Save.Backend, cfg.Save.Path)
	if err != nil {
		slog.Error("failed to open save store", "backend", cfg.Save.Backend, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("save store opened", "backend", cfg.Save.Backend, "path", cfg.Save.Path)

	// ── Economy ───────────────────────────────────────────────────────
	econ := economy.New()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session := console.NewSession(econ, store, os.Stdout)
	if err := session.Resume(ctx); err != nil {
		slog.Warn("saved game unreadable, starting fresh; it will not be overwritten until you save", "error", err)
	} else {
		slog.Info("game ready", "balance", econ.Balance(), "rate", econ.Rate())
	}
	session.WaitSeconds = cfg.Game.WaitSeconds
	session.WaitFor = time.Duration(cfg.Game.WaitSeconds * float64(time.Second))

	// ── Telemetry ─────────────────────────────────────────────────────
	rec, err := telemetry.Create(cfg.Telemetry.Path)
	if err != nil {
		slog.Error("failed to open telemetry output", "error", err)
		os.Exit(1)
	}
	defer rec.Close()

	// ── Tick engine ───────────────────────────────────────────────────
	eng := engine.NewEngine()
	eng.Interval = cfg.Game.TickInterval
	eng.OnTick = func(elapsed float64) { econ.Tick(elapsed) }

	var hub *api.Hub
	if cfg.API.Port > 0 {
		hub = api.NewHub()
		go hub.Run(ctx)
	}

	// The live status line would garble piped output.
	tty := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	if tty || hub != nil {
		eng.StatusEvery = cfg.Game.StatusEvery
		eng.OnStatus = func(tick uint64) error {
			if hub != nil {
				hub.Broadcast(api.Message{Type: "status", Tick: tick, Payload: econ.Status()})
			}
			if tty {
				return session.PrintStatus(tick)
			}
			return nil
		}
	}
	if rec != nil {
		eng.SampleEvery = cfg.Telemetry.SampleEvery
		eng.OnSample = func(tick uint64) error {
			return rec.Write(telemetry.NewSample(tick, time.Now(), econ))
		}
	}
	if cfg.Game.AutosaveEvery > 0 {
		eng.SaveEvery = cfg.Game.AutosaveEvery
		eng.OnSave = func(tick uint64) error {
			saved, err := session.AutoSave(ctx)
			if err != nil {
				return fmt.Errorf("autosave: %w", err)
			}
			slog.Debug("autosave", "tick", tick, "written", saved)
			return nil
		}
	}

	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		eng.Run(ctx)
	}()

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.API.Port > 0 {
		if cfg.API.AdminKey == "" {
			slog.Warn("no admin key set, POST endpoints will be disabled")
		}
		srv := &api.Server{
			Economy:  econ,
			Store:    store,
			Engine:   eng,
			Hub:      hub,
			Port:     cfg.API.Port,
			AdminKey: cfg.API.AdminKey,
		}
		srv.Start(ctx)
	}

	// ── Play ──────────────────────────────────────────────────────────
	if err := session.Run(ctx, os.Stdin); err != nil {
		slog.Error("reading input", "error", err)
	}

	stop()
	<-engineDone

	// Final save on shutdown, unless it would replace an unreadable save.
	saved, err := session.AutoSave(context.Background())
	if err != nil {
		slog.Error("final save failed", "error", err)
		os.Exit(1)
	}
	if saved {
		slog.Info("game saved", "path", cfg.Save.Path, "balance", econ.Balance())
	} else {
		slog.Warn("final save skipped, the unreadable save was left in place", "path", cfg.Save.Path)
	}
}

// ensureDir creates the directory that will hold path.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
