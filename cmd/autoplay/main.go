// Command autoplay plays a running clicker game through its HTTP API.
// It observes the store, buys whatever pays back soonest, and saves
// periodically.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/talgya/cookie-clicker/internal/autoplay"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Configuration from environment.
	apiURL := envOrDefault("CLICKER_API_URL", "http://localhost:8080")
	adminKey := os.Getenv("CLICKER_ADMIN_KEY")
	intervalMs := envIntOrDefault("AUTOPLAY_INTERVAL_MS", 200)
	saveEvery := envIntOrDefault("AUTOPLAY_SAVE_EVERY", 300)

	if adminKey == "" {
		slog.Error("CLICKER_ADMIN_KEY is required")
		os.Exit(1)
	}

	interval := time.Duration(intervalMs) * time.Millisecond
	slog.Info("autoplay starting", "api_url", apiURL, "interval", interval, "save_every", saveEvery)

	observer := autoplay.NewObserver(apiURL)
	actor := autoplay.NewActor(apiURL, adminKey)

	slog.Info("waiting for clicker API...")
	waitForAPI(observer)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for cycle := 1; ; cycle++ {
		select {
		case <-ticker.C:
			runCycle(observer, actor)
			if saveEvery > 0 && cycle%saveEvery == 0 {
				if _, err := actor.Save(); err != nil {
					slog.Warn("save failed", "error", err)
				}
			}
		case sig := <-sigCh:
			slog.Info("received signal, shutting down", "signal", sig)
			if _, err := actor.Save(); err != nil {
				slog.Warn("final save failed", "error", err)
			}
			fmt.Println("Autoplay stopped.")
			return
		}
	}
}

// runCycle executes one observe → decide → act cycle.
func runCycle(observer *autoplay.Observer, actor *autoplay.Actor) {
	snap, err := observer.Observe()
	if err != nil {
		slog.Error("observation failed", "error", err)
		return
	}

	decision := autoplay.Decide(snap)
	if _, err := actor.Act(decision); err != nil {
		slog.Error("action failed", "action", decision.Action, "item", decision.Item, "error", err)
		return
	}

	if decision.Action != autoplay.ActionClick {
		slog.Info("purchase made",
			"action", decision.Action,
			"item", decision.Item,
			"rationale", decision.Rationale,
			"balance", fmt.Sprintf("%.2f", snap.Status.Balance),
			"rate", fmt.Sprintf("%.2f", snap.Status.Rate),
		)
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

// waitForAPI polls the status endpoint with exponential backoff until it
// responds. Exits after a minute if the API never becomes ready.
func waitForAPI(observer *autoplay.Observer) {
	backoff := 500 * time.Millisecond
	maxBackoff := 10 * time.Second
	deadline := time.Now().Add(time.Minute)

	for !observer.Ready() {
		if time.Now().After(deadline) {
			slog.Error("clicker API did not become ready within a minute")
			os.Exit(1)
		}
		slog.Info("clicker API not ready, retrying...", "backoff", backoff)
		time.Sleep(backoff)
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	slog.Info("clicker API is ready")
}
