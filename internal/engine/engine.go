// Package engine provides the periodic tick loop that drives passive production.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/talgya/cookie-clicker/internal/clock"
)

// DefaultInterval is the tick period used when none is configured.
const DefaultInterval = 10 * time.Millisecond

// Hook is a periodic callback. Errors are logged and never stop the loop.
type Hook func(tick uint64) error

// Engine drives the game forward on a fixed interval.
type Engine struct {
	Interval time.Duration // Tick period
	Clock    clock.Clock   // Source of elapsed time between ticks

	// Every tick, with the measured seconds since the previous tick.
	OnTick func(elapsed float64)

	// Layered hooks, each fired every N ticks. Zero disables the layer.
	OnStatus    Hook
	StatusEvery uint64
	OnSample    Hook
	SampleEvery uint64
	OnSave      Hook
	SaveEvery   uint64

	tick    atomic.Uint64
	running atomic.Bool
}

// NewEngine creates an engine with default settings and the system clock.
func NewEngine() *Engine {
	return &Engine{
		Interval: DefaultInterval,
		Clock:    clock.Real{},
	}
}

// Ticks returns the number of ticks processed so far.
func (e *Engine) Ticks() uint64 {
	return e.tick.Load()
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Run ticks until ctx is cancelled. Hooks run on the loop goroutine, so a save
// in progress completes before Run returns.
func (e *Engine) Run(ctx context.Context) {
	interval := e.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	clk := e.Clock
	if clk == nil {
		clk = clock.Real{}
	}

	e.running.Store(true)
	defer e.running.Store(false)
	slog.Info("tick engine started", "interval", interval, "tick", e.Ticks())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := clk.Now()
	for {
		select {
		case <-ctx.Done():
			slog.Info("tick engine stopped", "tick", e.Ticks())
			return
		case <-ticker.C:
			now := clk.Now()
			e.Step(now.Sub(last).Seconds())
			last = now
		}
	}
}

// Step advances the engine by one tick covering elapsed seconds and returns the
// new tick number.
func (e *Engine) Step(elapsed float64) uint64 {
	t := e.tick.Add(1)

	if e.OnTick != nil {
		e.OnTick(elapsed)
	}

	e.fire("status", t, e.StatusEvery, e.OnStatus)
	e.fire("sample", t, e.SampleEvery, e.OnSample)
	e.fire("save", t, e.SaveEvery, e.OnSave)

	return t
}

func (e *Engine) fire(name string, t, every uint64, hook Hook) {
	if hook == nil || every == 0 || t%every != 0 {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("tick hook panicked", "hook", name, "tick", t, "panic", fmt.Sprint(r))
		}
	}()

	if err := hook(t); err != nil {
		slog.Warn("tick hook failed", "hook", name, "tick", t, "error", err)
	}
}
