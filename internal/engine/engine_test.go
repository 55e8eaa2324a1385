package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestStepFiresLayers(t *testing.T) {
	e := NewEngine()

	var ticks, status, samples, saves int
	var elapsedSum float64
	e.OnTick = func(elapsed float64) {
		ticks++
		elapsedSum += elapsed
	}
	e.OnStatus = func(uint64) error { status++; return nil }
	e.StatusEvery = 2
	e.OnSample = func(uint64) error { samples++; return nil }
	e.SampleEvery = 5
	e.OnSave = func(uint64) error { saves++; return nil }
	e.SaveEvery = 0 // disabled

	for i := 0; i < 10; i++ {
		e.Step(0.01)
	}

	if ticks != 10 || status != 5 || samples != 2 || saves != 0 {
		t.Fatalf("unexpected counts ticks=%d status=%d samples=%d saves=%d", ticks, status, samples, saves)
	}
	if elapsedSum < 0.0999 || elapsedSum > 0.1001 {
		t.Fatalf("expected 0.1s elapsed got %v", elapsedSum)
	}
	if e.Ticks() != 10 {
		t.Fatalf("expected 10 ticks got %d", e.Ticks())
	}
}

func TestHookFailureDoesNotStopTicking(t *testing.T) {
	e := NewEngine()
	calls := 0
	e.OnStatus = func(uint64) error {
		calls++
		if calls == 1 {
			return errors.New("terminal gone")
		}
		panic("formatting blew up")
	}
	e.StatusEvery = 1

	ticks := 0
	e.OnTick = func(float64) { ticks++ }

	e.Step(1)
	e.Step(1)
	e.Step(1)

	if ticks != 3 || calls != 3 {
		t.Fatalf("expected 3 ticks and 3 hook calls got %d %d", ticks, calls)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	e := NewEngine()
	e.Interval = time.Millisecond

	var ticks atomic.Int64
	var sawElapsed atomic.Bool
	e.OnTick = func(elapsed float64) {
		ticks.Add(1)
		if elapsed > 0 {
			sawElapsed.Store(true)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("engine did not stop after cancel")
	}

	if ticks.Load() == 0 {
		t.Fatalf("expected at least one tick")
	}
	if !sawElapsed.Load() {
		t.Fatalf("expected positive elapsed time")
	}
	if e.Running() {
		t.Fatalf("expected engine to report stopped")
	}
}
