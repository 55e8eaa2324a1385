// Package telemetry records periodic economy samples as CSV.
package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/talgya/cookie-clicker/internal/economy"
)

// Sample is one CSV row.
type Sample struct {
	Tick       uint64  `csv:"tick"`
	At         string  `csv:"at"`
	Balance    float64 `csv:"balance"`
	Rate       float64 `csv:"rate"`
	ClickPower float64 `csv:"click_power"`
	Units      int     `csv:"units_owned"`
}

// NewSample captures the current economy at tick t.
func NewSample(t uint64, at time.Time, e *economy.Economy) Sample {
	st := e.Status()
	owned := 0
	for _, u := range e.Units() {
		owned += u.Count
	}
	return Sample{
		Tick:       t,
		At:         at.UTC().Format(time.RFC3339Nano),
		Balance:    st.Balance,
		Rate:       st.Rate,
		ClickPower: st.ClickPower,
		Units:      owned,
	}
}

// Recorder appends samples to a CSV stream. A nil Recorder discards samples.
type Recorder struct {
	mu            sync.Mutex
	out           io.Writer
	closer        io.Closer
	headerWritten bool
}

// NewRecorder writes samples to w.
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{out: w}
}

// Create opens the CSV file at path for appending, creating it if needed. An
// empty path disables recording and returns a nil Recorder.
func Create(path string) (*Recorder, error) {
	if path == "" {
		return nil, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating telemetry directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening telemetry file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat telemetry file: %w", err)
	}
	// Earlier sessions already wrote the header.
	return &Recorder{out: f, closer: f, headerWritten: info.Size() > 0}, nil
}

// Write appends one sample, writing the header before the first row.
func (r *Recorder) Write(s Sample) error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	records := []Sample{s}
	if !r.headerWritten {
		if err := gocsv.Marshal(records, r.out); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
		r.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, r.out); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// Close closes the underlying file, if any.
func (r *Recorder) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
