// Package persistence saves and loads the game state. Two backends share one
// record layout: a JSON save file and a SQLite database.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/cookie-clicker/internal/economy"
)

var (
	// ErrNoSave means nothing has been saved yet. Callers keep their current state.
	ErrNoSave = errors.New("no saved game found")
	// ErrCorruptSave means the stored state could not be decoded or is missing
	// required fields. The load fails; the process does not.
	ErrCorruptSave = errors.New("save is corrupt")
)

// Defaults applied to saves written before click power existed.
const (
	defaultClickPower     = economy.StartingClickPower
	defaultClickPowerCost = economy.StartingClickPowerCost
)

// Store is the save/load collaborator.
type Store interface {
	Save(ctx context.Context, st economy.State) (SaveInfo, error)
	Load(ctx context.Context) (economy.State, error)
	Close() error
}

// SaveInfo describes a completed save.
type SaveInfo struct {
	ID      string    `json:"id"`
	SavedAt time.Time `json:"saved_at"`
	Balance float64   `json:"balance"`
	Units   int       `json:"units"`
}

// Open returns the store for backend ("json" or "sqlite") at path.
func Open(backend, path string) (Store, error) {
	switch backend {
	case "json":
		return NewFileStore(path), nil
	case "sqlite":
		db, err := OpenDB(path)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown save backend %q", backend)
	}
}

func newSaveInfo(st economy.State) SaveInfo {
	return SaveInfo{
		ID:      uuid.NewString(),
		SavedAt: time.Now().UTC(),
		Balance: st.Balance,
		Units:   len(st.Units),
	}
}

// checkLoaded validates a decoded state, reporting failures as corruption.
func checkLoaded(st economy.State) (economy.State, error) {
	if err := st.Validate(); err != nil {
		return economy.State{}, fmt.Errorf("%w: %v", ErrCorruptSave, err)
	}
	return st, nil
}
