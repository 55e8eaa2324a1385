package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/talgya/cookie-clicker/internal/economy"
)

// FileStore keeps the game in a single JSON file using the classic save layout
// (total_clicks, click_power, click_power_perk_cost, items).
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the save file location.
func (s *FileStore) Path() string {
	return s.path
}

type saveFile struct {
	TotalClicks        *float64   `json:"total_clicks"`
	ClickPower         *float64   `json:"click_power"`
	ClickPowerPerkCost *float64   `json:"click_power_perk_cost"`
	Items              []saveItem `json:"items"`
	SaveID             string     `json:"save_id,omitempty"`
}

// saveItem fields are pointers so a missing key can be told from a zero.
type saveItem struct {
	Name      *string  `json:"name"`
	Cost      *float64 `json:"cost"`
	BaseCPS   *float64 `json:"base_cps"`
	Count     *int     `json:"count"`
	PerkLevel *int     `json:"perk_level"`
	PerkCost  *float64 `json:"perk_cost"`
}

// Save writes st to a temp file and renames it over the save, so a crash never
// leaves a partial file behind.
func (s *FileStore) Save(ctx context.Context, st economy.State) (SaveInfo, error) {
	if err := ctx.Err(); err != nil {
		return SaveInfo{}, err
	}
	info := newSaveInfo(st)

	data, err := json.Marshal(encodeFile(st, info.ID))
	if err != nil {
		return SaveInfo{}, fmt.Errorf("encode save: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".save-*.tmp")
	if err != nil {
		return SaveInfo{}, fmt.Errorf("create temp save: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return SaveInfo{}, fmt.Errorf("write save: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return SaveInfo{}, fmt.Errorf("sync save: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return SaveInfo{}, fmt.Errorf("close save: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return SaveInfo{}, fmt.Errorf("replace save: %w", err)
	}

	slog.Debug("game saved", "path", s.path, "save_id", info.ID)
	return info, nil
}

// Load reads the save file. A missing file yields ErrNoSave.
func (s *FileStore) Load(ctx context.Context) (economy.State, error) {
	if err := ctx.Err(); err != nil {
		return economy.State{}, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return economy.State{}, ErrNoSave
	}
	if err != nil {
		return economy.State{}, fmt.Errorf("read save: %w", err)
	}
	return decodeFile(data)
}

// Close is a no-op; the file is only open during Save and Load.
func (s *FileStore) Close() error {
	return nil
}

func encodeFile(st economy.State, id string) saveFile {
	balance := st.Balance
	power := st.ClickPower
	powerCost := st.ClickPowerCost

	items := make([]saveItem, len(st.Units))
	for i := range st.Units {
		u := st.Units[i]
		items[i] = saveItem{
			Name:      &u.Name,
			Cost:      &u.Cost,
			BaseCPS:   &u.BaseRate,
			Count:     &u.Count,
			PerkLevel: &u.PerkLevel,
			PerkCost:  &u.PerkCost,
		}
	}

	return saveFile{
		TotalClicks:        &balance,
		ClickPower:         &power,
		ClickPowerPerkCost: &powerCost,
		Items:              items,
		SaveID:             id,
	}
}

func decodeFile(data []byte) (economy.State, error) {
	var f saveFile
	if err := json.Unmarshal(data, &f); err != nil {
		return economy.State{}, fmt.Errorf("%w: %v", ErrCorruptSave, err)
	}
	if f.TotalClicks == nil {
		return economy.State{}, fmt.Errorf("%w: missing total_clicks", ErrCorruptSave)
	}
	if f.Items == nil {
		return economy.State{}, fmt.Errorf("%w: missing items", ErrCorruptSave)
	}

	st := economy.State{
		Balance:        *f.TotalClicks,
		ClickPower:     defaultClickPower,
		ClickPowerCost: defaultClickPowerCost,
		Units:          make([]economy.Unit, 0, len(f.Items)),
	}
	if f.ClickPower != nil {
		st.ClickPower = *f.ClickPower
	}
	if f.ClickPowerPerkCost != nil {
		st.ClickPowerCost = *f.ClickPowerPerkCost
	}

	for i, it := range f.Items {
		if it.Name == nil || it.Cost == nil || it.BaseCPS == nil ||
			it.Count == nil || it.PerkLevel == nil || it.PerkCost == nil {
			return economy.State{}, fmt.Errorf("%w: item %d is missing fields", ErrCorruptSave, i)
		}
		st.Units = append(st.Units, economy.Unit{
			Name:      *it.Name,
			Cost:      *it.Cost,
			BaseRate:  *it.BaseCPS,
			Count:     *it.Count,
			PerkLevel: *it.PerkLevel,
			PerkCost:  *it.PerkCost,
		})
	}

	return checkLoaded(st)
}
