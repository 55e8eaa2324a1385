package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/cookie-clicker/internal/economy"
)

// Meta keys in game_meta.
const (
	metaBalance        = "balance"
	metaClickPower     = "click_power"
	metaClickPowerCost = "click_power_cost"
	metaLastSaveID     = "last_save_id"
	metaSchemaVersion  = "schema_version"
)

// schemaVersion is recorded in game_meta when the database is opened.
const schemaVersion = "1"

// DB wraps a SQLite connection for game state persistence.
type DB struct {
	conn *sqlx.DB
}

type saveRow struct {
	ID      string  `db:"id"`
	SavedAt string  `db:"saved_at"`
	Balance float64 `db:"balance"`
	Units   int     `db:"units"`
}

type unitRow struct {
	Position  int     `db:"position"`
	Name      string  `db:"name"`
	Cost      float64 `db:"cost"`
	BaseRate  float64 `db:"base_rate"`
	Count     int     `db:"count"`
	PerkLevel int     `db:"perk_level"`
	PerkCost  float64 `db:"perk_cost"`
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := db.SaveMeta(context.Background(), metaSchemaVersion, schemaVersion); err != nil {
		conn.Close()
		return nil, fmt.Errorf("record schema version: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS units (
		position INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		cost REAL NOT NULL,
		base_rate REAL NOT NULL,
		count INTEGER NOT NULL,
		perk_level INTEGER NOT NULL,
		perk_cost REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS game_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS saves (
		id TEXT PRIMARY KEY,
		saved_at TEXT NOT NULL,
		balance REAL NOT NULL,
		units INTEGER NOT NULL
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// HasSave reports whether a game has been saved.
func (db *DB) HasSave(ctx context.Context) bool {
	_, err := db.GetMeta(ctx, metaBalance)
	return err == nil
}

// Save replaces the stored game with st in one transaction.
func (db *DB) Save(ctx context.Context, st economy.State) (SaveInfo, error) {
	info := newSaveInfo(st)

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return SaveInfo{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM units"); err != nil {
		return SaveInfo{}, err
	}

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO units
		(position, name, cost, base_rate, count, perk_level, perk_cost)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return SaveInfo{}, err
	}
	defer stmt.Close()

	for i, u := range st.Units {
		if _, err := stmt.ExecContext(ctx, i, u.Name, u.Cost, u.BaseRate, u.Count, u.PerkLevel, u.PerkCost); err != nil {
			return SaveInfo{}, fmt.Errorf("insert unit %s: %w", u.Name, err)
		}
	}

	meta := map[string]string{
		metaBalance:        formatFloat(st.Balance),
		metaClickPower:     formatFloat(st.ClickPower),
		metaClickPowerCost: formatFloat(st.ClickPowerCost),
		metaLastSaveID:     info.ID,
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO game_meta (key, value) VALUES (?, ?)", k, v,
		); err != nil {
			return SaveInfo{}, fmt.Errorf("save meta %s: %w", k, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO saves (id, saved_at, balance, units) VALUES (?, ?, ?, ?)",
		info.ID, info.SavedAt.Format(time.RFC3339Nano), info.Balance, info.Units,
	); err != nil {
		return SaveInfo{}, fmt.Errorf("record save: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return SaveInfo{}, err
	}

	slog.Debug("game saved", "save_id", info.ID, "units", info.Units)
	return info, nil
}

// Load reads the stored game. Missing click power settings fall back to the
// starting values.
func (db *DB) Load(ctx context.Context) (economy.State, error) {
	balance, err := db.metaFloat(ctx, metaBalance)
	if errors.Is(err, sql.ErrNoRows) {
		return economy.State{}, ErrNoSave
	}
	if err != nil {
		return economy.State{}, err
	}

	st := economy.State{
		Balance:        balance,
		ClickPower:     defaultClickPower,
		ClickPowerCost: defaultClickPowerCost,
	}

	if v, err := db.metaFloat(ctx, metaClickPower); err == nil {
		st.ClickPower = v
	} else if !errors.Is(err, sql.ErrNoRows) {
		return economy.State{}, err
	}
	if v, err := db.metaFloat(ctx, metaClickPowerCost); err == nil {
		st.ClickPowerCost = v
	} else if !errors.Is(err, sql.ErrNoRows) {
		return economy.State{}, err
	}

	var rows []unitRow
	if err := db.conn.SelectContext(ctx, &rows,
		"SELECT position, name, cost, base_rate, count, perk_level, perk_cost FROM units ORDER BY position",
	); err != nil {
		return economy.State{}, fmt.Errorf("%w: %v", ErrCorruptSave, err)
	}

	st.Units = make([]economy.Unit, len(rows))
	for i, r := range rows {
		st.Units[i] = economy.Unit{
			Name:      r.Name,
			Cost:      r.Cost,
			BaseRate:  r.BaseRate,
			Count:     r.Count,
			PerkLevel: r.PerkLevel,
			PerkCost:  r.PerkCost,
		}
	}

	return checkLoaded(st)
}

// SaveMeta stores a key-value pair in game metadata.
func (db *DB) SaveMeta(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT OR REPLACE INTO game_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value. Returns sql.ErrNoRows if unset.
func (db *DB) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := db.conn.GetContext(ctx, &value, "SELECT value FROM game_meta WHERE key = ?", key)
	return value, err
}

// deleteMeta removes a metadata key.
func (db *DB) deleteMeta(ctx context.Context, key string) error {
	_, err := db.conn.ExecContext(ctx, "DELETE FROM game_meta WHERE key = ?", key)
	return err
}

// RecentSaves returns the most recent saves, newest first.
func (db *DB) RecentSaves(ctx context.Context, limit int) ([]SaveInfo, error) {
	var rows []saveRow
	if err := db.conn.SelectContext(ctx, &rows,
		"SELECT id, saved_at, balance, units FROM saves ORDER BY rowid DESC LIMIT ?",
		limit,
	); err != nil {
		return nil, err
	}

	saves := make([]SaveInfo, 0, len(rows))
	for _, r := range rows {
		at, err := time.Parse(time.RFC3339Nano, r.SavedAt)
		if err != nil {
			return nil, fmt.Errorf("save %s: %w", r.ID, err)
		}
		saves = append(saves, SaveInfo{ID: r.ID, SavedAt: at, Balance: r.Balance, Units: r.Units})
	}
	return saves, nil
}

func (db *DB) metaFloat(ctx context.Context, key string) (float64, error) {
	s, err := db.GetMeta(ctx, key)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: meta %s: %v", ErrCorruptSave, key, err)
	}
	return v, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
