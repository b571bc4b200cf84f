package main

import (
	"database/sql"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// RunRow represents one simulation run
type RunRow struct {
	ID           int64      `json:"id"`
	Seed         int64      `json:"seed"`
	Width        int        `json:"width"`
	Height       int        `json:"height"`
	Capacity     int        `json:"capacity"`
	Radius       int        `json:"radius"`
	Potency      int        `json:"potency"`
	Population   int        `json:"population"`
	Steps        uint64     `json:"steps"`
	Contaminated int        `json:"contaminated"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		capacity INTEGER NOT NULL,
		radius INTEGER NOT NULL,
		potency INTEGER NOT NULL,
		population INTEGER NOT NULL DEFAULT 0,
		steps INTEGER NOT NULL DEFAULT 0,
		contaminated INTEGER NOT NULL DEFAULT 0,
		started_at DATETIME NOT NULL,
		ended_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS run_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		event_type TEXT NOT NULL,
		step INTEGER NOT NULL DEFAULT 0,
		data TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_run_events_run ON run_events(run_id, event_type);
	`
	_, err := db.conn.Exec(schema)
	if err != nil {
		log.Printf("DB migration error: %v", err)
	}
	return err
}

// GetSetting returns a stored setting, or "" if missing
func (db *DB) GetSetting(key string) string {
	var value string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("DB get setting %s: %v", key, err)
		}
		return ""
	}
	return value
}

// SetSetting stores a setting, replacing any previous value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

// StartRun records the beginning of a run and returns its ID
func (db *DB) StartRun(cfg SimConfig, seed int64, population int) (int64, error) {
	res, err := db.conn.Exec(
		`INSERT INTO runs (seed, width, height, capacity, radius, potency, population, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		seed, cfg.Width, cfg.Height, cfg.Capacity, cfg.Radius, cfg.Potency, population,
		time.Now().UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// FinishRun stores the final counters of a run
func (db *DB) FinishRun(id int64, steps uint64, population, contaminated int) error {
	_, err := db.conn.Exec(
		`UPDATE runs SET steps = ?, population = ?, contaminated = ?, ended_at = ? WHERE id = ?`,
		int64(steps), population, contaminated, time.Now().UTC(), id,
	)
	return err
}

const runColumns = `id, seed, width, height, capacity, radius, potency, population, steps, contaminated, started_at, ended_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRow, error) {
	r := &RunRow{}
	var steps int64
	var ended sql.NullTime
	err := row.Scan(&r.ID, &r.Seed, &r.Width, &r.Height, &r.Capacity, &r.Radius, &r.Potency,
		&r.Population, &steps, &r.Contaminated, &r.StartedAt, &ended)
	if err != nil {
		return nil, err
	}
	r.Steps = uint64(steps)
	if ended.Valid {
		t := ended.Time
		r.EndedAt = &t
	}
	return r, nil
}

// GetRun returns a run by ID, or nil if it does not exist
func (db *DB) GetRun(id int64) (*RunRow, error) {
	r, err := scanRun(db.conn.QueryRow("SELECT "+runColumns+" FROM runs WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

// ListRuns returns the most recent runs first
func (db *DB) ListRuns(limit int) ([]RunRow, error) {
	rows, err := db.conn.Query("SELECT "+runColumns+" FROM runs ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []RunRow
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *r)
	}
	return result, rows.Err()
}
