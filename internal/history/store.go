// Package history persists archived workflow sessions and design
// decisions to SQLite, so past runs survive across sessions and projects.
// It is an optional subsystem: when the database cannot be opened the
// server runs without it.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// DBFile is the database filename inside the data directory.
const DBFile = "history.db"

// Config holds the history store settings.
type Config struct {
	// DataDir is the directory holding history.db.
	DataDir string
}

// DefaultConfig places the database under ~/.membank.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{DataDir: filepath.Join(home, ".membank")}
}

// RunRecord is one archived workflow session.
type RunRecord struct {
	ID         string `json:"id"`
	FinalMode  string `json:"final_mode"`
	Complexity int    `json:"complexity"`
	Ready      bool   `json:"ready"`
	Components int    `json:"components"`
	Tasks      string `json:"tasks"`
	Progress   string `json:"progress"`
	CreatedAt  string `json:"created_at"`
}

// DecisionRecord is one recorded design decision.
type DecisionRecord struct {
	ID        int64  `json:"id"`
	Component string `json:"component"`
	Kind      string `json:"kind"`
	Decision  string `json:"decision"`
	CreatedAt string `json:"created_at"`
}

// Store is the SQLite-backed history store.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the history database, enables WAL mode, and
// runs migrations.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("history: create data dir: %w", err)
	}

	db, err := openDB("sqlite", filepath.Join(cfg.DataDir, DBFile))
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("history: %s: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the schema. Uses IF NOT EXISTS for non-destructive
// upgrades.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			final_mode TEXT NOT NULL,
			complexity INTEGER NOT NULL,
			ready INTEGER NOT NULL DEFAULT 0,
			components INTEGER NOT NULL DEFAULT 0,
			tasks TEXT NOT NULL DEFAULT '',
			progress TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS decisions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			component TEXT NOT NULL,
			kind TEXT NOT NULL,
			decision TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_decisions_component ON decisions(component);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("history: migrate: %w", err)
	}
	return nil
}

// AddRun persists an archived session. A missing ID gets a fresh UUID;
// the final record (with ID and timestamp filled) is returned.
func (s *Store) AddRun(rec RunRecord) (RunRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt == "" {
		rec.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	_, err := s.db.Exec(
		`INSERT INTO runs (id, final_mode, complexity, ready, components, tasks, progress, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.FinalMode, rec.Complexity, boolToInt(rec.Ready),
		rec.Components, rec.Tasks, rec.Progress, rec.CreatedAt,
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("history: insert run: %w", err)
	}
	return rec, nil
}

// AddDecision persists one design decision and returns its row ID.
func (s *Store) AddDecision(component, kind, decision string) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO decisions (component, kind, decision, created_at) VALUES (?, ?, ?, ?)`,
		component, kind, decision, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("history: insert decision: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("history: decision id: %w", err)
	}
	return id, nil
}

// ListRuns returns the most recent archived runs, newest first.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, final_mode, complexity, ready, components, tasks, progress, created_at
		 FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		var ready int
		if err := rows.Scan(&rec.ID, &rec.FinalMode, &rec.Complexity, &ready,
			&rec.Components, &rec.Tasks, &rec.Progress, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		rec.Ready = ready != 0
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListDecisions returns the most recent decisions, newest first.
func (s *Store) ListDecisions(limit int) ([]DecisionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, component, kind, decision, created_at
		 FROM decisions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list decisions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []DecisionRecord
	for rows.Next() {
		var rec DecisionRecord
		if err := rows.Scan(&rec.ID, &rec.Component, &rec.Kind, &rec.Decision, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("history: scan decision: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
