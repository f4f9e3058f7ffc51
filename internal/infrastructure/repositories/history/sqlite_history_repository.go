package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
	"github.com/rios0rios0/sitedeploy/internal/domain/repositories"
)

const dirPerm = 0o755

const schema = `
CREATE TABLE IF NOT EXISTS cycles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	at INTEGER NOT NULL,
	mode TEXT NOT NULL,
	outcome TEXT NOT NULL,
	decision TEXT NOT NULL,
	reason TEXT NOT NULL,
	record BLOB
);
CREATE INDEX IF NOT EXISTS idx_cycles_at ON cycles(at);
CREATE INDEX IF NOT EXISTS idx_cycles_outcome ON cycles(outcome);
`

// SQLiteHistoryRepository keeps every cycle in a SQLite database. The
// database is opened on first use, so read-only commands that never touch
// the ledger do not create it.
type SQLiteHistoryRepository struct {
	path string
	mu   sync.Mutex
	db   *sql.DB
}

// NewHistoryRepository creates a ledger stored at path.
func NewHistoryRepository(path string) *SQLiteHistoryRepository {
	return &SQLiteHistoryRepository{path: path}
}

func (it *SQLiteHistoryRepository) open() (*sql.DB, error) {
	if it.db != nil {
		return it.db, nil
	}
	if err := os.MkdirAll(filepath.Dir(it.path), dirPerm); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", it.path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err = db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	it.db = db
	return db, nil
}

// Append inserts one cycle.
func (it *SQLiteHistoryRepository) Append(ctx context.Context, entry repositories.CycleEntry) error {
	it.mu.Lock()
	defer it.mu.Unlock()

	db, err := it.open()
	if err != nil {
		return err
	}

	var record []byte
	if entry.Record != nil {
		if record, err = json.Marshal(entry.Record); err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
	}
	_, err = db.ExecContext(ctx,
		"INSERT INTO cycles (at, mode, outcome, decision, reason, record) VALUES (?, ?, ?, ?, ?, ?)",
		entry.At.UnixNano(), string(entry.Mode), string(entry.Outcome), string(entry.Decision), entry.Reason, record,
	)
	if err != nil {
		return fmt.Errorf("insert cycle: %w", err)
	}
	return nil
}

// List returns up to limit cycles, newest first; a non-positive limit returns all.
func (it *SQLiteHistoryRepository) List(ctx context.Context, limit int) ([]repositories.CycleEntry, error) {
	it.mu.Lock()
	defer it.mu.Unlock()

	if _, err := os.Stat(it.path); os.IsNotExist(err) {
		return []repositories.CycleEntry{}, nil
	}
	db, err := it.open()
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := db.QueryContext(ctx,
		"SELECT at, mode, outcome, decision, reason, record FROM cycles ORDER BY at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	entries := []repositories.CycleEntry{}
	for rows.Next() {
		var at int64
		var mode, outcome, decision, reason string
		var record []byte
		if err = rows.Scan(&at, &mode, &outcome, &decision, &reason, &record); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		entry := repositories.CycleEntry{
			At:       time.Unix(0, at),
			Mode:     entities.Mode(mode),
			Outcome:  entities.CycleOutcome(outcome),
			Decision: entities.Decision(decision),
			Reason:   reason,
		}
		if len(record) > 0 {
			entry.Record = &entities.DeploymentRecord{}
			if err = json.Unmarshal(record, entry.Record); err != nil {
				return nil, fmt.Errorf("unmarshal record: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return entries, nil
}

// Close closes the database if it was opened.
func (it *SQLiteHistoryRepository) Close() error {
	it.mu.Lock()
	defer it.mu.Unlock()

	if it.db == nil {
		return nil
	}
	err := it.db.Close()
	it.db = nil
	return err
}
