package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists synchronization history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboard reads don't block the updater's writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sync_runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL,
			trigger_by  TEXT,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			updated     INTEGER,
			up_to_date  INTEGER,
			failed      INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON sync_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS dataset_outcomes (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id     TEXT NOT NULL,
			dataset_id TEXT NOT NULL,
			status     TEXT,
			appended   INTEGER,
			rows       INTEGER,
			error      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_run ON dataset_outcomes(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_dataset ON dataset_outcomes(dataset_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(run *RunSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO sync_runs
		(run_id, trigger_by, started_at, finished_at, updated, up_to_date, failed)
		VALUES (?,?,?,?,?,?,?)`,
		run.RunID, run.Trigger, run.StartedAt.Unix(), run.FinishedAt.Unix(),
		run.Updated, run.UpToDate, run.Failed,
	)
	return err
}

func (r *SQLiteRecorder) RecordOutcome(outcome *DatasetOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO dataset_outcomes
		(run_id, dataset_id, status, appended, rows, error)
		VALUES (?,?,?,?,?,?)`,
		outcome.RunID, outcome.DatasetID, outcome.Status,
		outcome.Appended, outcome.Rows, outcome.Error,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
