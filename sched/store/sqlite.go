package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite implementation of Store.
//
// It archives interleaving traces in a single-file database. Designed for:
//   - Keeping the schedule that reproduced a bug next to the test that found it
//   - Local trace archives with zero setup
//   - Prototyping before migrating to a shared MySQL archive
//
// SQLiteStore uses WAL mode for concurrent reads and transactional writes.
//
// Schema:
//   - interleaving_runs: one row per saved run
//   - interleaving_trace: the run's entries, unique on (run_id, seq)
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	path   string
}

// NewSQLiteStore creates a new SQLite-backed store.
//
// The path parameter specifies the database file location:
//   - "./traces.db" - file in current directory
//   - ":memory:" - in-memory database (data lost on close)
//
// The store automatically creates the database file and required tables,
// enables WAL mode, and configures a busy timeout.
//
// Example:
//
//	st, err := store.NewSQLiteStore("./traces.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer st.Close()
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	// SQLite supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	store := &SQLiteStore{
		db:   db,
		path: path,
	}

	if err := store.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return store, nil
}

// createTables creates the required database schema if it doesn't exist.
func (s *SQLiteStore) createTables(ctx context.Context) error {
	runsTable := `
		CREATE TABLE IF NOT EXISTS interleaving_runs (
			run_id TEXT PRIMARY KEY,
			entries INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := s.db.ExecContext(ctx, runsTable); err != nil {
		return fmt.Errorf("failed to create interleaving_runs table: %w", err)
	}

	traceTable := `
		CREATE TABLE IF NOT EXISTS interleaving_trace (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			worker_id TEXT NOT NULL,
			ordinal INTEGER NOT NULL,
			step INTEGER NOT NULL,
			kind TEXT NOT NULL,
			target TEXT NOT NULL DEFAULT '',
			UNIQUE(run_id, seq),
			FOREIGN KEY(run_id) REFERENCES interleaving_runs(run_id) ON DELETE CASCADE
		)
	`
	if _, err := s.db.ExecContext(ctx, traceTable); err != nil {
		return fmt.Errorf("failed to create interleaving_trace table: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS idx_trace_run_seq ON interleaving_trace(run_id, seq)"); err != nil {
		return fmt.Errorf("failed to create idx_trace_run_seq: %w", err)
	}

	return nil
}

// SaveTrace persists a run's trace in a single transaction, replacing any
// previously saved trace for the same runID.
func (s *SQLiteStore) SaveTrace(ctx context.Context, runID string, entries []TraceEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM interleaving_trace WHERE run_id = ?", runID); err != nil {
		return fmt.Errorf("failed to clear previous trace: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO interleaving_runs (run_id, entries) VALUES (?, ?) ON CONFLICT(run_id) DO UPDATE SET entries = excluded.entries",
		runID, len(entries)); err != nil {
		return fmt.Errorf("failed to upsert run: %w", err)
	}

	for _, e := range entries {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO interleaving_trace (run_id, seq, worker_id, ordinal, step, kind, target) VALUES (?, ?, ?, ?, ?, ?, ?)",
			runID, e.Seq, e.WorkerID, e.Ordinal, e.Step, e.Kind, e.Target); err != nil {
			return fmt.Errorf("failed to insert trace entry %d: %w", e.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trace: %w", err)
	}
	return nil
}

// LoadTrace retrieves a run's trace in Seq order.
func (s *SQLiteStore) LoadTrace(ctx context.Context, runID string) ([]TraceEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	var count int
	err := s.db.QueryRowContext(ctx, "SELECT entries FROM interleaving_runs WHERE run_id = ?", runID).Scan(&count)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT seq, worker_id, ordinal, step, kind, target FROM interleaving_trace WHERE run_id = ? ORDER BY seq", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trace: %w", err)
	}
	defer rows.Close()

	entries := make([]TraceEntry, 0, count)
	for rows.Next() {
		var e TraceEntry
		if err := rows.Scan(&e.Seq, &e.WorkerID, &e.Ordinal, &e.Step, &e.Kind, &e.Target); err != nil {
			return nil, fmt.Errorf("failed to scan trace entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trace rows: %w", err)
	}

	return entries, nil
}

// ListRuns returns all saved run IDs in lexicographic order.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	rows, err := s.db.QueryContext(ctx, "SELECT run_id FROM interleaving_runs ORDER BY run_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []string
	for rows.Next() {
		var runID string
		if err := rows.Scan(&runID); err != nil {
			return nil, fmt.Errorf("failed to scan run ID: %w", err)
		}
		runs = append(runs, runID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read run rows: %w", err)
	}

	return runs, nil
}

// DeleteRun removes a run and its trace.
func (s *SQLiteStore) DeleteRun(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM interleaving_runs WHERE run_id = ?", runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Close releases the database connection. The store must not be used after
// Close.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
