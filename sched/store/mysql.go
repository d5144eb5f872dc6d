package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is a MySQL/MariaDB implementation of Store.
//
// It archives interleaving traces in a relational database. Designed for:
//   - Shared trace archives across a team or CI fleet
//   - Comparing interleavings captured on different machines
//   - Long-lived reproduction schedules that survive workstation churn
//
// MySQLStore uses connection pooling and transactions for reliability.
//
// Schema:
//   - interleaving_runs: one row per saved run
//   - interleaving_trace: the run's entries, unique on (run_id, seq)
type MySQLStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewMySQLStore creates a new MySQL-backed store.
//
// The DSN (Data Source Name) format is:
//
//	[username[:password]@][protocol[(address)]]/dbname[?param1=value1&...]
//
// Example DSNs:
//
//	user:password@tcp(localhost:3306)/traces
//	user:password@tcp(127.0.0.1:3306)/traces?parseTime=true
//
// Never hardcode credentials in source; read the DSN from the environment:
//
//	dsn := os.Getenv("MYSQL_DSN")
//	st, err := store.NewMySQLStore(dsn)
//
// The store automatically creates required tables and configures connection
// pooling.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	store := &MySQLStore{db: db}

	if err := store.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return store, nil
}

// createTables creates the required database schema if it doesn't exist.
func (m *MySQLStore) createTables(ctx context.Context) error {
	runsTable := `
		CREATE TABLE IF NOT EXISTS interleaving_runs (
			run_id VARCHAR(255) PRIMARY KEY,
			entries INT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
	`
	if _, err := m.db.ExecContext(ctx, runsTable); err != nil {
		return fmt.Errorf("failed to create interleaving_runs table: %w", err)
	}

	traceTable := `
		CREATE TABLE IF NOT EXISTS interleaving_trace (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			run_id VARCHAR(255) NOT NULL,
			seq INT NOT NULL,
			worker_id VARCHAR(255) NOT NULL,
			ordinal INT NOT NULL,
			step INT NOT NULL,
			kind VARCHAR(32) NOT NULL,
			target VARCHAR(255) NOT NULL DEFAULT '',
			INDEX idx_trace_run (run_id),
			UNIQUE KEY unique_run_seq (run_id, seq)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
	`
	if _, err := m.db.ExecContext(ctx, traceTable); err != nil {
		return fmt.Errorf("failed to create interleaving_trace table: %w", err)
	}

	return nil
}

// SaveTrace persists a run's trace in a single transaction, replacing any
// previously saved trace for the same runID.
func (m *MySQLStore) SaveTrace(ctx context.Context, runID string, entries []TraceEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("store is closed")
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM interleaving_trace WHERE run_id = ?", runID); err != nil {
		return fmt.Errorf("failed to clear previous trace: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO interleaving_runs (run_id, entries) VALUES (?, ?) ON DUPLICATE KEY UPDATE entries = VALUES(entries)",
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
func (m *MySQLStore) LoadTrace(ctx context.Context, runID string) ([]TraceEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("store is closed")
	}

	var count int
	err := m.db.QueryRowContext(ctx, "SELECT entries FROM interleaving_runs WHERE run_id = ?", runID).Scan(&count)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	rows, err := m.db.QueryContext(ctx,
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
func (m *MySQLStore) ListRuns(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("store is closed")
	}

	rows, err := m.db.QueryContext(ctx, "SELECT run_id FROM interleaving_runs ORDER BY run_id")
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
func (m *MySQLStore) DeleteRun(ctx context.Context, runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("store is closed")
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM interleaving_trace WHERE run_id = ?", runID); err != nil {
		return fmt.Errorf("failed to delete trace: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM interleaving_runs WHERE run_id = ?", runID)
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

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

// Close releases the database connection pool. The store must not be used
// after Close.
func (m *MySQLStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	return m.db.Close()
}
