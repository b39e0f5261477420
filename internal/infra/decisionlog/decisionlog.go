// Package decisionlog persists an append-only audit trail of scaling
// decisions to SQLite, using modernc.org/sqlite — the teacher's own
// database driver (internal/infra/sqlite/phase3.go), here given a schema
// and query set for one table instead of the teacher's region/circuit-
// breaker/earnings tables. The "CREATE TABLE IF NOT EXISTS" migration
// style and raw database/sql usage follow that file directly.
package decisionlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS scale_decisions (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	recorded_at      TEXT NOT NULL DEFAULT (datetime('now')),
	namespace        TEXT NOT NULL,
	deployment       TEXT NOT NULL,
	current_replicas INTEGER NOT NULL,
	desired_replicas INTEGER NOT NULL,
	target_cpu       REAL NOT NULL,
	current_cdt      REAL NOT NULL,
	desired_cdt      REAL NOT NULL,
	trend            INTEGER NOT NULL,
	applied          INTEGER NOT NULL,
	reason           TEXT NOT NULL DEFAULT ''
)`

// Decision is one recorded scaling evaluation (spec.md §5 ScalingLoop
// tick), whether or not it resulted in an applied replica change.
type Decision struct {
	Namespace       string
	Deployment      string
	CurrentReplicas int
	DesiredReplicas int
	TargetCPU       float64
	CurrentCDT      float64
	DesiredCDT      float64
	Trend           int
	Applied         bool
	Reason          string
}

// Log is the SQLite-backed decision audit trail.
type Log struct {
	db *sql.DB
}

// Open creates (or attaches to) the SQLite database at path and ensures
// the schema exists.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("decisionlog: open %q: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("decisionlog: migrate: %w", err)
	}
	return &Log{db: db}, nil
}

// Record appends one decision to the log.
func (l *Log) Record(ctx context.Context, d Decision) error {
	applied := 0
	if d.Applied {
		applied = 1
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO scale_decisions
			(namespace, deployment, current_replicas, desired_replicas,
			 target_cpu, current_cdt, desired_cdt, trend, applied, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.Namespace, d.Deployment, d.CurrentReplicas, d.DesiredReplicas,
		d.TargetCPU, d.CurrentCDT, d.DesiredCDT, d.Trend, applied, d.Reason)
	if err != nil {
		return fmt.Errorf("decisionlog: insert: %w", err)
	}
	return nil
}

// Recent returns the most recently recorded decisions for a deployment,
// newest first, limited to n rows.
func (l *Log) Recent(ctx context.Context, namespace, deployment string, n int) ([]Decision, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT namespace, deployment, current_replicas, desired_replicas,
		       target_cpu, current_cdt, desired_cdt, trend, applied, reason
		FROM scale_decisions
		WHERE namespace = ? AND deployment = ?
		ORDER BY id DESC LIMIT ?
	`, namespace, deployment, n)
	if err != nil {
		return nil, fmt.Errorf("decisionlog: query: %w", err)
	}
	defer rows.Close()

	var out []Decision
	for rows.Next() {
		var d Decision
		var applied int
		if err := rows.Scan(&d.Namespace, &d.Deployment, &d.CurrentReplicas, &d.DesiredReplicas,
			&d.TargetCPU, &d.CurrentCDT, &d.DesiredCDT, &d.Trend, &applied, &d.Reason); err != nil {
			return nil, fmt.Errorf("decisionlog: scan: %w", err)
		}
		d.Applied = applied == 1
		out = append(out, d)
	}
	return out, rows.Err()
}

// CountSince counts decisions recorded for a deployment since the given
// time.
func (l *Log) CountSince(ctx context.Context, namespace, deployment string, since time.Time) (int, error) {
	var count int
	err := l.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM scale_decisions
		WHERE namespace = ? AND deployment = ? AND recorded_at > ?
	`, namespace, deployment, since.UTC().Format("2006-01-02 15:04:05")).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("decisionlog: count: %w", err)
	}
	return count, nil
}

// Close releases the underlying database handle.
func (l *Log) Close() error {
	return l.db.Close()
}
