// Package audit keeps a queryable record of every pipeline outcome.
package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/burzuercher/group-meal-planner-sub001/pkg/config"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/models"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/sqlitedb"
)

const schema = `CREATE TABLE IF NOT EXISTS audit_log (
	request_id     TEXT PRIMARY KEY,
	group_id       TEXT NOT NULL,
	caller_name    TEXT NOT NULL,
	subject_text   TEXT,
	normalized_key TEXT NOT NULL,
	outcome        TEXT NOT NULL,
	artifact_url   TEXT,
	error          TEXT,
	latency_ms     INTEGER,
	created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_audit_group ON audit_log(group_id)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_outcome ON audit_log(outcome)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_created ON audit_log(created_at)`,
}

// ErrDuplicateRequest is returned when an entry's request ID is already logged.
var ErrDuplicateRequest = errors.New("audit: duplicate request id")

// Logger writes and queries audit entries in a dedicated SQLite database.
type Logger struct {
	db   *sql.DB
	cfg  config.AuditConfig
	done chan struct{}
	wg   sync.WaitGroup
}

// New opens the audit database, creates the schema and starts the hourly
// retention loop.
func New(cfg config.AuditConfig) (*Logger, error) {
	db, err := sqlitedb.Open(cfg.DBPath, append([]string{schema}, indexes...)...)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}

	l := &Logger{
		db:   db,
		cfg:  cfg,
		done: make(chan struct{}),
	}

	l.wg.Add(1)
	go l.retentionLoop()

	return l, nil
}

// Log inserts an entry. Subject text is dropped unless StoreSubject is set.
// Existing entries are never overwritten.
func (l *Logger) Log(ctx context.Context, entry models.AuditEntry) error {
	if l == nil || l.db == nil {
		return nil
	}

	subject := entry.SubjectText
	if !l.cfg.StoreSubject {
		subject = ""
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO audit_log
		(request_id, group_id, caller_name, subject_text, normalized_key,
		 outcome, artifact_url, error, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RequestID, entry.GroupID, entry.CallerName, subject, entry.NormalizedKey,
		string(entry.Outcome), entry.ArtifactURL, entry.Error, entry.LatencyMs,
		entry.CreatedAt.UTC(),
	)
	if sqlitedb.IsConstraint(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateRequest, entry.RequestID)
	}
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Query returns entries matching opts, newest first.
func (l *Logger) Query(ctx context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, error) {
	q := `SELECT request_id, group_id, caller_name, subject_text, normalized_key,
		outcome, artifact_url, error, latency_ms, created_at
		FROM audit_log WHERE 1=1`
	var args []any

	if opts.RequestID != "" {
		q += " AND request_id = ?"
		args = append(args, opts.RequestID)
	}
	if opts.GroupID != "" {
		q += " AND group_id = ?"
		args = append(args, opts.GroupID)
	}
	if opts.Outcome != "" {
		q += " AND outcome = ?"
		args = append(args, string(opts.Outcome))
	}
	if !opts.Since.IsZero() {
		q += " AND created_at >= ?"
		args = append(args, opts.Since.UTC())
	}

	q += " ORDER BY created_at DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	q += " LIMIT ?"
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		var subject, url, errMsg sql.NullString
		var outcome string
		if err := rows.Scan(
			&e.RequestID, &e.GroupID, &e.CallerName, &subject, &e.NormalizedKey,
			&outcome, &url, &errMsg, &e.LatencyMs, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		e.SubjectText = subject.String
		e.Outcome = models.Outcome(outcome)
		e.ArtifactURL = url.String
		e.Error = errMsg.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats returns counts grouped by outcome and day.
func (l *Logger) Stats(ctx context.Context) ([]models.AuditStat, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT outcome, substr(created_at, 1, 10) AS day, count(*) AS cnt
		 FROM audit_log GROUP BY outcome, day ORDER BY day DESC, outcome`)
	if err != nil {
		return nil, fmt.Errorf("audit stats: %w", err)
	}
	defer rows.Close()

	var stats []models.AuditStat
	for rows.Next() {
		var s models.AuditStat
		var outcome string
		var day sql.NullString
		if err := rows.Scan(&outcome, &day, &s.Count); err != nil {
			return nil, fmt.Errorf("scan audit stat: %w", err)
		}
		s.Outcome = models.Outcome(outcome)
		s.Day = day.String
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// Cleanup deletes entries older than the configured retention period.
func (l *Logger) Cleanup(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -l.cfg.RetentionDays)
	res, err := l.db.ExecContext(ctx,
		`DELETE FROM audit_log WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("audit cleanup: %w", err)
	}
	return res.RowsAffected()
}

// Close stops the retention goroutine and closes the database.
func (l *Logger) Close() error {
	close(l.done)
	l.wg.Wait()
	return l.db.Close()
}

func (l *Logger) retentionLoop() {
	defer l.wg.Done()
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			_, _ = l.Cleanup(context.Background())
		}
	}
}
