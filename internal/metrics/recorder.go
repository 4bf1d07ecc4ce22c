package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Recorder handles recording metrics to the store.
type Recorder struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewRecorder creates a new metrics recorder.
func NewRecorder(db *sql.DB, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{db: db, logger: logger, now: time.Now}
}

// Record stores a single metric and returns its ID.
func (r *Recorder) Record(ctx context.Context, m Metric) (int64, error) {
	if m.Operation == "" {
		return 0, fmt.Errorf("metric has no operation")
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = r.now()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO metrics(operation, provider, rule_set_version, pages, spans, fields, seconds, success, error_type, created_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(m.Operation), m.Provider, m.RuleSetVersion, m.Pages, m.Spans, m.Fields,
		m.Seconds, m.Success, m.ErrorType, m.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record metric: %w", err)
	}
	return res.LastInsertId()
}

// Observe records an operation that started at start and ended with err.
// Failures to record are logged, never returned, so callers can defer it.
func (r *Recorder) Observe(ctx context.Context, m Metric, start time.Time, err error) {
	if r == nil {
		return
	}
	m.Seconds = r.now().Sub(start).Seconds()
	m.Success = err == nil
	if err != nil && m.ErrorType == "" {
		m.ErrorType = "error"
	}
	// Record even when the request context is already cancelled.
	if _, rerr := r.Record(context.WithoutCancel(ctx), m); rerr != nil {
		r.logger.Warn("metric not recorded", "operation", m.Operation, "error", rerr)
	}
}
