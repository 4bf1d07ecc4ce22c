package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Query provides queries for metrics.
type Query struct {
	db *sql.DB
}

// NewQuery creates a new metrics query helper.
func NewQuery(db *sql.DB) *Query {
	return &Query{db: db}
}

// Filter specifies query filters.
type Filter struct {
	Operation Operation
	Provider  string
	After     time.Time
	Before    time.Time
	Success   *bool // nil = any, true = success only, false = errors only
}

// whereClause builds a SQL WHERE clause and its arguments from a Filter.
func whereClause(f Filter) (string, []any) {
	var parts []string
	var args []any

	if f.Operation != "" {
		parts = append(parts, "operation = ?")
		args = append(args, string(f.Operation))
	}
	if f.Provider != "" {
		parts = append(parts, "provider = ?")
		args = append(args, f.Provider)
	}
	if !f.After.IsZero() {
		parts = append(parts, "created_at > ?")
		args = append(args, f.After.UTC().Format(timeLayout))
	}
	if !f.Before.IsZero() {
		parts = append(parts, "created_at < ?")
		args = append(args, f.Before.UTC().Format(timeLayout))
	}
	if f.Success != nil {
		parts = append(parts, "success = ?")
		args = append(args, *f.Success)
	}

	if len(parts) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

// List returns metrics matching the filter, newest first. A limit of 0
// returns all of them.
func (q *Query) List(ctx context.Context, f Filter, limit int) ([]Metric, error) {
	where, args := whereClause(f)
	query := `SELECT id, operation, provider, rule_set_version, pages, spans, fields, seconds, success, error_type, created_at
		FROM metrics` + where + ` ORDER BY id DESC`
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer rows.Close()

	metrics := []Metric{}
	for rows.Next() {
		var m Metric
		var op, createdAt string
		if err := rows.Scan(&m.ID, &op, &m.Provider, &m.RuleSetVersion, &m.Pages, &m.Spans,
			&m.Fields, &m.Seconds, &m.Success, &m.ErrorType, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan metric: %w", err)
		}
		m.Operation = Operation(op)
		if m.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at of metric %d: %w", m.ID, err)
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}
