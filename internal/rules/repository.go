package rules

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	// ErrNotFound is returned when a version or the active pointer does not exist.
	ErrNotFound = errors.New("rule set not found")
	// ErrVersionExists is returned when saving over a published version.
	ErrVersionExists = errors.New("rule set version already exists")
)

// Summary describes a stored rule set without its rules.
type Summary struct {
	Version   int       `json:"version"`
	Parent    int       `json:"parent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Rules     int       `json:"rules"`
	Active    bool      `json:"active"`
}

// Repository persists rule set versions and the active pointer. Versions are
// write-once: Save never replaces an existing version.
type Repository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRepository creates a Repository over a database migrated by store.Open.
func NewRepository(db *sql.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

// Save stores rs under its version.
func (r *Repository) Save(ctx context.Context, rs *RuleSet) error {
	data, err := json.Marshal(rs.Rules())
	if err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM rule_sets WHERE version = ?", rs.Version()).Scan(&n); err != nil {
		return fmt.Errorf("check version: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: %d", ErrVersionExists, rs.Version())
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO rule_sets(version, parent, created_at, rules) VALUES(?, ?, ?, ?)",
		rs.Version(), rs.Parent(), rs.CreatedAt().UTC().Format(time.RFC3339Nano), string(data),
	)
	if err != nil {
		return fmt.Errorf("insert rule set: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rule set: %w", err)
	}
	r.logger.Debug("rule set saved", "version", rs.Version(), "rules", rs.Len())
	return nil
}

// Get loads a stored version.
func (r *Repository) Get(ctx context.Context, version int) (*RuleSet, error) {
	var parent int
	var createdAt, data string
	err := r.db.QueryRowContext(ctx,
		"SELECT parent, created_at, rules FROM rule_sets WHERE version = ?", version,
	).Scan(&parent, &createdAt, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: version %d", ErrNotFound, version)
	}
	if err != nil {
		return nil, fmt.Errorf("query rule set: %w", err)
	}

	m := Manifest{Version: version, Parent: parent}
	if m.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at of version %d: %w", version, err)
	}
	if err := json.Unmarshal([]byte(data), &m.Rules); err != nil {
		return nil, fmt.Errorf("decode rules of version %d: %w", version, err)
	}
	return New(m)
}

// List returns every stored version, oldest first.
func (r *Repository) List(ctx context.Context) ([]Summary, error) {
	active, err := r.ActiveVersion(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT version, parent, created_at, json_array_length(rules) FROM rule_sets ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("list rule sets: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		var createdAt string
		if err := rows.Scan(&s.Version, &s.Parent, &createdAt, &s.Rules); err != nil {
			return nil, fmt.Errorf("scan rule set: %w", err)
		}
		if s.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at of version %d: %w", s.Version, err)
		}
		s.Active = s.Version == active
		out = append(out, s)
	}
	return out, rows.Err()
}

// NextVersion returns one more than the highest stored version.
func (r *Repository) NextVersion(ctx context.Context) (int, error) {
	var v sql.NullInt64
	if err := r.db.QueryRowContext(ctx, "SELECT MAX(version) FROM rule_sets").Scan(&v); err != nil {
		return 0, fmt.Errorf("query max version: %w", err)
	}
	return int(v.Int64) + 1, nil
}

// Activate points the active pointer at a stored version.
func (r *Repository) Activate(ctx context.Context, version int) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO active_rule_set(id, version, activated_at)
		 SELECT 1, version, ? FROM rule_sets WHERE version = ?
		 ON CONFLICT(id) DO UPDATE SET version = excluded.version, activated_at = excluded.activated_at`,
		time.Now().UTC().Format(time.RFC3339Nano), version,
	)
	if err != nil {
		return fmt.Errorf("activate version %d: %w", version, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: version %d", ErrNotFound, version)
	}
	r.logger.Info("rule set activated", "version", version)
	return nil
}

// ActiveVersion returns the version the active pointer names.
func (r *Repository) ActiveVersion(ctx context.Context) (int, error) {
	var v int
	err := r.db.QueryRowContext(ctx, "SELECT version FROM active_rule_set WHERE id = 1").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("query active version: %w", err)
	}
	return v, nil
}

// LoadActive loads the set the active pointer names. When none has been
// activated yet, seed is saved and activated instead.
func (r *Repository) LoadActive(ctx context.Context, seed *RuleSet) (*RuleSet, error) {
	v, err := r.ActiveVersion(ctx)
	if err == nil {
		return r.Get(ctx, v)
	}
	if !errors.Is(err, ErrNotFound) || seed == nil {
		return nil, err
	}

	if _, err := r.Get(ctx, seed.Version()); errors.Is(err, ErrNotFound) {
		if err := r.Save(ctx, seed); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	if err := r.Activate(ctx, seed.Version()); err != nil {
		return nil, err
	}
	r.logger.Info("seeded rule set", "version", seed.Version(), "rules", seed.Len())
	return r.Get(ctx, seed.Version())
}
