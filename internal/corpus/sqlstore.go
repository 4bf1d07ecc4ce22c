package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/firscan/internal/fields"
	"github.com/jackzampolin/firscan/internal/types"
)

// SQLStore implements Store on the SQLite database opened by store.Open.
type SQLStore struct {
	db     *sql.DB
	logger *slog.Logger
	// mu serializes appends.
	mu  sync.Mutex
	now func() time.Time
}

// NewSQLStore creates a SQLStore.
func NewSQLStore(db *sql.DB, logger *slog.Logger) *SQLStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLStore{db: db, logger: logger, now: time.Now}
}

// Append validates s, assigns its id and timestamp, and stores it. Nothing
// is stored when validation fails.
func (st *SQLStore) Append(ctx context.Context, s Sample) (string, error) {
	s, err := Validate(s)
	if err != nil {
		return "", err
	}
	s.ID = uuid.NewString()
	s.CreatedAt = st.now().UTC()
	if s.Spans == nil {
		s.Spans = []types.TextSpan{}
	}

	spans, err := json.Marshal(s.Spans)
	if err != nil {
		return "", fmt.Errorf("encode spans: %w", err)
	}
	corrections, err := json.Marshal(s.Corrections)
	if err != nil {
		return "", fmt.Errorf("encode corrections: %w", err)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	tx, err := st.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO samples(id, file_id, spans, corrections, created_at) VALUES(?, ?, ?, ?, ?)",
		s.ID, s.FileID, string(spans), string(corrections), s.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert sample: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit sample: %w", err)
	}

	seq, _ := res.LastInsertId()
	st.logger.Info("training sample stored", "id", s.ID, "seq", seq, "fields", len(s.Corrections))
	return s.ID, nil
}

// Count returns the number of stored samples.
func (st *SQLStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := st.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM samples").Scan(&n); err != nil {
		return 0, fmt.Errorf("count samples: %w", err)
	}
	return n, nil
}

// List returns every sample in append order.
func (st *SQLStore) List(ctx context.Context) ([]Sample, error) {
	return st.query(ctx, st.db, "SELECT "+sampleColumns+" FROM samples ORDER BY seq")
}

// Get returns one sample by id.
func (st *SQLStore) Get(ctx context.Context, id string) (Sample, error) {
	out, err := st.query(ctx, st.db, "SELECT "+sampleColumns+" FROM samples WHERE id = ?", id)
	if err != nil {
		return Sample{}, err
	}
	if len(out) == 0 {
		return Sample{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return out[0], nil
}

// Snapshot reads the samples up to the current highest Seq in a single
// transaction. Appends committed after the read began are not included.
func (st *SQLStore) Snapshot(ctx context.Context) (Snapshot, error) {
	tx, err := st.db.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var seq sql.NullInt64
	if err := tx.QueryRowContext(ctx, "SELECT MAX(seq) FROM samples").Scan(&seq); err != nil {
		return Snapshot{}, fmt.Errorf("read max seq: %w", err)
	}
	samples, err := st.query(ctx, tx, "SELECT "+sampleColumns+" FROM samples WHERE seq <= ? ORDER BY seq", seq.Int64)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Seq: seq.Int64, Samples: samples}, nil
}

const sampleColumns = "seq, id, file_id, spans, corrections, created_at"

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (st *SQLStore) query(ctx context.Context, q querier, query string, args ...any) ([]Sample, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		var s Sample
		var spans, corrections, createdAt string
		if err := rows.Scan(&s.Seq, &s.ID, &s.FileID, &spans, &corrections, &createdAt); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		if err := json.Unmarshal([]byte(spans), &s.Spans); err != nil {
			return nil, fmt.Errorf("decode spans of %s: %w", s.ID, err)
		}
		if s.Corrections, err = decodeCorrections([]byte(corrections)); err != nil {
			return nil, fmt.Errorf("decode corrections of %s: %w", s.ID, err)
		}
		if s.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at of %s: %w", s.ID, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}
	return out, nil
}

func decodeCorrections(b []byte) (map[fields.Kind][]fields.Value, error) {
	var raw map[fields.Kind][]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	out := make(map[fields.Kind][]fields.Value, len(raw))
	for kind, items := range raw {
		for _, item := range items {
			v, err := fields.Decode(kind, item)
			if err != nil {
				return nil, err
			}
			out[kind] = append(out[kind], v)
		}
	}
	return out, nil
}

var _ Store = (*SQLStore)(nil)
