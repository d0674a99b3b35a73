package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	txcontext "arrears/pkg/platform/tx"
)

// Record is one unprocessed outbox row.
type Record struct {
	ID          uuid.UUID
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

// PostgresStore claims and acknowledges outbox rows.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// WithinTx runs fn in a transaction so claimed rows stay locked until they
// are marked processed.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin outbox tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit outbox tx: %w", err)
	}
	return nil
}

// Pending returns up to limit unprocessed rows, oldest first. Rows locked by
// another relay are skipped.
func (s *PostgresStore) Pending(ctx context.Context, limit int) ([]Record, error) {
	query := `
		SELECT id, aggregate_id, event_type, payload, created_at
		FROM outbox
		WHERE processed_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	rows, err := txcontext.ExecutorFrom(ctx, s.db).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.AggregateID, &r.EventType, &r.Payload, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox rows: %w", err)
	}
	return records, nil
}

// MarkProcessed stamps the given rows as published.
func (s *PostgresStore) MarkProcessed(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	arg, err := pq.Array(strs).Value()
	if err != nil {
		return fmt.Errorf("encode outbox ids: %w", err)
	}
	query := `UPDATE outbox SET processed_at = $1 WHERE id = ANY($2::uuid[])`
	if _, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, query, at, arg); err != nil {
		return fmt.Errorf("mark outbox processed: %w", err)
	}
	return nil
}
