package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"arrears/internal/delinquency/models"
	"arrears/internal/platform/postgres"
	id "arrears/pkg/domain"
	"arrears/pkg/platform/sentinel"
	txcontext "arrears/pkg/platform/tx"
	"arrears/pkg/requestcontext"
)

// PostgresStore persists timelines in loan_delinquency_actions. Insertion
// order is kept by the seq column.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectEntries = `
	SELECT id, loan_id, action, start_date, end_date, created_at
	FROM loan_delinquency_actions`

func (s *PostgresStore) ListByLoan(ctx context.Context, loanID id.LoanID) ([]models.Entry, error) {
	rows, err := txcontext.ExecutorFrom(ctx, s.db).QueryContext(ctx,
		selectEntries+` WHERE loan_id = $1 ORDER BY seq`, uuid.UUID(loanID))
	if err != nil {
		return nil, fmt.Errorf("query timeline: %w", err)
	}
	defer rows.Close()

	timeline := []models.Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		timeline = append(timeline, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timeline: %w", err)
	}
	return timeline, nil
}

// ListByLoans loads several timelines in one round trip.
func (s *PostgresStore) ListByLoans(ctx context.Context, loanIDs []id.LoanID) (map[id.LoanID][]models.Entry, error) {
	out := make(map[id.LoanID][]models.Entry, len(loanIDs))
	if len(loanIDs) == 0 {
		return out, nil
	}

	ids := make([]string, len(loanIDs))
	for i, loanID := range loanIDs {
		ids[i] = loanID.String()
	}
	// bound as a text array literal
	arg, err := pq.Array(ids).Value()
	if err != nil {
		return nil, fmt.Errorf("encode loan ids: %w", err)
	}

	rows, err := txcontext.ExecutorFrom(ctx, s.db).QueryContext(ctx,
		selectEntries+` WHERE loan_id = ANY($1::uuid[]) ORDER BY loan_id, seq`, arg)
	if err != nil {
		return nil, fmt.Errorf("query timelines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out[entry.LoanID] = append(out[entry.LoanID], entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timelines: %w", err)
	}
	return out, nil
}

// Append inserts the entry, assigning ID and CreatedAt when unset.
// An unknown loan yields sentinel.ErrNotFound.
func (s *PostgresStore) Append(ctx context.Context, entry *models.Entry) error {
	if entry.ID.IsNil() {
		entry.ID = id.NewEntryID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = requestcontext.Now(ctx)
	}

	var end any
	if entry.EndDate != nil {
		end = *entry.EndDate
	}
	_, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO loan_delinquency_actions (id, loan_id, action, start_date, end_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(entry.ID), uuid.UUID(entry.LoanID), string(entry.Action), entry.StartDate, end, entry.CreatedAt,
	)
	if err != nil {
		if postgres.HasCode(err, postgres.CodeForeignKeyViolation) {
			return fmt.Errorf("append to timeline of loan %s: %w", entry.LoanID, sentinel.ErrNotFound)
		}
		return fmt.Errorf("append to timeline: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (models.Entry, error) {
	var (
		entryID, loanID uuid.UUID
		action          string
		start           time.Time
		end             sql.NullTime
		entry           models.Entry
	)
	if err := row.Scan(&entryID, &loanID, &action, &start, &end, &entry.CreatedAt); err != nil {
		return models.Entry{}, fmt.Errorf("scan timeline entry: %w", err)
	}
	entry.ID = id.EntryID(entryID)
	entry.LoanID = id.LoanID(loanID)
	entry.Action = models.Action(action)
	entry.StartDate = models.Date(start)
	if end.Valid {
		d := models.Date(end.Time)
		entry.EndDate = &d
	}
	return entry, nil
}
