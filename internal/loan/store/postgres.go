package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"arrears/internal/loan/models"
	"arrears/internal/platform/postgres"
	id "arrears/pkg/domain"
	"arrears/pkg/platform/sentinel"
	txcontext "arrears/pkg/platform/tx"
)

// PostgresStore persists loans in the loans table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, loan *models.Loan) error {
	_, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO loans (id, external_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.UUID(loan.ID), loan.ExternalID, string(loan.Status), loan.CreatedAt, loan.UpdatedAt,
	)
	if err != nil {
		if postgres.HasCode(err, postgres.CodeUniqueViolation) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert loan: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, loanID id.LoanID) (*models.Loan, error) {
	row := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, external_id, status, created_at, updated_at
		FROM loans WHERE id = $1`, uuid.UUID(loanID))
	return scanLoan(row)
}

// Execute locks the loan row with FOR UPDATE, validates, mutates and writes it
// back. It joins the transaction in ctx or opens its own.
func (s *PostgresStore) Execute(ctx context.Context, loanID id.LoanID, validate func(*models.Loan) error, mutate func(*models.Loan)) (*models.Loan, error) {
	if tx, ok := txcontext.From(ctx); ok {
		return s.execute(ctx, tx, loanID, validate, mutate)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin loan tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	loan, err := s.execute(ctx, tx, loanID, validate, mutate)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit loan tx: %w", err)
	}
	return loan, nil
}

func (s *PostgresStore) execute(ctx context.Context, tx *sql.Tx, loanID id.LoanID, validate func(*models.Loan) error, mutate func(*models.Loan)) (*models.Loan, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT id, external_id, status, created_at, updated_at
		FROM loans WHERE id = $1 FOR UPDATE`, uuid.UUID(loanID))
	loan, err := scanLoan(row)
	if err != nil {
		return nil, err
	}
	if err := validate(loan); err != nil {
		return nil, err
	}
	mutate(loan)

	_, err = tx.ExecContext(ctx, `
		UPDATE loans SET status = $2, updated_at = $3 WHERE id = $1`,
		uuid.UUID(loan.ID), string(loan.Status), loan.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update loan: %w", err)
	}
	return loan, nil
}

func scanLoan(row *sql.Row) (*models.Loan, error) {
	var (
		loanID uuid.UUID
		status string
		loan   models.Loan
	)
	if err := row.Scan(&loanID, &loan.ExternalID, &status, &loan.CreatedAt, &loan.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan loan: %w", err)
	}
	loan.ID = id.LoanID(loanID)
	loan.Status = models.Status(status)
	return &loan, nil
}
