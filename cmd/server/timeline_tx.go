package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "arrears/pkg/domain"
	dErrors "arrears/pkg/domain-errors"
	txcontext "arrears/pkg/platform/tx"
)

const defaultTimelineTxTimeout = 5 * time.Second

// timelinePostgresTx serializes writers per loan by locking the loan row for
// the lifetime of the transaction.
type timelinePostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newTimelinePostgresTx(db *sql.DB) *timelinePostgresTx {
	return &timelinePostgresTx{db: db}
}

func (t *timelinePostgresTx) RunInTx(ctx context.Context, loanID id.LoanID, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTimelineTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin timeline tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var locked uuid.UUID
	err = tx.QueryRowContext(ctx, `SELECT id FROM loans WHERE id = $1 FOR UPDATE`, uuid.UUID(loanID)).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return dErrors.New(dErrors.CodeNotFound, "loan not found")
	}
	if err != nil {
		if ctx.Err() != nil {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "timed out waiting for loan lock")
		}
		return fmt.Errorf("lock loan: %w", err)
	}

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit timeline tx: %w", err)
	}
	return nil
}
