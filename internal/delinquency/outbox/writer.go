// Package outbox relays delinquency events to Kafka through the transactional
// outbox table.
package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"arrears/internal/delinquency/models"
	txcontext "arrears/pkg/platform/tx"
	"arrears/pkg/requestcontext"
)

const aggregateLoan = "loan"

// Writer records events in the outbox table. When the context carries a
// transaction the row commits together with the timeline entry.
type Writer struct {
	db *sql.DB
}

func NewWriter(db *sql.DB) *Writer {
	return &Writer{db: db}
}

// Publish implements the delinquency service's EventPublisher.
func (w *Writer) Publish(ctx context.Context, event models.ActionCreated) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}

	query := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = txcontext.ExecutorFrom(ctx, w.db).ExecContext(ctx, query,
		uuid.New(),
		aggregateLoan,
		event.LoanID.String(),
		event.EventType,
		payload,
		requestcontext.Now(ctx),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}
