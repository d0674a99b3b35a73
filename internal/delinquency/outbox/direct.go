package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"arrears/internal/delinquency/models"
)

// DirectPublisher sends events straight to the broker. It backs deployments
// without PostgreSQL, where there is no outbox table to commit against.
// With no producer configured events are only logged.
type DirectPublisher struct {
	producer Producer
	topic    string
	logger   *slog.Logger
}

func NewDirectPublisher(producer Producer, topic string, logger *slog.Logger) *DirectPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirectPublisher{producer: producer, topic: topic, logger: logger}
}

func (p *DirectPublisher) Publish(ctx context.Context, event models.ActionCreated) error {
	if p.producer == nil {
		p.logger.InfoContext(ctx, "delinquency event",
			"event_type", event.EventType,
			"event_id", event.EventID,
			"loan_id", event.LoanID.String(),
			"entry_id", event.EntryID.String(),
		)
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.producer.Produce(ctx, p.topic, []byte(event.LoanID.String()), payload)
}
