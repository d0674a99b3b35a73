package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	delinquencymetrics "arrears/internal/delinquency/metrics"
	"arrears/pkg/platform/circuit"
	"arrears/pkg/requestcontext"
)

// Store claims pending outbox rows. Pending and MarkProcessed are called
// inside WithinTx.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	Pending(ctx context.Context, limit int) ([]Record, error)
	MarkProcessed(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Producer sends one record to the broker.
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte) error
}

const (
	defaultBatchSize    = 100
	defaultPollInterval = time.Second
)

// Worker relays outbox rows to Kafka, keyed by loan id so a loan's events
// stay ordered within a partition.
type Worker struct {
	store    Store
	producer Producer
	topic    string
	batch    int
	interval time.Duration
	breaker  *circuit.Breaker
	logger   *slog.Logger
	metrics  *delinquencymetrics.Metrics
}

type WorkerOption func(*Worker)

func WithBatchSize(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.batch = n
		}
	}
}

func WithPollInterval(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithBreaker(b *circuit.Breaker) WorkerOption {
	return func(w *Worker) {
		w.breaker = b
	}
}

func WithLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

func WithMetrics(m *delinquencymetrics.Metrics) WorkerOption {
	return func(w *Worker) {
		w.metrics = m
	}
}

func NewWorker(store Store, producer Producer, topic string, opts ...WorkerOption) *Worker {
	w := &Worker{
		store:    store,
		producer: producer,
		topic:    topic,
		batch:    defaultBatchSize,
		interval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.breaker == nil {
		w.breaker = circuit.New("outbox")
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	return w
}

// Run polls the outbox until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
				w.logger.WarnContext(ctx, "outbox batch failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ProcessBatch publishes one batch and returns how many rows were marked
// processed. Publishing stops at the first failure; the remaining rows are
// retried on a later batch.
func (w *Worker) ProcessBatch(ctx context.Context) (int, error) {
	if !w.breaker.Allow() {
		return 0, nil
	}

	var published int
	err := w.store.WithinTx(ctx, func(txCtx context.Context) error {
		records, err := w.store.Pending(txCtx, w.batch)
		if err != nil {
			return err
		}

		done := make([]uuid.UUID, 0, len(records))
		var produceErr error
		for _, r := range records {
			if produceErr = w.producer.Produce(txCtx, w.topic, []byte(r.AggregateID), r.Payload); produceErr != nil {
				break
			}
			done = append(done, r.ID)
			w.recordSuccess(ctx)
		}

		if err := w.store.MarkProcessed(txCtx, done, requestcontext.Now(txCtx)); err != nil {
			return err
		}
		published = len(done)
		if produceErr != nil {
			w.recordFailure(ctx, produceErr)
		}
		return nil
	})
	return published, err
}

func (w *Worker) recordSuccess(ctx context.Context) {
	if w.metrics != nil {
		w.metrics.IncOutboxPublished()
	}
	if _, change := w.breaker.RecordSuccess(); change.Closed {
		w.logger.InfoContext(ctx, "outbox circuit closed", "breaker", w.breaker.Name())
		w.setBreakerGauge(false)
	}
}

func (w *Worker) recordFailure(ctx context.Context, err error) {
	if w.metrics != nil {
		w.metrics.IncOutboxFailure()
	}
	w.logger.WarnContext(ctx, "outbox publish failed", "topic", w.topic, "error", err)
	if _, change := w.breaker.RecordFailure(); change.Opened {
		w.logger.WarnContext(ctx, "outbox circuit opened", "breaker", w.breaker.Name())
		w.setBreakerGauge(true)
	}
}

func (w *Worker) setBreakerGauge(open bool) {
	if w.metrics != nil {
		w.metrics.SetBreakerOpen(open)
	}
}
