package eventing

import (
	"context"
	"time"

	"go.uber.org/zap"

	"balancegrid/internal/observability/metrics"
)

// OutboxWriter inserts outbox records.
type OutboxWriter interface {
	Insert(ctx context.Context, env Envelope) (string, error)
}

// Publisher writes events to the outbox for later dispatch. Delivery to
// consumers is asynchronous; Publish returning does not mean the event
// has been consumed.
type Publisher struct {
	outbox   OutboxWriter
	tenantID string
	logger   *zap.Logger
}

// NewPublisher constructs a publisher. The tenant id is the fallback
// used when the calling context carries no identity.
func NewPublisher(outbox OutboxWriter, tenantID string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{outbox: outbox, tenantID: tenantID, logger: logger}
}

// Publish wraps the event in an envelope and writes it to the outbox.
func (p *Publisher) Publish(ctx context.Context, event any) error {
	start := time.Now()
	if p == nil || p.outbox == nil {
		metrics.ObserveOutboxPublish(metrics.ResultSuccess, time.Since(start))
		return nil
	}
	env, err := BuildEnvelope(event, MetaFromContext(ctx, p.tenantID))
	if err != nil {
		metrics.ObserveOutboxPublish(metrics.ResultError, time.Since(start))
		return err
	}
	if _, err := p.outbox.Insert(ctx, env); err != nil {
		metrics.ObserveOutboxPublish(metrics.ResultError, time.Since(start))
		p.logger.Warn("outbox publish failed",
			zap.String("event_type", env.EventType),
			zap.Error(err),
		)
		return err
	}
	metrics.ObserveOutboxPublish(metrics.ResultSuccess, time.Since(start))
	return nil
}
