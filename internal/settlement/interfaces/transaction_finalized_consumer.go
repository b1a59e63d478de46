package interfaces

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"balancegrid/internal/eventing"
	"balancegrid/internal/eventing/eventbus"
	"balancegrid/internal/settlement/application"
	txevents "balancegrid/internal/transaction/application/events"
)

// ConsumerName identifies the settlement lifecycle consumer for
// idempotency bookkeeping.
const ConsumerName = "settlement-lifecycle"

// TransactionFinalizedConsumer finalizes the settlement entries of a
// transaction when its finalized notification arrives.
type TransactionFinalizedConsumer struct {
	calculator *application.CalculatorService
	logger     *zap.Logger
}

// NewTransactionFinalizedConsumer constructs a consumer.
func NewTransactionFinalizedConsumer(calculator *application.CalculatorService, logger *zap.Logger) (*TransactionFinalizedConsumer, error) {
	if calculator == nil {
		return nil, errors.New("transaction finalized consumer: nil calculator")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransactionFinalizedConsumer{calculator: calculator, logger: logger}, nil
}

// Register subscribes the consumer on the bus with idempotent delivery.
func (c *TransactionFinalizedConsumer) Register(bus eventbus.EventBus, store eventing.ProcessedStore) {
	eventing.Subscribe(bus, eventbus.EventTypeOf[txevents.TransactionFinalized](), ConsumerName, c.Handle, store)
}

// Handle applies the lifecycle transition to the stored entries.
func (c *TransactionFinalizedConsumer) Handle(ctx context.Context, event any) error {
	var finalized txevents.TransactionFinalized
	switch e := event.(type) {
	case txevents.TransactionFinalized:
		finalized = e
	case *txevents.TransactionFinalized:
		finalized = *e
	default:
		return errors.New("transaction finalized consumer: unexpected event type")
	}

	entries, err := c.calculator.Finalize(ctx, finalized.ID, finalized.TenantID)
	if err != nil {
		c.logger.Error("settlement finalize failed",
			zap.String("transaction_id", finalized.ID),
			zap.String("tenant_id", finalized.TenantID),
			zap.Error(err),
		)
		return err
	}
	c.logger.Info("settlement entries finalized",
		zap.String("transaction_id", finalized.ID),
		zap.String("tenant_id", finalized.TenantID),
		zap.Int("entries", len(entries)),
	)
	return nil
}
