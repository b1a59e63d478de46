package eventing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"balancegrid/internal/eventing"
	"balancegrid/internal/eventing/eventbus"
	eventingmemory "balancegrid/internal/eventing/infrastructure/memory"
)

type orderPlaced struct {
	OrderID string `json:"orderId"`
	Amount  int    `json:"amount"`
}

func TestRegistryDecodesRegisteredTypes(t *testing.T) {
	registry := eventing.NewRegistry()
	registry.Register(orderPlaced{})

	env, err := eventing.BuildEnvelope(orderPlaced{OrderID: "ord-1", Amount: 42}, eventing.Meta{TenantID: "tn-1"})
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	if env.EventType != eventbus.EventTypeOf[orderPlaced]() {
		t.Fatalf("event type = %s", env.EventType)
	}
	if env.TenantID != "tn-1" {
		t.Fatalf("tenant = %s", env.TenantID)
	}

	decoded, err := registry.DecodePayload(env)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	placed, ok := decoded.(orderPlaced)
	if !ok {
		t.Fatalf("decoded %T", decoded)
	}
	if placed.OrderID != "ord-1" || placed.Amount != 42 {
		t.Fatalf("bad payload: %+v", placed)
	}
}

func TestRegistryRejectsUnknownTypes(t *testing.T) {
	registry := eventing.NewRegistry()
	env, err := eventing.BuildEnvelope(orderPlaced{OrderID: "ord-1"}, eventing.Meta{})
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	if _, err := registry.DecodePayload(env); err == nil {
		t.Fatal("expected error for unregistered type")
	}
}

func TestWrapHandlerSkipsDuplicates(t *testing.T) {
	store := eventingmemory.NewProcessedStore()
	calls := 0
	handler := eventing.WrapHandler("test-consumer", func(ctx context.Context, event any) error {
		calls++
		return nil
	}, store)

	env := eventing.Envelope{EventID: "evt-1", OccurredAt: time.Now().UTC()}
	ctx := eventing.WithEnvelope(context.Background(), env)

	if err := handler(ctx, orderPlaced{}); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := handler(ctx, orderPlaced{}); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if calls != 1 {
		t.Fatalf("handler ran %d times, want 1", calls)
	}
}

func TestWrapHandlerDoesNotMarkFailedDeliveries(t *testing.T) {
	store := eventingmemory.NewProcessedStore()
	boom := errors.New("boom")
	fail := true
	calls := 0
	handler := eventing.WrapHandler("test-consumer", func(ctx context.Context, event any) error {
		calls++
		if fail {
			return boom
		}
		return nil
	}, store)

	ctx := eventing.WithEnvelope(context.Background(), eventing.Envelope{EventID: "evt-2"})
	if err := handler(ctx, orderPlaced{}); !errors.Is(err, boom) {
		t.Fatalf("expected handler error, got %v", err)
	}

	// A failed delivery must stay retryable.
	fail = false
	if err := handler(ctx, orderPlaced{}); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if calls != 2 {
		t.Fatalf("handler ran %d times, want 2", calls)
	}
}

func TestDispatcherDeliversAndMarksSent(t *testing.T) {
	registry := eventing.NewRegistry()
	registry.Register(orderPlaced{})
	outbox := eventingmemory.NewOutboxStore()
	bus := eventbus.NewInMemoryBus()

	received := make([]orderPlaced, 0)
	bus.Subscribe(eventbus.EventTypeOf[orderPlaced](), func(ctx context.Context, event any) error {
		placed, ok := event.(orderPlaced)
		if !ok {
			return eventbus.ErrInvalidEventType
		}
		received = append(received, placed)
		return nil
	})

	publisher := eventing.NewPublisher(outbox, "tn-1", nil)
	if err := publisher.Publish(context.Background(), orderPlaced{OrderID: "ord-1", Amount: 7}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	dispatcher := eventing.NewDispatcher(bus, outbox, registry, nil)
	result, err := dispatcher.Dispatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if result.Sent != 1 || result.Failed != 0 {
		t.Fatalf("result = %+v", result)
	}
	if len(received) != 1 || received[0].OrderID != "ord-1" {
		t.Fatalf("received = %+v", received)
	}

	// Sent records are not re-claimed.
	again, err := dispatcher.Dispatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("second dispatch: %v", err)
	}
	if again.Claimed != 0 {
		t.Fatalf("re-claimed %d records", again.Claimed)
	}
}
