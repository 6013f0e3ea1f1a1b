package events

import (
	"context"
	"errors"
	"testing"
)

func TestDispatcherInvokesSubscribers(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var got []Event
	dispatcher.Subscribe(EventRepairStatusChanged, func(_ context.Context, event Event) error {
		got = append(got, event)
		return nil
	})

	event := Event{ID: "e1", Type: EventRepairStatusChanged, RepairID: "r1"}
	if err := dispatcher.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(got) != 1 || got[0].RepairID != "r1" {
		t.Errorf("expected 1 delivered event, got %+v", got)
	}
}

func TestDispatcherIgnoresUnrelatedTypes(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	called := false
	dispatcher.Subscribe(EventRepairCreated, func(_ context.Context, _ Event) error {
		called = true
		return nil
	})

	_ = dispatcher.Publish(context.Background(), Event{Type: EventHandoffCompleted})
	if called {
		t.Error("handler invoked for unrelated event type")
	}
}

func TestDispatcherContinuesAfterHandlerError(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var order []string
	dispatcher.Subscribe(EventRepairCreated, func(_ context.Context, _ Event) error {
		order = append(order, "first")
		return errors.New("boom")
	})
	dispatcher.Subscribe(EventRepairCreated, func(_ context.Context, _ Event) error {
		order = append(order, "second")
		return nil
	})

	if err := dispatcher.Publish(context.Background(), Event{Type: EventRepairCreated}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(order) != 2 {
		t.Errorf("expected both handlers to run, got %v", order)
	}
}
