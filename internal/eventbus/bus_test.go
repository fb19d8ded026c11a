package eventbus

import (
	"context"
	"errors"
	"testing"

	"github.com/hrms-go/backend/internal/model"
)

func TestBusPublishBroadcast(t *testing.T) {
	bus := NewContractEventBus()
	calledA := false
	calledB := false

	bus.Subscribe(ContractEventSent, func(ctx context.Context, event ContractEvent) error {
		calledA = true
		return nil
	})
	bus.Subscribe(ContractEventSent, func(ctx context.Context, event ContractEvent) error {
		calledB = true
		return nil
	})

	if err := bus.Publish(context.Background(), ContractEvent{Type: ContractEventSent}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !calledA || !calledB {
		t.Fatalf("expected handlers to be called")
	}
}

func TestBusDispatchesByType(t *testing.T) {
	bus := NewContractEventBus()
	var got []ContractEventType
	bus.Subscribe(ContractEventCompleted, func(ctx context.Context, event ContractEvent) error {
		got = append(got, event.Type)
		if event.Instance.ContractNumber != "CONT-1" {
			t.Errorf("expected instance snapshot, got %+v", event.Instance)
		}
		return nil
	})

	_ = bus.Publish(context.Background(), ContractEvent{Type: ContractEventSent})
	_ = bus.Publish(context.Background(), ContractEvent{
		Type:     ContractEventCompleted,
		Instance: model.ContractInstance{ContractNumber: "CONT-1"},
	})

	if len(got) != 1 || got[0] != ContractEventCompleted {
		t.Fatalf("expected only completed event, got %v", got)
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewContractEventBus()
	called := false
	unsubscribe := bus.Subscribe(ContractEventSent, func(ctx context.Context, event ContractEvent) error {
		called = true
		return nil
	})
	unsubscribe()

	if err := bus.Publish(context.Background(), ContractEvent{Type: ContractEventSent}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatalf("expected handler to be unsubscribed")
	}
}

func TestBusPublishJoinErrors(t *testing.T) {
	bus := NewContractEventBus()
	bus.Subscribe(ContractEventSent, func(ctx context.Context, event ContractEvent) error {
		return errors.New("err-a")
	})
	bus.Subscribe(ContractEventSent, func(ctx context.Context, event ContractEvent) error {
		return errors.New("err-b")
	})

	err := bus.Publish(context.Background(), ContractEvent{Type: ContractEventSent})
	if err == nil {
		t.Fatalf("expected error")
	}
	if err.Error() != "err-a\nerr-b" && err.Error() != "err-b\nerr-a" {
		t.Fatalf("expected joined errors, got %q", err.Error())
	}
}
