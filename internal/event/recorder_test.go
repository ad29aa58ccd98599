package event

import (
	"fmt"
	"testing"
)

func TestRecorder_RecordsAllKinds(t *testing.T) {
	bus := NewBus()
	rec := NewRecorder(10)
	rec.Attach(bus)

	bus.EmitTaskStarted("a", nil)
	bus.EmitAttentionRequired("b", nil)
	bus.Publish(ActivityEvent{Kind: "custom", Source: "c"})

	events := rec.Events()
	if len(events) != 3 {
		t.Fatalf("recorded %d events, want 3", len(events))
	}
	if events[0].Source != "a" || events[2].Source != "c" {
		t.Errorf("unexpected order: %+v", events)
	}
}

func TestRecorder_DropsOldest(t *testing.T) {
	bus := NewBus()
	rec := NewRecorder(3)
	rec.Attach(bus)

	for i := 0; i < 5; i++ {
		bus.EmitIdle(fmt.Sprintf("s%d", i), nil)
	}

	events := rec.Events()
	if rec.Len() != 3 || len(events) != 3 {
		t.Fatalf("Len() = %d, want 3", rec.Len())
	}
	for i, want := range []string{"s2", "s3", "s4"} {
		if events[i].Source != want {
			t.Errorf("events[%d].Source = %q, want %q", i, events[i].Source, want)
		}
	}
}

func TestRecorder_DefaultCapacity(t *testing.T) {
	bus := NewBus()
	rec := NewRecorder(0)
	rec.Attach(bus)

	for i := 0; i < DefaultRecorderCapacity+25; i++ {
		bus.EmitIdle("s", nil)
	}
	if rec.Len() != DefaultRecorderCapacity {
		t.Errorf("Len() = %d, want %d", rec.Len(), DefaultRecorderCapacity)
	}
}

func TestRecorder_Detach(t *testing.T) {
	bus := NewBus()
	rec := NewRecorder(5)
	rec.Attach(bus)
	bus.EmitIdle("before", nil)

	rec.Detach()
	rec.Detach()
	bus.EmitIdle("after", nil)

	if rec.Len() != 1 {
		t.Errorf("Len() = %d, want 1", rec.Len())
	}
	if bus.SubscriptionCount() != 0 {
		t.Errorf("recorder still subscribed: %d", bus.SubscriptionCount())
	}
}

func TestRecorder_EventsIsCopy(t *testing.T) {
	bus := NewBus()
	rec := NewRecorder(5)
	rec.Attach(bus)
	bus.EmitIdle("s", nil)

	events := rec.Events()
	events[0].Source = "mutated"

	if rec.Events()[0].Source != "s" {
		t.Error("Events() should return a copy")
	}

	rec.Reset()
	if rec.Len() != 0 {
		t.Errorf("Len() after Reset = %d", rec.Len())
	}
}
