package event

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Iron-Ham/claudeflow/internal/logging"
)

func TestBus_Subscribe(t *testing.T) {
	bus := NewBus()

	called := false
	id := bus.Subscribe(TaskStarted, func(e ActivityEvent) {
		called = true
	})

	if id == "" {
		t.Error("Subscribe should return a non-empty ID")
	}
	if bus.SubscriptionCount() != 1 {
		t.Errorf("Expected 1 subscription, got %d", bus.SubscriptionCount())
	}
	if called {
		t.Error("Handler should not be called until an event is published")
	}
}

func TestBus_SubscribeReturnsUniqueIDs(t *testing.T) {
	bus := NewBus()
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		id := bus.Subscribe(Idle, func(ActivityEvent) {})
		if seen[id] {
			t.Fatalf("duplicate subscription id %q", id)
		}
		seen[id] = true
	}
}

func TestBus_Publish(t *testing.T) {
	bus := NewBus()

	var received []ActivityEvent
	bus.Subscribe(AttentionRequired, func(e ActivityEvent) {
		received = append(received, e)
	})

	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	bus.Publish(New(AttentionRequired, at, "terminal-1", map[string]any{DetailPatternName: "y-n-confirmation"}))

	if len(received) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(received))
	}
	got := received[0]
	if got.Kind != AttentionRequired {
		t.Errorf("Kind = %q, want %q", got.Kind, AttentionRequired)
	}
	if got.Source != "terminal-1" {
		t.Errorf("Source = %q, want terminal-1", got.Source)
	}
	if !got.Time.Equal(at) {
		t.Errorf("Time = %v, want %v", got.Time, at)
	}
	if got.Detail(DetailPatternName) != "y-n-confirmation" {
		t.Errorf("pattern_name = %q", got.Detail(DetailPatternName))
	}
}

func TestBus_PublishOrder(t *testing.T) {
	bus := NewBus()

	var order []string
	bus.SubscribeAll(func(ActivityEvent) { order = append(order, "all") })
	bus.Subscribe(TaskCompleted, func(ActivityEvent) { order = append(order, "first") })
	bus.Subscribe(TaskCompleted, func(ActivityEvent) { order = append(order, "second") })

	bus.EmitTaskCompleted("src", nil)

	want := []string{"first", "second", "all"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestBus_PublishNoMatchingHandlers(t *testing.T) {
	bus := NewBus()

	bus.Subscribe(TaskStarted, func(e ActivityEvent) {
		t.Error("Handler should not be called for non-matching kind")
	})

	bus.EmitIdle("src", nil)
}

func TestBus_UnknownKindReachesOnlyWildcard(t *testing.T) {
	bus := NewBus()

	wildCalls := 0
	bus.SubscribeAll(func(ActivityEvent) { wildCalls++ })
	for _, k := range Kinds() {
		bus.Subscribe(k, func(ActivityEvent) {
			t.Error("kind-specific handler called for unknown kind")
		})
	}

	bus.Publish(ActivityEvent{Kind: "custom.thing", Source: "x"})

	if wildCalls != 1 {
		t.Errorf("wildcard calls = %d, want 1", wildCalls)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()

	called := false
	id := bus.Subscribe(TaskStarted, func(ActivityEvent) { called = true })

	if !bus.Unsubscribe(id) {
		t.Error("Unsubscribe should return true for an existing subscription")
	}
	if bus.SubscriptionCount() != 0 {
		t.Errorf("Expected 0 subscriptions, got %d", bus.SubscriptionCount())
	}

	bus.EmitTaskStarted("src", nil)
	if called {
		t.Error("Handler should not be called after unsubscribe")
	}

	if bus.Unsubscribe(id) {
		t.Error("Unsubscribe should return false for an already removed subscription")
	}
	if bus.Unsubscribe("missing") {
		t.Error("Unsubscribe should return false for an unknown ID")
	}
}

func TestBus_UnsubscribeKeepsOthers(t *testing.T) {
	bus := NewBus()

	var calls []string
	bus.Subscribe(Idle, func(ActivityEvent) { calls = append(calls, "a") })
	id := bus.Subscribe(Idle, func(ActivityEvent) { calls = append(calls, "b") })
	bus.Subscribe(Idle, func(ActivityEvent) { calls = append(calls, "c") })

	bus.Unsubscribe(id)
	bus.EmitIdle("src", nil)

	if strings.Join(calls, "") != "ac" {
		t.Errorf("calls = %v, want [a c]", calls)
	}
}

func TestBus_HandlerPanicIsContained(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWriterLogger(&buf, logging.LevelDebug)
	bus := NewBus(WithLogger(logger))

	after := 0
	bus.Subscribe(AttentionRequired, func(ActivityEvent) { panic("boom") })
	bus.Subscribe(AttentionRequired, func(ActivityEvent) { after++ })

	bus.EmitAttentionRequired("src", nil)
	bus.EmitAttentionRequired("src", nil)

	if after != 2 {
		t.Errorf("later handler ran %d times, want 2", after)
	}
	if bus.SubscriptionCount() != 2 {
		t.Errorf("registry changed after panic: %d subscriptions", bus.SubscriptionCount())
	}
	out := buf.String()
	if !strings.Contains(out, "event handler panicked") || !strings.Contains(out, "boom") {
		t.Errorf("panic not logged: %s", out)
	}
	if !strings.Contains(out, `"component":"bus"`) {
		t.Errorf("log missing component attribute: %s", out)
	}
}

func TestBus_EmittersUseClock(t *testing.T) {
	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	bus := NewBus(WithClock(func() time.Time { return at }))

	var got []ActivityEvent
	bus.SubscribeAll(func(e ActivityEvent) { got = append(got, e) })

	details := map[string]any{"k": "v"}
	bus.EmitTaskStarted("s1", details)
	bus.EmitTaskCompleted("s2", nil)
	bus.EmitAttentionRequired("s3", nil)
	bus.EmitIdle("s4", nil)

	wantKinds := []Kind{TaskStarted, TaskCompleted, AttentionRequired, Idle}
	if len(got) != len(wantKinds) {
		t.Fatalf("got %d events, want %d", len(got), len(wantKinds))
	}
	for i, e := range got {
		if e.Kind != wantKinds[i] {
			t.Errorf("event %d kind = %q, want %q", i, e.Kind, wantKinds[i])
		}
		if !e.Time.Equal(at) {
			t.Errorf("event %d time = %v, want %v", i, e.Time, at)
		}
	}
	if got[0].Detail("k") != "v" {
		t.Errorf("details not passed through: %v", got[0].Details)
	}
}

func TestBus_ReentrantHandlers(t *testing.T) {
	bus := NewBus()

	var calls []Kind
	var selfID string
	selfID = bus.Subscribe(TaskStarted, func(e ActivityEvent) {
		calls = append(calls, e.Kind)
		bus.Unsubscribe(selfID)
		bus.Subscribe(TaskCompleted, func(e ActivityEvent) { calls = append(calls, e.Kind) })
		bus.EmitTaskCompleted(e.Source, nil)
	})

	bus.EmitTaskStarted("src", nil)
	bus.EmitTaskStarted("src", nil)

	want := []Kind{TaskStarted, TaskCompleted}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestBus_Clear(t *testing.T) {
	bus := NewBus()
	bus.Subscribe(TaskStarted, func(ActivityEvent) {})
	bus.SubscribeAll(func(ActivityEvent) {})

	bus.Clear()

	if bus.SubscriptionCount() != 0 {
		t.Errorf("Expected 0 subscriptions after Clear, got %d", bus.SubscriptionCount())
	}
}

func TestBus_ConcurrentAccess(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	count := 0

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := bus.Subscribe(Idle, func(ActivityEvent) {
				mu.Lock()
				count++
				mu.Unlock()
			})
			bus.EmitIdle("src", nil)
			bus.Unsubscribe(id)
		}()
	}
	wg.Wait()

	if bus.SubscriptionCount() != 0 {
		t.Errorf("Expected 0 subscriptions, got %d", bus.SubscriptionCount())
	}
	mu.Lock()
	defer mu.Unlock()
	if count == 0 {
		t.Error("Expected at least one handler invocation")
	}
}

func TestKind_Valid(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{TaskStarted, true},
		{TaskCompleted, true},
		{AttentionRequired, true},
		{Idle, true},
		{"", false},
		{"*", false},
		{"task_started", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}
