package memorybus

import (
	"testing"
	"time"

	"github.com/Guilhem-Bonnet/episode-owl/internal/ports"
)

func receive(t *testing.T, ch <-chan ports.Event) ports.Event {
	t.Helper()
	select {
	case evt, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed")
		}
		return evt
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for event")
	}
	return ports.Event{}
}

func TestBus_FanOut(t *testing.T) {
	b := New()
	ch1, cancel1 := b.Subscribe()
	defer cancel1()
	ch2, cancel2 := b.Subscribe()
	defer cancel2()

	b.Publish("check.completed", []byte(`{}`))

	e1 := receive(t, ch1)
	e2 := receive(t, ch2)
	if e1.Topic != "check.completed" || e2.Topic != "check.completed" {
		t.Fatalf("unexpected topics: %q %q", e1.Topic, e2.Topic)
	}
	if e1.ID == "" || e1.ID != e2.ID {
		t.Fatalf("expected same non-empty id, got %q %q", e1.ID, e2.ID)
	}
}

func TestBus_DropsWhenFull(t *testing.T) {
	b := NewWithBuffer(1)
	_, cancel := b.Subscribe()
	defer cancel()

	b.Publish("a", nil)
	b.Publish("b", nil)
	b.Publish("c", nil)

	if got := b.Dropped(); got != 2 {
		t.Fatalf("expected 2 dropped, got %d", got)
	}
}

func TestBus_CloseClosesSubscribers(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe()
	b.Close()
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}
	// cancel after close must not panic
	cancel()

	late, _ := b.Subscribe()
	if _, ok := <-late; ok {
		t.Fatalf("expected closed channel after Close")
	}
	b.Publish("x", nil)
}
