package internal

import (
	"fmt"
	"testing"
	"time"
)

func recvEnvelope(t *testing.T, sub *Subscription) Envelope {
	t.Helper()
	select {
	case env, ok := <-sub.C:
		if !ok {
			t.Fatal("subscription closed unexpectedly")
		}
		return env
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for envelope")
	}
	return Envelope{}
}

func TestBusFanOut(t *testing.T) {
	bus := NewBus()
	a := bus.Subscribe()
	b := bus.Subscribe()
	defer a.Cancel()
	defer b.Cancel()

	env := Envelope{Text: "hello\n", Origin: "1.2.3.4:5"}
	if !bus.Publish(env) {
		t.Fatal("publish failed on open bus")
	}

	for _, sub := range []*Subscription{a, b} {
		if got := recvEnvelope(t, sub); got != env {
			t.Errorf("received %+v, want %+v", got, env)
		}
	}
}

func TestBusPublishOrder(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	defer sub.Cancel()

	for i := 0; i < 5; i++ {
		bus.Publish(Envelope{Text: fmt.Sprintf("line %d\n", i)})
	}
	for i := 0; i < 5; i++ {
		want := fmt.Sprintf("line %d\n", i)
		if got := recvEnvelope(t, sub); got.Text != want {
			t.Fatalf("envelope %d = %q, want %q", i, got.Text, want)
		}
	}
}

func TestBusDropsForSlowSubscriber(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	defer sub.Cancel()

	// One more than the subscriber buffer holds; the last one is lost.
	for i := 0; i <= subscriberBuffer; i++ {
		if !bus.Publish(Envelope{Text: fmt.Sprintf("line %d\n", i)}) {
			t.Fatalf("publish %d failed", i)
		}
	}

	if got := len(sub.ch); got != subscriberBuffer {
		t.Fatalf("buffered envelopes = %d, want %d", got, subscriberBuffer)
	}
	for i := 0; i < subscriberBuffer; i++ {
		want := fmt.Sprintf("line %d\n", i)
		if got := recvEnvelope(t, sub); got.Text != want {
			t.Fatalf("envelope %d = %q, want %q", i, got.Text, want)
		}
	}
}

func TestBusCancelStopsDelivery(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	if got := bus.Subscribers(); got != 1 {
		t.Fatalf("Subscribers() = %d, want 1", got)
	}

	sub.Cancel()
	if got := bus.Subscribers(); got != 0 {
		t.Fatalf("Subscribers() after cancel = %d, want 0", got)
	}

	bus.Publish(Envelope{Text: "after cancel\n"})
	if got := len(sub.ch); got != 0 {
		t.Errorf("cancelled subscription received %d envelopes", got)
	}
}

func TestBusClose(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	bus.Close()

	if bus.Publish(Envelope{Text: "too late\n"}) {
		t.Error("publish succeeded on closed bus")
	}
	if _, ok := <-sub.C; ok {
		t.Error("subscription channel not closed")
	}
	if bus.Subscribe() != nil {
		t.Error("subscribe succeeded on closed bus")
	}
	// Close twice is fine.
	bus.Close()
}

func TestBusPublishWithoutSubscribers(t *testing.T) {
	bus := NewBus()
	if !bus.Publish(Envelope{Text: "into the void\n"}) {
		t.Error("publish with zero subscribers should succeed")
	}
}
