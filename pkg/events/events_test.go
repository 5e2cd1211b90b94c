package events

import (
	"context"
	"sync"
	"testing"
	"time"
)

func receive(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case e, ok := <-sub.Events():
		if !ok {
			t.Fatal("subscription closed")
		}
		return e
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
	return Event{}
}

func TestPublishSubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Shutdown()

	sub, err := bus.Subscribe(context.Background(), LinkCreated)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	bus.Publish(Event{Topic: LinkCreated, From: "N1.A", To: "N2.B", Kind: "Mean"})

	e := receive(t, sub)
	if e.From != "N1.A" || e.To != "N2.B" || e.Kind != "Mean" {
		t.Errorf("unexpected event %+v", e)
	}
	if e.Time.IsZero() {
		t.Error("Publish should stamp the event time")
	}
}

func TestTopicIsolation(t *testing.T) {
	bus := NewBus()
	defer bus.Shutdown()

	created, _ := bus.Subscribe(context.Background(), NodeCreated)
	removed, _ := bus.Subscribe(context.Background(), NodeRemoved)

	bus.Publish(Event{Topic: NodeCreated, Node: "A"})

	if e := receive(t, created); e.Node != "A" {
		t.Errorf("Node = %q, want A", e.Node)
	}
	select {
	case e := <-removed.Events():
		t.Errorf("node.removed subscriber got %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWildcard(t *testing.T) {
	bus := NewBus()
	defer bus.Shutdown()

	all, _ := bus.Subscribe(context.Background(), All)
	bus.Publish(Event{Topic: NetworkCreated, Network: "N1"})
	bus.Publish(Event{Topic: TableReset, Node: "B"})

	if e := receive(t, all); e.Topic != NetworkCreated {
		t.Errorf("first topic = %s", e.Topic)
	}
	if e := receive(t, all); e.Topic != TableReset {
		t.Errorf("second topic = %s", e.Topic)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	defer bus.Shutdown()

	sub, _ := bus.Subscribe(context.Background(), Advisory)
	if bus.SubscriberCount(Advisory) != 1 {
		t.Fatalf("SubscriberCount = %d, want 1", bus.SubscriberCount(Advisory))
	}
	sub.Unsubscribe()
	sub.Unsubscribe()

	if _, ok := <-sub.Events(); ok {
		t.Error("channel should be closed")
	}
	if bus.SubscriberCount(Advisory) != 0 {
		t.Errorf("SubscriberCount = %d, want 0", bus.SubscriberCount(Advisory))
	}
}

func TestContextCancellation(t *testing.T) {
	bus := NewBus()
	defer bus.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	sub, _ := bus.Subscribe(ctx, NodeRenamed)

	done := make(chan struct{})
	go func() {
		for range sub.Events() {
		}
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("subscription did not close on context cancellation")
	}
}

func TestConcurrentPublishAndUnsubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Shutdown()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		sub, err := bus.Subscribe(context.Background(), LinkDestroyed)
		if err != nil {
			t.Fatal(err)
		}
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				bus.Publish(Event{Topic: LinkDestroyed})
			}
		}()
		go func() {
			defer wg.Done()
			sub.Unsubscribe()
		}()
	}
	wg.Wait()
}

func TestFullBufferDrops(t *testing.T) {
	bus := NewBus()
	defer bus.Shutdown()

	_, _ = bus.Subscribe(context.Background(), StatesChanged)
	for i := 0; i < bufferSize+10; i++ {
		bus.Publish(Event{Topic: StatesChanged})
	}
	if got := bus.Dropped(); got != 10 {
		t.Errorf("Dropped = %d, want 10", got)
	}
}

func TestShutdown(t *testing.T) {
	bus := NewBus()
	sub, _ := bus.Subscribe(context.Background(), NodeCreated)

	bus.Shutdown()
	bus.Shutdown()

	if _, ok := <-sub.Events(); ok {
		t.Error("channel should be closed after shutdown")
	}
	if _, err := bus.Subscribe(context.Background(), NodeCreated); err != ErrClosed {
		t.Errorf("Subscribe after shutdown = %v, want ErrClosed", err)
	}
	bus.Publish(Event{Topic: NodeCreated})
}
