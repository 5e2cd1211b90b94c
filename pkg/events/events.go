// Package events publishes graph change notifications to in-process subscribers.
package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// Topic names a kind of graph change.
type Topic string

const (
	NetworkCreated Topic = "network.created"
	NetworkRenamed Topic = "network.renamed"
	NodeCreated    Topic = "node.created"
	NodeRenamed    Topic = "node.renamed"
	NodeRemoved    Topic = "node.removed"
	StatesChanged  Topic = "node.states"
	TableReset     Topic = "node.table_reset"
	TableAssigned  Topic = "node.table"
	LinkCreated    Topic = "link.created"
	LinkDestroyed  Topic = "link.destroyed"
	Advisory       Topic = "advisory"

	// All subscribes to every topic.
	All Topic = "*"
)

// Event describes one change. Fields that do not apply to the topic are empty.
type Event struct {
	Topic   Topic
	Model   string
	Network string
	Node    string
	OldID   string // renames
	From    string // links, network-qualified
	To      string
	Kind    string // link kind
	Detail  string
	Time    time.Time
}

// ErrClosed is returned by Subscribe after Shutdown.
var ErrClosed = errors.New("event bus is shut down")

const bufferSize = 256

// Bus fans events out to subscribers. Publish never blocks: a subscriber whose
// buffer is full misses the event.
type Bus struct {
	subscribers map[Topic]map[*Subscription]bool
	mu          sync.RWMutex
	shutdown    chan struct{}
	isShutdown  bool
	dropped     atomic.Uint64
}

// Subscription receives the events of one topic.
type Subscription struct {
	topic     Topic
	channel   chan Event
	bus       *Bus
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[Topic]map[*Subscription]bool),
		shutdown:    make(chan struct{}),
	}
}

// Subscribe registers for topic until ctx is done or Unsubscribe is called.
func (b *Bus) Subscribe(ctx context.Context, topic Topic) (*Subscription, error) {
	b.mu.Lock()
	if b.isShutdown {
		b.mu.Unlock()
		return nil, ErrClosed
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		topic:   topic,
		channel: make(chan Event, bufferSize),
		bus:     b,
		cancel:  cancel,
	}
	if b.subscribers[topic] == nil {
		b.subscribers[topic] = make(map[*Subscription]bool)
	}
	b.subscribers[topic][sub] = true
	b.mu.Unlock()

	go func() {
		select {
		case <-subCtx.Done():
			sub.Unsubscribe()
		case <-b.shutdown:
		}
	}()

	return sub, nil
}

// Publish delivers e to the subscribers of its topic and of All.
// Sends happen under the read lock so a subscription cannot be closed mid-send.
func (b *Bus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.isShutdown {
		return
	}

	for _, topic := range []Topic{e.Topic, All} {
		for sub := range b.subscribers[topic] {
			select {
			case sub.channel <- e:
			default:
				b.dropped.Add(1)
			}
		}
	}
}

// Dropped returns how many deliveries were skipped because a buffer was full.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// SubscriberCount returns the number of subscribers for a topic.
func (b *Bus) SubscriberCount(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[topic])
}

// Shutdown closes every subscription. Later publishes are ignored.
func (b *Bus) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.isShutdown {
		return
	}
	b.isShutdown = true
	close(b.shutdown)

	for topic, subs := range b.subscribers {
		for sub := range subs {
			sub.cancel()
			sub.close()
		}
		delete(b.subscribers, topic)
	}
}

// Events returns the subscription's channel. It is closed on Unsubscribe or Shutdown.
func (s *Subscription) Events() <-chan Event {
	return s.channel
}

// Unsubscribe removes the subscription and closes its channel.
func (s *Subscription) Unsubscribe() {
	s.cancel()

	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	if subs := s.bus.subscribers[s.topic]; subs != nil {
		delete(subs, s)
		if len(subs) == 0 {
			delete(s.bus.subscribers, s.topic)
		}
	}
	s.close()
}

func (s *Subscription) close() {
	s.closeOnce.Do(func() {
		close(s.channel)
	})
}
