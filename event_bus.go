package authflow

import (
	"sync"
	"time"
)

// EventBus is an ordered multi-subscriber broadcast of AuthEvents.
//
// Emit never blocks and never fails: each subscriber owns an unbounded
// queue drained by its own goroutine. All subscribers observe events in
// the order Emit assigned their Sequence. After Close, Emit is a no-op and
// every subscription channel is closed once its queue has drained.
type EventBus struct {
	mu          sync.Mutex
	subscribers map[uint64]*Subscription
	nextID      uint64
	seq         uint64
	closed      bool
	now         func() time.Time
}

// EventBusOption customizes an EventBus.
type EventBusOption func(*EventBus)

// WithEventBusClock sets the clock used to stamp events without OccurredAt.
func WithEventBusClock(clock func() time.Time) EventBusOption {
	return func(b *EventBus) {
		if clock != nil {
			b.now = clock
		}
	}
}

// NewEventBus returns an open bus.
func NewEventBus(opts ...EventBusOption) *EventBus {
	b := &EventBus{
		subscribers: make(map[uint64]*Subscription),
		now:         time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Subscribe registers a new subscriber that receives every event emitted
// from now on. Subscribing to a closed bus returns a subscription whose
// channel is already closed.
func (b *EventBus) Subscribe() *Subscription {
	sub := newSubscription(b)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		sub.finish()
		go sub.pump()
		return sub
	}
	b.nextID++
	sub.id = b.nextID
	b.subscribers[sub.id] = sub
	b.mu.Unlock()

	go sub.pump()
	return sub
}

// Emit stamps the event with the next sequence number and enqueues it for
// every live subscriber. It returns the stamped event. After Close the
// event is dropped and returned unstamped.
func (b *EventBus) Emit(event AuthEvent) AuthEvent {
	if b == nil {
		return event
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return event
	}

	b.seq++
	event.Sequence = b.seq
	if event.OccurredAt.IsZero() {
		event.OccurredAt = b.now()
	}

	for _, sub := range b.subscribers {
		sub.push(event)
	}
	return event
}

// Close ends all subscriptions and turns Emit into a no-op. It is safe to
// call more than once.
func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for id, sub := range b.subscribers {
		sub.finish()
		delete(b.subscribers, id)
	}
}

// Closed reports whether Close was called.
func (b *EventBus) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// SubscriberCount returns the number of live subscribers.
func (b *EventBus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

func (b *EventBus) remove(id uint64) {
	b.mu.Lock()
	delete(b.subscribers, id)
	b.mu.Unlock()
}

// Subscription is one subscriber's view of the bus.
type Subscription struct {
	bus *EventBus
	id  uint64

	mu      sync.Mutex
	queue   []AuthEvent
	closing bool

	signal     chan struct{}
	cancelled  chan struct{}
	cancelOnce sync.Once
	out        chan AuthEvent
}

func newSubscription(bus *EventBus) *Subscription {
	return &Subscription{
		bus:       bus,
		signal:    make(chan struct{}, 1),
		cancelled: make(chan struct{}),
		out:       make(chan AuthEvent),
	}
}

// Events returns the stream of events. It is closed after the bus closes
// (once pending events are delivered) or after Cancel.
func (s *Subscription) Events() <-chan AuthEvent {
	return s.out
}

// Cancel detaches the subscriber and closes its stream without delivering
// pending events.
func (s *Subscription) Cancel() {
	s.cancelOnce.Do(func() {
		if s.id != 0 {
			s.bus.remove(s.id)
		}
		close(s.cancelled)
	})
}

func (s *Subscription) push(event AuthEvent) {
	s.mu.Lock()
	s.queue = append(s.queue, event)
	s.mu.Unlock()
	s.wake()
}

func (s *Subscription) finish() {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()
	s.wake()
}

func (s *Subscription) wake() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *Subscription) pump() {
	defer close(s.out)

	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			closing := s.closing
			s.mu.Unlock()
			if closing {
				return
			}
			select {
			case <-s.signal:
				continue
			case <-s.cancelled:
				return
			}
		}

		event := s.queue[0]
		s.queue[0] = AuthEvent{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- event:
		case <-s.cancelled:
			return
		}
	}
}
