// Package clock provides the epoch clock: a background time source deriving
// a monotonically increasing block counter and epoch counter from wall-clock
// time, with fan-out notification of epoch boundaries.
package clock

import (
	"sync"
	"sync/atomic"
)

// BroadcastChannelSize is the per-subscriber event backlog. A subscriber
// that falls behind loses its oldest unread events once the backlog is full:
// delivery is at-most-once and best-effort, the broadcaster never blocks.
const BroadcastChannelSize = 64

// Event is an epoch-change notification carrying the epoch just entered.
type Event struct {
	Epoch uint64
}

// Subscription is one receive cursor on the clock's event stream.
type Subscription struct {
	C      <-chan Event
	ch     chan Event
	cancel func()
	once   sync.Once
}

// Unsubscribe detaches the subscription from the clock. Safe to call twice.
func (s *Subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

// eventBus fans events out to any number of subscribers, each with its own
// bounded backlog. One sender, many independent cursors.
type eventBus struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func newEventBus() *eventBus {
	return &eventBus{subs: make(map[*Subscription]struct{})}
}

func (b *eventBus) subscribe() *Subscription {
	ch := make(chan Event, BroadcastChannelSize)
	sub := &Subscription{C: ch, ch: ch}
	sub.cancel = func() {
		b.mu.Lock()
		delete(b.subs, sub)
		b.mu.Unlock()
	}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// publish delivers ev to every subscriber. A full backlog evicts the oldest
// buffered event; with no subscribers this is a no-op.
func (b *eventBus) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs {
		select {
		case sub.ch <- ev:
		default:
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- ev:
			default:
			}
		}
	}
}

// ClockRef is the running clock's handle: shared read access to the
// counters plus the ability to open new event subscriptions at any time.
// Late subscribers see only future events.
type ClockRef struct {
	currentBlock *atomic.Uint64
	currentEpoch *atomic.Uint64
	bus          *eventBus
}

// CurrentBlock returns the current block counter.
func (r *ClockRef) CurrentBlock() uint64 {
	return r.currentBlock.Load()
}

// CurrentEpoch returns the current epoch counter.
func (r *ClockRef) CurrentEpoch() uint64 {
	return r.currentEpoch.Load()
}

// Subscribe opens a new event subscription.
func (r *ClockRef) Subscribe() *Subscription {
	return r.bus.subscribe()
}
