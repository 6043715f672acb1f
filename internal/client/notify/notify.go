// Package notify delivers change notifications to subscribers in order.
package notify

import (
	"maps"
	"slices"
	"sync"
)

// Observers is a subscriber list with serialized delivery. Values are
// delivered in the order Notify was called. A Notify made from inside a
// callback is queued and delivered after the current callback returns,
// so subscribers may safely call back into the notifying component.
type Observers[T any] struct {
	mu         sync.Mutex
	nextID     uint64
	subs       map[uint64]func(T)
	queue      []T
	delivering bool
}

// Subscribe registers fn and returns a function that removes it.
// The returned function is idempotent.
func (o *Observers[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.subs == nil {
		o.subs = make(map[uint64]func(T))
	}
	o.nextID++
	id := o.nextID
	o.subs[id] = fn
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.subs, id)
	}
}

// Len reports the number of subscribers.
func (o *Observers[T]) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.subs)
}

// Notify queues v for delivery to every current subscriber. If no delivery
// is in progress the caller delivers the queue itself before returning.
func (o *Observers[T]) Notify(v T) {
	o.mu.Lock()
	o.queue = append(o.queue, v)
	if o.delivering {
		o.mu.Unlock()
		return
	}
	o.delivering = true

	for len(o.queue) > 0 {
		next := o.queue[0]
		o.queue = o.queue[1:]
		subs := o.ordered()
		o.mu.Unlock()

		for _, fn := range subs {
			fn(next)
		}

		o.mu.Lock()
	}
	o.delivering = false
	o.queue = nil
	o.mu.Unlock()
}

// ordered returns subscribers in subscription order. Caller holds mu.
func (o *Observers[T]) ordered() []func(T) {
	ids := slices.Sorted(maps.Keys(o.subs))
	out := make([]func(T), len(ids))
	for i, id := range ids {
		out[i] = o.subs[id]
	}
	return out
}
