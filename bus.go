package browsersdk

import "sync"

// Bus is a synchronous, typed publish/subscribe primitive. Notify delivers to
// the snapshot of subscribers registered at the moment of the call, in
// registration order. There is no buffering: an event fired while no
// subscriber is attached is lost.
type Bus[T any] struct {
	mu   sync.RWMutex
	subs []*busSubscriber[T]
}

type busSubscriber[T any] struct {
	fn func(T)
}

// Subscription is the handle returned by Subscribe. It holds only the
// capability to unsubscribe.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe removes the handler from its bus. Safe to call more than once.
// Unsubscribing during a delivery pass does not affect that pass.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}

// NewBus creates an empty bus.
func NewBus[T any]() *Bus[T] {
	return &Bus[T]{}
}

// Subscribe registers fn and returns its subscription handle.
func (b *Bus[T]) Subscribe(fn func(T)) *Subscription {
	sub := &busSubscriber[T]{fn: fn}
	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
	return &Subscription{cancel: func() { b.remove(sub) }}
}

func (b *Bus[T]) remove(target *busSubscriber[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s == target {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			break
		}
	}
}

// Notify delivers v to the current subscribers in registration order. Handlers
// run to completion before Notify returns; no lock is held while they run.
func (b *Bus[T]) Notify(v T) {
	b.mu.RLock()
	snapshot := make([]*busSubscriber[T], len(b.subs))
	copy(snapshot, b.subs)
	b.mu.RUnlock()

	for _, s := range snapshot {
		s.fn(v)
	}
}
