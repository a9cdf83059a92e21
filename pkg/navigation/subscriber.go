package navigation

import (
	"sync/atomic"
	"weak"

	"github.com/google/uuid"
)

// SubscriberID identifies a subscriber. Notifications carry only the id.
type SubscriberID string

// NewSubscriberID returns a fresh random id.
func NewSubscriberID() SubscriberID {
	return SubscriberID(uuid.NewString())
}

// Subscriber is a registered observer.
//
// The service never keeps a subscriber alive: once Alive reports false the
// subscriber is dropped at the next notification pass.
type Subscriber interface {
	SubscriberID() SubscriberID
	Alive() bool
}

// Updatable subscribers are called directly on every notification, in
// addition to the service's updater.
type Updatable interface {
	Update(id SubscriberID)
}

// Subscription is a subscriber with an explicit lifetime.
type Subscription struct {
	id       SubscriberID
	closed   atomic.Bool
	onUpdate func(SubscriberID)
}

// NewSubscription creates a live subscription. onUpdate may be nil.
func NewSubscription(onUpdate func(SubscriberID)) *Subscription {
	return &Subscription{id: NewSubscriberID(), onUpdate: onUpdate}
}

// SubscriberID returns the subscription's id.
func (s *Subscription) SubscriberID() SubscriberID { return s.id }

// Alive reports whether Close has not been called.
func (s *Subscription) Alive() bool { return !s.closed.Load() }

// Close ends the subscription. It is safe to call more than once.
func (s *Subscription) Close() { s.closed.Store(true) }

// Update calls the subscription's callback.
func (s *Subscription) Update(id SubscriberID) {
	if s.onUpdate != nil {
		s.onUpdate(id)
	}
}

// WeakSubscriber observes on behalf of an owner without keeping it alive.
// It stays alive exactly as long as the owner is reachable.
type WeakSubscriber[T any] struct {
	id  SubscriberID
	ref weak.Pointer[T]
}

// NewWeakSubscriber creates a subscriber tied to owner's lifetime.
func NewWeakSubscriber[T any](owner *T) *WeakSubscriber[T] {
	return &WeakSubscriber[T]{id: NewSubscriberID(), ref: weak.Make(owner)}
}

// SubscriberID returns the subscriber's id.
func (w *WeakSubscriber[T]) SubscriberID() SubscriberID { return w.id }

// Alive reports whether the owner is still reachable.
func (w *WeakSubscriber[T]) Alive() bool { return w.ref.Value() != nil }

// Owner returns the owner, or nil once it has been collected.
func (w *WeakSubscriber[T]) Owner() *T { return w.ref.Value() }

// Update forwards to the owner when it implements Updatable.
func (w *WeakSubscriber[T]) Update(id SubscriberID) {
	owner := w.ref.Value()
	if owner == nil {
		return
	}
	if u, ok := any(owner).(Updatable); ok {
		u.Update(id)
	}
}
