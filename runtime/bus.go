// Package runtime wires the sync client together: connection management,
// channel multiplexing, room lifecycle, and the cross-screen event bus.
// It orchestrates the system without containing merge or window logic.
package runtime

import (
	"log/slog"
	"sync"
)

// Bus is a synchronous in-process publish/subscribe keyed by topic name.
// It lets an open-room context publish changes that a separate room-list
// context observes without either depending on the other's lifecycle.
type Bus struct {
	mu     sync.RWMutex
	log    *slog.Logger
	nextID int
	subs   map[string][]busSubscriber
}

type busSubscriber struct {
	id int
	cb func(payload any)
}

func NewBus(log *slog.Logger) *Bus {
	return &Bus{log: log, subs: make(map[string][]busSubscriber)}
}

// On registers a callback and returns its unsubscribe func. Callbacks fire
// in registration order.
func (b *Bus) On(topic string, cb func(payload any)) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], busSubscriber{id: id, cb: cb})
	b.mu.Unlock()

	return func() { b.off(topic, id) }
}

func (b *Bus) off(topic string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[topic]
	for i, sub := range subs {
		if sub.id == id {
			b.subs[topic] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// Emit invokes every callback registered for the topic, synchronously and
// in registration order. A panicking observer is isolated so it cannot
// break the others.
func (b *Bus) Emit(topic string, payload any) {
	b.mu.RLock()
	subs := make([]busSubscriber, len(b.subs[topic]))
	copy(subs, b.subs[topic])
	b.mu.RUnlock()

	for _, sub := range subs {
		b.invoke(topic, sub, payload)
	}
}

func (b *Bus) invoke(topic string, sub busSubscriber, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("Bus subscriber panicked", "topic", topic, "panic", r)
		}
	}()
	sub.cb(payload)
}
