package runtime

import (
	"fmt"
	"log/slog"
	"sync"

	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/errors"
)

// Handler consumes one inbound payload for a channel. A non-nil error means
// the payload could not be decoded; the registry logs it and moves on.
type Handler func(payload []byte) error

type registryEntry struct {
	handler Handler
	handle  string
}

// Registry multiplexes logical channels over the one live connection.
// It keeps at most one transport subscription per channel id; re-subscribing
// swaps the handler in place, which is how a remounted view takes over a
// live channel without a network round trip.
type Registry struct {
	mu      sync.RWMutex
	log     *slog.Logger
	conn    contract.Conn
	entries map[string]*registryEntry
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{log: log, entries: make(map[string]*registryEntry)}
}

// Attach binds the registry to a freshly established connection. Any
// entries from a previous connection are gone with their transport.
func (r *Registry) Attach(conn contract.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conn = conn
	r.entries = make(map[string]*registryEntry)
}

// Detach drops the connection binding and every entry; handlers are
// re-registered by the re-join path after reconnection.
func (r *Registry) Detach() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conn = nil
	r.entries = make(map[string]*registryEntry)
}

// Subscribe routes inbound frames on the channel to the handler. When a
// transport subscription already exists only the handler is swapped; the
// transport handle stays the same.
func (r *Registry) Subscribe(channel string, handler Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil {
		return fmt.Errorf("subscribe %s: %w", channel, errors.ErrNotConnected)
	}
	if entry, ok := r.entries[channel]; ok {
		entry.handler = handler
		return nil
	}

	handle, err := r.conn.Subscribe(channel)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w: %v", channel, errors.ErrSubscriptionRejected, err)
	}
	r.entries[channel] = &registryEntry{handler: handler, handle: handle}
	return nil
}

// Unsubscribe closes the transport subscription if one exists.
// Unknown channels are a safe no-op.
func (r *Registry) Unsubscribe(channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[channel]
	if !ok {
		return
	}
	delete(r.entries, channel)
	if r.conn == nil {
		return
	}
	if err := r.conn.Unsubscribe(entry.handle); err != nil {
		r.log.Warn("Transport unsubscribe failed", "channel", channel, "err", err)
	}
}

// UnsubscribeAll tears every channel down; used by explicit disconnect.
func (r *Registry) UnsubscribeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for channel, entry := range r.entries {
		if r.conn != nil {
			if err := r.conn.Unsubscribe(entry.handle); err != nil {
				r.log.Warn("Transport unsubscribe failed", "channel", channel, "err", err)
			}
		}
	}
	r.entries = make(map[string]*registryEntry)
}

// Subscribed reports whether a live transport subscription exists.
func (r *Registry) Subscribed(channel string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[channel]
	return ok
}

// Dispatch routes one inbound frame. The handler is resolved at delivery
// time, never captured at subscribe time, so a swapped handler always wins.
// Handler failures and panics are contained here; dispatch never throws.
func (r *Registry) Dispatch(frame domain.Frame) {
	r.mu.RLock()
	entry, ok := r.entries[frame.Channel]
	var handler Handler
	if ok {
		handler = entry.handler
	}
	r.mu.RUnlock()

	if handler == nil {
		r.log.Debug("Frame for channel without handler", "channel", frame.Channel)
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("Handler panicked", "channel", frame.Channel, "panic", rec)
		}
	}()
	if err := handler(frame.Payload); err != nil {
		r.log.Warn("Dropping inbound payload", "channel", frame.Channel, "err", err)
	}
}
