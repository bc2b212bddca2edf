package runtime

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/errors"
)

const (
	// DefaultRetryInterval is the fixed pause between reconnect attempts.
	DefaultRetryInterval = 3 * time.Second
	// DefaultMaxAttempts caps automatic reconnects before giving up.
	DefaultMaxAttempts = 5
)

type pendingConnect struct {
	done chan struct{}
	err  error
}

// ConnectionManager owns the single broker connection for the process:
// it attaches the bearer credential, drives the reconnect policy, and asks
// the lifecycle layer to re-join the active room after a reconnect.
type ConnectionManager struct {
	mu            sync.Mutex
	log           *slog.Logger
	dialer        contract.Dialer
	tokens        contract.TokenSource
	registry      *Registry
	bus           contract.Bus
	retryInterval time.Duration
	maxAttempts   int

	status     domain.SessionStatus
	attempt    int
	conn       contract.Conn
	pending    *pendingConnect
	retry      *time.Timer
	activeRoom domain.RoomID
	rejoin     func(domain.RoomID)
	explicit   bool
}

func NewConnectionManager(log *slog.Logger, dialer contract.Dialer, tokens contract.TokenSource,
	registry *Registry, bus contract.Bus) *ConnectionManager {
	return &ConnectionManager{
		log:           log,
		dialer:        dialer,
		tokens:        tokens,
		registry:      registry,
		bus:           bus,
		retryInterval: DefaultRetryInterval,
		maxAttempts:   DefaultMaxAttempts,
	}
}

// WithRetryPolicy overrides the reconnect pacing; tests shrink it.
func (cm *ConnectionManager) WithRetryPolicy(interval time.Duration, maxAttempts int) *ConnectionManager {
	cm.retryInterval = interval
	cm.maxAttempts = maxAttempts
	return cm
}

// OnRejoin registers the lifecycle hook invoked with the active room after
// a successful reconnect.
func (cm *ConnectionManager) OnRejoin(fn func(domain.RoomID)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.rejoin = fn
}

// Connect establishes the session. Already connected is a no-op; a connect
// already in flight shares its outcome instead of dialing twice. A missing
// or expired credential fails with ErrAuthExpired before any network call.
func (cm *ConnectionManager) Connect(ctx context.Context) error {
	cm.mu.Lock()
	cm.explicit = false
	cm.mu.Unlock()
	return cm.connect(ctx)
}

// connect is shared by Connect and the retry timer. Only the user-facing
// entry point clears the explicit-disconnect flag, so a retry that lost the
// race against Disconnect stops here instead of resurrecting the session.
func (cm *ConnectionManager) connect(ctx context.Context) error {
	cm.mu.Lock()
	if cm.explicit {
		cm.mu.Unlock()
		return nil
	}
	switch cm.status {
	case domain.Connected:
		cm.mu.Unlock()
		return nil
	case domain.Connecting:
		p := cm.pending
		cm.mu.Unlock()
		<-p.done
		return p.err
	}
	cm.status = domain.Connecting
	p := &pendingConnect{done: make(chan struct{})}
	cm.pending = p
	cm.mu.Unlock()

	token, err := cm.tokens.Token()
	if err != nil {
		if !stderrors.Is(err, errors.ErrAuthExpired) {
			err = fmt.Errorf("%w: %v", errors.ErrAuthExpired, err)
		}
		cm.failAuth(p, err)
		return err
	}

	conn, err := cm.dialer.Dial(ctx, token)
	if err != nil {
		wrapped := fmt.Errorf("connect: %w", err)
		cm.mu.Lock()
		cm.status = domain.Disconnected
		terminal := !cm.scheduleRetryLocked()
		cm.mu.Unlock()
		cm.resolve(p, wrapped)
		if terminal {
			cm.bus.Emit(contract.TopicConnectionTerminal, errors.ErrRetriesExhausted)
		}
		return wrapped
	}

	cm.mu.Lock()
	cm.conn = conn
	cm.status = domain.Connected
	cm.attempt = 0
	room := cm.activeRoom
	rejoin := cm.rejoin
	cm.mu.Unlock()

	cm.registry.Attach(conn)
	go cm.pump(conn)
	cm.resolve(p, nil)

	// A previously active room means this was a reconnect; membership was
	// preserved, so re-establish its channels silently.
	if room != 0 && rejoin != nil {
		rejoin(room)
	}
	return nil
}

// Disconnect tears the session down: every channel is unsubscribed, the
// registry cleared, and no reconnect is attempted. Idempotent.
func (cm *ConnectionManager) Disconnect() {
	cm.mu.Lock()
	cm.explicit = true
	if cm.retry != nil {
		cm.retry.Stop()
		cm.retry = nil
	}
	conn := cm.conn
	if conn == nil && cm.status == domain.Disconnected {
		cm.mu.Unlock()
		return
	}
	cm.conn = nil
	cm.status = domain.Disconnected
	cm.activeRoom = 0
	cm.attempt = 0
	cm.mu.Unlock()

	cm.registry.UnsubscribeAll()
	cm.registry.Detach()
	if conn != nil {
		_ = conn.Close()
	}
	cm.log.Info("Session disconnected")
}

// Send publishes one outbound intent over the live connection.
func (cm *ConnectionManager) Send(channel string, payload any) error {
	cm.mu.Lock()
	conn := cm.conn
	cm.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("send %s: %w", channel, errors.ErrNotConnected)
	}
	if err := conn.Send(channel, payload); err != nil {
		return fmt.Errorf("send %s: %w", channel, err)
	}
	return nil
}

func (cm *ConnectionManager) Status() domain.SessionStatus {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.status
}

// SetActiveRoom marks the room to re-join after a reconnect.
func (cm *ConnectionManager) SetActiveRoom(room domain.RoomID) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.activeRoom = room
}

func (cm *ConnectionManager) ClearActiveRoom(room domain.RoomID) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.activeRoom == room {
		cm.activeRoom = 0
	}
}

func (cm *ConnectionManager) ActiveRoom() domain.RoomID {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.activeRoom
}

// pump dispatches inbound frames until the connection dies, then decides
// whether to reconnect.
func (cm *ConnectionManager) pump(conn contract.Conn) {
	for frame := range conn.Frames() {
		cm.registry.Dispatch(frame)
	}
	cm.handleDrop(conn)
}

func (cm *ConnectionManager) handleDrop(conn contract.Conn) {
	cm.mu.Lock()
	if cm.conn != conn {
		// An explicit disconnect or a newer connection already took over.
		cm.mu.Unlock()
		return
	}
	cm.conn = nil
	cm.status = domain.Disconnected
	cm.mu.Unlock()

	cm.registry.Detach()
	err := conn.Err()
	cm.log.Warn("Connection dropped", "err", err)

	if stderrors.Is(err, errors.ErrAuthExpired) {
		// Terminal: surfaced as a forced logout, never retried.
		cm.bus.Emit(contract.TopicAuthExpired, err)
		return
	}

	cm.mu.Lock()
	scheduled := cm.scheduleRetryLocked()
	cm.mu.Unlock()
	if !scheduled {
		cm.bus.Emit(contract.TopicConnectionTerminal, errors.ErrRetriesExhausted)
	}
}

// scheduleRetryLocked books the next reconnect attempt if budget remains.
func (cm *ConnectionManager) scheduleRetryLocked() bool {
	if cm.explicit {
		return true // no retry wanted, but not terminal either
	}
	if cm.attempt >= cm.maxAttempts {
		return false
	}
	cm.attempt++
	attempt := cm.attempt
	cm.retry = time.AfterFunc(cm.retryInterval, func() {
		cm.mu.Lock()
		stale := cm.explicit
		cm.mu.Unlock()
		if stale {
			return
		}
		cm.log.Info("Reconnecting", "attempt", attempt, "max", cm.maxAttempts)
		if err := cm.connect(context.Background()); err != nil {
			cm.log.Warn("Reconnect attempt failed", "attempt", attempt, "err", err)
		}
	})
	return true
}

func (cm *ConnectionManager) failAuth(p *pendingConnect, err error) {
	cm.mu.Lock()
	cm.status = domain.Disconnected
	cm.mu.Unlock()
	cm.resolve(p, err)
	cm.bus.Emit(contract.TopicAuthExpired, err)
}

func (cm *ConnectionManager) resolve(p *pendingConnect, err error) {
	p.err = err
	close(p.done)
}
