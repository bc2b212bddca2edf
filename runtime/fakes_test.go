package runtime

import (
	"context"
	"fmt"
	"sync"

	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/errors"
)

// fakeConn records transport traffic and lets tests inject inbound frames
// or kill the connection with a chosen error.
type fakeConn struct {
	mu           sync.Mutex
	nextHandle   int
	subscribed   map[string]string // handle -> channel
	sent         []sentFrame
	subscribeErr error
	sendErr      error
	frames       chan domain.Frame
	err          error
	closed       bool
}

type sentFrame struct {
	channel string
	payload any
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		subscribed: make(map[string]string),
		frames:     make(chan domain.Frame, 16),
	}
}

func (c *fakeConn) Subscribe(channel string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subscribeErr != nil {
		return "", c.subscribeErr
	}
	c.nextHandle++
	handle := fmt.Sprintf("sub-%d", c.nextHandle)
	c.subscribed[handle] = channel
	return handle, nil
}

func (c *fakeConn) Unsubscribe(handle string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscribed, handle)
	return nil
}

func (c *fakeConn) Send(channel string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, sentFrame{channel: channel, payload: payload})
	return nil
}

func (c *fakeConn) Frames() <-chan domain.Frame { return c.frames }

func (c *fakeConn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.frames)
	}
	return nil
}

// drop simulates a transport failure.
func (c *fakeConn) drop(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
	_ = c.Close()
}

// deliver injects one inbound frame.
func (c *fakeConn) deliver(channel string, payload []byte) {
	c.frames <- domain.Frame{Channel: channel, Payload: payload}
}

// subscriptionsFor counts live transport subscriptions for a channel.
func (c *fakeConn) subscriptionsFor(channel string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, ch := range c.subscribed {
		if ch == channel {
			count++
		}
	}
	return count
}

func (c *fakeConn) sentTo(channel string) []sentFrame {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []sentFrame
	for _, f := range c.sent {
		if f.channel == channel {
			out = append(out, f)
		}
	}
	return out
}

// fakeDialer hands out one fakeConn per dial.
type fakeDialer struct {
	mu       sync.Mutex
	dials    int
	dialErrs []error // consumed before conns; nil entry means success
	conns    []*fakeConn
}

func (d *fakeDialer) Dial(context.Context, string) (contract.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if len(d.dialErrs) > 0 {
		err := d.dialErrs[0]
		d.dialErrs = d.dialErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	conn := newFakeConn()
	d.conns = append(d.conns, conn)
	return conn, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) lastConn() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

// fakeTokens is a TokenSource with a switchable expiry.
type fakeTokens struct {
	mu      sync.Mutex
	expired bool
}

func (t *fakeTokens) Token() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.expired {
		return "", errors.ErrAuthExpired
	}
	return "bearer-token", nil
}

// fakeRosterCache is an in-memory contract.RosterCache.
type fakeRosterCache struct {
	mu      sync.Mutex
	rosters map[domain.RoomID]domain.Roster
}

func newFakeRosterCache() *fakeRosterCache {
	return &fakeRosterCache{rosters: make(map[domain.RoomID]domain.Roster)}
}

func (c *fakeRosterCache) Load(room domain.RoomID) (domain.Roster, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	roster, ok := c.rosters[room]
	return roster, ok, nil
}

func (c *fakeRosterCache) Save(room domain.RoomID, roster domain.Roster) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rosters[room] = roster
	return nil
}

func (c *fakeRosterCache) Clear(room domain.RoomID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rosters, room)
	return nil
}

func (c *fakeRosterCache) has(room domain.RoomID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.rosters[room]
	return ok
}

// fakeHistory returns a fixed page of messages. A non-nil gate makes every
// fetch block until the gate closes, with calls signalling entry.
type fakeHistory struct {
	pages map[int][]domain.Message
	gate  chan struct{}
	calls chan struct{}
}

func (h *fakeHistory) GetMessages(_ context.Context, _ domain.RoomID, page, _ int) ([]domain.Message, error) {
	if h.calls != nil {
		h.calls <- struct{}{}
	}
	if h.gate != nil {
		<-h.gate
	}
	return h.pages[page], nil
}

// fakeDirectory serves a canned room list.
type fakeDirectory struct {
	rooms []domain.RoomSummary
}

func (d *fakeDirectory) ListRooms(context.Context) ([]domain.RoomSummary, error) {
	return d.rooms, nil
}

func (d *fakeDirectory) GetRoom(_ context.Context, id domain.RoomID) (domain.RoomSummary, error) {
	for _, summary := range d.rooms {
		if summary.ID == id {
			return summary, nil
		}
	}
	return domain.RoomSummary{}, fmt.Errorf("room %d not found", id)
}
