package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/errors"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 256
	frameBuffer    = 64
)

// WebsocketDialer dials the broker gateway and attaches the bearer
// credential as a header.
type WebsocketDialer struct {
	URL string
	Log *slog.Logger
}

func NewWebsocketDialer(log *slog.Logger, url string) *WebsocketDialer {
	return &WebsocketDialer{URL: url, Log: log}
}

func (d *WebsocketDialer) Dial(ctx context.Context, token string) (contract.Conn, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, d.URL, header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", d.URL, err)
	}

	c := &wsConn{
		log:    d.Log,
		ws:     ws,
		sendCh: make(chan wireFrame, sendBufferSize),
		frames: make(chan domain.Frame, frameBuffer),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	go c.writeLoop()
	return c, nil
}

// wsConn multiplexes logical channels over one websocket. Outbound frames
// are funneled through sendCh so only writeLoop touches the socket writer.
type wsConn struct {
	log    *slog.Logger
	ws     *websocket.Conn
	sendCh chan wireFrame
	frames chan domain.Frame

	mu      sync.Mutex
	handles map[string]string // handle -> channel
	err     error
	done    chan struct{}
	closed  bool
}

func (c *wsConn) Subscribe(channel string) (string, error) {
	handle := uuid.NewString()
	if err := c.enqueue(wireFrame{Type: frameSubscribe, Channel: channel, Handle: handle}); err != nil {
		return "", err
	}
	c.mu.Lock()
	if c.handles == nil {
		c.handles = make(map[string]string)
	}
	c.handles[handle] = channel
	c.mu.Unlock()
	return handle, nil
}

func (c *wsConn) Unsubscribe(handle string) error {
	c.mu.Lock()
	channel, ok := c.handles[handle]
	delete(c.handles, handle)
	c.mu.Unlock()
	if !ok {
		return nil
	}
	return c.enqueue(wireFrame{Type: frameUnsubscribe, Channel: channel, Handle: handle})
}

func (c *wsConn) Send(channel string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: encode for %s: %v", errors.ErrSendFailure, channel, err)
	}
	return c.enqueue(wireFrame{Type: frameSend, Channel: channel, Payload: raw})
}

func (c *wsConn) Frames() <-chan domain.Frame { return c.frames }

func (c *wsConn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *wsConn) Close() error {
	c.fail(nil)
	return nil
}

func (c *wsConn) enqueue(f wireFrame) error {
	select {
	case <-c.done:
		return fmt.Errorf("%w: connection closed", errors.ErrSendFailure)
	case c.sendCh <- f:
		return nil
	default:
		return fmt.Errorf("%w: send buffer full", errors.ErrSendFailure)
	}
}

// fail records the terminal error once, closes the socket, and lets both
// loops drain out. frames is closed by readLoop on its way out.
func (c *wsConn) fail(err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.err = err
	c.mu.Unlock()

	close(c.done)
	_ = c.ws.Close()
}

func (c *wsConn) readLoop() {
	defer close(c.frames)
	for {
		var f wireFrame
		if err := c.ws.ReadJSON(&f); err != nil {
			select {
			case <-c.done: // explicit close, keep err as recorded
			default:
				c.fail(fmt.Errorf("read: %w", err))
			}
			return
		}
		switch f.Type {
		case frameMessage:
			select {
			case c.frames <- domain.Frame{Channel: f.Channel, Payload: f.Payload}:
			case <-c.done:
				return
			}
		case frameError:
			switch f.Code {
			case codeAuthExpired:
				c.fail(errors.ErrAuthExpired)
				return
			case codeChannelRejected:
				c.log.Warn("Broker rejected a channel", "channel", f.Channel)
			default:
				c.log.Warn("Broker error frame", "code", f.Code, "channel", f.Channel)
			}
		default:
			c.log.Debug("Ignoring unexpected frame type", "type", string(f.Type))
		}
	}
}

func (c *wsConn) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case f := <-c.sendCh:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(f); err != nil {
				c.fail(fmt.Errorf("write: %w", err))
				return
			}
		}
	}
}
