// Package rest is the HTTP collaborator of the sync client: the room
// directory, room CRUD, and paged message history.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const requestTimeout = 10 * time.Second

// Client talks to the portal REST API. It implements both the history
// and the directory contracts.
type Client struct {
	log      *slog.Logger
	baseURL  string
	http     *http.Client
	tokens   contract.TokenSource
	validate *validator.Validate
}

func NewClient(log *slog.Logger, baseURL string, tokens contract.TokenSource) *Client {
	return &Client{
		log:      log,
		baseURL:  baseURL,
		http:     &http.Client{Timeout: requestTimeout},
		tokens:   tokens,
		validate: validator.New(),
	}
}

// CreateRoomRequest is validated before it leaves the client so the
// server never sees an impossible room shape.
type CreateRoomRequest struct {
	Name            string            `json:"name" validate:"required,min=1,max=100"`
	MaxParticipants int               `json:"maxParticipants" validate:"required,min=2,max=500"`
	Visibility      domain.Visibility `json:"visibility" validate:"required,oneof=PUBLIC PRIVATE"`
}

// ListRooms fetches the public directory.
func (c *Client) ListRooms(ctx context.Context) ([]domain.RoomSummary, error) {
	var wire []roomWire
	if err := c.get(ctx, "/api/rooms", &wire); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return lo.Map(wire, func(r roomWire, _ int) domain.RoomSummary {
		return r.toSummary()
	}), nil
}

// GetRoom fetches a single room summary.
func (c *Client) GetRoom(ctx context.Context, id domain.RoomID) (domain.RoomSummary, error) {
	var wire roomWire
	if err := c.get(ctx, fmt.Sprintf("/api/rooms/%d", id), &wire); err != nil {
		return domain.RoomSummary{}, fmt.Errorf("get room %d: %w", id, err)
	}
	return wire.toSummary(), nil
}

// CreateRoom validates and submits a new room.
func (c *Client) CreateRoom(ctx context.Context, request CreateRoomRequest) (domain.RoomSummary, error) {
	if err := c.validate.Struct(request); err != nil {
		return domain.RoomSummary{}, fmt.Errorf("create room: %w", err)
	}
	var wire roomWire
	if err := c.post(ctx, "/api/rooms", request, &wire); err != nil {
		return domain.RoomSummary{}, fmt.Errorf("create room: %w", err)
	}
	return wire.toSummary(), nil
}

// DeleteRoom removes a room the caller created. The realtime cascade
// arrives separately on the directory channel.
func (c *Client) DeleteRoom(ctx context.Context, id domain.RoomID) error {
	req, err := c.newRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/rooms/%d", id), nil)
	if err != nil {
		return fmt.Errorf("delete room %d: %w", id, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("delete room %d: %w", id, err)
	}
	defer resp.Body.Close()
	return c.checkStatus(resp)
}

// GetMessages fetches one history page, newest page first. Page 0 holds
// the most recent messages.
func (c *Client) GetMessages(ctx context.Context, room domain.RoomID, page, size int) ([]domain.Message, error) {
	var wire struct {
		Content []messageWire `json:"content"`
	}
	path := fmt.Sprintf("/api/rooms/%d/messages?page=%d&size=%d", room, page, size)
	if err := c.get(ctx, path, &wire); err != nil {
		return nil, fmt.Errorf("messages room %d page %d: %w", room, page, err)
	}
	messages := make([]domain.Message, 0, len(wire.Content))
	for _, m := range wire.Content {
		msg, err := m.toMessage(room)
		if err != nil {
			// One bad record should not discard the page.
			c.log.Warn("Skipping malformed history record", "room", room, "err", err)
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	token, err := c.tokens.Token()
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := c.checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrMalformedPayload, err)
	}
	return nil
}

func (c *Client) checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return errors.ErrAuthExpired
	case resp.StatusCode >= 400:
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

type roomWire struct {
	ID                  domain.RoomID `json:"roomId"`
	Name                string        `json:"name"`
	MaxParticipants     int           `json:"maxParticipants"`
	CurrentParticipants int           `json:"currentParticipants"`
	CreatorNickname     string        `json:"creatorNickname"`
	Visibility          string        `json:"visibility"`
	Status              string        `json:"status"`
}

func (r roomWire) toSummary() domain.RoomSummary {
	return domain.RoomSummary{
		ID:                  r.ID,
		Name:                r.Name,
		MaxParticipants:     r.MaxParticipants,
		CurrentParticipants: r.CurrentParticipants,
		CreatorNickname:     r.CreatorNickname,
		Visibility:          domain.Visibility(r.Visibility),
		Status:              r.Status,
	}
}

type messageWire struct {
	ID             string `json:"messageId"`
	SenderID       string `json:"senderId"`
	SenderNickname string `json:"senderNickname"`
	Content        string `json:"content"`
	Kind           string `json:"kind"`
	CreatedAt      int64  `json:"createdAt"` // unix millis
}

func (m messageWire) toMessage(room domain.RoomID) (domain.Message, error) {
	msg := domain.Message{
		Room:           room,
		SenderID:       m.SenderID,
		SenderNickname: m.SenderNickname,
		Content:        m.Content,
		Kind:           domain.MessageKind(m.Kind),
		CreatedAt:      time.UnixMilli(m.CreatedAt).UTC(),
		Status:         domain.Confirmed,
	}
	if msg.Kind == "" {
		msg.Kind = domain.KindChat
	}
	if m.ID != "" {
		id, err := uuid.Parse(m.ID)
		if err != nil {
			return domain.Message{}, fmt.Errorf("%w: message id: %v", errors.ErrMalformedPayload, err)
		}
		msg.ID = id
	}
	return msg, nil
}
