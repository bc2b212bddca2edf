// Package projection builds local message windows from history pages and
// realtime deliveries. Handles ordering, deduplication, and pagination.
// Does not emit events or interact with UI directly.
package projection

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"chat-sync/contract"
	"chat-sync/domain"
)

// Window is the per-room message history the UI renders: always sorted
// ascending by CreatedAt, never containing the same delivery twice.
type Window struct {
	mu       sync.Mutex
	log      *slog.Logger
	history  contract.HistoryClient
	room     domain.RoomID
	pageSize int

	messages []domain.Message
	page     int
	hasMore  bool
	loading  bool
}

func NewWindow(log *slog.Logger, history contract.HistoryClient, room domain.RoomID, pageSize int) *Window {
	return &Window{
		log:      log,
		history:  history,
		room:     room,
		pageSize: pageSize,
		hasMore:  true,
	}
}

// Load fetches the newest page and replaces the window with it.
func (w *Window) Load(ctx context.Context) error {
	w.mu.Lock()
	if w.loading {
		w.mu.Unlock()
		return nil
	}
	w.loading = true
	w.mu.Unlock()

	page, err := w.history.GetMessages(ctx, w.room, 0, w.pageSize)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.loading = false
	if err != nil {
		return fmt.Errorf("load history for room %d: %w", w.room, err)
	}
	sortAscending(page)
	w.messages = page
	w.page = 0
	w.hasMore = len(page) == w.pageSize
	return nil
}

// LoadMore fetches the next older page and prepends it. Calls while a load
// is in flight, or after the history bottomed out, are no-ops.
func (w *Window) LoadMore(ctx context.Context) error {
	w.mu.Lock()
	if w.loading || !w.hasMore {
		w.mu.Unlock()
		return nil
	}
	w.loading = true
	nextPage := w.page + 1
	w.mu.Unlock()

	older, err := w.history.GetMessages(ctx, w.room, nextPage, w.pageSize)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.loading = false
	if err != nil {
		return fmt.Errorf("load page %d for room %d: %w", nextPage, w.room, err)
	}
	sortAscending(older)
	w.messages = append(older, w.messages...)
	w.page = nextPage
	if len(older) < w.pageSize {
		w.hasMore = false
	}
	return nil
}

// Append inserts one realtime delivery. Duplicates are dropped silently; a
// confirmed echo matching an unconfirmed local entry supersedes it in place.
// Returns false when the message was a duplicate.
func (w *Window) Append(msg domain.Message) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i, existing := range w.messages {
		if !existing.SameDelivery(msg) {
			continue
		}
		if existing.Status == domain.Unconfirmed && msg.Status == domain.Confirmed {
			// The server echo of a send we thought had failed.
			w.messages[i] = msg
			sortAscending(w.messages)
			return true
		}
		w.log.Debug("Dropping duplicate delivery", "room", w.room, "sender", msg.SenderNickname)
		return false
	}

	w.messages = append(w.messages, msg)
	sortAscending(w.messages)
	return true
}

// AppendUnconfirmed inserts a local-only entry after a failed send; best
// effort, not exactly-once.
func (w *Window) AppendUnconfirmed(senderID, nickname, content string) domain.Message {
	msg := domain.Message{
		Room:           w.room,
		SenderID:       senderID,
		SenderNickname: nickname,
		Content:        content,
		Kind:           domain.KindChat,
		CreatedAt:      time.Now().UTC(),
		Status:         domain.Unconfirmed,
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = append(w.messages, msg)
	sortAscending(w.messages)
	return msg
}

// Messages returns a copy of the ordered window.
func (w *Window) Messages() []domain.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]domain.Message, len(w.messages))
	copy(out, w.messages)
	return out
}

func (w *Window) HasMore() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.hasMore
}

func (w *Window) Room() domain.RoomID { return w.room }

func sortAscending(messages []domain.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
}
