package projection

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"chat-sync/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// pagedHistory serves pre-cut pages and counts fetches.
type pagedHistory struct {
	pages   [][]domain.Message
	fetches int
}

func (h *pagedHistory) GetMessages(_ context.Context, _ domain.RoomID, page, _ int) ([]domain.Message, error) {
	h.fetches++
	if page >= len(h.pages) {
		return nil, nil
	}
	return h.pages[page], nil
}

func chatAt(nickname, content string, at time.Time) domain.Message {
	return domain.Message{
		ID:             uuid.New(),
		Room:           1,
		SenderNickname: nickname,
		Content:        content,
		Kind:           domain.KindChat,
		CreatedAt:      at,
		Status:         domain.Confirmed,
	}
}

var t0 = time.Date(2026, 5, 2, 18, 0, 0, 0, time.UTC)

func TestWindow_Load_Sorts_Ascending(t *testing.T) {
	req := require.New(t)
	history := &pagedHistory{pages: [][]domain.Message{{
		chatAt("Bob", "second", t0.Add(2*time.Minute)),
		chatAt("Alice", "first", t0),
	}}}
	window := NewWindow(slog.Default(), history, 1, 2)

	req.NoError(window.Load(context.Background()))

	messages := window.Messages()
	req.Len(messages, 2)
	req.Equal("first", messages[0].Content)
	req.Equal("second", messages[1].Content)
	// A full page means more history may exist
	req.True(window.HasMore())
}

func TestWindow_Short_Page_Terminates_Pagination(t *testing.T) {
	req := require.New(t)
	history := &pagedHistory{pages: [][]domain.Message{
		{chatAt("Alice", "new-1", t0.Add(10*time.Minute)), chatAt("Alice", "new-2", t0.Add(11*time.Minute))},
		{chatAt("Bob", "old", t0)}, // shorter than the page size
	}}
	window := NewWindow(slog.Default(), history, 1, 2)
	req.NoError(window.Load(context.Background()))

	// When the older page comes back short
	req.NoError(window.LoadMore(context.Background()))
	req.False(window.HasMore())

	// Then the short page was prepended
	messages := window.Messages()
	req.Equal("old", messages[0].Content)

	// And a further LoadMore is a no-op
	fetchesBefore := history.fetches
	req.NoError(window.LoadMore(context.Background()))
	req.Equal(fetchesBefore, history.fetches)
}

func TestWindow_Dedup_By_Id(t *testing.T) {
	req := require.New(t)
	window := NewWindow(slog.Default(), &pagedHistory{}, 1, 20)
	msg := chatAt("Alice", "hello", t0)

	req.True(window.Append(msg))
	req.False(window.Append(msg))
	req.Len(window.Messages(), 1)
}

func TestWindow_Dedup_By_Content_Within_Two_Seconds(t *testing.T) {
	req := require.New(t)
	window := NewWindow(slog.Default(), &pagedHistory{}, 1, 20)

	first := chatAt("Alice", "hello", t0)
	first.ID = uuid.Nil
	near := chatAt("Alice", "hello", t0.Add(500*time.Millisecond))
	near.ID = uuid.Nil
	far := chatAt("Alice", "hello", t0.Add(3*time.Second))
	far.ID = uuid.Nil

	// Then 500ms apart is one message, 3000ms apart is two
	req.True(window.Append(first))
	req.False(window.Append(near))
	req.True(window.Append(far))
	req.Len(window.Messages(), 2)
}

func TestWindow_Unconfirmed_Send_Superseded_By_Echo(t *testing.T) {
	req := require.New(t)
	window := NewWindow(slog.Default(), &pagedHistory{}, 1, 20)

	// Given a failed send left an unconfirmed local entry
	local := window.AppendUnconfirmed("m-1", "Me", "did this go through?")
	req.Equal(domain.Unconfirmed, local.Status)

	// When the server echo arrives moments later
	echo := chatAt("Me", "did this go through?", local.CreatedAt.Add(300*time.Millisecond))
	req.True(window.Append(echo))

	// Then the window holds exactly the confirmed echo
	messages := window.Messages()
	req.Len(messages, 1)
	req.Equal(domain.Confirmed, messages[0].Status)
	req.Equal(echo.ID, messages[0].ID)
}

func TestWindow_Realtime_Append_Resorts(t *testing.T) {
	req := require.New(t)
	window := NewWindow(slog.Default(), &pagedHistory{}, 1, 20)

	window.Append(chatAt("Bob", "later", t0.Add(time.Minute)))
	window.Append(chatAt("Alice", "earlier", t0))

	messages := window.Messages()
	req.Equal("earlier", messages[0].Content)
	req.Equal("later", messages[1].Content)
}
