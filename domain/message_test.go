package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestSameDelivery_By_Server_Id(t *testing.T) {
	req := require.New(t)
	id := uuid.New()
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	a := Message{ID: id, SenderNickname: "Alice", Content: "hi", CreatedAt: base}
	b := Message{ID: id, SenderNickname: "Alice", Content: "edited elsewhere", CreatedAt: base.Add(time.Minute)}

	// Matching ids win regardless of content or timing
	req.True(a.SameDelivery(b))

	c := Message{ID: uuid.New(), SenderNickname: "Alice", Content: "hi", CreatedAt: base}
	req.False(a.SameDelivery(c))
}

func TestSameDelivery_Falls_Back_To_Content_Window(t *testing.T) {
	req := require.New(t)
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	local := Message{SenderNickname: "Alice", Content: "hi", CreatedAt: base}

	echo := Message{ID: uuid.New(), SenderNickname: "Alice", Content: "hi", CreatedAt: base.Add(500 * time.Millisecond)}
	req.True(local.SameDelivery(echo))

	late := Message{ID: uuid.New(), SenderNickname: "Alice", Content: "hi", CreatedAt: base.Add(3 * time.Second)}
	req.False(local.SameDelivery(late))

	other := Message{ID: uuid.New(), SenderNickname: "Bob", Content: "hi", CreatedAt: base}
	req.False(local.SameDelivery(other))
}
