package workers

import (
	"context"
	"log/slog"
	"time"

	"chat-sync/domain"
)

// membershipKeeper is the slice of the room controller the keepalive
// loop needs.
type membershipKeeper interface {
	MyRoomIDs() []domain.RoomID
	Keepalive(room domain.RoomID) error
}

// KeepaliveWorker periodically re-sends the silent join for every room
// the user belongs to, so server-side membership never lapses while the
// session is up.
type KeepaliveWorker struct {
	log      *slog.Logger
	rooms    membershipKeeper
	interval time.Duration
}

func NewKeepaliveWorker(log *slog.Logger, rooms membershipKeeper, interval time.Duration) *KeepaliveWorker {
	return &KeepaliveWorker{log: log, rooms: rooms, interval: interval}
}

func (w *KeepaliveWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.sweep()
		}
	}
}

// sweep sends one keepalive per membership. A failed send is logged and
// skipped; the next tick retries it.
func (w *KeepaliveWorker) sweep() {
	for _, room := range w.rooms.MyRoomIDs() {
		if err := w.rooms.Keepalive(room); err != nil {
			w.log.Warn("Keepalive failed", "room", room, "err", err)
		}
	}
}
