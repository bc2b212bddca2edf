package workers

import (
	"context"
	"log/slog"
	"time"

	"chat-sync/contract"
)

// directoryRefresher is the slice of the room controller the refresh
// loop needs.
type directoryRefresher interface {
	RefreshRooms(ctx context.Context) error
}

// ListRefreshWorker coalesces bursts of room-list change events into a
// single directory refresh. Every event resets the timer, so the fetch
// fires once the burst has been quiet for the debounce interval.
type ListRefreshWorker struct {
	log      *slog.Logger
	bus      contract.Bus
	rooms    directoryRefresher
	debounce time.Duration
	kick     chan struct{}
}

func NewListRefreshWorker(log *slog.Logger, bus contract.Bus, rooms directoryRefresher, debounce time.Duration) *ListRefreshWorker {
	return &ListRefreshWorker{
		log:      log,
		bus:      bus,
		rooms:    rooms,
		debounce: debounce,
		kick:     make(chan struct{}, 1),
	}
}

func (w *ListRefreshWorker) Run(ctx context.Context) error {
	off := w.bus.On(contract.TopicRoomListChanged, func(any) {
		select {
		case w.kick <- struct{}{}:
		default:
		}
	})
	defer off()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.kick:
			// Restart the countdown on every event in the burst.
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
		case <-timer.C:
			if err := w.rooms.RefreshRooms(ctx); err != nil {
				w.log.Warn("Room list refresh failed", "err", err)
			}
		}
	}
}
