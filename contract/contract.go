//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-sync/domain"
	"context"
	"reflect"
)

// Dialer opens one authenticated broker connection.
type Dialer interface {
	Dial(ctx context.Context, token string) (Conn, error)
}

// Conn is a live broker connection. Frames is closed when the connection
// dies; Err then reports why. Subscribe returns an opaque transport handle.
type Conn interface {
	Subscribe(channel string) (string, error)
	Unsubscribe(handle string) error
	Send(channel string, payload any) error
	Frames() <-chan domain.Frame
	Err() error
	Close() error
}

// TokenSource supplies the bearer credential. It returns ErrAuthExpired
// once the credential is unusable.
type TokenSource interface {
	Token() (string, error)
}

// RosterCache persists per-room rosters across view remounts (and process
// restarts). Load's second return is false on a cache miss.
type RosterCache interface {
	Load(room domain.RoomID) (domain.Roster, bool, error)
	Save(room domain.RoomID, roster domain.Roster) error
	Clear(room domain.RoomID) error
}

// HistoryClient fetches paged message history, newest page first.
type HistoryClient interface {
	GetMessages(ctx context.Context, room domain.RoomID, page, size int) ([]domain.Message, error)
}

// RoomDirectory is the room CRUD collaborator.
type RoomDirectory interface {
	ListRooms(ctx context.Context) ([]domain.RoomSummary, error)
	GetRoom(ctx context.Context, id domain.RoomID) (domain.RoomSummary, error)
}

// Bus is the in-process publish/subscribe fabric between screen contexts.
// On returns the unsubscribe func for the registered callback.
type Bus interface {
	On(topic string, cb func(payload any)) func()
	Emit(topic string, payload any)
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// initialization or lifecycle events, avoiding the need for manual naming
// in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
