//go:generate go run go.uber.org/mock/mockgen -source=roster.go -destination=../mocks/mock_roster_repository.go -package=mocks
// Package repositories persists client-side caches in BadgerDB.
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"chat-sync/domain"

	"github.com/dgraph-io/badger/v4"
)

// RosterRepository caches the last known roster per room so a remounted
// room view (or a restarted client) can seed presence immediately instead
// of flashing empty while the authoritative update is in flight.
type RosterRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewRosterRepository(db *badger.DB, log *slog.Logger) RosterRepository {
	return RosterRepository{db: db, log: log}
}

func rosterKey(room domain.RoomID) []byte {
	return []byte(fmt.Sprintf("roster:%d", room))
}

// Save overwrites the cached roster for the room.
func (r RosterRepository) Save(room domain.RoomID, roster domain.Roster) error {
	bytes, err := json.Marshal(roster.Records())
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(rosterKey(room), bytes)
	})
}

// Load returns the cached roster and whether one existed.
func (r RosterRepository) Load(room domain.RoomID) (domain.Roster, bool, error) {
	var raw []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(rosterKey(room))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return domain.Roster{}, false, nil
	}
	if err != nil {
		return domain.Roster{}, false, err
	}

	var records []domain.ParticipantRecord
	if err = json.Unmarshal(raw, &records); err != nil {
		// A corrupt entry is no better than a miss.
		r.log.Warn("Dropping unreadable roster cache entry", "room", room, "err", err)
		return domain.Roster{}, false, nil
	}
	return domain.NewRoster(records...), true, nil
}

// Clear removes the cache entry; called only on an explicit room leave.
func (r RosterRepository) Clear(room domain.RoomID) error {
	return r.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(rosterKey(room))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
}
