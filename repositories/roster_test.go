package repositories

import (
	"log/slog"
	"testing"
	"time"

	"chat-sync/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Save_And_Load_Roster(t *testing.T) {
	req := require.New(t)
	repository := NewRosterRepository(openTestDB(t), slog.Default())
	room := domain.RoomID(42)
	joined := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	roster := domain.NewRoster(
		domain.ParticipantRecord{MemberID: "m-1", Nickname: "Alice", Online: true, JoinedAt: joined, Role: domain.RoleCreator},
		domain.ParticipantRecord{Nickname: "Bob", Online: false, Role: domain.RoleMember},
	)

	// When a roster is persisted and loaded back
	req.NoError(repository.Save(room, roster))
	loaded, found, err := repository.Load(room)

	// Then the cache hit returns identical records
	req.NoError(err)
	req.True(found)
	req.Equal(roster.Records(), loaded.Records())
}

func Test_Load_Missing_Roster_Is_A_Miss(t *testing.T) {
	req := require.New(t)
	repository := NewRosterRepository(openTestDB(t), slog.Default())

	_, found, err := repository.Load(domain.RoomID(7))

	req.NoError(err)
	req.False(found)
}

func Test_Clear_Roster(t *testing.T) {
	req := require.New(t)
	repository := NewRosterRepository(openTestDB(t), slog.Default())
	room := domain.RoomID(3)

	// Given a cached roster
	req.NoError(repository.Save(room, domain.NewRoster(domain.ParticipantRecord{Nickname: "Clara"})))

	// When the room is explicitly left
	req.NoError(repository.Clear(room))

	// Then the cache entry is gone
	_, found, err := repository.Load(room)
	req.NoError(err)
	req.False(found)

	// And clearing again is a safe no-op
	req.NoError(repository.Clear(room))
}
