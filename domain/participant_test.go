package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoster_Key_Uniqueness(t *testing.T) {
	req := require.New(t)
	roster := NewRoster(
		ParticipantRecord{MemberID: "m-1", Nickname: "Alice"},
		ParticipantRecord{MemberID: "m-1", Nickname: "Alice (renamed)"},
		ParticipantRecord{Nickname: "Bob"},
		ParticipantRecord{Nickname: "Bob"},
	)

	// Duplicates collapse on the identity key
	req.Equal(2, roster.Size())

	// The later record won the member-id slot
	rec, ok := roster.Get("m-1")
	req.True(ok)
	req.Equal("Alice (renamed)", rec.Nickname)
}

func TestRoster_Add_Never_Replaces(t *testing.T) {
	req := require.New(t)
	roster := NewRoster(ParticipantRecord{MemberID: "m-1", Nickname: "Alice", Online: true})

	added := roster.Add(ParticipantRecord{MemberID: "m-1", Nickname: "Alice", Online: false})

	req.False(added)
	rec, _ := roster.Get("m-1")
	req.True(rec.Online)
}

func TestRoster_Remove_Is_A_Safe_NoOp_When_Absent(t *testing.T) {
	req := require.New(t)
	roster := NewRoster(ParticipantRecord{Nickname: "Alice"})

	req.False(roster.Remove("m-ghost"))
	req.False(roster.RemoveByNickname("Ghost"))
	req.Equal(1, roster.Size())
}

func TestRoster_Remove_By_Nickname_Matches_Keyless_Records(t *testing.T) {
	req := require.New(t)
	roster := NewRoster(ParticipantRecord{Nickname: "Alice", Online: true})

	// The leave event carries a nickname for a record added without an id
	req.True(roster.RemoveByNickname("Alice"))
	req.Zero(roster.Size())
}

func TestRoster_Records_Is_A_Copy(t *testing.T) {
	req := require.New(t)
	roster := NewRoster(ParticipantRecord{Nickname: "Alice"})

	records := roster.Records()
	records[0].Nickname = "Mallory"

	rec, _ := roster.GetByNickname("Alice")
	req.Equal("Alice", rec.Nickname)
}
