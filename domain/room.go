package domain

// RoomID identifies a chat room across the portal.
type RoomID int64

// Visibility of a room in the public directory.
type Visibility string

const (
	Public  Visibility = "PUBLIC"
	Private Visibility = "PRIVATE"
)

// RoomSummary is the directory view of a room. CurrentParticipants tracks
// the roster size whenever the roster is authoritative for that room.
type RoomSummary struct {
	ID                  RoomID     `json:"roomId"`
	Name                string     `json:"name"`
	MaxParticipants     int        `json:"maxParticipants"`
	CurrentParticipants int        `json:"currentParticipants"`
	CreatorNickname     string     `json:"creatorNickname"`
	Visibility          Visibility `json:"visibility"`
	Status              string     `json:"status"`
}

// MembershipState is the per-room lifecycle of the local user.
type MembershipState int

const (
	NotMember MembershipState = iota
	Joining
	Member
	Leaving
)

func (s MembershipState) String() string {
	switch s {
	case Joining:
		return "JOINING"
	case Member:
		return "MEMBER"
	case Leaving:
		return "LEAVING"
	default:
		return "NOT_MEMBER"
	}
}
