package domain

import "time"

// Outbound intents sent to the broker on a per-room path.

// JoinIntent announces (or silently refreshes) room membership.
// Keepalive joins preserve passive membership: the broker must not
// broadcast them as a fresh entrance.
type JoinIntent struct {
	Room      RoomID `json:"roomId"`
	MemberID  string `json:"memberId,omitempty"`
	Nickname  string `json:"nickname"`
	Keepalive bool   `json:"keepalive"`
}

// LeaveIntent is a real leave: only explicit, user-initiated departures
// send one.
type LeaveIntent struct {
	Room     RoomID `json:"roomId"`
	MemberID string `json:"memberId,omitempty"`
	Nickname string `json:"nickname"`
}

// SendIntent publishes one chat message to a room.
type SendIntent struct {
	Room      RoomID    `json:"roomId"`
	MemberID  string    `json:"memberId,omitempty"`
	Nickname  string    `json:"nickname"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
