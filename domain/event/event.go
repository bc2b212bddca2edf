// Package event defines the closed set of inbound notification kinds the
// broker delivers on room and directory channels. Every kind the client
// understands is a concrete variant; anything else decodes to Unknown so it
// can be logged instead of silently miscategorized.
package event

import (
	"chat-sync/domain"
)

// Notification is one inbound broker notification, already classified.
type Notification interface {
	RoomID() domain.RoomID
}

// UserListUpdate carries an online-nickname delta, optionally alongside a
// detailed participant list. With Participants present the detailed records
// are the base and the delta is unioned in; without them the delta is a
// refresh against the existing roster and never removes anyone.
type UserListUpdate struct {
	Room         domain.RoomID
	Participants []domain.ParticipantRecord
	OnlineUsers  []string
}

func (n UserListUpdate) RoomID() domain.RoomID { return n.Room }

// ParticipantListUpdate is a full replace: the roster becomes exactly
// this list.
type ParticipantListUpdate struct {
	Room         domain.RoomID
	Participants []domain.ParticipantRecord
}

func (n ParticipantListUpdate) RoomID() domain.RoomID { return n.Room }

// UserJoined announces a single fresh entrance.
type UserJoined struct {
	Room     domain.RoomID
	MemberID string
	Nickname string
}

func (n UserJoined) RoomID() domain.RoomID { return n.Room }

// UserLeft announces a single departure.
type UserLeft struct {
	Room     domain.RoomID
	MemberID string
	Nickname string
}

func (n UserLeft) RoomID() domain.RoomID { return n.Room }

// RoomInfoUpdate refreshes the directory summary of a room; after a creator
// leaves, the server reports the new creator here.
type RoomInfoUpdate struct {
	Room    domain.RoomID
	Summary domain.RoomSummary
}

func (n RoomInfoUpdate) RoomID() domain.RoomID { return n.Room }

// RoomParticipantCountUpdate carries a bare participant count for list views.
type RoomParticipantCountUpdate struct {
	Room  domain.RoomID
	Count int
}

func (n RoomParticipantCountUpdate) RoomID() domain.RoomID { return n.Room }

// ParticipantsUpdated is the roster-length signal variant of a count change.
type ParticipantsUpdated struct {
	Room  domain.RoomID
	Count int
}

func (n ParticipantsUpdated) RoomID() domain.RoomID { return n.Room }

// RoomCreated announces a new public room.
type RoomCreated struct {
	Summary domain.RoomSummary
}

func (n RoomCreated) RoomID() domain.RoomID { return n.Summary.ID }

// RoomDeleted triggers the deletion cascade.
type RoomDeleted struct {
	Room domain.RoomID
}

func (n RoomDeleted) RoomID() domain.RoomID { return n.Room }

// ForcedLogout arrives on the member queue when the server revokes the
// session.
type ForcedLogout struct {
	Reason string
}

func (n ForcedLogout) RoomID() domain.RoomID { return 0 }

// Unknown preserves a notification kind this client does not understand.
type Unknown struct {
	Room domain.RoomID
	Kind string
	Raw  []byte
}

func (n Unknown) RoomID() domain.RoomID { return n.Room }
