package contract

import "chat-sync/domain"

// Bus topics linking otherwise-unrelated screen contexts.
const (
	// TopicParticipantCount fans room occupancy changes out to list views.
	TopicParticipantCount = "room.participant_count"
	// TopicRoomListChanged fires when the public directory changed shape.
	TopicRoomListChanged = "room.list_changed"
	// TopicRoomClosed is the terminal notice for the currently open room.
	TopicRoomClosed = "room.closed"
	// TopicAuthExpired is the forced-logout condition.
	TopicAuthExpired = "session.auth_expired"
	// TopicConnectionTerminal fires once the reconnect budget is spent.
	TopicConnectionTerminal = "session.terminal"
)

// ParticipantCountChange is the payload of TopicParticipantCount.
type ParticipantCountChange struct {
	Room  domain.RoomID
	Count int
}
