package domain

import "fmt"

// Channel naming follows the broker's broadcast-vs-point-to-point split:
// /topic/... fans out to every subscriber, /queue/... reaches one member.

// RoomListChannel broadcasts directory changes (created, deleted, counts).
const RoomListChannel = "/topic/rooms"

// AdminStatusChannel broadcasts portal-wide status notices.
const AdminStatusChannel = "/topic/admin/status"

// RoomMessagesChannel carries chat messages of one room.
func RoomMessagesChannel(id RoomID) string {
	return fmt.Sprintf("/topic/room/%d/messages", id)
}

// RoomNotificationsChannel carries presence and lifecycle notifications
// of one room.
func RoomNotificationsChannel(id RoomID) string {
	return fmt.Sprintf("/topic/room/%d/notifications", id)
}

// MemberQueueChannel is the point-to-point channel of one member:
// forced-logout notices and personal alerts.
func MemberQueueChannel(memberID string) string {
	return fmt.Sprintf("/queue/member/%s", memberID)
}

// Outbound intent paths, parameterized by room id.

func RoomJoinPath(id RoomID) string  { return fmt.Sprintf("/app/room/%d/join", id) }
func RoomLeavePath(id RoomID) string { return fmt.Sprintf("/app/room/%d/leave", id) }
func RoomSendPath(id RoomID) string  { return fmt.Sprintf("/app/room/%d/send", id) }
