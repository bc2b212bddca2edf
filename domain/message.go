// Package domain contains core concepts of the sync client.
// This file defines Message events and their dedup rules.
// Messages are immutable once confirmed.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// MessageKind distinguishes chat payloads from system notices.
type MessageKind string

const (
	KindChat   MessageKind = "CHAT"
	KindSystem MessageKind = "SYSTEM"
	KindJoin   MessageKind = "JOIN"
	KindLeave  MessageKind = "LEAVE"
)

// MessageStatus tracks whether the broker has echoed the message back.
type MessageStatus int

const (
	Confirmed MessageStatus = iota
	// Unconfirmed marks a local-only insertion after a failed send. It has
	// no server id and may later be superseded by a matching echo.
	Unconfirmed
)

// DedupWindow is the tolerance for treating two messages with the same
// sender and content as one delivery.
const DedupWindow = 2 * time.Second

// Message represents one chat event inside a room.
// ID is uuid.Nil until the server has assigned one.
type Message struct {
	ID             uuid.UUID
	Room           RoomID
	SenderID       string
	SenderNickname string
	Content        string
	Kind           MessageKind
	CreatedAt      time.Time
	Status         MessageStatus
}

// SameDelivery reports whether m and other are two deliveries of the same
// logical message: equal server ids when both carry one, otherwise the same
// sender and content within DedupWindow.
func (m Message) SameDelivery(other Message) bool {
	if m.ID != uuid.Nil && other.ID != uuid.Nil {
		return m.ID == other.ID
	}
	if m.SenderNickname != other.SenderNickname || m.Content != other.Content {
		return false
	}
	delta := m.CreatedAt.Sub(other.CreatedAt)
	if delta < 0 {
		delta = -delta
	}
	return delta <= DedupWindow
}
