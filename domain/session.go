// Package domain contains core concepts of the sync client.
// This file defines the Session status machine.
// No runtime, network, or UI logic should be added here.
package domain

// SessionStatus is the connection state of the single client session.
type SessionStatus int

const (
	Disconnected SessionStatus = iota
	Connecting
	Connected
)

func (s SessionStatus) String() string {
	switch s {
	case Connecting:
		return "CONNECTING"
	case Connected:
		return "CONNECTED"
	default:
		return "DISCONNECTED"
	}
}
