// Package transport implements the websocket broker connection: one socket,
// JSON control frames, channel multiplexing through subscribe handles.
package transport

import "encoding/json"

type frameType string

const (
	frameSubscribe   frameType = "SUBSCRIBE"
	frameUnsubscribe frameType = "UNSUBSCRIBE"
	frameSend        frameType = "SEND"
	frameMessage     frameType = "MESSAGE"
	frameError       frameType = "ERROR"
)

// wireFrame is the on-the-wire shape of every exchange with the broker.
type wireFrame struct {
	Type    frameType       `json:"type"`
	Channel string          `json:"channel,omitempty"`
	Handle  string          `json:"handle,omitempty"`
	Code    string          `json:"code,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Error codes the broker reports on ERROR frames.
const (
	codeAuthExpired     = "AUTH_EXPIRED"
	codeChannelRejected = "CHANNEL_REJECTED"
)
