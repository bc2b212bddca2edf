// Package errors defines the sentinel errors of the sync client.
// Callers wrap them with %w and match with errors.Is.
package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	// ErrAuthExpired is terminal: the bearer credential is missing, expired,
	// or rejected by the server. Never retried automatically.
	ErrAuthExpired = fmt.Errorf("credential expired")

	// ErrRetriesExhausted is raised once the reconnect budget is spent.
	ErrRetriesExhausted = fmt.Errorf("reconnect attempts exhausted")

	ErrNotConnected         = fmt.Errorf("session is not connected")
	ErrJoinInProgress       = fmt.Errorf("join already in progress")
	ErrSubscriptionRejected = fmt.Errorf("transport rejected the channel")
	ErrSendFailure          = fmt.Errorf("outbound publish failed")
	ErrMalformedPayload     = fmt.Errorf("malformed inbound payload")
)
