package domain

// Frame is one inbound broker delivery: the logical channel it arrived on
// and its raw JSON payload. Decoding happens at the handler boundary.
type Frame struct {
	Channel string
	Payload []byte
}
