// Package transport carries decoded messages between connected clients
// and the game coordinator. The coordinator never sees sockets; it sees
// Endpoints that accept already-addressed outbound messages.
package transport

import "encoding/json"

// Message is one decoded inbound frame.
type Message struct {
	Route  string          `json:"route"`
	Action string          `json:"action"`
	Value  json.RawMessage `json:"value,omitempty"`
	// ID is an optional correlation token echoed in the reply.
	ID string `json:"id,omitempty"`
}

// Outbound is one frame addressed to a single endpoint.
type Outbound struct {
	Subject string `json:"sub"`
	Action  string `json:"action"`
	Value   any    `json:"value,omitempty"`
	// ReplyTo echoes the correlation token of the inbound message this
	// frame answers, when there is one.
	ReplyTo string `json:"replyto,omitempty"`
}

// CloseReason distinguishes a deliberate leave from a dropped link.
type CloseReason int

const (
	// ClosedByChoice means the client ended the connection itself,
	// e.g. closed the tab or sent a goodbye frame.
	ClosedByChoice CloseReason = iota

	// ClosedNotByChoice means the link failed without a goodbye.
	ClosedNotByChoice
)

func (r CloseReason) String() string {
	if r == ClosedByChoice {
		return "by choice"
	}
	return "not by choice"
}
