// Package queue defines message payloads exchanged over the message broker.
package queue

import "encoding/json"

// Exchange carrying gateway coordination events. Fan-out: every backend
// replica receives every event and acts only on sockets it holds locally.
const GatewayExchange = "gateway.events"

// GatewayEvent types.
const (
	EventEvicted = "evicted" // close SocketID if held locally
	EventEmit    = "emit"    // deliver Event/Payload to SocketID or UserID's group
)

// GatewayEvent is published when a replica needs a socket it does not hold
// to be acted on: force-disconnecting a superseded connection, or pushing a
// payload to a user whose socket lives on another replica. Origin carries
// the publishing replica's id so it can skip its own events (local delivery
// already happened in-process).
type GatewayEvent struct {
	Origin   string          `json:"origin"`
	Type     string          `json:"type"`
	SocketID string          `json:"socket_id,omitempty"`
	UserID   uint64          `json:"user_id,omitempty"`
	Event    string          `json:"event,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}
