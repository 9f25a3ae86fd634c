// Package v1 defines the Tech-Care realtime push contract.
//
// This package is intentionally stable and dependency-light.
// It is shared between the sync core and the push gateway to keep the wire
// protocol authoritative.
package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Version is the protocol version identifier embedded into every envelope.
const Version = "v1"

// Type constants (wire-stable).
const (
	// TypeHello starts a session handshake (client -> server).
	TypeHello = "hello"
	// TypeHelloAck acknowledges the session handshake (server -> client).
	TypeHelloAck = "hello_ack"

	// TypeSubscribe requests delivery for a topic (client -> server).
	TypeSubscribe = "subscribe"
	// TypeSubscribeAck confirms a subscription (server -> client).
	TypeSubscribeAck = "subscribe_ack"
	// TypeUnsubscribe stops delivery for a topic (client -> server).
	TypeUnsubscribe = "unsubscribe"

	// TypeEvent carries one change event for a subscribed topic (server -> client).
	TypeEvent = "event"

	// TypeAuthRefresh replaces the connection credentials in place (client -> server).
	TypeAuthRefresh = "auth_refresh"

	// TypeError is a generic error envelope (server -> client).
	TypeError = "error"
)

// Change kinds carried by TypeEvent (wire-stable).
const (
	KindInsert = "insert"
	KindUpdate = "update"
	KindDelete = "delete"
)

// Envelope is the canonical wire wrapper.
type Envelope struct {
	V       string          `json:"v"`
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Topic   string          `json:"topic,omitempty"`
	TS      time.Time       `json:"ts,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Validate performs strict structural validation for an Envelope.
func (e Envelope) Validate() error {
	if strings.TrimSpace(e.V) == "" {
		return errors.New("missing field: v")
	}
	if e.V != Version {
		return fmt.Errorf("unsupported protocol version: %q", e.V)
	}
	if strings.TrimSpace(e.Type) == "" {
		return errors.New("missing field: type")
	}

	switch e.Type {
	case TypeHello,
		TypeHelloAck,
		TypeSubscribe,
		TypeSubscribeAck,
		TypeUnsubscribe,
		TypeAuthRefresh,
		TypeError:
		return nil
	case TypeEvent:
		if strings.TrimSpace(e.Topic) == "" {
			return errors.New("missing field: topic")
		}
		return nil
	default:
		return fmt.Errorf("unknown type: %q", e.Type)
	}
}

// ---- Payloads ----

// HelloPayload is sent by the client to initiate a session.
// AccessToken authenticates the connection for per-identity topics.
type HelloPayload struct {
	AccessToken string `json:"access_token,omitempty"`
}

// HelloAckPayload carries the server-assigned channel session id.
type HelloAckPayload struct {
	SessionID string `json:"session_id"`
}

// SubscribePayload requests delivery for a topic.
type SubscribePayload struct {
	Topic string `json:"topic"`
}

// SubscribeAckPayload confirms a subscription.
type SubscribeAckPayload struct {
	Topic string `json:"topic"`
}

// UnsubscribePayload stops delivery for a topic.
type UnsubscribePayload struct {
	Topic string `json:"topic"`
}

// EventPayload is one row-change event on a subscribed topic.
//
// New carries the row after the change (insert/update); Old carries the row
// before the change (update/delete). Either may be absent under partial
// replication, so consumers must treat missing halves as recoverable.
type EventPayload struct {
	Kind string          `json:"kind"`
	New  json.RawMessage `json:"new,omitempty"`
	Old  json.RawMessage `json:"old,omitempty"`
}

// Validate checks the change kind.
func (p EventPayload) Validate() error {
	switch p.Kind {
	case KindInsert, KindUpdate, KindDelete:
		return nil
	default:
		return fmt.Errorf("unknown event kind: %q", p.Kind)
	}
}

// AuthRefreshPayload replaces the connection credentials without reconnecting.
type AuthRefreshPayload struct {
	AccessToken string `json:"access_token"`
}

// ErrorPayload is a generic error message.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}
