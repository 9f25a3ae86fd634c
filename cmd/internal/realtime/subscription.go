package realtime

import (
	"encoding/json"
	"sync"
)

// Handlers receives change events for one subscription.
// Nil members are skipped. Handlers run on the client's read goroutine, in
// strict arrival order; they must not block.
type Handlers struct {
	OnInsert func(topic string, row json.RawMessage)
	OnUpdate func(topic string, row, old json.RawMessage)
	OnDelete func(topic string, old json.RawMessage)
}

// Subscription is a disposable handle for one logical topic subscription.
type Subscription struct {
	id       uint64
	topic    string
	handlers Handlers

	client *Client
	once   sync.Once
}

// Topic returns the subscribed topic.
func (s *Subscription) Topic() string {
	if s == nil {
		return ""
	}
	return s.topic
}

// Unsubscribe tears the subscription down. It is idempotent and safe to call
// on an already-closed client.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.client == nil {
		return
	}
	s.once.Do(func() {
		s.client.unsubscribe(s)
	})
}
