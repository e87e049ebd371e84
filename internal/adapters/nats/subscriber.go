package natsadapter

import (
	"strings"

	"github.com/nats-io/nats.go"
)

// TrafficFeed relays traffic refresh events over a plain NATS connection.
// Core subscriptions are used so every WebSocket client sees every event.
type TrafficFeed struct {
	conn *nats.Conn
}

// NewTrafficFeed wraps an existing connection.
func NewTrafficFeed(conn *nats.Conn) *TrafficFeed {
	return &TrafficFeed{conn: conn}
}

// Subscribe delivers the raw JSON of each traffic update. An empty routeID
// subscribes to all routes. The returned func removes the subscription.
func (f *TrafficFeed) Subscribe(routeID string, fn func(data []byte)) (func(), error) {
	subject := SubjectTrafficAll
	if id := strings.TrimSpace(routeID); id != "" {
		if strings.ContainsAny(id, ".*> ") {
			return nil, ErrInvalidRouteID
		}
		subject = TrafficSubject(id)
	}
	sub, err := f.conn.Subscribe(subject, func(msg *nats.Msg) {
		fn(msg.Data)
	})
	if err != nil {
		return nil, err
	}
	return func() { _ = sub.Unsubscribe() }, nil
}
