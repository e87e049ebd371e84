package natsadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/samirrijal/zimroute/internal/core/domain"
)

const (
	StreamName         = "ROUTING_EVENTS"
	SubjectRouteSaved  = "routing.route.saved"
	SubjectTrafficBase = "routing.traffic.refreshed"
	// SubjectTrafficAll matches every traffic refresh event.
	SubjectTrafficAll = "routing.traffic.>"
)

// TrafficSubject is the subject a route's refresh events are published on.
func TrafficSubject(routeID string) string {
	return SubjectTrafficBase + "." + routeID
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the routing stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{"routing.>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// routeSavedEvent omits the insight payload; consumers fetch the record if they need it.
type routeSavedEvent struct {
	RouteID         string            `json:"route_id"`
	UserID          string            `json:"user_id"`
	Mode            domain.TravelMode `json:"mode"`
	DistanceMeters  int               `json:"distance"`
	DurationSeconds int               `json:"duration"`
	CreatedAt       time.Time         `json:"created_at"`
}

func (p *Publisher) PublishRouteSaved(ctx context.Context, rec *domain.RouteRecord) error {
	if rec == nil {
		return errors.New("nil route record")
	}
	data, err := json.Marshal(routeSavedEvent{
		RouteID:         rec.ID,
		UserID:          rec.UserID,
		Mode:            rec.Mode,
		DistanceMeters:  rec.DistanceMeters,
		DurationSeconds: rec.DurationSeconds,
		CreatedAt:       rec.CreatedAt,
	})
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectRouteSaved, data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishTrafficUpdate(ctx context.Context, u *domain.TrafficUpdate) error {
	if u == nil {
		return errors.New("nil traffic update")
	}
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(TrafficSubject(u.RouteID), data, nats.Context(ctx))
	return err
}

// Connected reports whether the underlying connection is usable.
func (p *Publisher) Connected() bool {
	return p.conn != nil && p.conn.IsConnected()
}

// Conn exposes the connection for plain subscriptions.
func (p *Publisher) Conn() *nats.Conn { return p.conn }

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("zimroute"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}

// ErrInvalidRouteID is returned for route ids that would widen a subject.
var ErrInvalidRouteID = errors.New("invalid route id")
