package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/zimroute/internal/pkg/metrics"
)

// wsMessage is sent from client to subscribe/unsubscribe to route feeds.
type wsMessage struct {
	Action  string `json:"action"`   // "subscribe" | "unsubscribe"
	RouteID string `json:"route_id"` // "" = all of the caller's routes
}

// WebSocketUpgrade rejects plain HTTP requests to the relay and records the caller.
func WebSocketUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		c.Locals("ws_user_id", UserID(c))
		return c.Next()
	}
}

// WebSocketHandler relays traffic refresh events for the caller's saved routes.
// Clients send JSON: {"action":"subscribe","route_id":"<uuid>"}.
// Every connection starts subscribed to all of the caller's routes; subscribing
// to one route replaces that feed.
func WebSocketHandler(feed TrafficFeed) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		userID, _ := c.Locals("ws_user_id").(string)
		log := slog.Default().With("remote", c.RemoteAddr().String(), "user_id", userID)
		log.Info("ws client connected")
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex
		subs := make(map[string]func()) // route id -> unsubscribe

		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		// Drop events for other users' routes.
		relay := func(data []byte) {
			var ev struct {
				UserID string `json:"user_id"`
			}
			if err := json.Unmarshal(data, &ev); err != nil || ev.UserID != userID {
				return
			}
			_ = writeJSON(json.RawMessage(data))
		}

		if feed == nil {
			_ = writeJSON(map[string]string{"error": "traffic feed unavailable"})
			return
		}
		unsub, err := feed.Subscribe("", relay)
		if err != nil {
			log.Error("ws default subscribe failed", "error", err)
			return
		}
		subs[""] = unsub

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			switch m.Action {
			case "subscribe":
				if _, exists := subs[m.RouteID]; exists {
					_ = writeJSON(map[string]string{"status": "already subscribed", "route_id": m.RouteID})
					continue
				}
				unsub, err := feed.Subscribe(m.RouteID, relay)
				if err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				// A route subscription narrows the all-routes feed; "" widens it again.
				for id, u := range subs {
					if m.RouteID == "" || id == "" {
						u()
						delete(subs, id)
					}
				}
				subs[m.RouteID] = unsub
				_ = writeJSON(map[string]string{"status": "subscribed", "route_id": m.RouteID})

			case "unsubscribe":
				if unsub, exists := subs[m.RouteID]; exists {
					unsub()
					delete(subs, m.RouteID)
					_ = writeJSON(map[string]string{"status": "unsubscribed", "route_id": m.RouteID})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + m.RouteID})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		close(done)
		for _, unsub := range subs {
			unsub()
		}
		log.Info("ws client disconnected")
	}
}
