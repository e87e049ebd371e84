package natsadapter_test

import (
	"errors"
	"testing"

	natsadapter "github.com/samirrijal/zimroute/internal/adapters/nats"
)

func TestTrafficSubject(t *testing.T) {
	got := natsadapter.TrafficSubject("4f1c")
	if got != "routing.traffic.refreshed.4f1c" {
		t.Errorf("expected per-route subject, got %q", got)
	}
}

func TestTrafficFeed_RejectsWildcardIDs(t *testing.T) {
	feed := natsadapter.NewTrafficFeed(nil)
	for _, id := range []string{"a.b", "*", ">", "a b"} {
		if _, err := feed.Subscribe(id, func([]byte) {}); !errors.Is(err, natsadapter.ErrInvalidRouteID) {
			t.Errorf("id %q: expected ErrInvalidRouteID, got %v", id, err)
		}
	}
}
