package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"strings"
	"time"

	"github.com/samirrijal/zimroute/internal/core/domain"
	"github.com/samirrijal/zimroute/internal/core/ports"
	"github.com/samirrijal/zimroute/internal/pkg/metrics"
)

// RateLimiterConfig configures the tiered fixed-window limiter.
type RateLimiterConfig struct {
	LocalCIDRs  []string
	LocalLimit  int64
	GlobalLimit int64
	Window      time.Duration
}

// RateLimiter classifies client IPs into tiers and admits requests against
// a per-(tier, ip) fixed window.
type RateLimiter struct {
	store       ports.CounterStore
	local       []netip.Prefix
	localLimit  int64
	globalLimit int64
	window      time.Duration
}

// NewRateLimiter parses the local CIDR ranges. Zero limits or window select 50, 100 and 60s.
func NewRateLimiter(store ports.CounterStore, cfg RateLimiterConfig) (*RateLimiter, error) {
	prefixes := make([]netip.Prefix, 0, len(cfg.LocalCIDRs))
	for _, cidr := range cfg.LocalCIDRs {
		p, err := netip.ParsePrefix(strings.TrimSpace(cidr))
		if err != nil {
			return nil, fmt.Errorf("parse local cidr %q: %w", cidr, err)
		}
		prefixes = append(prefixes, p.Masked())
	}
	if cfg.LocalLimit <= 0 {
		cfg.LocalLimit = 50
	}
	if cfg.GlobalLimit <= 0 {
		cfg.GlobalLimit = 100
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &RateLimiter{
		store:       store,
		local:       prefixes,
		localLimit:  cfg.LocalLimit,
		globalLimit: cfg.GlobalLimit,
		window:      cfg.Window,
	}, nil
}

// Classify returns the tier for ip. Unparseable addresses are logged and
// fall through to the global tier.
func (r *RateLimiter) Classify(ctx context.Context, ip string) domain.RateTier {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		slog.WarnContext(ctx, "rate limiter: unparseable client ip", "ip", ip, "error", err)
		return domain.TierGlobal
	}
	addr = addr.Unmap()
	for _, p := range r.local {
		if p.Contains(addr) {
			return domain.TierLocal
		}
	}
	return domain.TierGlobal
}

// Admit counts one request from ip. It never fails: a counter store fault
// is logged and the request is admitted.
func (r *RateLimiter) Admit(ctx context.Context, ip string) domain.RateDecision {
	tier := r.Classify(ctx, ip)
	limit := r.globalLimit
	if tier == domain.TierLocal {
		limit = r.localLimit
	}

	allowed, count, ttl, err := r.store.Hit(ctx, RateLimitKey(tier, ip), limit, r.window)
	if err != nil {
		slog.WarnContext(ctx, "rate limiter: counter store fault, failing open",
			"tier", tier, "ip", ip, "error", err)
		metrics.RateLimitFaults.Inc()
		return domain.RateDecision{Allowed: true, Tier: tier, Limit: limit}
	}

	d := domain.RateDecision{Allowed: allowed, Tier: tier, Count: count, Limit: limit}
	if !allowed {
		d.RetryAfter = ttl
		if d.RetryAfter <= 0 {
			d.RetryAfter = r.window
		}
		metrics.RateLimitDecisions.WithLabelValues(string(tier), "rejected").Inc()
	} else {
		metrics.RateLimitDecisions.WithLabelValues(string(tier), "admitted").Inc()
	}
	return d
}

// RateLimitKey is the counter key for a (tier, ip) window.
func RateLimitKey(tier domain.RateTier, ip string) string {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		ip = "unknown"
	}
	return "rate_limit_" + string(tier) + ":" + ip
}
