package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mintmotion/mintmotion-backend/api/responses"
	pkgerrors "github.com/mintmotion/mintmotion-backend/pkg/errors"
	"github.com/mintmotion/mintmotion-backend/pkg/logger"
)

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// RateLimitPolicy defines the throttling parameters for a traffic surface.
type RateLimitPolicy struct {
	name    string
	window  time.Duration
	ipLimit int
}

// NewRateLimitPolicy builds a policy with the supplied window and per-IP limit.
func NewRateLimitPolicy(name string, window time.Duration, ipLimit int) RateLimitPolicy {
	return RateLimitPolicy{
		name:    strings.ToLower(strings.TrimSpace(name)),
		window:  window,
		ipLimit: ipLimit,
	}
}

func (p RateLimitPolicy) enabled() bool {
	return p.window > 0 && p.ipLimit > 0
}

func (p RateLimitPolicy) normalizedName() string {
	if p.name == "" {
		return "api"
	}
	return p.name
}

func (p RateLimitPolicy) ipKey(ip string) string {
	if ip == "" {
		return ""
	}
	return fmt.Sprintf("mm:ratelimit:ip:%s:%s", p.normalizedName(), ip)
}

// RateLimit enforces per-IP counters on the wrapped routes.
func RateLimit(policy RateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			key := policy.ipKey(clientIP(r))
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			count, err := store.IncrWithTTL(ctx, key, policy.window)
			if err != nil {
				responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if count > int64(policy.ipLimit) {
				if logg != nil {
					logCtx := logg.WithFields(ctx, map[string]any{
						"policy":         policy.normalizedName(),
						"attempts":       count,
						"limit":          policy.ipLimit,
						"window_seconds": int(policy.window.Seconds()),
					})
					logg.Warn(logCtx, "rate_limit.blocked")
				}
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
