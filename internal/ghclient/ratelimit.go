package ghclient

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/spiffcs/ghstats/internal/constants"
	"github.com/spiffcs/ghstats/internal/log"
)

// API budget resources reported in the X-RateLimit-Resource header.
const (
	ResourceCore   = "core"
	ResourceSearch = "search"
)

// Budget is the last observed call budget for one resource.
type Budget struct {
	Remaining int
	Limit     int
	ResetAt   time.Time
	Known     bool
}

// RateLimitState tracks the call budget per resource as observed from
// response headers. It is safe for concurrent use.
type RateLimitState struct {
	mu      sync.RWMutex
	budgets map[string]Budget
}

// NewRateLimitState returns an empty state. Unknown budgets never block.
func NewRateLimitState() *RateLimitState {
	return &RateLimitState{budgets: make(map[string]Budget)}
}

// Update records the budget for resource.
func (s *RateLimitState) Update(resource string, remaining, limit int, resetAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[resource] = Budget{Remaining: remaining, Limit: limit, ResetAt: resetAt, Known: true}
}

// Budget returns the last observed budget for resource.
func (s *RateLimitState) Budget(resource string) Budget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.budgets[resource]
}

// rateLimitTransport records the budget carried by every response so the
// gateway can check it before the next call.
type rateLimitTransport struct {
	base  http.RoundTripper
	state *RateLimitState
}

func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	remaining, limit, resetAt := parseRateLimitHeaders(resp)
	if remaining >= 0 && limit > 0 {
		resource := resp.Header.Get("X-RateLimit-Resource")
		if resource == "" {
			resource = ResourceCore
		}
		t.state.Update(resource, remaining, limit, resetAt)

		if remaining <= constants.RateLimitLowWatermark {
			log.Debug("rate limit low", "resource", resource, "remaining", remaining, "resets_at", resetAt.Format(time.RFC3339))
		}
	}

	return resp, nil
}

// parseRateLimitHeaders extracts rate limit info from response headers.
func parseRateLimitHeaders(resp *http.Response) (remaining, limit int, resetAt time.Time) {
	remaining = -1
	limit = -1

	if remainingStr := resp.Header.Get("X-RateLimit-Remaining"); remainingStr != "" {
		if rem, err := strconv.Atoi(remainingStr); err == nil {
			remaining = rem
		}
	}

	if limitStr := resp.Header.Get("X-RateLimit-Limit"); limitStr != "" {
		if lim, err := strconv.Atoi(limitStr); err == nil {
			limit = lim
		}
	}

	if resetStr := resp.Header.Get("X-RateLimit-Reset"); resetStr != "" {
		if resetTime, err := strconv.ParseInt(resetStr, 10, 64); err == nil {
			resetAt = time.Unix(resetTime, 0)
		}
	}

	return remaining, limit, resetAt
}
