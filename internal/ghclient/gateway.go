package ghclient

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	gh "github.com/google/go-github/v57/github"

	"github.com/spiffcs/ghstats/internal/constants"
	"github.com/spiffcs/ghstats/internal/log"
)

// BudgetSource reports the last known call budget for a resource.
type BudgetSource interface {
	Budget(resource string) Budget
}

// Gateway is the single chokepoint every remote call passes through.
//
// Before a call it checks the known budget and, when fewer than Floor calls
// remain, blocks until the budget resets. When a call is rejected for budget
// exhaustion it blocks until the reported reset and retries the same call,
// for as long as the rejection keeps being a budget rejection. Any other
// error is returned to the caller unchanged.
type Gateway struct {
	src   BudgetSource
	floor int

	// Now and Sleep are replaced in tests.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error

	// OnWait, when set, is told about every wait before it starts.
	OnWait func(resource string, until time.Time)
}

// NewGateway returns a gateway reading budgets from src.
func NewGateway(src BudgetSource) *Gateway {
	return &Gateway{
		src:   src,
		floor: constants.RateLimitFloor,
		Now:   time.Now,
		Sleep: sleepContext,
	}
}

// WithFloor sets the remaining-call count below which calls wait for reset.
func (g *Gateway) WithFloor(n int) *Gateway {
	g.floor = n
	return g
}

// Preflight blocks until the resource has at least the floor budget left,
// or until its known reset time has passed.
func (g *Gateway) Preflight(ctx context.Context, resource string) error {
	if g.src == nil {
		return nil
	}
	b := g.src.Budget(resource)
	if !b.Known || b.Remaining >= g.floor {
		return nil
	}
	if !b.ResetAt.After(g.Now()) {
		return nil
	}
	log.Warn("rate limit budget low, waiting for reset",
		"resource", resource,
		"remaining", b.Remaining,
		"resets_at", b.ResetAt.Format(time.RFC3339))
	return g.waitUntil(ctx, resource, b.ResetAt)
}

func (g *Gateway) waitUntil(ctx context.Context, resource string, reset time.Time) error {
	until := reset.Add(constants.ResetBuffer)
	d := until.Sub(g.Now())
	if d < constants.ResetBuffer {
		d = constants.ResetBuffer
		until = g.Now().Add(d)
	}
	if g.OnWait != nil {
		g.OnWait(resource, until)
	}
	return g.Sleep(ctx, d)
}

// Do runs call through g on the given budget resource. name identifies the
// operation in logs.
func Do[T any](ctx context.Context, g *Gateway, resource, name string, call func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := g.Preflight(ctx, resource); err != nil {
		return zero, err
	}

	for {
		v, err := call(ctx)
		if err == nil {
			return v, nil
		}

		var rle *gh.RateLimitError
		var abuse *gh.AbuseRateLimitError
		var resp *gh.ErrorResponse
		switch {
		case errors.As(err, &rle):
			log.Warn("rate limit exhausted, waiting for reset",
				"op", name,
				"resource", resource,
				"resets_at", rle.Rate.Reset.Time.Format(time.RFC3339))
			if werr := g.waitUntil(ctx, resource, rle.Rate.Reset.Time); werr != nil {
				return zero, werr
			}
		case errors.As(err, &abuse):
			wait := constants.SecondaryLimitWait
			if abuse.RetryAfter != nil {
				wait = *abuse.RetryAfter
			}
			log.Warn("secondary rate limit hit, backing off", "op", name, "wait", wait)
			if werr := g.waitUntil(ctx, resource, g.Now().Add(wait)); werr != nil {
				return zero, werr
			}
		case errors.As(err, &resp) && resp.Response != nil && resp.Response.StatusCode == http.StatusTooManyRequests:
			wait := constants.SecondaryLimitWait
			if secs, perr := strconv.Atoi(resp.Response.Header.Get("Retry-After")); perr == nil {
				wait = time.Duration(secs) * time.Second
			}
			log.Warn("too many requests, backing off", "op", name, "wait", wait)
			if werr := g.waitUntil(ctx, resource, g.Now().Add(wait)); werr != nil {
				return zero, werr
			}
		default:
			return zero, err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
