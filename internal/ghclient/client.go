// Package ghclient talks to the GitHub REST API. Every call goes through a
// Gateway so that budget exhaustion is waited out rather than failed.
package ghclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// ErrMissingToken is returned when no API token is configured.
var ErrMissingToken = errors.New("GitHub token not provided: set the GITHUB_TOKEN environment variable")

// ErrEmptyRepository is returned when a repository has no commit history.
var ErrEmptyRepository = errors.New("repository is empty")

// ErrNotFound is returned when a repository or object is inaccessible.
var ErrNotFound = errors.New("not found")

// Client wraps the GitHub API client
type Client struct {
	client  *gh.Client
	state   *RateLimitState
	gateway *Gateway
	// login is the authenticated user, filled by AuthenticatedUser.
	login string
	// token is intentionally unexported. NEVER add String(), MarshalJSON(),
	// or any method that could expose this value in logs or serialized output.
	token string
}

// Option configures a Client.
type Option func(*options)

type options struct {
	baseURL string
}

// WithBaseURL points the client at a GitHub Enterprise or test server.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// NewClient creates a new GitHub client using a personal access token. It
// fails before any network call when token is empty.
func NewClient(ctx context.Context, token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)

	state := NewRateLimitState()
	tc.Transport = &rateLimitTransport{
		base:  tc.Transport,
		state: state,
	}

	client := gh.NewClient(tc)
	if o.baseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(o.baseURL, o.baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL %q: %w", o.baseURL, err)
		}
	}

	return &Client{
		client:  client,
		state:   state,
		gateway: NewGateway(state),
		token:   token,
	}, nil
}

// Gateway returns the retry policy shared by every call of this client.
func (c *Client) Gateway() *Gateway {
	return c.gateway
}

// RateLimitState returns the budget observed from response headers.
func (c *Client) RateLimitState() *RateLimitState {
	return c.state
}

// AuthenticatedUser returns the authenticated user's login
func (c *Client) AuthenticatedUser(ctx context.Context) (string, error) {
	user, err := Do(ctx, c.gateway, ResourceCore, "get user", func(ctx context.Context) (*gh.User, error) {
		u, _, err := c.client.Users.Get(ctx, "")
		return u, err
	})
	if err != nil {
		return "", fmt.Errorf("failed to get authenticated user: %w", err)
	}
	c.login = user.GetLogin()
	return c.login, nil
}

// RateLimitStatus is the budget snapshot reported by the rate_limit endpoint.
type RateLimitStatus struct {
	Resource  string
	Remaining int
	Limit     int
	ResetAt   time.Time
}

// RateLimits fetches the current GitHub API rate limit status. The
// rate_limit endpoint does not count against the budget.
func (c *Client) RateLimits(ctx context.Context) ([]RateLimitStatus, error) {
	limits, _, err := c.client.RateLimit.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get rate limits: %w", err)
	}

	var out []RateLimitStatus
	for _, r := range []struct {
		name string
		rate *gh.Rate
	}{
		{ResourceCore, limits.GetCore()},
		{ResourceSearch, limits.GetSearch()},
	} {
		if r.rate == nil {
			continue
		}
		c.state.Update(r.name, r.rate.Remaining, r.rate.Limit, r.rate.Reset.Time)
		out = append(out, RateLimitStatus{
			Resource:  r.name,
			Remaining: r.rate.Remaining,
			Limit:     r.rate.Limit,
			ResetAt:   r.rate.Reset.Time,
		})
	}
	return out, nil
}

// classify maps HTTP status codes onto the package sentinels.
func classify(err error) error {
	var resp *gh.ErrorResponse
	if !errors.As(err, &resp) || resp.Response == nil {
		return err
	}
	switch resp.Response.StatusCode {
	case http.StatusConflict:
		return fmt.Errorf("%w: %w", ErrEmptyRepository, err)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
