package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/donaldgifford/shopify-zbozi-feed/internal/api/handlers"
)

// FeedStatus returns the server's cache state.
func (c *Client) FeedStatus(ctx context.Context) (*handlers.FeedStatusBody, error) {
	var s handlers.FeedStatusBody
	if err := c.get(ctx, "/api/v1/feed/status", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// RefreshFeed forces a rebuild and returns the resulting cache state.
func (c *Client) RefreshFeed(ctx context.Context) (*handlers.FeedStatusBody, error) {
	var s handlers.FeedStatusBody
	if err := c.post(ctx, "/api/v1/feed/refresh", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Throttle returns the last Admin API throttle state seen by the server.
func (c *Client) Throttle(ctx context.Context) (*handlers.ThrottleBody, error) {
	var t handlers.ThrottleBody
	if err := c.get(ctx, "/api/v1/throttle", &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// FetchFeed downloads the XML document served at path, "/feed.xml" when
// path is empty.
func (c *Client) FetchFeed(ctx context.Context, path string) ([]byte, error) {
	if path == "" {
		path = "/feed.xml"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/xml")

	return c.send(req)
}

// Ready reports whether the server's readiness probe passes.
func (c *Client) Ready(ctx context.Context) (bool, error) {
	var s handlers.StatusResponse
	err := c.get(ctx, "/readyz", &s)
	if err == nil {
		return true, nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable {
		return false, nil
	}
	return false, err
}
