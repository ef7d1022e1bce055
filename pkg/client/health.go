package client

import "context"

// Healthz checks liveness
func (c *Client) Healthz(ctx context.Context) error {
	return c.doRequest(ctx, "GET", "/healthz", nil, nil)
}

// Readyz checks readiness, including the scan store
func (c *Client) Readyz(ctx context.Context) error {
	return c.doRequest(ctx, "GET", "/readyz", nil, nil)
}
