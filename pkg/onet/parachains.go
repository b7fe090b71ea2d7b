package onet

import (
	"context"
	"fmt"
)

// Parachains fetches the parachains assigned in a session.
func (c *Client) Parachains(ctx context.Context, q ParachainsQuery) (*ListEnvelope[Parachain], error) {
	var env ListEnvelope[Parachain]
	if err := c.getJSON(ctx, q.Path(), q.Values(), &env); err != nil {
		return nil, fmt.Errorf("get parachains: %w", err)
	}
	return &env, nil
}
