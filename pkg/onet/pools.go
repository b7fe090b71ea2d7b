package onet

import (
	"context"
	"fmt"
)

// Pools fetches the filtered nomination pools list.
func (c *Client) Pools(ctx context.Context, q PoolsQuery) (*ListEnvelope[Pool], error) {
	var env ListEnvelope[Pool]
	if err := c.getJSON(ctx, q.Path(), q.Values(), &env); err != nil {
		return nil, fmt.Errorf("get pools: %w", err)
	}
	return &env, nil
}
