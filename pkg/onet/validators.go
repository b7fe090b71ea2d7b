package onet

import (
	"context"
	"fmt"
)

// Validators fetches the filtered validators list. The envelope session is
// preserved because single-session batches omit the session on each record.
func (c *Client) Validators(ctx context.Context, q ValidatorsQuery) (*ListEnvelope[Validator], error) {
	var env ListEnvelope[Validator]
	if err := c.getJSON(ctx, q.Path(), q.Values(), &env); err != nil {
		return nil, fmt.Errorf("get validators: %w", err)
	}
	return &env, nil
}
