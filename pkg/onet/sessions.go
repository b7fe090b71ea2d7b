package onet

import (
	"context"
	"fmt"
)

// Sessions fetches the filtered sessions list.
func (c *Client) Sessions(ctx context.Context, q SessionsQuery) ([]Session, error) {
	var env ListEnvelope[Session]
	if err := c.getJSON(ctx, q.Path(), q.Values(), &env); err != nil {
		return nil, fmt.Errorf("get sessions: %w", err)
	}
	return env.Data, nil
}

// SessionAt fetches a single session by index, or the live one when index
// is SessionCurrent. The endpoint responds with the bare session object.
func (c *Client) SessionAt(ctx context.Context, index string) (*Session, error) {
	var s Session
	if err := c.getJSON(ctx, sessionsPath+"/"+index, nil, &s); err != nil {
		return nil, fmt.Errorf("get session %s: %w", index, err)
	}
	return &s, nil
}
