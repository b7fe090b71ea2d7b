package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// UpdatesStream is the capped stream every merge notification is appended
// to, so late consumers can replay recent activity.
const UpdatesStream = "onet:updates"

// UpdateChannel returns the Pub/Sub channel for one entity kind. Fanout
// consumers subscribe to the "onet:*:updated" pattern.
func UpdateChannel(entity string) string {
	return fmt.Sprintf("onet:%s:updated", entity)
}

// updateMessage is the payload published on merge notifications.
type updateMessage struct {
	Entity    string `json:"entity"`
	Six       uint32 `json:"six"`
	Timestamp int64  `json:"timestamp"`
}

// Notifier publishes merge notifications over Redis. It satisfies the
// reconciler's notifier contract; everything here is best-effort.
type Notifier struct {
	client *Client
	logger *zap.Logger
	now    func() time.Time
}

func NewNotifier(client *Client, logger *zap.Logger) *Notifier {
	return &Notifier{client: client, logger: logger, now: time.Now}
}

// Updated publishes one notification on the entity's channel and appends it
// to the capped updates stream.
func (n *Notifier) Updated(ctx context.Context, entity string, six uint32) {
	msg := updateMessage{Entity: entity, Six: six, Timestamp: n.now().UnixMilli()}
	payload, err := json.Marshal(msg)
	if err != nil {
		n.logger.Warn("Failed to encode update notification", zap.Error(err))
		return
	}

	n.client.Publish(ctx, UpdateChannel(entity), payload)
	n.client.XAdd(ctx, UpdatesStream, map[string]interface{}{
		"entity": entity,
		"six":    six,
		"ts":     msg.Timestamp,
	})
}
