// Package notify bridges security events to the marketplace's notification
// pipeline. Events are published to a Redis list the notification workers
// drain; delivery (push, email) happens outside this subsystem.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const eventQueueKey = "notifications:security"

type event struct {
	Kind       string     `json:"kind"`
	UserID     *uuid.UUID `json:"user_id,omitempty"`
	MessageID  *uuid.UUID `json:"message_id,omitempty"`
	Event      string     `json:"event,omitempty"`
	Method     string     `json:"method,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// QueueNotifier satisfies the fire-and-forget notifier boundaries of the
// policy engine, the self-destruct manager, and the incident tracker.
// Failures are logged and swallowed; notifications never block or fail the
// operation that raised them.
type QueueNotifier struct {
	client *redis.Client
	logger *zap.Logger
}

func NewQueueNotifier(client *redis.Client, logger *zap.Logger) *QueueNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueNotifier{client: client, logger: logger}
}

// Notify tells a user about a security event on one of their messages.
func (n *QueueNotifier) Notify(ctx context.Context, userID uuid.UUID, eventName string) {
	n.publish(ctx, event{
		Kind:       "user_alert",
		UserID:     &userID,
		Event:      eventName,
		OccurredAt: time.Now(),
	})
}

// NotifyDestruction announces that a message was destroyed and how. The
// notification workers resolve the recipient set from the message id.
func (n *QueueNotifier) NotifyDestruction(ctx context.Context, messageID uuid.UUID, method string) {
	n.publish(ctx, event{
		Kind:       "message_destroyed",
		MessageID:  &messageID,
		Method:     method,
		OccurredAt: time.Now(),
	})
}

func (n *QueueNotifier) publish(ctx context.Context, e event) {
	payload, err := json.Marshal(e)
	if err != nil {
		n.logger.Error("marshaling notification event", zap.Error(err))
		return
	}
	if err := n.client.LPush(ctx, eventQueueKey, payload).Err(); err != nil {
		n.logger.Warn("notification publish failed",
			zap.String("kind", e.Kind),
			zap.Error(err))
	}
}
