package stripesync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mirrorstack/stripemirror/app/models"
)

// Notifier is told about every successfully handled event, after the
// mirror writes and before the event is marked processed. Notification
// failures never fail the pipeline.
type Notifier interface {
	Notify(ctx context.Context, event *models.Event) error
}

// RedisNotifier publishes handled events to a per-kind Redis channel so
// other services can react without polling the mirror.
type RedisNotifier struct {
	client *redis.Client
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

type eventNotification struct {
	ID         string `json:"id"`
	UUID       string `json:"uuid"`
	Kind       string `json:"kind"`
	Livemode   bool   `json:"livemode"`
	CustomerID *uint  `json:"customer_id,omitempty"`
}

func (n *RedisNotifier) Notify(ctx context.Context, event *models.Event) error {
	payload, err := json.Marshal(eventNotification{
		ID:         event.StripeID,
		UUID:       event.UUID,
		Kind:       event.Kind,
		Livemode:   event.Livemode,
		CustomerID: event.CustomerID,
	})
	if err != nil {
		return err
	}
	channel := fmt.Sprintf("stripe:events:%s", event.Kind)
	return n.client.Publish(ctx, channel, payload).Err()
}

// MultiNotifier fans one notification out to several notifiers, returning
// the first failure after trying all of them.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, event *models.Event) error {
	var firstErr error
	for _, n := range m {
		if err := n.Notify(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
