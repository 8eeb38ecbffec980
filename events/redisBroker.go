package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"civicsetu-be/logger"

	"github.com/redis/go-redis/v9"
)

// RedisBroker publishes status events on a Redis channel and relays whatever
// arrives on that channel into a local Hub, so every API instance streams
// every change.
type RedisBroker struct {
	client  *redis.Client
	channel string
	hub     *Hub
	log     *slog.Logger
}

func NewRedisBroker(client *redis.Client, channel string, hub *Hub) *RedisBroker {
	return &RedisBroker{
		client:  client,
		channel: channel,
		hub:     hub,
		log:     logger.WithComponent("events"),
	}
}

func (b *RedisBroker) Publish(ctx context.Context, ev StatusEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode status event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish status event: %w", err)
	}
	return nil
}

func (b *RedisBroker) Subscribe() (<-chan StatusEvent, func()) {
	return b.hub.Subscribe()
}

// Run relays channel messages into the hub until ctx is cancelled.
func (b *RedisBroker) Run(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.log.Info("relaying status events", "channel", b.channel)

	msgs := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			var ev StatusEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.log.Warn("dropping malformed status event", "error", err)
				continue
			}
			b.hub.Broadcast(ev)
		}
	}
}
