package events

import (
	"context"
	"testing"
	"time"

	"civicsetu-be/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	t.Cleanup(func() {
		client.Close()
	})
	return client
}

func TestRedisBroker_RelaysPublishedEvents(t *testing.T) {
	client := setupTestRedis(t)
	hub := NewHub(4)
	broker := NewRedisBroker(client, "civicsetu:test-status", hub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, unsubscribe := broker.Subscribe()
	defer unsubscribe()

	errs := make(chan error, 1)
	go func() { errs <- broker.Run(ctx) }()

	// Give the relay a moment to register its subscription.
	require.Eventually(t, func() bool {
		n, err := client.PubSubNumSub(ctx, "civicsetu:test-status").Result()
		return err == nil && n["civicsetu:test-status"] > 0
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, broker.Publish(ctx, StatusEvent{ReportID: "abc", To: models.StatusClosed}))

	select {
	case ev := <-ch:
		assert.Equal(t, "abc", ev.ReportID)
		assert.Equal(t, models.StatusClosed, ev.To)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not relayed")
	}

	cancel()
	assert.NoError(t, <-errs)
}
