package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRedisPublisher_Publish(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	sub := client.Subscribe(ctx, "changes")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	publisher := NewRedisPublisher(client, "changes", zap.NewNop())
	publisher.Publish(ctx, Event{
		Type:      EventStockChanged,
		EntityID:  "v-1",
		VariantID: "v-1",
		OrderID:   "o-1",
	})

	select {
	case msg := <-sub.Channel():
		var event Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		assert.Equal(t, EventStockChanged, event.Type)
		assert.Equal(t, "v-1", event.EntityID)
		assert.Equal(t, "o-1", event.OrderID)
		assert.False(t, event.At.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("no change event received")
	}
}

func TestRedisPublisher_PublishFailureIsSwallowed(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()
	mr.Close()

	publisher := NewRedisPublisher(client, "changes", zap.NewNop())

	assert.NotPanics(t, func() {
		publisher.Publish(context.Background(), Event{Type: EventOrderCreated, EntityID: "o-1"})
	})
}

func TestNewPublisher(t *testing.T) {
	assert.IsType(t, NoopPublisher{}, NewPublisher(nil, "changes", zap.NewNop()))

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()
	assert.IsType(t, &RedisPublisher{}, NewPublisher(client, "changes", zap.NewNop()))
}
