package handler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastOrderUpdateDeliversOncePerSubscriber(t *testing.T) {
	mr := miniredis.RunT(t)
	old := redisClient
	redisClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		redisClient.Close()
		redisClient = old
	})

	ctx := context.Background()
	subA := redisClient.Subscribe(ctx, orderChannel(42))
	defer subA.Close()
	subB := redisClient.Subscribe(ctx, orderChannel(42))
	defer subB.Close()
	_, err := subA.Receive(ctx)
	require.NoError(t, err)
	_, err = subB.Receive(ctx)
	require.NoError(t, err)

	BroadcastOrderUpdate(42, fiber.Map{"orderNumber": "ORD-FEED1", "status": "READY"})

	for _, sub := range []*redis.PubSub{subA, subB} {
		select {
		case msg := <-sub.Channel():
			assert.Contains(t, msg.Payload, "ORD-FEED1")
		case <-time.After(2 * time.Second):
			t.Fatal("subscriber did not receive the update")
		}
		select {
		case msg := <-sub.Channel():
			t.Fatalf("subscriber received a second copy: %s", msg.Payload)
		case <-time.After(150 * time.Millisecond):
		}
	}
}
