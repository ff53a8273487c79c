package sse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etickets/internal/models"
)

func TestOrderFeedBroadcasts(t *testing.T) {
	feed := NewOrderFeed()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := feed.Subscribe(ctx)
	b := feed.Subscribe(ctx)
	assert.Equal(t, 2, feed.ClientCount())

	feed.Emit(models.OrderEvent{Type: "order.created", ReferenceNumber: "ORD-FEED2345"})

	for _, ch := range []<-chan models.OrderEvent{a, b} {
		select {
		case ev := <-ch:
			assert.Equal(t, "ORD-FEED2345", ev.ReferenceNumber)
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestOrderFeedDropsClientOnCancel(t *testing.T) {
	feed := NewOrderFeed()
	ctx, cancel := context.WithCancel(context.Background())

	ch := feed.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		require.False(t, ok, "channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
	assert.Equal(t, 0, feed.ClientCount())

	feed.Emit(models.OrderEvent{Type: "order.created"})
}

func TestOrderFeedDoesNotBlockOnSlowClient(t *testing.T) {
	feed := NewOrderFeed()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	feed.Subscribe(ctx)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			feed.Emit(models.OrderEvent{Type: "order.created"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full client buffer")
	}
}
