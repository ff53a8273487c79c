package sse

import (
	"context"
	"sync"

	"etickets/internal/models"
)

// OrderFeed fans order lifecycle events out to connected admin dashboards.
type OrderFeed struct {
	mu      sync.RWMutex
	clients map[chan models.OrderEvent]struct{}
}

func NewOrderFeed() *OrderFeed {
	return &OrderFeed{clients: make(map[chan models.OrderEvent]struct{})}
}

// Subscribe registers a client until ctx is done, then closes its channel.
func (f *OrderFeed) Subscribe(ctx context.Context) <-chan models.OrderEvent {
	ch := make(chan models.OrderEvent, 10)

	f.mu.Lock()
	f.clients[ch] = struct{}{}
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.clients, ch)
		close(ch)
		f.mu.Unlock()
	}()

	return ch
}

// Emit never blocks; a client with a full buffer misses the event.
func (f *OrderFeed) Emit(event models.OrderEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for ch := range f.clients {
		select {
		case ch <- event:
		default:
		}
	}
}

func (f *OrderFeed) ClientCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}
