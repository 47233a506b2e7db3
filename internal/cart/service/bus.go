package service

import (
	"context"
	"sync"

	cartdomain "github.com/smallbiznis/cartsync/internal/cart/domain"
)

// Bus is a synchronous publisher. Handlers run in subscription order for
// each event, and the first handler error stops delivery and is returned
// as is.
type Bus struct {
	mu       sync.RWMutex
	handlers []cartdomain.Handler
}

func NewBus() *Bus {
	return &Bus{}
}

var _ cartdomain.Publisher = (*Bus)(nil)

func (b *Bus) Subscribe(h cartdomain.Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.handlers = append(b.handlers, h)
	b.mu.Unlock()
}

func (b *Bus) Publish(ctx context.Context, events ...cartdomain.Event) error {
	b.mu.RLock()
	handlers := append([]cartdomain.Handler(nil), b.handlers...)
	b.mu.RUnlock()

	for _, ev := range events {
		for _, h := range handlers {
			if err := h.Handle(ctx, ev); err != nil {
				return err
			}
		}
	}
	return nil
}
