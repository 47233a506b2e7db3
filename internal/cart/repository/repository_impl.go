package repository

import (
	"context"
	"sync"

	cartdomain "github.com/smallbiznis/cartsync/internal/cart/domain"
)

type repository struct {
	mu    sync.RWMutex
	carts map[cartdomain.Key]*cartdomain.Cart
}

// NewRepository returns a process-local cart store. Stored carts are copied
// on the way in and out so callers never share state with the store.
func NewRepository() cartdomain.Repository {
	return &repository{carts: make(map[cartdomain.Key]*cartdomain.Cart)}
}

func (r *repository) Get(ctx context.Context, key cartdomain.Key) (*cartdomain.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.carts[key]
	if !ok {
		return nil, nil
	}
	return c.Clone(), nil
}

func (r *repository) Save(ctx context.Context, cart *cartdomain.Cart) error {
	r.mu.Lock()
	r.carts[cart.Key()] = cart.Clone()
	r.mu.Unlock()
	return nil
}

func (r *repository) Delete(ctx context.Context, key cartdomain.Key) error {
	r.mu.Lock()
	delete(r.carts, key)
	r.mu.Unlock()
	return nil
}
