package domain

import "context"

// Repository holds live cart aggregates. Get returns nil, nil when absent.
type Repository interface {
	Get(ctx context.Context, key Key) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	Delete(ctx context.Context, key Key) error
}
