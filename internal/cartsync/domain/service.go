package domain

import (
	"context"

	cartdomain "github.com/smallbiznis/cartsync/internal/cart/domain"
)

// SyncManager keeps the normalized snapshot of a cart consistent with the
// live aggregate. Sync is idempotent for an unchanged cart and
// DeleteByIdentity is a no-op when no snapshot exists.
type SyncManager interface {
	Sync(ctx context.Context, cart *cartdomain.Cart) error
	DeleteByIdentity(ctx context.Context, instance, identifier string) error
	Find(ctx context.Context, instance, identifier string) (*Stored, error)
}
