package service

import (
	"context"

	cartdomain "github.com/smallbiznis/cartsync/internal/cart/domain"
	cartsyncdomain "github.com/smallbiznis/cartsync/internal/cartsync/domain"
)

// Listener projects cart events onto the sync manager: CartDestroyed deletes
// the snapshot, every other event syncs the cart it carries. It holds no
// state and returns the sync manager's errors unchanged.
type Listener struct {
	sync cartsyncdomain.SyncManager
}

func NewListener(sync cartsyncdomain.SyncManager) *Listener {
	return &Listener{sync: sync}
}

var _ cartdomain.Handler = (*Listener)(nil)

func (l *Listener) Handle(ctx context.Context, event cartdomain.Event) error {
	return event.Accept(projection{ctx: ctx, sync: l.sync})
}

type projection struct {
	ctx  context.Context
	sync cartsyncdomain.SyncManager
}

var _ cartdomain.Visitor = projection{}

func (p projection) VisitCartDestroyed(e cartdomain.CartDestroyed) error {
	return p.sync.DeleteByIdentity(p.ctx, e.Instance, e.Identifier)
}

func (p projection) VisitCartCreated(e cartdomain.CartCreated) error {
	return p.sync.Sync(p.ctx, e.Cart)
}

func (p projection) VisitCartCleared(e cartdomain.CartCleared) error {
	return p.sync.Sync(p.ctx, e.Cart)
}

func (p projection) VisitItemAdded(e cartdomain.ItemAdded) error {
	return p.sync.Sync(p.ctx, e.Cart)
}

func (p projection) VisitItemUpdated(e cartdomain.ItemUpdated) error {
	return p.sync.Sync(p.ctx, e.Cart)
}

func (p projection) VisitItemRemoved(e cartdomain.ItemRemoved) error {
	return p.sync.Sync(p.ctx, e.Cart)
}

func (p projection) VisitCartConditionAdded(e cartdomain.CartConditionAdded) error {
	return p.sync.Sync(p.ctx, e.Cart)
}

func (p projection) VisitCartConditionRemoved(e cartdomain.CartConditionRemoved) error {
	return p.sync.Sync(p.ctx, e.Cart)
}

func (p projection) VisitItemConditionAdded(e cartdomain.ItemConditionAdded) error {
	return p.sync.Sync(p.ctx, e.Cart)
}

func (p projection) VisitItemConditionRemoved(e cartdomain.ItemConditionRemoved) error {
	return p.sync.Sync(p.ctx, e.Cart)
}
