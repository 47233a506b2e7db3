package domain

import (
	"context"

	conditiondomain "github.com/smallbiznis/cartsync/internal/condition/domain"
)

// Service mutates carts one key at a time. Every mutating call reprices the
// cart and publishes the resulting events before it returns.
type Service interface {
	Get(ctx context.Context, key Key) (*Cart, error)
	Add(ctx context.Context, key Key, item Item) (*Cart, error)
	Update(ctx context.Context, key Key, itemID string, upd ItemUpdate) (*Cart, error)
	Remove(ctx context.Context, key Key, itemID string) (*Cart, error)
	AddCondition(ctx context.Context, key Key, cond *conditiondomain.Condition) (*Cart, error)
	AddConditionByName(ctx context.Context, key Key, name string) (*Cart, error)
	RemoveCondition(ctx context.Context, key Key, name string) (*Cart, error)
	AddItemCondition(ctx context.Context, key Key, itemID string, cond *conditiondomain.Condition) (*Cart, error)
	RemoveItemCondition(ctx context.Context, key Key, itemID, name string) (*Cart, error)
	Clear(ctx context.Context, key Key) (*Cart, error)
	Destroy(ctx context.Context, key Key) error
}

// Handler consumes published cart events.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Publisher delivers events to subscribed handlers in order.
type Publisher interface {
	Subscribe(h Handler)
	Publish(ctx context.Context, events ...Event) error
}
