package domain

import conditiondomain "github.com/smallbiznis/cartsync/internal/condition/domain"

type Kind string

const (
	KindCartCreated          Kind = "cart.created"
	KindCartCleared          Kind = "cart.cleared"
	KindCartDestroyed        Kind = "cart.destroyed"
	KindItemAdded            Kind = "cart.item_added"
	KindItemUpdated          Kind = "cart.item_updated"
	KindItemRemoved          Kind = "cart.item_removed"
	KindCartConditionAdded   Kind = "cart.condition_added"
	KindCartConditionRemoved Kind = "cart.condition_removed"
	KindItemConditionAdded   Kind = "cart.item_condition_added"
	KindItemConditionRemoved Kind = "cart.item_condition_removed"
)

// Event is a cart lifecycle event. The set of kinds is closed: handlers
// implement Visitor, which has one method per kind.
type Event interface {
	Kind() Kind
	Key() Key
	Accept(v Visitor) error
}

type Visitor interface {
	VisitCartCreated(e CartCreated) error
	VisitCartCleared(e CartCleared) error
	VisitCartDestroyed(e CartDestroyed) error
	VisitItemAdded(e ItemAdded) error
	VisitItemUpdated(e ItemUpdated) error
	VisitItemRemoved(e ItemRemoved) error
	VisitCartConditionAdded(e CartConditionAdded) error
	VisitCartConditionRemoved(e CartConditionRemoved) error
	VisitItemConditionAdded(e ItemConditionAdded) error
	VisitItemConditionRemoved(e ItemConditionRemoved) error
}

// Snapshot is embedded by every event that carries the post-mutation cart.
// All events pulled from one mutation share the same snapshot.
type Snapshot struct {
	Cart *Cart
}

func (s Snapshot) Key() Key { return s.Cart.Key() }

type CartCreated struct{ Snapshot }

func (CartCreated) Kind() Kind { return KindCartCreated }
func (e CartCreated) Accept(v Visitor) error { return v.VisitCartCreated(e) }

type CartCleared struct{ Snapshot }

func (CartCleared) Kind() Kind { return KindCartCleared }
func (e CartCleared) Accept(v Visitor) error { return v.VisitCartCleared(e) }

// CartDestroyed carries only the identity: the cart no longer exists.
type CartDestroyed struct {
	Instance   string
	Identifier string
}

func NewCartDestroyed(k Key) CartDestroyed {
	return CartDestroyed{Instance: k.Instance, Identifier: k.Identifier}
}

func (CartDestroyed) Kind() Kind { return KindCartDestroyed }
func (e CartDestroyed) Key() Key { return Key{Identifier: e.Identifier, Instance: e.Instance} }
func (e CartDestroyed) Accept(v Visitor) error { return v.VisitCartDestroyed(e) }

type ItemAdded struct {
	Snapshot
	Item Item
}

func (ItemAdded) Kind() Kind { return KindItemAdded }
func (e ItemAdded) Accept(v Visitor) error { return v.VisitItemAdded(e) }

type ItemUpdated struct {
	Snapshot
	Item Item
}

func (ItemUpdated) Kind() Kind { return KindItemUpdated }
func (e ItemUpdated) Accept(v Visitor) error { return v.VisitItemUpdated(e) }

type ItemRemoved struct {
	Snapshot
	ItemID string
}

func (ItemRemoved) Kind() Kind { return KindItemRemoved }
func (e ItemRemoved) Accept(v Visitor) error { return v.VisitItemRemoved(e) }

type CartConditionAdded struct {
	Snapshot
	Condition *conditiondomain.Condition
}

func (CartConditionAdded) Kind() Kind { return KindCartConditionAdded }
func (e CartConditionAdded) Accept(v Visitor) error { return v.VisitCartConditionAdded(e) }

type CartConditionRemoved struct {
	Snapshot
	Name string
}

func (CartConditionRemoved) Kind() Kind { return KindCartConditionRemoved }
func (e CartConditionRemoved) Accept(v Visitor) error { return v.VisitCartConditionRemoved(e) }

type ItemConditionAdded struct {
	Snapshot
	ItemID    string
	Condition *conditiondomain.Condition
}

func (ItemConditionAdded) Kind() Kind { return KindItemConditionAdded }
func (e ItemConditionAdded) Accept(v Visitor) error { return v.VisitItemConditionAdded(e) }

type ItemConditionRemoved struct {
	Snapshot
	ItemID string
	Name   string
}

func (ItemConditionRemoved) Kind() Kind { return KindItemConditionRemoved }
func (e ItemConditionRemoved) Accept(v Visitor) error { return v.VisitItemConditionRemoved(e) }

var (
	_ Event = CartCreated{}
	_ Event = CartCleared{}
	_ Event = CartDestroyed{}
	_ Event = ItemAdded{}
	_ Event = ItemUpdated{}
	_ Event = ItemRemoved{}
	_ Event = CartConditionAdded{}
	_ Event = CartConditionRemoved{}
	_ Event = ItemConditionAdded{}
	_ Event = ItemConditionRemoved{}
)
