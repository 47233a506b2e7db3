package domain

import (
	"fmt"
	"strings"
	"time"

	conditiondomain "github.com/smallbiznis/cartsync/internal/condition/domain"
)

type pendingEvent func(snapshot *Cart) Event

// Cart is the in-memory cart aggregate. It is not safe for concurrent use;
// callers serialize access per key.
type Cart struct {
	key        Key
	currency   string
	items      []*Item
	conditions []*conditiondomain.Condition
	version    int64
	createdAt  time.Time
	updatedAt  time.Time

	totals      Totals
	totalsValid bool

	pending []pendingEvent
}

// New creates an empty cart and records CartCreated as its first event.
func New(key Key, currency string, now time.Time) (*Cart, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	c := &Cart{
		key:       key,
		currency:  strings.ToUpper(strings.TrimSpace(currency)),
		createdAt: now,
		updatedAt: now,
	}
	c.record(func(s *Cart) Event { return CartCreated{Snapshot{s}} })
	return c, nil
}

func (c *Cart) Key() Key { return c.key }
func (c *Cart) Currency() string { return c.currency }
func (c *Cart) Version() int64 { return c.version }
func (c *Cart) CreatedAt() time.Time { return c.createdAt }
func (c *Cart) UpdatedAt() time.Time { return c.updatedAt }
func (c *Cart) ItemsCount() int { return len(c.items) }
func (c *Cart) IsEmpty() bool { return len(c.items) == 0 && len(c.conditions) == 0 }

// Quantity sums the quantities of all lines.
func (c *Cart) Quantity() int64 {
	var q int64
	for _, it := range c.items {
		q += it.Quantity
	}
	return q
}

// Items returns copies of the lines in insertion order.
func (c *Cart) Items() []Item {
	out := make([]Item, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, it.clone())
	}
	return out
}

func (c *Cart) Item(id string) (Item, bool) {
	if idx := c.itemIndex(id); idx >= 0 {
		return c.items[idx].clone(), true
	}
	return Item{}, false
}

func (c *Cart) HasItem(id string) bool {
	return c.itemIndex(id) >= 0
}

// Conditions returns the cart-level conditions in insertion order.
func (c *Cart) Conditions() []*conditiondomain.Condition {
	return cloneConditions(c.conditions)
}

// Totals returns the cached totals and whether they reflect the current state.
func (c *Cart) Totals() (Totals, bool) {
	if !c.totalsValid {
		return Totals{}, false
	}
	return c.totals.clone(), true
}

// Touch stamps the cart with the time of the last mutation.
func (c *Cart) Touch(now time.Time) {
	c.updatedAt = now
}

// AddItem appends a line. Adding an id that is already present merges into
// the existing line: quantities add up, the incoming name, price and
// attributes win, and incoming conditions replace attached ones by name.
func (c *Cart) AddItem(item Item) error {
	item.ID = strings.TrimSpace(item.ID)
	if err := item.validate(); err != nil {
		return err
	}

	if idx := c.itemIndex(item.ID); idx >= 0 {
		next := c.items[idx].merge(item)
		if err := next.validate(); err != nil {
			return err
		}
		c.items[idx] = &next
		snapshot := next.clone()
		c.mutated(func(s *Cart) Event { return ItemUpdated{Snapshot{s}, snapshot} })
		return nil
	}

	added := item.clone()
	c.items = append(c.items, &added)
	snapshot := added.clone()
	c.mutated(func(s *Cart) Event { return ItemAdded{Snapshot{s}, snapshot} })
	return nil
}

func (c *Cart) UpdateItem(id string, upd ItemUpdate) error {
	idx := c.itemIndex(id)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrItemNotFound, id)
	}
	if upd.Quantity != nil && *upd.Quantity <= 0 {
		return c.RemoveItem(id)
	}

	next := c.items[idx].clone()
	if upd.Name != nil {
		next.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Price != nil {
		next.Price = *upd.Price
	}
	if upd.Quantity != nil {
		next.Quantity = *upd.Quantity
	}
	if upd.Attributes != nil {
		if next.Attributes == nil {
			next.Attributes = map[string]any{}
		}
		for k, v := range upd.Attributes {
			next.Attributes[k] = v
		}
	}
	if err := next.validate(); err != nil {
		return err
	}

	c.items[idx] = &next
	snapshot := next.clone()
	c.mutated(func(s *Cart) Event { return ItemUpdated{Snapshot{s}, snapshot} })
	return nil
}

func (c *Cart) RemoveItem(id string) error {
	idx := c.itemIndex(id)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrItemNotFound, id)
	}
	c.items = append(c.items[:idx], c.items[idx+1:]...)
	c.mutated(func(s *Cart) Event { return ItemRemoved{Snapshot{s}, id} })
	return nil
}

// AddCondition attaches a cart-level condition. A condition with the same
// name replaces the attached one in place.
func (c *Cart) AddCondition(cond *conditiondomain.Condition) error {
	if err := checkScope(cond, conditiondomain.SubtotalPass); err != nil {
		return err
	}

	attached := cond.Clone()
	if idx := conditionIndex(c.conditions, cond.Name); idx >= 0 {
		c.conditions[idx] = attached
	} else {
		c.conditions = append(c.conditions, attached)
	}
	snapshot := attached.Clone()
	c.mutated(func(s *Cart) Event { return CartConditionAdded{Snapshot{s}, snapshot} })
	return nil
}

func (c *Cart) RemoveCondition(name string) error {
	idx := conditionIndex(c.conditions, name)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrConditionNotFound, name)
	}
	c.conditions = append(c.conditions[:idx], c.conditions[idx+1:]...)
	c.mutated(func(s *Cart) Event { return CartConditionRemoved{Snapshot{s}, name} })
	return nil
}

func (c *Cart) AddItemCondition(itemID string, cond *conditiondomain.Condition) error {
	idx := c.itemIndex(itemID)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrItemNotFound, itemID)
	}
	if err := checkScope(cond, conditiondomain.ItemPass); err != nil {
		return err
	}

	item := c.items[idx]
	attached := cond.Clone()
	if ci := item.conditionIndex(cond.Name); ci >= 0 {
		item.Conditions[ci] = attached
	} else {
		item.Conditions = append(item.Conditions, attached)
	}
	snapshot := attached.Clone()
	c.mutated(func(s *Cart) Event { return ItemConditionAdded{Snapshot{s}, itemID, snapshot} })
	return nil
}

func (c *Cart) RemoveItemCondition(itemID, name string) error {
	idx := c.itemIndex(itemID)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrItemNotFound, itemID)
	}
	item := c.items[idx]
	ci := item.conditionIndex(name)
	if ci < 0 {
		return fmt.Errorf("%w: %q on item %q", ErrConditionNotFound, name, itemID)
	}
	item.Conditions = append(item.Conditions[:ci], item.Conditions[ci+1:]...)
	c.mutated(func(s *Cart) Event { return ItemConditionRemoved{Snapshot{s}, itemID, name} })
	return nil
}

// Clear drops every item and cart condition. The cart itself stays.
func (c *Cart) Clear() {
	c.items = nil
	c.conditions = nil
	c.mutated(func(s *Cart) Event { return CartCleared{Snapshot{s}} })
}

// Reprice recomputes the totals from the current items, the attached
// conditions and the given global conditions.
func (c *Cart) Reprice(globals []*conditiondomain.Condition, eval conditiondomain.RuleEvaluator) Totals {
	t := Totals{
		ItemsCount: len(c.items),
		Items:      make([]ItemTotal, 0, len(c.items)),
		Breakdown:  conditiondomain.Breakdown{},
	}
	for _, it := range c.items {
		t.Gross = conditiondomain.AddAmounts(t.Gross, it.Subtotal())
		t.Quantity += it.Quantity
	}

	for _, it := range c.items {
		facts := c.facts(t.Gross, t.Quantity)
		facts["item"] = itemFacts(it)

		res := conditiondomain.ApplyAll(
			conditiondomain.Candidates(it.Conditions, globals),
			conditiondomain.ItemPass,
			it.Subtotal(),
			eval,
			facts,
		)
		t.Items = append(t.Items, ItemTotal{
			ItemID:    it.ID,
			Subtotal:  it.Subtotal(),
			Total:     res.Amount,
			Breakdown: res.Breakdown,
		})
		t.Subtotal = conditiondomain.AddAmounts(t.Subtotal, res.Amount)
		t.Savings = conditiondomain.AddAmounts(t.Savings, savings(res.Breakdown))
	}

	candidates := conditiondomain.Candidates(c.conditions, globals)
	facts := c.facts(t.Subtotal, t.Quantity)
	sub := conditiondomain.ApplyAll(candidates, conditiondomain.SubtotalPass, t.Subtotal, eval, facts)
	grand := conditiondomain.ApplyAll(candidates, conditiondomain.GrandTotalPass, sub.Amount, eval, facts)

	t.Total = grand.Amount
	t.Breakdown = sub.Breakdown.Merge(grand.Breakdown)
	t.Savings = conditiondomain.AddAmounts(t.Savings, savings(t.Breakdown))

	c.totals = t
	c.totalsValid = true
	return t.clone()
}

// PullEvents returns and clears the events recorded since the last pull.
// Every returned event carries the same snapshot of the current state, so
// the totals must have been recomputed after the last mutation.
func (c *Cart) PullEvents() ([]Event, error) {
	if len(c.pending) == 0 {
		return nil, nil
	}
	if !c.totalsValid {
		return nil, ErrTotalsStale
	}

	snapshot := c.Clone()
	events := make([]Event, 0, len(c.pending))
	for _, build := range c.pending {
		events = append(events, build(snapshot))
	}
	c.pending = nil
	return events, nil
}

// Clone returns a deep copy without pending events.
func (c *Cart) Clone() *Cart {
	out := &Cart{
		key:         c.key,
		currency:    c.currency,
		items:       make([]*Item, 0, len(c.items)),
		conditions:  cloneConditions(c.conditions),
		version:     c.version,
		createdAt:   c.createdAt,
		updatedAt:   c.updatedAt,
		totalsValid: c.totalsValid,
	}
	for _, it := range c.items {
		cp := it.clone()
		out.items = append(out.items, &cp)
	}
	if c.totalsValid {
		out.totals = c.totals.clone()
	}
	return out
}

func (c *Cart) mutated(ev pendingEvent) {
	c.version++
	c.totalsValid = false
	c.record(ev)
}

func (c *Cart) record(ev pendingEvent) {
	c.pending = append(c.pending, ev)
}

func (c *Cart) itemIndex(id string) int {
	for idx, it := range c.items {
		if it.ID == id {
			return idx
		}
	}
	return -1
}

// facts is the rule evaluation context for the cart. subtotal is the
// amount the current pass folds over.
func (c *Cart) facts(subtotal, quantity int64) conditiondomain.Facts {
	return conditiondomain.Facts{
		"cart": map[string]any{
			"identifier":  c.key.Identifier,
			"instance":    c.key.Instance,
			"currency":    c.currency,
			"subtotal":    subtotal,
			"quantity":    quantity,
			"items_count": len(c.items),
		},
	}
}

func itemFacts(it *Item) map[string]any {
	attrs := map[string]any{}
	for k, v := range it.Attributes {
		attrs[k] = v
	}
	return map[string]any{
		"id":         it.ID,
		"name":       it.Name,
		"price":      it.Price,
		"quantity":   it.Quantity,
		"subtotal":   it.Subtotal(),
		"attributes": attrs,
	}
}

func conditionIndex(list []*conditiondomain.Condition, name string) int {
	for idx, c := range list {
		if c.Name == name {
			return idx
		}
	}
	return -1
}
