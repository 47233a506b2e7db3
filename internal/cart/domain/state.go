package domain

import (
	"fmt"
	"time"

	conditiondomain "github.com/smallbiznis/cartsync/internal/condition/domain"
)

// State is the persisted form of a cart. Pending events are not part of it.
type State struct {
	Identifier string                       `json:"identifier"`
	Instance   string                       `json:"instance"`
	Currency   string                       `json:"currency"`
	Items      []Item                       `json:"items"`
	Conditions []*conditiondomain.Condition `json:"conditions"`
	Version    int64                        `json:"version"`
	CreatedAt  time.Time                    `json:"created_at"`
	UpdatedAt  time.Time                    `json:"updated_at"`
	// Totals is set only when the cart was saved with fresh totals.
	Totals *Totals `json:"totals,omitempty"`
}

func (c *Cart) State() State {
	s := State{
		Identifier: c.key.Identifier,
		Instance:   c.key.Instance,
		Currency:   c.currency,
		Items:      c.Items(),
		Conditions: c.Conditions(),
		Version:    c.version,
		CreatedAt:  c.createdAt,
		UpdatedAt:  c.updatedAt,
	}
	if c.totalsValid {
		t := c.totals.clone()
		s.Totals = &t
	}
	return s
}

// Restore rebuilds a cart from its persisted form. Conditions are compiled
// again and items validated, so a tampered record fails instead of pricing.
func Restore(s State) (*Cart, error) {
	key := Key{Identifier: s.Identifier, Instance: s.Instance}
	if err := key.Validate(); err != nil {
		return nil, err
	}

	c := &Cart{
		key:        key,
		currency:   s.Currency,
		items:      make([]*Item, 0, len(s.Items)),
		conditions: make([]*conditiondomain.Condition, 0, len(s.Conditions)),
		version:    s.Version,
		createdAt:  s.CreatedAt,
		updatedAt:  s.UpdatedAt,
	}
	for _, cond := range s.Conditions {
		if err := restoreCondition(cond, conditiondomain.SubtotalPass); err != nil {
			return nil, err
		}
		c.conditions = append(c.conditions, cond.Clone())
	}
	for _, it := range s.Items {
		for _, cond := range it.Conditions {
			if err := restoreCondition(cond, conditiondomain.ItemPass); err != nil {
				return nil, err
			}
		}
		if err := it.validate(); err != nil {
			return nil, err
		}
		cp := it.clone()
		c.items = append(c.items, &cp)
	}
	if s.Totals != nil {
		c.totals = s.Totals.clone()
		c.totalsValid = true
	}
	return c, nil
}

func restoreCondition(cond *conditiondomain.Condition, pass conditiondomain.Pass) error {
	if cond == nil {
		return fmt.Errorf("%w: nil condition", ErrConditionScopeMismatch)
	}
	if err := cond.Compile(); err != nil {
		return err
	}
	return checkScope(cond, pass)
}
