package domain

import (
	"fmt"
	"strings"

	conditiondomain "github.com/smallbiznis/cartsync/internal/condition/domain"
)

// Item is a cart line. Price is per unit in minor units.
type Item struct {
	ID         string                       `json:"id"`
	Name       string                       `json:"name"`
	Price      int64                        `json:"price"`
	Quantity   int64                        `json:"quantity"`
	Attributes map[string]any               `json:"attributes,omitempty"`
	Conditions []*conditiondomain.Condition `json:"conditions,omitempty"`
}

// ItemUpdate carries the fields to change on an existing line.
// A Quantity of zero or less removes the line.
type ItemUpdate struct {
	Name       *string
	Price      *int64
	Quantity   *int64
	Attributes map[string]any
}

func (i Item) Subtotal() int64 {
	return i.Price * i.Quantity
}

func (i Item) validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidItem)
	}
	if strings.TrimSpace(i.Name) == "" {
		return fmt.Errorf("%w: name is required for %q", ErrInvalidItem, i.ID)
	}
	if i.Price < 0 {
		return fmt.Errorf("%w: negative price for %q", ErrInvalidItem, i.ID)
	}
	if i.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive for %q", ErrInvalidItem, i.ID)
	}
	if i.Quantity > conditiondomain.MaxAmount || (i.Price > 0 && i.Quantity > conditiondomain.MaxAmount/i.Price) {
		return fmt.Errorf("%w: subtotal of %q exceeds %d", ErrInvalidItem, i.ID, conditiondomain.MaxAmount)
	}
	for _, c := range i.Conditions {
		if err := checkScope(c, conditiondomain.ItemPass); err != nil {
			return err
		}
	}
	return nil
}

func (i Item) clone() Item {
	out := i
	if i.Attributes != nil {
		out.Attributes = make(map[string]any, len(i.Attributes))
		for k, v := range i.Attributes {
			out.Attributes[k] = v
		}
	}
	out.Conditions = cloneConditions(i.Conditions)
	return out
}

// merge folds an incoming add of the same id into a copy of i.
func (i Item) merge(in Item) Item {
	out := i.clone()
	out.Name = in.Name
	out.Price = in.Price
	out.Quantity += in.Quantity
	if len(in.Attributes) > 0 && out.Attributes == nil {
		out.Attributes = make(map[string]any, len(in.Attributes))
	}
	for k, v := range in.Attributes {
		out.Attributes[k] = v
	}
	for _, c := range in.Conditions {
		attached := c.Clone()
		if ci := out.conditionIndex(c.Name); ci >= 0 {
			out.Conditions[ci] = attached
		} else {
			out.Conditions = append(out.Conditions, attached)
		}
	}
	return out
}

func (i *Item) conditionIndex(name string) int {
	for idx, c := range i.Conditions {
		if c.Name == name {
			return idx
		}
	}
	return -1
}

func cloneConditions(in []*conditiondomain.Condition) []*conditiondomain.Condition {
	if in == nil {
		return nil
	}
	out := make([]*conditiondomain.Condition, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}

func checkScope(c *conditiondomain.Condition, pass conditiondomain.Pass) error {
	if c == nil {
		return fmt.Errorf("%w: nil condition", ErrConditionScopeMismatch)
	}
	if !c.Compiled() {
		if err := c.Compile(); err != nil {
			return err
		}
	}
	t := c.ParsedTarget()
	if t.Scope != pass.Scope || t.Mode != pass.Mode {
		return fmt.Errorf("%w: %q targets %s", ErrConditionScopeMismatch, c.Name, t)
	}
	return nil
}
