package domain

import (
	"math"

	conditiondomain "github.com/smallbiznis/cartsync/internal/condition/domain"
)

// ItemTotal is the priced state of one line.
type ItemTotal struct {
	ItemID    string
	Subtotal  int64
	Total     int64
	Breakdown conditiondomain.Breakdown
}

// Totals is the derived view of a cart. It is never a source of truth: it is
// recomputed by Reprice and discarded on every mutation.
type Totals struct {
	// Gross is the sum of price x quantity before any condition.
	Gross int64
	// Subtotal is the sum of item totals after per-item conditions.
	Subtotal int64
	// Total is the grand total after cart conditions.
	Total      int64
	Quantity   int64
	ItemsCount int
	Items      []ItemTotal
	Breakdown  conditiondomain.Breakdown
	Savings    int64
}

func (t Totals) Item(id string) (ItemTotal, bool) {
	for _, it := range t.Items {
		if it.ItemID == id {
			return it, true
		}
	}
	return ItemTotal{}, false
}

func (t Totals) clone() Totals {
	out := t
	out.Items = make([]ItemTotal, len(t.Items))
	for i, it := range t.Items {
		it.Breakdown = append(conditiondomain.Breakdown{}, it.Breakdown...)
		out.Items[i] = it
	}
	out.Breakdown = append(conditiondomain.Breakdown{}, t.Breakdown...)
	return out
}

func savings(b conditiondomain.Breakdown) int64 {
	var s int64
	for _, adj := range b {
		if adj.Delta < 0 {
			s = conditiondomain.AddAmounts(s, -max(adj.Delta, -math.MaxInt64))
		}
	}
	return s
}
