package domain

import "sort"

// Pass selects which conditions take part in one fold.
// Keys, when set, restricts the pass to targets with one of those keys;
// ExcludeKeys drops targets with any of those keys.
type Pass struct {
	Scope       Scope
	Mode        Mode
	Keys        []string
	ExcludeKeys []string
}

var (
	// ItemPass folds per-item conditions over one line item.
	ItemPass = Pass{Scope: ScopeItems, Mode: ModePerItem}
	// SubtotalPass folds cart conditions over the items subtotal.
	SubtotalPass = Pass{Scope: ScopeCart, Mode: ModeAggregate, ExcludeKeys: []string{KeyGrandTotal}}
	// GrandTotalPass folds cart conditions targeting the grand total.
	GrandTotalPass = Pass{Scope: ScopeCart, Mode: ModeAggregate, Keys: []string{KeyGrandTotal}}
)

func (p Pass) matches(t Target) bool {
	if t.Scope != p.Scope || t.Mode != p.Mode {
		return false
	}
	for _, k := range p.ExcludeKeys {
		if t.Key == k {
			return false
		}
	}
	if len(p.Keys) == 0 {
		return true
	}
	for _, k := range p.Keys {
		if t.Key == k {
			return true
		}
	}
	return false
}

// Adjustment is one condition's contribution to a fold.
type Adjustment struct {
	Name  string        `json:"name"`
	Type  ConditionType `json:"type"`
	Value string        `json:"value"`
	Delta int64         `json:"delta"`
}

// Breakdown is an ordered name -> delta record of a fold.
// A repeated name overwrites the earlier entry's delta in place.
type Breakdown []Adjustment

func (b Breakdown) Delta(name string) (int64, bool) {
	for _, adj := range b {
		if adj.Name == name {
			return adj.Delta, true
		}
	}
	return 0, false
}

// Total sums all recorded deltas.
func (b Breakdown) Total() int64 {
	var total int64
	for _, adj := range b {
		total += adj.Delta
	}
	return total
}

func (b Breakdown) set(adj Adjustment) Breakdown {
	for i := range b {
		if b[i].Name == adj.Name {
			b[i] = adj
			return b
		}
	}
	return append(b, adj)
}

// Merge folds other into b with the same overwrite-in-place rule.
func (b Breakdown) Merge(other Breakdown) Breakdown {
	out := append(Breakdown{}, b...)
	for _, adj := range other {
		out = out.set(adj)
	}
	return out
}

// Result is the outcome of folding a condition set over an amount.
type Result struct {
	Amount    int64
	Breakdown Breakdown
}

// ApplyAll filters conditions to the pass and the applicable ones, orders
// them by Order (stable on input order) and folds them over amount.
// Each condition sees the running amount left by the previous one.
func ApplyAll(conditions []*Condition, pass Pass, amount int64, eval RuleEvaluator, facts Facts) Result {
	selected := make([]*Condition, 0, len(conditions))
	for _, c := range conditions {
		if c == nil || !pass.matches(c.ParsedTarget()) {
			continue
		}
		if !c.IsApplicable(eval, facts) {
			continue
		}
		selected = append(selected, c)
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Order < selected[j].Order
	})

	res := Result{Amount: amount, Breakdown: Breakdown{}}
	for _, c := range selected {
		var delta int64
		res.Amount, delta = c.Apply(res.Amount)
		res.Breakdown = res.Breakdown.set(Adjustment{
			Name:  c.Name,
			Type:  c.Type,
			Value: c.Value,
			Delta: delta,
		})
	}
	return res
}

// Candidates assembles the conditions considered for a cart or item:
// global conditions first, then explicitly attached ones. A global and an
// attached condition sharing a name are both kept; ApplyAll applies both
// and the later one owns the breakdown entry.
func Candidates(attached, globals []*Condition) []*Condition {
	out := make([]*Condition, 0, len(attached)+len(globals))
	for _, g := range globals {
		if g == nil || !g.IsGlobal {
			continue
		}
		out = append(out, g)
	}
	return append(out, attached...)
}
