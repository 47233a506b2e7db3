package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func cond(name, target, value string, order int) *Condition {
	return MustNew(Params{
		Name:     name,
		Type:     TypeFee,
		Target:   target,
		Value:    value,
		Order:    order,
		IsActive: true,
	})
}

const cartSubtotal = "cart@cart_subtotal/aggregate"

func TestApplyAllEmptyIsIdentity(t *testing.T) {
	res := ApplyAll(nil, SubtotalPass, 1234, nil, nil)
	assert.Equal(t, int64(1234), res.Amount)
	assert.Empty(t, res.Breakdown)
}

func TestApplyAllCompoundsInOrder(t *testing.T) {
	// Registered out of order: the fold must follow Order.
	conditions := []*Condition{
		cond("c2", cartSubtotal, "-10%", 2),
		cond("c1", cartSubtotal, "+500", 1),
	}

	res := ApplyAll(conditions, SubtotalPass, 1000, nil, nil)

	assert.Equal(t, int64(1350), res.Amount)
	assert.Equal(t, Breakdown{
		{Name: "c1", Type: TypeFee, Value: "+500", Delta: 500},
		{Name: "c2", Type: TypeFee, Value: "-10%", Delta: -150},
	}, res.Breakdown)
}

func TestApplyAllTiesKeepRegistrationOrder(t *testing.T) {
	// Same order: fee first then percentage gives a different amount than the reverse.
	feeFirst := ApplyAll([]*Condition{
		cond("fee", cartSubtotal, "+100", 0),
		cond("pct", cartSubtotal, "+50%", 0),
	}, SubtotalPass, 100, nil, nil)
	pctFirst := ApplyAll([]*Condition{
		cond("pct", cartSubtotal, "+50%", 0),
		cond("fee", cartSubtotal, "+100", 0),
	}, SubtotalPass, 100, nil, nil)

	assert.Equal(t, int64(300), feeFirst.Amount)
	assert.Equal(t, int64(250), pctFirst.Amount)
	assert.Equal(t, "fee", feeFirst.Breakdown[0].Name)
	assert.Equal(t, "pct", pctFirst.Breakdown[0].Name)
}

func TestApplyAllFiltersByPass(t *testing.T) {
	conditions := []*Condition{
		cond("subtotal_fee", cartSubtotal, "+100", 0),
		cond("grand_fee", "cart@grand_total/aggregate", "+7", 0),
		cond("item_off", "items@item_discount/per-item", "-10%", 0),
	}

	sub := ApplyAll(conditions, SubtotalPass, 1000, nil, nil)
	assert.Equal(t, int64(1100), sub.Amount)
	assert.Len(t, sub.Breakdown, 1)

	grand := ApplyAll(conditions, GrandTotalPass, 1100, nil, nil)
	assert.Equal(t, int64(1107), grand.Amount)

	item := ApplyAll(conditions, ItemPass, 200, nil, nil)
	assert.Equal(t, int64(180), item.Amount)
	assert.Equal(t, Breakdown{{Name: "item_off", Type: TypeFee, Value: "-10%", Delta: -20}}, item.Breakdown)
}

func TestApplyAllSkipsInapplicable(t *testing.T) {
	inactive := cond("off", cartSubtotal, "+100", 0)
	inactive.IsActive = false

	gated := MustNew(Params{
		Name:      "gated",
		Type:      TypeDiscount,
		Target:    cartSubtotal,
		Value:     "-50",
		IsActive:  true,
		IsDynamic: true,
		Rules:     Rules{{"==": []any{1, 1}}},
	})

	deny := RuleEvaluatorFunc(func(Rules, Facts) bool { return false })
	res := ApplyAll([]*Condition{inactive, gated}, SubtotalPass, 1000, deny, nil)
	assert.Equal(t, int64(1000), res.Amount)
	assert.Empty(t, res.Breakdown)

	allow := RuleEvaluatorFunc(func(Rules, Facts) bool { return true })
	res = ApplyAll([]*Condition{inactive, gated}, SubtotalPass, 1000, allow, nil)
	assert.Equal(t, int64(950), res.Amount)
}

func TestApplyAllDuplicateNamesBothApply(t *testing.T) {
	conditions := []*Condition{
		cond("dup", cartSubtotal, "+100", 1),
		cond("other", cartSubtotal, "+1", 2),
		cond("dup", cartSubtotal, "+200", 3),
	}

	res := ApplyAll(conditions, SubtotalPass, 0, nil, nil)

	assert.Equal(t, int64(301), res.Amount)
	assert.Equal(t, Breakdown{
		{Name: "dup", Type: TypeFee, Value: "+200", Delta: 200},
		{Name: "other", Type: TypeFee, Value: "+1", Delta: 1},
	}, res.Breakdown)
	assert.Equal(t, int64(201), res.Breakdown.Total())
}

func TestCandidatesKeepsGlobalsAlongsideAttached(t *testing.T) {
	global := cond("vat", cartSubtotal, "+10%", 0)
	global.IsGlobal = true
	notGlobal := cond("stray", cartSubtotal, "+1", 0)
	globalShipping := cond("shipping", cartSubtotal, "+500", 0)
	globalShipping.IsGlobal = true

	attachedShipping := cond("shipping", cartSubtotal, "+300", 0)
	coupon := cond("coupon", cartSubtotal, "-100", 0)

	out := Candidates([]*Condition{attachedShipping, coupon}, []*Condition{global, notGlobal, globalShipping})

	names := make([]string, 0, len(out))
	for _, c := range out {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"vat", "shipping", "shipping", "coupon"}, names)
	assert.Same(t, globalShipping, out[1])
	assert.Same(t, attachedShipping, out[2])
}

func TestSameNamedGlobalAndAttachedBothApply(t *testing.T) {
	global := cond("fee", cartSubtotal, "+100", 0)
	global.IsGlobal = true
	attached := cond("fee", cartSubtotal, "+50", 0)

	res := ApplyAll(Candidates([]*Condition{attached}, []*Condition{global}), SubtotalPass, 1000, nil, nil)

	assert.Equal(t, int64(1150), res.Amount)
	assert.Equal(t, Breakdown{{Name: "fee", Type: TypeFee, Value: "+50", Delta: 50}}, res.Breakdown)
}

func TestBreakdownDelta(t *testing.T) {
	b := Breakdown{{Name: "a", Delta: 5}}
	d, ok := b.Delta("a")
	assert.True(t, ok)
	assert.Equal(t, int64(5), d)
	_, ok = b.Delta("b")
	assert.False(t, ok)
}

func TestBreakdownMerge(t *testing.T) {
	a := Breakdown{{Name: "x", Delta: 1}, {Name: "y", Delta: 2}}
	b := Breakdown{{Name: "y", Delta: 5}, {Name: "z", Delta: 3}}

	merged := a.Merge(b)
	assert.Equal(t, Breakdown{{Name: "x", Delta: 1}, {Name: "y", Delta: 5}, {Name: "z", Delta: 3}}, merged)
	assert.Equal(t, int64(2), a[1].Delta)
}
