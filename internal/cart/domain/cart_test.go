package domain

import (
	"testing"
	"time"

	conditiondomain "github.com/smallbiznis/cartsync/internal/condition/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)

func newCart(t *testing.T) *Cart {
	t.Helper()
	c, err := New(Key{Identifier: "user:42", Instance: "default"}, "usd", now)
	require.NoError(t, err)
	return c
}

func condition(name, target, value string, order int) *conditiondomain.Condition {
	return conditiondomain.MustNew(conditiondomain.Params{
		Name:     name,
		Type:     conditiondomain.TypeDiscount,
		Target:   target,
		Value:    value,
		Order:    order,
		IsActive: true,
	})
}

func kinds(events []Event) []Kind {
	out := make([]Kind, 0, len(events))
	for _, e := range events {
		out = append(out, e.Kind())
	}
	return out
}

func TestNewRejectsInvalidKey(t *testing.T) {
	_, err := New(Key{Identifier: "", Instance: "default"}, "USD", now)
	assert.ErrorIs(t, err, ErrInvalidIdentity)
}

func TestFirstMutationEmitsCreatedThenItemAdded(t *testing.T) {
	c := newCart(t)
	require.NoError(t, c.AddItem(Item{ID: "sku-1", Name: "Mug", Price: 1500, Quantity: 2}))
	c.Reprice(nil, nil)

	events, err := c.PullEvents()
	require.NoError(t, err)
	assert.Equal(t, []Kind{KindCartCreated, KindItemAdded}, kinds(events))

	added := events[1].(ItemAdded)
	assert.Equal(t, "sku-1", added.Item.ID)
	assert.Same(t, events[0].(CartCreated).Cart, added.Cart)

	totals, ok := added.Cart.Totals()
	require.True(t, ok)
	assert.Equal(t, int64(3000), totals.Total)

	again, err := c.PullEvents()
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestPullEventsRequiresFreshTotals(t *testing.T) {
	c := newCart(t)
	require.NoError(t, c.AddItem(Item{ID: "sku-1", Name: "Mug", Price: 1500, Quantity: 1}))

	_, ok := c.Totals()
	assert.False(t, ok)
	_, err := c.PullEvents()
	assert.ErrorIs(t, err, ErrTotalsStale)

	c.Reprice(nil, nil)
	_, err = c.PullEvents()
	require.NoError(t, err)
}

func TestAddExistingItemMergesQuantity(t *testing.T) {
	c := newCart(t)
	require.NoError(t, c.AddItem(Item{ID: "sku-1", Name: "Mug", Price: 1500, Quantity: 1}))
	require.NoError(t, c.AddItem(Item{ID: "sku-1", Name: "Mug", Price: 1500, Quantity: 3}))
	c.Reprice(nil, nil)

	events, err := c.PullEvents()
	require.NoError(t, err)
	assert.Equal(t, []Kind{KindCartCreated, KindItemAdded, KindItemUpdated}, kinds(events))

	item, ok := c.Item("sku-1")
	require.True(t, ok)
	assert.Equal(t, int64(4), item.Quantity)
	assert.Equal(t, int64(4), events[2].(ItemUpdated).Item.Quantity)
	assert.Equal(t, 1, c.ItemsCount())
}

func TestAddExistingItemTakesIncomingFieldsAndConditions(t *testing.T) {
	c := newCart(t)
	require.NoError(t, c.AddItem(Item{
		ID: "a", Name: "Mug", Price: 1000, Quantity: 1,
		Attributes: map[string]any{"color": "red", "size": "m"},
		Conditions: []*conditiondomain.Condition{condition("gift", "items@item_discount/per-item", "-100", 0)},
	}))
	require.NoError(t, c.AddItem(Item{
		ID: "a", Name: "Mug XL", Price: 2000, Quantity: 1,
		Attributes: map[string]any{"color": "blue"},
		Conditions: []*conditiondomain.Condition{
			condition("off", "items@item_discount/per-item", "-10%", 0),
			condition("gift", "items@item_discount/per-item", "-50", 1),
		},
	}))
	totals := c.Reprice(nil, nil)

	item, ok := c.Item("a")
	require.True(t, ok)
	assert.Equal(t, "Mug XL", item.Name)
	assert.Equal(t, int64(2000), item.Price)
	assert.Equal(t, int64(2), item.Quantity)
	assert.Equal(t, map[string]any{"color": "blue", "size": "m"}, item.Attributes)
	require.Len(t, item.Conditions, 2)
	assert.Equal(t, "gift", item.Conditions[0].Name)
	assert.Equal(t, "-50", item.Conditions[0].Value)
	assert.Equal(t, "off", item.Conditions[1].Name)

	// 4000 -10% = 3600, then -50 = 3550
	assert.Equal(t, int64(3550), totals.Total)
}

func TestAddExistingItemRejectsBadIncomingCondition(t *testing.T) {
	c := newCart(t)
	require.NoError(t, c.AddItem(Item{ID: "a", Name: "Mug", Price: 1000, Quantity: 1}))
	err := c.AddItem(Item{
		ID: "a", Name: "Mug", Price: 1000, Quantity: 1,
		Conditions: []*conditiondomain.Condition{condition("x", "cart@cart_subtotal/aggregate", "-1", 0)},
	})
	assert.ErrorIs(t, err, ErrConditionScopeMismatch)

	item, _ := c.Item("a")
	assert.Equal(t, int64(1), item.Quantity)
	assert.Empty(t, item.Conditions)
}

func TestAddItemRejectsSubtotalOverflow(t *testing.T) {
	c := newCart(t)
	err := c.AddItem(Item{ID: "a", Name: "Mug", Price: 1 << 40, Quantity: 1 << 40})
	assert.ErrorIs(t, err, ErrInvalidItem)

	err = c.AddItem(Item{ID: "b", Name: "Mug", Price: conditiondomain.MaxAmount + 1, Quantity: 1})
	assert.ErrorIs(t, err, ErrInvalidItem)

	require.NoError(t, c.AddItem(Item{ID: "c", Name: "Mug", Price: conditiondomain.MaxAmount / 2, Quantity: 2}))
	err = c.AddItem(Item{ID: "c", Name: "Mug", Price: conditiondomain.MaxAmount / 2, Quantity: 1})
	assert.ErrorIs(t, err, ErrInvalidItem)

	item, _ := c.Item("c")
	assert.Equal(t, int64(2), item.Quantity)
}

func TestAddItemValidation(t *testing.T) {
	c := newCart(t)
	assert.ErrorIs(t, c.AddItem(Item{Name: "Mug", Price: 1, Quantity: 1}), ErrInvalidItem)
	assert.ErrorIs(t, c.AddItem(Item{ID: "a", Price: 1, Quantity: 1}), ErrInvalidItem)
	assert.ErrorIs(t, c.AddItem(Item{ID: "a", Name: "Mug", Price: -1, Quantity: 1}), ErrInvalidItem)
	assert.ErrorIs(t, c.AddItem(Item{ID: "a", Name: "Mug", Price: 1, Quantity: 0}), ErrInvalidItem)
	assert.ErrorIs(t, c.AddItem(Item{
		ID: "a", Name: "Mug", Price: 1, Quantity: 1,
		Conditions: []*conditiondomain.Condition{condition("x", "cart@cart_subtotal/aggregate", "-1", 0)},
	}), ErrConditionScopeMismatch)
	assert.Equal(t, int64(0), c.Version())
}

func TestUpdateItem(t *testing.T) {
	c := newCart(t)
	require.NoError(t, c.AddItem(Item{ID: "sku-1", Name: "Mug", Price: 1500, Quantity: 1}))

	price := int64(1200)
	qty := int64(5)
	require.NoError(t, c.UpdateItem("sku-1", ItemUpdate{Price: &price, Quantity: &qty, Attributes: map[string]any{"color": "red"}}))

	item, _ := c.Item("sku-1")
	assert.Equal(t, int64(1200), item.Price)
	assert.Equal(t, int64(5), item.Quantity)
	assert.Equal(t, "red", item.Attributes["color"])

	zero := int64(0)
	require.NoError(t, c.UpdateItem("sku-1", ItemUpdate{Quantity: &zero}))
	assert.False(t, c.HasItem("sku-1"))

	assert.ErrorIs(t, c.UpdateItem("sku-1", ItemUpdate{Quantity: &qty}), ErrItemNotFound)

	c.Reprice(nil, nil)
	events, err := c.PullEvents()
	require.NoError(t, err)
	assert.Equal(t, []Kind{KindCartCreated, KindItemAdded, KindItemUpdated, KindItemRemoved}, kinds(events))
	assert.Equal(t, "sku-1", events[3].(ItemRemoved).ItemID)
}

func TestRepriceFoldsItemThenSubtotalThenGrandTotal(t *testing.T) {
	c := newCart(t)
	require.NoError(t, c.AddItem(Item{ID: "a", Name: "A", Price: 1000, Quantity: 2}))
	require.NoError(t, c.AddItem(Item{ID: "b", Name: "B", Price: 500, Quantity: 1}))
	require.NoError(t, c.AddItemCondition("a", condition("a-off", "items@item_discount/per-item", "-10%", 0)))
	require.NoError(t, c.AddCondition(condition("coupon", "cart@cart_subtotal/aggregate", "-300", 1)))

	vat := conditiondomain.MustNew(conditiondomain.Params{
		Name: "vat", Type: conditiondomain.TypeTax, Target: "cart@grand_total/aggregate",
		Value: "+10%", IsActive: true, IsGlobal: true,
	})
	memberPrice := conditiondomain.MustNew(conditiondomain.Params{
		Name: "member", Type: conditiondomain.TypeDiscount, Target: "items@item_discount/per-item",
		Value: "-50", IsActive: true, IsGlobal: true,
	})

	totals := c.Reprice([]*conditiondomain.Condition{vat, memberPrice}, nil)

	// a: 2000 -50 (global, first) = 1950, -10% = -195 -> 1755
	// b: 500 -50 = 450
	itemA, ok := totals.Item("a")
	require.True(t, ok)
	assert.Equal(t, int64(2000), itemA.Subtotal)
	assert.Equal(t, int64(1755), itemA.Total)
	assert.Equal(t, conditiondomain.Breakdown{
		{Name: "member", Type: conditiondomain.TypeDiscount, Value: "-50", Delta: -50},
		{Name: "a-off", Type: conditiondomain.TypeDiscount, Value: "-10%", Delta: -195},
	}, itemA.Breakdown)

	assert.Equal(t, int64(2500), totals.Gross)
	assert.Equal(t, int64(2205), totals.Subtotal)
	// 2205 - 300 = 1905, +10% = 190.5 -> 191
	assert.Equal(t, int64(2096), totals.Total)
	assert.Equal(t, int64(3), totals.Quantity)
	assert.Equal(t, 2, totals.ItemsCount)
	assert.Equal(t, int64(50+195+50+300), totals.Savings)

	d, ok := totals.Breakdown.Delta("vat")
	require.True(t, ok)
	assert.Equal(t, int64(191), d)
}

func TestRepriceUsesRuleFacts(t *testing.T) {
	c := newCart(t)
	require.NoError(t, c.AddItem(Item{ID: "a", Name: "A", Price: 1000, Quantity: 3}))

	bulk := conditiondomain.MustNew(conditiondomain.Params{
		Name: "bulk", Type: conditiondomain.TypeDiscount, Target: "cart@cart_subtotal/aggregate",
		Value: "-5%", IsActive: true, IsDynamic: true,
		Rules: conditiondomain.Rules{{">=": []any{map[string]any{"var": "cart.quantity"}, 3}}},
	})
	require.NoError(t, c.AddCondition(bulk))

	var seen conditiondomain.Facts
	eval := conditiondomain.RuleEvaluatorFunc(func(_ conditiondomain.Rules, facts conditiondomain.Facts) bool {
		seen = facts
		cart := facts["cart"].(map[string]any)
		return cart["quantity"].(int64) >= 3
	})

	totals := c.Reprice(nil, eval)
	assert.Equal(t, int64(2850), totals.Total)
	assert.Equal(t, "user:42", seen["cart"].(map[string]any)["identifier"])
	assert.Equal(t, "USD", seen["cart"].(map[string]any)["currency"])
}

func TestConditionScopeAndReplace(t *testing.T) {
	c := newCart(t)
	require.NoError(t, c.AddItem(Item{ID: "a", Name: "A", Price: 1000, Quantity: 1}))

	assert.ErrorIs(t, c.AddCondition(condition("x", "items@item_discount/per-item", "-1", 0)), ErrConditionScopeMismatch)
	assert.ErrorIs(t, c.AddItemCondition("a", condition("x", "cart@cart_subtotal/aggregate", "-1", 0)), ErrConditionScopeMismatch)
	assert.ErrorIs(t, c.AddItemCondition("zzz", condition("x", "items@item_discount/per-item", "-1", 0)), ErrItemNotFound)

	require.NoError(t, c.AddCondition(condition("promo", "cart@cart_subtotal/aggregate", "-100", 0)))
	require.NoError(t, c.AddCondition(condition("promo", "cart@cart_subtotal/aggregate", "-200", 0)))
	require.Len(t, c.Conditions(), 1)
	assert.Equal(t, "-200", c.Conditions()[0].Value)

	assert.ErrorIs(t, c.RemoveCondition("nope"), ErrConditionNotFound)
	require.NoError(t, c.RemoveCondition("promo"))
	assert.Empty(t, c.Conditions())

	require.NoError(t, c.AddItemCondition("a", condition("line", "items@item_discount/per-item", "-1", 0)))
	assert.ErrorIs(t, c.RemoveItemCondition("a", "nope"), ErrConditionNotFound)
	require.NoError(t, c.RemoveItemCondition("a", "line"))

	c.Reprice(nil, nil)
	events, err := c.PullEvents()
	require.NoError(t, err)
	assert.Equal(t, []Kind{
		KindCartCreated,
		KindItemAdded,
		KindCartConditionAdded,
		KindCartConditionAdded,
		KindCartConditionRemoved,
		KindItemConditionAdded,
		KindItemConditionRemoved,
	}, kinds(events))
}

func TestClearKeepsCartWithZeroTotals(t *testing.T) {
	c := newCart(t)
	require.NoError(t, c.AddItem(Item{ID: "a", Name: "A", Price: 1000, Quantity: 1}))
	require.NoError(t, c.AddCondition(condition("promo", "cart@cart_subtotal/aggregate", "-100", 0)))
	c.Reprice(nil, nil)
	_, err := c.PullEvents()
	require.NoError(t, err)

	c.Clear()
	totals := c.Reprice(nil, nil)
	assert.True(t, c.IsEmpty())
	assert.Zero(t, totals.Total)
	assert.Zero(t, totals.ItemsCount)

	events, err := c.PullEvents()
	require.NoError(t, err)
	require.Len(t, events, 1)
	cleared := events[0].(CartCleared)
	assert.Equal(t, c.Key(), cleared.Key())
	assert.Zero(t, cleared.Cart.ItemsCount())
}

func TestSnapshotIsIsolatedFromLaterMutations(t *testing.T) {
	c := newCart(t)
	require.NoError(t, c.AddItem(Item{ID: "a", Name: "A", Price: 1000, Quantity: 1}))
	c.Reprice(nil, nil)
	events, err := c.PullEvents()
	require.NoError(t, err)

	snapshot := events[0].(CartCreated).Cart
	require.NoError(t, c.AddItem(Item{ID: "b", Name: "B", Price: 10, Quantity: 1}))
	assert.Equal(t, 1, snapshot.ItemsCount())
	assert.Equal(t, 2, c.ItemsCount())
}

func TestCartDestroyedCarriesIdentityOnly(t *testing.T) {
	e := NewCartDestroyed(Key{Identifier: "user:42", Instance: "default"})
	assert.Equal(t, KindCartDestroyed, e.Kind())
	assert.Equal(t, "default", e.Instance)
	assert.Equal(t, "user:42", e.Identifier)
	assert.Equal(t, Key{Identifier: "user:42", Instance: "default"}, e.Key())
}
