package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTargetRoundTrip(t *testing.T) {
	for _, s := range []string{
		"cart@cart_subtotal/aggregate",
		"cart@grand_total/aggregate",
		"items@item_discount/per-item",
		"cart@shipping-fee/aggregate",
	} {
		t.Run(s, func(t *testing.T) {
			target, err := ParseTarget(s)
			require.NoError(t, err)
			assert.Equal(t, s, target.String())
		})
	}
}

func TestParseTargetDescriptor(t *testing.T) {
	target := MustParseTarget("items@item_discount/per-item")
	assert.Equal(t, TargetDefinition{Scope: "items", Key: "item_discount", Mode: "per-item"}, target.Descriptor())
}

func TestParseTargetRejectsMalformed(t *testing.T) {
	for _, s := range []string{
		"",
		"cart_subtotal/aggregate",
		"cart@cart_subtotal",
		"order@cart_subtotal/aggregate",
		"cart@cart_subtotal/always",
		"cart@/aggregate",
		"cart@a/b/aggregate",
		"cart@cart_subtotal/per-item",
		"items@item_discount/aggregate",
	} {
		t.Run(s, func(t *testing.T) {
			_, err := ParseTarget(s)
			assert.ErrorIs(t, err, ErrInvalidTargetFormat)
		})
	}
}

func TestNewTargetValidatesModeAgainstScope(t *testing.T) {
	_, err := NewTarget(ScopeItems, KeyItemDiscount, ModeAggregate)
	assert.ErrorIs(t, err, ErrInvalidTargetFormat)

	target, err := NewTarget(ScopeCart, KeyGrandTotal, ModeAggregate)
	require.NoError(t, err)
	assert.Equal(t, "cart@grand_total/aggregate", target.String())
}
