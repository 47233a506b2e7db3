package factory

import (
	"testing"

	conditiondomain "github.com/smallbiznis/cartsync/internal/condition/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAlwaysCompile(t *testing.T) {
	f := New(42)
	for range 200 {
		_, err := f.Build()
		require.NoError(t, err)
	}
}

func TestSameSeedSameParams(t *testing.T) {
	assert.Equal(t, New(7).Params(), New(7).Params())
	assert.NotEqual(t, New(7).Params().Name, New(8).Params().Name)
}

func TestPresets(t *testing.T) {
	f := New(1)

	discount := f.MustBuild(Discount())
	assert.Equal(t, conditiondomain.TypeDiscount, discount.Type)
	assert.True(t, discount.ParsedValue().IsPercentage())
	assert.Equal(t, "-", discount.Value[:1])

	tax := f.MustBuild(Tax())
	assert.Equal(t, "cart@cart_subtotal/aggregate", tax.Target)
	assert.True(t, tax.ParsedValue().IsPercentage())

	fee := f.MustBuild(Fee())
	assert.False(t, fee.ParsedValue().IsPercentage())

	shipping := f.MustBuild(Shipping())
	assert.NotEmpty(t, shipping.Attributes["method"])
	assert.NotEmpty(t, shipping.Attributes["carrier"])

	items := f.MustBuild(Fee(), ForItems())
	assert.Equal(t, conditiondomain.ScopeItems, items.ParsedTarget().Scope)

	assert.True(t, f.MustBuild(Active()).IsActive)
	assert.False(t, f.MustBuild(Inactive()).IsActive)

	tagged := f.MustBuild(Fee(), WithAttributes(map[string]any{"campaign": "launch"}))
	assert.Equal(t, "launch", tagged.Attributes["campaign"])
}

func TestWithRulesMarksDynamic(t *testing.T) {
	f := New(3)

	dynamic := f.MustBuild(WithRules(conditiondomain.Rules{{"==": []any{1, 1}}}))
	assert.True(t, dynamic.IsDynamic)

	static := f.MustBuild(WithRules(nil))
	assert.False(t, static.IsDynamic)
}
