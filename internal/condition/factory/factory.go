// Package factory builds valid, randomized conditions for tests and local
// fixtures. A Factory is deterministic for a given seed.
package factory

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	conditiondomain "github.com/smallbiznis/cartsync/internal/condition/domain"
)

var defaultTargets = []string{
	"cart@cart_subtotal/aggregate",
	"cart@grand_total/aggregate",
	"items@item_discount/per-item",
}

var conditionTypes = []conditiondomain.ConditionType{
	conditiondomain.TypeDiscount,
	conditiondomain.TypeTax,
	conditiondomain.TypeFee,
	conditiondomain.TypeShipping,
	conditiondomain.TypeSurcharge,
}

const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

type Factory struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// Option adjusts generated params after the random defaults are drawn.
type Option func(f *Factory, p *conditiondomain.Params)

func New(seed uint64) *Factory {
	return &Factory{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Params draws a random definition and applies opts in order.
func (f *Factory) Params(opts ...Option) conditiondomain.Params {
	f.mu.Lock()
	defer f.mu.Unlock()

	p := conditiondomain.Params{
		Name:        "condition_" + f.randomString(8),
		DisplayName: "Condition " + strings.ToUpper(f.randomString(4)),
		Description: "Auto generated condition " + f.randomString(12),
		Type:        conditionTypes[f.rng.IntN(len(conditionTypes))],
		Target:      defaultTargets[f.rng.IntN(len(defaultTargets))],
		Value:       f.value(),
		Order:       f.rng.IntN(11),
		Attributes:  map[string]any{},
		IsActive:    f.rng.IntN(100) < 80,
	}
	if p.Type == conditiondomain.TypeShipping {
		p.Attributes = f.shippingAttributes()
	}

	for _, opt := range opts {
		opt(f, &p)
	}
	return p
}

// Build returns a compiled condition.
func (f *Factory) Build(opts ...Option) (*conditiondomain.Condition, error) {
	return conditiondomain.New(f.Params(opts...))
}

func (f *Factory) MustBuild(opts ...Option) *conditiondomain.Condition {
	c, err := f.Build(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func Discount() Option {
	return func(f *Factory, p *conditiondomain.Params) {
		p.Type = conditiondomain.TypeDiscount
		p.Target = pick(f, []string{"cart@cart_subtotal/aggregate", "items@item_discount/per-item"})
		p.Value = fmt.Sprintf("-%d%%", 5+f.rng.IntN(46))
	}
}

func Tax() Option {
	return func(f *Factory, p *conditiondomain.Params) {
		p.Type = conditiondomain.TypeTax
		p.Target = "cart@cart_subtotal/aggregate"
		p.Value = fmt.Sprintf("+%d%%", 5+f.rng.IntN(11))
	}
}

func Fee() Option {
	return func(f *Factory, p *conditiondomain.Params) {
		p.Type = conditiondomain.TypeFee
		p.Target = "cart@cart_subtotal/aggregate"
		p.Value = fmt.Sprintf("+%d", 200+f.rng.IntN(4801))
	}
}

func Shipping() Option {
	return func(f *Factory, p *conditiondomain.Params) {
		p.Type = conditiondomain.TypeShipping
		p.Target = "cart@cart_subtotal/aggregate"
		p.Value = fmt.Sprintf("+%d", 500+f.rng.IntN(7501))
		p.Attributes = f.shippingAttributes()
	}
}

func ForItems() Option {
	return func(_ *Factory, p *conditiondomain.Params) {
		p.Target = "items@item_discount/per-item"
	}
}

func Active() Option {
	return func(_ *Factory, p *conditiondomain.Params) { p.IsActive = true }
}

func Inactive() Option {
	return func(_ *Factory, p *conditiondomain.Params) { p.IsActive = false }
}

func Global() Option {
	return func(_ *Factory, p *conditiondomain.Params) { p.IsGlobal = true }
}

// WithAttributes merges attrs into the generated attributes.
func WithAttributes(attrs map[string]any) Option {
	return func(_ *Factory, p *conditiondomain.Params) {
		if p.Attributes == nil {
			p.Attributes = map[string]any{}
		}
		for k, v := range attrs {
			p.Attributes[k] = v
		}
	}
}

// WithRules sets rules and marks the condition dynamic when rules is non-empty.
func WithRules(rules conditiondomain.Rules) Option {
	return func(_ *Factory, p *conditiondomain.Params) {
		p.Rules = rules
		p.IsDynamic = len(rules) > 0
	}
}

func Named(name string) Option {
	return func(_ *Factory, p *conditiondomain.Params) { p.Name = name }
}

func WithValue(value string) Option {
	return func(_ *Factory, p *conditiondomain.Params) { p.Value = value }
}

func WithTarget(target string) Option {
	return func(_ *Factory, p *conditiondomain.Params) { p.Target = target }
}

func WithOrder(order int) Option {
	return func(_ *Factory, p *conditiondomain.Params) { p.Order = order }
}

func (f *Factory) value() string {
	switch f.rng.IntN(3) {
	case 0:
		return fmt.Sprintf("%s%d%%", pick(f, []string{"+", "-"}), 1+f.rng.IntN(50))
	case 1:
		return fmt.Sprintf("+%d", 100+f.rng.IntN(9901))
	default:
		return fmt.Sprintf("-%d", 100+f.rng.IntN(9901))
	}
}

func (f *Factory) shippingAttributes() map[string]any {
	return map[string]any{
		"method":  pick(f, []string{"standard", "express", "overnight"}),
		"carrier": pick(f, []string{"UPS", "FedEx", "DHL", "USPS"}),
	}
}

func (f *Factory) randomString(n int) string {
	var b strings.Builder
	b.Grow(n)
	for range n {
		b.WriteByte(alphabet[f.rng.IntN(len(alphabet))])
	}
	return b.String()
}

func pick[T any](f *Factory, options []T) T {
	return options[f.rng.IntN(len(options))]
}
