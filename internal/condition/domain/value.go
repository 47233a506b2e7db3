package domain

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"
)

var valuePattern = regexp.MustCompile(`^([+-])(\d+)(%?)$`)

const (
	// MaxAmount bounds fixed values, unit prices and line subtotals in minor units.
	MaxAmount int64 = 1_000_000_000_000_000
	// MaxPercent bounds percentage values.
	MaxPercent int64 = 10_000
)

var (
	hundred = decimal.NewFromInt(100)
	maxInt  = decimal.NewFromInt(math.MaxInt64)
	minInt  = decimal.NewFromInt(math.MinInt64)
)

// Value is a parsed signed value expression: "-15%" or "+500".
type Value struct {
	raw        string
	negative   bool
	magnitude  int64
	percentage bool
}

// ParseValue accepts exactly a sign, digits and an optional trailing percent.
func ParseValue(s string) (Value, error) {
	m := valuePattern.FindStringSubmatch(s)
	if m == nil {
		return Value{}, fmt.Errorf("%w: %q", ErrInvalidValueExpression, s)
	}
	magnitude, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %q", ErrInvalidValueExpression, s)
	}
	limit := MaxAmount
	if m[3] == "%" {
		limit = MaxPercent
	}
	if magnitude > limit {
		return Value{}, fmt.Errorf("%w: %q exceeds %d", ErrInvalidValueExpression, s, limit)
	}
	return Value{
		raw:        s,
		negative:   m[1] == "-",
		magnitude:  magnitude,
		percentage: m[3] == "%",
	}, nil
}

func (v Value) IsPercentage() bool { return v.percentage }

func (v Value) String() string { return v.raw }

// Delta returns the signed adjustment in minor units for base.
// Percentages round half away from zero.
func (v Value) Delta(base int64) int64 {
	if !v.percentage {
		if v.negative {
			return -v.magnitude
		}
		return v.magnitude
	}
	pct := decimal.NewFromInt(v.magnitude)
	if v.negative {
		pct = pct.Neg()
	}
	return clampInt(decimal.NewFromInt(base).Mul(pct).Div(hundred).Round(0))
}

func clampInt(d decimal.Decimal) int64 {
	switch {
	case d.GreaterThan(maxInt):
		return math.MaxInt64
	case d.LessThan(minInt):
		return math.MinInt64
	}
	return d.IntPart()
}

// AddAmounts adds two minor-unit amounts, saturating at the int64 bounds
// instead of wrapping.
func AddAmounts(a, b int64) int64 {
	sum := a + b
	if a > 0 && b > 0 && sum < 0 {
		return math.MaxInt64
	}
	if a < 0 && b < 0 && sum >= 0 {
		return math.MinInt64
	}
	return sum
}
