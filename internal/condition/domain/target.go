package domain

import (
	"fmt"
	"strings"
)

// Scope is the part of the cart a condition measures.
type Scope string

const (
	ScopeCart  Scope = "cart"
	ScopeItems Scope = "items"
)

// Mode controls whether a condition applies once to a total or to every line item.
type Mode string

const (
	ModeAggregate Mode = "aggregate"
	ModePerItem   Mode = "per-item"
)

// Well-known target keys.
const (
	KeyCartSubtotal = "cart_subtotal"
	KeyGrandTotal   = "grand_total"
	KeyItemDiscount = "item_discount"
)

// Target describes where a condition applies, serialized as "<scope>@<key>/<mode>".
type Target struct {
	Scope Scope
	Key   string
	Mode  Mode
}

// TargetDefinition is the structured form stored next to the target string.
type TargetDefinition struct {
	Scope string `json:"scope" yaml:"scope"`
	Key   string `json:"key" yaml:"key"`
	Mode  string `json:"mode" yaml:"mode"`
}

// NewTarget validates scope, key and mode.
func NewTarget(scope Scope, key string, mode Mode) (Target, error) {
	t := Target{Scope: scope, Key: key, Mode: mode}
	if err := t.Validate(); err != nil {
		return Target{}, err
	}
	return t, nil
}

// ParseTarget parses the compact "<scope>@<key>/<mode>" form.
func ParseTarget(s string) (Target, error) {
	scope, rest, ok := strings.Cut(s, "@")
	if !ok {
		return Target{}, fmt.Errorf("%w: missing '@' in %q", ErrInvalidTargetFormat, s)
	}
	idx := strings.LastIndex(rest, "/")
	if idx < 0 {
		return Target{}, fmt.Errorf("%w: missing '/' in %q", ErrInvalidTargetFormat, s)
	}
	return NewTarget(Scope(scope), rest[:idx], Mode(rest[idx+1:]))
}

// MustParseTarget is ParseTarget for package-level constants and tests.
func MustParseTarget(s string) Target {
	t, err := ParseTarget(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Target) Validate() error {
	switch t.Scope {
	case ScopeCart, ScopeItems:
	default:
		return fmt.Errorf("%w: unknown scope %q", ErrInvalidTargetFormat, t.Scope)
	}
	switch t.Mode {
	case ModeAggregate, ModePerItem:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidTargetFormat, t.Mode)
	}
	if t.Key == "" || strings.ContainsAny(t.Key, "@/") {
		return fmt.Errorf("%w: invalid key %q", ErrInvalidTargetFormat, t.Key)
	}
	if t.Mode == ModePerItem && t.Scope != ScopeItems {
		return fmt.Errorf("%w: per-item mode requires items scope", ErrInvalidTargetFormat)
	}
	if t.Mode == ModeAggregate && t.Scope != ScopeCart {
		return fmt.Errorf("%w: aggregate mode requires cart scope", ErrInvalidTargetFormat)
	}
	return nil
}

func (t Target) String() string {
	return string(t.Scope) + "@" + t.Key + "/" + string(t.Mode)
}

// Descriptor returns the structured form used for persistence.
func (t Target) Descriptor() TargetDefinition {
	return TargetDefinition{
		Scope: string(t.Scope),
		Key:   t.Key,
		Mode:  string(t.Mode),
	}
}

func (t Target) IsZero() bool {
	return t == Target{}
}
