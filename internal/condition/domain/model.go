package domain

import (
	"fmt"
	"regexp"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ConditionType classifies what a condition represents on a cart or line item.
type ConditionType string

const (
	TypeDiscount  ConditionType = "discount"
	TypeTax       ConditionType = "tax"
	TypeFee       ConditionType = "fee"
	TypeShipping  ConditionType = "shipping"
	TypeSurcharge ConditionType = "surcharge"
)

func (t ConditionType) Valid() bool {
	switch t {
	case TypeDiscount, TypeTax, TypeFee, TypeShipping, TypeSurcharge:
		return true
	default:
		return false
	}
}

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Condition is a named, ordered rule that adjusts a cart or item amount.
// Construct with New, or call Compile after loading from storage.
type Condition struct {
	ID               snowflake.ID                         `gorm:"primaryKey"`
	Name             string                               `gorm:"type:text;not null;uniqueIndex"`
	DisplayName      string                               `gorm:"column:display_name;type:text;not null"`
	Description      string                               `gorm:"type:text;not null;default:''"`
	Type             ConditionType                        `gorm:"type:text;not null"`
	Target           string                               `gorm:"type:text;not null"`
	TargetDefinition datatypes.JSONType[TargetDefinition] `gorm:"column:target_definition"`
	Value            string                               `gorm:"type:text;not null"`
	Order            int                                  `gorm:"column:sort_order;not null;default:0"`
	Attributes       datatypes.JSONMap                    `gorm:"column:attributes"`
	IsActive         bool                                 `gorm:"column:is_active;not null"`
	IsGlobal         bool                                 `gorm:"column:is_global;not null;default:false"`
	Rules            datatypes.JSONSlice[Rule]            `gorm:"column:rules"`
	IsDynamic        bool                                 `gorm:"column:is_dynamic;not null;default:false"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;autoUpdateTime:false"`

	target   Target
	value    Value
	compiled bool
}

func (Condition) TableName() string { return "conditions" }

// Params are the explicit attributes of a new condition.
type Params struct {
	Name        string
	DisplayName string
	Description string
	Type        ConditionType
	Target      string
	Value       string
	Order       int
	Attributes  map[string]any
	IsActive    bool
	IsGlobal    bool
	Rules       Rules
	IsDynamic   bool
}

// New builds and compiles a condition, failing fast on malformed input.
func New(p Params) (*Condition, error) {
	c := &Condition{
		Name:        p.Name,
		DisplayName: p.DisplayName,
		Description: p.Description,
		Type:        p.Type,
		Target:      p.Target,
		Value:       p.Value,
		Order:       p.Order,
		Attributes:  datatypes.JSONMap(p.Attributes),
		IsActive:    p.IsActive,
		IsGlobal:    p.IsGlobal,
		Rules:       datatypes.JSONSlice[Rule](p.Rules),
		IsDynamic:   p.IsDynamic,
	}
	if c.DisplayName == "" {
		c.DisplayName = c.Name
	}
	if err := c.Compile(); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNew is New for fixtures.
func MustNew(p Params) *Condition {
	c, err := New(p)
	if err != nil {
		panic(err)
	}
	return c
}

// Compile validates the stored fields and caches the parsed target and value.
func (c *Condition) Compile() error {
	c.compiled = false
	if !namePattern.MatchString(c.Name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, c.Name)
	}
	if !c.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidConditionType, c.Type)
	}
	target, err := ParseTarget(c.Target)
	if err != nil {
		return err
	}
	value, err := ParseValue(c.Value)
	if err != nil {
		return err
	}
	if c.IsDynamic && len(c.Rules) == 0 {
		return fmt.Errorf("%w: dynamic condition %q has no rules", ErrInconsistentRules, c.Name)
	}
	if !c.IsDynamic && len(c.Rules) > 0 {
		return fmt.Errorf("%w: static condition %q carries rules", ErrInconsistentRules, c.Name)
	}
	for _, rule := range c.Rules {
		if len(rule) == 0 {
			return fmt.Errorf("%w: empty rule on %q", ErrInvalidRule, c.Name)
		}
	}
	if c.Type == TypeShipping {
		if !hasString(c.Attributes, "method") || !hasString(c.Attributes, "carrier") {
			return fmt.Errorf("%w: %q", ErrMissingShippingAttributes, c.Name)
		}
	}

	c.TargetDefinition = datatypes.NewJSONType(target.Descriptor())
	c.target = target
	c.value = value
	c.compiled = true
	return nil
}

func (c *Condition) Compiled() bool { return c.compiled }

// SetRules replaces the rule set and keeps IsDynamic consistent with it.
func (c *Condition) SetRules(rules Rules) {
	if len(rules) == 0 {
		c.Rules = nil
		c.IsDynamic = false
		return
	}
	c.Rules = datatypes.JSONSlice[Rule](rules)
	c.IsDynamic = true
}

// ParsedTarget returns the compiled target.
func (c *Condition) ParsedTarget() Target {
	if c.compiled {
		return c.target
	}
	t, _ := ParseTarget(c.Target)
	return t
}

// ParsedValue returns the compiled value expression.
func (c *Condition) ParsedValue() Value {
	if c.compiled {
		return c.value
	}
	v, _ := ParseValue(c.Value)
	return v
}

// Apply returns base adjusted by this condition and the delta on its own.
func (c *Condition) Apply(base int64) (amount int64, delta int64) {
	delta = c.ParsedValue().Delta(base)
	return AddAmounts(base, delta), delta
}

// IsApplicable gates the condition on its active flag and, when dynamic, its rules.
func (c *Condition) IsApplicable(eval RuleEvaluator, facts Facts) bool {
	if !c.IsActive {
		return false
	}
	if !c.IsDynamic {
		return true
	}
	if eval == nil {
		return false
	}
	return eval.Evaluate(Rules(c.Rules), facts)
}

// Clone returns a copy that shares no maps or slices with c.
func (c *Condition) Clone() *Condition {
	if c == nil {
		return nil
	}
	out := *c
	if c.Attributes != nil {
		out.Attributes = make(datatypes.JSONMap, len(c.Attributes))
		for k, v := range c.Attributes {
			out.Attributes[k] = v
		}
	}
	if c.Rules != nil {
		out.Rules = append(datatypes.JSONSlice[Rule](nil), c.Rules...)
	}
	return &out
}

// Record is the exported shape of a condition.
type Record struct {
	Name             string           `json:"name" yaml:"name"`
	DisplayName      string           `json:"display_name" yaml:"display_name"`
	Description      string           `json:"description" yaml:"description"`
	Type             ConditionType    `json:"type" yaml:"type"`
	Target           string           `json:"target" yaml:"target"`
	TargetDefinition TargetDefinition `json:"target_definition" yaml:"target_definition"`
	Value            string           `json:"value" yaml:"value"`
	Order            int              `json:"order" yaml:"order"`
	Attributes       map[string]any   `json:"attributes" yaml:"attributes"`
	IsActive         bool             `json:"is_active" yaml:"is_active"`
	IsGlobal         bool             `json:"is_global" yaml:"is_global"`
	Rules            Rules            `json:"rules,omitempty" yaml:"rules,omitempty"`
	IsDynamic        bool             `json:"is_dynamic" yaml:"is_dynamic"`
}

func (c *Condition) Record() Record {
	attrs := map[string]any{}
	for k, v := range c.Attributes {
		attrs[k] = v
	}
	var rules Rules
	if len(c.Rules) > 0 {
		rules = append(Rules(nil), c.Rules...)
	}
	return Record{
		Name:             c.Name,
		DisplayName:      c.DisplayName,
		Description:      c.Description,
		Type:             c.Type,
		Target:           c.Target,
		TargetDefinition: c.ParsedTarget().Descriptor(),
		Value:            c.Value,
		Order:            c.Order,
		Attributes:       attrs,
		IsActive:         c.IsActive,
		IsGlobal:         c.IsGlobal,
		Rules:            rules,
		IsDynamic:        c.IsDynamic,
	}
}

func hasString(attrs map[string]any, key string) bool {
	v, ok := attrs[key].(string)
	return ok && v != ""
}
