package domain

import "errors"

var (
	ErrInvalidTargetFormat       = errors.New("invalid_target_format")
	ErrInvalidValueExpression    = errors.New("invalid_value_expression")
	ErrInconsistentRules         = errors.New("inconsistent_rules")
	ErrInvalidRule               = errors.New("invalid_rule")
	ErrInvalidName               = errors.New("invalid_name")
	ErrInvalidConditionType      = errors.New("invalid_condition_type")
	ErrMissingShippingAttributes = errors.New("missing_shipping_attributes")
	ErrDuplicateName             = errors.New("duplicate_name")
	ErrNotFound                  = errors.New("not_found")
	ErrNotCompiled               = errors.New("condition_not_compiled")
)
