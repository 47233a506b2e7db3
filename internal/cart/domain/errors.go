package domain

import "errors"

var (
	ErrInvalidIdentity        = errors.New("invalid_cart_identity")
	ErrInvalidItem            = errors.New("invalid_item")
	ErrItemNotFound           = errors.New("item_not_found")
	ErrConditionNotFound      = errors.New("condition_not_found")
	ErrConditionScopeMismatch = errors.New("condition_scope_mismatch")
	ErrCartNotFound           = errors.New("cart_not_found")
	ErrCartFull               = errors.New("cart_full")
	ErrTotalsStale            = errors.New("cart_totals_stale")
)
