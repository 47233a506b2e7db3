package domain

import (
	"fmt"
	"strings"
)

// Key identifies a cart: an owner or session identifier plus a named instance,
// so one identifier can hold several carts (e.g. "default" and "wishlist").
type Key struct {
	Identifier string
	Instance   string
}

func NewKey(identifier, instance string) (Key, error) {
	k := Key{
		Identifier: strings.TrimSpace(identifier),
		Instance:   strings.TrimSpace(instance),
	}
	if err := k.Validate(); err != nil {
		return Key{}, err
	}
	return k, nil
}

func (k Key) Validate() error {
	if k.Identifier == "" || k.Instance == "" {
		return fmt.Errorf("%w: identifier and instance are required", ErrInvalidIdentity)
	}
	return nil
}

func (k Key) String() string {
	return k.Instance + ":" + k.Identifier
}
