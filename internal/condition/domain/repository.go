package domain

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, c *Condition) error
	Update(ctx context.Context, c *Condition) error
	Delete(ctx context.Context, name string) error
	FindByName(ctx context.Context, name string) (*Condition, error)
	List(ctx context.Context, filter ListRequest) ([]*Condition, error)
	ListActiveGlobals(ctx context.Context) ([]*Condition, error)
}
