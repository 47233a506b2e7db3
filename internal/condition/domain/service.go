package domain

import (
	"context"
	"time"
)

// GlobalSource supplies the global conditions every cart is priced with.
type GlobalSource interface {
	ActiveGlobals(ctx context.Context) ([]*Condition, error)
}

type Service interface {
	GlobalSource

	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	SetRules(ctx context.Context, name string, rules Rules) (*Response, error)
	Activate(ctx context.Context, name string) (*Response, error)
	Deactivate(ctx context.Context, name string) (*Response, error)
	Delete(ctx context.Context, name string) error
	Get(ctx context.Context, name string) (*Condition, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
}

type ListRequest struct {
	Type     ConditionType
	IsActive *bool
	IsGlobal *bool
}

type CreateRequest struct {
	Name        string         `json:"name" yaml:"name"`
	DisplayName string         `json:"display_name" yaml:"display_name"`
	Description string         `json:"description" yaml:"description"`
	Type        ConditionType  `json:"type" yaml:"type"`
	Target      string         `json:"target" yaml:"target"`
	Value       string         `json:"value" yaml:"value"`
	Order       int            `json:"order" yaml:"order"`
	Attributes  map[string]any `json:"attributes" yaml:"attributes"`
	IsActive    *bool          `json:"is_active" yaml:"is_active"`
	IsGlobal    bool           `json:"is_global" yaml:"is_global"`
	Rules       Rules          `json:"rules" yaml:"rules"`
}

type UpdateRequest struct {
	Name        string          `json:"name"`
	DisplayName *string         `json:"display_name,omitempty"`
	Description *string         `json:"description,omitempty"`
	Type        *ConditionType  `json:"type,omitempty"`
	Target      *string         `json:"target,omitempty"`
	Value       *string         `json:"value,omitempty"`
	Order       *int            `json:"order,omitempty"`
	Attributes  *map[string]any `json:"attributes,omitempty"`
	IsActive    *bool           `json:"is_active,omitempty"`
	IsGlobal    *bool           `json:"is_global,omitempty"`
}

type Response struct {
	ID string `json:"id"`
	Record
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
