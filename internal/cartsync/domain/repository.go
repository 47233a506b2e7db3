package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByIdentity(ctx context.Context, instance, identifier string) (*Snapshot, error)
	Insert(ctx context.Context, s *Snapshot) error
	Update(ctx context.Context, s *Snapshot) error
	ReplaceChildren(ctx context.Context, cartID snowflake.ID, items []SnapshotItem, conditions []SnapshotCondition) error
	ListItems(ctx context.Context, cartID snowflake.ID) ([]SnapshotItem, error)
	ListConditions(ctx context.Context, cartID snowflake.ID) ([]SnapshotCondition, error)
	Delete(ctx context.Context, cartID snowflake.ID) error
}
