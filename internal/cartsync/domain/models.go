package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	conditiondomain "github.com/smallbiznis/cartsync/internal/condition/domain"
	"gorm.io/datatypes"
)

// Snapshot is the normalized row of a live cart, keyed by (identifier, instance).
type Snapshot struct {
	ID          snowflake.ID                                    `gorm:"primaryKey"`
	Identifier  string                                          `gorm:"type:text;not null;uniqueIndex:ux_carts_identity,priority:1"`
	Instance    string                                          `gorm:"type:text;not null;uniqueIndex:ux_carts_identity,priority:2"`
	Currency    string                                          `gorm:"type:text;not null"`
	ItemsCount  int                                             `gorm:"column:items_count;not null"`
	Quantity    int64                                           `gorm:"not null"`
	Gross       int64                                           `gorm:"not null"`
	Subtotal    int64                                           `gorm:"not null"`
	Total       int64                                           `gorm:"not null"`
	Savings     int64                                           `gorm:"not null"`
	Breakdown   datatypes.JSONSlice[conditiondomain.Adjustment] `gorm:"column:breakdown"`
	Version     int64                                           `gorm:"not null"`
	Fingerprint string                                          `gorm:"type:text;not null"`
	CreatedAt   time.Time                                       `gorm:"not null;autoCreateTime:false"`
	UpdatedAt   time.Time                                       `gorm:"not null;autoUpdateTime:false"`
}

func (Snapshot) TableName() string { return "carts" }

type SnapshotItem struct {
	CartID     snowflake.ID                                    `gorm:"primaryKey;autoIncrement:false"`
	ItemID     string                                          `gorm:"primaryKey;type:text"`
	Position   int                                             `gorm:"not null"`
	Name       string                                          `gorm:"type:text;not null"`
	Price      int64                                           `gorm:"not null"`
	Quantity   int64                                           `gorm:"not null"`
	Subtotal   int64                                           `gorm:"not null"`
	Total      int64                                           `gorm:"not null"`
	Attributes datatypes.JSONMap                               `gorm:"column:attributes"`
	Breakdown  datatypes.JSONSlice[conditiondomain.Adjustment] `gorm:"column:breakdown"`
}

func (SnapshotItem) TableName() string { return "cart_items" }

// SnapshotCondition is an attached condition. ItemID is empty for cart-level rows.
type SnapshotCondition struct {
	CartID     snowflake.ID                  `gorm:"primaryKey;autoIncrement:false"`
	ItemID     string                        `gorm:"primaryKey;type:text"`
	Position   int                           `gorm:"primaryKey;autoIncrement:false"`
	Name       string                        `gorm:"type:text;not null"`
	Type       conditiondomain.ConditionType `gorm:"type:text;not null"`
	Target     string                        `gorm:"type:text;not null"`
	Value      string                        `gorm:"type:text;not null"`
	Order      int                           `gorm:"column:sort_order;not null"`
	Applied    bool                          `gorm:"not null"`
	Delta      int64                         `gorm:"not null"`
	Attributes datatypes.JSONMap             `gorm:"column:attributes"`
}

func (SnapshotCondition) TableName() string { return "cart_conditions" }

// Stored is a snapshot with its child rows, as read back from storage.
type Stored struct {
	Snapshot   Snapshot
	Items      []SnapshotItem
	Conditions []SnapshotCondition
}
