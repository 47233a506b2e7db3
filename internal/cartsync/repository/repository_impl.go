package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	cartsyncdomain "github.com/smallbiznis/cartsync/internal/cartsync/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) cartsyncdomain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) cartsyncdomain.Repository {
	return &repository{db: tx}
}

func (r *repository) FindByIdentity(ctx context.Context, instance, identifier string) (*cartsyncdomain.Snapshot, error) {
	var s cartsyncdomain.Snapshot
	err := r.db.WithContext(ctx).
		Where("identifier = ? AND instance = ?", identifier, instance).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *repository) Insert(ctx context.Context, s *cartsyncdomain.Snapshot) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *repository) Update(ctx context.Context, s *cartsyncdomain.Snapshot) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *repository) ReplaceChildren(ctx context.Context, cartID snowflake.ID, items []cartsyncdomain.SnapshotItem, conditions []cartsyncdomain.SnapshotCondition) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("cart_id = ?", cartID).Delete(&cartsyncdomain.SnapshotCondition{}).Error; err != nil {
		return err
	}
	if err := db.Where("cart_id = ?", cartID).Delete(&cartsyncdomain.SnapshotItem{}).Error; err != nil {
		return err
	}
	if len(items) > 0 {
		if err := db.Create(&items).Error; err != nil {
			return err
		}
	}
	if len(conditions) > 0 {
		if err := db.Create(&conditions).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) ListItems(ctx context.Context, cartID snowflake.ID) ([]cartsyncdomain.SnapshotItem, error) {
	var items []cartsyncdomain.SnapshotItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("position ASC").
		Find(&items).Error
	return items, err
}

func (r *repository) ListConditions(ctx context.Context, cartID snowflake.ID) ([]cartsyncdomain.SnapshotCondition, error) {
	var conditions []cartsyncdomain.SnapshotCondition
	err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("item_id ASC").
		Order("position ASC").
		Find(&conditions).Error
	return conditions, err
}

func (r *repository) Delete(ctx context.Context, cartID snowflake.ID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("cart_id = ?", cartID).Delete(&cartsyncdomain.SnapshotCondition{}).Error; err != nil {
		return err
	}
	if err := db.Where("cart_id = ?", cartID).Delete(&cartsyncdomain.SnapshotItem{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", cartID).Delete(&cartsyncdomain.Snapshot{}).Error
}
