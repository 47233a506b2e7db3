package repository

import (
	"context"
	"errors"
	"fmt"

	conditiondomain "github.com/smallbiznis/cartsync/internal/condition/domain"
	"github.com/smallbiznis/cartsync/pkg/db"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) conditiondomain.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, c *conditiondomain.Condition) error {
	err := r.db.WithContext(ctx).Create(c).Error
	if db.IsDuplicateKeyErr(err) {
		return conditiondomain.ErrDuplicateName
	}
	return err
}

func (r *repository) Update(ctx context.Context, c *conditiondomain.Condition) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *repository) Delete(ctx context.Context, name string) error {
	return r.db.WithContext(ctx).
		Where("name = ?", name).
		Delete(&conditiondomain.Condition{}).Error
}

func (r *repository) FindByName(ctx context.Context, name string) (*conditiondomain.Condition, error) {
	var c conditiondomain.Condition
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if err := c.Compile(); err != nil {
		return nil, fmt.Errorf("load condition %q: %w", name, err)
	}
	return &c, nil
}

func (r *repository) List(ctx context.Context, filter conditiondomain.ListRequest) ([]*conditiondomain.Condition, error) {
	stmt := r.db.WithContext(ctx).Model(&conditiondomain.Condition{})
	if filter.Type != "" {
		stmt = stmt.Where("type = ?", filter.Type)
	}
	if filter.IsActive != nil {
		stmt = stmt.Where("is_active = ?", *filter.IsActive)
	}
	if filter.IsGlobal != nil {
		stmt = stmt.Where("is_global = ?", *filter.IsGlobal)
	}
	return r.find(stmt)
}

func (r *repository) ListActiveGlobals(ctx context.Context) ([]*conditiondomain.Condition, error) {
	stmt := r.db.WithContext(ctx).
		Model(&conditiondomain.Condition{}).
		Where("is_active = ? AND is_global = ?", true, true)
	return r.find(stmt)
}

func (r *repository) find(stmt *gorm.DB) ([]*conditiondomain.Condition, error) {
	var items []*conditiondomain.Condition
	if err := stmt.Order("sort_order ASC").Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	for _, c := range items {
		if err := c.Compile(); err != nil {
			return nil, fmt.Errorf("load condition %q: %w", c.Name, err)
		}
	}
	return items, nil
}
