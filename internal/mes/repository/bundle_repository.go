package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/harness-mes/internal/mes/entity"
	"gorm.io/gorm"
)

type BundleRepository struct {
	db *gorm.DB
}

func NewBundleRepository(db *gorm.DB) *BundleRepository {
	return &BundleRepository{db: db}
}

func (r *BundleRepository) DB() *gorm.DB {
	return r.db
}

// CreateWithItems 捆包与明细在同一事务内落库，不留半成捆包
func (r *BundleRepository) CreateWithItems(ctx context.Context, bundle *entity.BundleLot) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := bundle.Items
		bundle.Items = nil
		if err := tx.Create(bundle).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].BundleID = bundle.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		bundle.Items = items
		return nil
	})
}

func (r *BundleRepository) FindByNo(ctx context.Context, bundleNo string) (*entity.BundleLot, error) {
	var bundle entity.BundleLot
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, created_at ASC")
		}).
		First(&bundle, "bundle_no = ?", bundleNo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &bundle, nil
}

func (r *BundleRepository) FindByID(ctx context.Context, id string) (*entity.BundleLot, error) {
	var bundle entity.BundleLot
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, created_at ASC")
		}).
		First(&bundle, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &bundle, nil
}

// ListByType 按捆包类型查询
func (r *BundleRepository) ListByType(ctx context.Context, bundleType string) ([]entity.BundleLot, error) {
	var bundles []entity.BundleLot
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, created_at ASC")
		}).
		Where("bundle_type = ?", bundleType).
		Order("created_at DESC").
		Find(&bundles).Error
	return bundles, err
}

func (r *BundleRepository) ListAll(ctx context.Context) ([]entity.BundleLot, error) {
	var bundles []entity.BundleLot
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, created_at ASC")
		}).
		Order("created_at DESC").
		Find(&bundles).Error
	return bundles, err
}

// CountByType 各类型捆包数量
func (r *BundleRepository) CountByType(ctx context.Context) (total, same, multi int64, err error) {
	if err = r.db.WithContext(ctx).Model(&entity.BundleLot{}).Count(&total).Error; err != nil {
		return
	}
	if err = r.db.WithContext(ctx).Model(&entity.BundleLot{}).
		Where("bundle_type = ?", entity.BundleSameProduct).Count(&same).Error; err != nil {
		return
	}
	err = r.db.WithContext(ctx).Model(&entity.BundleLot{}).
		Where("bundle_type = ?", entity.BundleMultiProduct).Count(&multi).Error
	return
}
