package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/harness-mes/internal/mes/entity"
	"gorm.io/gorm"
)

type LotRepository struct {
	db *gorm.DB
}

func NewLotRepository(db *gorm.DB) *LotRepository {
	return &LotRepository{db: db}
}

func (r *LotRepository) Create(ctx context.Context, lot *entity.ProductionLot) error {
	return r.db.WithContext(ctx).Create(lot).Error
}

func (r *LotRepository) FindByID(ctx context.Context, id string) (*entity.ProductionLot, error) {
	var lot entity.ProductionLot
	err := r.db.WithContext(ctx).First(&lot, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lot, nil
}

func (r *LotRepository) FindByLotNumber(ctx context.Context, lotNumber string) (*entity.ProductionLot, error) {
	var lot entity.ProductionLot
	err := r.db.WithContext(ctx).First(&lot, "lot_number = ?", lotNumber).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lot, nil
}

// FindByIDs 批量查询，调用方自行比对缺失项
func (r *LotRepository) FindByIDs(ctx context.Context, ids []string) ([]entity.ProductionLot, error) {
	var lots []entity.ProductionLot
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&lots).Error
	return lots, err
}

func (r *LotRepository) Update(ctx context.Context, lot *entity.ProductionLot) error {
	return r.db.WithContext(ctx).Save(lot).Error
}

// ========== LotLink 血缘边 ==========

func (r *LotRepository) CreateLink(ctx context.Context, link *entity.LotLink) error {
	return r.db.WithContext(ctx).Create(link).Error
}

// ListLinksByChildren 批量取上游边，追溯时按层取数减少往返
func (r *LotRepository) ListLinksByChildren(ctx context.Context, childLotNos []string) ([]entity.LotLink, error) {
	var links []entity.LotLink
	err := r.db.WithContext(ctx).
		Where("child_lot_no IN ?", childLotNos).
		Order("created_at ASC, id ASC").
		Find(&links).Error
	return links, err
}

// ListLinksByParents 批量取下游边
func (r *LotRepository) ListLinksByParents(ctx context.Context, parentLotNos []string) ([]entity.LotLink, error) {
	var links []entity.LotLink
	err := r.db.WithContext(ctx).
		Where("parent_lot_no IN ?", parentLotNos).
		Order("created_at ASC, id ASC").
		Find(&links).Error
	return links, err
}

// FindLotsByNumbers 按批次号批量查批次，追溯节点补充产品/状态用
func (r *LotRepository) FindLotsByNumbers(ctx context.Context, lotNumbers []string) (map[string]entity.ProductionLot, error) {
	var lots []entity.ProductionLot
	if err := r.db.WithContext(ctx).Where("lot_number IN ?", lotNumbers).Find(&lots).Error; err != nil {
		return nil, err
	}
	m := make(map[string]entity.ProductionLot, len(lots))
	for _, lot := range lots {
		m[lot.LotNumber] = lot
	}
	return m, nil
}
