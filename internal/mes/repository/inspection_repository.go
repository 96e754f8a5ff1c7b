package repository

import (
	"context"

	"github.com/bitfantasy/harness-mes/internal/mes/entity"
	"gorm.io/gorm"
)

type InspectionRepository struct {
	db *gorm.DB
}

func NewInspectionRepository(db *gorm.DB) *InspectionRepository {
	return &InspectionRepository{db: db}
}

// Append 追加一条检查记录。记录只增不改。
func (r *InspectionRepository) Append(ctx context.Context, rec *entity.CrimpInspection) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// ListByLotNumber 按提交顺序（旧→新）返回某条码的全部检查记录
func (r *InspectionRepository) ListByLotNumber(ctx context.Context, lotNumber string) ([]entity.CrimpInspection, error) {
	var records []entity.CrimpInspection
	err := r.db.WithContext(ctx).
		Where("lot_number = ?", lotNumber).
		Order("record_seq ASC").
		Find(&records).Error
	return records, err
}
