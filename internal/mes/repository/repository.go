package repository

import (
	"errors"

	"gorm.io/gorm"
)

// 错误定义。错误种类是稳定标识，展示文案由上层决定。
var (
	ErrNotFound            = errors.New("record not found")
	ErrSequenceUnavailable = errors.New("sequence unavailable")
)

// Repositories 仓库集合
type Repositories struct {
	Product    *ProductRepository
	Lot        *LotRepository
	Inspection *InspectionRepository
	Bundle     *BundleRepository
	Sequence   *SequenceRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Product:    NewProductRepository(db),
		Lot:        NewLotRepository(db),
		Inspection: NewInspectionRepository(db),
		Bundle:     NewBundleRepository(db),
		Sequence:   NewSequenceRepository(db),
	}
}
