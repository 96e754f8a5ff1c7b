package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/harness-mes/internal/mes/entity"
	"gorm.io/gorm"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) DB() *gorm.DB {
	return r.db
}

func (r *ProductRepository) Create(ctx context.Context, product *entity.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*entity.Product, error) {
	var product entity.Product
	err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *ProductRepository) FindByCode(ctx context.Context, code string) (*entity.Product, error) {
	var product entity.Product
	err := r.db.WithContext(ctx).First(&product, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListByParentCode 按上级产品编码查询，回路号升序
func (r *ProductRepository) ListByParentCode(ctx context.Context, parentCode string) ([]entity.Product, error) {
	var products []entity.Product
	err := r.db.WithContext(ctx).
		Where("parent_code = ?", parentCode).
		Order("product_type ASC, circuit_no ASC, code ASC").
		Find(&products).Error
	return products, err
}

// ListProcesses 装载全部工序定义，按流程顺序
func (r *ProductRepository) ListProcesses(ctx context.Context) ([]entity.ProcessDefinition, error) {
	var processes []entity.ProcessDefinition
	err := r.db.WithContext(ctx).Order("seq ASC").Find(&processes).Error
	return processes, err
}

func (r *ProductRepository) FindProcess(ctx context.Context, code string) (*entity.ProcessDefinition, error) {
	var process entity.ProcessDefinition
	err := r.db.WithContext(ctx).First(&process, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &process, nil
}
