package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/harness-mes/internal/mes/barcode"
	"github.com/bitfantasy/harness-mes/internal/mes/entity"
	"github.com/bitfantasy/harness-mes/internal/mes/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	processCacheKey = "mes:process:defs"
	processCacheTTL = 5 * time.Minute
)

// HierarchyService 产品层级服务。按成品定义批量生成半成品记录：
// CA 按回路一条、MS 跟随压接产品、MC/SB/HS 各一条。
type HierarchyService struct {
	productRepo *repository.ProductRepository
	rdb         *redis.Client
	logger      *zap.Logger
}

func NewHierarchyService(productRepo *repository.ProductRepository, rdb *redis.Client, logger *zap.Logger) *HierarchyService {
	return &HierarchyService{productRepo: productRepo, rdb: rdb, logger: logger}
}

// SemiProducts 单件半成品集合。未申请的工序对应字段为 nil。
type SemiProducts struct {
	MS []entity.Product `json:"ms"`
	MC *entity.Product  `json:"mc"`
	SB *entity.Product  `json:"sb"`
	HS *entity.Product  `json:"hs"`
}

// Hierarchy 一个成品下的完整产品层级
type Hierarchy struct {
	Finished      *entity.Product  `json:"finished"`
	CrimpProducts []entity.Product `json:"crimp_products"`
	SemiProducts  SemiProducts     `json:"semi_products"`
}

// CreateProductHierarchy 生成产品层级。
// 全部半成品在同一事务内创建，中途失败整体回滚，不留缺兄弟的层级。
// 已存在的半成品记录直接复用，不重复建。
func (s *HierarchyService) CreateProductHierarchy(ctx context.Context, finishedCode string, circuitCount int, processes []string) (*Hierarchy, error) {
	if !barcode.IsValidProductCode(finishedCode) {
		return nil, fmt.Errorf("成品编码为空: %w", ErrInvalidInput)
	}

	// 可生成半成品的工序集合；SP/PA/检查类工序没有独立的半成品编码
	generatable := map[string]bool{
		entity.ProcessCA: true,
		entity.ProcessMS: true,
		entity.ProcessMC: true,
		entity.ProcessSB: true,
		entity.ProcessHS: true,
	}
	requested := make(map[string]bool, len(processes))
	for _, p := range processes {
		if !generatable[p] {
			return nil, fmt.Errorf("工序 %s 不生成半成品: %w", p, ErrNotAdmissible)
		}
		requested[p] = true
	}

	if requested[entity.ProcessCA] && !barcode.IsValidCircuitRange(circuitCount) {
		return nil, fmt.Errorf("回路数 %d 超出范围 1~999: %w", circuitCount, ErrInvalidInput)
	}

	finished, err := s.productRepo.FindByCode(ctx, finishedCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("成品 %s 不存在: %w", finishedCode, ErrProductNotFound)
		}
		return nil, fmt.Errorf("查询成品失败: %w", err)
	}
	if finished.ProductType != string(barcode.TypeFinished) {
		return nil, fmt.Errorf("%s 不是成品编码: %w", finishedCode, ErrInvalidInput)
	}

	result := &Hierarchy{Finished: finished}

	err = s.productRepo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 压接半成品：每回路一条，编码 {成品}-{回路:03}
		if requested[entity.ProcessCA] {
			for circuit := 1; circuit <= circuitCount; circuit++ {
				code := fmt.Sprintf("%s-%03d", finishedCode, circuit)
				p, err := s.findOrCreate(tx, code, finished, entity.ProcessCA, circuit)
				if err != nil {
					return err
				}
				result.CrimpProducts = append(result.CrimpProducts, *p)
			}
		}

		// 中剥半成品：跟随已有压接产品，编码 MS{压接编码}
		if requested[entity.ProcessMS] {
			crimps := result.CrimpProducts
			if len(crimps) == 0 {
				existing, err := s.listCrimps(tx, finishedCode)
				if err != nil {
					return err
				}
				crimps = existing
			}
			for i := range crimps {
				circuit := 0
				if crimps[i].CircuitNo != nil {
					circuit = *crimps[i].CircuitNo
				}
				code := "MS" + crimps[i].Code
				p, err := s.findOrCreate(tx, code, finished, entity.ProcessMS, circuit)
				if err != nil {
					return err
				}
				result.SemiProducts.MS = append(result.SemiProducts.MS, *p)
			}
		}

		// MC/SB/HS：每编码仅一条，与回路数无关
		singles := []struct {
			process string
			target  **entity.Product
		}{
			{entity.ProcessMC, &result.SemiProducts.MC},
			{entity.ProcessSB, &result.SemiProducts.SB},
			{entity.ProcessHS, &result.SemiProducts.HS},
		}
		for _, single := range singles {
			if !requested[single.process] {
				continue
			}
			code := single.process + finishedCode
			p, err := s.findOrCreate(tx, code, finished, single.process, 0)
			if err != nil {
				return err
			}
			*single.target = p
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("创建产品层级失败: %w", err)
	}

	s.logger.Info("product hierarchy created",
		zap.String("finished_code", finishedCode),
		zap.Int("circuit_count", circuitCount),
		zap.Strings("processes", processes),
		zap.Int("crimp_products", len(result.CrimpProducts)),
	)
	return result, nil
}

// ListProcesses 工序定义列表，按流程顺序。定义基本不变，走 redis 短缓存。
func (s *HierarchyService) ListProcesses(ctx context.Context) ([]entity.ProcessDefinition, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, processCacheKey).Result(); err == nil {
			var defs []entity.ProcessDefinition
			if json.Unmarshal([]byte(cached), &defs) == nil {
				return defs, nil
			}
		}
	}

	defs, err := s.productRepo.ListProcesses(ctx)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if data, err := json.Marshal(defs); err == nil {
			s.rdb.Set(ctx, processCacheKey, data, processCacheTTL)
		}
	}
	return defs, nil
}

// GetProductHierarchy 回读已生成的层级
func (s *HierarchyService) GetProductHierarchy(ctx context.Context, finishedCode string) (*Hierarchy, error) {
	finished, err := s.productRepo.FindByCode(ctx, finishedCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("成品 %s 不存在: %w", finishedCode, ErrProductNotFound)
		}
		return nil, err
	}

	children, err := s.productRepo.ListByParentCode(ctx, finishedCode)
	if err != nil {
		return nil, fmt.Errorf("查询半成品失败: %w", err)
	}

	result := &Hierarchy{Finished: finished}
	for i := range children {
		child := children[i]
		switch barcode.ProductType(child.ProductType) {
		case barcode.TypeSemiCA:
			result.CrimpProducts = append(result.CrimpProducts, child)
		case barcode.TypeSemiMS:
			result.SemiProducts.MS = append(result.SemiProducts.MS, child)
		case barcode.TypeSemiMC:
			result.SemiProducts.MC = &children[i]
		case barcode.TypeSemiSB:
			result.SemiProducts.SB = &children[i]
		case barcode.TypeSemiHS:
			result.SemiProducts.HS = &children[i]
		}
	}
	return result, nil
}

func (s *HierarchyService) findOrCreate(tx *gorm.DB, code string, finished *entity.Product, processCode string, circuit int) (*entity.Product, error) {
	var existing entity.Product
	err := tx.First(&existing, "code = ?", code).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now()
	product := entity.Product{
		ID:          uuid.New().String(),
		Code:        code,
		Name:        finished.Name,
		ProductType: string(barcode.InferProductType(code)),
		RootCode:    finished.Code,
		ParentCode:  finished.Code,
		ProcessCode: processCode,
		Status:      entity.ProductStatusActive,
		CreatedBy:   finished.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if circuit > 0 {
		product.CircuitNo = &circuit
	}
	if err := tx.Create(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *HierarchyService) listCrimps(tx *gorm.DB, finishedCode string) ([]entity.Product, error) {
	var crimps []entity.Product
	err := tx.Where("parent_code = ? AND product_type = ?", finishedCode, string(barcode.TypeSemiCA)).
		Order("circuit_no ASC").
		Find(&crimps).Error
	return crimps, err
}
