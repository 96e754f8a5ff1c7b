package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/harness-mes/internal/mes/entity"
	"github.com/bitfantasy/harness-mes/internal/mes/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LotService 生产批次服务。批次号经发号器生成：
// {产品编码}-{工序简码}{YYMMDD}-{序号:04}，如 MSP001Q100-S241223-0001。
type LotService struct {
	lotRepo     *repository.LotRepository
	productRepo *repository.ProductRepository
	seqRepo     *repository.SequenceRepository
	logger      *zap.Logger
}

func NewLotService(lotRepo *repository.LotRepository, productRepo *repository.ProductRepository, seqRepo *repository.SequenceRepository, logger *zap.Logger) *LotService {
	return &LotService{lotRepo: lotRepo, productRepo: productRepo, seqRepo: seqRepo, logger: logger}
}

// CreateLotRequest 开工请求
type CreateLotRequest struct {
	ProductCode string  `json:"product_code" binding:"required"`
	ProcessCode string  `json:"process_code" binding:"required"`
	PlannedQty  float64 `json:"planned_qty" binding:"required,gt=0"`
}

// Create 工序开工，生成批次
func (s *LotService) Create(ctx context.Context, userID string, req *CreateLotRequest) (*entity.ProductionLot, error) {
	product, err := s.productRepo.FindByCode(ctx, req.ProductCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("产品 %s 不存在: %w", req.ProductCode, ErrProductNotFound)
		}
		return nil, fmt.Errorf("查询产品失败: %w", err)
	}

	process, err := s.productRepo.FindProcess(ctx, req.ProcessCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("工序 %s 未定义: %w", req.ProcessCode, ErrInvalidInput)
		}
		return nil, fmt.Errorf("查询工序失败: %w", err)
	}

	seq, err := s.seqRepo.Next(ctx, req.ProcessCode)
	if err != nil {
		return nil, fmt.Errorf("批次取号失败: %w", err)
	}
	lotNumber := fmt.Sprintf("%s-%s%s-%04d",
		product.Code, process.ShortCode, repository.Period(time.Now()), seq)

	lot := &entity.ProductionLot{
		ID:          uuid.New().String(),
		LotNumber:   lotNumber,
		ProductID:   product.ID,
		ProductCode: product.Code,
		ProcessCode: req.ProcessCode,
		Status:      entity.LotStatusCreated,
		PlannedQty:  req.PlannedQty,
		CreatedBy:   userID,
	}
	if err := s.lotRepo.Create(ctx, lot); err != nil {
		return nil, fmt.Errorf("创建批次失败: %w", err)
	}

	s.logger.Info("production lot created",
		zap.String("lot_number", lot.LotNumber),
		zap.String("product_code", lot.ProductCode),
		zap.String("process_code", lot.ProcessCode),
	)
	return lot, nil
}

// Get 按批次号查批次
func (s *LotService) Get(ctx context.Context, lotNumber string) (*entity.ProductionLot, error) {
	lot, err := s.lotRepo.FindByLotNumber(ctx, lotNumber)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("批次 %s 不存在: %w", lotNumber, ErrLotNotFound)
	}
	return lot, err
}

// Start 开始生产
func (s *LotService) Start(ctx context.Context, lotNumber string) (*entity.ProductionLot, error) {
	lot, err := s.Get(ctx, lotNumber)
	if err != nil {
		return nil, err
	}
	if lot.Status != entity.LotStatusCreated {
		return nil, fmt.Errorf("批次 %s 当前状态 %s 不能开工: %w", lotNumber, lot.Status, ErrInvalidInput)
	}
	now := time.Now()
	lot.Status = entity.LotStatusInProgress
	lot.StartedAt = &now
	if err := s.lotRepo.Update(ctx, lot); err != nil {
		return nil, fmt.Errorf("更新批次失败: %w", err)
	}
	return lot, nil
}

// ReportQuantity 报工，累计完成数量
func (s *LotService) ReportQuantity(ctx context.Context, lotNumber string, quantity float64) (*entity.ProductionLot, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("报工数量必须大于0: %w", ErrInvalidInput)
	}
	lot, err := s.Get(ctx, lotNumber)
	if err != nil {
		return nil, err
	}
	if lot.Status == entity.LotStatusCompleted {
		return nil, fmt.Errorf("批次 %s 已完工: %w", lotNumber, ErrInvalidInput)
	}
	lot.CompletedQty += quantity
	if lot.Status == entity.LotStatusCreated {
		now := time.Now()
		lot.Status = entity.LotStatusInProgress
		lot.StartedAt = &now
	}
	if err := s.lotRepo.Update(ctx, lot); err != nil {
		return nil, fmt.Errorf("更新批次失败: %w", err)
	}
	return lot, nil
}

// Complete 完工，状态终结
func (s *LotService) Complete(ctx context.Context, lotNumber string) (*entity.ProductionLot, error) {
	lot, err := s.Get(ctx, lotNumber)
	if err != nil {
		return nil, err
	}
	if lot.Status == entity.LotStatusCompleted {
		return lot, nil
	}
	now := time.Now()
	lot.Status = entity.LotStatusCompleted
	lot.CompletedAt = &now
	if err := s.lotRepo.Update(ctx, lot); err != nil {
		return nil, fmt.Errorf("更新批次失败: %w", err)
	}
	s.logger.Info("production lot completed",
		zap.String("lot_number", lot.LotNumber),
		zap.Float64("completed_qty", lot.CompletedQty),
	)
	return lot, nil
}
