package service

import (
	"errors"

	"github.com/bitfantasy/harness-mes/internal/mes/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// 错误定义。结构性操作（建层级、捆包、发号）返回错误；
// 校验类操作（SP投入校验、压接检查判定）返回结构化结果，不抛错。
var (
	ErrProductNotFound = errors.New("product not found")
	ErrLotNotFound     = errors.New("lot not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotAdmissible   = errors.New("process not admissible")
	ErrTraceAnomaly    = errors.New("trace anomaly")
)

// Services 服务集合
type Services struct {
	Hierarchy  *HierarchyService
	Inspection *InspectionService
	Lot        *LotService
	Trace      *TraceService
	Bundle     *BundleService
	Export     *ExportService
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, rdb *redis.Client, logger *zap.Logger) *Services {
	bundleSvc := NewBundleService(repos.Bundle, repos.Lot, repos.Product, repos.Sequence, rdb, logger)
	return &Services{
		Hierarchy:  NewHierarchyService(repos.Product, rdb, logger),
		Inspection: NewInspectionService(repos.Inspection, logger),
		Lot:        NewLotService(repos.Lot, repos.Product, repos.Sequence, logger),
		Trace:      NewTraceService(repos.Lot, logger),
		Bundle:     bundleSvc,
		Export:     NewExportService(bundleSvc),
	}
}
