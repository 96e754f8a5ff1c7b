package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/harness-mes/internal/mes/barcode"
	"github.com/bitfantasy/harness-mes/internal/mes/entity"
	"github.com/bitfantasy/harness-mes/internal/mes/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InspectionService 压接检查门禁。
// CA/MC 工序的批次必须最新一次压接检查合格才能流入下游工序。
type InspectionService struct {
	inspectionRepo *repository.InspectionRepository
	logger         *zap.Logger
}

func NewInspectionService(inspectionRepo *repository.InspectionRepository, logger *zap.Logger) *InspectionService {
	return &InspectionService{inspectionRepo: inspectionRepo, logger: logger}
}

// RecordCrimpInspectionRequest 录入压接检查请求
type RecordCrimpInspectionRequest struct {
	Barcode      string `json:"barcode" binding:"required"`
	Result       string `json:"result" binding:"required"` // PASS / FAIL
	DefectReason string `json:"defect_reason"`
	InspectedBy  string `json:"inspected_by"`
}

// RecordCrimpInspectionResult 录入结果。非检查对象返回 Success=false，不落记录。
type RecordCrimpInspectionResult struct {
	Success      bool   `json:"success"`
	InspectionID string `json:"inspection_id,omitempty"`
	Message      string `json:"message"`
}

// RecordCrimpInspection 录入一条压接检查记录。
// 工序从条码推导；推导不出时按 CA 对待（沿用现场既有行为）。
func (s *InspectionService) RecordCrimpInspection(ctx context.Context, req *RecordCrimpInspectionRequest) (*RecordCrimpInspectionResult, error) {
	if req.Barcode == "" {
		return nil, fmt.Errorf("条码为空: %w", ErrInvalidInput)
	}
	if req.Result != entity.InspectionPass && req.Result != entity.InspectionFail {
		return nil, fmt.Errorf("检查结果必须为 PASS 或 FAIL: %w", ErrInvalidInput)
	}

	processCode := barcode.DeriveProcessCode(req.Barcode)
	if processCode == "" {
		processCode = entity.ProcessCA
	}

	if !entity.CrimpTargets[processCode] {
		return &RecordCrimpInspectionResult{
			Success: false,
			Message: fmt.Sprintf("该条码不是压接检查对象（%s 工序）", processCode),
		}, nil
	}

	rec := &entity.CrimpInspection{
		ID:           uuid.New().String(),
		LotNumber:    req.Barcode,
		ProcessCode:  processCode,
		Result:       req.Result,
		DefectReason: req.DefectReason,
		InspectedBy:  req.InspectedBy,
		InspectedAt:  time.Now(),
	}
	if err := s.inspectionRepo.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("保存检查记录失败: %w", err)
	}

	message := "压接检查合格"
	if req.Result == entity.InspectionFail {
		message = "压接检查不合格"
		if req.DefectReason != "" {
			message = fmt.Sprintf("压接检查不合格：%s", req.DefectReason)
		}
	}

	s.logger.Info("crimp inspection recorded",
		zap.String("barcode", req.Barcode),
		zap.String("process_code", processCode),
		zap.String("result", req.Result),
	)
	return &RecordCrimpInspectionResult{
		Success:      true,
		InspectionID: rec.ID,
		Message:      message,
	}, nil
}

// GetCrimpInspectionHistory 某条码全部检查记录，旧→新
func (s *InspectionService) GetCrimpInspectionHistory(ctx context.Context, barcodeStr string) ([]entity.CrimpInspection, error) {
	return s.inspectionRepo.ListByLotNumber(ctx, barcodeStr)
}

// CrimpCheckResult 门禁判定结果
type CrimpCheckResult struct {
	Barcode                 string                   `json:"barcode"`
	ProcessCode             string                   `json:"process_code"`
	RequiresCrimpInspection bool                     `json:"requires_crimp_inspection"`
	HasCrimpInspection      bool                     `json:"has_crimp_inspection"`
	Passed                  bool                     `json:"passed"`
	Inspections             []entity.CrimpInspection `json:"inspections"`
	Message                 string                   `json:"message"`
}

// CheckCrimpInspectionPassed 判定某条码是否可流入下游。
// 最新一条记录（按提交顺序）为准；无需检查的工序一律放行；
// 推导不出工序的条码不做管控。
func (s *InspectionService) CheckCrimpInspectionPassed(ctx context.Context, barcodeStr string) (*CrimpCheckResult, error) {
	processCode := barcode.DeriveProcessCode(barcodeStr)

	result := &CrimpCheckResult{
		Barcode:     barcodeStr,
		ProcessCode: processCode,
	}

	if processCode == "" {
		result.Passed = true
		result.Message = "无法识别工序，不做压接检查管控"
		return result, nil
	}

	result.RequiresCrimpInspection = entity.CrimpTargets[processCode]
	if !result.RequiresCrimpInspection {
		result.Passed = true
		result.Message = fmt.Sprintf("%s 工序无需压接检查", processCode)
		return result, nil
	}

	history, err := s.inspectionRepo.ListByLotNumber(ctx, barcodeStr)
	if err != nil {
		return nil, fmt.Errorf("查询检查记录失败: %w", err)
	}
	result.Inspections = history
	result.HasCrimpInspection = len(history) > 0

	if !result.HasCrimpInspection {
		result.Message = "压接检查未实施"
		return result, nil
	}

	latest := history[len(history)-1]
	result.Passed = latest.Result == entity.InspectionPass
	if result.Passed {
		result.Message = "压接检查合格"
	} else {
		result.Message = "压接检查不合格"
		if latest.DefectReason != "" {
			result.Message = fmt.Sprintf("压接检查不合格：%s", latest.DefectReason)
		}
	}
	return result, nil
}

// SPValidationResult 单条码SP投入校验结果
type SPValidationResult struct {
	Barcode                 string   `json:"barcode"`
	IsValid                 bool     `json:"is_valid"`
	ProcessCode             string   `json:"process_code"`
	RequiresCrimpInspection bool     `json:"requires_crimp_inspection"`
	CrimpInspectionPassed   bool     `json:"crimp_inspection_passed"`
	Errors                  []string `json:"errors"`
}

// ValidateSPProcessInput 校验条码能否投入配膳（SP）工序。
// 工序必须在SP允许集合内，且压接对象须检查合格。只返回结果，不抛错。
func (s *InspectionService) ValidateSPProcessInput(ctx context.Context, barcodeStr string) (*SPValidationResult, error) {
	processCode := barcode.DeriveProcessCode(barcodeStr)

	result := &SPValidationResult{
		Barcode:     barcodeStr,
		ProcessCode: processCode,
		Errors:      []string{},
	}

	if processCode == "" {
		result.Errors = append(result.Errors, "无法识别条码所属工序")
		return result, nil
	}

	admissible := entity.SPAdmissible[processCode]
	if !admissible {
		result.Errors = append(result.Errors, fmt.Sprintf("%s 工序不能投入SP工序", processCode))
	}

	check, err := s.CheckCrimpInspectionPassed(ctx, barcodeStr)
	if err != nil {
		return nil, err
	}
	result.RequiresCrimpInspection = check.RequiresCrimpInspection
	result.CrimpInspectionPassed = check.Passed
	if check.RequiresCrimpInspection && !check.Passed {
		result.Errors = append(result.Errors, "压接检查未通过或未实施")
	}

	result.IsValid = admissible && (!check.RequiresCrimpInspection || check.Passed)
	return result, nil
}

// SPValidationSummary 批量校验汇总
type SPValidationSummary struct {
	Total         int `json:"total"`
	Passed        int `json:"passed"`
	Failed        int `json:"failed"`
	CrimpRequired int `json:"crimp_required"`
	CrimpPassed   int `json:"crimp_passed"`
}

// SPBatchValidationResult 批量校验结果
type SPBatchValidationResult struct {
	IsValid bool                 `json:"is_valid"`
	Results []SPValidationResult `json:"results"`
	Summary SPValidationSummary  `json:"summary"`
}

// ValidateSPProcessInputs 批量校验。空列表视为通过。
func (s *InspectionService) ValidateSPProcessInputs(ctx context.Context, barcodes []string) (*SPBatchValidationResult, error) {
	batch := &SPBatchValidationResult{
		IsValid: true,
		Results: []SPValidationResult{},
	}

	for _, b := range barcodes {
		single, err := s.ValidateSPProcessInput(ctx, b)
		if err != nil {
			return nil, err
		}
		batch.Results = append(batch.Results, *single)

		batch.Summary.Total++
		if single.IsValid {
			batch.Summary.Passed++
		} else {
			batch.Summary.Failed++
			batch.IsValid = false
		}
		if single.RequiresCrimpInspection {
			batch.Summary.CrimpRequired++
			if single.CrimpInspectionPassed {
				batch.Summary.CrimpPassed++
			}
		}
	}
	return batch, nil
}
