package handler

import (
	"errors"

	"github.com/bitfantasy/harness-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

type InspectionHandler struct {
	svc *service.InspectionService
}

func NewInspectionHandler(svc *service.InspectionService) *InspectionHandler {
	return &InspectionHandler{svc: svc}
}

// Record 录入压接检查。非检查对象返回 success=false，HTTP 仍为 200。
func (h *InspectionHandler) Record(c *gin.Context) {
	var req service.RecordCrimpInspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	if req.InspectedBy == "" {
		req.InspectedBy = GetUserID(c)
	}

	result, err := h.svc.RecordCrimpInspection(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			BadRequest(c, err.Error())
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, result)
}

// History 某条码检查记录（旧→新）
func (h *InspectionHandler) History(c *gin.Context) {
	records, err := h.svc.GetCrimpInspectionHistory(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{"items": records})
}

// Check 门禁判定
func (h *InspectionHandler) Check(c *gin.Context) {
	result, err := h.svc.CheckCrimpInspectionPassed(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, result)
}

type validateSPRequest struct {
	Barcodes []string `json:"barcodes"`
}

// ValidateSPInputs 批量校验SP投入。单条码直接传单元素数组。
func (h *InspectionHandler) ValidateSPInputs(c *gin.Context) {
	var req validateSPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.svc.ValidateSPProcessInputs(c.Request.Context(), req.Barcodes)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, result)
}
