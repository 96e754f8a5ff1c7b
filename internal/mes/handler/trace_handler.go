package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bitfantasy/harness-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

type TraceHandler struct {
	svc       *service.TraceService
	exportSvc *service.ExportService
}

func NewTraceHandler(svc *service.TraceService, exportSvc *service.ExportService) *TraceHandler {
	return &TraceHandler{svc: svc, exportSvc: exportSvc}
}

// Trace 血缘追溯。direction=backward（默认）或 forward；
// flat=1 时附带先序展开的节点列表。
func (h *TraceHandler) Trace(c *gin.Context) {
	lotNumber := c.Param("lotNumber")

	result, err := h.trace(c, lotNumber)
	if err != nil {
		if errors.Is(err, service.ErrTraceAnomaly) {
			Error(c, 40900, err.Error())
			return
		}
		InternalError(c, err.Error())
		return
	}

	if c.Query("flat") == "1" {
		Success(c, gin.H{"result": result, "nodes": result.Flatten()})
		return
	}
	Success(c, result)
}

// Export 追溯结果导出 xlsx
func (h *TraceHandler) Export(c *gin.Context) {
	lotNumber := c.Param("lotNumber")

	result, err := h.trace(c, lotNumber)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	if !result.Found {
		NotFound(c, fmt.Sprintf("批次 %s 不存在", lotNumber))
		return
	}

	f, err := h.exportSvc.ExportTrace(result)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="trace-%s.xlsx"`, lotNumber))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}

func (h *TraceHandler) trace(c *gin.Context, lotNumber string) (*service.TraceResult, error) {
	if strings.EqualFold(c.DefaultQuery("direction", "backward"), "forward") {
		return h.svc.Forward(c.Request.Context(), lotNumber)
	}
	return h.svc.Backward(c.Request.Context(), lotNumber)
}

type linkRequest struct {
	ParentLotNo  string  `json:"parent_lot_no" binding:"required"`
	ParentType   string  `json:"parent_type"`
	MaterialCode string  `json:"material_code"`
	Quantity     float64 `json:"quantity" binding:"required,gt=0"`
}

// Link 登记血缘边；URL中的批次为子批次
func (h *TraceHandler) Link(c *gin.Context) {
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	link, err := h.svc.LinkLots(c.Request.Context(),
		req.ParentLotNo, req.ParentType, req.MaterialCode,
		c.Param("lotNumber"), req.Quantity, GetUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			BadRequest(c, err.Error())
			return
		}
		InternalError(c, err.Error())
		return
	}
	Created(c, link)
}
