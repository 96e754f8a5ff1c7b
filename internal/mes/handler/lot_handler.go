package handler

import (
	"errors"

	"github.com/bitfantasy/harness-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

type LotHandler struct {
	svc *service.LotService
}

func NewLotHandler(svc *service.LotService) *LotHandler {
	return &LotHandler{svc: svc}
}

// Create 工序开工
func (h *LotHandler) Create(c *gin.Context) {
	var req service.CreateLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	lot, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			NotFound(c, err.Error())
		case errors.Is(err, service.ErrInvalidInput):
			BadRequest(c, err.Error())
		default:
			InternalError(c, err.Error())
		}
		return
	}
	Created(c, lot)
}

// Get 批次详情
func (h *LotHandler) Get(c *gin.Context) {
	lot, err := h.svc.Get(c.Request.Context(), c.Param("lotNumber"))
	if err != nil {
		if errors.Is(err, service.ErrLotNotFound) {
			NotFound(c, err.Error())
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, lot)
}

// Start 开始生产
func (h *LotHandler) Start(c *gin.Context) {
	lot, err := h.svc.Start(c.Request.Context(), c.Param("lotNumber"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	Success(c, lot)
}

type reportRequest struct {
	Quantity float64 `json:"quantity" binding:"required,gt=0"`
}

// Report 报工
func (h *LotHandler) Report(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	lot, err := h.svc.ReportQuantity(c.Request.Context(), c.Param("lotNumber"), req.Quantity)
	if err != nil {
		h.writeError(c, err)
		return
	}
	Success(c, lot)
}

// Complete 完工
func (h *LotHandler) Complete(c *gin.Context) {
	lot, err := h.svc.Complete(c.Request.Context(), c.Param("lotNumber"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	Success(c, lot)
}

func (h *LotHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrLotNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		BadRequest(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}
