package handler

import (
	"errors"

	"github.com/bitfantasy/harness-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

type HierarchyHandler struct {
	svc *service.HierarchyService
}

func NewHierarchyHandler(svc *service.HierarchyService) *HierarchyHandler {
	return &HierarchyHandler{svc: svc}
}

type createHierarchyRequest struct {
	CircuitCount int      `json:"circuit_count"`
	Processes    []string `json:"processes" binding:"required"`
}

// Create 按成品定义生成半成品层级
func (h *HierarchyHandler) Create(c *gin.Context) {
	finishedCode := c.Param("code")

	var req createHierarchyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	hierarchy, err := h.svc.CreateProductHierarchy(c.Request.Context(), finishedCode, req.CircuitCount, req.Processes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			NotFound(c, err.Error())
		case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrNotAdmissible):
			BadRequest(c, err.Error())
		default:
			InternalError(c, err.Error())
		}
		return
	}
	Created(c, hierarchy)
}

// Processes 工序定义列表，按流程顺序
func (h *HierarchyHandler) Processes(c *gin.Context) {
	processes, err := h.svc.ListProcesses(c.Request.Context())
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{"items": processes})
}

// Get 回读产品层级
func (h *HierarchyHandler) Get(c *gin.Context) {
	hierarchy, err := h.svc.GetProductHierarchy(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			NotFound(c, err.Error())
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, hierarchy)
}
