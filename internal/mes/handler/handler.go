package handler

import (
	"github.com/bitfantasy/harness-mes/internal/mes/service"
	"github.com/bitfantasy/harness-mes/internal/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers 处理器集合
type Handlers struct {
	Hierarchy  *HierarchyHandler
	Inspection *InspectionHandler
	Lot        *LotHandler
	Trace      *TraceHandler
	Bundle     *BundleHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Hierarchy:  NewHierarchyHandler(svc.Hierarchy),
		Inspection: NewInspectionHandler(svc.Inspection),
		Lot:        NewLotHandler(svc.Lot),
		Trace:      NewTraceHandler(svc.Trace, svc.Export),
		Bundle:     NewBundleHandler(svc.Bundle, svc.Export),
	}
}

// RegisterRoutes 注册全部业务路由
func (h *Handlers) RegisterRoutes(api *gin.RouterGroup) {
	// 工序基础数据
	api.GET("/processes", h.Hierarchy.Processes)

	// 产品层级
	api.POST("/products/:code/hierarchy", h.Hierarchy.Create)
	api.GET("/products/:code/hierarchy", h.Hierarchy.Get)

	// 压接检查门禁
	api.POST("/inspections/crimp", h.Inspection.Record)
	api.GET("/inspections/crimp/:barcode", h.Inspection.History)
	api.GET("/inspections/crimp/:barcode/check", h.Inspection.Check)
	api.POST("/sp/validate", h.Inspection.ValidateSPInputs)

	// 生产批次
	api.POST("/lots", h.Lot.Create)
	api.GET("/lots/:lotNumber", h.Lot.Get)
	api.POST("/lots/:lotNumber/start", h.Lot.Start)
	api.POST("/lots/:lotNumber/report", h.Lot.Report)
	api.POST("/lots/:lotNumber/complete", h.Lot.Complete)

	// 血缘追溯
	api.GET("/lots/:lotNumber/trace", h.Trace.Trace)
	api.GET("/lots/:lotNumber/trace/export", h.Trace.Export)
	api.POST("/lots/:lotNumber/links", h.Trace.Link)

	// 出货捆包
	api.POST("/bundles", h.Bundle.Create)
	api.GET("/bundles", h.Bundle.List)
	api.GET("/bundles/stats", h.Bundle.Stats)
	api.GET("/bundles/export", h.Bundle.Export)
	api.GET("/bundles/id/:id", h.Bundle.GetByID)
	api.GET("/bundles/:bundleNo", h.Bundle.Get)
	api.GET("/bundles/:bundleNo/details", h.Bundle.Details)
	api.GET("/bundles/:bundleNo/items", h.Bundle.FindItem)
	api.POST("/bundles/:bundleNo/items", h.Bundle.AddItem)
	api.DELETE("/bundles/:bundleNo/items/:itemId", middleware.RequireRole("mes_supervisor"), h.Bundle.RemoveItem)
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}
