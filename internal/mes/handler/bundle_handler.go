package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bitfantasy/harness-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

type BundleHandler struct {
	svc       *service.BundleService
	exportSvc *service.ExportService
}

func NewBundleHandler(svc *service.BundleService, exportSvc *service.ExportService) *BundleHandler {
	return &BundleHandler{svc: svc, exportSvc: exportSvc}
}

type createBundleRequest struct {
	Items []service.BundleItemInput `json:"items"`
}

// Create 创建捆包
func (h *BundleHandler) Create(c *gin.Context) {
	var req createBundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	bundle, err := h.svc.CreateSetBundle(c.Request.Context(), GetUserID(c), req.Items)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			BadRequest(c, err.Error())
		case errors.Is(err, service.ErrLotNotFound):
			NotFound(c, err.Error())
		default:
			InternalError(c, err.Error())
		}
		return
	}
	Created(c, bundle)
}

// List 捆包列表；type=multi 只看混装捆包
func (h *BundleHandler) List(c *gin.Context) {
	if c.Query("type") == "multi" {
		bundles, err := h.svc.GetMultiProductBundles(c.Request.Context())
		if err != nil {
			InternalError(c, err.Error())
			return
		}
		Success(c, gin.H{"items": bundles})
		return
	}

	bundles, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{"items": bundles})
}

// Get 按捆包号查捆包
func (h *BundleHandler) Get(c *gin.Context) {
	bundle, err := h.svc.GetBundleByNo(c.Request.Context(), c.Param("bundleNo"))
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	if bundle == nil {
		NotFound(c, fmt.Sprintf("捆包 %s 不存在", c.Param("bundleNo")))
		return
	}
	Success(c, bundle)
}

// GetByID 按主键查捆包
func (h *BundleHandler) GetByID(c *gin.Context) {
	bundle, err := h.svc.GetBundleByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	if bundle == nil {
		NotFound(c, fmt.Sprintf("捆包 %s 不存在", c.Param("id")))
		return
	}
	Success(c, bundle)
}

// Details 捆包详情（含产品名称与去重产品数）
func (h *BundleHandler) Details(c *gin.Context) {
	details, err := h.svc.GetBundleDetails(c.Request.Context(), c.Param("bundleNo"))
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	if details == nil {
		NotFound(c, fmt.Sprintf("捆包 %s 不存在", c.Param("bundleNo")))
		return
	}
	Success(c, details)
}

// FindItem 按产品编码在捆包内定位明细，?product_code= 必填
func (h *BundleHandler) FindItem(c *gin.Context) {
	productCode := c.Query("product_code")
	if productCode == "" {
		BadRequest(c, "缺少 product_code 参数")
		return
	}

	item, err := h.svc.FindItemInBundle(c.Request.Context(), c.Param("bundleNo"), productCode)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	if item == nil {
		NotFound(c, fmt.Sprintf("捆包 %s 中没有产品 %s", c.Param("bundleNo"), productCode))
		return
	}
	Success(c, item)
}

// Stats 捆包汇总统计
func (h *BundleHandler) Stats(c *gin.Context) {
	stats, err := h.svc.GetSetBundleStats(c.Request.Context())
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, stats)
}

// AddItem 追加捆包明细
func (h *BundleHandler) AddItem(c *gin.Context) {
	var req service.BundleItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	bundle, err := h.svc.AddItem(c.Request.Context(), c.Param("bundleNo"), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			BadRequest(c, err.Error())
		case errors.Is(err, service.ErrLotNotFound):
			NotFound(c, err.Error())
		default:
			InternalError(c, err.Error())
		}
		return
	}
	Success(c, bundle)
}

// RemoveItem 移除捆包明细
func (h *BundleHandler) RemoveItem(c *gin.Context) {
	bundle, err := h.svc.RemoveItem(c.Request.Context(), c.Param("bundleNo"), c.Param("itemId"))
	if err != nil {
		if errors.Is(err, service.ErrLotNotFound) {
			NotFound(c, err.Error())
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, bundle)
}

// Export 捆包台账导出 xlsx
func (h *BundleHandler) Export(c *gin.Context) {
	f, err := h.exportSvc.ExportBundles(c.Request.Context())
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	filename := fmt.Sprintf("bundles-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}
