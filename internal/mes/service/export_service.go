package service

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExportService 出货台账导出
type ExportService struct {
	bundleSvc *BundleService
}

func NewExportService(bundleSvc *BundleService) *ExportService {
	return &ExportService{bundleSvc: bundleSvc}
}

// ExportBundles 导出全部捆包及明细到 xlsx
func (s *ExportService) ExportBundles(ctx context.Context) (*excelize.File, error) {
	bundles, err := s.bundleSvc.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询捆包失败: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "捆包台账"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"捆包号", "类型", "明细数", "总数量", "批次号", "产品编码", "工序", "数量", "创建时间"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, bundle := range bundles {
		if len(bundle.Items) == 0 {
			s.writeRow(f, sheet, row, []interface{}{
				bundle.BundleNo, bundle.BundleType, bundle.SetQuantity, bundle.TotalQty,
				"", "", "", "", bundle.CreatedAt.Format("2006-01-02 15:04:05"),
			})
			row++
			continue
		}
		for _, item := range bundle.Items {
			s.writeRow(f, sheet, row, []interface{}{
				bundle.BundleNo, bundle.BundleType, bundle.SetQuantity, bundle.TotalQty,
				item.LotNumber, item.ProductCode, item.ProcessCode, item.Quantity,
				bundle.CreatedAt.Format("2006-01-02 15:04:05"),
			})
			row++
		}
	}
	return f, nil
}

// ExportTrace 导出追溯树（先序展开）到 xlsx
func (s *ExportService) ExportTrace(result *TraceResult) (*excelize.File, error) {
	f := excelize.NewFile()
	const sheet = "追溯"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"层级", "批次号", "类型", "产品编码", "材料编码", "工序", "数量", "状态"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for i, node := range result.Flatten() {
		s.writeRow(f, sheet, i+2, []interface{}{
			node.Depth, node.LotNumber, node.Type, node.ProductCode,
			node.MaterialCode, node.ProcessCode, node.Quantity, node.Status,
		})
	}
	return f, nil
}

func (s *ExportService) writeRow(f *excelize.File, sheet string, row int, values []interface{}) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		f.SetCellValue(sheet, cell, v)
	}
}
