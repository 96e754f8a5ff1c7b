package entity

import (
	"time"
)

// LotStatus 生产批次状态
const (
	LotStatusCreated    = "CREATED"
	LotStatusInProgress = "IN_PROGRESS"
	LotStatusCompleted  = "COMPLETED"
)

// ProductionLot 生产批次
type ProductionLot struct {
	ID           string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	LotNumber    string     `json:"lot_number" gorm:"size:64;not null;uniqueIndex"`
	ProductID    string     `json:"product_id" gorm:"type:uuid;index"`
	ProductCode  string     `json:"product_code" gorm:"size:64;not null;index"`
	ProcessCode  string     `json:"process_code" gorm:"size:8;not null;index"`
	Status       string     `json:"status" gorm:"size:16;not null;default:CREATED"`
	PlannedQty   float64    `json:"planned_qty" gorm:"type:decimal(12,4);not null"`
	CompletedQty float64    `json:"completed_qty" gorm:"type:decimal(12,4);default:0"`
	StartedAt    *time.Time `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at"`
	CreatedBy    string     `json:"created_by" gorm:"size:64"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (ProductionLot) TableName() string {
	return "mes_production_lots"
}

// 追溯节点类型
const (
	TraceTypeProduction = "PRODUCTION_LOT"
	TraceTypeMaterial   = "MATERIAL_LOT"
	TraceTypeBundle     = "BUNDLE_LOT"
)

// LotLink 批次血缘关系（父批次/材料 → 子批次）。
// 只持久化邻接边，追溯树按查询临时构建。
type LotLink struct {
	ID           string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ParentLotNo  string    `json:"parent_lot_no" gorm:"size:64;not null;index"`
	ParentType   string    `json:"parent_type" gorm:"size:16;not null;default:PRODUCTION_LOT"`
	MaterialCode string    `json:"material_code" gorm:"size:64"` // 材料批次时记录材料编码
	ChildLotNo   string    `json:"child_lot_no" gorm:"size:64;not null;index"`
	Quantity     float64   `json:"quantity" gorm:"type:decimal(12,4);not null"`
	CreatedBy    string    `json:"created_by" gorm:"size:64"`
	CreatedAt    time.Time `json:"created_at"`
}

func (LotLink) TableName() string {
	return "mes_lot_links"
}
