package entity

import (
	"time"
)

// BundleType 捆包类型
const (
	BundleSameProduct  = "SAME_PRODUCT"
	BundleMultiProduct = "MULTI_PRODUCT"
)

// BundleLot 出货捆包，聚合若干完工批次。
// totalQty / setQuantity 与明细始终保持一致（同一事务内维护）。
type BundleLot struct {
	ID          string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	BundleNo    string     `json:"bundle_no" gorm:"size:32;not null;uniqueIndex"`
	BundleType  string     `json:"bundle_type" gorm:"size:16;not null;index"` // SAME_PRODUCT / MULTI_PRODUCT
	SetQuantity int        `json:"set_quantity" gorm:"not null"`              // 明细条数
	TotalQty    float64    `json:"total_qty" gorm:"type:decimal(12,4);not null"`
	CreatedBy   string     `json:"created_by" gorm:"size:64"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at" gorm:"index"`

	Items []BundleItem `json:"items,omitempty" gorm:"foreignKey:BundleID"`
}

func (BundleLot) TableName() string {
	return "mes_bundle_lots"
}

// BundleItem 捆包明细，捆包时快照批次的产品/工序
type BundleItem struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	BundleID    string    `json:"bundle_id" gorm:"type:uuid;not null;index"`
	LotID       string    `json:"lot_id" gorm:"type:uuid;not null;index"`
	LotNumber   string    `json:"lot_number" gorm:"size:64;not null"`
	ProductID   string    `json:"product_id" gorm:"type:uuid"`
	ProductCode string    `json:"product_code" gorm:"size:64;not null"`
	ProcessCode string    `json:"process_code" gorm:"size:8"`
	Quantity    float64   `json:"quantity" gorm:"type:decimal(12,4);not null"`
	SortOrder   int       `json:"sort_order" gorm:"default:0"`
	CreatedAt   time.Time `json:"created_at"`
}

func (BundleItem) TableName() string {
	return "mes_bundle_items"
}
