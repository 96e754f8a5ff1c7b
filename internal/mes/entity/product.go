package entity

import (
	"time"
)

// ProductStatus 产品状态
const (
	ProductStatusActive   = "ACTIVE"
	ProductStatusInactive = "INACTIVE"
)

// Product 产品（成品及各类半成品）
type Product struct {
	ID          string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Code        string     `json:"code" gorm:"size:64;not null;uniqueIndex"`
	Name        string     `json:"name" gorm:"size:128"`
	ProductType string     `json:"product_type" gorm:"size:16;not null;index"` // FINISHED, SEMI_CA, SEMI_MS, SEMI_MC, SEMI_SB, SEMI_HS
	RootCode    string     `json:"root_code" gorm:"size:64;not null;index"`    // 成品编码（去掉前缀/回路号）
	ParentCode  string     `json:"parent_code" gorm:"size:64;index"`           // 上级产品编码，成品为空
	CircuitNo   *int       `json:"circuit_no"`                                 // 回路号，仅压接/中剥半成品有值
	ProcessCode string     `json:"process_code" gorm:"size:8"`                 // 生产该产品的工序
	Status      string     `json:"status" gorm:"size:16;not null;default:ACTIVE"`
	CreatedBy   string     `json:"created_by" gorm:"size:64"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at" gorm:"index"`
}

func (Product) TableName() string {
	return "mes_products"
}
