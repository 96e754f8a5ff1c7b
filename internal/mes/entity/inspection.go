package entity

import (
	"time"
)

// 压接检查结果
const (
	InspectionPass = "PASS"
	InspectionFail = "FAIL"
)

// CrimpInspection 压接检查记录。只追加，不修改不删除；
// 同一条码可多次检查（返工后复检），按 RecordSeq 判定最新记录。
type CrimpInspection struct {
	ID           string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	RecordSeq    int64     `json:"record_seq" gorm:"autoIncrement;uniqueIndex"` // 提交顺序，判定依据
	LotNumber    string    `json:"lot_number" gorm:"size:64;not null;index"`
	ProcessCode  string    `json:"process_code" gorm:"size:8;not null"`
	Result       string    `json:"result" gorm:"size:8;not null"` // PASS / FAIL
	DefectReason string    `json:"defect_reason" gorm:"size:256"` // 仅 FAIL 时有值
	InspectedBy  string    `json:"inspected_by" gorm:"size:64"`
	InspectedAt  time.Time `json:"inspected_at"`
	CreatedAt    time.Time `json:"created_at"`
}

func (CrimpInspection) TableName() string {
	return "mes_crimp_inspections"
}
