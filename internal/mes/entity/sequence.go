package entity

import (
	"time"
)

// SequenceCounter 发号器。按 (prefix, period) 一行，首次取号时创建；
// 自增必须在行锁事务内执行，进程内不缓存当前值。
type SequenceCounter struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Prefix    string    `json:"prefix" gorm:"size:16;not null;uniqueIndex:idx_seq_prefix_period"`
	Period    string    `json:"period" gorm:"size:8;not null;uniqueIndex:idx_seq_prefix_period"` // YYMMDD
	Value     int64     `json:"value" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SequenceCounter) TableName() string {
	return "mes_sequence_counters"
}
