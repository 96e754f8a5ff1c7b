package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bitfantasy/harness-mes/internal/mes/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SequenceRepository 发号器。
// read-increment-write 在单个事务内完成并持有行锁，
// 多条产线并发取号不会取到重复值；号永远不在进程内存中缓存。
type SequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// Period 当前发号周期（按日）
func Period(t time.Time) string {
	return t.Format("060102")
}

// Next 取下一个号。失败时返回 ErrSequenceUnavailable，调用方不得自行编号。
func (r *SequenceRepository) Next(ctx context.Context, prefix string) (int64, error) {
	return r.next(ctx, prefix, Period(time.Now()))
}

// NextBundle 捆包号专用取号，前缀固定 BD
func (r *SequenceRepository) NextBundle(ctx context.Context) (int64, error) {
	return r.next(ctx, "BD", Period(time.Now()))
}

// NextForPeriod 指定周期取号（补录历史批次时使用）
func (r *SequenceRepository) NextForPeriod(ctx context.Context, prefix, period string) (int64, error) {
	return r.next(ctx, prefix, period)
}

func (r *SequenceRepository) next(ctx context.Context, prefix, period string) (int64, error) {
	var value int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var counter entity.SequenceCounter
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("prefix = ? AND period = ?", prefix, period).
			First(&counter).Error

		if err == gorm.ErrRecordNotFound {
			// 首次取号，惰性建行。并发建行撞唯一索引时整个事务重来一次即可，
			// 这里直接报错交给入口重试一轮。
			counter = entity.SequenceCounter{Prefix: prefix, Period: period, Value: 1}
			if err := tx.Create(&counter).Error; err != nil {
				return err
			}
			value = 1
			return nil
		}
		if err != nil {
			return err
		}

		counter.Value++
		if err := tx.Model(&entity.SequenceCounter{}).
			Where("id = ?", counter.ID).
			Update("value", counter.Value).Error; err != nil {
			return err
		}
		value = counter.Value
		return nil
	})
	if err != nil {
		// 两个并发调用同时走到惰性建行会有一方撞唯一索引，重试一次
		if isUniqueViolation(err) {
			if retryErr := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				var counter entity.SequenceCounter
				if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
					Where("prefix = ? AND period = ?", prefix, period).
					First(&counter).Error; err != nil {
					return err
				}
				counter.Value++
				if err := tx.Model(&entity.SequenceCounter{}).
					Where("id = ?", counter.ID).
					Update("value", counter.Value).Error; err != nil {
					return err
				}
				value = counter.Value
				return nil
			}); retryErr != nil {
				return 0, fmt.Errorf("%w: %v", ErrSequenceUnavailable, retryErr)
			}
			return value, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrSequenceUnavailable, err)
	}
	return value, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	// gorm 统一翻译了方言错误；pg 原生错误码 23505 也兜一下
	if err == gorm.ErrDuplicatedKey {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "UNIQUE constraint")
}
