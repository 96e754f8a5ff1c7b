package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bitfantasy/harness-mes/internal/mes/entity"
	"github.com/bitfantasy/harness-mes/internal/mes/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	bundleStatsCacheKey = "mes:bundle:stats"
	bundleStatsCacheTTL = 30 * time.Second
)

// BundleService 出货捆包服务。完工批次组包、分类与汇总查询。
type BundleService struct {
	bundleRepo  *repository.BundleRepository
	lotRepo     *repository.LotRepository
	productRepo *repository.ProductRepository
	seqRepo     *repository.SequenceRepository
	rdb         *redis.Client
	logger      *zap.Logger
}

func NewBundleService(bundleRepo *repository.BundleRepository, lotRepo *repository.LotRepository, productRepo *repository.ProductRepository, seqRepo *repository.SequenceRepository, rdb *redis.Client, logger *zap.Logger) *BundleService {
	return &BundleService{
		bundleRepo:  bundleRepo,
		lotRepo:     lotRepo,
		productRepo: productRepo,
		seqRepo:     seqRepo,
		rdb:         rdb,
		logger:      logger,
	}
}

// BundleItemInput 组包明细输入
type BundleItemInput struct {
	LotID    string  `json:"lot_id" binding:"required"`
	Quantity float64 `json:"quantity" binding:"required,gt=0"`
}

// CreateSetBundle 创建捆包。
// 全部批次须存在（缺失的整体列出，不是只报第一个）；
// 单一产品为 SAME_PRODUCT，否则 MULTI_PRODUCT，捆包号带 SET 标记；
// 捆包头与明细同一事务落库。
func (s *BundleService) CreateSetBundle(ctx context.Context, userID string, items []BundleItemInput) (*entity.BundleLot, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("捆包明细为空: %w", ErrInvalidInput)
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("捆包数量必须大于0: %w", ErrInvalidInput)
		}
		ids = append(ids, item.LotID)
	}

	lots, err := s.lotRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("查询批次失败: %w", err)
	}
	lotByID := make(map[string]entity.ProductionLot, len(lots))
	for _, lot := range lots {
		lotByID[lot.ID] = lot
	}

	var missing []string
	for _, id := range ids {
		if _, ok := lotByID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("批次不存在: %s: %w", strings.Join(missing, ", "), ErrLotNotFound)
	}

	for _, item := range items {
		lot := lotByID[item.LotID]
		if item.Quantity > lot.CompletedQty {
			return nil, fmt.Errorf("捆包数量 %.0f 超过批次 %s 完工数量 %.0f: %w",
				item.Quantity, lot.LotNumber, lot.CompletedQty, ErrInvalidInput)
		}
	}

	// 产品一致性决定捆包类型
	productIDs := make(map[string]bool)
	for _, lot := range lots {
		productIDs[lot.ProductID] = true
	}
	bundleType := entity.BundleSameProduct
	if len(productIDs) > 1 {
		bundleType = entity.BundleMultiProduct
	}

	bundleNo, err := s.mintBundleNo(ctx, bundleType)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	bundle := &entity.BundleLot{
		ID:          uuid.New().String(),
		BundleNo:    bundleNo,
		BundleType:  bundleType,
		SetQuantity: len(items),
		CreatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for i, item := range items {
		lot := lotByID[item.LotID]
		bundle.TotalQty += item.Quantity
		bundle.Items = append(bundle.Items, entity.BundleItem{
			ID:          uuid.New().String(),
			LotID:       lot.ID,
			LotNumber:   lot.LotNumber,
			ProductID:   lot.ProductID,
			ProductCode: lot.ProductCode,
			ProcessCode: lot.ProcessCode,
			Quantity:    item.Quantity,
			SortOrder:   i,
			CreatedAt:   now,
		})
	}

	if err := s.bundleRepo.CreateWithItems(ctx, bundle); err != nil {
		return nil, fmt.Errorf("创建捆包失败: %w", err)
	}

	s.invalidateStats(ctx)
	s.logger.Info("set bundle created",
		zap.String("bundle_no", bundle.BundleNo),
		zap.String("bundle_type", bundle.BundleType),
		zap.Int("set_quantity", bundle.SetQuantity),
		zap.Float64("total_qty", bundle.TotalQty),
	)
	return bundle, nil
}

// mintBundleNo 经发号器取捆包号。混装捆包号含 SET 标记，一眼可辨。
func (s *BundleService) mintBundleNo(ctx context.Context, bundleType string) (string, error) {
	seq, err := s.seqRepo.NextBundle(ctx)
	if err != nil {
		return "", fmt.Errorf("捆包取号失败: %w", err)
	}
	period := repository.Period(time.Now())
	if bundleType == entity.BundleMultiProduct {
		return fmt.Sprintf("BDSET%s%04d", period, seq), nil
	}
	return fmt.Sprintf("BD%s%04d", period, seq), nil
}

// GetBundleByNo 按捆包号查捆包；不存在返回 nil
func (s *BundleService) GetBundleByNo(ctx context.Context, bundleNo string) (*entity.BundleLot, error) {
	bundle, err := s.bundleRepo.FindByNo(ctx, bundleNo)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return bundle, err
}

// GetBundleByID 按主键查捆包；不存在返回 nil
func (s *BundleService) GetBundleByID(ctx context.Context, id string) (*entity.BundleLot, error) {
	bundle, err := s.bundleRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return bundle, err
}

// BundleDetailItem 明细（补充产品名称）
type BundleDetailItem struct {
	LotID       string  `json:"lot_id"`
	LotNumber   string  `json:"lot_number"`
	ProductCode string  `json:"product_code"`
	ProductName string  `json:"product_name"`
	ProcessCode string  `json:"process_code"`
	Quantity    float64 `json:"quantity"`
}

// BundleDetails 捆包详情
type BundleDetails struct {
	BundleNo           string             `json:"bundle_no"`
	BundleType         string             `json:"bundle_type"`
	SetQuantity        int                `json:"set_quantity"`
	TotalQuantity      float64            `json:"total_quantity"`
	UniqueProductCount int                `json:"unique_product_count"`
	Items              []BundleDetailItem `json:"items"`
}

// GetBundleDetails 捆包详情。明细补充产品名称，统计不同产品数。
// 捆包不存在返回 nil。
func (s *BundleService) GetBundleDetails(ctx context.Context, bundleNo string) (*BundleDetails, error) {
	bundle, err := s.GetBundleByNo(ctx, bundleNo)
	if err != nil || bundle == nil {
		return nil, err
	}

	details := &BundleDetails{
		BundleNo:      bundle.BundleNo,
		BundleType:    bundle.BundleType,
		SetQuantity:   bundle.SetQuantity,
		TotalQuantity: bundle.TotalQty,
		Items:         make([]BundleDetailItem, 0, len(bundle.Items)),
	}

	uniq := make(map[string]bool)
	for _, item := range bundle.Items {
		uniq[item.ProductCode] = true

		// 产品档案缺失只是名称留空，查询故障要向上报
		name := ""
		product, err := s.productRepo.FindByCode(ctx, item.ProductCode)
		switch {
		case err == nil:
			name = product.Name
		case !errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("查询产品 %s 失败: %w", item.ProductCode, err)
		}
		details.Items = append(details.Items, BundleDetailItem{
			LotID:       item.LotID,
			LotNumber:   item.LotNumber,
			ProductCode: item.ProductCode,
			ProductName: name,
			ProcessCode: item.ProcessCode,
			Quantity:    item.Quantity,
		})
	}
	details.UniqueProductCount = len(uniq)
	return details, nil
}

// FindItemInBundle 按产品编码在捆包内找首条明细（按存储顺序）；
// 捆包或产品不存在返回 nil。
func (s *BundleService) FindItemInBundle(ctx context.Context, bundleNo, productCode string) (*entity.BundleItem, error) {
	bundle, err := s.GetBundleByNo(ctx, bundleNo)
	if err != nil || bundle == nil {
		return nil, err
	}
	for i := range bundle.Items {
		if bundle.Items[i].ProductCode == productCode {
			return &bundle.Items[i], nil
		}
	}
	return nil, nil
}

// GetMultiProductBundles 全部混装捆包
func (s *BundleService) GetMultiProductBundles(ctx context.Context) ([]entity.BundleLot, error) {
	return s.bundleRepo.ListByType(ctx, entity.BundleMultiProduct)
}

// ListAll 全部捆包（导出用）
func (s *BundleService) ListAll(ctx context.Context) ([]entity.BundleLot, error) {
	return s.bundleRepo.ListAll(ctx)
}

// BundleStats 捆包汇总
type BundleStats struct {
	TotalSetBundles   int64 `json:"total_set_bundles"`
	SameProductCount  int64 `json:"same_product_count"`
	MultiProductCount int64 `json:"multi_product_count"`
}

// GetSetBundleStats 捆包汇总统计，redis 短缓存
func (s *BundleService) GetSetBundleStats(ctx context.Context) (*BundleStats, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, bundleStatsCacheKey).Result(); err == nil {
			var stats BundleStats
			if json.Unmarshal([]byte(cached), &stats) == nil {
				return &stats, nil
			}
		}
	}

	total, same, multi, err := s.bundleRepo.CountByType(ctx)
	if err != nil {
		return nil, fmt.Errorf("统计捆包失败: %w", err)
	}
	stats := &BundleStats{
		TotalSetBundles:   total,
		SameProductCount:  same,
		MultiProductCount: multi,
	}

	if s.rdb != nil {
		if data, err := json.Marshal(stats); err == nil {
			s.rdb.Set(ctx, bundleStatsCacheKey, data, bundleStatsCacheTTL)
		}
	}
	return stats, nil
}

func (s *BundleService) invalidateStats(ctx context.Context) {
	if s.rdb != nil {
		s.rdb.Del(ctx, bundleStatsCacheKey)
	}
}

// AddItem 追加明细，同一事务内维护 set_quantity / total_qty
func (s *BundleService) AddItem(ctx context.Context, bundleNo string, input BundleItemInput) (*entity.BundleLot, error) {
	lot, err := s.lotRepo.FindByID(ctx, input.LotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("批次不存在: %s: %w", input.LotID, ErrLotNotFound)
		}
		return nil, err
	}
	if input.Quantity <= 0 {
		return nil, fmt.Errorf("捆包数量必须大于0: %w", ErrInvalidInput)
	}
	if input.Quantity > lot.CompletedQty {
		return nil, fmt.Errorf("捆包数量 %.0f 超过批次 %s 完工数量 %.0f: %w",
			input.Quantity, lot.LotNumber, lot.CompletedQty, ErrInvalidInput)
	}

	bundle, err := s.bundleRepo.FindByNo(ctx, bundleNo)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("捆包 %s 不存在: %w", bundleNo, ErrLotNotFound)
		}
		return nil, err
	}

	err = s.bundleRepo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item := entity.BundleItem{
			ID:          uuid.New().String(),
			BundleID:    bundle.ID,
			LotID:       lot.ID,
			LotNumber:   lot.LotNumber,
			ProductID:   lot.ProductID,
			ProductCode: lot.ProductCode,
			ProcessCode: lot.ProcessCode,
			Quantity:    input.Quantity,
			SortOrder:   len(bundle.Items),
			CreatedAt:   time.Now(),
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		return tx.Model(&entity.BundleLot{}).
			Where("id = ?", bundle.ID).
			Updates(map[string]interface{}{
				"set_quantity": gorm.Expr("set_quantity + 1"),
				"total_qty":    gorm.Expr("total_qty + ?", input.Quantity),
			}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("追加捆包明细失败: %w", err)
	}

	s.invalidateStats(ctx)
	return s.GetBundleByNo(ctx, bundleNo)
}

// RemoveItem 移除明细，同一事务内维护 set_quantity / total_qty
func (s *BundleService) RemoveItem(ctx context.Context, bundleNo, itemID string) (*entity.BundleLot, error) {
	bundle, err := s.bundleRepo.FindByNo(ctx, bundleNo)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("捆包 %s 不存在: %w", bundleNo, ErrLotNotFound)
		}
		return nil, err
	}

	var target *entity.BundleItem
	for i := range bundle.Items {
		if bundle.Items[i].ID == itemID {
			target = &bundle.Items[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("捆包明细 %s 不存在: %w", itemID, ErrLotNotFound)
	}

	err = s.bundleRepo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&entity.BundleItem{}, "id = ?", itemID).Error; err != nil {
			return err
		}
		return tx.Model(&entity.BundleLot{}).
			Where("id = ?", bundle.ID).
			Updates(map[string]interface{}{
				"set_quantity": gorm.Expr("set_quantity - 1"),
				"total_qty":    gorm.Expr("total_qty - ?", target.Quantity),
			}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("移除捆包明细失败: %w", err)
	}

	s.invalidateStats(ctx)
	return s.GetBundleByNo(ctx, bundleNo)
}
