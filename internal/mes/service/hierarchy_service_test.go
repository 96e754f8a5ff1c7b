package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bitfantasy/harness-mes/internal/mes/barcode"
	"github.com/bitfantasy/harness-mes/internal/mes/entity"
	"github.com/bitfantasy/harness-mes/internal/mes/repository"
	"github.com/bitfantasy/harness-mes/internal/mes/testutil"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupHierarchyTest(t *testing.T) (*gorm.DB, *HierarchyService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	return db, NewHierarchyService(repos.Product, nil, zap.NewNop())
}

func seedFinishedProduct(t *testing.T, db *gorm.DB, code string) *entity.Product {
	t.Helper()
	now := time.Now()
	product := &entity.Product{
		ID:          uuid.New().String(),
		Code:        code,
		Name:        "Test Harness",
		ProductType: string(barcode.TypeFinished),
		RootCode:    code,
		Status:      entity.ProductStatusActive,
		CreatedBy:   "test-user-001",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed finished product: %v", err)
	}
	return product
}

func TestCreateProductHierarchyCAOnly(t *testing.T) {
	db, svc := setupHierarchyTest(t)
	seedFinishedProduct(t, db, "P001Q100")

	h, err := svc.CreateProductHierarchy(context.Background(), "P001Q100", 3, []string{entity.ProcessCA})
	if err != nil {
		t.Fatalf("CreateProductHierarchy failed: %v", err)
	}

	if len(h.CrimpProducts) != 3 {
		t.Fatalf("Expected 3 crimp products, got %d", len(h.CrimpProducts))
	}
	for i, cp := range h.CrimpProducts {
		wantCircuit := i + 1
		if cp.CircuitNo == nil || *cp.CircuitNo != wantCircuit {
			t.Errorf("crimp %d: wrong circuit no %v", i, cp.CircuitNo)
		}
		if cp.ParentCode != "P001Q100" {
			t.Errorf("crimp %d: parent code %s", i, cp.ParentCode)
		}
		// 每个生成节点都能还原到成品编码
		if root := barcode.ExtractFinishedCode(cp.Code); root != "P001Q100" {
			t.Errorf("crimp %d: root extraction %q != P001Q100", i, root)
		}
		if barcode.InferProductType(cp.Code) != barcode.TypeSemiCA {
			t.Errorf("crimp %d: wrong type for code %s", i, cp.Code)
		}
	}
	if h.CrimpProducts[0].Code != "P001Q100-001" {
		t.Errorf("Expected P001Q100-001, got %s", h.CrimpProducts[0].Code)
	}

	if len(h.SemiProducts.MS) != 0 {
		t.Errorf("Expected no MS products, got %d", len(h.SemiProducts.MS))
	}
	if h.SemiProducts.MC != nil || h.SemiProducts.SB != nil || h.SemiProducts.HS != nil {
		t.Error("Expected nil MC/SB/HS when not requested")
	}
}

func TestCreateProductHierarchyFullSet(t *testing.T) {
	db, svc := setupHierarchyTest(t)
	seedFinishedProduct(t, db, "P002Q200")

	h, err := svc.CreateProductHierarchy(context.Background(), "P002Q200", 2,
		[]string{entity.ProcessCA, entity.ProcessMS, entity.ProcessMC, entity.ProcessSB, entity.ProcessHS})
	if err != nil {
		t.Fatalf("CreateProductHierarchy failed: %v", err)
	}

	if len(h.CrimpProducts) != 2 {
		t.Fatalf("Expected 2 crimp products, got %d", len(h.CrimpProducts))
	}
	// MS 跟随压接产品数量
	if len(h.SemiProducts.MS) != 2 {
		t.Fatalf("Expected 2 MS products, got %d", len(h.SemiProducts.MS))
	}
	if h.SemiProducts.MS[0].Code != "MSP002Q200-001" {
		t.Errorf("Expected MSP002Q200-001, got %s", h.SemiProducts.MS[0].Code)
	}
	// MC/SB/HS 与回路数无关，各一条
	if h.SemiProducts.MC == nil || h.SemiProducts.MC.Code != "MCP002Q200" {
		t.Errorf("Unexpected MC: %+v", h.SemiProducts.MC)
	}
	if h.SemiProducts.SB == nil || h.SemiProducts.SB.Code != "SBP002Q200" {
		t.Errorf("Unexpected SB: %+v", h.SemiProducts.SB)
	}
	if h.SemiProducts.HS == nil || h.SemiProducts.HS.Code != "HSP002Q200" {
		t.Errorf("Unexpected HS: %+v", h.SemiProducts.HS)
	}

	for _, p := range append([]entity.Product{}, h.SemiProducts.MS...) {
		if p.RootCode != "P002Q200" {
			t.Errorf("MS %s: root code %s", p.Code, p.RootCode)
		}
	}

	// 回读结果与创建一致
	readBack, err := svc.GetProductHierarchy(context.Background(), "P002Q200")
	if err != nil {
		t.Fatalf("GetProductHierarchy failed: %v", err)
	}
	if len(readBack.CrimpProducts) != 2 || len(readBack.SemiProducts.MS) != 2 {
		t.Errorf("Read-back mismatch: %d crimps, %d MS",
			len(readBack.CrimpProducts), len(readBack.SemiProducts.MS))
	}
}

func TestCreateProductHierarchyIdempotent(t *testing.T) {
	db, svc := setupHierarchyTest(t)
	seedFinishedProduct(t, db, "P003Q300")
	ctx := context.Background()

	if _, err := svc.CreateProductHierarchy(ctx, "P003Q300", 2, []string{entity.ProcessCA}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	// 二次调用复用已有记录，不重复建
	h, err := svc.CreateProductHierarchy(ctx, "P003Q300", 2, []string{entity.ProcessCA})
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if len(h.CrimpProducts) != 2 {
		t.Fatalf("Expected 2 crimp products, got %d", len(h.CrimpProducts))
	}

	var count int64
	db.Model(&entity.Product{}).Where("parent_code = ?", "P003Q300").Count(&count)
	if count != 2 {
		t.Errorf("Expected 2 semi-product rows total, got %d", count)
	}
}

func TestListProcesses(t *testing.T) {
	_, svc := setupHierarchyTest(t)

	defs, err := svc.ListProcesses(context.Background())
	if err != nil {
		t.Fatalf("ListProcesses failed: %v", err)
	}
	if len(defs) != len(entity.ProcessSeed()) {
		t.Fatalf("Expected %d process definitions, got %d", len(entity.ProcessSeed()), len(defs))
	}
	// 按流程顺序返回
	for i := 1; i < len(defs); i++ {
		if defs[i-1].Seq > defs[i].Seq {
			t.Errorf("Definitions out of order at %d: %d > %d", i, defs[i-1].Seq, defs[i].Seq)
		}
	}
	if defs[0].Code != entity.ProcessCA {
		t.Errorf("Expected CA first, got %s", defs[0].Code)
	}
}

func TestCreateProductHierarchyMissingFinished(t *testing.T) {
	_, svc := setupHierarchyTest(t)

	_, err := svc.CreateProductHierarchy(context.Background(), "NOPE999", 3, []string{entity.ProcessCA})
	if !errors.Is(err, ErrProductNotFound) {
		t.Errorf("Expected ErrProductNotFound, got %v", err)
	}
}

func TestCreateProductHierarchyInvalidInput(t *testing.T) {
	db, svc := setupHierarchyTest(t)
	seedFinishedProduct(t, db, "P004Q400")
	ctx := context.Background()

	if _, err := svc.CreateProductHierarchy(ctx, "", 3, []string{entity.ProcessCA}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("blank code: expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.CreateProductHierarchy(ctx, "P004Q400", 0, []string{entity.ProcessCA}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("circuit 0: expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.CreateProductHierarchy(ctx, "P004Q400", 1000, []string{entity.ProcessCA}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("circuit 1000: expected ErrInvalidInput, got %v", err)
	}
	// SP 没有独立半成品编码，不能申请生成
	if _, err := svc.CreateProductHierarchy(ctx, "P004Q400", 3, []string{entity.ProcessSP}); !errors.Is(err, ErrNotAdmissible) {
		t.Errorf("SP process: expected ErrNotAdmissible, got %v", err)
	}
}
