package service

import (
	"context"
	"testing"

	"github.com/bitfantasy/harness-mes/internal/mes/entity"
	"github.com/bitfantasy/harness-mes/internal/mes/repository"
	"github.com/bitfantasy/harness-mes/internal/mes/testutil"
	"go.uber.org/zap"
)

func setupInspectionTest(t *testing.T) *InspectionService {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	return NewInspectionService(repos.Inspection, zap.NewNop())
}

func TestRecordCrimpInspectionPassThenCheck(t *testing.T) {
	svc := setupInspectionTest(t)
	ctx := context.Background()
	barcode := "P001Q100-001-C241223-0001"

	rec, err := svc.RecordCrimpInspection(ctx, &RecordCrimpInspectionRequest{
		Barcode: barcode, Result: entity.InspectionPass, InspectedBy: "op-001",
	})
	if err != nil {
		t.Fatalf("RecordCrimpInspection failed: %v", err)
	}
	if !rec.Success || rec.InspectionID == "" {
		t.Fatalf("Expected success with inspection id, got %+v", rec)
	}

	check, err := svc.CheckCrimpInspectionPassed(ctx, barcode)
	if err != nil {
		t.Fatalf("CheckCrimpInspectionPassed failed: %v", err)
	}
	if !check.RequiresCrimpInspection {
		t.Error("CA barcode should require crimp inspection")
	}
	if !check.HasCrimpInspection {
		t.Error("Expected has_crimp_inspection=true")
	}
	if !check.Passed {
		t.Error("Expected passed=true after PASS record")
	}
}

func TestCrimpInspectionLatestWins(t *testing.T) {
	svc := setupInspectionTest(t)
	ctx := context.Background()
	barcode := "MCP001Q100-M241223-0001"

	// FAIL 后 PASS，以最新为准
	if _, err := svc.RecordCrimpInspection(ctx, &RecordCrimpInspectionRequest{
		Barcode: barcode, Result: entity.InspectionFail, DefectReason: "压接高度不良",
	}); err != nil {
		t.Fatalf("record FAIL: %v", err)
	}
	if _, err := svc.RecordCrimpInspection(ctx, &RecordCrimpInspectionRequest{
		Barcode: barcode, Result: entity.InspectionPass,
	}); err != nil {
		t.Fatalf("record PASS: %v", err)
	}

	history, err := svc.GetCrimpInspectionHistory(ctx, barcode)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 history records, got %d", len(history))
	}
	if history[0].Result != entity.InspectionFail || history[1].Result != entity.InspectionPass {
		t.Errorf("History not in insertion order: %s, %s", history[0].Result, history[1].Result)
	}

	check, err := svc.CheckCrimpInspectionPassed(ctx, barcode)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !check.Passed {
		t.Error("Latest record is PASS, expected passed=true")
	}
}

func TestCrimpInspectionRequiredButMissing(t *testing.T) {
	svc := setupInspectionTest(t)
	ctx := context.Background()

	check, err := svc.CheckCrimpInspectionPassed(ctx, "P001Q100-002-C241223-0001")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !check.RequiresCrimpInspection {
		t.Error("Expected requires_crimp_inspection=true")
	}
	if check.HasCrimpInspection {
		t.Error("Expected has_crimp_inspection=false")
	}
	if check.Passed {
		t.Error("Expected passed=false when required but no record")
	}
}

func TestRecordCrimpInspectionNonTarget(t *testing.T) {
	svc := setupInspectionTest(t)
	ctx := context.Background()
	barcode := "MSP001Q100-S241223-0001"

	rec, err := svc.RecordCrimpInspection(ctx, &RecordCrimpInspectionRequest{
		Barcode: barcode, Result: entity.InspectionPass,
	})
	if err != nil {
		t.Fatalf("RecordCrimpInspection failed: %v", err)
	}
	if rec.Success {
		t.Error("MS barcode is not a crimp target, expected success=false")
	}

	// 不落记录
	history, err := svc.GetCrimpInspectionHistory(ctx, barcode)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("Expected no records written, got %d", len(history))
	}
}

func TestCheckCrimpInspectionNotDerivable(t *testing.T) {
	svc := setupInspectionTest(t)
	ctx := context.Background()

	// 推导不出工序的条码不做管控
	check, err := svc.CheckCrimpInspectionPassed(ctx, "P001Q100")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if check.RequiresCrimpInspection {
		t.Error("Expected requires_crimp_inspection=false for underivable barcode")
	}
	if !check.Passed {
		t.Error("Expected passed=true for underivable barcode")
	}
}

func TestValidateSPProcessInput(t *testing.T) {
	svc := setupInspectionTest(t)
	ctx := context.Background()

	// MS 不做压接管控，直接可投入
	ms, err := svc.ValidateSPProcessInput(ctx, "MSP001Q100-S241223-0001")
	if err != nil {
		t.Fatalf("validate MS: %v", err)
	}
	if !ms.IsValid || ms.RequiresCrimpInspection {
		t.Errorf("Expected MS valid without crimp gating, got %+v", ms)
	}

	// PA 不在SP允许集合，与压接状态无关
	pa, err := svc.ValidateSPProcessInput(ctx, "PAP001Q100-A241223-0001")
	if err != nil {
		t.Fatalf("validate PA: %v", err)
	}
	if pa.IsValid {
		t.Error("PA should not be SP-admissible")
	}
	if len(pa.Errors) == 0 {
		t.Error("Expected an error message for PA input")
	}

	// CA 未检查不可投入
	ca, err := svc.ValidateSPProcessInput(ctx, "P001Q100-001-C241223-0001")
	if err != nil {
		t.Fatalf("validate CA: %v", err)
	}
	if ca.IsValid {
		t.Error("CA without inspection should be invalid")
	}
	if !ca.RequiresCrimpInspection || ca.CrimpInspectionPassed {
		t.Errorf("Expected crimp required and not passed, got %+v", ca)
	}

	// 合格后可投入
	if _, err := svc.RecordCrimpInspection(ctx, &RecordCrimpInspectionRequest{
		Barcode: "P001Q100-001-C241223-0001", Result: entity.InspectionPass,
	}); err != nil {
		t.Fatalf("record: %v", err)
	}
	ca2, err := svc.ValidateSPProcessInput(ctx, "P001Q100-001-C241223-0001")
	if err != nil {
		t.Fatalf("validate CA after pass: %v", err)
	}
	if !ca2.IsValid {
		t.Errorf("CA with passed inspection should be valid, errors: %v", ca2.Errors)
	}

	// 识别不了工序
	unknown, err := svc.ValidateSPProcessInput(ctx, "P001Q100")
	if err != nil {
		t.Fatalf("validate unknown: %v", err)
	}
	if unknown.IsValid {
		t.Error("Underivable process should fail SP validation")
	}
}

func TestValidateSPProcessInputsBatch(t *testing.T) {
	svc := setupInspectionTest(t)
	ctx := context.Background()

	// 空列表通过，汇总全零
	empty, err := svc.ValidateSPProcessInputs(ctx, []string{})
	if err != nil {
		t.Fatalf("validate empty: %v", err)
	}
	if !empty.IsValid {
		t.Error("Empty input should be valid")
	}
	if empty.Summary.Total != 0 || empty.Summary.Passed != 0 || empty.Summary.Failed != 0 ||
		empty.Summary.CrimpRequired != 0 || empty.Summary.CrimpPassed != 0 {
		t.Errorf("Expected all-zero summary, got %+v", empty.Summary)
	}
	if len(empty.Results) != 0 {
		t.Errorf("Expected no results, got %d", len(empty.Results))
	}

	// 混合批次：MS 通过，PA 失败
	batch, err := svc.ValidateSPProcessInputs(ctx, []string{
		"MSP001Q100-S241223-0001",
		"PAP001Q100-A241223-0001",
	})
	if err != nil {
		t.Fatalf("validate batch: %v", err)
	}
	if batch.IsValid {
		t.Error("Batch with PA input should be invalid overall")
	}
	if batch.Summary.Total != 2 || batch.Summary.Passed != 1 || batch.Summary.Failed != 1 {
		t.Errorf("Unexpected summary: %+v", batch.Summary)
	}
}
