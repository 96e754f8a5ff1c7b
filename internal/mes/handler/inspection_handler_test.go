package handler

import (
	"net/http"
	"testing"

	"github.com/bitfantasy/harness-mes/internal/mes/repository"
	"github.com/bitfantasy/harness-mes/internal/mes/service"
	"github.com/bitfantasy/harness-mes/internal/mes/testutil"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func setupHandlerTest(t *testing.T) *gin.Engine {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, nil, zap.NewNop())
	handlers := NewHandlers(services)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")
	handlers.RegisterRoutes(api)
	return router
}

func TestRecordCrimpInspectionEndpoint(t *testing.T) {
	router := setupHandlerTest(t)
	token := testutil.DefaultTestToken()
	barcode := "P001Q100-001-C241223-0001"

	w := testutil.DoRequest(router, "POST", "/api/v1/inspections/crimp", map[string]interface{}{
		"barcode": barcode,
		"result":  "PASS",
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data, _ := resp["data"].(map[string]interface{})
	if data == nil || data["success"] != true {
		t.Fatalf("Expected success=true, got %v", resp)
	}

	// 门禁判定应放行
	w = testutil.DoRequest(router, "GET", "/api/v1/inspections/crimp/"+barcode+"/check", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	resp = testutil.ParseResponse(w)
	data, _ = resp["data"].(map[string]interface{})
	if data == nil || data["passed"] != true {
		t.Errorf("Expected passed=true, got %v", resp)
	}

	// 记录历史可查
	w = testutil.DoRequest(router, "GET", "/api/v1/inspections/crimp/"+barcode, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	resp = testutil.ParseResponse(w)
	data, _ = resp["data"].(map[string]interface{})
	items, _ := data["items"].([]interface{})
	if len(items) != 1 {
		t.Errorf("Expected 1 history record, got %d", len(items))
	}
}

func TestRecordCrimpInspectionNonTargetEndpoint(t *testing.T) {
	router := setupHandlerTest(t)
	token := testutil.DefaultTestToken()

	// 中剥工序条码不是压接检查对象，HTTP 200 但 success=false
	w := testutil.DoRequest(router, "POST", "/api/v1/inspections/crimp", map[string]interface{}{
		"barcode": "MSP001Q100-S241223-0001",
		"result":  "PASS",
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data, _ := resp["data"].(map[string]interface{})
	if data == nil || data["success"] != false {
		t.Errorf("Expected success=false for non-target barcode, got %v", resp)
	}
}

func TestValidateSPInputsEndpoint(t *testing.T) {
	router := setupHandlerTest(t)
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(router, "POST", "/api/v1/sp/validate", map[string]interface{}{
		"barcodes": []string{"MSP001Q100-S241223-0001", "PAP001Q100-A241223-0001"},
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data, _ := resp["data"].(map[string]interface{})
	if data == nil || data["is_valid"] != false {
		t.Errorf("Expected is_valid=false with a PA barcode present, got %v", resp)
	}
	summary, _ := data["summary"].(map[string]interface{})
	if summary == nil || summary["total"] != float64(2) || summary["failed"] != float64(1) {
		t.Errorf("Unexpected summary: %v", summary)
	}
}

func TestInspectionEndpointRequiresAuth(t *testing.T) {
	router := setupHandlerTest(t)

	w := testutil.DoRequest(router, "GET", "/api/v1/inspections/crimp/P001Q100-001/check", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", w.Code)
	}
}
