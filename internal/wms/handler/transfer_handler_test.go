package handler

import (
	"context"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pragavigithub/emerging-wms/internal/middleware"
	"github.com/pragavigithub/emerging-wms/internal/shared/sapb1"
	"github.com/pragavigithub/emerging-wms/internal/wms/entity"
	"github.com/pragavigithub/emerging-wms/internal/wms/repository"
	"github.com/pragavigithub/emerging-wms/internal/wms/service"
	"github.com/pragavigithub/emerging-wms/internal/wms/testutil"
)

func setupTransferRouter(t *testing.T, fake *testutil.FakeGateway) (*gin.Engine, *repository.Repositories) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	db.Create(&entity.Warehouse{Code: "WH01", Name: "Main", BusinessPlaceID: 1})
	db.Create(&entity.Warehouse{Code: "WH02", Name: "Annex", BusinessPlaceID: 1})

	logger := zap.NewNop()
	sourceSvc := service.NewSourceService(fake, testutil.SetupTestRedis(), logger)
	whSvc := service.NewWarehouseService(repos, fake, logger)
	transferSvc := service.NewTransferService(repos, sourceSvc, fake, whSvc, logger)
	postingSvc := service.NewPostingService(repos, fake, whSvc, logger)
	h := NewTransferHandler(transferSvc, postingSvc)

	r := testutil.SetupRouter()
	g := testutil.AuthGroup(r, "/api/v1/wms")
	transfers := g.Group("/transfers")
	transfers.GET("", h.List)
	transfers.POST("", middleware.RequireRole(middleware.RoleOperator), h.Create)
	transfers.GET("/:id", h.Get)
	transfers.POST("/:id/lines", middleware.RequireRole(middleware.RoleOperator), h.AddLine)
	transfers.POST("/:id/submit", middleware.RequireRole(middleware.RoleOperator), h.Submit)
	transfers.POST("/:id/qc", middleware.RequireRole(middleware.RoleQC), h.QCDecide)
	transfers.POST("/:id/reopen", middleware.RequireRole(middleware.RoleOperator), h.Reopen)
	transfers.POST("/:id/post", middleware.RequireRole(middleware.RoleQC), h.Post)
	transfers.GET("/:id/preview", h.Preview)

	return r, repos
}

func transferFakeTR() *sapb1.InventoryTransferRequest {
	return &sapb1.InventoryTransferRequest{
		DocEntry: 77, DocNum: 3001, FromWarehouse: "WH01", ToWarehouse: "WH02",
		DocDate: "2025-07-01",
		StockTransferLines: []sapb1.StockTransferLine{
			{LineNum: 0, ItemCode: "ITM-100", ItemDescription: "Widget", Quantity: 10, RemainingOpenQuantity: 10, UoMCode: "PCS", FromWarehouseCode: "WH01", WarehouseCode: "WH02", LineStatus: sapb1.LineStatusOpen},
			{LineNum: 1, ItemCode: "ITM-200", ItemDescription: "Bracket", Quantity: 6, RemainingOpenQuantity: 0, UoMCode: "PCS", FromWarehouseCode: "WH01", WarehouseCode: "WH02", LineStatus: sapb1.LineStatusClosed},
		},
	}
}

func TestTransferLifecycle(t *testing.T) {
	fake := &testutil.FakeGateway{
		TR:          transferFakeTR(),
		TransferRef: &sapb1.DocumentRef{DocEntry: 8101, DocNum: 7101},
		Bins: map[string]*sapb1.BinLocation{
			"WH01-A-01": {AbsEntry: 311, BinCode: "WH01-A-01", Warehouse: "WH01"},
			"WH02-B-02": {AbsEntry: 412, BinCode: "WH02-B-02", Warehouse: "WH02"},
		},
	}
	r, repos := setupTransferRouter(t, fake)

	opToken := testutil.OperatorToken("op-001")
	qcToken := testutil.QCToken("qc-001")

	// Create against the transfer request
	w := testutil.DoRequest(r, "POST", "/api/v1/wms/transfers", map[string]interface{}{"tr_doc_num": 3001}, opToken)
	if w.Code != 201 {
		t.Fatalf("create failed: %d %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	docID, _ := dataField(resp, "id").(string)
	if docID == "" {
		t.Fatalf("no document id in response")
	}
	if got, _ := dataField(resp, "from_warehouse").(string); got != "WH01" {
		t.Errorf("from warehouse not captured from source: %s", got)
	}
	if got, _ := dataField(resp, "to_warehouse").(string); got != "WH02" {
		t.Errorf("to warehouse not captured from source: %s", got)
	}

	// Add a line with both bins
	w = testutil.DoRequest(r, "POST", "/api/v1/wms/transfers/"+docID+"/lines", map[string]interface{}{
		"item_code":     "ITM-100",
		"quantity":      4,
		"from_bin_code": "WH01-A-01",
		"to_bin_code":   "WH02-B-02",
	}, opToken)
	if w.Code != 201 {
		t.Fatalf("add line failed: %d %s", w.Code, w.Body.String())
	}

	testutil.DoRequest(r, "POST", "/api/v1/wms/transfers/"+docID+"/submit", nil, opToken)
	w = testutil.DoRequest(r, "POST", "/api/v1/wms/transfers/"+docID+"/qc", map[string]interface{}{"decision": "approved"}, qcToken)
	if w.Code != 200 {
		t.Fatalf("qc approve failed: %d %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(r, "POST", "/api/v1/wms/transfers/"+docID+"/post", nil, qcToken)
	if w.Code != 200 {
		t.Fatalf("post failed: %d %s", w.Code, w.Body.String())
	}
	if len(fake.CreatedTransfers) != 1 {
		t.Fatalf("expected one stock transfer created, got %d", len(fake.CreatedTransfers))
	}
	payload := fake.CreatedTransfers[0]
	if payload.Reference1 != service.TransferPostingRef(docID) {
		t.Errorf("Reference1 wrong: %s", payload.Reference1)
	}
	if len(payload.StockTransferLines) != 1 || len(payload.StockTransferLines[0].BinAllocations) != 2 {
		t.Errorf("expected from and to bin allocations in payload")
	}

	stored, err := repos.Transfer.FindByID(context.Background(), docID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Status != entity.DocStatusPosted {
		t.Errorf("expected posted, got %s", stored.Status)
	}
	if stored.ERPDocEntry == nil || *stored.ERPDocEntry != 8101 {
		t.Errorf("erp doc entry not recorded: %v", stored.ERPDocEntry)
	}
}

func TestTransferAddLineClosedSourceLine(t *testing.T) {
	fake := &testutil.FakeGateway{TR: transferFakeTR()}
	r, _ := setupTransferRouter(t, fake)
	opToken := testutil.OperatorToken("op-001")

	w := testutil.DoRequest(r, "POST", "/api/v1/wms/transfers", map[string]interface{}{"tr_doc_num": 3001}, opToken)
	docID, _ := dataField(testutil.ParseResponse(w), "id").(string)

	// ITM-200 is closed on the request
	w = testutil.DoRequest(r, "POST", "/api/v1/wms/transfers/"+docID+"/lines", map[string]interface{}{
		"item_code": "ITM-200", "quantity": 1,
	}, opToken)
	if w.Code != 400 {
		t.Errorf("expected 400 for closed source line, got %d %s", w.Code, w.Body.String())
	}
}

func TestTransferAddLineWrongWarehouseBin(t *testing.T) {
	fake := &testutil.FakeGateway{
		TR: transferFakeTR(),
		Bins: map[string]*sapb1.BinLocation{
			"WH09-X-01": {AbsEntry: 999, BinCode: "WH09-X-01", Warehouse: "WH09"},
		},
	}
	r, _ := setupTransferRouter(t, fake)
	opToken := testutil.OperatorToken("op-001")

	w := testutil.DoRequest(r, "POST", "/api/v1/wms/transfers", map[string]interface{}{"tr_doc_num": 3001}, opToken)
	docID, _ := dataField(testutil.ParseResponse(w), "id").(string)

	// Bin belongs to a different warehouse than the line's from-warehouse
	w = testutil.DoRequest(r, "POST", "/api/v1/wms/transfers/"+docID+"/lines", map[string]interface{}{
		"item_code": "ITM-100", "quantity": 1, "from_bin_code": "WH09-X-01",
	}, opToken)
	if w.Code != 400 {
		t.Errorf("expected 400 for bin in wrong warehouse, got %d %s", w.Code, w.Body.String())
	}
}

func TestTransferRejectReopenResetsLines(t *testing.T) {
	fake := &testutil.FakeGateway{TR: transferFakeTR()}
	r, repos := setupTransferRouter(t, fake)
	opToken := testutil.OperatorToken("op-001")
	qcToken := testutil.QCToken("qc-001")

	w := testutil.DoRequest(r, "POST", "/api/v1/wms/transfers", map[string]interface{}{"tr_doc_num": 3001}, opToken)
	docID, _ := dataField(testutil.ParseResponse(w), "id").(string)
	testutil.DoRequest(r, "POST", "/api/v1/wms/transfers/"+docID+"/lines", map[string]interface{}{"item_code": "ITM-100", "quantity": 2}, opToken)
	testutil.DoRequest(r, "POST", "/api/v1/wms/transfers/"+docID+"/submit", nil, opToken)

	w = testutil.DoRequest(r, "POST", "/api/v1/wms/transfers/"+docID+"/qc", map[string]interface{}{
		"decision": "rejected", "notes": "wrong quantity",
	}, qcToken)
	if w.Code != 200 {
		t.Fatalf("qc reject failed: %d %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(r, "POST", "/api/v1/wms/transfers/"+docID+"/reopen", nil, opToken)
	if w.Code != 200 {
		t.Fatalf("reopen failed: %d %s", w.Code, w.Body.String())
	}

	stored, _ := repos.Transfer.FindByID(context.Background(), docID)
	if stored.Status != entity.DocStatusDraft {
		t.Errorf("expected draft after reopen, got %s", stored.Status)
	}
	if stored.Lines[0].QCStatus != entity.LineQCPending {
		t.Errorf("line qc status not reset to pending, got %s", stored.Lines[0].QCStatus)
	}
}

func TestTransferModifyAfterSubmitRejected(t *testing.T) {
	fake := &testutil.FakeGateway{TR: transferFakeTR()}
	r, _ := setupTransferRouter(t, fake)
	opToken := testutil.OperatorToken("op-001")

	w := testutil.DoRequest(r, "POST", "/api/v1/wms/transfers", map[string]interface{}{"tr_doc_num": 3001}, opToken)
	docID, _ := dataField(testutil.ParseResponse(w), "id").(string)
	testutil.DoRequest(r, "POST", "/api/v1/wms/transfers/"+docID+"/lines", map[string]interface{}{"item_code": "ITM-100", "quantity": 2}, opToken)
	testutil.DoRequest(r, "POST", "/api/v1/wms/transfers/"+docID+"/submit", nil, opToken)

	// No more lines once the document left draft
	w = testutil.DoRequest(r, "POST", "/api/v1/wms/transfers/"+docID+"/lines", map[string]interface{}{"item_code": "ITM-100", "quantity": 1}, opToken)
	if w.Code != 400 {
		t.Errorf("expected 400 adding line to submitted document, got %d", w.Code)
	}
}

func TestTransferPostRequiresQCRole(t *testing.T) {
	fake := &testutil.FakeGateway{TR: transferFakeTR()}
	r, _ := setupTransferRouter(t, fake)
	opToken := testutil.OperatorToken("op-001")

	w := testutil.DoRequest(r, "POST", "/api/v1/wms/transfers", map[string]interface{}{"tr_doc_num": 3001}, opToken)
	docID, _ := dataField(testutil.ParseResponse(w), "id").(string)

	w = testutil.DoRequest(r, "POST", "/api/v1/wms/transfers/"+docID+"/post", nil, opToken)
	if w.Code != 403 {
		t.Errorf("expected 403 for operator on post endpoint, got %d", w.Code)
	}
}

func TestTransferUnauthenticated(t *testing.T) {
	fake := &testutil.FakeGateway{TR: transferFakeTR()}
	r, _ := setupTransferRouter(t, fake)

	w := testutil.DoRequest(r, "GET", "/api/v1/wms/transfers", nil, "")
	if w.Code != 401 {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}
}
