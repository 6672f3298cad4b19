package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pragavigithub/emerging-wms/internal/shared/sapb1"
	"github.com/pragavigithub/emerging-wms/internal/wms/entity"
	"github.com/pragavigithub/emerging-wms/internal/wms/repository"
	"github.com/pragavigithub/emerging-wms/internal/wms/testutil"
)

func setupPostingTest(t *testing.T, fake *testutil.FakeGateway) (*PostingService, *repository.Repositories) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	// Warehouse metadata feeds the business place lookup
	db.Create(&entity.Warehouse{Code: "WH01", Name: "Main", BusinessPlaceID: 1})
	db.Create(&entity.Warehouse{Code: "WH02", Name: "Annex", BusinessPlaceID: 1})

	whSvc := NewWarehouseService(repos, fake, zap.NewNop())
	return NewPostingService(repos, fake, whSvc, zap.NewNop()), repos
}

func seedApprovedReceipt(t *testing.T, repos *repository.Repositories, status string) *entity.ReceiptDocument {
	t.Helper()
	ctx := context.Background()
	qcBy := "qc-001"
	qcAt := time.Now()

	doc := &entity.ReceiptDocument{
		ID:         "rcptseed000000000000000000000001",
		DocCode:    "GRN-2025-0001",
		PODocNum:   2001,
		PODocEntry: 501,
		CardCode:   "V10001",
		CardName:   "Acme Components",
		Status:     status,
		DocDate:    time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		QCBy:       &qcBy,
		QCAt:       &qcAt,
		CreatedBy:  "op-001",
	}
	if err := repos.Receipt.Create(ctx, doc); err != nil {
		t.Fatalf("seed receipt: %v", err)
	}
	line := &entity.ReceiptLine{
		ID:             "lineseed000000000000000000000001",
		DocumentID:     doc.ID,
		ItemCode:       "ITM-100",
		ItemName:       "Widget",
		Quantity:       25,
		BaseLine:       0,
		OpenQtyAtMatch: 50,
		UoMCode:        "PCS",
		WarehouseCode:  "WH01",
		QCStatus:       entity.LineQCApproved,
	}
	if err := repos.Receipt.CreateLine(ctx, line); err != nil {
		t.Fatalf("seed receipt line: %v", err)
	}
	return doc
}

func postingFakePO() *sapb1.PurchaseOrder {
	return &sapb1.PurchaseOrder{
		DocEntry: 501, DocNum: 2001, CardCode: "V10001",
		DocumentLines: []sapb1.PurchaseOrderLine{
			{LineNum: 0, ItemCode: "ITM-100", Quantity: 50, OpenQuantity: 50, WarehouseCode: "WH01", LineStatus: sapb1.LineStatusOpen},
		},
	}
}

func TestPostReceiptSuccess(t *testing.T) {
	fake := &testutil.FakeGateway{
		PO:          postingFakePO(),
		DeliveryRef: &sapb1.DocumentRef{DocEntry: 8001, DocNum: 7001},
	}
	svc, repos := setupPostingTest(t, fake)
	doc := seedApprovedReceipt(t, repos, entity.DocStatusApproved)

	result, err := svc.PostReceipt(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("PostReceipt failed: %v", err)
	}
	if result.ERPDocEntry != 8001 || result.ERPDocNum != 7001 {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.Adopted {
		t.Errorf("fresh post must not be adopted")
	}
	if len(fake.CreatedDeliveries) != 1 {
		t.Fatalf("expected exactly one create call, got %d", len(fake.CreatedDeliveries))
	}
	if fake.CreatedDeliveries[0].NumAtCard != ReceiptPostingRef(doc.ID) {
		t.Errorf("payload NumAtCard wrong: %s", fake.CreatedDeliveries[0].NumAtCard)
	}

	stored, err := repos.Receipt.FindByID(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Status != entity.DocStatusPosted {
		t.Errorf("expected status posted, got %s", stored.Status)
	}
	if stored.ERPDocEntry == nil || *stored.ERPDocEntry != 8001 {
		t.Errorf("erp doc entry not recorded: %v", stored.ERPDocEntry)
	}
}

func TestPostReceiptSecondCallFailsGuard(t *testing.T) {
	fake := &testutil.FakeGateway{PO: postingFakePO()}
	svc, repos := setupPostingTest(t, fake)
	doc := seedApprovedReceipt(t, repos, entity.DocStatusApproved)

	if _, err := svc.PostReceipt(context.Background(), doc.ID); err != nil {
		t.Fatalf("first post failed: %v", err)
	}
	if _, err := svc.PostReceipt(context.Background(), doc.ID); !errors.Is(err, ErrGuardViolation) {
		t.Errorf("expected ErrGuardViolation on second post, got %v", err)
	}
	if len(fake.CreatedDeliveries) != 1 {
		t.Errorf("document must not be submitted twice, got %d creates", len(fake.CreatedDeliveries))
	}
}

func TestPostReceiptRequiresApprovedStatus(t *testing.T) {
	fake := &testutil.FakeGateway{PO: postingFakePO()}
	svc, repos := setupPostingTest(t, fake)
	doc := seedApprovedReceipt(t, repos, entity.DocStatusSubmitted)

	if _, err := svc.PostReceipt(context.Background(), doc.ID); !errors.Is(err, ErrGuardViolation) {
		t.Errorf("expected ErrGuardViolation, got %v", err)
	}
	if len(fake.CreatedDeliveries) != 0 {
		t.Errorf("no ERP call allowed for unapproved document")
	}
}

func TestPostReceiptGatewayFailureLeavesApproved(t *testing.T) {
	fake := &testutil.FakeGateway{
		PO:        postingFakePO(),
		CreateErr: &sapb1.APIError{Code: -5002, Message: "Quantity exceeds open quantity"},
	}
	svc, repos := setupPostingTest(t, fake)
	doc := seedApprovedReceipt(t, repos, entity.DocStatusApproved)

	_, err := svc.PostReceipt(context.Background(), doc.ID)
	var apiErr *sapb1.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError surfaced to caller, got %v", err)
	}

	stored, _ := repos.Receipt.FindByID(context.Background(), doc.ID)
	if stored.Status != entity.DocStatusApproved {
		t.Errorf("rejected post must leave document approved, got %s", stored.Status)
	}
	if stored.ERPDocEntry != nil {
		t.Errorf("erp doc entry must stay empty after failure")
	}

	// Retry after the operator fixes the ERP side is safe
	fake.CreateErr = nil
	if _, err := svc.PostReceipt(context.Background(), doc.ID); err != nil {
		t.Errorf("retry after failure should succeed: %v", err)
	}
}

func TestPostReceiptAdoptsExistingDocument(t *testing.T) {
	// Simulates a retry after a timeout where the first submit actually landed
	fake := &testutil.FakeGateway{
		PO:                  postingFakePO(),
		ExistingDeliveryRef: &sapb1.DocumentRef{DocEntry: 8888, DocNum: 7777},
	}
	svc, repos := setupPostingTest(t, fake)
	doc := seedApprovedReceipt(t, repos, entity.DocStatusApproved)

	result, err := svc.PostReceipt(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("PostReceipt failed: %v", err)
	}
	if !result.Adopted {
		t.Errorf("expected adopted result")
	}
	if result.ERPDocEntry != 8888 {
		t.Errorf("expected adopted doc entry 8888, got %d", result.ERPDocEntry)
	}
	if len(fake.CreatedDeliveries) != 0 {
		t.Errorf("must not re-submit when ERP already has the document")
	}

	stored, _ := repos.Receipt.FindByID(context.Background(), doc.ID)
	if stored.Status != entity.DocStatusPosted || stored.ERPDocEntry == nil || *stored.ERPDocEntry != 8888 {
		t.Errorf("adopted reference not recorded: %+v", stored)
	}
}

func TestPostReceiptSourceGone(t *testing.T) {
	fake := &testutil.FakeGateway{} // empty ERP: fresh fetch fails
	svc, repos := setupPostingTest(t, fake)
	doc := seedApprovedReceipt(t, repos, entity.DocStatusApproved)

	if _, err := svc.PostReceipt(context.Background(), doc.ID); !errors.Is(err, ErrSourceNotFound) {
		t.Errorf("expected ErrSourceNotFound, got %v", err)
	}
}

func TestPostTransferSuccess(t *testing.T) {
	fake := &testutil.FakeGateway{
		TR: &sapb1.InventoryTransferRequest{
			DocEntry: 77, DocNum: 3001, FromWarehouse: "WH01", ToWarehouse: "WH02",
			StockTransferLines: []sapb1.StockTransferLine{
				{LineNum: 0, ItemCode: "ITM-100", Quantity: 10, RemainingOpenQuantity: 4, FromWarehouseCode: "WH01", WarehouseCode: "WH02", LineStatus: sapb1.LineStatusOpen},
			},
		},
		TransferRef: &sapb1.DocumentRef{DocEntry: 8101, DocNum: 7101},
	}
	svc, repos := setupPostingTest(t, fake)

	ctx := context.Background()
	doc := &entity.TransferDocument{
		ID:            "trfseed0000000000000000000000001",
		DocCode:       "TRF-2025-0001",
		TRDocNum:      3001,
		TRDocEntry:    77,
		FromWarehouse: "WH01",
		ToWarehouse:   "WH02",
		Status:        entity.DocStatusApproved,
		DocDate:       time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		CreatedBy:     "op-001",
	}
	if err := repos.Transfer.Create(ctx, doc); err != nil {
		t.Fatalf("seed transfer: %v", err)
	}
	line := &entity.TransferLine{
		ID:            "trfline000000000000000000000001",
		DocumentID:    doc.ID,
		ItemCode:      "ITM-100",
		Quantity:      4,
		BaseLine:      0,
		FromWarehouse: "WH01",
		ToWarehouse:   "WH02",
		QCStatus:      entity.LineQCApproved,
	}
	if err := repos.Transfer.CreateLine(ctx, line); err != nil {
		t.Fatalf("seed transfer line: %v", err)
	}

	result, err := svc.PostTransfer(ctx, doc.ID)
	if err != nil {
		t.Fatalf("PostTransfer failed: %v", err)
	}
	if result.ERPDocEntry != 8101 {
		t.Errorf("unexpected result: %+v", result)
	}
	if len(fake.CreatedTransfers) != 1 {
		t.Fatalf("expected one create call, got %d", len(fake.CreatedTransfers))
	}
	if fake.CreatedTransfers[0].Reference1 != TransferPostingRef(doc.ID) {
		t.Errorf("payload Reference1 wrong: %s", fake.CreatedTransfers[0].Reference1)
	}

	stored, _ := repos.Transfer.FindByID(ctx, doc.ID)
	if stored.Status != entity.DocStatusPosted {
		t.Errorf("expected posted, got %s", stored.Status)
	}
}
