package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/pragavigithub/emerging-wms/internal/shared/sapb1"
	"github.com/pragavigithub/emerging-wms/internal/wms/testutil"
)

func setupSourceTest(t *testing.T, fake *testutil.FakeGateway, docNum int) *SourceService {
	t.Helper()
	rdb := testutil.SetupTestRedis()
	t.Cleanup(func() {
		rdb.Del(context.Background(), fmt.Sprintf("sapb1:po:%d", docNum))
		rdb.Del(context.Background(), fmt.Sprintf("sapb1:tr:%d", docNum))
		rdb.Close()
	})
	return NewSourceService(fake, rdb, zap.NewNop())
}

func sourcePO(docNum int) *sapb1.PurchaseOrder {
	return &sapb1.PurchaseOrder{
		DocEntry: 601, DocNum: docNum, CardCode: "V10001", CardName: "Acme Components",
		DocDate: "2025-08-01",
		DocumentLines: []sapb1.PurchaseOrderLine{
			{LineNum: 0, ItemCode: "ITM-100", Quantity: 50, OpenQuantity: 50, WarehouseCode: "WH01", LineStatus: sapb1.LineStatusOpen},
		},
	}
}

func TestGetPurchaseOrderOnlineIsNotOffline(t *testing.T) {
	docNum := 61001
	fake := &testutil.FakeGateway{PO: sourcePO(docNum)}
	svc := setupSourceTest(t, fake, docNum)

	doc, offline, err := svc.GetPurchaseOrder(context.Background(), docNum)
	if err != nil {
		t.Fatalf("GetPurchaseOrder failed: %v", err)
	}
	if offline {
		t.Errorf("online read must not be flagged offline")
	}
	if doc.DocEntry != 601 || len(doc.Lines) != 1 {
		t.Errorf("unexpected document: %+v", doc)
	}
}

func TestGetPurchaseOrderServesCachedCopyWhenUnavailable(t *testing.T) {
	docNum := 61002
	fake := &testutil.FakeGateway{PO: sourcePO(docNum)}
	svc := setupSourceTest(t, fake, docNum)
	ctx := context.Background()

	// First read succeeds and fills the cache
	if _, _, err := svc.GetPurchaseOrder(ctx, docNum); err != nil {
		t.Fatalf("warm-up read failed: %v", err)
	}

	// Gateway goes down: the cached copy is served, flagged offline
	fake.Err = sapb1.ErrUnavailable
	doc, offline, err := svc.GetPurchaseOrder(ctx, docNum)
	if err != nil {
		t.Fatalf("expected cached copy, got %v", err)
	}
	if !offline {
		t.Errorf("cached copy must be flagged offline")
	}
	if doc.DocEntry != 601 || doc.CardCode != "V10001" {
		t.Errorf("cached document lost fields: %+v", doc)
	}
	if len(doc.Lines) != 1 || doc.Lines[0].OpenQty != 50 {
		t.Errorf("cached lines lost fields: %+v", doc.Lines)
	}
}

func TestGetPurchaseOrderUnavailableCacheMiss(t *testing.T) {
	docNum := 61003
	fake := &testutil.FakeGateway{PO: sourcePO(docNum), Err: sapb1.ErrUnavailable}
	svc := setupSourceTest(t, fake, docNum)

	// Nothing cached yet: the outage surfaces to the caller
	if _, _, err := svc.GetPurchaseOrder(context.Background(), docNum); !errors.Is(err, sapb1.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable on cache miss, got %v", err)
	}
}

func TestGetPurchaseOrderRejectionSkipsCache(t *testing.T) {
	docNum := 61004
	fake := &testutil.FakeGateway{PO: sourcePO(docNum)}
	svc := setupSourceTest(t, fake, docNum)
	ctx := context.Background()

	if _, _, err := svc.GetPurchaseOrder(ctx, docNum); err != nil {
		t.Fatalf("warm-up read failed: %v", err)
	}

	// A Service Layer rejection is not an outage: never mask it with stale data
	fake.Err = &sapb1.APIError{Code: -1001, Message: "Invalid session"}
	_, _, err := svc.GetPurchaseOrder(ctx, docNum)
	var apiErr *sapb1.APIError
	if !errors.As(err, &apiErr) {
		t.Errorf("expected APIError surfaced despite cached copy, got %v", err)
	}
}

func TestGetTransferRequestServesCachedCopyWhenUnavailable(t *testing.T) {
	docNum := 61005
	fake := &testutil.FakeGateway{
		TR: &sapb1.InventoryTransferRequest{
			DocEntry: 88, DocNum: docNum, FromWarehouse: "WH01", ToWarehouse: "WH02",
			StockTransferLines: []sapb1.StockTransferLine{
				{LineNum: 0, ItemCode: "ITM-100", Quantity: 10, RemainingOpenQuantity: 4, FromWarehouseCode: "WH01", WarehouseCode: "WH02", LineStatus: sapb1.LineStatusOpen},
			},
		},
	}
	svc := setupSourceTest(t, fake, docNum)
	ctx := context.Background()

	if _, _, err := svc.GetTransferRequest(ctx, docNum); err != nil {
		t.Fatalf("warm-up read failed: %v", err)
	}

	fake.Err = sapb1.ErrUnavailable
	doc, offline, err := svc.GetTransferRequest(ctx, docNum)
	if err != nil {
		t.Fatalf("expected cached copy, got %v", err)
	}
	if !offline {
		t.Errorf("cached copy must be flagged offline")
	}
	if doc.FromWarehouse != "WH01" || doc.ToWarehouse != "WH02" {
		t.Errorf("cached warehouses lost: %+v", doc)
	}
	if len(doc.Lines) != 1 || doc.Lines[0].OpenQty != 4 {
		t.Errorf("cached lines lost fields: %+v", doc.Lines)
	}
}

func TestGetPurchaseOrderNotFoundBypassesFallback(t *testing.T) {
	docNum := 61006
	fake := &testutil.FakeGateway{}
	svc := setupSourceTest(t, fake, docNum)

	if _, _, err := svc.GetPurchaseOrder(context.Background(), docNum); !errors.Is(err, ErrSourceNotFound) {
		t.Errorf("expected ErrSourceNotFound, got %v", err)
	}
}
