package service

import (
	"context"

	"github.com/pragavigithub/emerging-wms/internal/shared/sapb1"
)

// ERPGateway Service Layer网关能力。测试中用假实现替换
type ERPGateway interface {
	GetPurchaseOrder(ctx context.Context, docNum int) (*sapb1.PurchaseOrder, error)
	GetInventoryTransferRequest(ctx context.Context, docNum int) (*sapb1.InventoryTransferRequest, error)
	ListWarehouses(ctx context.Context) ([]sapb1.Warehouse, error)
	GetBinLocation(ctx context.Context, binCode string) (*sapb1.BinLocation, error)
	FindDeliveryNoteByNumAtCard(ctx context.Context, numAtCard string) (*sapb1.DocumentRef, error)
	FindStockTransferByRef(ctx context.Context, ref string) (*sapb1.DocumentRef, error)
	CreateDeliveryNote(ctx context.Context, payload *sapb1.DeliveryNote) (*sapb1.DocumentRef, error)
	CreateStockTransfer(ctx context.Context, payload *sapb1.StockTransfer) (*sapb1.DocumentRef, error)
}
