package sapb1

import (
	"context"
	"fmt"
	"strings"
)

// =============================================================================
// 查询操作 — 源单据与主数据
// =============================================================================

// odataList Service Layer集合查询的统一包装
type odataList[T any] struct {
	Value []T `json:"value"`
}

// GetPurchaseOrder 按DocNum查询采购订单（含行项）
func (c *Client) GetPurchaseOrder(ctx context.Context, docNum int) (*PurchaseOrder, error) {
	path := fmt.Sprintf("/PurchaseOrders?$filter=DocNum eq %d", docNum)
	var result odataList[PurchaseOrder]
	if err := c.doRequest(ctx, "GET", escapeQuery(path), nil, &result); err != nil {
		return nil, err
	}
	if len(result.Value) == 0 {
		return nil, ErrNotFound
	}
	return &result.Value[0], nil
}

// GetInventoryTransferRequest 按DocNum查询库存转储申请（含行项）
func (c *Client) GetInventoryTransferRequest(ctx context.Context, docNum int) (*InventoryTransferRequest, error) {
	path := fmt.Sprintf("/InventoryTransferRequests?$filter=DocNum eq %d", docNum)
	var result odataList[InventoryTransferRequest]
	if err := c.doRequest(ctx, "GET", escapeQuery(path), nil, &result); err != nil {
		return nil, err
	}
	if len(result.Value) == 0 {
		return nil, ErrNotFound
	}
	return &result.Value[0], nil
}

// ListWarehouses 查询仓库主数据（仓库编码、名称、业务场所）
func (c *Client) ListWarehouses(ctx context.Context) ([]Warehouse, error) {
	path := "/Warehouses?$select=WarehouseCode,WarehouseName,BusinessPlaceID"
	var result odataList[Warehouse]
	if err := c.doRequest(ctx, "GET", escapeQuery(path), nil, &result); err != nil {
		return nil, err
	}
	return result.Value, nil
}

// GetBinLocation 按库位编码查询库位（取AbsEntry用于过账分配）
func (c *Client) GetBinLocation(ctx context.Context, binCode string) (*BinLocation, error) {
	path := fmt.Sprintf("/BinLocations?$filter=BinCode eq '%s'&$select=AbsEntry,BinCode,Warehouse", escapeFilterValue(binCode))
	var result odataList[BinLocation]
	if err := c.doRequest(ctx, "GET", escapeQuery(path), nil, &result); err != nil {
		return nil, err
	}
	if len(result.Value) == 0 {
		return nil, ErrNotFound
	}
	return &result.Value[0], nil
}

// FindDeliveryNoteByNumAtCard 按引用号查找已存在的收货单
// 过账前的幂等检查：超时等不确定结果后，先查ERP侧是否已有本单
func (c *Client) FindDeliveryNoteByNumAtCard(ctx context.Context, numAtCard string) (*DocumentRef, error) {
	path := fmt.Sprintf("/PurchaseDeliveryNotes?$filter=NumAtCard eq '%s'&$select=DocEntry,DocNum", escapeFilterValue(numAtCard))
	var result odataList[DocumentRef]
	if err := c.doRequest(ctx, "GET", escapeQuery(path), nil, &result); err != nil {
		return nil, err
	}
	if len(result.Value) == 0 {
		return nil, ErrNotFound
	}
	return &result.Value[0], nil
}

// FindStockTransferByRef 按引用号查找已存在的库存转储
func (c *Client) FindStockTransferByRef(ctx context.Context, ref string) (*DocumentRef, error) {
	path := fmt.Sprintf("/StockTransfers?$filter=Reference1 eq '%s'&$select=DocEntry,DocNum", escapeFilterValue(ref))
	var result odataList[DocumentRef]
	if err := c.doRequest(ctx, "GET", escapeQuery(path), nil, &result); err != nil {
		return nil, err
	}
	if len(result.Value) == 0 {
		return nil, ErrNotFound
	}
	return &result.Value[0], nil
}

// escapeQuery OData过滤串中的空格需转义为%20，其余结构保留
func escapeQuery(path string) string {
	return strings.ReplaceAll(path, " ", "%20")
}

// escapeFilterValue OData字符串字面量中的单引号按双写转义，防止外部输入破坏过滤串
func escapeFilterValue(v string) string {
	return strings.ReplaceAll(v, "'", "''")
}
