package sapb1

import (
	"context"
	"fmt"
)

// =============================================================================
// 过账操作 — 向Service Layer提交新单据
// 只有过账编排器允许调用这里的方法
// =============================================================================

// CreateDeliveryNote 提交采购收货单，返回ERP侧单据引用（HTTP 201）
func (c *Client) CreateDeliveryNote(ctx context.Context, payload *DeliveryNote) (*DocumentRef, error) {
	var result DocumentRef
	if err := c.doRequest(ctx, "POST", "/PurchaseDeliveryNotes", payload, &result); err != nil {
		return nil, fmt.Errorf("提交收货单失败: %w", err)
	}
	return &result, nil
}

// CreateStockTransfer 提交库存转储，返回ERP侧单据引用（HTTP 201）
func (c *Client) CreateStockTransfer(ctx context.Context, payload *StockTransfer) (*DocumentRef, error) {
	var result DocumentRef
	if err := c.doRequest(ctx, "POST", "/StockTransfers", payload, &result); err != nil {
		return nil, fmt.Errorf("提交库存转储失败: %w", err)
	}
	return &result, nil
}
