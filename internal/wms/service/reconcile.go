package service

import (
	"go.uber.org/zap"

	"github.com/pragavigithub/emerging-wms/internal/shared/sapb1"
)

// SourceDocument ERP源单据的中立视图
// 对账引擎只看这个结构，不关心源单据是采购订单还是转储申请
type SourceDocument struct {
	DocEntry      int          `json:"doc_entry"`
	DocNum        int          `json:"doc_num"`
	CardCode      string       `json:"card_code,omitempty"`
	CardName      string       `json:"card_name,omitempty"`
	FromWarehouse string       `json:"from_warehouse,omitempty"`
	ToWarehouse   string       `json:"to_warehouse,omitempty"`
	DocDate       string       `json:"doc_date"`
	Lines         []SourceLine `json:"lines"`
}

// SourceLine 源单据行
type SourceLine struct {
	LineNum       int     `json:"line_num"`
	ItemCode      string  `json:"item_code"`
	ItemName      string  `json:"item_name"`
	Quantity      float64 `json:"quantity"`
	OpenQty       float64 `json:"open_qty"` // 剩余未清数量
	UnitPrice     float64 `json:"unit_price,omitempty"`
	UoMCode       string  `json:"uom_code,omitempty"`
	WarehouseCode string  `json:"warehouse_code"`
	FromWarehouse string  `json:"from_warehouse,omitempty"`
	LineStatus    string  `json:"line_status"`
}

// FromPurchaseOrder 采购订单转中立视图
func FromPurchaseOrder(po *sapb1.PurchaseOrder) *SourceDocument {
	doc := &SourceDocument{
		DocEntry: po.DocEntry,
		DocNum:   po.DocNum,
		CardCode: po.CardCode,
		CardName: po.CardName,
		DocDate:  po.DocDate,
	}
	for _, l := range po.DocumentLines {
		doc.Lines = append(doc.Lines, SourceLine{
			LineNum:       l.LineNum,
			ItemCode:      l.ItemCode,
			ItemName:      l.ItemDescription,
			Quantity:      l.Quantity,
			OpenQty:       l.OpenQuantity,
			UnitPrice:     l.Price,
			UoMCode:       l.UoMCode,
			WarehouseCode: l.WarehouseCode,
			LineStatus:    l.LineStatus,
		})
	}
	return doc
}

// FromTransferRequest 转储申请转中立视图
func FromTransferRequest(tr *sapb1.InventoryTransferRequest) *SourceDocument {
	doc := &SourceDocument{
		DocEntry:      tr.DocEntry,
		DocNum:        tr.DocNum,
		FromWarehouse: tr.FromWarehouse,
		ToWarehouse:   tr.ToWarehouse,
		DocDate:       tr.DocDate,
	}
	for _, l := range tr.StockTransferLines {
		doc.Lines = append(doc.Lines, SourceLine{
			LineNum:       l.LineNum,
			ItemCode:      l.ItemCode,
			ItemName:      l.ItemDescription,
			Quantity:      l.Quantity,
			OpenQty:       l.RemainingOpenQuantity,
			UoMCode:       l.UoMCode,
			WarehouseCode: l.WarehouseCode,
			FromWarehouse: l.FromWarehouseCode,
			LineStatus:    l.LineStatus,
		})
	}
	return doc
}

// Reconciler 行对账引擎
type Reconciler struct {
	logger *zap.Logger
}

func NewReconciler(logger *zap.Logger) *Reconciler {
	return &Reconciler{logger: logger}
}

// isOpen 行是否可收/可转
// 部分Service Layer补丁版本会返回空的LineStatus，按未清处理但记录告警
func (r *Reconciler) isOpen(doc *SourceDocument, line *SourceLine) bool {
	switch line.LineStatus {
	case sapb1.LineStatusOpen:
	case "":
		r.logger.Warn("source line has empty status, treating as open",
			zap.Int("doc_num", doc.DocNum),
			zap.Int("line_num", line.LineNum),
			zap.String("item_code", line.ItemCode))
	default:
		return false
	}
	return line.OpenQty > 0
}

// OpenLines 源单据的未清行
func (r *Reconciler) OpenLines(doc *SourceDocument) []SourceLine {
	var open []SourceLine
	for i := range doc.Lines {
		if r.isOpen(doc, &doc.Lines[i]) {
			open = append(open, doc.Lines[i])
		}
	}
	return open
}

// Reconcile 按物料编码在源单据中找到匹配的未清行
// 编码必须完全相等；多行命中时取行号最小的未清行
func (r *Reconciler) Reconcile(doc *SourceDocument, itemCode string) (*SourceLine, error) {
	for i := range doc.Lines {
		line := &doc.Lines[i]
		if line.ItemCode != itemCode {
			continue
		}
		if r.isOpen(doc, line) {
			return line, nil
		}
	}
	return nil, ErrLineMismatch
}
