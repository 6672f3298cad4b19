package service

import (
	"time"

	"github.com/pragavigithub/emerging-wms/internal/shared/sapb1"
	"github.com/pragavigithub/emerging-wms/internal/wms/entity"
)

// =============================================================================
// 过账载荷合成器
// 纯函数：同样的单据状态合成出逐字节相同的载荷，重试安全
// =============================================================================

const (
	receiptRefPrefix  = "WMS-GRN-"
	transferRefPrefix = "WMS-TRF-"
)

// ReceiptPostingRef 收货单的确定性引用号，写入NumAtCard
func ReceiptPostingRef(docID string) string {
	return receiptRefPrefix + docID
}

// TransferPostingRef 转储单的确定性引用号，写入Reference1
func TransferPostingRef(docID string) string {
	return transferRefPrefix + docID
}

// eligibleReceiptLines 进入载荷的行
// QC通过的行；单据尚未裁决时（预览场景）取pending行
func eligibleReceiptLines(doc *entity.ReceiptDocument) []entity.ReceiptLine {
	var approved, pending []entity.ReceiptLine
	for _, l := range doc.Lines {
		switch l.QCStatus {
		case entity.LineQCApproved:
			approved = append(approved, l)
		case entity.LineQCPending:
			pending = append(pending, l)
		}
	}
	if len(approved) > 0 {
		return approved
	}
	if doc.Status == entity.DocStatusDraft || doc.Status == entity.DocStatusSubmitted {
		return pending
	}
	return nil
}

func eligibleTransferLines(doc *entity.TransferDocument) []entity.TransferLine {
	var approved, pending []entity.TransferLine
	for _, l := range doc.Lines {
		switch l.QCStatus {
		case entity.LineQCApproved:
			approved = append(approved, l)
		case entity.LineQCPending:
			pending = append(pending, l)
		}
	}
	if len(approved) > 0 {
		return approved
	}
	if doc.Status == entity.DocStatusDraft || doc.Status == entity.DocStatusSubmitted {
		return pending
	}
	return nil
}

// resolveBusinessPlace 从各行仓库解析业务场所，要求全部行一致
func resolveBusinessPlace(warehouses []string, businessPlaces map[string]int) (int, error) {
	bplID := 0
	for i, wh := range warehouses {
		id := businessPlaces[wh]
		if i == 0 {
			bplID = id
			continue
		}
		if id != bplID {
			return 0, ErrMixedBusinessPlace
		}
	}
	return bplID, nil
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// batchBlock 批次分配块。行无到期日时沿用单据日期
func batchBlock(batchNo string, qty float64, expiry *time.Time, docDate time.Time, baseLine int) sapb1.BatchNumber {
	exp := docDate
	if expiry != nil {
		exp = *expiry
	}
	return sapb1.BatchNumber{
		BatchNumber:    batchNo,
		Quantity:       qty,
		ExpiryDate:     formatDate(exp),
		BaseLineNumber: baseLine,
	}
}

// BuildDeliveryNote 合成采购收货单载荷
func BuildDeliveryNote(doc *entity.ReceiptDocument, businessPlaces map[string]int) (*sapb1.DeliveryNote, error) {
	lines := eligibleReceiptLines(doc)
	if len(lines) == 0 {
		return nil, ErrNoApprovedLines
	}

	warehouses := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.WarehouseCode == "" {
			return nil, ErrMissingWarehouse
		}
		warehouses = append(warehouses, l.WarehouseCode)
	}
	bplID, err := resolveBusinessPlace(warehouses, businessPlaces)
	if err != nil {
		return nil, err
	}

	payload := &sapb1.DeliveryNote{
		CardCode:        doc.CardCode,
		DocDate:         formatDate(doc.DocDate),
		DocDueDate:      formatDate(doc.DocDate),
		NumAtCard:       ReceiptPostingRef(doc.ID),
		Comments:        "WMS goods receipt " + doc.DocCode,
		BPLIDAssignedTo: bplID,
	}

	for idx, l := range lines {
		line := sapb1.DeliveryNoteLine{
			BaseType:      sapb1.BaseTypePurchaseOrder,
			BaseEntry:     doc.PODocEntry,
			BaseLine:      l.BaseLine,
			ItemCode:      l.ItemCode,
			Quantity:      l.Quantity,
			UoMCode:       l.UoMCode,
			WarehouseCode: l.WarehouseCode,
		}
		if l.UnitPrice != nil {
			line.UnitPrice = *l.UnitPrice
		}
		if l.BatchNo != nil {
			line.BatchNumbers = []sapb1.BatchNumber{
				batchBlock(*l.BatchNo, l.Quantity, l.ExpiryDate, doc.DocDate, idx),
			}
		}
		if l.SerialNo != nil {
			line.SerialNumbers = []sapb1.SerialNumber{{
				InternalSerialNumber: *l.SerialNo,
				Quantity:             l.Quantity,
				BaseLineNumber:       idx,
			}}
		}
		if l.BinAbsEntry != nil {
			line.BinAllocations = []sapb1.BinAllocation{{
				BinAbsEntry:    *l.BinAbsEntry,
				Quantity:       l.Quantity,
				BaseLineNumber: idx,
			}}
		}
		payload.DocumentLines = append(payload.DocumentLines, line)
	}
	return payload, nil
}

// BuildStockTransfer 合成库存转储载荷
func BuildStockTransfer(doc *entity.TransferDocument, businessPlaces map[string]int) (*sapb1.StockTransfer, error) {
	lines := eligibleTransferLines(doc)
	if len(lines) == 0 {
		return nil, ErrNoApprovedLines
	}

	warehouses := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.FromWarehouse == "" || l.ToWarehouse == "" {
			return nil, ErrMissingWarehouse
		}
		warehouses = append(warehouses, l.FromWarehouse)
	}
	bplID, err := resolveBusinessPlace(warehouses, businessPlaces)
	if err != nil {
		return nil, err
	}

	payload := &sapb1.StockTransfer{
		DocDate:       formatDate(doc.DocDate),
		Reference1:    TransferPostingRef(doc.ID),
		Comments:      "WMS stock transfer " + doc.DocCode,
		FromWarehouse: doc.FromWarehouse,
		ToWarehouse:   doc.ToWarehouse,
		BPLID:         bplID,
	}

	for idx, l := range lines {
		line := sapb1.TransferPostLine{
			BaseType:          sapb1.BaseTypeTransferRequest,
			BaseEntry:         doc.TRDocEntry,
			BaseLine:          l.BaseLine,
			ItemCode:          l.ItemCode,
			Quantity:          l.Quantity,
			UoMCode:           l.UoMCode,
			FromWarehouseCode: l.FromWarehouse,
			WarehouseCode:     l.ToWarehouse,
		}
		if l.BatchNo != nil {
			line.BatchNumbers = []sapb1.BatchNumber{
				batchBlock(*l.BatchNo, l.Quantity, l.ExpiryDate, doc.DocDate, idx),
			}
		}
		if l.SerialNo != nil {
			line.SerialNumbers = []sapb1.SerialNumber{{
				InternalSerialNumber: *l.SerialNo,
				Quantity:             l.Quantity,
				BaseLineNumber:       idx,
			}}
		}
		if l.FromBinAbsEntry != nil {
			line.BinAllocations = append(line.BinAllocations, sapb1.BinAllocation{
				BinAbsEntry:    *l.FromBinAbsEntry,
				Quantity:       l.Quantity,
				BaseLineNumber: idx,
				BinActionType:  sapb1.BinActionFromWarehouse,
			})
		}
		if l.ToBinAbsEntry != nil {
			line.BinAllocations = append(line.BinAllocations, sapb1.BinAllocation{
				BinAbsEntry:    *l.ToBinAbsEntry,
				Quantity:       l.Quantity,
				BaseLineNumber: idx,
				BinActionType:  sapb1.BinActionToWarehouse,
			})
		}
		payload.StockTransferLines = append(payload.StockTransferLines, line)
	}
	return payload, nil
}
