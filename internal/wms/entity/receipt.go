package entity

import "time"

// ReceiptDocument 收货暂存单（对应采购订单）
type ReceiptDocument struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	DocCode    string `json:"doc_code" gorm:"size:32;uniqueIndex;not null"`
	PODocNum   int    `json:"po_doc_num" gorm:"not null;index"`
	PODocEntry int    `json:"po_doc_entry" gorm:"not null"`
	CardCode   string `json:"card_code" gorm:"size:32"`
	CardName   string `json:"card_name" gorm:"size:200"`

	Status  string    `json:"status" gorm:"size:20;default:draft"` // draft/submitted/approved/rejected/posted
	DocDate time.Time `json:"doc_date"`

	// QC
	QCBy    *string    `json:"qc_by" gorm:"size:32"`
	QCAt    *time.Time `json:"qc_at"`
	QCNotes string     `json:"qc_notes" gorm:"type:text"`

	// ERP过账结果：只允许从空到有，永不清除或覆盖
	ERPDocEntry *int `json:"erp_doc_entry"`
	ERPDocNum   *int `json:"erp_doc_num"`

	CreatedBy string    `json:"created_by" gorm:"size:32;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 关联
	Lines []ReceiptLine `json:"lines,omitempty" gorm:"foreignKey:DocumentID"`
}

func (ReceiptDocument) TableName() string {
	return "wms_receipts"
}

// 单据状态
const (
	DocStatusDraft     = "draft"
	DocStatusSubmitted = "submitted"
	DocStatusApproved  = "approved"
	DocStatusRejected  = "rejected"
	DocStatusPosted    = "posted"
)

// ValidDocumentTransitions 单据状态机
// posted为终态；rejected只能经reopen回到draft
var ValidDocumentTransitions = map[string][]string{
	DocStatusDraft:     {DocStatusSubmitted},
	DocStatusSubmitted: {DocStatusApproved, DocStatusRejected},
	DocStatusApproved:  {DocStatusPosted},
	DocStatusRejected:  {DocStatusDraft},
}

// CanTransition 判断状态迁移是否合法
func CanTransition(from, to string) bool {
	for _, s := range ValidDocumentTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ReceiptLine 收货暂存单行
type ReceiptLine struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	DocumentID string `json:"document_id" gorm:"size:32;not null;index"`

	// 物料
	ItemCode string  `json:"item_code" gorm:"size:50;not null"`
	ItemName string  `json:"item_name" gorm:"size:200"`
	Quantity float64 `json:"quantity" gorm:"type:decimal(12,3);not null"`

	// 对账时从源单行冻结的字段
	BaseLine       int      `json:"base_line" gorm:"not null"`                   // 源单行号
	OpenQtyAtMatch float64  `json:"open_qty_at_match" gorm:"type:decimal(12,3)"` // 匹配时的剩余未收数量
	UoMCode        string   `json:"uom_code" gorm:"size:20"`
	UnitPrice      *float64 `json:"unit_price" gorm:"type:decimal(12,4)"`
	WarehouseCode  string   `json:"warehouse_code" gorm:"size:16;not null"`

	// 库位与批次/序列号
	BinCode     string     `json:"bin_code" gorm:"size:64"`
	BinAbsEntry *int       `json:"bin_abs_entry"`
	BatchNo     *string    `json:"batch_no" gorm:"size:64"`
	SerialNo    *string    `json:"serial_no" gorm:"size:64"`
	ExpiryDate  *time.Time `json:"expiry_date"`

	// 行级QC状态：与单据QC状态一起变更，reopen时重置为pending
	QCStatus string `json:"qc_status" gorm:"size:20;default:pending"` // pending/approved/rejected

	SortOrder int       `json:"sort_order" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ReceiptLine) TableName() string {
	return "wms_receipt_lines"
}

// 行级QC状态
const (
	LineQCPending  = "pending"
	LineQCApproved = "approved"
	LineQCRejected = "rejected"
)
