package entity

import "time"

// TransferDocument 转储暂存单（对应库存转储申请）
type TransferDocument struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	DocCode    string `json:"doc_code" gorm:"size:32;uniqueIndex;not null"`
	TRDocNum   int    `json:"tr_doc_num" gorm:"not null;index"`
	TRDocEntry int    `json:"tr_doc_entry" gorm:"not null"`

	// 创建时从源单捕获的仓库
	FromWarehouse string `json:"from_warehouse" gorm:"size:16;not null"`
	ToWarehouse   string `json:"to_warehouse" gorm:"size:16;not null"`

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
	Lines []TransferLine `json:"lines,omitempty" gorm:"foreignKey:DocumentID"`
}

func (TransferDocument) TableName() string {
	return "wms_transfers"
}

// TransferLine 转储暂存单行
type TransferLine struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	DocumentID string `json:"document_id" gorm:"size:32;not null;index"`

	// 物料
	ItemCode string  `json:"item_code" gorm:"size:50;not null"`
	ItemName string  `json:"item_name" gorm:"size:200"`
	Quantity float64 `json:"quantity" gorm:"type:decimal(12,3);not null"`

	// 对账时从源单行冻结的字段
	BaseLine       int     `json:"base_line" gorm:"not null"`
	OpenQtyAtMatch float64 `json:"open_qty_at_match" gorm:"type:decimal(12,3)"`
	UoMCode        string  `json:"uom_code" gorm:"size:20"`
	FromWarehouse  string  `json:"from_warehouse" gorm:"size:16;not null"`
	ToWarehouse    string  `json:"to_warehouse" gorm:"size:16;not null"`

	// 两端库位与批次/序列号
	FromBinCode     string     `json:"from_bin_code" gorm:"size:64"`
	FromBinAbsEntry *int       `json:"from_bin_abs_entry"`
	ToBinCode       string     `json:"to_bin_code" gorm:"size:64"`
	ToBinAbsEntry   *int       `json:"to_bin_abs_entry"`
	BatchNo         *string    `json:"batch_no" gorm:"size:64"`
	SerialNo        *string    `json:"serial_no" gorm:"size:64"`
	ExpiryDate      *time.Time `json:"expiry_date"`

	QCStatus string `json:"qc_status" gorm:"size:20;default:pending"` // pending/approved/rejected

	SortOrder int       `json:"sort_order" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TransferLine) TableName() string {
	return "wms_transfer_lines"
}
