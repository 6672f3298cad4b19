package sapb1

// =============================================================================
// Service Layer单据模型
// 字段名与Service Layer的OData属性保持一致
// =============================================================================

// 行/单据状态
const (
	LineStatusOpen   = "bost_Open"
	LineStatusClosed = "bost_Close"
)

// 过账基础单据类型
const (
	BaseTypePurchaseOrder    = 22         // 采购订单
	BaseTypeTransferRequest  = 1250000001 // 库存转储申请
)

// PurchaseOrder 采购订单（只读）
type PurchaseOrder struct {
	DocEntry       int                 `json:"DocEntry"`
	DocNum         int                 `json:"DocNum"`
	CardCode       string              `json:"CardCode"`
	CardName       string              `json:"CardName"`
	DocDate        string              `json:"DocDate"`
	DocumentStatus string              `json:"DocumentStatus"`
	DocumentLines  []PurchaseOrderLine `json:"DocumentLines"`
}

// PurchaseOrderLine 采购订单行
type PurchaseOrderLine struct {
	LineNum         int     `json:"LineNum"`
	ItemCode        string  `json:"ItemCode"`
	ItemDescription string  `json:"ItemDescription"`
	Quantity        float64 `json:"Quantity"`
	OpenQuantity    float64 `json:"OpenQuantity"` // 剩余未收数量
	Price           float64 `json:"Price"`
	UoMCode         string  `json:"UoMCode"`
	WarehouseCode   string  `json:"WarehouseCode"`
	LineStatus      string  `json:"LineStatus"`
}

// InventoryTransferRequest 库存转储申请（只读）
type InventoryTransferRequest struct {
	DocEntry           int                 `json:"DocEntry"`
	DocNum             int                 `json:"DocNum"`
	FromWarehouse      string              `json:"FromWarehouse"`
	ToWarehouse        string              `json:"ToWarehouse"`
	DocDate            string              `json:"DocDate"`
	DocumentStatus     string              `json:"DocumentStatus"`
	StockTransferLines []StockTransferLine `json:"StockTransferLines"`
}

// StockTransferLine 转储申请行
type StockTransferLine struct {
	LineNum               int     `json:"LineNum"`
	ItemCode              string  `json:"ItemCode"`
	ItemDescription       string  `json:"ItemDescription"`
	Quantity              float64 `json:"Quantity"`
	RemainingOpenQuantity float64 `json:"RemainingOpenQuantity"` // 剩余未转数量
	UoMCode               string  `json:"UoMCode"`
	FromWarehouseCode     string  `json:"FromWarehouseCode"`
	WarehouseCode         string  `json:"WarehouseCode"` // 目标仓库
	LineStatus            string  `json:"LineStatus"`
}

// Warehouse 仓库主数据
type Warehouse struct {
	WarehouseCode   string `json:"WarehouseCode"`
	WarehouseName   string `json:"WarehouseName"`
	BusinessPlaceID int    `json:"BusinessPlaceID"` // 业务场所（分支机构）
}

// BinLocation 库位主数据
type BinLocation struct {
	AbsEntry  int    `json:"AbsEntry"`
	BinCode   string `json:"BinCode"`
	Warehouse string `json:"Warehouse"`
}

// DocumentRef 已创建单据的引用
type DocumentRef struct {
	DocEntry int `json:"DocEntry"`
	DocNum   int `json:"DocNum"`
}

// =============================================================================
// 过账载荷
// =============================================================================

// BatchNumber 批次分配块
type BatchNumber struct {
	BatchNumber    string  `json:"BatchNumber"`
	Quantity       float64 `json:"Quantity"`
	ExpiryDate     string  `json:"ExpiryDate,omitempty"`
	BaseLineNumber int     `json:"BaseLineNumber"`
}

// SerialNumber 序列号分配块
type SerialNumber struct {
	InternalSerialNumber string  `json:"InternalSerialNumber"`
	Quantity             float64 `json:"Quantity"`
	BaseLineNumber       int     `json:"BaseLineNumber"`
}

// 转储库位分配方向
const (
	BinActionFromWarehouse = "batFromWarehouse"
	BinActionToWarehouse   = "batToWarehouse"
)

// BinAllocation 库位分配块
// BinActionType只在库存转储中使用，收货单留空
type BinAllocation struct {
	BinAbsEntry    int     `json:"BinAbsEntry"`
	Quantity       float64 `json:"Quantity"`
	BaseLineNumber int     `json:"BaseLineNumber"`
	BinActionType  string  `json:"BinActionType,omitempty"`
}

// DeliveryNoteLine 收货单行
type DeliveryNoteLine struct {
	BaseType       int             `json:"BaseType"`
	BaseEntry      int             `json:"BaseEntry"`
	BaseLine       int             `json:"BaseLine"`
	ItemCode       string          `json:"ItemCode"`
	Quantity       float64         `json:"Quantity"`
	UnitPrice      float64         `json:"UnitPrice,omitempty"`
	UoMCode        string          `json:"UoMCode,omitempty"`
	WarehouseCode  string          `json:"WarehouseCode"`
	BatchNumbers   []BatchNumber   `json:"BatchNumbers,omitempty"`
	SerialNumbers  []SerialNumber  `json:"SerialNumbers,omitempty"`
	BinAllocations []BinAllocation `json:"DocumentLinesBinAllocations,omitempty"`
}

// DeliveryNote 采购收货单载荷（POST /PurchaseDeliveryNotes）
type DeliveryNote struct {
	CardCode        string             `json:"CardCode"`
	DocDate         string             `json:"DocDate"`
	DocDueDate      string             `json:"DocDueDate"`
	NumAtCard       string             `json:"NumAtCard"` // 本系统的确定性引用号，用于幂等检查
	Comments        string             `json:"Comments,omitempty"`
	BPLIDAssignedTo int                `json:"BPL_IDAssignedToInvoice,omitempty"`
	DocumentLines   []DeliveryNoteLine `json:"DocumentLines"`
}

// TransferPostLine 库存转储行
type TransferPostLine struct {
	BaseType          int             `json:"BaseType,omitempty"`
	BaseEntry         int             `json:"BaseEntry,omitempty"`
	BaseLine          int             `json:"BaseLine"`
	ItemCode          string          `json:"ItemCode"`
	Quantity          float64         `json:"Quantity"`
	UoMCode           string          `json:"UoMCode,omitempty"`
	FromWarehouseCode string          `json:"FromWarehouseCode"`
	WarehouseCode     string          `json:"WarehouseCode"`
	BatchNumbers      []BatchNumber   `json:"BatchNumbers,omitempty"`
	SerialNumbers     []SerialNumber  `json:"SerialNumbers,omitempty"`
	BinAllocations    []BinAllocation `json:"StockTransferLinesBinAllocations,omitempty"`
}

// StockTransfer 库存转储载荷（POST /StockTransfers）
type StockTransfer struct {
	DocDate            string             `json:"DocDate"`
	Reference1         string             `json:"Reference1"` // 本系统的确定性引用号
	Comments           string             `json:"Comments,omitempty"`
	FromWarehouse      string             `json:"FromWarehouse"`
	ToWarehouse        string             `json:"ToWarehouse"`
	BPLID              int                `json:"BPLID,omitempty"`
	StockTransferLines []TransferPostLine `json:"StockTransferLines"`
}
