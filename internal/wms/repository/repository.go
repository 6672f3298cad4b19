package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories WMS仓库集合
type Repositories struct {
	Receipt   *ReceiptRepository
	Transfer  *TransferRepository
	Warehouse *WarehouseRepository
}

// NewRepositories 创建WMS仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Receipt:   NewReceiptRepository(db),
		Transfer:  NewTransferRepository(db),
		Warehouse: NewWarehouseRepository(db),
	}
}
