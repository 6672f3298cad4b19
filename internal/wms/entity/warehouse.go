package entity

import "time"

// Warehouse 仓库主数据本地缓存（从Service Layer同步）
type Warehouse struct {
	Code            string    `json:"code" gorm:"primaryKey;size:16"`
	Name            string    `json:"name" gorm:"size:100"`
	BusinessPlaceID int       `json:"business_place_id"` // 业务场所，过账时的路由标识
	SyncedAt        time.Time `json:"synced_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Warehouse) TableName() string {
	return "wms_warehouses"
}
