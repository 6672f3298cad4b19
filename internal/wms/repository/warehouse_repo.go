package repository

import (
	"context"
	"errors"
	"time"

	"github.com/pragavigithub/emerging-wms/internal/wms/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WarehouseRepository 仓库主数据缓存
type WarehouseRepository struct {
	db *gorm.DB
}

func NewWarehouseRepository(db *gorm.DB) *WarehouseRepository {
	return &WarehouseRepository{db: db}
}

// FindAll 查询全部仓库
func (r *WarehouseRepository) FindAll(ctx context.Context) ([]entity.Warehouse, error) {
	var items []entity.Warehouse
	err := r.db.WithContext(ctx).Order("code ASC").Find(&items).Error
	return items, err
}

// FindByCode 按仓库编码查找
func (r *WarehouseRepository) FindByCode(ctx context.Context, code string) (*entity.Warehouse, error) {
	var wh entity.Warehouse
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&wh).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &wh, nil
}

// Upsert 同步时按编码插入或更新
func (r *WarehouseRepository) Upsert(ctx context.Context, whs []entity.Warehouse) error {
	if len(whs) == 0 {
		return nil
	}
	now := time.Now()
	for i := range whs {
		whs[i].SyncedAt = now
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "business_place_id", "synced_at", "updated_at"}),
	}).Create(&whs).Error
}
