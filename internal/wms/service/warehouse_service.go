package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pragavigithub/emerging-wms/internal/wms/entity"
	"github.com/pragavigithub/emerging-wms/internal/wms/repository"
)

// WarehouseService 仓库主数据：从Service Layer同步到本地表
// 业务场所映射供载荷合成器查询，避免过账路径上的额外ERP往返
type WarehouseService struct {
	repos   *repository.Repositories
	gateway ERPGateway
	logger  *zap.Logger
}

func NewWarehouseService(repos *repository.Repositories, gateway ERPGateway, logger *zap.Logger) *WarehouseService {
	return &WarehouseService{repos: repos, gateway: gateway, logger: logger}
}

// Sync 全量同步仓库主数据，返回同步条数
func (s *WarehouseService) Sync(ctx context.Context) (int, error) {
	whs, err := s.gateway.ListWarehouses(ctx)
	if err != nil {
		return 0, fmt.Errorf("获取仓库主数据失败: %w", err)
	}

	items := make([]entity.Warehouse, 0, len(whs))
	for _, w := range whs {
		items = append(items, entity.Warehouse{
			Code:            w.WarehouseCode,
			Name:            w.WarehouseName,
			BusinessPlaceID: w.BusinessPlaceID,
		})
	}
	if err := s.repos.Warehouse.Upsert(ctx, items); err != nil {
		return 0, fmt.Errorf("写入仓库主数据失败: %w", err)
	}

	s.logger.Info("warehouse metadata synced", zap.Int("count", len(items)))
	return len(items), nil
}

// List 本地仓库列表
func (s *WarehouseService) List(ctx context.Context) ([]entity.Warehouse, error) {
	return s.repos.Warehouse.FindAll(ctx)
}

// BusinessPlaceMap 仓库编码到业务场所的映射
func (s *WarehouseService) BusinessPlaceMap(ctx context.Context) (map[string]int, error) {
	whs, err := s.repos.Warehouse.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[string]int, len(whs))
	for _, w := range whs {
		m[w.Code] = w.BusinessPlaceID
	}
	return m, nil
}
