package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/pragavigithub/emerging-wms/internal/wms/service"
)

// WarehouseHandler 仓库主数据处理器
type WarehouseHandler struct {
	svc *service.WarehouseService
}

func NewWarehouseHandler(svc *service.WarehouseService) *WarehouseHandler {
	return &WarehouseHandler{svc: svc}
}

// List 本地仓库列表
// GET /api/v1/wms/warehouses
func (h *WarehouseHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		InternalError(c, "获取仓库列表失败: "+err.Error())
		return
	}
	Success(c, items)
}

// Sync 从Service Layer全量同步仓库主数据
// POST /api/v1/wms/warehouses/sync
func (h *WarehouseHandler) Sync(c *gin.Context) {
	count, err := h.svc.Sync(c.Request.Context())
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, gin.H{"synced": count})
}
