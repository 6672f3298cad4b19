package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/pragavigithub/emerging-wms/internal/middleware"
	"github.com/pragavigithub/emerging-wms/internal/wms/service"
)

// TransferHandler 转储暂存单处理器
type TransferHandler struct {
	svc     *service.TransferService
	posting *service.PostingService
}

func NewTransferHandler(svc *service.TransferService, posting *service.PostingService) *TransferHandler {
	return &TransferHandler{svc: svc, posting: posting}
}

// List 转储单列表
// GET /api/v1/wms/transfers?status=xxx&from_warehouse=xxx&search=xxx
func (h *TransferHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"status":         c.Query("status"),
		"created_by":     c.Query("created_by"),
		"from_warehouse": c.Query("from_warehouse"),
		"search":         c.Query("search"),
	}

	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "获取转储单列表失败: "+err.Error())
		return
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	Success(c, ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	})
}

// Get 转储单详情
// GET /api/v1/wms/transfers/:id
func (h *TransferHandler) Get(c *gin.Context) {
	doc, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, doc)
}

// Create 针对库存转储申请创建转储暂存单
// POST /api/v1/wms/transfers
func (h *TransferHandler) Create(c *gin.Context) {
	var req service.CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	doc, err := h.svc.Create(c.Request.Context(), &req, GetUserID(c))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Created(c, doc)
}

// AddLine 追加转储行
// POST /api/v1/wms/transfers/:id/lines
func (h *TransferHandler) AddLine(c *gin.Context) {
	var req service.AddTransferLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	line, err := h.svc.AddLine(c.Request.Context(), c.Param("id"), &req, GetUserID(c))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Created(c, line)
}

// Submit 提交送检
// POST /api/v1/wms/transfers/:id/submit
func (h *TransferHandler) Submit(c *gin.Context) {
	if err := h.svc.Submit(c.Request.Context(), c.Param("id"), GetUserID(c)); err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, gin.H{"submitted": true})
}

// QCDecide QC裁决
// POST /api/v1/wms/transfers/:id/qc
func (h *TransferHandler) QCDecide(c *gin.Context) {
	var req service.QCDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	if err := h.svc.QCDecide(c.Request.Context(), c.Param("id"), &req, GetUserID(c)); err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, gin.H{"decision": req.Decision})
}

// Reopen 重开被拒单据
// POST /api/v1/wms/transfers/:id/reopen
func (h *TransferHandler) Reopen(c *gin.Context) {
	isAdmin := HasRole(c, middleware.RoleAdmin)
	if err := h.svc.Reopen(c.Request.Context(), c.Param("id"), GetUserID(c), isAdmin); err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, gin.H{"reopened": true})
}

// Post 过账为库存转储
// POST /api/v1/wms/transfers/:id/post
func (h *TransferHandler) Post(c *gin.Context) {
	result, err := h.posting.PostTransfer(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, result)
}

// Preview 预览过账载荷
// GET /api/v1/wms/transfers/:id/preview
func (h *TransferHandler) Preview(c *gin.Context) {
	payload, err := h.svc.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, payload)
}
