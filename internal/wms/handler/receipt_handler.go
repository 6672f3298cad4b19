package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/pragavigithub/emerging-wms/internal/middleware"
	"github.com/pragavigithub/emerging-wms/internal/wms/service"
)

// ReceiptHandler 收货暂存单处理器
type ReceiptHandler struct {
	svc       *service.ReceiptService
	posting   *service.PostingService
	exportSvc *service.ExportService
}

func NewReceiptHandler(svc *service.ReceiptService, posting *service.PostingService, exportSvc *service.ExportService) *ReceiptHandler {
	return &ReceiptHandler{svc: svc, posting: posting, exportSvc: exportSvc}
}

// List 收货单列表
// GET /api/v1/wms/receipts?status=xxx&created_by=xxx&search=xxx
func (h *ReceiptHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"status":     c.Query("status"),
		"created_by": c.Query("created_by"),
		"search":     c.Query("search"),
	}

	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "获取收货单列表失败: "+err.Error())
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

// Get 收货单详情
// GET /api/v1/wms/receipts/:id
func (h *ReceiptHandler) Get(c *gin.Context) {
	doc, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, doc)
}

// Create 针对采购订单创建收货暂存单
// POST /api/v1/wms/receipts
func (h *ReceiptHandler) Create(c *gin.Context) {
	var req service.CreateReceiptRequest
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

// AddLine 追加收货行
// POST /api/v1/wms/receipts/:id/lines
func (h *ReceiptHandler) AddLine(c *gin.Context) {
	var req service.AddReceiptLineRequest
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
// POST /api/v1/wms/receipts/:id/submit
func (h *ReceiptHandler) Submit(c *gin.Context) {
	if err := h.svc.Submit(c.Request.Context(), c.Param("id"), GetUserID(c)); err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, gin.H{"submitted": true})
}

// QCDecide QC裁决
// POST /api/v1/wms/receipts/:id/qc
func (h *ReceiptHandler) QCDecide(c *gin.Context) {
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
// POST /api/v1/wms/receipts/:id/reopen
func (h *ReceiptHandler) Reopen(c *gin.Context) {
	isAdmin := HasRole(c, middleware.RoleAdmin)
	if err := h.svc.Reopen(c.Request.Context(), c.Param("id"), GetUserID(c), isAdmin); err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, gin.H{"reopened": true})
}

// Post 过账为采购收货单
// POST /api/v1/wms/receipts/:id/post
func (h *ReceiptHandler) Post(c *gin.Context) {
	result, err := h.posting.PostReceipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, result)
}

// Preview 预览过账载荷
// GET /api/v1/wms/receipts/:id/preview
func (h *ReceiptHandler) Preview(c *gin.Context) {
	payload, err := h.svc.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, payload)
}

// Export 收货台账导出
// GET /api/v1/wms/receipts/export?status=xxx
func (h *ReceiptHandler) Export(c *gin.Context) {
	filters := map[string]string{
		"status":     c.Query("status"),
		"created_by": c.Query("created_by"),
	}

	f, filename, err := h.exportSvc.ExportReceipts(c.Request.Context(), filters)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "write excel: "+err.Error())
	}
}
