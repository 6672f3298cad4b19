package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pragavigithub/emerging-wms/internal/shared/sapb1"
	"github.com/pragavigithub/emerging-wms/internal/wms/repository"
	"github.com/pragavigithub/emerging-wms/internal/wms/service"
)

// Handlers WMS处理器集合
type Handlers struct {
	Receipt   *ReceiptHandler
	Transfer  *TransferHandler
	Warehouse *WarehouseHandler
}

// NewHandlers 创建WMS处理器集合
func NewHandlers(
	receiptSvc *service.ReceiptService,
	transferSvc *service.TransferService,
	postingSvc *service.PostingService,
	warehouseSvc *service.WarehouseService,
	exportSvc *service.ExportService,
) *Handlers {
	return &Handlers{
		Receipt:   NewReceiptHandler(receiptSvc, postingSvc, exportSvc),
		Transfer:  NewTransferHandler(transferSvc, postingSvc),
		Warehouse: NewWarehouseHandler(warehouseSvc),
	}
}

// === 响应辅助函数 ===

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// BadGateway ERP侧失败：单据状态不变，把原始错误交给操作员处置
func BadGateway(c *gin.Context, message string) {
	Error(c, 50200, message)
}

// HandleServiceError 业务错误到HTTP响应的统一映射
func HandleServiceError(c *gin.Context, err error) {
	var apiErr *sapb1.APIError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "单据不存在")
	case errors.Is(err, service.ErrSourceNotFound):
		NotFound(c, "ERP源单据不存在")
	case errors.Is(err, service.ErrNoOpenLines),
		errors.Is(err, service.ErrLineMismatch),
		errors.Is(err, service.ErrNoApprovedLines),
		errors.Is(err, service.ErrMissingWarehouse),
		errors.Is(err, service.ErrMixedBusinessPlace),
		errors.Is(err, service.ErrGuardViolation):
		BadRequest(c, err.Error())
	case errors.Is(err, sapb1.ErrUnavailable):
		BadGateway(c, "ERP暂不可用: "+err.Error())
	case errors.As(err, &apiErr):
		BadGateway(c, "ERP拒绝请求: "+apiErr.Error())
	default:
		InternalError(c, err.Error())
	}
}

func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// HasRole 当前用户是否持有指定角色
func HasRole(c *gin.Context, role string) bool {
	roles, exists := c.Get("roles")
	if !exists {
		return false
	}
	userRoles, ok := roles.([]string)
	if !ok {
		return false
	}
	for _, r := range userRoles {
		if r == role {
			return true
		}
	}
	return false
}

func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}
