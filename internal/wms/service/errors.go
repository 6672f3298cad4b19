package service

import "errors"

// 业务错误分类：handler据此映射HTTP状态码
var (
	// ErrSourceNotFound ERP侧不存在该源单据
	ErrSourceNotFound = errors.New("source document not found")

	// ErrNoOpenLines 源单据没有任何可收/可转的未清行
	ErrNoOpenLines = errors.New("source document has no open lines")

	// ErrLineMismatch 物料编码在源单据中没有匹配的未清行
	ErrLineMismatch = errors.New("no matching open source line for item")

	// ErrGuardViolation 状态机守卫拒绝该操作（状态、归属或并发冲突）
	ErrGuardViolation = errors.New("operation not allowed in current state")

	// ErrNoApprovedLines 没有可进入过账载荷的行
	ErrNoApprovedLines = errors.New("document has no approved lines")

	// ErrMissingWarehouse 行缺少仓库编码，无法过账
	ErrMissingWarehouse = errors.New("line is missing a warehouse code")

	// ErrMixedBusinessPlace 行跨越多个业务场所，ERP不允许单据混合
	ErrMixedBusinessPlace = errors.New("lines span multiple business places")
)
