package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pragavigithub/emerging-wms/internal/shared/sapb1"
)

// 源单据离线缓存TTL：短到不会掩盖ERP侧的行关闭，长到能撑过短暂断连
const sourceCacheTTL = 10 * time.Minute

// SourceService 源单据读取：在线走Service Layer并回填缓存，
// 断连时降级到redis缓存副本。过账路径绝不经过这里
type SourceService struct {
	gateway ERPGateway
	rdb     *redis.Client
	logger  *zap.Logger
}

func NewSourceService(gateway ERPGateway, rdb *redis.Client, logger *zap.Logger) *SourceService {
	return &SourceService{gateway: gateway, rdb: rdb, logger: logger}
}

// GetPurchaseOrder 读取采购订单。offline为true表示来自缓存副本
func (s *SourceService) GetPurchaseOrder(ctx context.Context, docNum int) (*SourceDocument, bool, error) {
	key := fmt.Sprintf("sapb1:po:%d", docNum)
	po, err := s.gateway.GetPurchaseOrder(ctx, docNum)
	if err != nil {
		return s.fallback(ctx, key, docNum, err)
	}
	doc := FromPurchaseOrder(po)
	s.cache(ctx, key, doc)
	return doc, false, nil
}

// GetTransferRequest 读取库存转储申请。offline为true表示来自缓存副本
func (s *SourceService) GetTransferRequest(ctx context.Context, docNum int) (*SourceDocument, bool, error) {
	key := fmt.Sprintf("sapb1:tr:%d", docNum)
	tr, err := s.gateway.GetInventoryTransferRequest(ctx, docNum)
	if err != nil {
		return s.fallback(ctx, key, docNum, err)
	}
	doc := FromTransferRequest(tr)
	s.cache(ctx, key, doc)
	return doc, false, nil
}

func (s *SourceService) cache(ctx context.Context, key string, doc *SourceDocument) {
	data, err := json.Marshal(doc)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, data, sourceCacheTTL).Err(); err != nil {
		s.logger.Warn("failed to cache source document", zap.String("key", key), zap.Error(err))
	}
}

// fallback 网关不可达时尝试缓存副本；其余错误原样返回
func (s *SourceService) fallback(ctx context.Context, key string, docNum int, cause error) (*SourceDocument, bool, error) {
	if errors.Is(cause, sapb1.ErrNotFound) {
		return nil, false, ErrSourceNotFound
	}
	if !errors.Is(cause, sapb1.ErrUnavailable) {
		return nil, false, cause
	}

	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false, cause
	}
	var doc SourceDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false, cause
	}
	s.logger.Warn("serving source document from offline cache",
		zap.String("key", key),
		zap.Int("doc_num", docNum),
		zap.Error(cause))
	return &doc, true, nil
}
