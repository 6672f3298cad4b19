package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pragavigithub/emerging-wms/internal/shared/sapb1"
	"github.com/pragavigithub/emerging-wms/internal/wms/entity"
	"github.com/pragavigithub/emerging-wms/internal/wms/repository"
)

// PostingResult 过账结果
type PostingResult struct {
	ERPDocEntry int  `json:"erp_doc_entry"`
	ERPDocNum   int  `json:"erp_doc_num"`
	Adopted     bool `json:"adopted"` // 上次不确定结果后在ERP侧找到了已存在的单据
}

// PostingService 过账编排器
// 保证至多一次：先查ERP侧是否已有本单，再提交，最后用条件更新落账；
// 条件更新影响0行说明并发过账已抢先，本次失败且不会重复提交
type PostingService struct {
	repos      *repository.Repositories
	gateway    ERPGateway
	warehouses *WarehouseService
	logger     *zap.Logger
}

func NewPostingService(repos *repository.Repositories, gateway ERPGateway, warehouses *WarehouseService, logger *zap.Logger) *PostingService {
	return &PostingService{repos: repos, gateway: gateway, warehouses: warehouses, logger: logger}
}

// PostReceipt 将QC通过的收货单过账为采购收货单
// 网关失败时单据保持approved，重试安全
func (s *PostingService) PostReceipt(ctx context.Context, docID string) (*PostingResult, error) {
	doc, err := s.repos.Receipt.FindByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.Status != entity.DocStatusApproved || doc.ERPDocEntry != nil {
		return nil, fmt.Errorf("%w: 只有QC通过且未过账的单据可以过账", ErrGuardViolation)
	}

	// 过账前必须拿到新鲜源单据，绝不使用离线副本
	if _, err := s.gateway.GetPurchaseOrder(ctx, doc.PODocNum); err != nil {
		if errors.Is(err, sapb1.ErrNotFound) {
			return nil, ErrSourceNotFound
		}
		return nil, err
	}

	businessPlaces, err := s.warehouses.BusinessPlaceMap(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := BuildDeliveryNote(doc, businessPlaces)
	if err != nil {
		return nil, err
	}

	ref, adopted, err := s.ensureDeliveryNote(ctx, payload)
	if err != nil {
		return nil, err
	}

	if err := s.repos.Receipt.MarkPosted(ctx, doc.ID, ref.DocEntry, ref.DocNum); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: 单据已被并发过账", ErrGuardViolation)
		}
		return nil, err
	}

	s.logger.Info("receipt posted",
		zap.String("doc_id", doc.ID),
		zap.String("doc_code", doc.DocCode),
		zap.Int("erp_doc_entry", ref.DocEntry),
		zap.Int("erp_doc_num", ref.DocNum),
		zap.Bool("adopted", adopted))
	return &PostingResult{ERPDocEntry: ref.DocEntry, ERPDocNum: ref.DocNum, Adopted: adopted}, nil
}

// ensureDeliveryNote 先按引用号查ERP侧是否已存在，存在则直接采纳，不再提交
func (s *PostingService) ensureDeliveryNote(ctx context.Context, payload *sapb1.DeliveryNote) (*sapb1.DocumentRef, bool, error) {
	ref, err := s.gateway.FindDeliveryNoteByNumAtCard(ctx, payload.NumAtCard)
	if err == nil {
		s.logger.Warn("delivery note already exists in erp, adopting",
			zap.String("num_at_card", payload.NumAtCard),
			zap.Int("erp_doc_entry", ref.DocEntry))
		return ref, true, nil
	}
	if !errors.Is(err, sapb1.ErrNotFound) {
		return nil, false, err
	}

	ref, err = s.gateway.CreateDeliveryNote(ctx, payload)
	if err != nil {
		return nil, false, err
	}
	return ref, false, nil
}

// PostTransfer 将QC通过的转储单过账为库存转储
func (s *PostingService) PostTransfer(ctx context.Context, docID string) (*PostingResult, error) {
	doc, err := s.repos.Transfer.FindByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.Status != entity.DocStatusApproved || doc.ERPDocEntry != nil {
		return nil, fmt.Errorf("%w: 只有QC通过且未过账的单据可以过账", ErrGuardViolation)
	}

	if _, err := s.gateway.GetInventoryTransferRequest(ctx, doc.TRDocNum); err != nil {
		if errors.Is(err, sapb1.ErrNotFound) {
			return nil, ErrSourceNotFound
		}
		return nil, err
	}

	businessPlaces, err := s.warehouses.BusinessPlaceMap(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := BuildStockTransfer(doc, businessPlaces)
	if err != nil {
		return nil, err
	}

	ref, adopted, err := s.ensureStockTransfer(ctx, payload)
	if err != nil {
		return nil, err
	}

	if err := s.repos.Transfer.MarkPosted(ctx, doc.ID, ref.DocEntry, ref.DocNum); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: 单据已被并发过账", ErrGuardViolation)
		}
		return nil, err
	}

	s.logger.Info("transfer posted",
		zap.String("doc_id", doc.ID),
		zap.String("doc_code", doc.DocCode),
		zap.Int("erp_doc_entry", ref.DocEntry),
		zap.Int("erp_doc_num", ref.DocNum),
		zap.Bool("adopted", adopted))
	return &PostingResult{ERPDocEntry: ref.DocEntry, ERPDocNum: ref.DocNum, Adopted: adopted}, nil
}

func (s *PostingService) ensureStockTransfer(ctx context.Context, payload *sapb1.StockTransfer) (*sapb1.DocumentRef, bool, error) {
	ref, err := s.gateway.FindStockTransferByRef(ctx, payload.Reference1)
	if err == nil {
		s.logger.Warn("stock transfer already exists in erp, adopting",
			zap.String("reference1", payload.Reference1),
			zap.Int("erp_doc_entry", ref.DocEntry))
		return ref, true, nil
	}
	if !errors.Is(err, sapb1.ErrNotFound) {
		return nil, false, err
	}

	ref, err = s.gateway.CreateStockTransfer(ctx, payload)
	if err != nil {
		return nil, false, err
	}
	return ref, false, nil
}
