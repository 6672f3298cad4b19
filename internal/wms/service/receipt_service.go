package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pragavigithub/emerging-wms/internal/shared/sapb1"
	"github.com/pragavigithub/emerging-wms/internal/wms/entity"
	"github.com/pragavigithub/emerging-wms/internal/wms/repository"
)

// CreateReceiptRequest 创建收货暂存单请求
type CreateReceiptRequest struct {
	PODocNum int `json:"po_doc_num" binding:"required"`
}

// AddReceiptLineRequest 追加收货行请求
type AddReceiptLineRequest struct {
	ItemCode   string     `json:"item_code" binding:"required"`
	Quantity   float64    `json:"quantity" binding:"required,gt=0"`
	BinCode    string     `json:"bin_code"`
	BatchNo    *string    `json:"batch_no"`
	SerialNo   *string    `json:"serial_no"`
	ExpiryDate *time.Time `json:"expiry_date"`
}

// QCDecisionRequest QC裁决请求
type QCDecisionRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approved rejected"`
	Notes    string `json:"notes"`
}

// ReceiptService 收货暂存单业务
type ReceiptService struct {
	repos      *repository.Repositories
	source     *SourceService
	gateway    ERPGateway
	warehouses *WarehouseService
	reconciler *Reconciler
	logger     *zap.Logger
}

func NewReceiptService(repos *repository.Repositories, source *SourceService, gateway ERPGateway, warehouses *WarehouseService, logger *zap.Logger) *ReceiptService {
	return &ReceiptService{
		repos:      repos,
		source:     source,
		gateway:    gateway,
		warehouses: warehouses,
		reconciler: NewReconciler(logger),
		logger:     logger,
	}
}

// List 查询收货单列表
func (s *ReceiptService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.ReceiptDocument, int64, error) {
	return s.repos.Receipt.FindAll(ctx, page, pageSize, filters)
}

// Get 查询收货单详情
func (s *ReceiptService) Get(ctx context.Context, id string) (*entity.ReceiptDocument, error) {
	return s.repos.Receipt.FindByID(ctx, id)
}

// Create 针对采购订单创建收货暂存单
// 源单据必须存在且至少有一个未清行
func (s *ReceiptService) Create(ctx context.Context, req *CreateReceiptRequest, userID string) (*entity.ReceiptDocument, error) {
	src, offline, err := s.source.GetPurchaseOrder(ctx, req.PODocNum)
	if err != nil {
		return nil, err
	}
	if offline {
		s.logger.Warn("creating receipt against cached purchase order",
			zap.Int("po_doc_num", req.PODocNum), zap.String("user_id", userID))
	}
	if len(s.reconciler.OpenLines(src)) == 0 {
		return nil, ErrNoOpenLines
	}

	code, err := s.repos.Receipt.GenerateCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("生成单据编码失败: %w", err)
	}

	doc := &entity.ReceiptDocument{
		ID:         uuid.New().String()[:32],
		DocCode:    code,
		PODocNum:   src.DocNum,
		PODocEntry: src.DocEntry,
		CardCode:   src.CardCode,
		CardName:   src.CardName,
		Status:     entity.DocStatusDraft,
		DocDate:    time.Now(),
		CreatedBy:  userID,
	}
	if err := s.repos.Receipt.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("创建收货单失败: %w", err)
	}
	return doc, nil
}

// AddLine 对账后追加收货行
// 行字段在匹配时从源单行冻结；本地数量不做上限截断
func (s *ReceiptService) AddLine(ctx context.Context, docID string, req *AddReceiptLineRequest, userID string) (*entity.ReceiptLine, error) {
	doc, err := s.repos.Receipt.FindByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.Status != entity.DocStatusDraft {
		return nil, fmt.Errorf("%w: 只有draft状态可以追加行", ErrGuardViolation)
	}
	if doc.CreatedBy != userID {
		return nil, fmt.Errorf("%w: 只有创建人可以编辑", ErrGuardViolation)
	}

	src, _, err := s.source.GetPurchaseOrder(ctx, doc.PODocNum)
	if err != nil {
		return nil, err
	}
	srcLine, err := s.reconciler.Reconcile(src, req.ItemCode)
	if err != nil {
		return nil, err
	}

	line := &entity.ReceiptLine{
		ID:             uuid.New().String()[:32],
		DocumentID:     doc.ID,
		ItemCode:       srcLine.ItemCode,
		ItemName:       srcLine.ItemName,
		Quantity:       req.Quantity,
		BaseLine:       srcLine.LineNum,
		OpenQtyAtMatch: srcLine.OpenQty,
		UoMCode:        srcLine.UoMCode,
		WarehouseCode:  srcLine.WarehouseCode,
		BatchNo:        req.BatchNo,
		SerialNo:       req.SerialNo,
		ExpiryDate:     req.ExpiryDate,
		QCStatus:       entity.LineQCPending,
	}
	if srcLine.UnitPrice > 0 {
		price := srcLine.UnitPrice
		line.UnitPrice = &price
	}

	if req.BinCode != "" {
		bin, err := s.gateway.GetBinLocation(ctx, req.BinCode)
		if err != nil {
			if errors.Is(err, sapb1.ErrNotFound) {
				return nil, fmt.Errorf("%w: 库位不存在 %s", ErrGuardViolation, req.BinCode)
			}
			return nil, err
		}
		if bin.Warehouse != srcLine.WarehouseCode {
			return nil, fmt.Errorf("%w: 库位%s不属于仓库%s", ErrGuardViolation, req.BinCode, srcLine.WarehouseCode)
		}
		line.BinCode = bin.BinCode
		line.BinAbsEntry = &bin.AbsEntry
	}

	count, err := s.repos.Receipt.CountLines(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	line.SortOrder = int(count)

	if err := s.repos.Receipt.CreateLine(ctx, line); err != nil {
		return nil, fmt.Errorf("追加收货行失败: %w", err)
	}
	return line, nil
}

// Submit 提交送检：draft→submitted，要求至少一行
func (s *ReceiptService) Submit(ctx context.Context, docID, userID string) error {
	doc, err := s.repos.Receipt.FindByID(ctx, docID)
	if err != nil {
		return err
	}
	if doc.CreatedBy != userID {
		return fmt.Errorf("%w: 只有创建人可以提交", ErrGuardViolation)
	}
	if len(doc.Lines) == 0 {
		return fmt.Errorf("%w: 没有行项不能提交", ErrGuardViolation)
	}
	if err := s.repos.Receipt.UpdateStatus(ctx, docID, entity.DocStatusDraft, entity.DocStatusSubmitted); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: 当前状态不允许提交", ErrGuardViolation)
		}
		return err
	}
	return nil
}

// QCDecide QC裁决：submitted→approved/rejected，单据与所有行一并变更
func (s *ReceiptService) QCDecide(ctx context.Context, docID string, req *QCDecisionRequest, userID string) error {
	err := s.repos.Receipt.QCDecide(ctx, docID, req.Decision, req.Decision, userID, req.Notes)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: 只有submitted状态可以裁决", ErrGuardViolation)
		}
		return err
	}
	s.logger.Info("receipt qc decision",
		zap.String("doc_id", docID),
		zap.String("decision", req.Decision),
		zap.String("qc_by", userID))
	return nil
}

// Reopen 重开被拒单据：rejected→draft，QC痕迹清除
func (s *ReceiptService) Reopen(ctx context.Context, docID, userID string, isAdmin bool) error {
	doc, err := s.repos.Receipt.FindByID(ctx, docID)
	if err != nil {
		return err
	}
	if doc.CreatedBy != userID && !isAdmin {
		return fmt.Errorf("%w: 只有创建人或管理员可以重开", ErrGuardViolation)
	}
	if err := s.repos.Receipt.Reopen(ctx, docID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: 只有rejected状态可以重开", ErrGuardViolation)
		}
		return err
	}
	return nil
}

// Preview 预览过账载荷，不触碰ERP
func (s *ReceiptService) Preview(ctx context.Context, docID string) (*sapb1.DeliveryNote, error) {
	doc, err := s.repos.Receipt.FindByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	businessPlaces, err := s.warehouses.BusinessPlaceMap(ctx)
	if err != nil {
		return nil, err
	}
	return BuildDeliveryNote(doc, businessPlaces)
}
