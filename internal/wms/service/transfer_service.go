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

// CreateTransferRequest 创建转储暂存单请求
type CreateTransferRequest struct {
	TRDocNum int `json:"tr_doc_num" binding:"required"`
}

// AddTransferLineRequest 追加转储行请求
type AddTransferLineRequest struct {
	ItemCode    string     `json:"item_code" binding:"required"`
	Quantity    float64    `json:"quantity" binding:"required,gt=0"`
	FromBinCode string     `json:"from_bin_code"`
	ToBinCode   string     `json:"to_bin_code"`
	BatchNo     *string    `json:"batch_no"`
	SerialNo    *string    `json:"serial_no"`
	ExpiryDate  *time.Time `json:"expiry_date"`
}

// TransferService 转储暂存单业务
type TransferService struct {
	repos      *repository.Repositories
	source     *SourceService
	gateway    ERPGateway
	warehouses *WarehouseService
	reconciler *Reconciler
	logger     *zap.Logger
}

func NewTransferService(repos *repository.Repositories, source *SourceService, gateway ERPGateway, warehouses *WarehouseService, logger *zap.Logger) *TransferService {
	return &TransferService{
		repos:      repos,
		source:     source,
		gateway:    gateway,
		warehouses: warehouses,
		reconciler: NewReconciler(logger),
		logger:     logger,
	}
}

// List 查询转储单列表
func (s *TransferService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.TransferDocument, int64, error) {
	return s.repos.Transfer.FindAll(ctx, page, pageSize, filters)
}

// Get 查询转储单详情
func (s *TransferService) Get(ctx context.Context, id string) (*entity.TransferDocument, error) {
	return s.repos.Transfer.FindByID(ctx, id)
}

// Create 针对库存转储申请创建转储暂存单
// 两端仓库在创建时从源单捕获
func (s *TransferService) Create(ctx context.Context, req *CreateTransferRequest, userID string) (*entity.TransferDocument, error) {
	src, offline, err := s.source.GetTransferRequest(ctx, req.TRDocNum)
	if err != nil {
		return nil, err
	}
	if offline {
		s.logger.Warn("creating transfer against cached transfer request",
			zap.Int("tr_doc_num", req.TRDocNum), zap.String("user_id", userID))
	}
	if len(s.reconciler.OpenLines(src)) == 0 {
		return nil, ErrNoOpenLines
	}

	code, err := s.repos.Transfer.GenerateCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("生成单据编码失败: %w", err)
	}

	doc := &entity.TransferDocument{
		ID:            uuid.New().String()[:32],
		DocCode:       code,
		TRDocNum:      src.DocNum,
		TRDocEntry:    src.DocEntry,
		FromWarehouse: src.FromWarehouse,
		ToWarehouse:   src.ToWarehouse,
		Status:        entity.DocStatusDraft,
		DocDate:       time.Now(),
		CreatedBy:     userID,
	}
	if err := s.repos.Transfer.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("创建转储单失败: %w", err)
	}
	return doc, nil
}

// AddLine 对账后追加转储行
func (s *TransferService) AddLine(ctx context.Context, docID string, req *AddTransferLineRequest, userID string) (*entity.TransferLine, error) {
	doc, err := s.repos.Transfer.FindByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.Status != entity.DocStatusDraft {
		return nil, fmt.Errorf("%w: 只有draft状态可以追加行", ErrGuardViolation)
	}
	if doc.CreatedBy != userID {
		return nil, fmt.Errorf("%w: 只有创建人可以编辑", ErrGuardViolation)
	}

	src, _, err := s.source.GetTransferRequest(ctx, doc.TRDocNum)
	if err != nil {
		return nil, err
	}
	srcLine, err := s.reconciler.Reconcile(src, req.ItemCode)
	if err != nil {
		return nil, err
	}

	fromWh := srcLine.FromWarehouse
	if fromWh == "" {
		fromWh = doc.FromWarehouse
	}
	toWh := srcLine.WarehouseCode
	if toWh == "" {
		toWh = doc.ToWarehouse
	}

	line := &entity.TransferLine{
		ID:             uuid.New().String()[:32],
		DocumentID:     doc.ID,
		ItemCode:       srcLine.ItemCode,
		ItemName:       srcLine.ItemName,
		Quantity:       req.Quantity,
		BaseLine:       srcLine.LineNum,
		OpenQtyAtMatch: srcLine.OpenQty,
		UoMCode:        srcLine.UoMCode,
		FromWarehouse:  fromWh,
		ToWarehouse:    toWh,
		BatchNo:        req.BatchNo,
		SerialNo:       req.SerialNo,
		ExpiryDate:     req.ExpiryDate,
		QCStatus:       entity.LineQCPending,
	}

	if req.FromBinCode != "" {
		bin, err := s.resolveBin(ctx, req.FromBinCode, fromWh)
		if err != nil {
			return nil, err
		}
		line.FromBinCode = bin.BinCode
		line.FromBinAbsEntry = &bin.AbsEntry
	}
	if req.ToBinCode != "" {
		bin, err := s.resolveBin(ctx, req.ToBinCode, toWh)
		if err != nil {
			return nil, err
		}
		line.ToBinCode = bin.BinCode
		line.ToBinAbsEntry = &bin.AbsEntry
	}

	count, err := s.repos.Transfer.CountLines(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	line.SortOrder = int(count)

	if err := s.repos.Transfer.CreateLine(ctx, line); err != nil {
		return nil, fmt.Errorf("追加转储行失败: %w", err)
	}
	return line, nil
}

// resolveBin 校验库位存在且属于指定仓库
func (s *TransferService) resolveBin(ctx context.Context, binCode, warehouse string) (*sapb1.BinLocation, error) {
	bin, err := s.gateway.GetBinLocation(ctx, binCode)
	if err != nil {
		if errors.Is(err, sapb1.ErrNotFound) {
			return nil, fmt.Errorf("%w: 库位不存在 %s", ErrGuardViolation, binCode)
		}
		return nil, err
	}
	if bin.Warehouse != warehouse {
		return nil, fmt.Errorf("%w: 库位%s不属于仓库%s", ErrGuardViolation, binCode, warehouse)
	}
	return bin, nil
}

// Submit 提交送检：draft→submitted，要求至少一行
func (s *TransferService) Submit(ctx context.Context, docID, userID string) error {
	doc, err := s.repos.Transfer.FindByID(ctx, docID)
	if err != nil {
		return err
	}
	if doc.CreatedBy != userID {
		return fmt.Errorf("%w: 只有创建人可以提交", ErrGuardViolation)
	}
	if len(doc.Lines) == 0 {
		return fmt.Errorf("%w: 没有行项不能提交", ErrGuardViolation)
	}
	if err := s.repos.Transfer.UpdateStatus(ctx, docID, entity.DocStatusDraft, entity.DocStatusSubmitted); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: 当前状态不允许提交", ErrGuardViolation)
		}
		return err
	}
	return nil
}

// QCDecide QC裁决：submitted→approved/rejected
func (s *TransferService) QCDecide(ctx context.Context, docID string, req *QCDecisionRequest, userID string) error {
	err := s.repos.Transfer.QCDecide(ctx, docID, req.Decision, req.Decision, userID, req.Notes)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: 只有submitted状态可以裁决", ErrGuardViolation)
		}
		return err
	}
	s.logger.Info("transfer qc decision",
		zap.String("doc_id", docID),
		zap.String("decision", req.Decision),
		zap.String("qc_by", userID))
	return nil
}

// Reopen 重开被拒单据：rejected→draft
func (s *TransferService) Reopen(ctx context.Context, docID, userID string, isAdmin bool) error {
	doc, err := s.repos.Transfer.FindByID(ctx, docID)
	if err != nil {
		return err
	}
	if doc.CreatedBy != userID && !isAdmin {
		return fmt.Errorf("%w: 只有创建人或管理员可以重开", ErrGuardViolation)
	}
	if err := s.repos.Transfer.Reopen(ctx, docID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: 只有rejected状态可以重开", ErrGuardViolation)
		}
		return err
	}
	return nil
}

// Preview 预览过账载荷，不触碰ERP
func (s *TransferService) Preview(ctx context.Context, docID string) (*sapb1.StockTransfer, error) {
	doc, err := s.repos.Transfer.FindByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	businessPlaces, err := s.warehouses.BusinessPlaceMap(ctx)
	if err != nil {
		return nil, err
	}
	return BuildStockTransfer(doc, businessPlaces)
}
