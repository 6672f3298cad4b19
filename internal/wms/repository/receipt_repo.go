package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pragavigithub/emerging-wms/internal/wms/entity"
	"gorm.io/gorm"
)

// ReceiptRepository 收货暂存单仓库
type ReceiptRepository struct {
	db *gorm.DB
}

func NewReceiptRepository(db *gorm.DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

// FindAll 查询收货单列表
func (r *ReceiptRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.ReceiptDocument, int64, error) {
	var items []entity.ReceiptDocument
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.ReceiptDocument{})

	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if createdBy := filters["created_by"]; createdBy != "" {
		query = query.Where("created_by = ?", createdBy)
	}
	if search := filters["search"]; search != "" {
		query = query.Where("doc_code ILIKE ?", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID 根据ID查找收货单（含行项）
func (r *ReceiptRepository) FindByID(ctx context.Context, id string) (*entity.ReceiptDocument, error) {
	var doc entity.ReceiptDocument
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("id = ?", id).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// Create 创建收货单
func (r *ReceiptRepository) Create(ctx context.Context, doc *entity.ReceiptDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// CreateLine 追加行项
func (r *ReceiptRepository) CreateLine(ctx context.Context, line *entity.ReceiptLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

// CountLines 统计行项数
func (r *ReceiptRepository) CountLines(ctx context.Context, docID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.ReceiptLine{}).
		Where("document_id = ?", docID).Count(&count).Error
	return count, err
}

// UpdateStatus 条件更新状态：只有当前状态匹配时才迁移
// 返回ErrNotFound表示状态已被他人变更或单据不存在
func (r *ReceiptRepository) UpdateStatus(ctx context.Context, docID, fromStatus, toStatus string) error {
	result := r.db.WithContext(ctx).Model(&entity.ReceiptDocument{}).
		Where("id = ? AND status = ?", docID, fromStatus).
		Update("status", toStatus)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// QCDecide QC裁决：单据状态、QC字段和所有行的QC状态在一个事务中变更
func (r *ReceiptRepository) QCDecide(ctx context.Context, docID, toStatus, lineStatus, userID, notes string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.ReceiptDocument{}).
			Where("id = ? AND status = ?", docID, entity.DocStatusSubmitted).
			Updates(map[string]interface{}{
				"status":   toStatus,
				"qc_by":    userID,
				"qc_at":    now,
				"qc_notes": notes,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Model(&entity.ReceiptLine{}).
			Where("document_id = ?", docID).
			Update("qc_status", lineStatus).Error
	})
}

// Reopen 重开被拒单据：回到draft，清除QC字段，所有行重置为pending
func (r *ReceiptRepository) Reopen(ctx context.Context, docID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.ReceiptDocument{}).
			Where("id = ? AND status = ?", docID, entity.DocStatusRejected).
			Updates(map[string]interface{}{
				"status":   entity.DocStatusDraft,
				"qc_by":    nil,
				"qc_at":    nil,
				"qc_notes": "",
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Model(&entity.ReceiptLine{}).
			Where("document_id = ?", docID).
			Update("qc_status", entity.LineQCPending).Error
	})
}

// MarkPosted 记录过账结果：状态与ERP单号一次性写入
// WHERE条件保证至多一次：ERP单号已存在或状态不是approved时影响0行
func (r *ReceiptRepository) MarkPosted(ctx context.Context, docID string, docEntry, docNum int) error {
	result := r.db.WithContext(ctx).Model(&entity.ReceiptDocument{}).
		Where("id = ? AND status = ? AND erp_doc_entry IS NULL", docID, entity.DocStatusApproved).
		Updates(map[string]interface{}{
			"status":        entity.DocStatusPosted,
			"erp_doc_entry": docEntry,
			"erp_doc_num":   docNum,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GenerateCode 生成单据编码 GRN-{year}-{4位}
func (r *ReceiptRepository) GenerateCode(ctx context.Context) (string, error) {
	year := time.Now().Format("2006")
	prefix := fmt.Sprintf("GRN-%s-", year)

	var maxCode string
	err := r.db.WithContext(ctx).
		Model(&entity.ReceiptDocument{}).
		Select("COALESCE(MAX(doc_code), '')").
		Where("doc_code LIKE ?", prefix+"%").
		Scan(&maxCode).Error
	if err != nil {
		return "", err
	}

	var seq int
	if maxCode != "" {
		fmt.Sscanf(maxCode, "GRN-"+year+"-%04d", &seq)
	}
	seq++
	return fmt.Sprintf("GRN-%s-%04d", year, seq), nil
}
