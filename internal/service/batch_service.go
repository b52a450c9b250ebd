package service

import (
	"strings"
	"time"

	"github.com/lumina-verify/internal/logger"
	"github.com/lumina-verify/internal/models"
	"github.com/lumina-verify/internal/repository"
)

// BatchService 生产批次服务
type BatchService struct {
	batchRepo   repository.BatchRepository
	productRepo repository.ProductRepository
	codeRepo    repository.CodeRepository
	auditSvc    *AuditService
}

// CreateBatchInput 创建批次输入
type CreateBatchInput struct {
	ManufacturerID uint
	ProductID      uint
	BatchNumber    string
	Quantity       int
	ExpirationDate *time.Time
}

// BatchView 批次视图，附带已发码数量
type BatchView struct {
	models.Batch
	IssuedCodes int64 `json:"issued_codes"`
}

// NewBatchService 创建批次服务
func NewBatchService(batchRepo repository.BatchRepository, productRepo repository.ProductRepository, codeRepo repository.CodeRepository, auditSvc *AuditService) *BatchService {
	return &BatchService{
		batchRepo:   batchRepo,
		productRepo: productRepo,
		codeRepo:    codeRepo,
		auditSvc:    auditSvc,
	}
}

// CreateBatch 创建生产批次
func (s *BatchService) CreateBatch(input CreateBatchInput) (*models.Batch, error) {
	if s == nil || s.batchRepo == nil {
		return nil, ErrStorage
	}
	batchNumber := strings.TrimSpace(input.BatchNumber)
	if input.ManufacturerID == 0 || input.ProductID == 0 || batchNumber == "" || input.Quantity <= 0 {
		return nil, ErrInvalidInput
	}

	if s.productRepo != nil {
		product, err := s.productRepo.GetByManufacturer(input.ManufacturerID, input.ProductID)
		if err != nil {
			return nil, ErrStorage
		}
		if product == nil {
			return nil, ErrProductNotFound
		}
	}

	now := time.Now()
	batch := &models.Batch{
		BatchNumber:    batchNumber,
		ManufacturerID: input.ManufacturerID,
		ProductID:      input.ProductID,
		Quantity:       input.Quantity,
		ExpirationDate: input.ExpirationDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.batchRepo.Create(batch); err != nil {
		return nil, ErrStorage
	}

	logger.Infow("batch_created",
		"manufacturer_id", input.ManufacturerID,
		"batch_id", batch.ID,
		"batch_number", batch.BatchNumber,
	)
	return batch, nil
}

// ListBatches 查询厂商批次列表
func (s *BatchService) ListBatches(manufacturerID uint, page, pageSize int) ([]BatchView, int64, error) {
	if s == nil || s.batchRepo == nil {
		return nil, 0, ErrStorage
	}
	if manufacturerID == 0 {
		return nil, 0, ErrInvalidInput
	}

	batches, total, err := s.batchRepo.ListByManufacturer(manufacturerID, page, pageSize)
	if err != nil {
		return nil, 0, ErrStorage
	}

	views := make([]BatchView, 0, len(batches))
	for _, batch := range batches {
		view := BatchView{Batch: batch}
		if s.codeRepo != nil {
			if count, err := s.codeRepo.CountByBatch(batch.ID); err == nil {
				view.IssuedCodes = count
			}
		}
		views = append(views, view)
	}
	return views, total, nil
}

// GetBatchForManufacturer 获取属于指定厂商的批次
func (s *BatchService) GetBatchForManufacturer(manufacturerID, batchID uint) (*models.Batch, error) {
	if s == nil || s.batchRepo == nil {
		return nil, ErrStorage
	}
	batch, err := s.batchRepo.GetByID(batchID)
	if err != nil {
		return nil, ErrStorage
	}
	if batch == nil || batch.ManufacturerID != manufacturerID {
		return nil, ErrBatchNotFound
	}
	return batch, nil
}

// RecallBatch 管理员召回批次
// 召回是幂等操作：重复召回不报错也不追加审计。
func (s *BatchService) RecallBatch(adminID, batchID uint) (*models.Batch, error) {
	if s == nil || s.batchRepo == nil {
		return nil, ErrStorage
	}
	if batchID == 0 {
		return nil, ErrInvalidInput
	}

	batch, err := s.batchRepo.GetByID(batchID)
	if err != nil {
		return nil, ErrStorage
	}
	if batch == nil {
		return nil, ErrBatchNotFound
	}

	now := time.Now()
	affected, err := s.batchRepo.MarkRecalled(batchID, now)
	if err != nil {
		return nil, ErrStorage
	}
	if affected > 0 {
		batch.IsRecalled = true
		batch.RecalledAt = &now
		if s.auditSvc != nil {
			if err := s.auditSvc.RecordBatchRecalled(adminID, batch); err != nil {
				logger.Errorw("batch_recall_audit_failed",
					"admin_id", adminID,
					"batch_id", batchID,
					"error", err,
				)
			}
		}
		logger.Infow("batch_recalled",
			"admin_id", adminID,
			"batch_id", batchID,
			"batch_number", batch.BatchNumber,
		)
	}
	return batch, nil
}
