package repository

import (
	"errors"
	"time"

	"github.com/lumina-verify/internal/models"

	"gorm.io/gorm"
)

// BatchRepository 生产批次数据访问接口
type BatchRepository interface {
	Create(batch *models.Batch) error
	GetByID(id uint) (*models.Batch, error)
	ListByManufacturer(manufacturerID uint, page, pageSize int) ([]models.Batch, int64, error)
	MarkRecalled(id uint, recalledAt time.Time) (int64, error)
}

// GormBatchRepository GORM 实现
type GormBatchRepository struct {
	db *gorm.DB
}

// NewBatchRepository 创建批次仓库
func NewBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// Create 创建批次
func (r *GormBatchRepository) Create(batch *models.Batch) error {
	if batch == nil {
		return nil
	}
	return r.db.Create(batch).Error
}

// GetByID 根据 ID 获取批次
func (r *GormBatchRepository) GetByID(id uint) (*models.Batch, error) {
	var batch models.Batch
	if err := r.db.Preload("Product").First(&batch, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &batch, nil
}

// ListByManufacturer 按厂商获取批次列表
func (r *GormBatchRepository) ListByManufacturer(manufacturerID uint, page, pageSize int) ([]models.Batch, int64, error) {
	if manufacturerID == 0 {
		return nil, 0, errors.New("invalid manufacturer id")
	}
	query := r.db.Model(&models.Batch{}).Where("manufacturer_id = ?", manufacturerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, page, pageSize)

	var items []models.Batch
	if err := query.Order("id DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// MarkRecalled 标记批次召回（幂等：已召回的批次不再更新）
func (r *GormBatchRepository) MarkRecalled(id uint, recalledAt time.Time) (int64, error) {
	if id == 0 {
		return 0, nil
	}
	if recalledAt.IsZero() {
		recalledAt = time.Now()
	}
	result := r.db.Model(&models.Batch{}).
		Where("id = ? AND is_recalled = ?", id, false).
		Updates(map[string]interface{}{
			"is_recalled": true,
			"recalled_at": recalledAt,
			"updated_at":  recalledAt,
		})
	return result.RowsAffected, result.Error
}
