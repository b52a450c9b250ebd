package repository

import (
	"time"

	"github.com/lumina-verify/internal/models"

	"gorm.io/gorm"
)

// ForensicsAuditListFilter 查询鉴伪审计日志的过滤条件
type ForensicsAuditListFilter struct {
	Page           int
	PageSize       int
	ManufacturerID uint
	Action         string
	ActorRole      string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
}

// ForensicsAuditRepository 鉴伪审计日志数据访问接口
type ForensicsAuditRepository interface {
	Create(log *models.ForensicsAuditLog) error
	ListAdmin(filter ForensicsAuditListFilter) ([]models.ForensicsAuditLog, int64, error)
}

// GormForensicsAuditRepository GORM 实现
type GormForensicsAuditRepository struct {
	db *gorm.DB
}

// NewForensicsAuditRepository 创建鉴伪审计日志仓库
func NewForensicsAuditRepository(db *gorm.DB) *GormForensicsAuditRepository {
	return &GormForensicsAuditRepository{db: db}
}

// Create 创建鉴伪审计日志
func (r *GormForensicsAuditRepository) Create(log *models.ForensicsAuditLog) error {
	if log == nil {
		return nil
	}
	return r.db.Create(log).Error
}

// ListAdmin 管理端查询鉴伪审计日志
func (r *GormForensicsAuditRepository) ListAdmin(filter ForensicsAuditListFilter) ([]models.ForensicsAuditLog, int64, error) {
	query := r.db.Model(&models.ForensicsAuditLog{})
	if filter.ManufacturerID != 0 {
		query = query.Where("manufacturer_id = ?", filter.ManufacturerID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.ActorRole != "" {
		query = query.Where("actor_role = ?", filter.ActorRole)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	logs := make([]models.ForensicsAuditLog, 0)
	if err := query.Order("id DESC").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
