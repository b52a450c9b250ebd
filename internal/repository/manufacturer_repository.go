package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/lumina-verify/internal/models"

	"gorm.io/gorm"
)

// ManufacturerListFilter 查询厂商列表的过滤条件
type ManufacturerListFilter struct {
	Page     int
	PageSize int
	Keyword  string
	Plan     string
	AIStatus string
}

// ManufacturerRepository 厂商数据访问接口
type ManufacturerRepository interface {
	Create(m *models.Manufacturer) error
	GetByID(id uint) (*models.Manufacturer, error)
	GetByEmail(email string) (*models.Manufacturer, error)
	List(filter ManufacturerListFilter) ([]models.Manufacturer, int64, error)
	// UpdateTrust 写入鉴伪评分与状态
	UpdateTrust(id uint, score float64, status string, at time.Time) error
	UpdateCertificate(id uint, certificatePath string) error
	WithTx(tx *gorm.DB) *GormManufacturerRepository
}

// GormManufacturerRepository GORM 实现
type GormManufacturerRepository struct {
	db *gorm.DB
}

// NewManufacturerRepository 创建厂商仓库
func NewManufacturerRepository(db *gorm.DB) *GormManufacturerRepository {
	return &GormManufacturerRepository{db: db}
}

// WithTx 绑定事务
func (r *GormManufacturerRepository) WithTx(tx *gorm.DB) *GormManufacturerRepository {
	if tx == nil {
		return r
	}
	return &GormManufacturerRepository{db: tx}
}

// Create 创建厂商
func (r *GormManufacturerRepository) Create(m *models.Manufacturer) error {
	if m == nil {
		return nil
	}
	return r.db.Create(m).Error
}

// GetByID 根据 ID 获取厂商
func (r *GormManufacturerRepository) GetByID(id uint) (*models.Manufacturer, error) {
	var m models.Manufacturer
	if err := r.db.First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// GetByEmail 根据邮箱获取厂商
func (r *GormManufacturerRepository) GetByEmail(email string) (*models.Manufacturer, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	var m models.Manufacturer
	if err := r.db.Where("email = ?", email).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// List 查询厂商列表
func (r *GormManufacturerRepository) List(filter ManufacturerListFilter) ([]models.Manufacturer, int64, error) {
	query := r.db.Model(&models.Manufacturer{})
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("name LIKE ? OR email LIKE ?", like, like)
	}
	if filter.Plan != "" {
		query = query.Where("plan = ?", filter.Plan)
	}
	if filter.AIStatus != "" {
		query = query.Where("ai_status = ?", filter.AIStatus)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var items []models.Manufacturer
	if err := query.Order("id DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// UpdateTrust 写入鉴伪评分与状态
func (r *GormManufacturerRepository) UpdateTrust(id uint, score float64, status string, at time.Time) error {
	if id == 0 {
		return errors.New("invalid manufacturer id")
	}
	if at.IsZero() {
		at = time.Now()
	}
	return r.db.Model(&models.Manufacturer{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"ai_score":   score,
			"ai_status":  status,
			"updated_at": at,
		}).Error
}

// UpdateCertificate 更新最近提交的资质证书路径
func (r *GormManufacturerRepository) UpdateCertificate(id uint, certificatePath string) error {
	if id == 0 {
		return errors.New("invalid manufacturer id")
	}
	return r.db.Model(&models.Manufacturer{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"certificate_path": certificatePath,
			"updated_at":       time.Now(),
		}).Error
}
