package repository

import (
	"errors"

	"github.com/lumina-verify/internal/models"

	"gorm.io/gorm"
)

// ProductRepository 药品产品数据访问接口
type ProductRepository interface {
	Create(product *models.Product) error
	GetByID(id uint) (*models.Product, error)
	GetByManufacturer(manufacturerID, productID uint) (*models.Product, error)
	ListByManufacturer(manufacturerID uint, page, pageSize int) ([]models.Product, int64, error)
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建产品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// Create 创建产品
func (r *GormProductRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

// GetByID 根据 ID 获取产品
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// GetByManufacturer 获取属于指定厂商的产品
func (r *GormProductRepository) GetByManufacturer(manufacturerID, productID uint) (*models.Product, error) {
	var product models.Product
	err := r.db.
		Where("id = ? AND manufacturer_id = ?", productID, manufacturerID).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// ListByManufacturer 查询厂商的产品列表
func (r *GormProductRepository) ListByManufacturer(manufacturerID uint, page, pageSize int) ([]models.Product, int64, error) {
	query := r.db.Model(&models.Product{}).Where("manufacturer_id = ?", manufacturerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, page, pageSize)

	products := make([]models.Product, 0)
	if err := query.Order("id DESC").Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}
