package service

import (
	"strings"
	"time"

	"github.com/lumina-verify/internal/models"
	"github.com/lumina-verify/internal/repository"
)

// ProductService 药品产品服务
type ProductService struct {
	productRepo repository.ProductRepository
}

// CreateProductInput 创建产品输入
type CreateProductInput struct {
	ManufacturerID uint
	Name           string
	Dosage         string
}

// NewProductService 创建产品服务
func NewProductService(productRepo repository.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// CreateProduct 创建产品
func (s *ProductService) CreateProduct(input CreateProductInput) (*models.Product, error) {
	if s == nil || s.productRepo == nil {
		return nil, ErrStorage
	}
	name := strings.TrimSpace(input.Name)
	if input.ManufacturerID == 0 || name == "" {
		return nil, ErrInvalidInput
	}

	now := time.Now()
	product := &models.Product{
		ManufacturerID: input.ManufacturerID,
		Name:           name,
		Dosage:         strings.TrimSpace(input.Dosage),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.productRepo.Create(product); err != nil {
		return nil, ErrStorage
	}
	return product, nil
}

// ListProducts 查询厂商产品列表
func (s *ProductService) ListProducts(manufacturerID uint, page, pageSize int) ([]models.Product, int64, error) {
	if s == nil || s.productRepo == nil {
		return nil, 0, ErrStorage
	}
	if manufacturerID == 0 {
		return nil, 0, ErrInvalidInput
	}
	products, total, err := s.productRepo.ListByManufacturer(manufacturerID, page, pageSize)
	if err != nil {
		return nil, 0, ErrStorage
	}
	return products, total, nil
}
