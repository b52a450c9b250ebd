package service

import (
	"strings"
	"time"

	"github.com/lumina-verify/internal/constants"
	"github.com/lumina-verify/internal/logger"
	"github.com/lumina-verify/internal/models"
	"github.com/lumina-verify/internal/repository"
)

// ManufacturerService 厂商管理服务（管理端）
type ManufacturerService struct {
	mfrRepo repository.ManufacturerRepository
	authSvc *AuthService
}

// CreateManufacturerInput 创建厂商输入
type CreateManufacturerInput struct {
	Name           string
	Email          string
	Password       string
	Plan           string
	RegistryNumber string
}

// ManufacturerListInput 厂商列表查询输入
type ManufacturerListInput struct {
	Page     int
	PageSize int
	Keyword  string
	Plan     string
	AIStatus string
}

// NewManufacturerService 创建厂商管理服务
func NewManufacturerService(mfrRepo repository.ManufacturerRepository, authSvc *AuthService) *ManufacturerService {
	return &ManufacturerService{
		mfrRepo: mfrRepo,
		authSvc: authSvc,
	}
}

// CreateManufacturer 创建厂商账号
func (s *ManufacturerService) CreateManufacturer(input CreateManufacturerInput) (*models.Manufacturer, error) {
	if s == nil || s.mfrRepo == nil || s.authSvc == nil {
		return nil, ErrStorage
	}
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || email == "" || len(input.Password) < 8 {
		return nil, ErrInvalidInput
	}
	plan := strings.ToLower(strings.TrimSpace(input.Plan))
	switch plan {
	case constants.ManufacturerPlanBasic, constants.ManufacturerPlanPremium:
	case "":
		plan = constants.ManufacturerPlanBasic
	default:
		return nil, ErrInvalidInput
	}

	existing, err := s.mfrRepo.GetByEmail(email)
	if err != nil {
		return nil, ErrStorage
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := s.authSvc.HashPassword(input.Password)
	if err != nil {
		return nil, ErrStorage
	}

	now := time.Now()
	mfr := &models.Manufacturer{
		Name:           name,
		Email:          email,
		PasswordHash:   hash,
		Plan:           plan,
		Status:         constants.ManufacturerStatusActive,
		RegistryNumber: strings.TrimSpace(input.RegistryNumber),
		AIStatus:       constants.AIStatusClean,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.mfrRepo.Create(mfr); err != nil {
		return nil, ErrStorage
	}

	logger.Infow("manufacturer_created",
		"manufacturer_id", mfr.ID,
		"email", mfr.Email,
		"plan", mfr.Plan,
	)
	return mfr, nil
}

// ListManufacturers 管理端查询厂商列表
func (s *ManufacturerService) ListManufacturers(input ManufacturerListInput) ([]models.Manufacturer, int64, error) {
	if s == nil || s.mfrRepo == nil {
		return nil, 0, ErrStorage
	}
	mfrs, total, err := s.mfrRepo.List(repository.ManufacturerListFilter{
		Page:     input.Page,
		PageSize: input.PageSize,
		Keyword:  strings.TrimSpace(input.Keyword),
		Plan:     strings.ToLower(strings.TrimSpace(input.Plan)),
		AIStatus: strings.ToLower(strings.TrimSpace(input.AIStatus)),
	})
	if err != nil {
		return nil, 0, ErrStorage
	}
	return mfrs, total, nil
}

// GetManufacturer 获取厂商详情
func (s *ManufacturerService) GetManufacturer(id uint) (*models.Manufacturer, error) {
	if s == nil || s.mfrRepo == nil {
		return nil, ErrStorage
	}
	mfr, err := s.mfrRepo.GetByID(id)
	if err != nil {
		return nil, ErrStorage
	}
	if mfr == nil {
		return nil, ErrManufacturerNotFound
	}
	return mfr, nil
}
