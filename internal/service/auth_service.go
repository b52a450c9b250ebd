package service

import (
	"strings"
	"time"

	"github.com/lumina-verify/internal/config"
	"github.com/lumina-verify/internal/constants"
	"github.com/lumina-verify/internal/logger"
	"github.com/lumina-verify/internal/models"
	"github.com/lumina-verify/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService 认证服务
// 管理员与厂商各用一套签发密钥，token 互不通用。
type AuthService struct {
	cfg       *config.Config
	adminRepo repository.AdminRepository
	mfrRepo   repository.ManufacturerRepository
}

// NewAuthService 创建认证服务实例
func NewAuthService(cfg *config.Config, adminRepo repository.AdminRepository, mfrRepo repository.ManufacturerRepository) *AuthService {
	return &AuthService{
		cfg:       cfg,
		adminRepo: adminRepo,
		mfrRepo:   mfrRepo,
	}
}

// HashPassword 使用 bcrypt 加密密码
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword 验证密码
func (s *AuthService) VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// AdminClaims 管理员 JWT 声明
type AdminClaims struct {
	AdminID  uint   `json:"admin_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// ManufacturerClaims 厂商 JWT 声明
type ManufacturerClaims struct {
	ManufacturerID uint   `json:"manufacturer_id"`
	Email          string `json:"email"`
	Plan           string `json:"plan"`
	jwt.RegisteredClaims
}

// GenerateAdminJWT 签发管理员 token
func (s *AuthService) GenerateAdminJWT(admin *models.Admin) (string, time.Time, error) {
	expiresAt := time.Now().Add(time.Duration(s.cfg.AdminJWT.ExpireHours) * time.Hour)
	claims := AdminClaims{
		AdminID:  admin.ID,
		Username: admin.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.AdminJWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseAdminJWT 解析管理员 token
func (s *AuthService) ParseAdminJWT(tokenString string) (*AdminClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.AdminJWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*AdminClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidCredentials
}

// GenerateManufacturerJWT 签发厂商 token
func (s *AuthService) GenerateManufacturerJWT(mfr *models.Manufacturer) (string, time.Time, error) {
	expiresAt := time.Now().Add(time.Duration(s.cfg.ManufacturerJWT.ExpireHours) * time.Hour)
	claims := ManufacturerClaims{
		ManufacturerID: mfr.ID,
		Email:          mfr.Email,
		Plan:           mfr.Plan,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.ManufacturerJWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseManufacturerJWT 解析厂商 token
func (s *AuthService) ParseManufacturerJWT(tokenString string) (*ManufacturerClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &ManufacturerClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.ManufacturerJWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*ManufacturerClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidCredentials
}

// AdminLogin 管理员登录
func (s *AuthService) AdminLogin(username, password string) (*models.Admin, string, time.Time, error) {
	admin, err := s.adminRepo.GetByUsername(strings.TrimSpace(username))
	if err != nil {
		return nil, "", time.Time{}, ErrStorage
	}
	if admin == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if err := s.VerifyPassword(admin.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.GenerateAdminJWT(admin)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	logger.Infow("admin_login", "admin_id", admin.ID, "username", admin.Username)
	return admin, token, expiresAt, nil
}

// ManufacturerLogin 厂商登录
// 已停用的厂商不允许登录。
func (s *AuthService) ManufacturerLogin(email, password string) (*models.Manufacturer, string, time.Time, error) {
	mfr, err := s.mfrRepo.GetByEmail(email)
	if err != nil {
		return nil, "", time.Time{}, ErrStorage
	}
	if mfr == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if err := s.VerifyPassword(mfr.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if mfr.Status == constants.ManufacturerStatusSuspended {
		return nil, "", time.Time{}, ErrManufacturerSuspended
	}

	token, expiresAt, err := s.GenerateManufacturerJWT(mfr)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	logger.Infow("manufacturer_login", "manufacturer_id", mfr.ID, "email", mfr.Email)
	return mfr, token, expiresAt, nil
}
