package service

import (
	"errors"
	"testing"

	"github.com/lumina-verify/internal/config"
	"github.com/lumina-verify/internal/constants"
	"github.com/lumina-verify/internal/models"
	"github.com/lumina-verify/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthServiceTest(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:auth_svc_"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Admin{}, &models.Manufacturer{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	cfg := &config.Config{
		AdminJWT:        config.JWTConfig{SecretKey: "admin-test-secret", ExpireHours: 1},
		ManufacturerJWT: config.JWTConfig{SecretKey: "mfr-test-secret", ExpireHours: 1},
	}
	svc := NewAuthService(cfg, repository.NewAdminRepository(db), repository.NewManufacturerRepository(db))
	return svc, db
}

func TestHashAndVerifyPassword(t *testing.T) {
	svc, _ := setupAuthServiceTest(t)

	hash, err := svc.HashPassword("secret-pass")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if err := svc.VerifyPassword(hash, "secret-pass"); err != nil {
		t.Fatalf("verify should succeed: %v", err)
	}
	if err := svc.VerifyPassword(hash, "wrong-pass"); err == nil {
		t.Fatalf("verify with wrong password should fail")
	}
}

func TestAdminJWTRoundtrip(t *testing.T) {
	svc, _ := setupAuthServiceTest(t)
	admin := &models.Admin{ID: 3, Username: "regulator"}

	token, _, err := svc.GenerateAdminJWT(admin)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	claims, err := svc.ParseAdminJWT(token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.AdminID != 3 || claims.Username != "regulator" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestManufacturerTokenRejectedByAdminParser(t *testing.T) {
	svc, _ := setupAuthServiceTest(t)
	mfr := &models.Manufacturer{ID: 5, Email: "m@test.example", Plan: constants.ManufacturerPlanBasic}

	token, _, err := svc.GenerateManufacturerJWT(mfr)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if _, err := svc.ParseAdminJWT(token); err == nil {
		t.Fatalf("manufacturer token must not pass admin parser")
	}
	claims, err := svc.ParseManufacturerJWT(token)
	if err != nil {
		t.Fatalf("manufacturer parse failed: %v", err)
	}
	if claims.ManufacturerID != 5 || claims.Plan != constants.ManufacturerPlanBasic {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestAdminLogin(t *testing.T) {
	svc, db := setupAuthServiceTest(t)

	hash, err := svc.HashPassword("admin-pass")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if err := db.Create(&models.Admin{Username: "root", PasswordHash: hash}).Error; err != nil {
		t.Fatalf("create admin failed: %v", err)
	}

	admin, token, _, err := svc.AdminLogin("root", "admin-pass")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if admin == nil || token == "" {
		t.Fatalf("login should return admin and token")
	}

	if _, _, _, err := svc.AdminLogin("root", "bad-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password want ErrInvalidCredentials got %v", err)
	}
	if _, _, _, err := svc.AdminLogin("nobody", "admin-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user want ErrInvalidCredentials got %v", err)
	}
}

func TestManufacturerLoginSuspended(t *testing.T) {
	svc, db := setupAuthServiceTest(t)

	hash, err := svc.HashPassword("mfr-pass")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if err := db.Create(&models.Manufacturer{
		Name:         "停用厂商",
		Email:        "suspended@test.example",
		PasswordHash: hash,
		Plan:         constants.ManufacturerPlanBasic,
		Status:       constants.ManufacturerStatusSuspended,
		AIStatus:     constants.AIStatusClean,
	}).Error; err != nil {
		t.Fatalf("create manufacturer failed: %v", err)
	}

	if _, _, _, err := svc.ManufacturerLogin("suspended@test.example", "mfr-pass"); !errors.Is(err, ErrManufacturerSuspended) {
		t.Fatalf("suspended login want ErrManufacturerSuspended got %v", err)
	}
}
