package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lumina-verify/internal/config"
	"github.com/lumina-verify/internal/constants"
	"github.com/lumina-verify/internal/http/response"
	"github.com/lumina-verify/internal/models"
	"github.com/lumina-verify/internal/repository"
	"github.com/lumina-verify/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthMiddlewareTest(t *testing.T) (*service.AuthService, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := gorm.Open(sqlite.Open("file:router_mw_"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Admin{}, &models.Manufacturer{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	cfg := &config.Config{
		AdminJWT:        config.JWTConfig{SecretKey: "admin-router-secret", ExpireHours: 1},
		ManufacturerJWT: config.JWTConfig{SecretKey: "mfr-router-secret", ExpireHours: 1},
	}
	authSvc := service.NewAuthService(cfg, repository.NewAdminRepository(db), repository.NewManufacturerRepository(db))
	return authSvc, db
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var envelope response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	return envelope
}

func TestAdminJWTAuthMiddlewareInjectsClaims(t *testing.T) {
	authSvc, db := setupAuthMiddlewareTest(t)
	admin := &models.Admin{Username: "regulator", PasswordHash: "x"}
	if err := db.Create(admin).Error; err != nil {
		t.Fatalf("create admin failed: %v", err)
	}
	token, _, err := authSvc.GenerateAdminJWT(admin)
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}

	var gotID uint
	r := gin.New()
	r.GET("/admin/ping", AdminJWTAuthMiddleware(authSvc, repository.NewAdminRepository(db)), func(c *gin.Context) {
		if value, ok := c.Get("admin_id"); ok {
			gotID, _ = value.(uint)
		}
		response.Success(c, nil)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if envelope := decodeEnvelope(t, w); envelope.StatusCode != response.CodeOK {
		t.Fatalf("status code want 0 got %d (%s)", envelope.StatusCode, envelope.Msg)
	}
	if gotID != admin.ID {
		t.Fatalf("admin_id want %d got %d", admin.ID, gotID)
	}
}

func TestAdminJWTAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	authSvc, db := setupAuthMiddlewareTest(t)

	r := gin.New()
	r.GET("/admin/ping", AdminJWTAuthMiddleware(authSvc, repository.NewAdminRepository(db)), func(c *gin.Context) {
		response.Success(c, nil)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/ping", nil))

	if envelope := decodeEnvelope(t, w); envelope.StatusCode != response.CodeUnauthorized {
		t.Fatalf("status code want 401 got %d", envelope.StatusCode)
	}
}

func TestManufacturerJWTAuthMiddlewareRejectsSuspended(t *testing.T) {
	authSvc, db := setupAuthMiddlewareTest(t)
	mfr := &models.Manufacturer{
		Name:         "停用厂商",
		Email:        "suspended@router.example",
		PasswordHash: "x",
		Plan:         constants.ManufacturerPlanBasic,
		Status:       constants.ManufacturerStatusActive,
		AIStatus:     constants.AIStatusClean,
	}
	if err := db.Create(mfr).Error; err != nil {
		t.Fatalf("create manufacturer failed: %v", err)
	}
	token, _, err := authSvc.GenerateManufacturerJWT(mfr)
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}

	// 签发后停用，已发 token 必须立即失效
	if err := db.Model(mfr).Update("status", constants.ManufacturerStatusSuspended).Error; err != nil {
		t.Fatalf("suspend manufacturer failed: %v", err)
	}

	r := gin.New()
	r.GET("/mfr/ping", ManufacturerJWTAuthMiddleware(authSvc, repository.NewManufacturerRepository(db)), func(c *gin.Context) {
		response.Success(c, nil)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/mfr/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if envelope := decodeEnvelope(t, w); envelope.StatusCode != response.CodeForbidden {
		t.Fatalf("status code want 403 got %d", envelope.StatusCode)
	}
}

func TestManufacturerTokenRejectedOnAdminRoute(t *testing.T) {
	authSvc, db := setupAuthMiddlewareTest(t)
	mfr := &models.Manufacturer{
		Name:         "串用厂商",
		Email:        "cross@router.example",
		PasswordHash: "x",
		Plan:         constants.ManufacturerPlanBasic,
		Status:       constants.ManufacturerStatusActive,
		AIStatus:     constants.AIStatusClean,
	}
	if err := db.Create(mfr).Error; err != nil {
		t.Fatalf("create manufacturer failed: %v", err)
	}
	token, _, err := authSvc.GenerateManufacturerJWT(mfr)
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}

	r := gin.New()
	r.GET("/admin/ping", AdminJWTAuthMiddleware(authSvc, repository.NewAdminRepository(db)), func(c *gin.Context) {
		response.Success(c, nil)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if envelope := decodeEnvelope(t, w); envelope.StatusCode != response.CodeUnauthorized {
		t.Fatalf("status code want 401 got %d", envelope.StatusCode)
	}
}
