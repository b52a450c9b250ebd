package router

import (
	"fmt"
	"strings"

	"github.com/lumina-verify/internal/cache"
	"github.com/lumina-verify/internal/config"
	adminhandlers "github.com/lumina-verify/internal/http/handlers/admin"
	mfrhandlers "github.com/lumina-verify/internal/http/handlers/manufacturer"
	publichandlers "github.com/lumina-verify/internal/http/handlers/public"
	"github.com/lumina-verify/internal/logger"
	"github.com/lumina-verify/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	mfrHandler := mfrhandlers.New(c)
	adminHandler := adminhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "lum"
	}
	redisClient := cache.Client()
	verifyRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:verify", redisPrefix),
		WindowSeconds: cfg.Security.VerifyRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.VerifyRateLimit.MaxAttempts,
		Message:       "too many verification requests",
	}
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many login attempts",
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 公开接口（限流）
		public := apiV1.Group("/public")
		{
			public.POST("/verify", RateLimitMiddleware(redisClient, verifyRule, KeyByIP), publicHandler.VerifyCode)
			public.POST("/analyze-external", RateLimitMiddleware(redisClient, verifyRule, KeyByIP), publicHandler.AnalyzeExternal)
		}

		// 认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/manufacturer/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.ManufacturerLogin)
			auth.POST("/admin/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("username")), publicHandler.AdminLogin)
		}

		// 厂商接口（需厂商 JWT）
		mfr := apiV1.Group("/manufacturer")
		mfr.Use(ManufacturerJWTAuthMiddleware(c.AuthService, c.ManufacturerRepo))
		{
			mfr.GET("/profile", mfrHandler.GetProfile)
			mfr.POST("/products", mfrHandler.CreateProduct)
			mfr.GET("/products", mfrHandler.ListProducts)
			mfr.POST("/batches", mfrHandler.CreateBatch)
			mfr.GET("/batches", mfrHandler.ListBatches)
			mfr.POST("/codes/issue", mfrHandler.IssueCodes)
			mfr.GET("/quota", mfrHandler.GetQuota)
			mfr.POST("/certificates", mfrHandler.SubmitCertificate)
		}

		// 管理接口（需管理员 JWT）
		admin := apiV1.Group("/admin")
		admin.Use(AdminJWTAuthMiddleware(c.AuthService, c.AdminRepo))
		{
			admin.GET("/hotspots", adminHandler.GetHotspots)
			admin.GET("/audits", adminHandler.ListAudits)
			admin.GET("/manufacturers", adminHandler.ListManufacturers)
			admin.POST("/manufacturers", adminHandler.CreateManufacturer)
			admin.POST("/batches/:id/recall", adminHandler.RecallBatch)
			admin.GET("/verifications", adminHandler.ListVerifications)
		}
	}

	return r
}
