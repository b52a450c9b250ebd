package provider

import (
	"context"
	"time"

	"github.com/lumina-verify/internal/cache"
	"github.com/lumina-verify/internal/config"
	"github.com/lumina-verify/internal/logger"
	"github.com/lumina-verify/internal/models"
	"github.com/lumina-verify/internal/oracle/risk"
	"github.com/lumina-verify/internal/oracle/tamper"
	"github.com/lumina-verify/internal/oracle/textract"
	"github.com/lumina-verify/internal/queue"
	"github.com/lumina-verify/internal/repository"
	"github.com/lumina-verify/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo           repository.AdminRepository
	ManufacturerRepo    repository.ManufacturerRepository
	ProductRepo         repository.ProductRepository
	BatchRepo           repository.BatchRepository
	CodeRepo            repository.CodeRepository
	VerificationLogRepo repository.VerificationLogRepository
	ForensicsAuditRepo  repository.ForensicsAuditRepository

	// Services
	AuthService         *service.AuthService
	QuotaService        *service.QuotaService
	CodeIssueService    *service.CodeIssueService
	VerifyService       *service.VerifyService
	ForensicsService    *service.ForensicsService
	HotspotService      *service.HotspotService
	AuditService        *service.AuditService
	BatchService        *service.BatchService
	ProductService      *service.ProductService
	ManufacturerService *service.ManufacturerService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}
	c.initRepositories()
	c.initServices()
	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.ManufacturerRepo = repository.NewManufacturerRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.BatchRepo = repository.NewBatchRepository(db)
	c.CodeRepo = repository.NewCodeRepository(db)
	c.VerificationLogRepo = repository.NewVerificationLogRepository(db)
	c.ForensicsAuditRepo = repository.NewForensicsAuditRepository(db)
}

func (c *Container) initServices() {
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo, c.ManufacturerRepo)
	c.AuditService = service.NewAuditService(c.ForensicsAuditRepo)
	c.QuotaService = service.NewQuotaService(c.Config, c.CodeRepo, c.ManufacturerRepo)
	c.CodeIssueService = service.NewCodeIssueService(c.CodeRepo, c.BatchRepo, c.QuotaService)
	c.VerifyService = service.NewVerifyService(c.CodeRepo, c.ManufacturerRepo, c.VerificationLogRepo)
	c.BatchService = service.NewBatchService(c.BatchRepo, c.ProductRepo, c.CodeRepo, c.AuditService)
	c.ProductService = service.NewProductService(c.ProductRepo)
	c.ManufacturerService = service.NewManufacturerService(c.ManufacturerRepo, c.AuthService)

	c.ForensicsService = service.NewForensicsService(
		c.Config,
		c.ManufacturerRepo,
		c.AuditService,
		c.buildTamperOracle(),
		c.buildTextOracle(),
		c.QueueClient,
	)
	c.HotspotService = service.NewHotspotService(c.Config, c.VerificationLogRepo, c.buildRiskOracle())
}

// buildTamperOracle 构建篡改检测客户端，未配置地址时返回 nil（降级为中性读数）
func (c *Container) buildTamperOracle() service.TamperOracle {
	fc := c.Config.Forensics
	if fc.TamperURL == "" {
		logger.Warnw("provider_tamper_oracle_disabled", "reason", "empty_endpoint")
		return nil
	}
	client, err := tamper.NewClient(tamper.Config{
		Endpoint: fc.TamperURL,
		Timeout:  time.Duration(fc.TimeoutMS) * time.Millisecond,
	})
	if err != nil {
		logger.Errorw("provider_init_tamper_oracle_failed", "error", err)
		return nil
	}
	return client
}

// buildTextOracle 构建文字提取客户端
func (c *Container) buildTextOracle() service.TextOracle {
	fc := c.Config.Forensics
	if fc.TextractURL == "" {
		logger.Warnw("provider_text_oracle_disabled", "reason", "empty_endpoint")
		return nil
	}
	client, err := textract.NewClient(textract.Config{
		Endpoint: fc.TextractURL,
		Timeout:  time.Duration(fc.TimeoutMS) * time.Millisecond,
	})
	if err != nil {
		logger.Errorw("provider_init_text_oracle_failed", "error", err)
		return nil
	}
	return client
}

// buildRiskOracle 构建风险推理客户端，未启用时热点聚合退化为空结果
func (c *Container) buildRiskOracle() service.RiskOracle {
	rc := c.Config.RiskOracle
	if !rc.Enabled || rc.APIKey == "" {
		logger.Infow("provider_risk_oracle_disabled")
		return nil
	}
	client, err := risk.NewClient(context.Background(), rc.APIKey, rc.Model)
	if err != nil {
		logger.Errorw("provider_init_risk_oracle_failed", "error", err)
		return nil
	}
	return client
}
