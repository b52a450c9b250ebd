package main

import (
	"time"

	"github.com/lumina-verify/internal/config"
	"github.com/lumina-verify/internal/constants"
	"github.com/lumina-verify/internal/logger"
	"github.com/lumina-verify/internal/models"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 默认管理员
	if err := models.InitDefaultAdmin("", ""); err != nil {
		stdLog.Printf("Failed to init default admin: %v", err)
	}

	// 演示厂商
	hash, err := bcrypt.GenerateFromPassword([]byte("lumina-demo"), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatalf("Failed to hash demo password: %v", err)
	}
	manufacturer := models.Manufacturer{
		Name:           "华光制药",
		Email:          "demo@huaguang-pharma.example",
		PasswordHash:   string(hash),
		Plan:           constants.ManufacturerPlanBasic,
		Status:         constants.ManufacturerStatusActive,
		RegistryNumber: "NMPA-2024-001388",
		AIStatus:       constants.AIStatusClean,
	}
	var existingMfr models.Manufacturer
	if err := models.DB.Where("email = ?", manufacturer.Email).First(&existingMfr).Error; err != nil {
		if err := models.DB.Create(&manufacturer).Error; err != nil {
			stdLog.Fatalf("Failed to create manufacturer: %v", err)
		}
		stdLog.Printf("Created manufacturer: %s", manufacturer.Email)
	} else {
		manufacturer = existingMfr
		stdLog.Printf("Manufacturer already exists: %s", manufacturer.Email)
	}

	// 演示产品
	product := models.Product{
		ManufacturerID: manufacturer.ID,
		Name:           "阿莫西林胶囊",
		Dosage:         "0.25g x 24粒",
	}
	var existingProduct models.Product
	if err := models.DB.Where("manufacturer_id = ? AND name = ?", product.ManufacturerID, product.Name).
		First(&existingProduct).Error; err != nil {
		if err := models.DB.Create(&product).Error; err != nil {
			stdLog.Fatalf("Failed to create product: %v", err)
		}
		stdLog.Printf("Created product: %s", product.Name)
	} else {
		product = existingProduct
		stdLog.Printf("Product already exists: %s", product.Name)
	}

	// 演示批次
	expiration := time.Now().AddDate(2, 0, 0)
	batch := models.Batch{
		BatchNumber:    "HG-20260801-A",
		ManufacturerID: manufacturer.ID,
		ProductID:      product.ID,
		Quantity:       100,
		ExpirationDate: &expiration,
	}
	var existingBatch models.Batch
	if err := models.DB.Where("batch_number = ?", batch.BatchNumber).First(&existingBatch).Error; err != nil {
		if err := models.DB.Create(&batch).Error; err != nil {
			stdLog.Fatalf("Failed to create batch: %v", err)
		}
		stdLog.Printf("Created batch: %s", batch.BatchNumber)
	} else {
		batch = existingBatch
		stdLog.Printf("Batch already exists: %s", batch.BatchNumber)
	}

	// 演示验真码（固定码值便于本地联调）
	codeValues := []string{
		constants.CodeValuePrefix + "AAA111",
		constants.CodeValuePrefix + "BBB222",
		constants.CodeValuePrefix + "CCC333",
	}
	for _, value := range codeValues {
		var existingCode models.Code
		if err := models.DB.Where("code_value = ?", value).First(&existingCode).Error; err != nil {
			code := models.Code{
				CodeValue:      value,
				BatchID:        batch.ID,
				ManufacturerID: manufacturer.ID,
			}
			if err := models.DB.Create(&code).Error; err != nil {
				stdLog.Printf("Failed to create code %s: %v", value, err)
			} else {
				stdLog.Printf("Created code: %s", value)
			}
		} else {
			stdLog.Printf("Code already exists: %s", value)
		}
	}

	stdLog.Printf("Seed completed")
}
