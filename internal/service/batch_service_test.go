package service

import (
	"errors"
	"testing"

	"github.com/lumina-verify/internal/constants"
	"github.com/lumina-verify/internal/models"
	"github.com/lumina-verify/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupBatchServiceTest(t *testing.T) (*BatchService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:batch_svc_"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Product{},
		&models.Batch{},
		&models.Code{},
		&models.ForensicsAuditLog{},
	); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	svc := NewBatchService(
		repository.NewBatchRepository(db),
		repository.NewProductRepository(db),
		repository.NewCodeRepository(db),
		NewAuditService(repository.NewForensicsAuditRepository(db)),
	)
	return svc, db
}

func createBatchFixture(t *testing.T, db *gorm.DB, manufacturerID uint) (*models.Product, *models.Batch) {
	t.Helper()
	product := &models.Product{ManufacturerID: manufacturerID, Name: "批次测试药品", Dosage: "5mg"}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	batch := &models.Batch{
		BatchNumber:    "BT-" + t.Name(),
		ManufacturerID: manufacturerID,
		ProductID:      product.ID,
		Quantity:       50,
	}
	if err := db.Create(batch).Error; err != nil {
		t.Fatalf("create batch failed: %v", err)
	}
	return product, batch
}

func TestCreateBatchRejectsForeignProduct(t *testing.T) {
	svc, db := setupBatchServiceTest(t)
	product, _ := createBatchFixture(t, db, 1)

	if _, err := svc.CreateBatch(CreateBatchInput{
		ManufacturerID: 2,
		ProductID:      product.ID,
		BatchNumber:    "FOREIGN-1",
		Quantity:       10,
	}); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("foreign product want ErrProductNotFound got %v", err)
	}
}

func TestRecallBatchIsIdempotent(t *testing.T) {
	svc, db := setupBatchServiceTest(t)
	_, batch := createBatchFixture(t, db, 1)

	first, err := svc.RecallBatch(9, batch.ID)
	if err != nil {
		t.Fatalf("first recall failed: %v", err)
	}
	if !first.IsRecalled {
		t.Fatalf("batch should be recalled")
	}

	second, err := svc.RecallBatch(9, batch.ID)
	if err != nil {
		t.Fatalf("repeat recall must not error: %v", err)
	}
	if !second.IsRecalled {
		t.Fatalf("batch should stay recalled")
	}

	// 审计只在首次召回时追加
	var count int64
	if err := db.Model(&models.ForensicsAuditLog{}).
		Where("action = ?", constants.AuditActionBatchRecalled).
		Count(&count).Error; err != nil {
		t.Fatalf("count audits failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("recall audit rows want 1 got %d", count)
	}
}

func TestRecallBatchUnknownBatch(t *testing.T) {
	svc, _ := setupBatchServiceTest(t)

	if _, err := svc.RecallBatch(1, 404); !errors.Is(err, ErrBatchNotFound) {
		t.Fatalf("want ErrBatchNotFound got %v", err)
	}
}

func TestListBatchesCountsIssuedCodes(t *testing.T) {
	svc, db := setupBatchServiceTest(t)
	_, batch := createBatchFixture(t, db, 1)

	for _, value := range []string{"LUM-BL001", "LUM-BL002", "LUM-BL003"} {
		if err := db.Create(&models.Code{
			CodeValue:      value,
			BatchID:        batch.ID,
			ManufacturerID: 1,
		}).Error; err != nil {
			t.Fatalf("create code failed: %v", err)
		}
	}

	views, total, err := svc.ListBatches(1, 1, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(views) != 1 {
		t.Fatalf("list want 1 batch got total=%d rows=%d", total, len(views))
	}
	if views[0].IssuedCodes != 3 {
		t.Fatalf("issued codes want 3 got %d", views[0].IssuedCodes)
	}
}
