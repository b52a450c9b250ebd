package service

import (
	"context"
	"errors"
	"testing"

	"github.com/lumina-verify/internal/constants"
	"github.com/lumina-verify/internal/models"
	"github.com/lumina-verify/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupVerifyServiceTest(t *testing.T) (*VerifyService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:verify_svc_"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Manufacturer{},
		&models.Product{},
		&models.Batch{},
		&models.Code{},
		&models.VerificationLog{},
	); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	models.DB = db
	svc := NewVerifyService(
		repository.NewCodeRepository(db),
		repository.NewManufacturerRepository(db),
		repository.NewVerificationLogRepository(db),
	)
	return svc, db
}

type verifyFixture struct {
	manufacturer *models.Manufacturer
	batch        *models.Batch
	code         *models.Code
}

func createVerifyFixture(t *testing.T, db *gorm.DB, codeValue string, recalled bool, aiStatus string) verifyFixture {
	t.Helper()
	mfr := &models.Manufacturer{
		Name:         "验真厂商",
		Email:        codeValue + "@verify.example",
		PasswordHash: "x",
		Plan:         constants.ManufacturerPlanBasic,
		Status:       constants.ManufacturerStatusActive,
		AIStatus:     aiStatus,
	}
	if err := db.Create(mfr).Error; err != nil {
		t.Fatalf("create manufacturer failed: %v", err)
	}
	product := &models.Product{ManufacturerID: mfr.ID, Name: "阿莫西林胶囊", Dosage: "0.25g"}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	batch := &models.Batch{
		BatchNumber:    "VB-" + codeValue,
		ManufacturerID: mfr.ID,
		ProductID:      product.ID,
		Quantity:       10,
		IsRecalled:     recalled,
	}
	if err := db.Create(batch).Error; err != nil {
		t.Fatalf("create batch failed: %v", err)
	}
	code := &models.Code{CodeValue: codeValue, BatchID: batch.ID, ManufacturerID: mfr.ID}
	if err := db.Create(code).Error; err != nil {
		t.Fatalf("create code failed: %v", err)
	}
	return verifyFixture{manufacturer: mfr, batch: batch, code: code}
}

func countVerifyLogs(t *testing.T, db *gorm.DB, codeValue string) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.VerificationLog{}).Where("code_value = ?", codeValue).Count(&count).Error; err != nil {
		t.Fatalf("count logs failed: %v", err)
	}
	return count
}

func TestVerifyGenuineThenAlreadyUsed(t *testing.T) {
	svc, db := setupVerifyServiceTest(t)
	createVerifyFixture(t, db, "LUM-FIRST01", false, constants.AIStatusClean)

	first, err := svc.Verify(context.Background(), VerifyInput{CodeValue: "lum-first01"})
	if err != nil {
		t.Fatalf("first verify failed: %v", err)
	}
	if first.State != constants.VerificationStateGenuine {
		t.Fatalf("first state want genuine got %s", first.State)
	}
	if first.PriorScanCount != 0 {
		t.Fatalf("first prior count want 0 got %d", first.PriorScanCount)
	}
	if first.Batch == nil || first.Batch.ProductName != "阿莫西林胶囊" {
		t.Fatalf("batch info missing: %+v", first.Batch)
	}

	second, err := svc.Verify(context.Background(), VerifyInput{CodeValue: "LUM-FIRST01"})
	if err != nil {
		t.Fatalf("second verify failed: %v", err)
	}
	if second.State != constants.VerificationStateAlreadyUsed {
		t.Fatalf("second state want already_used got %s", second.State)
	}
	if second.PriorScanCount != 1 {
		t.Fatalf("second prior count want 1 got %d", second.PriorScanCount)
	}

	if count := countVerifyLogs(t, db, "LUM-FIRST01"); count != 2 {
		t.Fatalf("log rows want 2 got %d", count)
	}
}

func TestVerifyUnknownCode(t *testing.T) {
	svc, db := setupVerifyServiceTest(t)

	result, err := svc.Verify(context.Background(), VerifyInput{CodeValue: "LUM-GHOST99"})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if result.State != constants.VerificationStateInvalid {
		t.Fatalf("state want invalid got %s", result.State)
	}
	if result.Batch != nil {
		t.Fatalf("unknown code must not leak batch info")
	}

	var log models.VerificationLog
	if err := db.Where("code_value = ?", "LUM-GHOST99").First(&log).Error; err != nil {
		t.Fatalf("log row missing: %v", err)
	}
	if log.ManufacturerID != nil || log.BatchID != nil {
		t.Fatalf("unknown code log must not carry manufacturer/batch")
	}
}

func TestVerifyRecalledBatchCarriesFlag(t *testing.T) {
	svc, db := setupVerifyServiceTest(t)
	createVerifyFixture(t, db, "LUM-RECALL1", true, constants.AIStatusClean)

	result, err := svc.Verify(context.Background(), VerifyInput{CodeValue: "LUM-RECALL1"})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if result.State != constants.VerificationStateGenuine {
		t.Fatalf("state want genuine got %s", result.State)
	}
	if !result.RecallFlag {
		t.Fatalf("recall flag want true")
	}
}

func TestVerifyFakeManufacturerEscalatesToSuspicious(t *testing.T) {
	svc, db := setupVerifyServiceTest(t)
	createVerifyFixture(t, db, "LUM-FAKE001", false, constants.AIStatusFake)

	result, err := svc.Verify(context.Background(), VerifyInput{CodeValue: "LUM-FAKE001"})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if result.State != constants.VerificationStateSuspicious {
		t.Fatalf("state want suspicious got %s", result.State)
	}
}

func TestVerifyGeoAttachmentRules(t *testing.T) {
	svc, db := setupVerifyServiceTest(t)
	createVerifyFixture(t, db, "LUM-GEO0001", false, constants.AIStatusClean)

	lat, lon := 31.23, 121.47

	// 未同意 + genuine：不挂载坐标
	if _, err := svc.Verify(context.Background(), VerifyInput{
		CodeValue: "LUM-GEO0001",
		Latitude:  &lat,
		Longitude: &lon,
	}); err != nil {
		t.Fatalf("first verify failed: %v", err)
	}
	var genuineLog models.VerificationLog
	if err := db.Where("code_value = ? AND verification_state = ?", "LUM-GEO0001", constants.VerificationStateGenuine).
		First(&genuineLog).Error; err != nil {
		t.Fatalf("genuine log missing: %v", err)
	}
	if genuineLog.Latitude != nil || genuineLog.Longitude != nil {
		t.Fatalf("genuine without consent must not carry coordinates")
	}

	// 未同意 + already_used：挂载坐标
	if _, err := svc.Verify(context.Background(), VerifyInput{
		CodeValue: "LUM-GEO0001",
		Latitude:  &lat,
		Longitude: &lon,
	}); err != nil {
		t.Fatalf("second verify failed: %v", err)
	}
	var usedLog models.VerificationLog
	if err := db.Where("code_value = ? AND verification_state = ?", "LUM-GEO0001", constants.VerificationStateAlreadyUsed).
		First(&usedLog).Error; err != nil {
		t.Fatalf("already_used log missing: %v", err)
	}
	if usedLog.Latitude == nil || usedLog.Longitude == nil {
		t.Fatalf("already_used must carry coordinates even without consent")
	}

	// 同意时任何结果都挂载坐标
	if _, err := svc.Verify(context.Background(), VerifyInput{
		CodeValue:  "LUM-GHOSTGEO",
		GeoConsent: true,
		Latitude:   &lat,
		Longitude:  &lon,
	}); err != nil {
		t.Fatalf("consent verify failed: %v", err)
	}
	var invalidLog models.VerificationLog
	if err := db.Where("code_value = ?", "LUM-GHOSTGEO").First(&invalidLog).Error; err != nil {
		t.Fatalf("invalid log missing: %v", err)
	}
	if invalidLog.Latitude == nil || invalidLog.Longitude == nil {
		t.Fatalf("consented scan must carry coordinates")
	}
	if !invalidLog.GeoConsent {
		t.Fatalf("geo consent flag should be persisted")
	}
}

func TestVerifyClaimRollsBackWhenLogWriteFails(t *testing.T) {
	svc, db := setupVerifyServiceTest(t)
	createVerifyFixture(t, db, "LUM-ATOMIC1", false, constants.AIStatusClean)

	// 日志表不可写时，首用位翻转必须一并回滚
	if err := db.Migrator().DropTable(&models.VerificationLog{}); err != nil {
		t.Fatalf("drop log table failed: %v", err)
	}
	if _, err := svc.Verify(context.Background(), VerifyInput{CodeValue: "LUM-ATOMIC1"}); !errors.Is(err, ErrStorage) {
		t.Fatalf("want ErrStorage got %v", err)
	}

	var code models.Code
	if err := db.Where("code_value = ?", "LUM-ATOMIC1").First(&code).Error; err != nil {
		t.Fatalf("load code failed: %v", err)
	}
	if code.IsUsed {
		t.Fatalf("claim must roll back when the log row cannot be written")
	}

	// 存储恢复后重试，首扫仍应判定为 genuine 且只留一条日志
	if err := db.AutoMigrate(&models.VerificationLog{}); err != nil {
		t.Fatalf("recreate log table failed: %v", err)
	}
	result, err := svc.Verify(context.Background(), VerifyInput{CodeValue: "LUM-ATOMIC1"})
	if err != nil {
		t.Fatalf("retry verify failed: %v", err)
	}
	if result.State != constants.VerificationStateGenuine {
		t.Fatalf("retry state want genuine got %s", result.State)
	}
	if count := countVerifyLogs(t, db, "LUM-ATOMIC1"); count != 1 {
		t.Fatalf("log rows want 1 got %d", count)
	}
}

func TestVerifyEmptyCodeValue(t *testing.T) {
	svc, _ := setupVerifyServiceTest(t)

	if _, err := svc.Verify(context.Background(), VerifyInput{CodeValue: "   "}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput got %v", err)
	}
}
