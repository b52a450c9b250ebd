package service

import (
	"context"
	"errors"
	"testing"

	"github.com/lumina-verify/internal/config"
	"github.com/lumina-verify/internal/constants"
	"github.com/lumina-verify/internal/models"
	"github.com/lumina-verify/internal/oracle/tamper"
	"github.com/lumina-verify/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type stubTamperOracle struct {
	detection *tamper.Detection
	err       error
	calls     int
}

func (s *stubTamperOracle) Detect(ctx context.Context, certificatePath string) (*tamper.Detection, error) {
	s.calls++
	return s.detection, s.err
}

type stubTextOracle struct {
	text  string
	err   error
	calls int
}

func (s *stubTextOracle) Extract(ctx context.Context, certificatePath string) (string, error) {
	s.calls++
	return s.text, s.err
}

type stubEnqueuer struct {
	jobID string
	err   error
	calls int
}

func (s *stubEnqueuer) EnqueueForensicsScan(jobID string, manufacturerID uint, certificatePath, expectedRegistryNumber string) error {
	s.calls++
	s.jobID = jobID
	return s.err
}

func forensicsTestConfig() *config.Config {
	return &config.Config{
		Forensics: config.ForensicsConfig{
			TamperHigh:       20,
			TamperModerate:   10,
			MinTextLength:    20,
			FakeThreshold:    0.7,
			SuspectThreshold: 0.25,
		},
	}
}

func setupForensicsServiceTest(t *testing.T, tamperOrc TamperOracle, textOrc TextOracle, enqueuer ForensicsEnqueuer) (*ForensicsService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:forensics_svc_"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Manufacturer{}, &models.ForensicsAuditLog{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	mfrRepo := repository.NewManufacturerRepository(db)
	auditSvc := NewAuditService(repository.NewForensicsAuditRepository(db))
	svc := NewForensicsService(forensicsTestConfig(), mfrRepo, auditSvc, tamperOrc, textOrc, enqueuer)
	return svc, db
}

func createForensicsManufacturer(t *testing.T, db *gorm.DB) *models.Manufacturer {
	t.Helper()
	mfr := &models.Manufacturer{
		Name:           "鉴伪厂商",
		Email:          "forensics@test.example",
		PasswordHash:   "x",
		Plan:           constants.ManufacturerPlanBasic,
		Status:         constants.ManufacturerStatusActive,
		RegistryNumber: "NMPA-2024-777",
		AIStatus:       constants.AIStatusClean,
	}
	if err := db.Create(mfr).Error; err != nil {
		t.Fatalf("create manufacturer failed: %v", err)
	}
	return mfr
}

func countAuditRows(t *testing.T, db *gorm.DB, action string) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.ForensicsAuditLog{}).Where("action = ?", action).Count(&count).Error; err != nil {
		t.Fatalf("count audit rows failed: %v", err)
	}
	return count
}

func TestScoreCertificateDecomposition(t *testing.T) {
	svc, _ := setupForensicsServiceTest(t, nil, nil, nil)
	longText := "本证书确认华光制药具备药品生产资质，注册号 NMPA-2024-777，特此证明。"

	cases := []struct {
		name       string
		confidence float64
		text       string
		expected   string
		wantScore  float64
		wantStatus string
	}{
		{"clean_certificate", 0, longText, "NMPA-2024-777", 0, constants.AIStatusClean},
		{"moderate_tamper_only", 15, longText, "NMPA-2024-777", 0.2, constants.AIStatusClean},
		{"short_text_only", 0, "短文本", "", 0.4, constants.AIStatusSuspicious},
		{"registry_missing", 0, longText, "NMPA-9999-000", 0.4, constants.AIStatusSuspicious},
		{"high_tamper_plus_short", 25, "", "", 0.9, constants.AIStatusFake},
		{"all_signals_clamped", 25, "", "NMPA-9999-000", 1.0, constants.AIStatusFake},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			score := svc.ScoreCertificate(tc.confidence, tc.text, tc.expected)
			if score.Score != tc.wantScore {
				t.Fatalf("score want %v got %v (reasons %v)", tc.wantScore, score.Score, score.Reasons)
			}
			if score.Status != tc.wantStatus {
				t.Fatalf("status want %s got %s", tc.wantStatus, score.Status)
			}
		})
	}
}

func TestScoreCertificateDeterministic(t *testing.T) {
	svc, _ := setupForensicsServiceTest(t, nil, nil, nil)

	first := svc.ScoreCertificate(25, "", "NMPA-1")
	second := svc.ScoreCertificate(25, "", "NMPA-1")
	if first.Score != second.Score || first.Status != second.Status {
		t.Fatalf("same input must yield same score: %+v vs %+v", first, second)
	}
	if len(first.Reasons) != len(second.Reasons) {
		t.Fatalf("reasons must be stable")
	}
}

func TestProcessJobUpdatesTrustAndAuditsOnce(t *testing.T) {
	tamperOrc := &stubTamperOracle{detection: &tamper.Detection{Confidence: 25, Regions: 2}}
	textOrc := &stubTextOracle{text: "短"}
	svc, db := setupForensicsServiceTest(t, tamperOrc, textOrc, nil)
	mfr := createForensicsManufacturer(t, db)

	job := ForensicsJob{JobID: "job-1", ManufacturerID: mfr.ID, CertificatePath: "/tmp/cert.png"}
	score, err := svc.ProcessJob(context.Background(), job)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if score.Status != constants.AIStatusFake {
		t.Fatalf("status want fake got %s", score.Status)
	}

	var updated models.Manufacturer
	if err := db.First(&updated, mfr.ID).Error; err != nil {
		t.Fatalf("load manufacturer failed: %v", err)
	}
	if updated.AIStatus != constants.AIStatusFake {
		t.Fatalf("ai_status want fake got %s", updated.AIStatus)
	}
	if updated.AIScore != score.Score {
		t.Fatalf("ai_score want %v got %v", score.Score, updated.AIScore)
	}

	if count := countAuditRows(t, db, constants.AuditActionForensicsScored); count != 1 {
		t.Fatalf("audit rows want 1 got %d", count)
	}
}

func TestProcessJobDegradesOnOracleFailure(t *testing.T) {
	tamperOrc := &stubTamperOracle{err: errors.New("oracle down")}
	textOrc := &stubTextOracle{err: errors.New("oracle down")}
	svc, db := setupForensicsServiceTest(t, tamperOrc, textOrc, nil)
	mfr := createForensicsManufacturer(t, db)

	job := ForensicsJob{JobID: "job-2", ManufacturerID: mfr.ID, CertificatePath: "/tmp/cert.png"}
	score, err := svc.ProcessJob(context.Background(), job)
	if err != nil {
		t.Fatalf("degraded process must not error: %v", err)
	}
	// 中性读数：篡改置信 0，文字为空 → 仅文字过短 +0.4
	if score.Score != 0.4 || score.Status != constants.AIStatusSuspicious {
		t.Fatalf("degraded score want 0.4/suspicious got %v/%s", score.Score, score.Status)
	}
	if tamperOrc.calls != 1 || textOrc.calls != 1 {
		t.Fatalf("both oracles should be consulted once")
	}
	if count := countAuditRows(t, db, constants.AuditActionForensicsScored); count != 1 {
		t.Fatalf("audit rows want 1 got %d", count)
	}
}

func TestProcessJobMissingManufacturerSkipsWithoutError(t *testing.T) {
	svc, db := setupForensicsServiceTest(t, nil, nil, nil)

	score, err := svc.ProcessJob(context.Background(), ForensicsJob{JobID: "job-3", ManufacturerID: 404})
	if err != nil {
		t.Fatalf("missing manufacturer must not error: %v", err)
	}
	if score != nil {
		t.Fatalf("score want nil got %+v", score)
	}
	if count := countAuditRows(t, db, constants.AuditActionForensicsScored); count != 0 {
		t.Fatalf("no audit row expected, got %d", count)
	}
}

func TestSubmitEnqueuesJob(t *testing.T) {
	enqueuer := &stubEnqueuer{}
	svc, db := setupForensicsServiceTest(t, nil, nil, enqueuer)
	mfr := createForensicsManufacturer(t, db)

	jobID, err := svc.Submit(context.Background(), mfr.ID, "/certs/new.png", "NMPA-2024-777")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if jobID == "" || enqueuer.calls != 1 || enqueuer.jobID != jobID {
		t.Fatalf("job should be enqueued with returned id")
	}

	var updated models.Manufacturer
	if err := db.First(&updated, mfr.ID).Error; err != nil {
		t.Fatalf("load manufacturer failed: %v", err)
	}
	if updated.CertificatePath != "/certs/new.png" {
		t.Fatalf("certificate path not persisted: %s", updated.CertificatePath)
	}
}

func TestSubmitEnqueueFailure(t *testing.T) {
	enqueuer := &stubEnqueuer{err: errors.New("redis down")}
	svc, db := setupForensicsServiceTest(t, nil, nil, enqueuer)
	mfr := createForensicsManufacturer(t, db)

	if _, err := svc.Submit(context.Background(), mfr.ID, "/certs/new.png", ""); !errors.Is(err, ErrQueueUnavailable) {
		t.Fatalf("want ErrQueueUnavailable got %v", err)
	}
}

func TestRecordFailureWritesFailedAudit(t *testing.T) {
	svc, db := setupForensicsServiceTest(t, nil, nil, nil)
	mfr := createForensicsManufacturer(t, db)

	svc.RecordFailure(ForensicsJob{JobID: "job-fail", ManufacturerID: mfr.ID}, errors.New("storage broken"))

	if count := countAuditRows(t, db, constants.AuditActionForensicsFailed); count != 1 {
		t.Fatalf("failed audit rows want 1 got %d", count)
	}
}
