package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/lumina-verify/internal/config"
	"github.com/lumina-verify/internal/constants"
	"github.com/lumina-verify/internal/models"
	"github.com/lumina-verify/internal/oracle/risk"
	"github.com/lumina-verify/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type stubRiskOracle struct {
	predictions []risk.Prediction
	err         error
	calls       int
	lastPoints  []risk.ScanPoint
}

func (s *stubRiskOracle) PredictHotspots(ctx context.Context, points []risk.ScanPoint) ([]risk.Prediction, error) {
	s.calls++
	s.lastPoints = points
	return s.predictions, s.err
}

func setupHotspotServiceTest(t *testing.T, oracle RiskOracle) (*HotspotService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:hotspot_svc_"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.VerificationLog{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	cfg := &config.Config{
		Hotspot: config.HotspotConfig{WindowDays: 30, MaxSample: 200},
	}
	svc := NewHotspotService(cfg, repository.NewVerificationLogRepository(db), oracle)
	return svc, db
}

func appendHotspotLog(t *testing.T, db *gorm.DB, state string, lat, lon *float64, createdAt time.Time) {
	t.Helper()
	if err := db.Create(&models.VerificationLog{
		CodeValue:         "LUM-HOT001",
		VerificationState: state,
		Latitude:          lat,
		Longitude:         lon,
		CreatedAt:         createdAt,
	}).Error; err != nil {
		t.Fatalf("append log failed: %v", err)
	}
}

func float64Ptr(v float64) *float64 {
	return &v
}

func TestComputeHotspotsEmptyWindowSkipsOracle(t *testing.T) {
	oracle := &stubRiskOracle{}
	svc, _ := setupHotspotServiceTest(t, oracle)

	hotspots, err := svc.ComputeHotspots(context.Background(), 0)
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if len(hotspots) != 0 {
		t.Fatalf("hotspots want empty got %v", hotspots)
	}
	if oracle.calls != 0 {
		t.Fatalf("oracle must not be called on empty window")
	}
}

func TestComputeHotspotsSanitizesPredictions(t *testing.T) {
	oracle := &stubRiskOracle{
		predictions: []risk.Prediction{
			{Latitude: 31.2, Longitude: 121.5, RiskScore: 1.7, Advisory: "华东可疑流通"},
			{Latitude: math.NaN(), Longitude: 121.5, RiskScore: 0.5},
			{Latitude: 95, Longitude: 10, RiskScore: 0.5},
			{Latitude: 39.9, Longitude: 116.4, RiskScore: -0.3, Advisory: "华北"},
		},
	}
	svc, db := setupHotspotServiceTest(t, oracle)
	appendHotspotLog(t, db, constants.VerificationStateSuspicious, float64Ptr(31.2), float64Ptr(121.5), time.Now())

	hotspots, err := svc.ComputeHotspots(context.Background(), 0)
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if len(hotspots) != 2 {
		t.Fatalf("hotspots want 2 got %d: %v", len(hotspots), hotspots)
	}
	if hotspots[0].RiskScore != 1 {
		t.Fatalf("risk score want clamped to 1 got %v", hotspots[0].RiskScore)
	}
	if hotspots[1].RiskScore != 0 {
		t.Fatalf("risk score want clamped to 0 got %v", hotspots[1].RiskScore)
	}
}

func TestComputeHotspotsOracleFailureDegrades(t *testing.T) {
	oracle := &stubRiskOracle{err: errors.New("oracle down")}
	svc, db := setupHotspotServiceTest(t, oracle)
	appendHotspotLog(t, db, constants.VerificationStateAlreadyUsed, float64Ptr(31.2), float64Ptr(121.5), time.Now())

	hotspots, err := svc.ComputeHotspots(context.Background(), 0)
	if err != nil {
		t.Fatalf("degraded compute must not error: %v", err)
	}
	if len(hotspots) != 0 {
		t.Fatalf("hotspots want empty got %v", hotspots)
	}
}

func TestComputeHotspotsPrivacyFilterDropsCoordlessRows(t *testing.T) {
	oracle := &stubRiskOracle{}
	svc, db := setupHotspotServiceTest(t, oracle)
	appendHotspotLog(t, db, constants.VerificationStateSuspicious, nil, nil, time.Now())

	hotspots, err := svc.ComputeHotspots(context.Background(), 0)
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if len(hotspots) != 0 || oracle.calls != 0 {
		t.Fatalf("coordless rows must not reach the oracle")
	}
}

func TestAnalyzeExternalProductLogsAndPredicts(t *testing.T) {
	oracle := &stubRiskOracle{
		predictions: []risk.Prediction{
			{Latitude: 50.0, Longitude: 8.0, RiskScore: 0.6, Advisory: "远端热点"},
			{Latitude: 31.3, Longitude: 121.4, RiskScore: 0.8, Advisory: "本地热点"},
		},
	}
	svc, db := setupHotspotServiceTest(t, oracle)

	prediction, err := svc.AnalyzeExternalProduct(context.Background(), AnalyzeExternalInput{
		CodeValue: "ext-code-01",
		Latitude:  float64Ptr(31.23),
		Longitude: float64Ptr(121.47),
	})
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if prediction == nil {
		t.Fatalf("prediction want non-nil")
	}
	// 优先返回与扫描坐标吻合的预测而不是首条
	if prediction.Advisory != "本地热点" {
		t.Fatalf("prediction want local hotspot got %+v", prediction)
	}

	var log models.VerificationLog
	if err := db.Where("code_value = ?", "EXT-CODE-01").First(&log).Error; err != nil {
		t.Fatalf("unregistered log missing: %v", err)
	}
	if log.VerificationState != constants.VerificationStateUnregistered {
		t.Fatalf("log state want unregistered got %s", log.VerificationState)
	}
	if log.Latitude == nil || log.Longitude == nil {
		t.Fatalf("external scan log should carry coordinates")
	}
}

func TestAnalyzeExternalProductFallsBackToFirstPrediction(t *testing.T) {
	oracle := &stubRiskOracle{
		predictions: []risk.Prediction{
			{Latitude: 50.0, Longitude: 8.0, RiskScore: 0.6, Advisory: "远端热点"},
		},
	}
	svc, _ := setupHotspotServiceTest(t, oracle)

	prediction, err := svc.AnalyzeExternalProduct(context.Background(), AnalyzeExternalInput{
		CodeValue: "EXT-CODE-02",
		Latitude:  float64Ptr(31.23),
		Longitude: float64Ptr(121.47),
	})
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if prediction == nil || prediction.Advisory != "远端热点" {
		t.Fatalf("prediction want first hotspot got %+v", prediction)
	}
}

func TestAnalyzeExternalProductWithoutCoordinates(t *testing.T) {
	oracle := &stubRiskOracle{}
	svc, db := setupHotspotServiceTest(t, oracle)

	prediction, err := svc.AnalyzeExternalProduct(context.Background(), AnalyzeExternalInput{
		CodeValue: "EXT-CODE-03",
	})
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if prediction != nil {
		t.Fatalf("prediction want nil without coordinates")
	}
	if oracle.calls != 0 {
		t.Fatalf("oracle must not be called without coordinates")
	}

	// 日志仍然落库
	var count int64
	if err := db.Model(&models.VerificationLog{}).Where("code_value = ?", "EXT-CODE-03").Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("log rows want 1 got %d", count)
	}
}

func TestAnalyzeExternalProductOracleFailure(t *testing.T) {
	oracle := &stubRiskOracle{err: errors.New("oracle down")}
	svc, _ := setupHotspotServiceTest(t, oracle)

	prediction, err := svc.AnalyzeExternalProduct(context.Background(), AnalyzeExternalInput{
		CodeValue: "EXT-CODE-04",
		Latitude:  float64Ptr(31.23),
		Longitude: float64Ptr(121.47),
	})
	if err != nil {
		t.Fatalf("degraded analyze must not error: %v", err)
	}
	if prediction != nil {
		t.Fatalf("prediction want nil on oracle failure")
	}
}
