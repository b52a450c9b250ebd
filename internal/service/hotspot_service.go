package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/lumina-verify/internal/cache"
	"github.com/lumina-verify/internal/config"
	"github.com/lumina-verify/internal/constants"
	"github.com/lumina-verify/internal/logger"
	"github.com/lumina-verify/internal/models"
	"github.com/lumina-verify/internal/oracle/risk"
	"github.com/lumina-verify/internal/repository"
)

const (
	hotspotCacheKey     = "hotspots:latest"
	externalSampleLimit = 20
	hotspotMatchEpsilon = 0.5 // 经纬度匹配容差（度）
)

// RiskOracle 风险推理接口
type RiskOracle interface {
	PredictHotspots(ctx context.Context, points []risk.ScanPoint) ([]risk.Prediction, error)
}

// Hotspot 假药流通热点
type Hotspot struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	RiskScore float64 `json:"risk_score"`
	Advisory  string  `json:"advisory"`
}

// AnalyzeExternalInput 外部产品单次扫描分析输入
type AnalyzeExternalInput struct {
	CodeValue   string
	ProductName string
	Latitude    *float64
	Longitude   *float64
}

// HotspotService 热点聚合服务
// 推理属于参考性输出：oracle 故障或返回畸形数据时降级为空结果，
// 绝不让聚合接口报错。
type HotspotService struct {
	cfg     *config.Config
	logRepo repository.VerificationLogRepository
	oracle  RiskOracle
	now     func() time.Time
}

// NewHotspotService 创建热点聚合服务
func NewHotspotService(cfg *config.Config, logRepo repository.VerificationLogRepository, oracle RiskOracle) *HotspotService {
	return &HotspotService{
		cfg:     cfg,
		logRepo: logRepo,
		oracle:  oracle,
		now:     time.Now,
	}
}

// ComputeHotspots 聚合滑动窗口内的可疑扫描并推理热点
// 窗口内无可疑日志时直接返回空列表，不触发 oracle 调用。
func (s *HotspotService) ComputeHotspots(ctx context.Context, windowDays int) ([]Hotspot, error) {
	if s == nil || s.logRepo == nil {
		return nil, ErrStorage
	}
	if windowDays <= 0 {
		windowDays = s.cfg.Hotspot.WindowDays
	}
	maxSample := s.cfg.Hotspot.MaxSample
	if maxSample <= 0 {
		maxSample = 200
	}

	since := s.now().AddDate(0, 0, -windowDays)
	logs, err := s.logRepo.ListFlaggedSince(since, maxSample)
	if err != nil {
		return nil, ErrStorage
	}

	points := privacyFilter(logs)
	if len(points) == 0 {
		return []Hotspot{}, nil
	}
	if s.oracle == nil {
		return []Hotspot{}, nil
	}

	predictions, err := s.oracle.PredictHotspots(ctx, points)
	if err != nil {
		logger.Warnw("hotspot_oracle_degraded", "error", err)
		return []Hotspot{}, nil
	}
	return sanitizePredictions(predictions), nil
}

// CachedHotspots 先查缓存，未命中则计算并回填
func (s *HotspotService) CachedHotspots(ctx context.Context, windowDays int) ([]Hotspot, error) {
	if windowDays <= 0 || windowDays == s.cfg.Hotspot.WindowDays {
		var cached []Hotspot
		hit, err := cache.GetJSON(ctx, hotspotCacheKey, &cached)
		if err != nil {
			logger.Warnw("hotspot_cache_read_failed", "error", err)
		}
		if hit {
			return cached, nil
		}
		return s.RefreshCache(ctx)
	}
	return s.ComputeHotspots(ctx, windowDays)
}

// RefreshCache 重新计算默认窗口的热点并写入缓存
func (s *HotspotService) RefreshCache(ctx context.Context) ([]Hotspot, error) {
	hotspots, err := s.ComputeHotspots(ctx, s.cfg.Hotspot.WindowDays)
	if err != nil {
		return nil, err
	}
	ttl := time.Duration(s.cfg.Hotspot.CacheTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = time.Hour
	}
	if err := cache.SetJSON(ctx, hotspotCacheKey, hotspots, ttl); err != nil {
		logger.Warnw("hotspot_cache_write_failed", "error", err)
	}
	return hotspots, nil
}

// AnalyzeExternalProduct 分析一次注册表外产品的扫描
// 本次扫描记为 UNREGISTERED_PRODUCT 日志，再携带近期同类扫描请求
// 推理；oracle 不可用或无输出时返回 nil（无预测，不报错）。
func (s *HotspotService) AnalyzeExternalProduct(ctx context.Context, input AnalyzeExternalInput) (*Hotspot, error) {
	if s == nil || s.logRepo == nil {
		return nil, ErrStorage
	}
	codeValue := strings.ToUpper(strings.TrimSpace(input.CodeValue))
	if codeValue == "" {
		return nil, ErrInvalidInput
	}

	log := &models.VerificationLog{
		CodeValue:         codeValue,
		VerificationState: constants.VerificationStateUnregistered,
		Latitude:          input.Latitude,
		Longitude:         input.Longitude,
		CreatedAt:         s.now(),
	}
	if err := s.logRepo.Append(log); err != nil {
		return nil, ErrStorage
	}

	if s.oracle == nil || input.Latitude == nil || input.Longitude == nil {
		return nil, nil
	}

	recent, err := s.logRepo.ListRecentByStates(
		[]string{constants.VerificationStateUnregistered},
		externalSampleLimit,
	)
	if err != nil {
		return nil, ErrStorage
	}

	points := make([]risk.ScanPoint, 0, len(recent)+1)
	points = append(points, risk.ScanPoint{
		CodeValue: codeValue,
		Latitude:  *input.Latitude,
		Longitude: *input.Longitude,
		State:     constants.VerificationStateUnregistered,
	})
	points = append(points, privacyFilter(recent)...)

	predictions, err := s.oracle.PredictHotspots(ctx, points)
	if err != nil {
		logger.Warnw("external_analysis_oracle_degraded", "code_value", codeValue, "error", err)
		return nil, nil
	}
	hotspots := sanitizePredictions(predictions)
	if len(hotspots) == 0 {
		return nil, nil
	}

	// 优先返回与本次扫描坐标吻合的预测，找不到则退回首条
	for i := range hotspots {
		if math.Abs(hotspots[i].Latitude-*input.Latitude) <= hotspotMatchEpsilon &&
			math.Abs(hotspots[i].Longitude-*input.Longitude) <= hotspotMatchEpsilon {
			return &hotspots[i], nil
		}
	}
	return &hotspots[0], nil
}

// privacyFilter 将日志脱敏为推理样本
// 只保留码值、坐标与状态字段，缺坐标的行被跳过。
func privacyFilter(logs []models.VerificationLog) []risk.ScanPoint {
	points := make([]risk.ScanPoint, 0, len(logs))
	for _, log := range logs {
		if log.Latitude == nil || log.Longitude == nil {
			continue
		}
		points = append(points, risk.ScanPoint{
			CodeValue: log.CodeValue,
			Latitude:  *log.Latitude,
			Longitude: *log.Longitude,
			State:     log.VerificationState,
		})
	}
	return points
}

// sanitizePredictions 形状校验：坐标必须有限，risk_score 截断到 [0,1]
func sanitizePredictions(predictions []risk.Prediction) []Hotspot {
	hotspots := make([]Hotspot, 0, len(predictions))
	for _, p := range predictions {
		if math.IsNaN(p.Latitude) || math.IsInf(p.Latitude, 0) ||
			math.IsNaN(p.Longitude) || math.IsInf(p.Longitude, 0) {
			continue
		}
		if p.Latitude < -90 || p.Latitude > 90 || p.Longitude < -180 || p.Longitude > 180 {
			continue
		}
		score := p.RiskScore
		if math.IsNaN(score) {
			continue
		}
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		hotspots = append(hotspots, Hotspot{
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			RiskScore: score,
			Advisory:  p.Advisory,
		})
	}
	return hotspots
}
