package service

import (
	"context"
	"strings"
	"time"

	"github.com/lumina-verify/internal/config"
	"github.com/lumina-verify/internal/constants"
	"github.com/lumina-verify/internal/logger"
	"github.com/lumina-verify/internal/oracle/tamper"
	"github.com/lumina-verify/internal/repository"

	"github.com/google/uuid"
)

// TamperOracle 图像篡改检测接口
type TamperOracle interface {
	Detect(ctx context.Context, certificatePath string) (*tamper.Detection, error)
}

// TextOracle 文字提取接口
type TextOracle interface {
	Extract(ctx context.Context, certificatePath string) (string, error)
}

// ForensicsEnqueuer 鉴伪任务投递接口，由 queue.Client 实现
type ForensicsEnqueuer interface {
	EnqueueForensicsScan(jobID string, manufacturerID uint, certificatePath, expectedRegistryNumber string) error
}

// ForensicsJob 一次证书鉴伪任务
type ForensicsJob struct {
	JobID                  string
	ManufacturerID         uint
	CertificatePath        string
	ExpectedRegistryNumber string
}

// CertificateScore 评分结果
type CertificateScore struct {
	Score   float64  `json:"score"`
	Status  string   `json:"status"`
	Reasons []string `json:"reasons"`
}

// ForensicsService 证书鉴伪服务
// 外部 oracle 故障一律降级为中性读数，绝不因此让任务进入重试；
// 只有存储等基础设施错误才交还队列重试。
type ForensicsService struct {
	cfg       *config.Config
	mfrRepo   repository.ManufacturerRepository
	auditSvc  *AuditService
	tamperOrc TamperOracle
	textOrc   TextOracle
	enqueuer  ForensicsEnqueuer
}

// NewForensicsService 创建鉴伪服务
func NewForensicsService(cfg *config.Config, mfrRepo repository.ManufacturerRepository, auditSvc *AuditService, tamperOrc TamperOracle, textOrc TextOracle, enqueuer ForensicsEnqueuer) *ForensicsService {
	return &ForensicsService{
		cfg:       cfg,
		mfrRepo:   mfrRepo,
		auditSvc:  auditSvc,
		tamperOrc: tamperOrc,
		textOrc:   textOrc,
		enqueuer:  enqueuer,
	}
}

// Submit 受理证书提交并投递异步鉴伪任务
// 投递即返回任务句柄，评分在 worker 侧完成。
func (s *ForensicsService) Submit(ctx context.Context, manufacturerID uint, certificatePath, expectedRegistryNumber string) (string, error) {
	if s == nil || s.mfrRepo == nil {
		return "", ErrStorage
	}
	certificatePath = strings.TrimSpace(certificatePath)
	if manufacturerID == 0 || certificatePath == "" {
		return "", ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	mfr, err := s.mfrRepo.GetByID(manufacturerID)
	if err != nil {
		return "", ErrStorage
	}
	if mfr == nil {
		return "", ErrManufacturerNotFound
	}

	if err := s.mfrRepo.UpdateCertificate(manufacturerID, certificatePath); err != nil {
		return "", ErrStorage
	}

	jobID := uuid.NewString()
	if s.enqueuer == nil {
		return "", ErrQueueUnavailable
	}
	if err := s.enqueuer.EnqueueForensicsScan(jobID, manufacturerID, certificatePath, strings.TrimSpace(expectedRegistryNumber)); err != nil {
		logger.Errorw("forensics_enqueue_failed",
			"manufacturer_id", manufacturerID,
			"job_id", jobID,
			"error", err,
		)
		return "", ErrQueueUnavailable
	}

	logger.Infow("forensics_job_submitted",
		"manufacturer_id", manufacturerID,
		"job_id", jobID,
	)
	return jobID, nil
}

// ProcessJob 执行一次鉴伪任务：采集读数、评分、落库、审计
func (s *ForensicsService) ProcessJob(ctx context.Context, job ForensicsJob) (*CertificateScore, error) {
	if s == nil || s.mfrRepo == nil {
		return nil, ErrStorage
	}
	if job.ManufacturerID == 0 {
		return nil, ErrInvalidInput
	}

	mfr, err := s.mfrRepo.GetByID(job.ManufacturerID)
	if err != nil {
		return nil, ErrStorage
	}
	if mfr == nil {
		// 厂商已被删除，任务作废而非重试
		logger.Warnw("forensics_manufacturer_missing",
			"manufacturer_id", job.ManufacturerID,
			"job_id", job.JobID,
		)
		return nil, nil
	}

	confidence := s.collectTamperReading(ctx, job)
	text := s.collectTextReading(ctx, job)

	score := s.ScoreCertificate(confidence, text, job.ExpectedRegistryNumber)

	now := time.Now()
	if err := s.mfrRepo.UpdateTrust(job.ManufacturerID, score.Score, score.Status, now); err != nil {
		return nil, ErrStorage
	}
	if s.auditSvc != nil {
		if err := s.auditSvc.RecordForensicsScored(job, score); err != nil {
			return nil, ErrStorage
		}
	}

	logger.Infow("forensics_job_scored",
		"manufacturer_id", job.ManufacturerID,
		"job_id", job.JobID,
		"score", score.Score,
		"status", score.Status,
	)
	return score, nil
}

// RecordFailure 终次重试仍失败时写入失败审计
func (s *ForensicsService) RecordFailure(job ForensicsJob, cause error) {
	if s == nil || s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.RecordForensicsFailed(job, cause); err != nil {
		logger.Errorw("forensics_failure_audit_write_failed",
			"manufacturer_id", job.ManufacturerID,
			"job_id", job.JobID,
			"error", err,
		)
	}
}

// collectTamperReading 采集篡改置信读数，失败时降级为 0
func (s *ForensicsService) collectTamperReading(ctx context.Context, job ForensicsJob) float64 {
	if s.tamperOrc == nil {
		return 0
	}
	detection, err := s.tamperOrc.Detect(ctx, job.CertificatePath)
	if err != nil || detection == nil {
		logger.Warnw("forensics_tamper_oracle_degraded",
			"manufacturer_id", job.ManufacturerID,
			"job_id", job.JobID,
			"error", err,
		)
		return 0
	}
	return detection.Confidence
}

// collectTextReading 采集文字读数，失败时降级为空串
func (s *ForensicsService) collectTextReading(ctx context.Context, job ForensicsJob) string {
	if s.textOrc == nil {
		return ""
	}
	text, err := s.textOrc.Extract(ctx, job.CertificatePath)
	if err != nil {
		logger.Warnw("forensics_text_oracle_degraded",
			"manufacturer_id", job.ManufacturerID,
			"job_id", job.JobID,
			"error", err,
		)
		return ""
	}
	return text
}

// ScoreCertificate 证书伪造可能性评分（纯函数，同输入必同输出）
// 评分分解：篡改置信达高阈值 +0.5、中阈值 +0.2；提取文字过短 +0.4；
// 预期注册号缺失 +0.4；最终截断到 [0,1]。
func (s *ForensicsService) ScoreCertificate(tamperConfidence float64, text, expectedRegistryNumber string) *CertificateScore {
	fc := s.cfg.Forensics
	score := 0.0
	reasons := make([]string, 0, 3)

	if tamperConfidence >= fc.TamperHigh {
		score += 0.5
		reasons = append(reasons, "tamper_confidence_high")
	} else if tamperConfidence >= fc.TamperModerate {
		score += 0.2
		reasons = append(reasons, "tamper_confidence_moderate")
	}

	if len(strings.TrimSpace(text)) < fc.MinTextLength {
		score += 0.4
		reasons = append(reasons, "extracted_text_too_short")
	}

	expected := strings.TrimSpace(expectedRegistryNumber)
	if expected != "" && !strings.Contains(text, expected) {
		score += 0.4
		reasons = append(reasons, "registry_number_missing")
	}

	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}

	status := constants.AIStatusClean
	switch {
	case score >= fc.FakeThreshold:
		status = constants.AIStatusFake
	case score >= fc.SuspectThreshold:
		status = constants.AIStatusSuspicious
	}

	return &CertificateScore{Score: score, Status: status, Reasons: reasons}
}
