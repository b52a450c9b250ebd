package service

import (
	"strconv"
	"time"

	"github.com/lumina-verify/internal/constants"
	"github.com/lumina-verify/internal/models"
	"github.com/lumina-verify/internal/repository"
)

// AuditService 审计落库服务
// 审计表只追加，每个鉴伪任务恰好一条终态记录。
type AuditService struct {
	auditRepo repository.ForensicsAuditRepository
}

// AuditListInput 审计查询输入
type AuditListInput struct {
	Page           int
	PageSize       int
	ManufacturerID uint
	Action         string
	ActorRole      string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
}

// NewAuditService 创建审计服务
func NewAuditService(auditRepo repository.ForensicsAuditRepository) *AuditService {
	return &AuditService{auditRepo: auditRepo}
}

// RecordForensicsScored 记录鉴伪评分完成
func (s *AuditService) RecordForensicsScored(job ForensicsJob, score *CertificateScore) error {
	if s == nil || s.auditRepo == nil || score == nil {
		return ErrStorage
	}
	reasons := make([]interface{}, 0, len(score.Reasons))
	for _, r := range score.Reasons {
		reasons = append(reasons, r)
	}
	return s.auditRepo.Create(&models.ForensicsAuditLog{
		ActorID:        constants.AuditActorSystem,
		ActorRole:      constants.AuditActorSystem,
		Action:         constants.AuditActionForensicsScored,
		ManufacturerID: job.ManufacturerID,
		JobID:          job.JobID,
		Score:          score.Score,
		Status:         score.Status,
		DetailJSON: models.JSON{
			"reasons":          reasons,
			"certificate_path": job.CertificatePath,
		},
		CreatedAt: time.Now(),
	})
}

// RecordForensicsFailed 记录鉴伪任务终态失败
func (s *AuditService) RecordForensicsFailed(job ForensicsJob, cause error) error {
	if s == nil || s.auditRepo == nil {
		return ErrStorage
	}
	detail := models.JSON{
		"certificate_path": job.CertificatePath,
	}
	if cause != nil {
		detail["error"] = cause.Error()
	}
	return s.auditRepo.Create(&models.ForensicsAuditLog{
		ActorID:        constants.AuditActorSystem,
		ActorRole:      constants.AuditActorSystem,
		Action:         constants.AuditActionForensicsFailed,
		ManufacturerID: job.ManufacturerID,
		JobID:          job.JobID,
		Status:         "failed",
		DetailJSON:     detail,
		CreatedAt:      time.Now(),
	})
}

// RecordBatchRecalled 记录管理员召回批次
func (s *AuditService) RecordBatchRecalled(adminID uint, batch *models.Batch) error {
	if s == nil || s.auditRepo == nil || batch == nil {
		return ErrStorage
	}
	return s.auditRepo.Create(&models.ForensicsAuditLog{
		ActorID:        strconv.FormatUint(uint64(adminID), 10),
		ActorRole:      constants.AuditActorAdmin,
		Action:         constants.AuditActionBatchRecalled,
		ManufacturerID: batch.ManufacturerID,
		DetailJSON: models.JSON{
			"batch_id":     batch.ID,
			"batch_number": batch.BatchNumber,
		},
		CreatedAt: time.Now(),
	})
}

// ListAudits 管理端查询审计记录
func (s *AuditService) ListAudits(input AuditListInput) ([]models.ForensicsAuditLog, int64, error) {
	if s == nil || s.auditRepo == nil {
		return nil, 0, ErrStorage
	}
	logs, total, err := s.auditRepo.ListAdmin(repository.ForensicsAuditListFilter{
		Page:           input.Page,
		PageSize:       input.PageSize,
		ManufacturerID: input.ManufacturerID,
		Action:         input.Action,
		ActorRole:      input.ActorRole,
		CreatedFrom:    input.CreatedFrom,
		CreatedTo:      input.CreatedTo,
	})
	if err != nil {
		return nil, 0, ErrStorage
	}
	return logs, total, nil
}
