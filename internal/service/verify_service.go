package service

import (
	"context"
	"strings"
	"time"

	"github.com/lumina-verify/internal/constants"
	"github.com/lumina-verify/internal/logger"
	"github.com/lumina-verify/internal/models"
	"github.com/lumina-verify/internal/repository"
	"gorm.io/gorm"
)

// VerifyService 验真状态机
// 每次调用恰好追加一条验真日志；分类结果是结果而不是错误，
// 只有存储故障才返回 error。
type VerifyService struct {
	codeRepo repository.CodeRepository
	mfrRepo  repository.ManufacturerRepository
	logRepo  repository.VerificationLogRepository
	now      func() time.Time
}

// VerifyInput 验真输入
type VerifyInput struct {
	CodeValue  string
	GeoConsent bool
	Latitude   *float64
	Longitude  *float64
}

// VerifyBatchInfo 验真结果附带的批次信息
type VerifyBatchInfo struct {
	BatchNumber    string     `json:"batch_number"`
	ProductName    string     `json:"product_name,omitempty"`
	Dosage         string     `json:"dosage,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

// VerifyResult 验真结果
type VerifyResult struct {
	State          string           `json:"state"`
	RecallFlag     bool             `json:"recall_flag"`
	PriorScanCount int64            `json:"prior_scan_count"`
	Batch          *VerifyBatchInfo `json:"batch,omitempty"`
	LoggedAt       time.Time        `json:"logged_at"`
}

// NewVerifyService 创建验真服务
func NewVerifyService(codeRepo repository.CodeRepository, mfrRepo repository.ManufacturerRepository, logRepo repository.VerificationLogRepository) *VerifyService {
	return &VerifyService{
		codeRepo: codeRepo,
		mfrRepo:  mfrRepo,
		logRepo:  logRepo,
		now:      time.Now,
	}
}

// Verify 执行一次验真
// 判定顺序：未知码 → INVALID；原子抢占首用位决定 GENUINE 与
// CODE_ALREADY_USED；厂商证书判定为 fake 时结果升级为可疑。
func (s *VerifyService) Verify(ctx context.Context, input VerifyInput) (*VerifyResult, error) {
	if s == nil || s.codeRepo == nil || s.logRepo == nil {
		return nil, ErrStorage
	}
	codeValue := strings.ToUpper(strings.TrimSpace(input.CodeValue))
	if codeValue == "" {
		return nil, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := s.now()

	code, err := s.codeRepo.GetByValueWithBatch(codeValue)
	if err != nil {
		return nil, ErrStorage
	}

	if code == nil {
		priorCount, err := s.logRepo.CountByCode(codeValue)
		if err != nil {
			return nil, ErrStorage
		}
		result := &VerifyResult{
			State:          constants.VerificationStateInvalid,
			PriorScanCount: priorCount,
			LoggedAt:       now,
		}
		if err := s.appendLog(s.logRepo, codeValue, result.State, nil, nil, input, now); err != nil {
			return nil, ErrStorage
		}
		return result, nil
	}

	// 首用位翻转与日志落库同生共死：任一失败则整体回滚，
	// 避免码被消耗却没有留下日志行。
	var result *VerifyResult
	txErr := models.DB.Transaction(func(tx *gorm.DB) error {
		codeRepo := s.codeRepo.WithTx(tx)
		logRepo := s.logRepo.WithTx(tx)

		claimed, err := codeRepo.ClaimFirstUse(codeValue, now)
		if err != nil {
			return err
		}
		state := constants.VerificationStateAlreadyUsed
		if claimed {
			state = constants.VerificationStateGenuine
		}

		// 厂商证书被判定伪造时，该厂商全部码的扫描结果升级为可疑
		if s.mfrRepo != nil {
			mfr, err := s.mfrRepo.WithTx(tx).GetByID(code.ManufacturerID)
			if err != nil {
				return err
			}
			if mfr != nil && mfr.AIStatus == constants.AIStatusFake {
				state = constants.VerificationStateSuspicious
			}
		}

		priorCount, err := logRepo.CountByCode(codeValue)
		if err != nil {
			return err
		}

		result = &VerifyResult{
			State:          state,
			PriorScanCount: priorCount,
			LoggedAt:       now,
		}
		if code.Batch != nil {
			result.RecallFlag = code.Batch.IsRecalled
			info := &VerifyBatchInfo{
				BatchNumber:    code.Batch.BatchNumber,
				ExpirationDate: code.Batch.ExpirationDate,
			}
			if code.Batch.Product != nil {
				info.ProductName = code.Batch.Product.Name
				info.Dosage = code.Batch.Product.Dosage
			}
			result.Batch = info
		}

		mfrID := code.ManufacturerID
		batchID := code.BatchID
		return s.appendLog(logRepo, codeValue, state, &mfrID, &batchID, input, now)
	})
	if txErr != nil {
		return nil, ErrStorage
	}

	logger.Infow("code_verified",
		"code_value", codeValue,
		"state", result.State,
		"recall_flag", result.RecallFlag,
		"prior_scans", result.PriorScanCount,
	)
	return result, nil
}

// VerificationListInput 管理端验真日志查询输入
type VerificationListInput struct {
	Page        int
	PageSize    int
	CodeValue   string
	State       string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ListVerifications 管理端查询验真日志
func (s *VerifyService) ListVerifications(input VerificationListInput) ([]models.VerificationLog, int64, error) {
	if s == nil || s.logRepo == nil {
		return nil, 0, ErrStorage
	}
	logs, total, err := s.logRepo.List(repository.VerificationLogListFilter{
		Page:        input.Page,
		PageSize:    input.PageSize,
		CodeValue:   strings.ToUpper(strings.TrimSpace(input.CodeValue)),
		State:       strings.ToLower(strings.TrimSpace(input.State)),
		CreatedFrom: input.CreatedFrom,
		CreatedTo:   input.CreatedTo,
	})
	if err != nil {
		return nil, 0, ErrStorage
	}
	return logs, total, nil
}

// appendLog 追加本次验真的日志行
// 坐标挂载规则：用户同意时始终记录；未同意时仅在重复使用或可疑
// 结果下记录，且绝不因坐标处理让验真调用失败。
func (s *VerifyService) appendLog(logRepo repository.VerificationLogRepository, codeValue, state string, manufacturerID, batchID *uint, input VerifyInput, at time.Time) error {
	log := &models.VerificationLog{
		CodeValue:         codeValue,
		VerificationState: state,
		ManufacturerID:    manufacturerID,
		BatchID:           batchID,
		GeoConsent:        input.GeoConsent,
		CreatedAt:         at,
	}
	if shouldAttachGeo(state, input.GeoConsent) {
		log.Latitude = input.Latitude
		log.Longitude = input.Longitude
	}
	return logRepo.Append(log)
}

// shouldAttachGeo 判断是否挂载坐标
func shouldAttachGeo(state string, consent bool) bool {
	if consent {
		return true
	}
	switch state {
	case constants.VerificationStateAlreadyUsed, constants.VerificationStateSuspicious:
		return true
	}
	return false
}
