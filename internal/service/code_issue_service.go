package service

import (
	"context"
	crand "crypto/rand"
	"time"

	"github.com/lumina-verify/internal/constants"
	"github.com/lumina-verify/internal/logger"
	"github.com/lumina-verify/internal/models"
	"github.com/lumina-verify/internal/repository"
)

const (
	codeRandomLength = 12
	codeAlphabet     = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // 去掉易混淆字符 I O 0 1
	maxIssueQuantity = 10000
)

// CodeIssueService 发码服务
type CodeIssueService struct {
	codeRepo  repository.CodeRepository
	batchRepo repository.BatchRepository
	quotaSvc  *QuotaService
}

// IssueResult 发码结果
type IssueResult struct {
	Issued    []string `json:"codes"`
	Requested int      `json:"requested"`
	Shortfall int      `json:"shortfall"`
}

// NewCodeIssueService 创建发码服务
func NewCodeIssueService(codeRepo repository.CodeRepository, batchRepo repository.BatchRepository, quotaSvc *QuotaService) *CodeIssueService {
	return &CodeIssueService{
		codeRepo:  codeRepo,
		batchRepo: batchRepo,
		quotaSvc:  quotaSvc,
	}
}

// IssueCodes 为批次批量发码
// 候选码批量写入时唯一键冲突静默跳过，再回查实际落库集合补齐缺口；
// 总生成尝试次数不超过 3×quantity，超出则返回携带部分结果的
// GenerationExhaustedError。
func (s *CodeIssueService) IssueCodes(ctx context.Context, manufacturerID, batchID uint, quantity int) (*IssueResult, error) {
	if s == nil || s.codeRepo == nil || s.batchRepo == nil {
		return nil, ErrStorage
	}
	if manufacturerID == 0 || batchID == 0 || quantity <= 0 || quantity > maxIssueQuantity {
		return nil, ErrInvalidInput
	}

	batch, err := s.batchRepo.GetByID(batchID)
	if err != nil {
		return nil, ErrStorage
	}
	if batch == nil || batch.ManufacturerID != manufacturerID {
		return nil, ErrBatchNotFound
	}

	if s.quotaSvc != nil {
		if err := s.quotaSvc.CheckAllowance(manufacturerID, quantity); err != nil {
			return nil, err
		}
	}

	issued := make([]string, 0, quantity)
	attempts := 0
	budget := 3 * quantity

	for len(issued) < quantity && attempts < budget {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		need := quantity - len(issued)
		if remaining := budget - attempts; need > remaining {
			need = remaining
		}

		candidates := make([]string, 0, need)
		rows := make([]models.Code, 0, need)
		now := time.Now()
		for i := 0; i < need; i++ {
			value, err := generateCodeValue()
			if err != nil {
				return nil, ErrStorage
			}
			candidates = append(candidates, value)
			rows = append(rows, models.Code{
				CodeValue:      value,
				BatchID:        batchID,
				ManufacturerID: manufacturerID,
				CreatedAt:      now,
			})
		}
		attempts += need

		if err := s.codeRepo.CreateSkipConflicts(rows); err != nil {
			return nil, ErrStorage
		}
		// 冲突行被跳过，以回查结果为准
		persisted, err := s.codeRepo.ListPersistedValues(batchID, candidates)
		if err != nil {
			return nil, ErrStorage
		}
		issued = append(issued, persisted...)
	}

	if len(issued) < quantity {
		logger.Warnw("code_issue_exhausted",
			"manufacturer_id", manufacturerID,
			"batch_id", batchID,
			"requested", quantity,
			"issued", len(issued),
			"attempts", attempts,
		)
		return nil, &GenerationExhaustedError{Requested: quantity, Issued: issued}
	}

	logger.Infow("codes_issued",
		"manufacturer_id", manufacturerID,
		"batch_id", batchID,
		"count", len(issued),
	)
	return &IssueResult{Issued: issued, Requested: quantity}, nil
}

// generateCodeValue 生成一枚候选码值：前缀 + 加密随机大写字母数字
func generateCodeValue() (string, error) {
	buf := make([]byte, codeRandomLength)
	if _, err := crand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, codeRandomLength)
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return constants.CodeValuePrefix + string(out), nil
}
