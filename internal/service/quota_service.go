package service

import (
	"time"

	"github.com/lumina-verify/internal/config"
	"github.com/lumina-verify/internal/repository"
)

// QuotaService 每日发码配额服务
// 配额按自然日（服务器本地时区）统计 Code.created_at，采用乐观校验：
// 并发发码可能轻微超出限额，审计以实际落库码数为准。
type QuotaService struct {
	cfg      *config.Config
	codeRepo repository.CodeRepository
	mfrRepo  repository.ManufacturerRepository
	now      func() time.Time
}

// QuotaStatus 配额窗口快照
type QuotaStatus struct {
	Plan      string `json:"plan"`
	Limit     int64  `json:"limit"` // 0 表示不限量
	Used      int64  `json:"used"`
	Remaining int64  `json:"remaining"` // 不限量时为 -1
	Allowed   bool   `json:"allowed"`
}

// NewQuotaService 创建配额服务
func NewQuotaService(cfg *config.Config, codeRepo repository.CodeRepository, mfrRepo repository.ManufacturerRepository) *QuotaService {
	return &QuotaService{
		cfg:      cfg,
		codeRepo: codeRepo,
		mfrRepo:  mfrRepo,
		now:      time.Now,
	}
}

// Status 查询厂商当日配额状态
func (s *QuotaService) Status(manufacturerID uint) (*QuotaStatus, error) {
	if s == nil || s.codeRepo == nil || s.mfrRepo == nil || manufacturerID == 0 {
		return nil, ErrInvalidInput
	}

	mfr, err := s.mfrRepo.GetByID(manufacturerID)
	if err != nil {
		return nil, ErrStorage
	}
	if mfr == nil {
		return nil, ErrManufacturerNotFound
	}

	limit, limited := s.cfg.Quota.LimitFor(mfr.Plan)
	status := &QuotaStatus{
		Plan:      mfr.Plan,
		Limit:     limit,
		Remaining: -1,
		Allowed:   true,
	}

	from, to := dayWindow(s.now())
	used, err := s.codeRepo.CountByManufacturerBetween(manufacturerID, from, to)
	if err != nil {
		return nil, ErrStorage
	}
	status.Used = used

	if limited {
		remaining := limit - used
		if remaining < 0 {
			remaining = 0
		}
		status.Remaining = remaining
		status.Allowed = remaining > 0
	}
	return status, nil
}

// CheckAllowance 校验厂商是否还能再发 quantity 枚码
// 不限量套餐直接放行；有限套餐要求窗口余量覆盖本次请求。
func (s *QuotaService) CheckAllowance(manufacturerID uint, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidInput
	}
	status, err := s.Status(manufacturerID)
	if err != nil {
		return err
	}
	if status.Limit <= 0 {
		return nil
	}
	if status.Remaining < int64(quantity) {
		return ErrQuotaExceeded
	}
	return nil
}

// dayWindow 返回 t 所在自然日的 [start, end) 区间
func dayWindow(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}
