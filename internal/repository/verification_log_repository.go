package repository

import (
	"time"

	"github.com/lumina-verify/internal/constants"
	"github.com/lumina-verify/internal/models"

	"gorm.io/gorm"
)

// VerificationLogListFilter 查询验真日志列表的过滤条件
type VerificationLogListFilter struct {
	Page        int
	PageSize    int
	CodeValue   string
	State       string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// VerificationLogRepository 验真日志数据访问接口
// 日志只追加：接口刻意不提供更新与删除。
type VerificationLogRepository interface {
	Append(log *models.VerificationLog) error
	CountByCode(codeValue string) (int64, error)
	List(filter VerificationLogListFilter) ([]models.VerificationLog, int64, error)
	// ListFlaggedSince 查询窗口内可疑状态（重复使用/可疑/未注册）的日志
	ListFlaggedSince(since time.Time, limit int) ([]models.VerificationLog, error)
	// ListRecentByStates 查询指定状态的最近若干条日志
	ListRecentByStates(states []string, limit int) ([]models.VerificationLog, error)
	WithTx(tx *gorm.DB) *GormVerificationLogRepository
}

// GormVerificationLogRepository GORM 实现
type GormVerificationLogRepository struct {
	db *gorm.DB
}

// NewVerificationLogRepository 创建验真日志仓库
func NewVerificationLogRepository(db *gorm.DB) *GormVerificationLogRepository {
	return &GormVerificationLogRepository{db: db}
}

// WithTx 绑定事务
func (r *GormVerificationLogRepository) WithTx(tx *gorm.DB) *GormVerificationLogRepository {
	if tx == nil {
		return r
	}
	return &GormVerificationLogRepository{db: tx}
}

// Append 追加一条验真日志
func (r *GormVerificationLogRepository) Append(log *models.VerificationLog) error {
	if log == nil {
		return nil
	}
	return r.db.Create(log).Error
}

// CountByCode 统计某码值的历史验真次数
func (r *GormVerificationLogRepository) CountByCode(codeValue string) (int64, error) {
	var count int64
	if err := r.db.Model(&models.VerificationLog{}).
		Where("code_value = ?", codeValue).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// List 查询验真日志列表
func (r *GormVerificationLogRepository) List(filter VerificationLogListFilter) ([]models.VerificationLog, int64, error) {
	query := r.db.Model(&models.VerificationLog{})
	if filter.CodeValue != "" {
		query = query.Where("code_value = ?", filter.CodeValue)
	}
	if filter.State != "" {
		query = query.Where("verification_state = ?", filter.State)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	logs := make([]models.VerificationLog, 0)
	if err := query.Order("id DESC").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// ListFlaggedSince 查询窗口内可疑状态日志（供热点聚合）
func (r *GormVerificationLogRepository) ListFlaggedSince(since time.Time, limit int) ([]models.VerificationLog, error) {
	return r.ListRecentByStatesSince([]string{
		constants.VerificationStateAlreadyUsed,
		constants.VerificationStateSuspicious,
		constants.VerificationStateUnregistered,
	}, since, limit)
}

// ListRecentByStates 查询指定状态的最近日志
func (r *GormVerificationLogRepository) ListRecentByStates(states []string, limit int) ([]models.VerificationLog, error) {
	return r.ListRecentByStatesSince(states, time.Time{}, limit)
}

// ListRecentByStatesSince 查询指定状态且不早于 since 的最近日志
func (r *GormVerificationLogRepository) ListRecentByStatesSince(states []string, since time.Time, limit int) ([]models.VerificationLog, error) {
	if len(states) == 0 {
		return []models.VerificationLog{}, nil
	}
	query := r.db.Model(&models.VerificationLog{}).
		Where("verification_state IN ?", states)
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	logs := make([]models.VerificationLog, 0)
	if err := query.Order("id DESC").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
