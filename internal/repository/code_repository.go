package repository

import (
	"errors"
	"time"

	"github.com/lumina-verify/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CodeRepository 验真码数据访问接口
type CodeRepository interface {
	// CreateSkipConflicts 批量写入候选码，code_value 冲突的行静默跳过
	CreateSkipConflicts(items []models.Code) error
	// ListPersistedValues 返回候选值中实际已属于该批次的 code_value 集合
	ListPersistedValues(batchID uint, values []string) ([]string, error)
	GetByValue(value string) (*models.Code, error)
	GetByValueWithBatch(value string) (*models.Code, error)
	// ClaimFirstUse 条件更新 is_used false→true；返回是否由本次调用完成翻转
	ClaimFirstUse(codeValue string, usedAt time.Time) (bool, error)
	CountByManufacturerBetween(manufacturerID uint, from, to time.Time) (int64, error)
	CountByBatch(batchID uint) (int64, error)
	WithTx(tx *gorm.DB) *GormCodeRepository
}

// GormCodeRepository GORM 实现
type GormCodeRepository struct {
	db *gorm.DB
}

// NewCodeRepository 创建验真码仓库
func NewCodeRepository(db *gorm.DB) *GormCodeRepository {
	return &GormCodeRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCodeRepository) WithTx(tx *gorm.DB) *GormCodeRepository {
	if tx == nil {
		return r
	}
	return &GormCodeRepository{db: tx}
}

// CreateSkipConflicts 批量写入候选码，唯一键冲突的行静默跳过
func (r *GormCodeRepository) CreateSkipConflicts(items []models.Code) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code_value"}},
		DoNothing: true,
	}).Create(&items).Error
}

// ListPersistedValues 查询候选值中实际落库到该批次的 code_value
func (r *GormCodeRepository) ListPersistedValues(batchID uint, values []string) ([]string, error) {
	if batchID == 0 || len(values) == 0 {
		return []string{}, nil
	}
	var persisted []string
	if err := r.db.Model(&models.Code{}).
		Where("batch_id = ? AND code_value IN ?", batchID, values).
		Pluck("code_value", &persisted).Error; err != nil {
		return nil, err
	}
	return persisted, nil
}

// GetByValue 按码值查询
func (r *GormCodeRepository) GetByValue(value string) (*models.Code, error) {
	var code models.Code
	if err := r.db.Where("code_value = ?", value).First(&code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &code, nil
}

// GetByValueWithBatch 按码值查询并预载批次与产品
func (r *GormCodeRepository) GetByValueWithBatch(value string) (*models.Code, error) {
	var code models.Code
	if err := r.db.Preload("Batch").Preload("Batch.Product").
		Where("code_value = ?", value).First(&code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &code, nil
}

// ClaimFirstUse 条件更新 is_used false→true
// 并发扫描同一枚码时只有一方 RowsAffected=1，其余走已使用分支。
func (r *GormCodeRepository) ClaimFirstUse(codeValue string, usedAt time.Time) (bool, error) {
	if usedAt.IsZero() {
		usedAt = time.Now()
	}
	result := r.db.Model(&models.Code{}).
		Where("code_value = ? AND is_used = ?", codeValue, false).
		Updates(map[string]interface{}{
			"is_used":       true,
			"first_used_at": usedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CountByManufacturerBetween 统计厂商在时间窗内创建的码数（配额窗口）
func (r *GormCodeRepository) CountByManufacturerBetween(manufacturerID uint, from, to time.Time) (int64, error) {
	if manufacturerID == 0 {
		return 0, errors.New("invalid manufacturer id")
	}
	var count int64
	if err := r.db.Model(&models.Code{}).
		Where("manufacturer_id = ? AND created_at >= ? AND created_at < ?", manufacturerID, from, to).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByBatch 统计批次已发码数量
func (r *GormCodeRepository) CountByBatch(batchID uint) (int64, error) {
	if batchID == 0 {
		return 0, errors.New("invalid batch id")
	}
	var count int64
	if err := r.db.Model(&models.Code{}).
		Where("batch_id = ?", batchID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
