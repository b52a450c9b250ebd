package models

import "time"

// Code 验真码表
// code_value 全局唯一；is_used 一旦置 true 不再回退。
// manufacturer_id 冗余存储，用于按自然日统计发码配额。
type Code struct {
	ID             uint       `gorm:"primarykey" json:"id"`
	CodeValue      string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"code_value"`
	BatchID        uint       `gorm:"index;not null" json:"batch_id"`
	ManufacturerID uint       `gorm:"index;not null" json:"manufacturer_id"`
	IsUsed         bool       `gorm:"index;not null;default:false" json:"is_used"`
	FirstUsedAt    *time.Time `json:"first_used_at,omitempty"` // 首次验真时间
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`

	Batch *Batch `gorm:"foreignKey:BatchID" json:"batch,omitempty"`
}

// TableName 指定表名
func (Code) TableName() string {
	return "codes"
}
