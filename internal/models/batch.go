package models

import (
	"time"

	"gorm.io/gorm"
)

// Batch 生产批次表
// 召回后批次下的码仍可验真，但结果会携带召回警示。
type Batch struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	BatchNumber    string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"batch_number"`
	ManufacturerID uint           `gorm:"index;not null" json:"manufacturer_id"`
	ProductID      uint           `gorm:"index;not null" json:"product_id"`
	Quantity       int            `gorm:"not null" json:"quantity"`           // 计划发码数量
	ExpirationDate *time.Time     `json:"expiration_date"`                    // 有效期
	IsRecalled     bool           `gorm:"index;not null;default:false" json:"is_recalled"`
	RecalledAt     *time.Time     `json:"recalled_at,omitempty"`
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// TableName 指定表名
func (Batch) TableName() string {
	return "batches"
}
