package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 产品表
type Product struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	ManufacturerID uint           `gorm:"index;not null" json:"manufacturer_id"`
	Name           string         `gorm:"type:varchar(255);not null" json:"name"`
	Dosage         string         `gorm:"type:varchar(100)" json:"dosage"` // 规格/剂量
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
