package models

import (
	"time"

	"gorm.io/gorm"
)

// Manufacturer 厂商表
// ai_score / ai_status 由证书鉴伪流水线异步写入。
type Manufacturer struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	Name            string         `gorm:"type:varchar(255);not null" json:"name"`
	Email           string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash    string         `gorm:"type:varchar(255);not null" json:"-"`
	Plan            string         `gorm:"type:varchar(20);index;not null" json:"plan"`      // 套餐（basic/premium）
	Status          string         `gorm:"type:varchar(20);index;not null" json:"status"`    // 状态（active/suspended）
	RegistryNumber  string         `gorm:"type:varchar(100)" json:"registry_number"`         // 监管注册号
	CertificatePath string         `gorm:"type:text" json:"certificate_path"`                // 最近提交的资质证书
	AIScore         float64        `gorm:"not null;default:0" json:"ai_score"`               // 伪造可能性评分 [0,1]
	AIStatus        string         `gorm:"type:varchar(20);index;not null" json:"ai_status"` // clean/suspicious/fake
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName 指定表名
func (Manufacturer) TableName() string {
	return "manufacturers"
}
