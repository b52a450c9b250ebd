package models

import "time"

// VerificationLog 验真日志表（只追加，作为审计事实源，不允许更新或删除）
// manufacturer_id 为空表示扫描的码不在注册表内。
type VerificationLog struct {
	ID                uint      `gorm:"primarykey" json:"id"`
	CodeValue         string    `gorm:"type:varchar(64);index;not null" json:"code_value"`
	VerificationState string    `gorm:"type:varchar(32);index;not null" json:"verification_state"`
	ManufacturerID    *uint     `gorm:"index" json:"manufacturer_id,omitempty"`
	BatchID           *uint     `gorm:"index" json:"batch_id,omitempty"`
	Latitude          *float64  `json:"latitude,omitempty"`
	Longitude         *float64  `json:"longitude,omitempty"`
	GeoConsent        bool      `gorm:"not null;default:false" json:"geo_consent"` // 坐标是否经用户同意采集
	CreatedAt         time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (VerificationLog) TableName() string {
	return "verification_logs"
}
