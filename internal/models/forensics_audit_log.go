package models

import "time"

// ForensicsAuditLog 鉴伪与监管操作审计表
// 说明：每个鉴伪任务恰好落一条终态记录（成功或失败），供人工复核。
type ForensicsAuditLog struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	ActorID        string    `gorm:"type:varchar(64);index;not null" json:"actor_id"`   // system 或管理员 ID
	ActorRole      string    `gorm:"type:varchar(20);index;not null" json:"actor_role"` // system/admin
	Action         string    `gorm:"type:varchar(100);index;not null" json:"action"`
	ManufacturerID uint      `gorm:"index;not null" json:"manufacturer_id"`
	JobID          string    `gorm:"type:varchar(64);index" json:"job_id"`
	Score          float64   `gorm:"not null;default:0" json:"score"`
	Status         string    `gorm:"type:varchar(20);index" json:"status"`
	DetailJSON     JSON      `gorm:"type:json" json:"detail"` // 评分分解、reasons 列表
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (ForensicsAuditLog) TableName() string {
	return "forensics_audit_logs"
}
