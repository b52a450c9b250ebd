package constants

// 验真结果状态常量
const (
	VerificationStateGenuine      = "genuine"
	VerificationStateAlreadyUsed  = "code_already_used"
	VerificationStateUnregistered = "unregistered_product"
	VerificationStateSuspicious   = "suspicious_pattern"
	VerificationStateInvalid      = "invalid"
)

// 厂商套餐常量
const (
	ManufacturerPlanBasic   = "basic"
	ManufacturerPlanPremium = "premium"
)

// 厂商状态常量
const (
	ManufacturerStatusActive    = "active"
	ManufacturerStatusSuspended = "suspended"
)

// 证书鉴伪状态常量
const (
	AIStatusClean      = "clean"
	AIStatusSuspicious = "suspicious"
	AIStatusFake       = "fake"
)

// 审计角色常量
const (
	AuditActorSystem = "system"
	AuditActorAdmin  = "admin"
)

// 审计动作常量
const (
	AuditActionForensicsScored = "forensics_scored"
	AuditActionForensicsFailed = "forensics_failed"
	AuditActionBatchRecalled   = "batch_recalled"
)

// 队列名称常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型常量
const (
	TaskForensicsScan = "forensics:scan"
)

// 验真码前缀
const CodeValuePrefix = "LUM-"
