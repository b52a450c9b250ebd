package queue

import (
	"encoding/json"

	"github.com/lumina-verify/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskForensicsScan 证书鉴伪扫描任务
	TaskForensicsScan = constants.TaskForensicsScan
)

// ForensicsScanPayload 证书鉴伪任务载荷
type ForensicsScanPayload struct {
	JobID                  string `json:"job_id"`
	ManufacturerID         uint   `json:"manufacturer_id"`
	CertificatePath        string `json:"certificate_path"`
	ExpectedRegistryNumber string `json:"expected_registry_number,omitempty"`
}

// NewForensicsScanTask 创建证书鉴伪任务
func NewForensicsScanTask(payload ForensicsScanPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskForensicsScan, body), nil
}
