package worker

import (
	"context"
	"encoding/json"

	"github.com/lumina-verify/internal/logger"
	"github.com/lumina-verify/internal/provider"
	"github.com/lumina-verify/internal/queue"
	"github.com/lumina-verify/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskForensicsScan, c.handleForensicsScan)
}

// handleForensicsScan 消费证书鉴伪任务
// 返回非 nil 错误会触发 asynq 重试；最后一次重试仍失败时先写入
// 失败审计，保证每个任务恰好留下一条终态记录。
func (c *Consumer) handleForensicsScan(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_forensics_scan_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ForensicsScanPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_forensics_scan_unmarshal_failed", "error", err)
		// 载荷损坏无法通过重试恢复
		return nil
	}
	if payload.ManufacturerID == 0 {
		logger.Debugw("worker_forensics_scan_skip_invalid_payload", "job_id", payload.JobID)
		return nil
	}
	if c.ForensicsService == nil {
		logger.Warnw("worker_forensics_scan_skip_service_nil", "job_id", payload.JobID)
		return nil
	}

	job := service.ForensicsJob{
		JobID:                  payload.JobID,
		ManufacturerID:         payload.ManufacturerID,
		CertificatePath:        payload.CertificatePath,
		ExpectedRegistryNumber: payload.ExpectedRegistryNumber,
	}

	if _, err := c.ForensicsService.ProcessJob(ctx, job); err != nil {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)
		logger.Warnw("worker_forensics_scan_failed",
			"job_id", payload.JobID,
			"manufacturer_id", payload.ManufacturerID,
			"retried", retried,
			"max_retry", maxRetry,
			"error", err,
		)
		if retried >= maxRetry {
			c.ForensicsService.RecordFailure(job, err)
		}
		return err
	}
	return nil
}
