package service

import (
	"errors"
	"fmt"
)

// 服务层哨兵错误，handler 用 errors.Is 分派到响应码。
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrManufacturerNotFound  = errors.New("manufacturer not found")
	ErrManufacturerSuspended = errors.New("manufacturer suspended")
	ErrBatchNotFound         = errors.New("batch not found")
	ErrProductNotFound       = errors.New("product not found")
	ErrCodeNotFound          = errors.New("code not found")
	ErrQuotaExceeded         = errors.New("daily issuance quota exceeded")
	ErrStorage               = errors.New("storage failure")
	ErrQueueUnavailable      = errors.New("queue unavailable")
	ErrEmailTaken            = errors.New("email already registered")
)

// GenerationExhaustedError 发码尝试上限已用尽
// 携带已成功落库的部分结果，调用方可据此返回部分发码。
type GenerationExhaustedError struct {
	Requested int
	Issued    []string
}

// Error 实现 error 接口
func (e *GenerationExhaustedError) Error() string {
	return fmt.Sprintf("code generation exhausted: requested %d, issued %d", e.Requested, len(e.Issued))
}
