package manufacturer

import (
	"errors"

	"github.com/lumina-verify/internal/http/response"
	"github.com/lumina-verify/internal/service"

	"github.com/gin-gonic/gin"
)

// IssueCodesRequest 发码请求
type IssueCodesRequest struct {
	BatchID  uint `json:"batch_id" binding:"required"`
	Quantity int  `json:"quantity" binding:"required"`
}

// IssueCodes 为批次发码
// 生成尝试耗尽时返回已落库的部分结果与缺口数量，不算失败。
func (h *Handler) IssueCodes(c *gin.Context) {
	mfrID, ok := getManufacturerID(c)
	if !ok {
		return
	}
	var req IssueCodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	result, err := h.CodeIssueService.IssueCodes(c.Request.Context(), mfrID, req.BatchID, req.Quantity)
	if err != nil {
		var exhausted *service.GenerationExhaustedError
		switch {
		case errors.As(err, &exhausted):
			response.Success(c, gin.H{
				"issued":    len(exhausted.Issued),
				"requested": exhausted.Requested,
				"shortfall": exhausted.Requested - len(exhausted.Issued),
				"codes":     exhausted.Issued,
			})
		case errors.Is(err, service.ErrInvalidInput):
			respondError(c, response.CodeBadRequest, "invalid issuance parameters", nil)
		case errors.Is(err, service.ErrBatchNotFound):
			respondError(c, response.CodeNotFound, "batch not found", nil)
		case errors.Is(err, service.ErrQuotaExceeded):
			respondError(c, response.CodeForbidden, "daily issuance quota exceeded", nil)
		default:
			respondError(c, response.CodeInternal, "issue codes failed", err)
		}
		return
	}

	response.Success(c, gin.H{
		"issued":    len(result.Issued),
		"requested": result.Requested,
		"shortfall": 0,
		"codes":     result.Issued,
	})
}

// GetQuota 查询当日发码配额
func (h *Handler) GetQuota(c *gin.Context) {
	mfrID, ok := getManufacturerID(c)
	if !ok {
		return
	}

	status, err := h.QuotaService.Status(mfrID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrManufacturerNotFound):
			respondError(c, response.CodeNotFound, "manufacturer not found", nil)
		default:
			respondError(c, response.CodeInternal, "quota lookup failed", err)
		}
		return
	}

	response.Success(c, status)
}
