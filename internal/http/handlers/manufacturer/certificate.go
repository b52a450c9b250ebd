package manufacturer

import (
	"errors"

	"github.com/lumina-verify/internal/http/response"
	"github.com/lumina-verify/internal/service"

	"github.com/gin-gonic/gin"
)

// SubmitCertificateRequest 证书提交请求
type SubmitCertificateRequest struct {
	CertificatePath        string `json:"certificate_path" binding:"required"`
	ExpectedRegistryNumber string `json:"expected_registry_number"`
}

// SubmitCertificate 提交资质证书送鉴伪
// 接口立即返回任务句柄，评分结果异步写入厂商档案。
func (h *Handler) SubmitCertificate(c *gin.Context) {
	mfrID, ok := getManufacturerID(c)
	if !ok {
		return
	}
	var req SubmitCertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	jobID, err := h.ForensicsService.Submit(c.Request.Context(), mfrID, req.CertificatePath, req.ExpectedRegistryNumber)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			respondError(c, response.CodeBadRequest, "certificate path is required", nil)
		case errors.Is(err, service.ErrManufacturerNotFound):
			respondError(c, response.CodeNotFound, "manufacturer not found", nil)
		case errors.Is(err, service.ErrQueueUnavailable):
			respondError(c, response.CodeInternal, "forensics queue unavailable", err)
		default:
			respondError(c, response.CodeInternal, "certificate submission failed", err)
		}
		return
	}

	response.Success(c, gin.H{
		"job_id": jobID,
	})
}

// GetProfile 查询本厂商档案（含最新鉴伪结果）
func (h *Handler) GetProfile(c *gin.Context) {
	mfrID, ok := getManufacturerID(c)
	if !ok {
		return
	}

	mfr, err := h.ManufacturerService.GetManufacturer(mfrID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrManufacturerNotFound):
			respondError(c, response.CodeNotFound, "manufacturer not found", nil)
		default:
			respondError(c, response.CodeInternal, "profile lookup failed", err)
		}
		return
	}

	response.Success(c, mfr)
}
