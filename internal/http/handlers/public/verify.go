package public

import (
	"errors"

	"github.com/lumina-verify/internal/http/response"
	"github.com/lumina-verify/internal/service"

	"github.com/gin-gonic/gin"
)

// VerifyRequest 验真请求
type VerifyRequest struct {
	Code       string   `json:"code" binding:"required"`
	GeoConsent bool     `json:"geo_consent"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
}

// VerifyCode 公开验真接口
// 分类结果（包括无效码）都是 200 成功响应，业务错误仅来自存储故障。
func (h *Handler) VerifyCode(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	result, err := h.VerifyService.Verify(c.Request.Context(), service.VerifyInput{
		CodeValue:  req.Code,
		GeoConsent: req.GeoConsent,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			respondError(c, response.CodeBadRequest, "code is required", nil)
		default:
			respondError(c, response.CodeInternal, "verification failed", err)
		}
		return
	}

	response.Success(c, gin.H{
		"state":            result.State,
		"recall_flag":      result.RecallFlag,
		"prior_scan_count": result.PriorScanCount,
		"batch":            result.Batch,
		"logged_at":        result.LoggedAt,
	})
}

// AnalyzeExternalRequest 注册表外产品分析请求
type AnalyzeExternalRequest struct {
	Code        string   `json:"code" binding:"required"`
	ProductName string   `json:"product_name"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// AnalyzeExternal 分析一次注册表外产品扫描
// 无预测时 prediction 为 null，调用方据此展示“暂无风险提示”。
func (h *Handler) AnalyzeExternal(c *gin.Context) {
	var req AnalyzeExternalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	prediction, err := h.HotspotService.AnalyzeExternalProduct(c.Request.Context(), service.AnalyzeExternalInput{
		CodeValue:   req.Code,
		ProductName: req.ProductName,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			respondError(c, response.CodeBadRequest, "code is required", nil)
		default:
			respondError(c, response.CodeInternal, "analysis failed", err)
		}
		return
	}

	response.Success(c, gin.H{
		"prediction": prediction,
	})
}
