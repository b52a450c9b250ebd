package admin

import (
	"strconv"

	handlershared "github.com/lumina-verify/internal/http/handlers/shared"
	"github.com/lumina-verify/internal/http/response"
	"github.com/lumina-verify/internal/service"

	"github.com/gin-gonic/gin"
)

// ListVerifications 查询验真日志
func (h *Handler) ListVerifications(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	logs, total, err := h.VerifyService.ListVerifications(service.VerificationListInput{
		Page:      page,
		PageSize:  pageSize,
		CodeValue: c.Query("code"),
		State:     c.Query("state"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "list verifications failed", err)
		return
	}

	response.SuccessWithPage(c, logs, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: handlershared.BuildTotalPage(total, pageSize),
	})
}
