package admin

import (
	"strconv"

	handlershared "github.com/lumina-verify/internal/http/handlers/shared"
	"github.com/lumina-verify/internal/http/response"
	"github.com/lumina-verify/internal/service"

	"github.com/gin-gonic/gin"
)

// ListAudits 查询鉴伪与监管审计记录
func (h *Handler) ListAudits(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)
	manufacturerID, _ := strconv.ParseUint(c.Query("manufacturer_id"), 10, 64)

	logs, total, err := h.AuditService.ListAudits(service.AuditListInput{
		Page:           page,
		PageSize:       pageSize,
		ManufacturerID: uint(manufacturerID),
		Action:         c.Query("action"),
		ActorRole:      c.Query("actor_role"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "list audits failed", err)
		return
	}

	response.SuccessWithPage(c, logs, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: handlershared.BuildTotalPage(total, pageSize),
	})
}
