package admin

import (
	"errors"
	"strconv"

	"github.com/lumina-verify/internal/http/response"
	"github.com/lumina-verify/internal/service"

	"github.com/gin-gonic/gin"
)

// RecallBatch 召回批次
// 重复召回是幂等操作，返回当前批次状态。
func (h *Handler) RecallBatch(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	batchID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || batchID == 0 {
		respondError(c, response.CodeBadRequest, "invalid batch id", err)
		return
	}

	batch, err := h.BatchService.RecallBatch(adminID, uint(batchID))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBatchNotFound):
			respondError(c, response.CodeNotFound, "batch not found", nil)
		default:
			respondError(c, response.CodeInternal, "recall batch failed", err)
		}
		return
	}

	response.Success(c, batch)
}
