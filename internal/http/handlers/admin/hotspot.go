package admin

import (
	"strconv"

	"github.com/lumina-verify/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetHotspots 查询假药流通热点
// 默认窗口走缓存，自定义窗口实时计算。
func (h *Handler) GetHotspots(c *gin.Context) {
	windowDays, _ := strconv.Atoi(c.DefaultQuery("window_days", "0"))
	if windowDays < 0 {
		respondError(c, response.CodeBadRequest, "window_days must be positive", nil)
		return
	}

	hotspots, err := h.HotspotService.CachedHotspots(c.Request.Context(), windowDays)
	if err != nil {
		respondError(c, response.CodeInternal, "hotspot aggregation failed", err)
		return
	}

	response.Success(c, gin.H{
		"hotspots": hotspots,
	})
}
