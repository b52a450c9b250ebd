package manufacturer

import (
	handlershared "github.com/lumina-verify/internal/http/handlers/shared"
	"github.com/lumina-verify/internal/provider"

	"github.com/gin-gonic/gin"
)

// Handler 厂商端接口处理器入口
// 所有接口都要求厂商 JWT，鉴权中间件负责注入 manufacturer_id。
type Handler struct {
	*provider.Container
}

// New 创建厂商端处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

func getManufacturerID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, "manufacturer_id")
}
