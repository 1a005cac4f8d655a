package public

import (
	handlershared "github.com/vitrina-shop/internal/http/handlers/shared"
	"github.com/vitrina-shop/internal/provider"

	"github.com/gin-gonic/gin"
)

// Handler 前台/公开接口处理器入口
// 说明：该处理器仅用于店铺前台与游客下单 API。
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

func respondServiceError(c *gin.Context, err error) {
	handlershared.RespondServiceError(c, err)
}
