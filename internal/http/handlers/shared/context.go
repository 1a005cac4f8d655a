package shared

import (
	"strconv"
	"strings"

	"github.com/vitrina-shop/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ParseUintParam 读取路径中的正整数 ID，非法时直接返回 400。
func ParseUintParam(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(name))
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		RespondError(c, response.CodeBadRequest, name+" is invalid", nil)
		return 0, false
	}
	return uint(value), true
}

// QueryInt 读取整数查询参数，缺失或非法时返回默认值。
func QueryInt(c *gin.Context, name string, fallback int) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
