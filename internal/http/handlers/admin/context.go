package admin

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

func parseTimeNullable(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// adminSubject 令牌中的操作人，仅用于审计日志
func adminSubject(c *gin.Context) string {
	value, ok := c.Get("admin_subject")
	if !ok {
		return ""
	}
	subject, _ := value.(string)
	return strings.TrimSpace(subject)
}
