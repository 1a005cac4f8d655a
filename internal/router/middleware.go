package router

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vitrina-shop/internal/config"
	"github.com/vitrina-shop/internal/http/response"
	"github.com/vitrina-shop/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = "request_id"
const requestIDHeader = "X-Request-ID"
const adminSubjectKey = "admin_subject"

// corsPolicy 预先计算好的跨域策略
type corsPolicy struct {
	origins     []string
	wildcard    bool
	credentials bool
	methods     string
	headers     string
	maxAge      string
}

func newCORSPolicy(cfg config.CORSConfig) corsPolicy {
	policy := corsPolicy{credentials: cfg.AllowCredentials}
	for _, origin := range cfg.AllowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			policy.wildcard = true
		} else if origin != "" {
			policy.origins = append(policy.origins, origin)
		}
	}
	if len(cfg.AllowedOrigins) == 0 {
		policy.wildcard = true
	}
	methods := cfg.AllowedMethods
	if len(methods) == 0 {
		methods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	headers := cfg.AllowedHeaders
	if len(headers) == 0 {
		headers = []string{"Content-Type", "Authorization", requestIDHeader}
	}
	policy.methods = strings.Join(methods, ", ")
	policy.headers = strings.Join(headers, ", ")
	if cfg.MaxAge > 0 {
		policy.maxAge = strconv.Itoa(cfg.MaxAge)
	}
	return policy
}

// allowOrigin 返回应写入 Access-Control-Allow-Origin 的值，空串表示不放行
func (p corsPolicy) allowOrigin(origin string) string {
	if p.wildcard {
		// 携带凭证时浏览器不接受 *，回显来源
		if p.credentials && origin != "" {
			return origin
		}
		return "*"
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range p.origins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// CORSMiddleware 跨域中间件；店面需要读取 X-Request-ID 与 Retry-After
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	policy := newCORSPolicy(cfg)
	return func(c *gin.Context) {
		header := c.Writer.Header()
		if allowed := policy.allowOrigin(c.GetHeader("Origin")); allowed != "" {
			header.Set("Access-Control-Allow-Origin", allowed)
			if allowed != "*" {
				header.Add("Vary", "Origin")
			}
			if policy.credentials {
				header.Set("Access-Control-Allow-Credentials", "true")
			}
			header.Set("Access-Control-Expose-Headers", requestIDHeader+", Retry-After")
		}
		if c.Request.Method == http.MethodOptions {
			header.Set("Access-Control-Allow-Methods", policy.methods)
			header.Set("Access-Control-Allow-Headers", policy.headers)
			if policy.maxAge != "" {
				header.Set("Access-Control-Max-Age", policy.maxAge)
			}
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestIDMiddleware 请求 ID 中间件，沿用上游传入的合法 ID
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if !validRequestID(requestID) {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, r := range id {
		if r < 0x21 || r > 0x7e {
			return false
		}
	}
	return true
}

// LoggerMiddleware 结构化请求日志中间件，探活与指标路径不记录
func LoggerMiddleware(base *zap.Logger, skipPaths ...string) gin.HandlerFunc {
	if base == nil {
		base = zap.L()
	}
	sugar := base.Sugar()
	skip := make(map[string]struct{}, len(skipPaths))
	for _, path := range skipPaths {
		skip[path] = struct{}{}
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if _, ok := skip[c.Request.URL.Path]; ok {
			return
		}

		status := c.Writer.Status()
		kv := []interface{}{
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"route", c.FullPath(),
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if subject := c.GetString(adminSubjectKey); subject != "" {
			kv = append(kv, "admin", subject)
		}
		switch {
		case len(c.Errors) > 0:
			sugar.Errorw("http_request", append(kv, "errors", c.Errors.String())...)
		case status >= http.StatusInternalServerError:
			sugar.Errorw("http_request", kv...)
		case status >= http.StatusBadRequest:
			sugar.Warnw("http_request", kv...)
		default:
			sugar.Infow("http_request", kv...)
		}
	}
}

func getRequestID(c *gin.Context) string {
	value, ok := c.Get(requestIDKey)
	if !ok {
		return ""
	}
	if requestID, ok := value.(string); ok {
		return requestID
	}
	return ""
}

// AdminClaims 后台令牌声明（由外部认证系统签发，这里只做校验）
type AdminClaims struct {
	jwt.RegisteredClaims
}

// JWTAuthMiddleware 后台 JWT 鉴权中间件（HS256）
func JWTAuthMiddleware(secretKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secretKey == "" {
			response.Unauthorized(c, "jwt secret is not configured")
			c.Abort()
			return
		}
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "authorization header is missing")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			response.Unauthorized(c, "authorization header is invalid")
			c.Abort()
			return
		}

		tokenString := parts[1]
		parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
		claims := &AdminClaims{}
		token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(secretKey), nil
		})
		if err != nil || !token.Valid || strings.TrimSpace(claims.Subject) == "" {
			logger.Debugw("admin_token_rejected", "error", err, "client_ip", c.ClientIP())
			response.Unauthorized(c, "token is invalid")
			c.Abort()
			return
		}

		c.Set(adminSubjectKey, claims.Subject)
		c.Next()
	}
}
