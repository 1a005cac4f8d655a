package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// requestIDKey 与 router.RequestIDMiddleware 写入的上下文键一致
const requestIDKey = "request_id"

// Response 统一响应结构
type Response struct {
	StatusCode int         `json:"status_code"` // 业务状态码，错误时与 HTTP 状态码一致
	Msg        string      `json:"msg"`
	Data       interface{} `json:"data"`
	RequestID  string      `json:"request_id,omitempty"`
}

// PageResponse 分页响应结构
type PageResponse struct {
	Response
	Pagination Pagination `json:"pagination"`
}

// Pagination 分页信息
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"page_size"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"total_page"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope(c, CodeOK, "success", data))
}

// Created 资源创建成功（201）
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, envelope(c, CodeOK, "success", data))
}

// SuccessWithPage 分页成功响应
func SuccessWithPage(c *gin.Context, data interface{}, pagination Pagination) {
	c.JSON(http.StatusOK, PageResponse{
		Response:   envelope(c, CodeOK, "success", data),
		Pagination: pagination,
	})
}

// Error 错误响应，业务码同时作为 HTTP 状态码
func Error(c *gin.Context, code int, msg string) {
	c.JSON(httpStatus(code), envelope(c, code, msg, nil))
}

// Unauthorized 401 响应
func Unauthorized(c *gin.Context, msg string) {
	Error(c, CodeUnauthorized, msg)
}

func envelope(c *gin.Context, code int, msg string, data interface{}) Response {
	resp := Response{StatusCode: code, Msg: msg, Data: data}
	if c != nil {
		resp.RequestID = c.GetString(requestIDKey)
	}
	return resp
}

// 非 4xx/5xx 的错误码一律按 500 返回
func httpStatus(code int) int {
	if code >= 400 && code < 600 {
		return code
	}
	return http.StatusInternalServerError
}
