package shared

import (
	"github.com/vitrina-shop/internal/http/response"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// NormalizePagination 归一化分页参数。
func NormalizePagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// PageParams 读取 page / page_size 查询参数
func PageParams(c *gin.Context) (int, int) {
	return NormalizePagination(QueryInt(c, "page", 1), QueryInt(c, "page_size", defaultPageSize))
}

// BuildPagination 构建分页响应
func BuildPagination(page, pageSize int, total int64) response.Pagination {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
}
