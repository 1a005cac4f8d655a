package repository

import "gorm.io/gorm"

// maxListPageSize 后台列表单页上限
const maxListPageSize = 200

// applyPagination 应用分页参数；pageSize 非正时不分页，超过上限时截断。
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if pageSize > maxListPageSize {
		pageSize = maxListPageSize
	}
	if page < 1 {
		page = 1
	}
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}
