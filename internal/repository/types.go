package repository

import "time"

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page          int
	PageSize      int
	Status        string
	PaymentStatus string
	OrderNo       string
	CustomerEmail string
	Search        string // 订单号/姓名/电话/邮箱模糊匹配
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
}

// ShipmentListFilter 查询运单列表的过滤条件
type ShipmentListFilter struct {
	Page     int
	PageSize int
	Status   string
	OrderID  uint
	Search   string // 追踪号模糊匹配
}
