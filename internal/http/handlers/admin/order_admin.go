package admin

import (
	"strings"

	handlershared "github.com/vitrina-shop/internal/http/handlers/shared"
	"github.com/vitrina-shop/internal/http/response"
	"github.com/vitrina-shop/internal/repository"

	"github.com/gin-gonic/gin"
)

// UpdateOrderStatusRequest 更新订单状态请求
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// AddOrderItemRequest 追加订单商品请求
type AddOrderItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  *int `json:"quantity"`
}

// UpdateOrderItemRequest 修改商品数量请求
type UpdateOrderItemRequest struct {
	Quantity *int `json:"quantity"`
}

// ListOrders 管理端订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	page, pageSize := handlershared.PageParams(c)

	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "created_from is invalid", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "created_to is invalid", err)
		return
	}

	orders, total, err := h.OrderService.ListOrders(repository.OrderListFilter{
		Page:          page,
		PageSize:      pageSize,
		Status:        strings.TrimSpace(c.Query("status")),
		PaymentStatus: strings.TrimSpace(c.Query("payment_status")),
		OrderNo:       strings.TrimSpace(c.Query("order_no")),
		CustomerEmail: strings.TrimSpace(c.Query("customer_email")),
		Search:        strings.TrimSpace(c.Query("search")),
		CreatedFrom:   createdFrom,
		CreatedTo:     createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "order fetch failed", err)
		return
	}
	response.SuccessWithPage(c, orders, handlershared.BuildPagination(page, pageSize, total))
}

// GetOrder 管理端订单详情（含商品与运单）
func (h *Handler) GetOrder(c *gin.Context) {
	orderID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.GetOrder(orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// UpdateOrderStatus 更新订单状态，进入待发货时触发运单创建
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "status is required", err)
		return
	}
	order, err := h.OrderService.UpdateStatus(c.Request.Context(), orderID, strings.TrimSpace(req.Status))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("admin_order_status_updated", "order_id", orderID, "status", order.Status)
	response.Success(c, order)
}

// AddOrderItem 追加订单商品
func (h *Handler) AddOrderItem(c *gin.Context) {
	orderID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req AddOrderItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "product_id is required", err)
		return
	}
	order, err := h.OrderService.AddItem(c.Request.Context(), orderID, req.ProductID, req.Quantity)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("admin_order_item_added", "order_id", orderID, "product_id", req.ProductID)
	response.Success(c, order)
}

// UpdateOrderItem 修改订单商品数量
func (h *Handler) UpdateOrderItem(c *gin.Context) {
	orderID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := handlershared.ParseUintParam(c, "item_id")
	if !ok {
		return
	}
	var req UpdateOrderItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "request body is invalid", err)
		return
	}
	order, err := h.OrderService.UpdateItemQuantity(c.Request.Context(), orderID, itemID, req.Quantity)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("admin_order_item_updated", "order_id", orderID, "item_id", itemID)
	response.Success(c, order)
}

// RemoveOrderItem 删除订单商品
func (h *Handler) RemoveOrderItem(c *gin.Context) {
	orderID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := handlershared.ParseUintParam(c, "item_id")
	if !ok {
		return
	}
	order, err := h.OrderService.RemoveItem(c.Request.Context(), orderID, itemID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("admin_order_item_removed", "order_id", orderID, "item_id", itemID)
	response.Success(c, order)
}

// RecalculateOrder 重新计算订单金额
func (h *Handler) RecalculateOrder(c *gin.Context) {
	orderID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.RecalculateTotals(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// CancelOrder 取消订单并释放库存
func (h *Handler) CancelOrder(c *gin.Context) {
	orderID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.Cancel(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("admin_order_cancelled", "order_id", orderID)
	response.Success(c, order)
}
