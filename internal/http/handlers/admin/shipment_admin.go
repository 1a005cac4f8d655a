package admin

import (
	"strings"

	handlershared "github.com/vitrina-shop/internal/http/handlers/shared"
	"github.com/vitrina-shop/internal/http/response"
	"github.com/vitrina-shop/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListShipments 运单列表
func (h *Handler) ListShipments(c *gin.Context) {
	page, pageSize := handlershared.PageParams(c)
	orderID := handlershared.QueryInt(c, "order_id", 0)
	if orderID < 0 {
		orderID = 0
	}
	shipments, total, err := h.ShipmentService.ListShipments(repository.ShipmentListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
		OrderID:  uint(orderID),
		Search:   strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "shipment fetch failed", err)
		return
	}
	response.SuccessWithPage(c, shipments, handlershared.BuildPagination(page, pageSize, total))
}

// GetShipment 运单详情
func (h *Handler) GetShipment(c *gin.Context) {
	shipmentID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	shipment, err := h.ShipmentService.GetShipment(shipmentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, shipment)
}

// RetryShipment 失败运单重新提交
func (h *Handler) RetryShipment(c *gin.Context) {
	shipmentID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	shipment, err := h.ShipmentService.Retry(c.Request.Context(), shipmentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("admin_shipment_retry_requested", "shipment_id", shipmentID, "order_id", shipment.OrderID)
	response.Success(c, shipment)
}

// SyncShipmentTracking 手动同步物流状态
func (h *Handler) SyncShipmentTracking(c *gin.Context) {
	shipmentID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	shipment, err := h.ShipmentService.GetShipment(shipmentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	changed := h.TrackingService.SyncShipmentTracking(c.Request.Context(), shipment.OrderID)
	reloaded, err := h.ShipmentService.GetShipment(shipmentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"changed":  changed,
		"shipment": reloaded,
	})
}
