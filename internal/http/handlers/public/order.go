package public

import (
	"strings"
	"time"

	handlershared "github.com/vitrina-shop/internal/http/handlers/shared"
	"github.com/vitrina-shop/internal/http/response"
	"github.com/vitrina-shop/internal/models"
	"github.com/vitrina-shop/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderView 买家可见的订单信息
type OrderView struct {
	OrderNo        string             `json:"order_no"`
	Status         string             `json:"status"`
	PaymentMethod  string             `json:"payment_method"`
	PaymentStatus  string             `json:"payment_status"`
	Items          []models.OrderItem `json:"items"`
	Subtotal       models.Money       `json:"subtotal"`
	ShippingPrice  models.Money       `json:"shipping_price"`
	Total          models.Money       `json:"total"`
	TrackingNumber string             `json:"tracking_number,omitempty"`
	ShipmentStatus string             `json:"shipment_status,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

func toOrderView(order *models.Order) OrderView {
	view := OrderView{
		OrderNo:       order.OrderNo,
		Status:        order.Status,
		PaymentMethod: order.PaymentMethod,
		PaymentStatus: order.PaymentStatus,
		Items:         order.Items,
		Subtotal:      order.Subtotal,
		ShippingPrice: order.ShippingPrice,
		Total:         order.Total,
		CreatedAt:     order.CreatedAt,
	}
	if order.Shipment != nil {
		view.TrackingNumber = order.Shipment.TrackingNumber
		view.ShipmentStatus = order.Shipment.Status
	}
	return view
}

// PreviewOrder 下单金额预览，不扣库存
func (h *Handler) PreviewOrder(c *gin.Context) {
	var req service.CheckoutInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "request body is invalid", err)
		return
	}
	preview, err := h.OrderService.Preview(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, preview)
}

// CreateOrder 游客下单
func (h *Handler) CreateOrder(c *gin.Context) {
	var req service.CheckoutInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "request body is invalid", err)
		return
	}
	order, err := h.OrderService.Checkout(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	handlershared.RequestLog(c).Infow("public_order_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"payment_method", order.PaymentMethod,
	)
	response.Created(c, toOrderView(order))
}

// LookupOrder 按订单号与邮箱查询订单
func (h *Handler) LookupOrder(c *gin.Context) {
	orderNo := strings.TrimSpace(c.Param("order_no"))
	email := strings.TrimSpace(c.Query("email"))
	order, err := h.OrderService.LookupOrder(orderNo, email)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, toOrderView(order))
}
