package service

import (
	"context"

	"github.com/vitrina-shop/internal/carrier/econt"
	"github.com/vitrina-shop/internal/queue"
)

// CarrierGateway 承运商接口（*econt.Client 实现）
type CarrierGateway interface {
	CreateLabel(ctx context.Context, label map[string]interface{}, mode string) (*econt.LabelResult, error)
	CalculatePrice(ctx context.Context, label map[string]interface{}) *float64
	TrackShipment(ctx context.Context, shipmentNumber string) (*econt.TrackingResult, error)
}

// TaskQueue 异步任务投递（*queue.Client 实现）
type TaskQueue interface {
	Enabled() bool
	EnqueueShipmentCreate(orderID uint) error
	EnqueueShipmentSubmit(shipmentID uint) error
	EnqueueTrackingEmail(shipmentID uint) error
	EnqueueShipmentFailedAlert(payload queue.FailureAlertPayload) error
	EnqueueShippingCost(orderID uint) error
	EnqueueShippingCostFailedAlert(payload queue.FailureAlertPayload) error
	EnqueueOrderConfirmation(orderID uint) error
	EnqueueAdminNotification(orderID uint) error
	EnqueueOrderStatusEmail(payload queue.OrderStatusEmailPayload) error
}

var _ CarrierGateway = (*econt.Client)(nil)
var _ TaskQueue = (*queue.Client)(nil)
