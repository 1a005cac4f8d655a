package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vitrina-shop/internal/constants"
	"github.com/vitrina-shop/internal/logger"
	"github.com/vitrina-shop/internal/queue"
	"github.com/vitrina-shop/internal/repository"
)

// ShippingCostService 银行转账/货到付款订单的异步运费计算
type ShippingCostService struct {
	orderRepo   repository.OrderRepository
	pricing     *PricingService
	queueClient TaskQueue
}

// NewShippingCostService 创建运费计算服务
func NewShippingCostService(orderRepo repository.OrderRepository, pricing *PricingService, queueClient TaskQueue) *ShippingCostService {
	return &ShippingCostService{
		orderRepo:   orderRepo,
		pricing:     pricing,
		queueClient: queueClient,
	}
}

// Calculate 向承运商询价并写入运费与总额
func (s *ShippingCostService) Calculate(ctx context.Context, orderID uint) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if normalizeOrderStatus(order.Status) == constants.OrderStatusCancelled {
		return nil
	}

	price, err := s.pricing.QuoteCarrier(ctx, order)
	if err != nil {
		return err
	}
	free, err := s.pricing.FreeDelivery(order)
	if err != nil {
		return err
	}
	if !price.Decimal.IsPositive() && s.pricing.CarrierEnabled() && !free {
		return fmt.Errorf("%w: order %d", ErrShippingCostUnavailable, order.ID)
	}

	total := order.Subtotal.Add(price)
	if err := s.orderRepo.UpdateFields(order.ID, map[string]interface{}{
		"shipping_price": price,
		"total":          total,
		"updated_at":     time.Now(),
	}); err != nil {
		return err
	}
	logger.Infow("order_shipping_cost_calculated",
		"order_id", order.ID,
		"shipping_price", price.String(),
		"total", total.String(),
	)
	return nil
}

// MarkFailed 重试耗尽：支付状态置为失败并通知后台
func (s *ShippingCostService) MarkFailed(ctx context.Context, orderID uint, cause error) error {
	reason := "unknown error"
	if cause != nil {
		reason = cause.Error()
	}
	if err := s.orderRepo.UpdateFields(orderID, map[string]interface{}{
		"payment_status": constants.PaymentStatusFailed,
		"updated_at":     time.Now(),
	}); err != nil {
		return err
	}
	logger.Criticalw("order_shipping_cost_failed_permanently",
		"order_id", orderID,
		"error", reason,
	)
	return s.queueClient.EnqueueShippingCostFailedAlert(queue.FailureAlertPayload{
		OrderID: orderID,
		Reason:  reason,
	})
}
