package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/vitrina-shop/internal/constants"
	"github.com/vitrina-shop/internal/logger"
	"github.com/vitrina-shop/internal/models"
	"github.com/vitrina-shop/internal/queue"
	"github.com/vitrina-shop/internal/repository"
)

// Mailer 邮件发送（*EmailService 实现）
type Mailer interface {
	Send(toEmail, subject, body string) error
	AdminAddress() string
}

var _ Mailer = (*EmailService)(nil)

// NotificationService 订单与运单通知
type NotificationService struct {
	orderRepo    repository.OrderRepository
	shipmentRepo repository.ShipmentRepository
	mailer       Mailer
}

// NewNotificationService 创建通知服务
func NewNotificationService(orderRepo repository.OrderRepository, shipmentRepo repository.ShipmentRepository, mailer Mailer) *NotificationService {
	return &NotificationService{
		orderRepo:    orderRepo,
		shipmentRepo: shipmentRepo,
		mailer:       mailer,
	}
}

// SendOrderConfirmation 订单确认邮件，同一订单只发送一次
func (s *NotificationService) SendOrderConfirmation(ctx context.Context, orderID uint) error {
	order, err := s.loadOrder(orderID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(order.CustomerEmail) == "" {
		return nil
	}
	subject, body := buildOrderConfirmationContent(order)
	return s.sendOnce(order.ID, constants.OrderFieldConfirmationSentAt, order.CustomerEmail, subject, body)
}

// SendAdminNewOrder 新订单后台通知，同一订单只发送一次
func (s *NotificationService) SendAdminNewOrder(ctx context.Context, orderID uint) error {
	admin := s.mailer.AdminAddress()
	if admin == "" {
		return nil
	}
	order, err := s.loadOrder(orderID)
	if err != nil {
		return err
	}
	subject, body := buildAdminNewOrderContent(order)
	return s.sendOnce(order.ID, constants.OrderFieldAdminNotifiedAt, admin, subject, body)
}

// SendOrderStatus 订单状态邮件
func (s *NotificationService) SendOrderStatus(ctx context.Context, payload queue.OrderStatusEmailPayload) error {
	order, err := s.loadOrder(payload.OrderID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(order.CustomerEmail) == "" {
		return nil
	}
	input := OrderStatusEmailInput{
		OrderNo: order.OrderNo,
		Status:  payload.Status,
		Total:   order.Total,
	}
	if order.Shipment != nil {
		input.TrackingNumber = order.Shipment.TrackingNumber
	}
	subject, body := buildOrderStatusContent(input)
	return s.deliver(order.CustomerEmail, subject, body)
}

// SendTrackingEmail 运单确认后发送物流追踪邮件
func (s *NotificationService) SendTrackingEmail(ctx context.Context, shipmentID uint) error {
	shipment, err := s.shipmentRepo.GetByID(shipmentID)
	if err != nil {
		return err
	}
	if shipment == nil {
		return ErrShipmentNotFound
	}
	order, err := s.loadOrder(shipment.OrderID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(order.CustomerEmail) == "" || shipment.TrackingNumber == "" {
		return nil
	}
	subject, body := buildOrderStatusContent(OrderStatusEmailInput{
		OrderNo:        order.OrderNo,
		Status:         constants.OrderStatusShipped,
		Total:          order.Total,
		TrackingNumber: shipment.TrackingNumber,
		LabelURL:       shipment.LabelURL,
	})
	return s.deliver(order.CustomerEmail, subject, body)
}

// SendShipmentFailedAlert 运单提交最终失败告警
func (s *NotificationService) SendShipmentFailedAlert(ctx context.Context, payload queue.FailureAlertPayload) error {
	return s.sendAlert("Shipment submission", payload)
}

// SendShippingCostFailedAlert 运费计算最终失败告警
func (s *NotificationService) SendShippingCostFailedAlert(ctx context.Context, payload queue.FailureAlertPayload) error {
	return s.sendAlert("Shipping cost calculation", payload)
}

func (s *NotificationService) sendAlert(kind string, payload queue.FailureAlertPayload) error {
	admin := s.mailer.AdminAddress()
	if admin == "" {
		logger.Warnw("admin_alert_skipped_no_address", "kind", kind, "order_id", payload.OrderID)
		return nil
	}
	orderNo := ""
	if order, err := s.orderRepo.GetByID(payload.OrderID); err == nil && order != nil {
		orderNo = order.OrderNo
	}
	subject, body := buildFailureAlertContent(kind, orderNo, payload.ShipmentID, payload.Reason)
	return s.deliver(admin, subject, body)
}

// sendOnce 先原子写入发送时间戳再发送，发送失败时清除时间戳以便重试
func (s *NotificationService) sendOnce(orderID uint, column, to, subject, body string) error {
	claimed, err := s.orderRepo.MarkNotificationSent(orderID, column, time.Now())
	if err != nil {
		return err
	}
	if !claimed {
		logger.Infow("order_notification_already_sent", "order_id", orderID, "column", column)
		return nil
	}
	if err := s.deliver(to, subject, body); err != nil {
		if resetErr := s.orderRepo.UpdateFields(orderID, map[string]interface{}{column: nil}); resetErr != nil {
			logger.Errorw("order_notification_reset_failed", "order_id", orderID, "column", column, "error", resetErr)
		}
		return err
	}
	return nil
}

// deliver 发送邮件；邮件未启用或收件人无效时不再重试
func (s *NotificationService) deliver(to, subject, body string) error {
	err := s.mailer.Send(to, subject, body)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrEmailServiceDisabled), errors.Is(err, ErrEmailServiceNotConfigured):
		logger.Debugw("email_skipped_disabled", "subject", subject)
		return nil
	case errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrEmailRecipientRejected):
		logger.Warnw("email_recipient_rejected", "to", to, "subject", subject, "error", err)
		return nil
	default:
		return err
	}
}

func (s *NotificationService) loadOrder(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}
