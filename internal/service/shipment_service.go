package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vitrina-shop/internal/carrier/econt"
	"github.com/vitrina-shop/internal/constants"
	"github.com/vitrina-shop/internal/logger"
	"github.com/vitrina-shop/internal/metrics"
	"github.com/vitrina-shop/internal/models"
	"github.com/vitrina-shop/internal/queue"
	"github.com/vitrina-shop/internal/repository"
)

const permanentFailurePrefix = "failed after"

// Attempt 当前投递序号与总尝试次数
type Attempt struct {
	Number int
	Max    int
}

func (a Attempt) normalized() Attempt {
	if a.Number < 1 {
		a.Number = 1
	}
	if a.Max < a.Number {
		a.Max = a.Number
	}
	return a
}

// Final 是否最后一次尝试
func (a Attempt) Final() bool {
	return a.Number >= a.Max
}

// ShipmentService 运单创建、提交与失败处理
type ShipmentService struct {
	orderRepo      repository.OrderRepository
	shipmentRepo   repository.ShipmentRepository
	mapper         *ShipmentPayloadMapper
	carrier        CarrierGateway
	queueClient    TaskQueue
	metrics        *metrics.Metrics
	carrierEnabled bool
	now            func() time.Time
}

// NewShipmentService 创建运单服务
func NewShipmentService(orderRepo repository.OrderRepository, shipmentRepo repository.ShipmentRepository, mapper *ShipmentPayloadMapper, carrier CarrierGateway, queueClient TaskQueue, m *metrics.Metrics, carrierEnabled bool) *ShipmentService {
	return &ShipmentService{
		orderRepo:      orderRepo,
		shipmentRepo:   shipmentRepo,
		mapper:         mapper,
		carrier:        carrier,
		queueClient:    queueClient,
		metrics:        m,
		carrierEnabled: carrierEnabled,
		now:            time.Now,
	}
}

// BuildDraft 计算运单参数（不落库）
func (s *ShipmentService) BuildDraft(order *models.Order) *models.Shipment {
	return BuildShipmentDraft(order)
}

// CreateForOrder 为订单创建运单，已有运单时返回 ErrShipmentExists
func (s *ShipmentService) CreateForOrder(ctx context.Context, orderID uint) (*models.Shipment, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Shipment != nil {
		logger.Infow("shipment_create_skipped_existing",
			"order_id", order.ID,
			"shipment_id", order.Shipment.ID,
			"shipment_status", order.Shipment.Status,
		)
		return order.Shipment, ErrShipmentExists
	}
	if normalizeOrderStatus(order.Status) == constants.OrderStatusCancelled {
		return nil, ErrOrderStatusInvalid
	}

	shipment := BuildShipmentDraft(order)
	if err := s.shipmentRepo.Create(shipment); err != nil {
		existing, lookupErr := s.shipmentRepo.GetByOrderID(order.ID)
		if lookupErr == nil && existing != nil {
			return existing, ErrShipmentExists
		}
		return nil, err
	}
	logger.ForShipment(shipment.ID, order.ID).Infow("shipment_created",
		"delivery_type", shipment.DeliveryType,
		"weight", shipment.Weight,
		"pack_count", shipment.PackCount,
	)
	return shipment, nil
}

// HandleOrderReady 订单待发货：创建运单并投递提交任务
func (s *ShipmentService) HandleOrderReady(ctx context.Context, orderID uint) error {
	shipment, err := s.CreateForOrder(ctx, orderID)
	switch {
	case errors.Is(err, ErrShipmentExists):
		if shipment == nil || shipment.Status != constants.ShipmentStatusCreated {
			return nil
		}
	case errors.Is(err, ErrOrderStatusInvalid):
		logger.Infow("shipment_create_skipped_order_status", "order_id", orderID)
		return nil
	case err != nil:
		return err
	}
	return s.queueClient.EnqueueShipmentSubmit(shipment.ID)
}

// Submit 向承运商提交运单
func (s *ShipmentService) Submit(ctx context.Context, shipmentID uint, attempt Attempt) error {
	attempt = attempt.normalized()
	shipment, err := s.shipmentRepo.GetByID(shipmentID)
	if err != nil {
		return err
	}
	if shipment == nil {
		return ErrShipmentNotFound
	}
	log := logger.ForShipment(shipment.ID, shipment.OrderID)

	if !s.carrierEnabled {
		ok, err := s.shipmentRepo.TryTransition(shipment.ID, constants.ShipmentStatusCreated, constants.ShipmentStatusConfirmed, map[string]interface{}{
			"carrier_response": models.JSON{"disabled": true},
		})
		if err != nil {
			return err
		}
		if !ok {
			return ErrShipmentNotClaimable
		}
		log.Infow("shipment_confirmed_carrier_disabled")
		s.metrics.IncSubmission("disabled")
		return nil
	}

	if !claimableStatus(shipment.Status) || shipment.SubmitAttempts >= attempt.Number {
		log.Infow("shipment_submit_skipped",
			"status", shipment.Status,
			"submit_attempts", shipment.SubmitAttempts,
			"attempt", attempt.Number,
		)
		return ErrShipmentNotClaimable
	}
	claimed, err := s.shipmentRepo.ClaimForSubmit(shipment.ID, shipment.Status, shipment.SubmitAttempts)
	if err != nil {
		return err
	}
	if !claimed {
		log.Infow("shipment_submit_claim_lost", "attempt", attempt.Number)
		return ErrShipmentNotClaimable
	}
	shipment.Status = constants.ShipmentStatusPending
	shipment.SubmitAttempts++

	order, err := s.orderRepo.GetByID(shipment.OrderID)
	if err != nil {
		return s.recordFailure(shipment, attempt, err)
	}
	if order == nil {
		return s.recordFailure(shipment, attempt, ErrOrderNotFound)
	}

	label, err := s.mapper.Map(shipment, order)
	if err != nil {
		return s.recordFailure(shipment, attempt, err)
	}
	if err := s.shipmentRepo.Update(shipment.ID, map[string]interface{}{
		"carrier_payload": models.JSON(label),
	}); err != nil {
		return s.recordFailure(shipment, attempt, err)
	}

	result, err := s.carrier.CreateLabel(ctx, label, econt.ModeCreate)
	if err == nil && (result == nil || strings.TrimSpace(result.ShipmentNumber) == "") {
		err = fmt.Errorf("%w: missing shipmentNumber", econt.ErrCarrier)
	}
	if err != nil {
		return s.recordFailure(shipment, attempt, err)
	}
	return s.confirm(shipment, order, result)
}

func (s *ShipmentService) confirm(shipment *models.Shipment, order *models.Order, result *econt.LabelResult) error {
	log := logger.ForShipment(shipment.ID, shipment.OrderID)
	now := s.now()
	number := strings.TrimSpace(result.ShipmentNumber)
	updates := map[string]interface{}{
		"carrier_shipment_id": number,
		"tracking_number":     number,
		"label_url":           result.PDFURL,
		"carrier_response":    models.JSON(result.Raw),
		"error_message":       nil,
		"sent_to_carrier_at":  now,
	}
	if result.TotalPrice != nil {
		updates["shipping_price_real"] = models.NewMoney(*result.TotalPrice)
	}
	ok, err := s.shipmentRepo.TryTransition(shipment.ID, constants.ShipmentStatusPending, constants.ShipmentStatusConfirmed, updates)
	if err != nil {
		return err
	}
	if !ok {
		log.Warnw("shipment_confirm_status_changed", "tracking_number", number)
		return nil
	}
	s.metrics.IncSubmission("confirmed")
	log.Infow("shipment_confirmed", "tracking_number", number, "attempt", shipment.SubmitAttempts)

	if !orderStatusReached(order.Status, constants.OrderStatusShipped) {
		if err := s.orderRepo.UpdateStatus(order.ID, constants.OrderStatusShipped, map[string]interface{}{
			"updated_at": now,
		}); err != nil {
			log.Errorw("shipment_order_mark_shipped_failed", "error", err)
		}
	}
	if err := s.queueClient.EnqueueTrackingEmail(shipment.ID); err != nil {
		log.Warnw("shipment_tracking_email_enqueue_failed", "error", err)
	}
	return nil
}

// recordFailure 记录单次失败：还有重试机会则保持 pending，否则置为 error
func (s *ShipmentService) recordFailure(shipment *models.Shipment, attempt Attempt, cause error) error {
	log := logger.ForShipment(shipment.ID, shipment.OrderID)
	final := attempt.Final() || errors.Is(cause, ErrMappingFailed)
	target := constants.ShipmentStatusPending
	if final {
		target = constants.ShipmentStatusError
	}
	if _, err := s.shipmentRepo.TryTransition(shipment.ID, constants.ShipmentStatusPending, target, map[string]interface{}{
		"error_message": cause.Error(),
	}); err != nil {
		log.Errorw("shipment_failure_record_failed", "error", err)
	}
	log.Warnw("shipment_submit_failed",
		"attempt", attempt.Number,
		"max_attempts", attempt.Max,
		"final", final,
		"error", cause,
	)
	if final {
		s.metrics.IncSubmission("error")
	} else {
		s.metrics.IncSubmission("retry")
	}
	return cause
}

// MarkFailed 重试耗尽后的最终失败处理：记录错误并通知后台
func (s *ShipmentService) MarkFailed(ctx context.Context, shipmentID uint, cause error) error {
	shipment, err := s.shipmentRepo.GetByID(shipmentID)
	if err != nil {
		return err
	}
	if shipment == nil {
		return ErrShipmentNotFound
	}
	switch shipment.Status {
	case constants.ShipmentStatusCreated, constants.ShipmentStatusPending, constants.ShipmentStatusError:
	default:
		return nil
	}
	if shipment.Status == constants.ShipmentStatusError && shipment.ErrorMessage != nil &&
		strings.HasPrefix(*shipment.ErrorMessage, permanentFailurePrefix) {
		return nil
	}

	reason := "unknown error"
	if cause != nil {
		reason = cause.Error()
	} else if shipment.ErrorMessage != nil && *shipment.ErrorMessage != "" {
		reason = *shipment.ErrorMessage
	}
	message := fmt.Sprintf("%s %d attempts: %s", permanentFailurePrefix, shipment.SubmitAttempts, reason)
	ok, err := s.shipmentRepo.TryTransition(shipment.ID, shipment.Status, constants.ShipmentStatusError, map[string]interface{}{
		"error_message": message,
	})
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	logger.Criticalw("shipment_submit_failed_permanently",
		"shipment_id", shipment.ID,
		"order_id", shipment.OrderID,
		"attempts", shipment.SubmitAttempts,
		"error", reason,
	)
	return s.queueClient.EnqueueShipmentFailedAlert(queue.FailureAlertPayload{
		OrderID:    shipment.OrderID,
		ShipmentID: shipment.ID,
		Reason:     message,
	})
}

// Retry 后台重新提交失败的运单
func (s *ShipmentService) Retry(ctx context.Context, shipmentID uint) (*models.Shipment, error) {
	shipment, err := s.shipmentRepo.GetByID(shipmentID)
	if err != nil {
		return nil, err
	}
	if shipment == nil {
		return nil, ErrShipmentNotFound
	}
	ok, err := s.shipmentRepo.TryTransition(shipment.ID, constants.ShipmentStatusError, constants.ShipmentStatusCreated, map[string]interface{}{
		"submit_attempts": 0,
		"error_message":   nil,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrShipmentNotRetryable
	}
	if err := s.queueClient.EnqueueShipmentSubmit(shipment.ID); err != nil {
		return nil, err
	}
	logger.ForShipment(shipment.ID, shipment.OrderID).Infow("shipment_retry_requested")
	return s.shipmentRepo.GetByID(shipment.ID)
}

// Cancel 本地取消运单并清空承运商数据
func (s *ShipmentService) Cancel(ctx context.Context, orderID uint) error {
	shipment, err := s.shipmentRepo.GetByOrderID(orderID)
	if err != nil {
		return err
	}
	if shipment == nil || shipment.Status == constants.ShipmentStatusCancelled {
		return nil
	}
	if err := s.shipmentRepo.Update(shipment.ID, cancelledShipmentFields()); err != nil {
		return err
	}
	logger.ForShipment(shipment.ID, orderID).Infow("shipment_cancelled")
	return nil
}

// GetShipment 获取运单详情
func (s *ShipmentService) GetShipment(shipmentID uint) (*models.Shipment, error) {
	shipment, err := s.shipmentRepo.GetByID(shipmentID)
	if err != nil {
		return nil, err
	}
	if shipment == nil {
		return nil, ErrShipmentNotFound
	}
	return shipment, nil
}

// ListShipments 后台运单列表
func (s *ShipmentService) ListShipments(filter repository.ShipmentListFilter) ([]models.Shipment, int64, error) {
	return s.shipmentRepo.ListAdmin(filter)
}

func claimableStatus(status string) bool {
	return status == constants.ShipmentStatusCreated || status == constants.ShipmentStatusPending
}

func cancelledShipmentFields() map[string]interface{} {
	return map[string]interface{}{
		"status":              constants.ShipmentStatusCancelled,
		"carrier_shipment_id": "",
		"tracking_number":     "",
		"label_url":           "",
		"carrier_payload":     nil,
		"carrier_response":    nil,
		"tracking_events":     nil,
	}
}
