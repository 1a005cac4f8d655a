package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/vitrina-shop/internal/logger"
	"github.com/vitrina-shop/internal/provider"
	"github.com/vitrina-shop/internal/queue"
	"github.com/vitrina-shop/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskShipmentCreate, c.handleShipmentCreate)
	mux.HandleFunc(queue.TaskShipmentSubmit, c.handleShipmentSubmit)
	mux.HandleFunc(queue.TaskShipmentTrackingSync, c.handleTrackingSync)
	mux.HandleFunc(queue.TaskShipmentTrackingEmail, c.handleTrackingEmail)
	mux.HandleFunc(queue.TaskShipmentFailedAlert, c.handleShipmentFailedAlert)
	mux.HandleFunc(queue.TaskOrderShippingCost, c.handleShippingCost)
	mux.HandleFunc(queue.TaskOrderShippingCostFailed, c.handleShippingCostFailedAlert)
	mux.HandleFunc(queue.TaskOrderConfirmation, c.handleOrderConfirmation)
	mux.HandleFunc(queue.TaskOrderAdminNotification, c.handleAdminNotification)
	mux.HandleFunc(queue.TaskOrderStatusEmail, c.handleOrderStatusEmail)
}

func (c *Consumer) handleShipmentCreate(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.DecodeOrderPayload(task)
	if err != nil {
		logger.Warnw("worker_shipment_create_unmarshal_failed", "error", err)
		return fmt.Errorf("%w (%w)", err, asynq.SkipRetry)
	}
	if payload.OrderID == 0 || c.ShipmentService == nil {
		logger.Debugw("worker_shipment_create_skip", "order_id", payload.OrderID)
		return nil
	}
	err = c.ShipmentService.HandleOrderReady(ctx, payload.OrderID)
	if errors.Is(err, service.ErrOrderNotFound) {
		logger.Warnw("worker_shipment_create_order_missing", "order_id", payload.OrderID)
		return nil
	}
	return err
}

func (c *Consumer) handleShipmentSubmit(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.DecodeShipmentPayload(task)
	if err != nil {
		logger.Warnw("worker_shipment_submit_unmarshal_failed", "error", err)
		return fmt.Errorf("%w (%w)", err, asynq.SkipRetry)
	}
	if payload.ShipmentID == 0 || c.ShipmentService == nil {
		logger.Debugw("worker_shipment_submit_skip", "shipment_id", payload.ShipmentID)
		return nil
	}
	attempt := attemptFromContext(ctx, c.QueueClient.Policy(task.Type()))
	err = c.ShipmentService.Submit(ctx, payload.ShipmentID, attempt)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrShipmentNotClaimable):
		// 其他执行者已经处理了这一次尝试
		return nil
	case errors.Is(err, service.ErrShipmentNotFound):
		logger.Warnw("worker_shipment_submit_shipment_missing", "shipment_id", payload.ShipmentID)
		return nil
	case errors.Is(err, service.ErrMappingFailed):
		return fmt.Errorf("%w (%w)", err, asynq.SkipRetry)
	default:
		return err
	}
}

func (c *Consumer) handleTrackingSync(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.DecodeOrderPayload(task)
	if err != nil {
		logger.Warnw("worker_tracking_sync_unmarshal_failed", "error", err)
		return nil
	}
	if payload.OrderID == 0 || c.TrackingService == nil {
		return nil
	}
	changed := c.TrackingService.SyncShipmentTracking(ctx, payload.OrderID)
	logger.Debugw("worker_tracking_sync_done", "order_id", payload.OrderID, "changed", changed)
	return nil
}

func (c *Consumer) handleShippingCost(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.DecodeOrderPayload(task)
	if err != nil {
		logger.Warnw("worker_shipping_cost_unmarshal_failed", "error", err)
		return fmt.Errorf("%w (%w)", err, asynq.SkipRetry)
	}
	if payload.OrderID == 0 || c.ShippingCostService == nil {
		return nil
	}
	err = c.ShippingCostService.Calculate(ctx, payload.OrderID)
	if errors.Is(err, service.ErrOrderNotFound) {
		logger.Warnw("worker_shipping_cost_order_missing", "order_id", payload.OrderID)
		return nil
	}
	return err
}

func (c *Consumer) handleTrackingEmail(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.DecodeShipmentPayload(task)
	if err != nil {
		logger.Warnw("worker_tracking_email_unmarshal_failed", "error", err)
		return nil
	}
	if payload.ShipmentID == 0 || c.NotificationService == nil {
		return nil
	}
	return c.NotificationService.SendTrackingEmail(ctx, payload.ShipmentID)
}

func (c *Consumer) handleShipmentFailedAlert(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.DecodeFailureAlertPayload(task)
	if err != nil {
		logger.Warnw("worker_shipment_failed_alert_unmarshal_failed", "error", err)
		return nil
	}
	if c.NotificationService == nil {
		return nil
	}
	return c.NotificationService.SendShipmentFailedAlert(ctx, payload)
}

func (c *Consumer) handleShippingCostFailedAlert(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.DecodeFailureAlertPayload(task)
	if err != nil {
		logger.Warnw("worker_shipping_cost_failed_alert_unmarshal_failed", "error", err)
		return nil
	}
	if c.NotificationService == nil {
		return nil
	}
	return c.NotificationService.SendShippingCostFailedAlert(ctx, payload)
}

func (c *Consumer) handleOrderConfirmation(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.DecodeOrderPayload(task)
	if err != nil {
		logger.Warnw("worker_order_confirmation_unmarshal_failed", "error", err)
		return nil
	}
	if payload.OrderID == 0 || c.NotificationService == nil {
		return nil
	}
	return c.NotificationService.SendOrderConfirmation(ctx, payload.OrderID)
}

func (c *Consumer) handleAdminNotification(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.DecodeOrderPayload(task)
	if err != nil {
		logger.Warnw("worker_admin_notification_unmarshal_failed", "error", err)
		return nil
	}
	if payload.OrderID == 0 || c.NotificationService == nil {
		return nil
	}
	return c.NotificationService.SendAdminNewOrder(ctx, payload.OrderID)
}

func (c *Consumer) handleOrderStatusEmail(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.DecodeOrderStatusEmailPayload(task)
	if err != nil {
		logger.Warnw("worker_order_status_email_unmarshal_failed", "error", err)
		return nil
	}
	if payload.OrderID == 0 || c.NotificationService == nil {
		logger.Debugw("worker_order_status_email_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	return c.NotificationService.SendOrderStatus(ctx, payload)
}

// HandleError asynq ErrorHandler：只在最后一次失败时执行永久失败处理
func (c *Consumer) HandleError(ctx context.Context, task *asynq.Task, err error) {
	if c == nil || task == nil || err == nil {
		return
	}
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, ok := asynq.GetMaxRetry(ctx)
	if !ok {
		maxRetry = c.QueueClient.Policy(task.Type()).MaxRetry()
	}
	c.onTaskFailed(ctx, task.Type(), task.Payload(), retried, maxRetry, err)
}

func (c *Consumer) onTaskFailed(ctx context.Context, taskType string, payload []byte, retried, maxRetry int, err error) {
	if !isFinalFailure(retried, maxRetry, err) {
		logger.Warnw("worker_task_failed_will_retry",
			"task", taskType,
			"retried", retried,
			"max_retry", maxRetry,
			"error", err,
		)
		return
	}
	c.Metrics.IncJobFailure(taskType)
	task := asynq.NewTask(taskType, payload)

	switch taskType {
	case queue.TaskShipmentSubmit:
		decoded, decodeErr := queue.DecodeShipmentPayload(task)
		if decodeErr != nil || decoded.ShipmentID == 0 || c.ShipmentService == nil {
			logger.Errorw("worker_shipment_submit_final_failure_skip", "error", err)
			return
		}
		if markErr := c.ShipmentService.MarkFailed(ctx, decoded.ShipmentID, err); markErr != nil {
			logger.Errorw("worker_shipment_mark_failed_failed",
				"shipment_id", decoded.ShipmentID,
				"error", markErr,
			)
		}
	case queue.TaskOrderShippingCost:
		decoded, decodeErr := queue.DecodeOrderPayload(task)
		if decodeErr != nil || decoded.OrderID == 0 || c.ShippingCostService == nil {
			logger.Errorw("worker_shipping_cost_final_failure_skip", "error", err)
			return
		}
		if markErr := c.ShippingCostService.MarkFailed(ctx, decoded.OrderID, err); markErr != nil {
			logger.Errorw("worker_shipping_cost_mark_failed_failed",
				"order_id", decoded.OrderID,
				"error", markErr,
			)
		}
	case queue.TaskShipmentCreate:
		decoded, _ := queue.DecodeOrderPayload(task)
		logger.Criticalw("shipment_create_failed_permanently",
			"order_id", decoded.OrderID,
			"error", err,
		)
	default:
		logger.Errorw("worker_task_failed_permanently",
			"task", taskType,
			"retried", retried,
			"error", err,
		)
	}
}

// isFinalFailure 重试已用尽或任务标记为不可重试
func isFinalFailure(retried, maxRetry int, err error) bool {
	if errors.Is(err, asynq.SkipRetry) {
		return true
	}
	return retried >= maxRetry
}

// attemptFromContext 由 asynq 重试计数推导本次尝试序号（从 1 开始）
func attemptFromContext(ctx context.Context, policy queue.RetryPolicy) service.Attempt {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		retried = 0
	}
	maxRetry, ok := asynq.GetMaxRetry(ctx)
	if !ok {
		maxRetry = policy.MaxRetry()
	}
	return attemptFor(retried, maxRetry)
}

func attemptFor(retried, maxRetry int) service.Attempt {
	if retried < 0 {
		retried = 0
	}
	if maxRetry < 0 {
		maxRetry = 0
	}
	return service.Attempt{Number: retried + 1, Max: maxRetry + 1}
}
