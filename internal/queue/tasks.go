package queue

import (
	"encoding/json"

	"github.com/vitrina-shop/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskShipmentCreate 订单待发货后创建运单
	TaskShipmentCreate = constants.TaskShipmentCreate
	// TaskShipmentSubmit 向承运商提交运单
	TaskShipmentSubmit = constants.TaskShipmentSubmit
	// TaskShipmentTrackingSync 同步物流状态
	TaskShipmentTrackingSync = constants.TaskShipmentTrackingSync
	// TaskShipmentTrackingEmail 发送物流追踪邮件
	TaskShipmentTrackingEmail = constants.TaskShipmentTrackingMail
	// TaskShipmentFailedAlert 运单提交失败告警
	TaskShipmentFailedAlert = constants.TaskShipmentFailedAlert
	// TaskOrderShippingCost 银行转账/货到付款订单异步计算运费
	TaskOrderShippingCost = constants.TaskOrderShippingCost
	// TaskOrderShippingCostFailed 运费计算失败告警
	TaskOrderShippingCostFailed = constants.TaskOrderShippingFailed
	// TaskOrderConfirmation 订单确认邮件
	TaskOrderConfirmation = constants.TaskOrderConfirmation
	// TaskOrderAdminNotification 新订单后台通知
	TaskOrderAdminNotification = constants.TaskOrderAdminNotify
	// TaskOrderStatusEmail 订单状态邮件
	TaskOrderStatusEmail = constants.TaskOrderStatusEmail
)

// OrderPayload 只携带订单 ID 的任务载荷
type OrderPayload struct {
	OrderID uint `json:"order_id"`
}

// ShipmentPayload 只携带运单 ID 的任务载荷
type ShipmentPayload struct {
	ShipmentID uint `json:"shipment_id"`
}

// FailureAlertPayload 失败告警载荷
type FailureAlertPayload struct {
	OrderID    uint   `json:"order_id"`
	ShipmentID uint   `json:"shipment_id,omitempty"`
	Reason     string `json:"reason"`
}

// OrderStatusEmailPayload 订单状态邮件任务载荷
type OrderStatusEmailPayload struct {
	OrderID uint   `json:"order_id"`
	Status  string `json:"status"`
}

// NewTask 按任务类型序列化载荷
func NewTask(taskType string, payload interface{}) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body), nil
}

// DecodeOrderPayload 解析订单载荷
func DecodeOrderPayload(task *asynq.Task) (OrderPayload, error) {
	var payload OrderPayload
	err := json.Unmarshal(task.Payload(), &payload)
	return payload, err
}

// DecodeShipmentPayload 解析运单载荷
func DecodeShipmentPayload(task *asynq.Task) (ShipmentPayload, error) {
	var payload ShipmentPayload
	err := json.Unmarshal(task.Payload(), &payload)
	return payload, err
}

// DecodeFailureAlertPayload 解析告警载荷
func DecodeFailureAlertPayload(task *asynq.Task) (FailureAlertPayload, error) {
	var payload FailureAlertPayload
	err := json.Unmarshal(task.Payload(), &payload)
	return payload, err
}

// DecodeOrderStatusEmailPayload 解析状态邮件载荷
func DecodeOrderStatusEmailPayload(task *asynq.Task) (OrderStatusEmailPayload, error) {
	var payload OrderStatusEmailPayload
	err := json.Unmarshal(task.Payload(), &payload)
	return payload, err
}
