package constants

// 订单状态常量
const (
	OrderStatusPending          = "pending"
	OrderStatusProcessing       = "processing"
	OrderStatusReadyForShipment = "ready_for_shipment"
	OrderStatusShipped          = "shipped"
	OrderStatusCompleted        = "completed"
	OrderStatusCancelled        = "cancelled"
	OrderStatusReturnRequested  = "return_requested"
	OrderStatusReturned         = "returned"
)

// 支付方式常量
const (
	PaymentMethodCard         = "card"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodCOD          = "cod"
)

// 支付状态常量
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// 运单状态常量
const (
	ShipmentStatusCreated   = "created"
	ShipmentStatusPending   = "pending"
	ShipmentStatusConfirmed = "confirmed"
	ShipmentStatusPickedUp  = "picked_up"
	ShipmentStatusInTransit = "in_transit"
	ShipmentStatusDelivered = "delivered"
	ShipmentStatusReturning = "returning"
	ShipmentStatusReturned  = "returned"
	ShipmentStatusCancelled = "cancelled"
	ShipmentStatusError     = "error"
)

// 派送方式常量
const (
	DeliveryTypeAddress = "address"
	DeliveryTypeOffice  = "office"
	DeliveryTypeAPM     = "apm"
)

// 承运商常量
const (
	CarrierEcont = "econt"
)

// 通知去重时间戳字段
const (
	OrderFieldConfirmationSentAt = "order_confirmation_sent_at"
	OrderFieldAdminNotifiedAt    = "admin_notification_sent_at"
)

// 设置键
const (
	SettingKeyDeliveryConfig = "delivery_config"
)

// 配送设置字段
const (
	SettingFieldDeliveryEnabled  = "delivery_enabled"
	SettingFieldDeliveryPrice    = "delivery_price"
	SettingFieldFreeDeliveryOver = "free_delivery_over"
)

// 队列名称
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型
const (
	TaskShipmentCreate       = "shipment:create"
	TaskShipmentSubmit       = "shipment:submit"
	TaskShipmentTrackingSync = "shipment:tracking_sync"
	TaskShipmentTrackingMail = "shipment:tracking_email"
	TaskShipmentFailedAlert  = "shipment:failed_alert"
	TaskOrderShippingCost    = "order:shipping_cost"
	TaskOrderConfirmation    = "order:confirmation_email"
	TaskOrderAdminNotify     = "order:admin_notification"
	TaskOrderStatusEmail     = "order:status_email"
	TaskOrderShippingFailed  = "order:shipping_cost_failed_alert"
)
