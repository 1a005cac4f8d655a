package models

import (
	"time"
)

// Shipment 运单表（与订单一对一）
type Shipment struct {
	ID                     uint       `gorm:"primarykey" json:"id"`                                                 // 主键
	OrderID                uint       `gorm:"uniqueIndex;not null" json:"order_id"`                                 // 订单ID
	Carrier                string     `gorm:"type:varchar(30);not null" json:"carrier"`                             // 承运商
	CarrierShipmentID      string     `gorm:"type:varchar(100);index" json:"carrier_shipment_id"`                   // 承运商运单ID
	TrackingNumber         string     `gorm:"type:varchar(100)" json:"tracking_number"`                             // 追踪号
	LabelURL               string     `gorm:"type:varchar(500)" json:"label_url"`                                   // 面单地址
	Weight                 float64    `gorm:"type:decimal(10,3);not null;default:0" json:"weight"`                  // 重量 kg
	PackCount              int        `gorm:"not null;default:1" json:"pack_count"`                                 // 包裹数
	DeliveryType           string     `gorm:"type:varchar(20);not null" json:"delivery_type"`                       // 派送方式
	OfficeCode             string     `gorm:"type:varchar(40)" json:"office_code"`                                  // 网点/快递柜编码
	DeclaredValue          Money      `gorm:"type:decimal(20,2);not null;default:0" json:"declared_value"`          // 声明价值
	CashOnDelivery         Money      `gorm:"type:decimal(20,2);not null;default:0" json:"cash_on_delivery"`        // 代收货款
	ShippingPriceEstimated Money      `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_price_estimated"` // 预估运费
	ShippingPriceReal      Money      `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_price_real"`     // 实际运费
	CarrierPayload         JSON       `gorm:"type:json" json:"carrier_payload"`                                     // 提交给承运商的报文
	CarrierResponse        JSON       `gorm:"type:json" json:"carrier_response"`                                    // 承运商响应
	TrackingEvents         JSONList   `gorm:"type:json" json:"tracking_events"`                                     // 物流事件
	Status                 string     `gorm:"type:varchar(30);not null;index" json:"status"`                        // 运单状态
	ErrorMessage           *string    `gorm:"type:text" json:"error_message"`                                       // 最近一次错误
	SubmitAttempts         int        `gorm:"not null;default:0" json:"submit_attempts"`                            // 已认领的提交次数（乐观锁版本）
	SentToCarrierAt        *time.Time `json:"sent_to_carrier_at"`                                                   // 提交承运商时间
	TrackingCheckedAt      *time.Time `gorm:"index" json:"tracking_checked_at"`                                     // 最近一次物流查询时间
	CreatedAt              time.Time  `gorm:"index" json:"created_at"`                                              // 创建时间
	UpdatedAt              time.Time  `json:"updated_at"`                                                           // 更新时间
}

// TableName 指定表名
func (Shipment) TableName() string {
	return "shipments"
}
