package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID                      uint           `gorm:"primarykey" json:"id"`                                              // 主键
	OrderNo                 string         `gorm:"uniqueIndex;not null" json:"order_no"`                              // 订单编号
	CustomerName            string         `gorm:"type:varchar(200);not null" json:"customer_name"`                   // 收件人姓名
	CustomerEmail           string         `gorm:"type:varchar(200);index" json:"customer_email"`                     // 收件人邮箱
	CustomerPhone           string         `gorm:"type:varchar(50)" json:"customer_phone"`                            // 收件人电话
	City                    string         `gorm:"type:varchar(120)" json:"city"`                                     // 城市
	PostCode                string         `gorm:"type:varchar(20)" json:"post_code"`                                 // 邮编
	Street                  string         `gorm:"type:varchar(200)" json:"street"`                                   // 街道
	StreetNum               string         `gorm:"type:varchar(40)" json:"street_num"`                                // 门牌号
	OfficeCode              string         `gorm:"type:varchar(40)" json:"office_code"`                               // 自提网点/快递柜编码
	Note                    string         `gorm:"type:text" json:"note"`                                             // 买家备注
	Status                  string         `gorm:"index;not null" json:"status"`                                      // 订单状态
	Subtotal                Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`             // 商品小计
	ShippingPrice           Money          `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_price"`       // 运费
	Total                   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total"`                // 应付总额
	PaymentMethod           string         `gorm:"type:varchar(30);not null" json:"payment_method"`                   // 支付方式
	PaymentStatus           string         `gorm:"type:varchar(30);not null;index" json:"payment_status"`             // 支付状态
	HolidayDeliveryDay      *time.Time     `json:"holiday_delivery_day"`                                              // 指定派送日
	OrderConfirmationSentAt *time.Time     `json:"order_confirmation_sent_at"`                                        // 确认邮件发送时间
	AdminNotificationSentAt *time.Time     `json:"admin_notification_sent_at"`                                        // 后台通知发送时间
	CanceledAt              *time.Time     `gorm:"index" json:"canceled_at"`                                          // 取消时间
	CreatedAt               time.Time      `gorm:"index" json:"created_at"`                                           // 创建时间
	UpdatedAt               time.Time      `gorm:"index" json:"updated_at"`                                           // 更新时间
	DeletedAt               gorm.DeletedAt `gorm:"index" json:"-"`                                                    // 软删除时间

	// 关联
	Items    []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`     // 订单项
	Shipment *Shipment   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"shipment,omitempty"`  // 运单
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// TotalQuantity 订单商品总件数（未计量的订单项按 1 件计）
func (o *Order) TotalQuantity() int {
	if o == nil {
		return 0
	}
	total := 0
	for _, item := range o.Items {
		total += item.EffectiveQuantity()
	}
	return total
}
