package models

import (
	"time"
)

// OrderItem 订单项表
//
// ProductName / Price 为下单时的快照，只能通过 NewOrderItem 写入，
// 之后商品改名或调价都不影响已有订单项。
type OrderItem struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                     // 主键
	OrderID     uint      `gorm:"index;not null" json:"order_id"`                           // 订单ID
	ProductID   uint      `gorm:"index;not null" json:"product_id"`                         // 商品ID
	ProductName string    `gorm:"type:varchar(255);not null" json:"product_name"`           // 商品名称快照
	Quantity    *int      `json:"quantity"`                                                 // 数量（为空表示不计量）
	Price       Money     `gorm:"type:decimal(20,2);not null;default:0" json:"price"`       // 单价快照
	Total       Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total"`       // 小计
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                                  // 创建时间
	UpdatedAt   time.Time `json:"updated_at"`                                               // 更新时间

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 商品
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}

// NewOrderItem 按商品当前价格与名称生成订单项快照
func NewOrderItem(product *Product, quantity *int) OrderItem {
	item := OrderItem{}
	if product == nil {
		return item
	}
	item.ProductID = product.ID
	item.ProductName = product.Name
	item.Price = product.EffectivePrice()
	if quantity != nil {
		q := *quantity
		item.Quantity = &q
	}
	item.Product = product
	item.RefreshTotal()
	return item
}

// EffectiveQuantity 计算用数量，不计量时按 1 计
func (i *OrderItem) EffectiveQuantity() int {
	if i == nil || i.Quantity == nil {
		return 1
	}
	return *i.Quantity
}

// RefreshTotal 根据单价快照与数量重算小计
func (i *OrderItem) RefreshTotal() {
	if i.Quantity == nil {
		i.Total = i.Price
		return
	}
	i.Total = i.Price.MulInt(*i.Quantity)
}
