package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表
type Product struct {
	ID        uint           `gorm:"primarykey" json:"id"`                               // 主键
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`             // 名称
	Slug      string         `gorm:"uniqueIndex;not null" json:"slug"`                   // 唯一标识
	Price     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"` // 价格
	SalePrice *Money         `gorm:"type:decimal(20,2)" json:"sale_price"`               // 促销价
	Quantity  *int           `json:"quantity"`                                           // 库存（为空表示不跟踪库存）
	Weight    float64        `gorm:"type:decimal(10,3);not null;default:0" json:"weight"` // 重量 kg
	IsActive  bool           `gorm:"default:true;index" json:"is_active"`                // 是否上架
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                            // 创建时间
	UpdatedAt time.Time      `json:"updated_at"`                                         // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                     // 软删除时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// EffectivePrice 促销价存在且更低时取促销价
func (p *Product) EffectivePrice() Money {
	if p == nil {
		return ZeroMoney()
	}
	if p.SalePrice != nil && p.SalePrice.Decimal.IsPositive() && p.SalePrice.Decimal.LessThan(p.Price.Decimal) {
		return *p.SalePrice
	}
	return p.Price
}

// TracksStock 是否跟踪库存
func (p *Product) TracksStock() bool {
	return p != nil && p.Quantity != nil
}
