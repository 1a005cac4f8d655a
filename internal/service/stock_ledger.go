package service

import (
	"github.com/vitrina-shop/internal/repository"

	"gorm.io/gorm"
)

// StockLedger 商品库存原子扣减/回补
type StockLedger struct {
	productRepo repository.ProductRepository
}

// NewStockLedger 创建库存账本
func NewStockLedger(productRepo repository.ProductRepository) *StockLedger {
	return &StockLedger{productRepo: productRepo}
}

// WithTx 绑定事务
func (l *StockLedger) WithTx(tx *gorm.DB) *StockLedger {
	if tx == nil {
		return l
	}
	return &StockLedger{productRepo: l.productRepo.WithTx(tx)}
}

// Reserve 扣减库存，条件更新未命中时区分商品不存在、不跟踪库存与库存不足
func (l *StockLedger) Reserve(productID uint, quantity int) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	if quantity == 0 {
		return nil
	}
	affected, err := l.productRepo.ReserveStock(productID, quantity)
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	product, err := l.productRepo.GetByID(productID)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	if !product.TracksStock() {
		return nil
	}
	return ErrInsufficientStock
}

// Release 回补库存，不跟踪库存的商品不受影响
func (l *StockLedger) Release(productID uint, quantity int) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	if quantity == 0 {
		return nil
	}
	_, err := l.productRepo.ReleaseStock(productID, quantity)
	return err
}

// ApplyDelta 订单项数量变化时按差值扣减或回补
func (l *StockLedger) ApplyDelta(productID uint, oldQty, newQty *int) error {
	delta := quantityValue(newQty) - quantityValue(oldQty)
	switch {
	case delta > 0:
		return l.Reserve(productID, delta)
	case delta < 0:
		return l.Release(productID, -delta)
	default:
		return nil
	}
}

func quantityValue(q *int) int {
	if q == nil {
		return 0
	}
	return *q
}
