package service

import (
	"math"

	"github.com/vitrina-shop/internal/models"
)

// MinShipmentWeight 最低计费重量（kg）
const MinShipmentWeight = 0.100

// EstimateOrderWeight 按订单项估算包裹重量
func EstimateOrderWeight(order *models.Order) float64 {
	if order == nil {
		return MinShipmentWeight
	}
	total := 0.0
	for i := range order.Items {
		item := &order.Items[i]
		if item.Product == nil {
			continue
		}
		total += item.Product.Weight * float64(item.EffectiveQuantity())
	}
	total = math.Round(total*1000) / 1000
	if total < MinShipmentWeight {
		return MinShipmentWeight
	}
	return total
}
