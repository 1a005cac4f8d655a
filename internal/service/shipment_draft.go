package service

import (
	"strings"

	"github.com/vitrina-shop/internal/constants"
	"github.com/vitrina-shop/internal/models"
)

const itemsPerPack = 5

// BuildShipmentDraft 根据订单计算运单参数（不落库）
func BuildShipmentDraft(order *models.Order) *models.Shipment {
	if order == nil {
		return nil
	}
	deliveryType, officeCode := resolveDeliveryType(order.OfficeCode)
	shipment := &models.Shipment{
		OrderID:                order.ID,
		Carrier:                constants.CarrierEcont,
		Weight:                 EstimateOrderWeight(order),
		PackCount:              packCountFor(order.TotalQuantity()),
		DeliveryType:           deliveryType,
		OfficeCode:             officeCode,
		DeclaredValue:          draftDeclaredValue(order),
		CashOnDelivery:         models.ZeroMoney(),
		ShippingPriceEstimated: order.ShippingPrice,
		ShippingPriceReal:      models.ZeroMoney(),
		Status:                 constants.ShipmentStatusCreated,
	}
	if order.PaymentMethod == constants.PaymentMethodCOD {
		shipment.CashOnDelivery = order.Total
	}
	return shipment
}

func packCountFor(totalQuantity int) int {
	if totalQuantity <= 0 {
		return 1
	}
	return (totalQuantity + itemsPerPack - 1) / itemsPerPack
}

func resolveDeliveryType(officeCode string) (string, string) {
	code := strings.TrimSpace(officeCode)
	switch {
	case code == "":
		return constants.DeliveryTypeAddress, ""
	case strings.HasPrefix(strings.ToUpper(code), "APM"):
		return constants.DeliveryTypeAPM, code
	default:
		return constants.DeliveryTypeOffice, code
	}
}

// draftDeclaredValue 优先取小计，否则取总额减运费，负数归零
func draftDeclaredValue(order *models.Order) models.Money {
	if order.Subtotal.Decimal.IsPositive() {
		return order.Subtotal
	}
	return order.Total.Sub(order.ShippingPrice).ClampZero()
}
