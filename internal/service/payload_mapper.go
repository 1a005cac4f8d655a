package service

import (
	"strings"
	"time"

	"github.com/vitrina-shop/internal/config"
	"github.com/vitrina-shop/internal/constants"
	"github.com/vitrina-shop/internal/models"
)

const (
	econtShipmentTypePack = "PACK"
	econtDateLayout       = "2006-01-02"
	bulgariaCountryCode   = "BGR"
	bulgariaPhonePrefix   = "+359"
)

// ShipmentPayloadMapper 将运单与订单转换为 Econt 报文
type ShipmentPayloadMapper struct {
	sender   config.EcontSenderConfig
	settings *SettingService
	now      func() time.Time
}

// NewShipmentPayloadMapper 创建报文映射器
func NewShipmentPayloadMapper(sender config.EcontSenderConfig, settings *SettingService) *ShipmentPayloadMapper {
	return &ShipmentPayloadMapper{
		sender:   sender,
		settings: settings,
		now:      time.Now,
	}
}

// Map 组装 createLabel 的 label 报文
func (m *ShipmentPayloadMapper) Map(shipment *models.Shipment, order *models.Order) (map[string]interface{}, error) {
	setting, err := m.settings.GetDeliverySetting()
	if err != nil {
		return nil, err
	}
	return m.mapWithSetting(shipment, order, setting)
}

func (m *ShipmentPayloadMapper) mapWithSetting(shipment *models.Shipment, order *models.Order, setting DeliverySetting) (map[string]interface{}, error) {
	if shipment == nil || order == nil {
		return nil, &MappingError{Field: "shipment"}
	}
	phone := NormalizePhone(order.CustomerPhone)
	if phone == "" {
		return nil, &MappingError{Field: "customer_phone"}
	}

	label := map[string]interface{}{
		"senderClient": map[string]interface{}{
			"name":   strings.TrimSpace(m.sender.Name),
			"phones": []string{NormalizePhone(m.sender.Phone)},
		},
		"receiverClient": map[string]interface{}{
			"name":   strings.TrimSpace(order.CustomerName),
			"phones": []string{phone},
		},
		"shipmentType":          econtShipmentTypePack,
		"weight":                shipment.Weight,
		"packCount":             max(shipment.PackCount, 1),
		"shipmentDescription":   "Order " + order.OrderNo,
		"paymentReceiverMethod": "cash",
	}

	if code := strings.TrimSpace(m.sender.OfficeCode); code != "" {
		label["senderOfficeCode"] = code
	} else {
		label["senderAddress"] = map[string]interface{}{
			"city": map[string]interface{}{
				"country":  map[string]interface{}{"code3": bulgariaCountryCode},
				"name":     strings.TrimSpace(m.sender.City),
				"postCode": strings.TrimSpace(m.sender.PostCode),
			},
			"street": strings.TrimSpace(m.sender.Street),
			"num":    strings.TrimSpace(m.sender.StreetNum),
		}
	}

	switch shipment.DeliveryType {
	case constants.DeliveryTypeOffice, constants.DeliveryTypeAPM:
		code := strings.TrimSpace(shipment.OfficeCode)
		if code == "" {
			code = strings.TrimSpace(order.OfficeCode)
		}
		if code == "" {
			return nil, &MappingError{Field: "office_code"}
		}
		label["receiverOfficeCode"] = code
	default:
		city := strings.TrimSpace(order.City)
		postCode := strings.TrimSpace(order.PostCode)
		street := strings.TrimSpace(order.Street)
		switch {
		case city == "":
			return nil, &MappingError{Field: "city"}
		case postCode == "":
			return nil, &MappingError{Field: "post_code"}
		case street == "":
			return nil, &MappingError{Field: "street"}
		}
		label["receiverAddress"] = map[string]interface{}{
			"city": map[string]interface{}{
				"country":  map[string]interface{}{"code3": bulgariaCountryCode},
				"name":     city,
				"postCode": postCode,
			},
			"street": street,
			"num":    strings.TrimSpace(order.StreetNum),
		}
		today := m.now()
		label["sendDate"] = today.Format(econtDateLayout)
		if order.HolidayDeliveryDay != nil {
			label["holidayDeliveryDay"] = order.HolidayDeliveryDay.Format(econtDateLayout)
		} else {
			label["holidayDeliveryDay"] = NextBusinessDay(today).Format(econtDateLayout)
		}
	}

	services := map[string]interface{}{
		"smsNotification": true,
	}
	if declared := declaredValueFor(shipment, order); declared.Decimal.IsPositive() {
		services["declaredValueAmount"] = declared.Float()
	}
	if shipment.CashOnDelivery.Decimal.IsPositive() {
		services["cdAmount"] = shipment.CashOnDelivery.Float()
		services["cdType"] = "get"
		label["paymentReceiverMethod"] = "cash"
		label["paymentSenderMethod"] = "bank"
	}
	label["services"] = services

	if email := strings.TrimSpace(order.CustomerEmail); email != "" {
		label["emailOnDelivery"] = email
	}

	if FreeDeliveryApplies(setting, order.Subtotal) {
		delete(label, "paymentReceiverMethod")
		label["paymentSenderMethod"] = "bank"
	}
	return label, nil
}

// NormalizePhone 转换为 +359 国际格式
func NormalizePhone(raw string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	switch {
	case cleaned == "" || cleaned == "+":
		return ""
	case strings.HasPrefix(cleaned, "+"):
		return cleaned
	case strings.HasPrefix(cleaned, "00"):
		return "+" + cleaned[2:]
	case strings.HasPrefix(cleaned, "0"):
		return bulgariaPhonePrefix + cleaned[1:]
	case strings.HasPrefix(cleaned, "359") && len(cleaned) > 9:
		return "+" + cleaned
	default:
		return bulgariaPhonePrefix + cleaned
	}
}

// NextBusinessDay 下一个工作日（跳过周六周日）
func NextBusinessDay(from time.Time) time.Time {
	day := from.AddDate(0, 0, 1)
	for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		day = day.AddDate(0, 0, 1)
	}
	return day
}

// FreeDeliveryApplies 小计达到包邮门槛
func FreeDeliveryApplies(setting DeliverySetting, subtotal models.Money) bool {
	if setting.FreeDeliveryOver == nil {
		return false
	}
	return subtotal.Decimal.GreaterThanOrEqual(setting.FreeDeliveryOver.Decimal)
}

func declaredValueFor(shipment *models.Shipment, order *models.Order) models.Money {
	if shipment != nil && shipment.DeclaredValue.Decimal.IsPositive() {
		return shipment.DeclaredValue
	}
	if order != nil && order.Subtotal.Decimal.IsPositive() {
		return order.Subtotal
	}
	return models.ZeroMoney()
}
