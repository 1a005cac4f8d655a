package service

import (
	"strings"

	"github.com/vitrina-shop/internal/constants"
)

// trackingPriority 同时命中多个分类时的优先级（靠前优先）
var trackingPriority = []string{
	constants.ShipmentStatusReturned,
	constants.ShipmentStatusReturning,
	constants.ShipmentStatusCancelled,
	constants.ShipmentStatusDelivered,
	constants.ShipmentStatusInTransit,
	constants.ShipmentStatusPickedUp,
}

// trackingStatusFields 承运商状态对象中参与匹配的短状态字段
var trackingStatusFields = []string{
	"shortDeliveryStatusEn",
	"shortDeliveryStatus",
	"shortStatusEn",
	"shortStatus",
}

// shipmentTransitionSources 物流同步允许的来源状态
var shipmentTransitionSources = map[string][]string{
	constants.ShipmentStatusPickedUp: {
		constants.ShipmentStatusConfirmed,
	},
	constants.ShipmentStatusInTransit: {
		constants.ShipmentStatusConfirmed,
		constants.ShipmentStatusPickedUp,
	},
	constants.ShipmentStatusDelivered: {
		constants.ShipmentStatusConfirmed,
		constants.ShipmentStatusPickedUp,
		constants.ShipmentStatusInTransit,
	},
	constants.ShipmentStatusReturning: {
		constants.ShipmentStatusConfirmed,
		constants.ShipmentStatusPickedUp,
		constants.ShipmentStatusInTransit,
	},
	constants.ShipmentStatusReturned: {
		constants.ShipmentStatusConfirmed,
		constants.ShipmentStatusPickedUp,
		constants.ShipmentStatusInTransit,
		constants.ShipmentStatusReturning,
	},
	constants.ShipmentStatusCancelled: {
		constants.ShipmentStatusConfirmed,
		constants.ShipmentStatusPickedUp,
		constants.ShipmentStatusInTransit,
		constants.ShipmentStatusReturning,
	},
}

// shipmentToOrderStatus 运单状态映射到订单状态
var shipmentToOrderStatus = map[string]string{
	constants.ShipmentStatusReturned:  constants.OrderStatusReturned,
	constants.ShipmentStatusReturning: constants.OrderStatusReturnRequested,
	constants.ShipmentStatusCancelled: constants.OrderStatusCancelled,
	constants.ShipmentStatusDelivered: constants.OrderStatusCompleted,
	constants.ShipmentStatusInTransit: constants.OrderStatusShipped,
	constants.ShipmentStatusPickedUp:  constants.OrderStatusShipped,
}

// TrackingStatusTable 承运商短状态 → 运单状态的匹配表
type TrackingStatusTable map[string][]string

// DefaultTrackingStatusTable Econt 已知的英文/保加利亚文短状态
func DefaultTrackingStatusTable() TrackingStatusTable {
	return TrackingStatusTable{
		constants.ShipmentStatusReturned: {
			"Returned to sender",
			"Returned",
			"Върната на подателя",
			"Върната",
		},
		constants.ShipmentStatusReturning: {
			"Returning to sender",
			"Return to sender",
			"Refused",
			"Връща се към подателя",
			"Отказана",
		},
		constants.ShipmentStatusCancelled: {
			"Cancelled",
			"Cancelled after sending",
			"Анулирана",
			"Анулирана след изпращане",
		},
		constants.ShipmentStatusDelivered: {
			"Delivered",
			"Доставена",
			"Получена",
		},
		constants.ShipmentStatusInTransit: {
			"In transit",
			"Arrived in office",
			"Out for delivery",
			"На път",
			"Пристигнала в офис",
			"Изпратена за доставка",
		},
		constants.ShipmentStatusPickedUp: {
			"Accepted",
			"Accepted in office",
			"Picked up",
			"Приета",
			"Приета в офис",
			"Взета от адрес",
		},
	}
}

// WithOverrides 按配置替换对应分类的匹配列表
func (t TrackingStatusTable) WithOverrides(overrides map[string][]string) TrackingStatusTable {
	merged := TrackingStatusTable{}
	for status, labels := range t {
		merged[status] = append([]string(nil), labels...)
	}
	for status, labels := range overrides {
		key := strings.ToLower(strings.TrimSpace(status))
		if _, known := shipmentTransitionSources[key]; !known || len(labels) == 0 {
			continue
		}
		merged[key] = append([]string(nil), labels...)
	}
	return merged
}

func (t TrackingStatusTable) matches(status string, labels []string) bool {
	for _, candidate := range t[status] {
		normalized := normalizeTrackingLabel(candidate)
		for _, label := range labels {
			if label == normalized {
				return true
			}
		}
	}
	return false
}

// Classify 返回远端状态对应的运单状态，无匹配时返回空串
func (t TrackingStatusTable) Classify(remote map[string]interface{}) string {
	if remote == nil {
		return ""
	}
	labels := make([]string, 0, len(trackingStatusFields))
	for _, field := range trackingStatusFields {
		if value, ok := remote[field].(string); ok {
			if normalized := normalizeTrackingLabel(value); normalized != "" {
				labels = append(labels, normalized)
			}
		}
	}
	for _, status := range trackingPriority {
		if t.matches(status, labels) {
			return status
		}
		if status == constants.ShipmentStatusDelivered && hasDeliveryTime(remote) {
			return status
		}
	}
	return ""
}

func hasDeliveryTime(remote map[string]interface{}) bool {
	value, ok := remote["deliveryTime"]
	if !ok || value == nil {
		return false
	}
	if text, isString := value.(string); isString {
		return strings.TrimSpace(text) != ""
	}
	return true
}

func normalizeTrackingLabel(value string) string {
	return strings.ToLower(strings.Join(strings.Fields(value), " "))
}

// canTrackTo 运单是否允许由物流同步推进到目标状态
func canTrackTo(current, target string) bool {
	for _, source := range shipmentTransitionSources[target] {
		if source == current {
			return true
		}
	}
	return false
}
