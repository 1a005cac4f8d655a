package service

import (
	"strings"

	"github.com/vitrina-shop/internal/constants"
)

// orderStatusTransitions 后台可执行的订单状态流转
var orderStatusTransitions = map[string][]string{
	constants.OrderStatusPending: {
		constants.OrderStatusProcessing,
		constants.OrderStatusCancelled,
	},
	constants.OrderStatusProcessing: {
		constants.OrderStatusPending,
		constants.OrderStatusReadyForShipment,
		constants.OrderStatusCancelled,
	},
	constants.OrderStatusReadyForShipment: {
		constants.OrderStatusProcessing,
		constants.OrderStatusShipped,
		constants.OrderStatusCancelled,
	},
	constants.OrderStatusShipped: {
		constants.OrderStatusCompleted,
		constants.OrderStatusReturnRequested,
		constants.OrderStatusCancelled,
	},
	constants.OrderStatusCompleted: {
		constants.OrderStatusReturnRequested,
	},
	constants.OrderStatusReturnRequested: {
		constants.OrderStatusReturned,
		constants.OrderStatusCompleted,
	},
}

// orderStatusRank 订单进度，物流同步只允许向前推进
var orderStatusRank = map[string]int{
	constants.OrderStatusPending:          0,
	constants.OrderStatusProcessing:       1,
	constants.OrderStatusReadyForShipment: 2,
	constants.OrderStatusShipped:          3,
	constants.OrderStatusCompleted:        4,
	constants.OrderStatusReturnRequested:  5,
	constants.OrderStatusReturned:         6,
	constants.OrderStatusCancelled:        7,
}

// trackingTerminalOrderStatuses 物流轮询停止的订单状态
var trackingTerminalOrderStatuses = map[string]struct{}{
	constants.OrderStatusCompleted:       {},
	constants.OrderStatusCancelled:       {},
	constants.OrderStatusReturnRequested: {},
	constants.OrderStatusReturned:        {},
}

func normalizeOrderStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

// isOrderStatusAllowed 判断目标状态是否允许
func isOrderStatusAllowed(current, target string) bool {
	for _, next := range orderStatusTransitions[normalizeOrderStatus(current)] {
		if next == normalizeOrderStatus(target) {
			return true
		}
	}
	return false
}

// orderStatusReached 当前状态已达到或越过目标状态
func orderStatusReached(current, target string) bool {
	currentRank, ok := orderStatusRank[normalizeOrderStatus(current)]
	if !ok {
		return false
	}
	targetRank, ok := orderStatusRank[normalizeOrderStatus(target)]
	if !ok {
		return true
	}
	return currentRank >= targetRank
}

func isTrackingTerminalOrder(status string) bool {
	_, ok := trackingTerminalOrderStatuses[normalizeOrderStatus(status)]
	return ok
}

// isOrderEditable 订单项只能在发货前修改
func isOrderEditable(status string) bool {
	switch normalizeOrderStatus(status) {
	case constants.OrderStatusPending, constants.OrderStatusProcessing:
		return true
	default:
		return false
	}
}
