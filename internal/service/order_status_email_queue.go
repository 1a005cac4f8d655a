package service

import (
	"net/mail"
	"strings"

	"github.com/vitrina-shop/internal/models"
	"github.com/vitrina-shop/internal/queue"
)

// enqueueOrderStatusEmailIfEligible 订单有可用邮箱时才入队状态邮件任务。
// 返回值 skipped 表示任务被跳过（例如买家未留邮箱）。
func enqueueOrderStatusEmailIfEligible(queueClient TaskQueue, order *models.Order, status string) (skipped bool, err error) {
	if queueClient == nil || order == nil || order.ID == 0 {
		return true, nil
	}
	receiver := strings.TrimSpace(order.CustomerEmail)
	if receiver == "" {
		return true, nil
	}
	if _, err := mail.ParseAddress(receiver); err != nil {
		return true, nil
	}
	if err := queueClient.EnqueueOrderStatusEmail(queue.OrderStatusEmailPayload{
		OrderID: order.ID,
		Status:  strings.TrimSpace(status),
	}); err != nil {
		return false, err
	}
	return false, nil
}
