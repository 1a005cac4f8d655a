package service

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/mail"
	"strings"
	"time"

	"github.com/vitrina-shop/internal/config"
	"github.com/vitrina-shop/internal/models"
)

// EmailService 邮件发送服务
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// SetConfig 更新运行时邮件配置
func (s *EmailService) SetConfig(cfg *config.EmailConfig) {
	if cfg == nil {
		return
	}
	s.cfg = cfg
}

// AdminAddress 后台告警收件人
func (s *EmailService) AdminAddress() string {
	if s == nil || s.cfg == nil {
		return ""
	}
	return strings.TrimSpace(s.cfg.AdminAddress)
}

// Send 发送纯文本邮件
func (s *EmailService) Send(toEmail, subject, body string) error {
	return s.sendTextEmail(toEmail, subject, body)
}

// OrderStatusEmailInput 订单状态邮件输入
type OrderStatusEmailInput struct {
	OrderNo        string
	Status         string
	Total          models.Money
	TrackingNumber string
	LabelURL       string
}

func (s *EmailService) sendTextEmail(toEmail, subject, body string) error {
	if s.cfg == nil || !s.cfg.Enabled {
		return ErrEmailServiceDisabled
	}
	if s.cfg.Host == "" || s.cfg.Port == 0 || s.cfg.From == "" {
		return ErrEmailServiceNotConfigured
	}
	if _, err := mail.ParseAddress(toEmail); err != nil {
		return ErrInvalidEmail
	}

	from := buildFromAddress(s.cfg.From, s.cfg.FromName)
	msg := buildEmailMessage(from, toEmail, subject, body)
	err := s.transport().deliver(context.Background(), s.cfg.From, []string{toEmail}, []byte(msg))
	return normalizeEmailSendError(err)
}

func (s *EmailService) transport() smtpTransport {
	security := smtpPlain
	switch {
	case s.cfg.UseSSL:
		security = smtpImplicitTLS
	case s.cfg.UseTLS:
		security = smtpStartTLS
	}
	return smtpTransport{
		host:     s.cfg.Host,
		port:     s.cfg.Port,
		username: s.cfg.Username,
		password: s.cfg.Password,
		security: security,
		timeout:  time.Duration(s.cfg.TimeoutSeconds) * time.Second,
	}
}

// orderStatusLabels 订单状态展示名
var orderStatusLabels = map[string]string{
	"pending":            "Pending",
	"processing":         "Processing",
	"ready_for_shipment": "Ready for shipment",
	"shipped":            "Shipped",
	"completed":          "Completed",
	"cancelled":          "Cancelled",
	"return_requested":   "Return in progress",
	"returned":           "Returned",
}

func orderStatusLabel(status string) string {
	key := strings.ToLower(strings.TrimSpace(status))
	if label, ok := orderStatusLabels[key]; ok {
		return label
	}
	return status
}

func buildOrderConfirmationContent(order *models.Order) (string, string) {
	subject := fmt.Sprintf("Order %s received", order.OrderNo)
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Hello %s,\n\nWe received your order %s.\n\n", order.CustomerName, order.OrderNo))
	for _, item := range order.Items {
		b.WriteString(fmt.Sprintf("- %s x%d: %s\n", item.ProductName, item.EffectiveQuantity(), item.Total.String()))
	}
	b.WriteString(fmt.Sprintf("\nSubtotal: %s\nShipping: %s\nTotal: %s\n", order.Subtotal.String(), order.ShippingPrice.String(), order.Total.String()))
	return subject, b.String()
}

func buildAdminNewOrderContent(order *models.Order) (string, string) {
	subject := fmt.Sprintf("New order %s", order.OrderNo)
	body := fmt.Sprintf("Order: %s\nCustomer: %s <%s> %s\nPayment: %s\nTotal: %s\nItems: %d",
		order.OrderNo, order.CustomerName, order.CustomerEmail, order.CustomerPhone,
		order.PaymentMethod, order.Total.String(), len(order.Items))
	return subject, body
}

func buildOrderStatusContent(input OrderStatusEmailInput) (string, string) {
	label := orderStatusLabel(input.Status)
	subject := fmt.Sprintf("Order %s: %s", input.OrderNo, label)
	body := fmt.Sprintf("Order No: %s\nStatus: %s\nTotal: %s", input.OrderNo, label, input.Total.String())
	if input.TrackingNumber != "" {
		body += fmt.Sprintf("\nTracking number: %s", input.TrackingNumber)
	}
	if input.LabelURL != "" {
		body += fmt.Sprintf("\nLabel: %s", input.LabelURL)
	}
	return subject, body
}

func buildFailureAlertContent(kind, orderNo string, shipmentID uint, reason string) (string, string) {
	subject := fmt.Sprintf("[alert] %s failed for order %s", kind, orderNo)
	body := fmt.Sprintf("Order: %s\nReason: %s", orderNo, reason)
	if shipmentID != 0 {
		body += fmt.Sprintf("\nShipment: %d", shipmentID)
	}
	return subject, body
}

func buildFromAddress(from, name string) string {
	if strings.TrimSpace(name) == "" {
		return from
	}
	encoded := mime.QEncoding.Encode("UTF-8", name)
	return (&mail.Address{Name: encoded, Address: from}).String()
}

func buildEmailMessage(from, to, subject, body string) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", to))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject)))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.String()
}
