package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound                  = errors.New("not found")
	ErrOrderNotFound             = errors.New("order not found")
	ErrOrderItemNotFound         = errors.New("order item not found")
	ErrOrderStatusInvalid        = errors.New("order status invalid")
	ErrOrderNotEditable          = errors.New("order not editable")
	ErrProductNotFound           = errors.New("product not found")
	ErrProductUnavailable        = errors.New("product unavailable")
	ErrInsufficientStock         = errors.New("InsufficientStock")
	ErrInvalidQuantity           = errors.New("invalid quantity")
	ErrShipmentNotFound          = errors.New("shipment not found")
	ErrShipmentExists            = errors.New("shipment already exists")
	ErrShipmentNotClaimable      = errors.New("shipment not claimable")
	ErrShipmentNotRetryable      = errors.New("shipment not retryable")
	ErrMappingFailed             = errors.New("MappingError")
	ErrShippingCostUnavailable   = errors.New("shipping cost unavailable")
	ErrCheckoutInvalid           = errors.New("CheckoutError")
	ErrDeliverySettingInvalid    = errors.New("delivery setting invalid")
	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrInvalidEmail              = errors.New("invalid email")
	ErrEmailRecipientRejected    = errors.New("email recipient rejected")
)

// MappingError 运单报文组装失败，Field 指出缺失的字段
type MappingError struct {
	Field  string
	Reason string
}

func (e *MappingError) Error() string {
	reason := strings.TrimSpace(e.Reason)
	if reason == "" {
		reason = "is required"
	}
	return fmt.Sprintf("%s: %s %s", ErrMappingFailed.Error(), e.Field, reason)
}

// Unwrap 支持 errors.Is(err, ErrMappingFailed)
func (e *MappingError) Unwrap() error {
	return ErrMappingFailed
}

// CheckoutError 面向用户的下单校验错误
type CheckoutError struct {
	Field   string
	Message string
}

func (e *CheckoutError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrCheckoutInvalid.Error(), e.Message)
	}
	return fmt.Sprintf("%s: %s %s", ErrCheckoutInvalid.Error(), e.Field, e.Message)
}

// Unwrap 支持 errors.Is(err, ErrCheckoutInvalid)
func (e *CheckoutError) Unwrap() error {
	return ErrCheckoutInvalid
}

func newCheckoutError(field, message string) error {
	return &CheckoutError{Field: field, Message: message}
}
