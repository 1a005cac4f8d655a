package shared

import (
	"fmt"
	"testing"

	"github.com/vitrina-shop/internal/http/response"
	"github.com/vitrina-shop/internal/service"
)

func TestMapServiceError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"checkout", &service.CheckoutError{Field: "customer_phone", Message: "is required"}, response.CodeUnprocessableEntity},
		{"stock", fmt.Errorf("%w: product 3", service.ErrInsufficientStock), response.CodeConflict},
		{"order missing", service.ErrOrderNotFound, response.CodeNotFound},
		{"not editable", service.ErrOrderNotEditable, response.CodeConflict},
		{"setting", fmt.Errorf("%w: delivery_price", service.ErrDeliverySettingInvalid), response.CodeBadRequest},
		{"unknown", fmt.Errorf("db closed"), response.CodeInternal},
		{"app error", fmt.Errorf("lookup: %w", response.WrapError(response.CodeServiceUnavailable, "carrier unavailable", nil)), response.CodeServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, msg := MapServiceError(tc.err)
			if code != tc.code {
				t.Fatalf("code want %d got %d", tc.code, code)
			}
			if msg == "" {
				t.Fatalf("message should not be empty")
			}
		})
	}
	if _, msg := MapServiceError(fmt.Errorf("db closed")); msg != "internal error" {
		t.Fatalf("internal errors must not leak details, got %q", msg)
	}
}
