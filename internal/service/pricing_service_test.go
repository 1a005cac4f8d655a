package service

import (
	"context"
	"testing"

	"github.com/vitrina-shop/internal/constants"
	"github.com/vitrina-shop/internal/models"

	"github.com/stretchr/testify/require"
)

func pricingOrder(paymentMethod string, subtotal float64) *models.Order {
	product := &models.Product{ID: 1, Name: "Ваза", Price: models.NewMoney(subtotal), Weight: 1.2}
	order := &models.Order{
		ID:            21,
		OrderNo:       "VS-21",
		CustomerName:  "Георги",
		CustomerPhone: "0899111222",
		City:          "Варна",
		PostCode:      "9000",
		Street:        "ул. Морска",
		PaymentMethod: paymentMethod,
		Subtotal:      models.NewMoney(subtotal),
		ShippingPrice: models.ZeroMoney(),
	}
	order.Items = []models.OrderItem{models.NewOrderItem(product, intPtr(1))}
	return order
}

func TestApplyTotalsFreeDeliveryThreshold(t *testing.T) {
	h := newFulfillmentHarness(t, true)
	h.setDelivery(t, true, stringPtr("100"))
	h.gateway.price = floatPtr(6.4)

	order := pricingOrder(constants.PaymentMethodCard, 120)
	require.NoError(t, h.pricing.ApplyTotals(context.Background(), order))
	require.Equal(t, "0.00", order.ShippingPrice.String())
	require.Equal(t, "120.00", order.Total.String())
	require.Equal(t, int32(0), h.gateway.priceCalls)
}

func TestApplyTotalsCarrierQuote(t *testing.T) {
	h := newFulfillmentHarness(t, true)
	h.gateway.price = floatPtr(6.4)

	order := pricingOrder(constants.PaymentMethodCard, 40)
	require.NoError(t, h.pricing.ApplyTotals(context.Background(), order))
	require.Equal(t, "6.40", order.ShippingPrice.String())
	require.Equal(t, "46.40", order.Total.String())
}

func TestApplyTotalsDefersOfflinePayments(t *testing.T) {
	h := newFulfillmentHarness(t, true)
	h.gateway.price = floatPtr(6.4)

	for _, method := range []string{constants.PaymentMethodBankTransfer, constants.PaymentMethodCOD} {
		order := pricingOrder(method, 40)
		require.NoError(t, h.pricing.ApplyTotals(context.Background(), order))
		require.Equal(t, "0.00", order.ShippingPrice.String(), method)
		require.Equal(t, "40.00", order.Total.String(), method)
	}
	require.Equal(t, int32(0), h.gateway.priceCalls)

	quote, err := h.pricing.QuoteCarrier(context.Background(), pricingOrder(constants.PaymentMethodCOD, 40))
	require.NoError(t, err)
	require.Equal(t, "6.40", quote.String())
}

func TestApplyShippingFallsBackToZero(t *testing.T) {
	h := newFulfillmentHarness(t, true)

	order := pricingOrder(constants.PaymentMethodCard, 40)
	require.NoError(t, h.pricing.ApplyShipping(context.Background(), order))
	require.Equal(t, "0.00", order.ShippingPrice.String())

	h.gateway.price = floatPtr(-3)
	require.NoError(t, h.pricing.ApplyShipping(context.Background(), order))
	require.Equal(t, "0.00", order.ShippingPrice.String())

	order.CustomerPhone = ""
	h.gateway.price = floatPtr(5)
	before := h.gateway.priceCalls
	require.NoError(t, h.pricing.ApplyShipping(context.Background(), order))
	require.Equal(t, "0.00", order.ShippingPrice.String())
	require.Equal(t, before, h.gateway.priceCalls)
}

func TestApplyShippingDeliveryDisabledOrCarrierOff(t *testing.T) {
	h := newFulfillmentHarness(t, true)
	h.gateway.price = floatPtr(6.4)
	h.setDelivery(t, false, nil)

	order := pricingOrder(constants.PaymentMethodCard, 40)
	require.NoError(t, h.pricing.ApplyShipping(context.Background(), order))
	require.Equal(t, "0.00", order.ShippingPrice.String())

	off := newFulfillmentHarness(t, false)
	off.gateway.price = floatPtr(6.4)
	require.NoError(t, off.pricing.ApplyShipping(context.Background(), order))
	require.Equal(t, "0.00", order.ShippingPrice.String())
	require.False(t, off.pricing.CarrierEnabled())
}

type panickingGateway struct {
	fakeGateway
}

func (g *panickingGateway) CalculatePrice(ctx context.Context, label map[string]interface{}) *float64 {
	panic("unexpected payload")
}

func TestCarrierQuoteRecoversFromPanic(t *testing.T) {
	h := newFulfillmentHarness(t, true)
	pricing := NewPricingService(h.settings, h.mapper, &panickingGateway{}, true)

	order := pricingOrder(constants.PaymentMethodCard, 40)
	require.NoError(t, pricing.ApplyShipping(context.Background(), order))
	require.Equal(t, "0.00", order.ShippingPrice.String())
}
