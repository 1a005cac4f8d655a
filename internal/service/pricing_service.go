package service

import (
	"context"

	"github.com/vitrina-shop/internal/constants"
	"github.com/vitrina-shop/internal/logger"
	"github.com/vitrina-shop/internal/models"
)

// PricingService 运费与订单总额计算
type PricingService struct {
	settings       *SettingService
	mapper         *ShipmentPayloadMapper
	carrier        CarrierGateway
	carrierEnabled bool
}

// NewPricingService 创建计价服务
func NewPricingService(settings *SettingService, mapper *ShipmentPayloadMapper, carrier CarrierGateway, carrierEnabled bool) *PricingService {
	return &PricingService{
		settings:       settings,
		mapper:         mapper,
		carrier:        carrier,
		carrierEnabled: carrierEnabled,
	}
}

// ApplyShipping 计算并写入订单运费
func (s *PricingService) ApplyShipping(ctx context.Context, order *models.Order) error {
	if order == nil {
		return ErrOrderNotFound
	}
	setting, err := s.settings.GetDeliverySetting()
	if err != nil {
		return err
	}
	order.ShippingPrice = s.shippingFor(ctx, order, setting, true)
	return nil
}

// ApplyTotals 计算运费后写入总额
func (s *PricingService) ApplyTotals(ctx context.Context, order *models.Order) error {
	if err := s.ApplyShipping(ctx, order); err != nil {
		return err
	}
	order.Total = order.Subtotal.Add(order.ShippingPrice)
	return nil
}

// QuoteCarrier 直接向承运商询价（银行转账/货到付款的异步任务使用）
func (s *PricingService) QuoteCarrier(ctx context.Context, order *models.Order) (models.Money, error) {
	setting, err := s.settings.GetDeliverySetting()
	if err != nil {
		return models.ZeroMoney(), err
	}
	return s.shippingFor(ctx, order, setting, false), nil
}

// FreeDelivery 订单当前是否包邮
func (s *PricingService) FreeDelivery(order *models.Order) (bool, error) {
	setting, err := s.settings.GetDeliverySetting()
	if err != nil {
		return false, err
	}
	return !setting.DeliveryEnabled || FreeDeliveryApplies(setting, order.Subtotal), nil
}

// CarrierEnabled 承运商集成是否开启
func (s *PricingService) CarrierEnabled() bool {
	return s != nil && s.carrierEnabled && s.carrier != nil
}

func (s *PricingService) shippingFor(ctx context.Context, order *models.Order, setting DeliverySetting, deferOffline bool) models.Money {
	if !setting.DeliveryEnabled {
		return models.ZeroMoney()
	}
	if FreeDeliveryApplies(setting, order.Subtotal) {
		return models.ZeroMoney()
	}
	if deferOffline && isOfflinePayment(order.PaymentMethod) {
		return models.ZeroMoney()
	}
	if !s.CarrierEnabled() {
		return models.ZeroMoney()
	}
	return s.carrierQuote(ctx, order, setting)
}

func (s *PricingService) carrierQuote(ctx context.Context, order *models.Order, setting DeliverySetting) (price models.Money) {
	price = models.ZeroMoney()
	defer func() {
		if r := recover(); r != nil {
			logger.Errorw("shipping_quote_panic", "order_id", order.ID, "panic", r)
			price = models.ZeroMoney()
		}
	}()
	draft := BuildShipmentDraft(order)
	label, err := s.mapper.mapWithSetting(draft, order, setting)
	if err != nil {
		logger.Warnw("shipping_quote_mapping_failed", "order_id", order.ID, "error", err)
		return price
	}
	quoted := s.carrier.CalculatePrice(ctx, label)
	if quoted == nil || *quoted <= 0 {
		return price
	}
	return models.NewMoney(*quoted)
}

func isOfflinePayment(method string) bool {
	return method == constants.PaymentMethodBankTransfer || method == constants.PaymentMethodCOD
}
