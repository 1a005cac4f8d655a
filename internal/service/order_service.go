package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/vitrina-shop/internal/constants"
	"github.com/vitrina-shop/internal/logger"
	"github.com/vitrina-shop/internal/models"
	"github.com/vitrina-shop/internal/repository"

	"gorm.io/gorm"
)

// OrderService 订单服务
type OrderService struct {
	orderRepo    repository.OrderRepository
	productRepo  repository.ProductRepository
	shipmentRepo repository.ShipmentRepository
	stock        *StockLedger
	pricing      *PricingService
	queueClient  TaskQueue
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository, shipmentRepo repository.ShipmentRepository, stock *StockLedger, pricing *PricingService, queueClient TaskQueue) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		shipmentRepo: shipmentRepo,
		stock:        stock,
		pricing:      pricing,
		queueClient:  queueClient,
	}
}

// CheckoutItemInput 下单商品
type CheckoutItemInput struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"required,min=1,max=999"`
}

// CheckoutInput 下单参数
type CheckoutInput struct {
	CustomerName       string              `json:"customer_name" validate:"required,max=200"`
	CustomerEmail      string              `json:"customer_email" validate:"omitempty,email,max=200"`
	CustomerPhone      string              `json:"customer_phone" validate:"required,max=50"`
	City               string              `json:"city" validate:"required_without=OfficeCode,max=120"`
	PostCode           string              `json:"post_code" validate:"required_without=OfficeCode,max=20"`
	Street             string              `json:"street" validate:"required_without=OfficeCode,max=200"`
	StreetNum          string              `json:"street_num" validate:"max=40"`
	OfficeCode         string              `json:"office_code" validate:"max=40"`
	Note               string              `json:"note" validate:"max=2000"`
	PaymentMethod      string              `json:"payment_method" validate:"required,oneof=card bank_transfer cod"`
	HolidayDeliveryDay string              `json:"holiday_delivery_day" validate:"omitempty,datetime=2006-01-02"`
	Items              []CheckoutItemInput `json:"items" validate:"required,min=1,max=50,dive"`
}

// CheckoutPreview 下单预览
type CheckoutPreview struct {
	Items         []models.OrderItem `json:"items"`
	Subtotal      models.Money       `json:"subtotal"`
	ShippingPrice models.Money       `json:"shipping_price"`
	Total         models.Money       `json:"total"`
	DeliveryType  string             `json:"delivery_type"`
}

// Preview 计算价格但不落库、不扣库存
func (s *OrderService) Preview(ctx context.Context, input CheckoutInput) (*CheckoutPreview, error) {
	order, err := s.buildCheckoutOrder(ctx, input)
	if err != nil {
		return nil, err
	}
	for _, item := range order.Items {
		if item.Product != nil && item.Product.TracksStock() && *item.Product.Quantity < item.EffectiveQuantity() {
			return nil, ErrInsufficientStock
		}
	}
	deliveryType, _ := resolveDeliveryType(order.OfficeCode)
	return &CheckoutPreview{
		Items:         order.Items,
		Subtotal:      order.Subtotal,
		ShippingPrice: order.ShippingPrice,
		Total:         order.Total,
		DeliveryType:  deliveryType,
	}, nil
}

// Checkout 创建订单：订单、订单项与库存扣减在同一事务内完成
func (s *OrderService) Checkout(ctx context.Context, input CheckoutInput) (*models.Order, error) {
	order, err := s.buildCheckoutOrder(ctx, input)
	if err != nil {
		return nil, err
	}
	items := order.Items
	order.Items = nil

	err = s.orderRepo.Transaction(func(tx *gorm.DB) error {
		ledger := s.stock.WithTx(tx)
		for _, item := range items {
			if err := ledger.Reserve(item.ProductID, quantityValue(item.Quantity)); err != nil {
				return err
			}
		}
		return s.orderRepo.WithTx(tx).Create(order, items)
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("order_checkout_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"payment_method", order.PaymentMethod,
		"total", order.Total.String(),
	)
	s.enqueueOrderPlaced(order)
	return order, nil
}

func (s *OrderService) buildCheckoutOrder(ctx context.Context, input CheckoutInput) (*models.Order, error) {
	if err := validateCheckoutInput(input); err != nil {
		return nil, err
	}
	merged := mergeCheckoutItems(input.Items)
	ids := make([]uint, 0, len(merged))
	for _, item := range merged {
		ids = append(ids, item.ProductID)
	}
	products, err := s.productRepo.ListByIDs(ids)
	if err != nil {
		return nil, err
	}
	productMap := make(map[uint]*models.Product, len(products))
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}

	order := &models.Order{
		OrderNo:       generateOrderNo(),
		CustomerName:  strings.TrimSpace(input.CustomerName),
		CustomerEmail: strings.ToLower(strings.TrimSpace(input.CustomerEmail)),
		CustomerPhone: strings.TrimSpace(input.CustomerPhone),
		City:          strings.TrimSpace(input.City),
		PostCode:      strings.TrimSpace(input.PostCode),
		Street:        strings.TrimSpace(input.Street),
		StreetNum:     strings.TrimSpace(input.StreetNum),
		OfficeCode:    strings.TrimSpace(input.OfficeCode),
		Note:          strings.TrimSpace(input.Note),
		Status:        constants.OrderStatusPending,
		PaymentMethod: input.PaymentMethod,
		PaymentStatus: constants.PaymentStatusPending,
		Subtotal:      models.ZeroMoney(),
		ShippingPrice: models.ZeroMoney(),
		Total:         models.ZeroMoney(),
	}
	if day := strings.TrimSpace(input.HolidayDeliveryDay); day != "" {
		parsed, err := time.ParseInLocation(econtDateLayout, day, time.Local)
		if err != nil {
			return nil, newCheckoutError("holiday_delivery_day", "is invalid")
		}
		order.HolidayDeliveryDay = &parsed
	}

	items := make([]models.OrderItem, 0, len(merged))
	for _, line := range merged {
		product, ok := productMap[line.ProductID]
		if !ok || !product.IsActive {
			return nil, ErrProductUnavailable
		}
		quantity := line.Quantity
		item := models.NewOrderItem(product, &quantity)
		order.Subtotal = order.Subtotal.Add(item.Total)
		items = append(items, item)
	}
	order.Items = items

	if err := s.pricing.ApplyTotals(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// enqueueOrderPlaced 下单后投递通知与运费任务，失败只记录日志
func (s *OrderService) enqueueOrderPlaced(order *models.Order) {
	if order.CustomerEmail != "" {
		if err := s.queueClient.EnqueueOrderConfirmation(order.ID); err != nil {
			logger.Warnw("order_confirmation_enqueue_failed", "order_id", order.ID, "error", err)
		}
	}
	if err := s.queueClient.EnqueueAdminNotification(order.ID); err != nil {
		logger.Warnw("order_admin_notification_enqueue_failed", "order_id", order.ID, "error", err)
	}
	if isOfflinePayment(order.PaymentMethod) {
		if !s.queueClient.Enabled() {
			logger.Warnw("order_shipping_cost_queue_disabled", "order_id", order.ID)
		}
		if err := s.queueClient.EnqueueShippingCost(order.ID); err != nil {
			logger.Warnw("order_shipping_cost_enqueue_failed", "order_id", order.ID, "error", err)
		}
	}
}

// AddItem 后台为订单新增商品
func (s *OrderService) AddItem(ctx context.Context, orderID, productID uint, quantity *int) (*models.Order, error) {
	if quantity != nil && *quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		order, err := s.loadEditableOrder(orderRepo, orderID)
		if err != nil {
			return err
		}
		product, err := s.productRepo.WithTx(tx).GetByID(productID)
		if err != nil {
			return err
		}
		if product == nil {
			return ErrProductNotFound
		}
		if err := s.stock.WithTx(tx).Reserve(product.ID, quantityValue(quantity)); err != nil {
			return err
		}
		item := models.NewOrderItem(product, quantity)
		item.OrderID = order.ID
		item.Product = nil
		if err := orderRepo.CreateItem(&item); err != nil {
			return err
		}
		_, err = recalculateTotals(orderRepo, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(orderID)
}

// UpdateItemQuantity 修改订单项数量，库存按差值调整
func (s *OrderService) UpdateItemQuantity(ctx context.Context, orderID, itemID uint, quantity *int) (*models.Order, error) {
	if quantity != nil && *quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		if _, err := s.loadEditableOrder(orderRepo, orderID); err != nil {
			return err
		}
		item, err := orderRepo.GetItem(orderID, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return ErrOrderItemNotFound
		}
		if err := s.stock.WithTx(tx).ApplyDelta(item.ProductID, item.Quantity, quantity); err != nil {
			return err
		}
		item.Quantity = quantity
		item.RefreshTotal()
		if err := orderRepo.UpdateItem(item); err != nil {
			return err
		}
		_, err = recalculateTotals(orderRepo, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(orderID)
}

// RemoveItem 删除订单项并回补库存
func (s *OrderService) RemoveItem(ctx context.Context, orderID, itemID uint) (*models.Order, error) {
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		if _, err := s.loadEditableOrder(orderRepo, orderID); err != nil {
			return err
		}
		item, err := orderRepo.GetItem(orderID, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return ErrOrderItemNotFound
		}
		if err := s.stock.WithTx(tx).Release(item.ProductID, quantityValue(item.Quantity)); err != nil {
			return err
		}
		if err := orderRepo.DeleteItem(item); err != nil {
			return err
		}
		_, err = recalculateTotals(orderRepo, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(orderID)
}

// RecalculateTotals 按订单项重算小计与总额（幂等）
func (s *OrderService) RecalculateTotals(ctx context.Context, orderID uint) (*models.Order, error) {
	var order *models.Order
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = recalculateTotals(s.orderRepo.WithTx(tx), orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func recalculateTotals(orderRepo repository.OrderRepository, orderID uint) (*models.Order, error) {
	order, err := orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	subtotal := models.ZeroMoney()
	for _, item := range order.Items {
		subtotal = subtotal.Add(item.Total)
	}
	total := subtotal.Add(order.ShippingPrice)
	if subtotal.Equal(order.Subtotal.Decimal) && total.Equal(order.Total.Decimal) {
		return order, nil
	}
	if err := orderRepo.UpdateFields(order.ID, map[string]interface{}{
		"subtotal":   subtotal,
		"total":      total,
		"updated_at": time.Now(),
	}); err != nil {
		return nil, err
	}
	order.Subtotal = subtotal
	order.Total = total
	return order, nil
}

func (s *OrderService) loadEditableOrder(orderRepo repository.OrderRepository, orderID uint) (*models.Order, error) {
	order, err := orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !isOrderEditable(order.Status) {
		return nil, ErrOrderNotEditable
	}
	return order, nil
}

// UpdateStatus 后台修改订单状态，进入待发货时投递运单创建任务
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uint, target string) (*models.Order, error) {
	target = normalizeOrderStatus(target)
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if !isOrderStatusAllowed(order.Status, target) {
		return nil, ErrOrderStatusInvalid
	}
	if target == constants.OrderStatusCancelled {
		return s.Cancel(ctx, orderID)
	}
	if err := s.orderRepo.UpdateStatus(order.ID, target, map[string]interface{}{
		"updated_at": time.Now(),
	}); err != nil {
		return nil, err
	}
	logger.Infow("order_status_updated", "order_id", order.ID, "from", order.Status, "to", target)

	if target == constants.OrderStatusReadyForShipment {
		// 队列关闭时任务会被丢弃，需人工创建运单
		if !s.queueClient.Enabled() {
			logger.Warnw("order_ready_shipment_queue_disabled", "order_id", order.ID)
		}
		if err := s.queueClient.EnqueueShipmentCreate(order.ID); err != nil {
			return nil, err
		}
	}
	s.enqueueStatusEmail(order, target)
	return s.GetOrder(orderID)
}

// Cancel 取消订单：回补库存并在本地取消运单；并发取消只有一方回补库存
func (s *OrderService) Cancel(ctx context.Context, orderID uint) (*models.Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == constants.OrderStatusCancelled {
		return order, nil
	}
	if !isOrderStatusAllowed(order.Status, constants.OrderStatusCancelled) {
		return nil, ErrOrderStatusInvalid
	}
	claimed := false
	err = s.orderRepo.Transaction(func(tx *gorm.DB) error {
		ok, err := cancelOrderInTx(tx, s.orderRepo, s.stock, order, time.Now())
		if err != nil || !ok {
			return err
		}
		claimed = true
		if order.Shipment != nil && order.Shipment.Status != constants.ShipmentStatusCancelled {
			return s.shipmentRepo.WithTx(tx).Update(order.Shipment.ID, cancelledShipmentFields())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !claimed {
		logger.Infow("order_cancel_skipped", "order_id", order.ID, "observed_status", order.Status)
		return s.GetOrder(orderID)
	}
	logger.Infow("order_cancelled", "order_id", order.ID, "from", order.Status)
	s.enqueueStatusEmail(order, constants.OrderStatusCancelled)
	return s.GetOrder(orderID)
}

// cancelOrderInTx 订单仍处于读取时的状态才改为取消并回补库存，返回是否抢占成功
func cancelOrderInTx(tx *gorm.DB, orderRepo repository.OrderRepository, stock *StockLedger, order *models.Order, at time.Time) (bool, error) {
	ok, err := orderRepo.WithTx(tx).TransitionStatus(order.ID, order.Status, constants.OrderStatusCancelled, map[string]interface{}{
		"canceled_at": at,
		"updated_at":  at,
	})
	if err != nil || !ok {
		return false, err
	}
	if stock == nil {
		return true, nil
	}
	ledger := stock.WithTx(tx)
	for _, item := range order.Items {
		if err := ledger.Release(item.ProductID, quantityValue(item.Quantity)); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (s *OrderService) enqueueStatusEmail(order *models.Order, status string) {
	if _, err := enqueueOrderStatusEmailIfEligible(s.queueClient, order, status); err != nil {
		logger.Warnw("order_status_email_enqueue_failed", "order_id", order.ID, "status", status, "error", err)
	}
}

// GetOrder 获取订单详情
func (s *OrderService) GetOrder(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// LookupOrder 买家按订单号与邮箱查询
func (s *OrderService) LookupOrder(orderNo, email string) (*models.Order, error) {
	orderNo = strings.TrimSpace(orderNo)
	email = strings.ToLower(strings.TrimSpace(email))
	if orderNo == "" || email == "" {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByOrderNo(orderNo)
	if err != nil {
		return nil, err
	}
	if order == nil || !strings.EqualFold(order.CustomerEmail, email) {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrders 后台订单列表
func (s *OrderService) ListOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListAdmin(filter)
}

// IsCheckoutError 是否为面向用户的下单错误
func IsCheckoutError(err error) bool {
	return errors.Is(err, ErrCheckoutInvalid) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrProductUnavailable)
}

// mergeCheckoutItems 合并重复商品的下单项，保持商品 ID 顺序稳定
func mergeCheckoutItems(items []CheckoutItemInput) []CheckoutItemInput {
	if len(items) == 0 {
		return nil
	}
	quantities := make(map[uint]int, len(items))
	for _, item := range items {
		quantities[item.ProductID] += item.Quantity
	}
	merged := make([]CheckoutItemInput, 0, len(quantities))
	for productID, quantity := range quantities {
		merged = append(merged, CheckoutItemInput{ProductID: productID, Quantity: quantity})
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].ProductID < merged[j].ProductID
	})
	return merged
}

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	randPart := randNumeric(6)
	return fmt.Sprintf("VS%s%s", now, randPart)
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}
