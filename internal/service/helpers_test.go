package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vitrina-shop/internal/carrier/econt"
	"github.com/vitrina-shop/internal/config"
	"github.com/vitrina-shop/internal/constants"
	"github.com/vitrina-shop/internal/models"
	"github.com/vitrina-shop/internal/queue"
	"github.com/vitrina-shop/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

const (
	taskKindShipmentCreate = "shipment_create"
	taskKindShipmentSubmit = "shipment_submit"
	taskKindTrackingEmail  = "tracking_email"
	taskKindShipmentAlert  = "shipment_alert"
	taskKindShippingCost   = "shipping_cost"
	taskKindShippingAlert  = "shipping_alert"
	taskKindConfirmation   = "confirmation"
	taskKindAdminNotify    = "admin_notify"
	taskKindStatusEmail    = "status_email"
)

// recordingQueue 记录投递的任务
type recordingQueue struct {
	mu       sync.Mutex
	disabled bool
	err      error
	calls    map[string]int
	statuses []queue.OrderStatusEmailPayload
	alerts   []queue.FailureAlertPayload
}

func (q *recordingQueue) record(kind string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.calls == nil {
		q.calls = map[string]int{}
	}
	if q.err != nil {
		return q.err
	}
	q.calls[kind]++
	return nil
}

func (q *recordingQueue) Enabled() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return !q.disabled
}

func (q *recordingQueue) count(kind string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.calls[kind]
}

func (q *recordingQueue) statusEmails() []queue.OrderStatusEmailPayload {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]queue.OrderStatusEmailPayload(nil), q.statuses...)
}

func (q *recordingQueue) EnqueueShipmentCreate(uint) error { return q.record(taskKindShipmentCreate) }
func (q *recordingQueue) EnqueueShipmentSubmit(uint) error { return q.record(taskKindShipmentSubmit) }
func (q *recordingQueue) EnqueueTrackingEmail(uint) error   { return q.record(taskKindTrackingEmail) }
func (q *recordingQueue) EnqueueShippingCost(uint) error    { return q.record(taskKindShippingCost) }
func (q *recordingQueue) EnqueueOrderConfirmation(uint) error {
	return q.record(taskKindConfirmation)
}
func (q *recordingQueue) EnqueueAdminNotification(uint) error {
	return q.record(taskKindAdminNotify)
}

func (q *recordingQueue) EnqueueShipmentFailedAlert(payload queue.FailureAlertPayload) error {
	if err := q.record(taskKindShipmentAlert); err != nil {
		return err
	}
	q.mu.Lock()
	q.alerts = append(q.alerts, payload)
	q.mu.Unlock()
	return nil
}

func (q *recordingQueue) EnqueueShippingCostFailedAlert(payload queue.FailureAlertPayload) error {
	if err := q.record(taskKindShippingAlert); err != nil {
		return err
	}
	q.mu.Lock()
	q.alerts = append(q.alerts, payload)
	q.mu.Unlock()
	return nil
}

func (q *recordingQueue) EnqueueOrderStatusEmail(payload queue.OrderStatusEmailPayload) error {
	if err := q.record(taskKindStatusEmail); err != nil {
		return err
	}
	q.mu.Lock()
	q.statuses = append(q.statuses, payload)
	q.mu.Unlock()
	return nil
}

// fakeGateway 按脚本返回结果的承运商
type fakeGateway struct {
	mu           sync.Mutex
	createCalls  int32
	createErrors []error
	createDelay  time.Duration
	number       string
	price        *float64
	priceCalls   int32
	lastLabel    map[string]interface{}
	tracking     *econt.TrackingResult
	trackingErr  error
}

func (g *fakeGateway) CreateLabel(ctx context.Context, label map[string]interface{}, mode string) (*econt.LabelResult, error) {
	call := atomic.AddInt32(&g.createCalls, 1)
	if g.createDelay > 0 {
		time.Sleep(g.createDelay)
	}
	g.mu.Lock()
	g.lastLabel = label
	var err error
	if int(call) <= len(g.createErrors) {
		err = g.createErrors[call-1]
	}
	g.mu.Unlock()
	if err != nil {
		return nil, err
	}
	number := g.number
	if number == "" {
		number = "1051602357891"
	}
	return &econt.LabelResult{
		ShipmentNumber: number,
		PDFURL:         "https://ee.econt.com/label/" + number + ".pdf",
		Raw:            map[string]interface{}{"label": map[string]interface{}{"shipmentNumber": number}},
	}, nil
}

func (g *fakeGateway) CalculatePrice(ctx context.Context, label map[string]interface{}) *float64 {
	atomic.AddInt32(&g.priceCalls, 1)
	g.mu.Lock()
	g.lastLabel = label
	g.mu.Unlock()
	return g.price
}

func (g *fakeGateway) TrackShipment(ctx context.Context, shipmentNumber string) (*econt.TrackingResult, error) {
	if g.trackingErr != nil {
		return nil, g.trackingErr
	}
	return g.tracking, nil
}

func (g *fakeGateway) creates() int {
	return int(atomic.LoadInt32(&g.createCalls))
}

func floatPtr(v float64) *float64 {
	return &v
}

func intPtr(v int) *int {
	return &v
}

// fulfillmentHarness 组装真实仓储与假承运商
type fulfillmentHarness struct {
	db           *gorm.DB
	orderRepo    *repository.GormOrderRepository
	productRepo  *repository.GormProductRepository
	shipmentRepo *repository.GormShipmentRepository
	settingRepo  *repository.GormSettingRepository
	settings     *SettingService
	mapper       *ShipmentPayloadMapper
	gateway      *fakeGateway
	queue        *recordingQueue
	pricing      *PricingService
	shipments    *ShipmentService
	tracking     *TrackingService
	orders       *OrderService
	shippingCost *ShippingCostService
}

func newFulfillmentHarness(t *testing.T, carrierEnabled bool) *fulfillmentHarness {
	t.Helper()
	db := openServiceTestDB(t)
	h := &fulfillmentHarness{
		db:           db,
		orderRepo:    repository.NewOrderRepository(db),
		productRepo:  repository.NewProductRepository(db),
		shipmentRepo: repository.NewShipmentRepository(db),
		settingRepo:  repository.NewSettingRepository(db),
		gateway:      &fakeGateway{},
		queue:        &recordingQueue{},
	}
	h.settings = NewSettingService(h.settingRepo)
	h.mapper = NewShipmentPayloadMapper(config.EcontSenderConfig{
		Name:       "Витрина ООД",
		Phone:      "0888000111",
		OfficeCode: "1127",
	}, h.settings)
	h.pricing = NewPricingService(h.settings, h.mapper, h.gateway, carrierEnabled)
	h.shipments = NewShipmentService(h.orderRepo, h.shipmentRepo, h.mapper, h.gateway, h.queue, nil, carrierEnabled)
	stock := NewStockLedger(h.productRepo)
	h.tracking = NewTrackingService(h.orderRepo, h.shipmentRepo, stock, h.gateway, h.queue, nil, nil, carrierEnabled)
	h.orders = NewOrderService(h.orderRepo, h.productRepo, h.shipmentRepo, stock, h.pricing, h.queue)
	h.shippingCost = NewShippingCostService(h.orderRepo, h.pricing, h.queue)
	return h
}

func (h *fulfillmentHarness) createProduct(t *testing.T, slug string, price float64, quantity *int, weight float64) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:     "Продукт " + slug,
		Slug:     slug,
		Price:    models.NewMoney(price),
		Quantity: quantity,
		Weight:   weight,
		IsActive: true,
	}
	if err := h.productRepo.Create(product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

// createOrder 直接落库一个地址派送订单
func (h *fulfillmentHarness) createOrder(t *testing.T, status, paymentMethod string, product *models.Product, quantity int) *models.Order {
	t.Helper()
	item := models.NewOrderItem(product, &quantity)
	order := &models.Order{
		OrderNo:       fmt.Sprintf("VS-%d", time.Now().UnixNano()),
		CustomerName:  "Иван Петров",
		CustomerEmail: "ivan@example.com",
		CustomerPhone: "0888 123 456",
		City:          "София",
		PostCode:      "1000",
		Street:        "бул. Витоша",
		StreetNum:     "12",
		Status:        status,
		PaymentMethod: paymentMethod,
		PaymentStatus: constants.PaymentStatusPending,
		Subtotal:      item.Total,
		ShippingPrice: models.ZeroMoney(),
		Total:         item.Total,
	}
	if err := h.orderRepo.Create(order, []models.OrderItem{item}); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func (h *fulfillmentHarness) setDelivery(t *testing.T, enabled bool, freeOver *string) {
	t.Helper()
	input := DeliverySettingInput{DeliveryEnabled: &enabled}
	if freeOver != nil {
		input.FreeDeliveryOver = freeOver
	} else {
		input.ClearFreeOver = true
	}
	if _, err := h.settings.UpdateDeliverySetting(input); err != nil {
		t.Fatalf("update delivery setting failed: %v", err)
	}
}

func (h *fulfillmentHarness) reloadShipment(t *testing.T, id uint) *models.Shipment {
	t.Helper()
	shipment, err := h.shipmentRepo.GetByID(id)
	if err != nil || shipment == nil {
		t.Fatalf("reload shipment failed: %v", err)
	}
	return shipment
}

func (h *fulfillmentHarness) reloadOrder(t *testing.T, id uint) *models.Order {
	t.Helper()
	order, err := h.orderRepo.GetByID(id)
	if err != nil || order == nil {
		t.Fatalf("reload order failed: %v", err)
	}
	return order
}

func stringPtr(v string) *string {
	return &v
}
