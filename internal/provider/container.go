package provider

import (
	"github.com/vitrina-shop/internal/cache"
	"github.com/vitrina-shop/internal/carrier/econt"
	"github.com/vitrina-shop/internal/config"
	"github.com/vitrina-shop/internal/logger"
	"github.com/vitrina-shop/internal/metrics"
	"github.com/vitrina-shop/internal/models"
	"github.com/vitrina-shop/internal/queue"
	"github.com/vitrina-shop/internal/repository"
	"github.com/vitrina-shop/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Metrics     *metrics.Metrics
	EcontClient *econt.Client

	// Repositories
	OrderRepo    repository.OrderRepository
	ProductRepo  repository.ProductRepository
	ShipmentRepo repository.ShipmentRepository
	SettingRepo  repository.SettingRepository

	// Services
	EmailService        *service.EmailService
	SettingService      *service.SettingService
	PayloadMapper       *service.ShipmentPayloadMapper
	PricingService      *service.PricingService
	OrderService        *service.OrderService
	ShipmentService     *service.ShipmentService
	TrackingService     *service.TrackingService
	ShippingCostService *service.ShippingCostService
	NotificationService *service.NotificationService
	NomenclatureService *service.NomenclatureService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}
	if cfg.Shipment.MaxAttempts > 0 {
		queueClient.SetMaxAttempts(queue.TaskShipmentSubmit, cfg.Shipment.MaxAttempts)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.NewDefault()
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Metrics:     m,
		EcontClient: econt.NewClient(econt.Config{
			BaseURL:   cfg.Econt.BaseURL,
			Username:  cfg.Econt.Username,
			Password:  cfg.Econt.Password,
			Timeout:   cfg.Econt.Timeout(),
			VerifySSL: cfg.Econt.VerifySSL,
		}, m),
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	if !cfg.Econt.Enabled {
		logger.Infow("provider_econt_disabled", "effect", "shipments_confirmed_locally")
	}
	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.OrderRepo = repository.NewOrderRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.ShipmentRepo = repository.NewShipmentRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
}

func (c *Container) initServices() {
	carrierEnabled := c.Config.Econt.Enabled
	stock := service.NewStockLedger(c.ProductRepo)

	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.SettingService = service.NewSettingService(c.SettingRepo)
	c.PayloadMapper = service.NewShipmentPayloadMapper(c.Config.Econt.Sender, c.SettingService)
	c.PricingService = service.NewPricingService(c.SettingService, c.PayloadMapper, c.EcontClient, carrierEnabled)
	c.OrderService = service.NewOrderService(
		c.OrderRepo,
		c.ProductRepo,
		c.ShipmentRepo,
		stock,
		c.PricingService,
		c.QueueClient,
	)
	c.ShipmentService = service.NewShipmentService(
		c.OrderRepo,
		c.ShipmentRepo,
		c.PayloadMapper,
		c.EcontClient,
		c.QueueClient,
		c.Metrics,
		carrierEnabled,
	)
	table := service.DefaultTrackingStatusTable().WithOverrides(c.Config.Econt.TrackingStatuses)
	c.TrackingService = service.NewTrackingService(
		c.OrderRepo,
		c.ShipmentRepo,
		stock,
		c.EcontClient,
		c.QueueClient,
		table,
		c.Metrics,
		carrierEnabled,
	)
	c.ShippingCostService = service.NewShippingCostService(c.OrderRepo, c.PricingService, c.QueueClient)
	c.NotificationService = service.NewNotificationService(c.OrderRepo, c.ShipmentRepo, c.EmailService)
	c.NomenclatureService = service.NewNomenclatureService(c.EcontClient, carrierEnabled)
}
