package main

import (
	"github.com/vitrina-shop/internal/config"
	"github.com/vitrina-shop/internal/logger"
	"github.com/vitrina-shop/internal/models"
	"github.com/vitrina-shop/internal/repository"
	"github.com/vitrina-shop/internal/service"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 配送设置
	settings := service.NewSettingService(repository.NewSettingRepository(models.DB))
	enabled := true
	freeOver := "100.00"
	if _, err := settings.UpdateDeliverySetting(service.DeliverySettingInput{
		DeliveryEnabled:  &enabled,
		FreeDeliveryOver: &freeOver,
	}); err != nil {
		stdLog.Fatalf("Failed to seed delivery setting: %v", err)
	}

	// 添加商品
	productRepo := repository.NewProductRepository(models.DB)
	products := []models.Product{
		{Name: "Керамична чаша", Slug: "ceramic-mug", Price: models.NewMoney(14.90), Quantity: intPtr(40), Weight: 0.45, IsActive: true},
		{Name: "Ленена кърпа", Slug: "linen-towel", Price: models.NewMoney(22.00), Quantity: intPtr(25), Weight: 0.3, IsActive: true},
		{Name: "Дъбова дъска", Slug: "oak-board", Price: models.NewMoney(48.50), SalePrice: moneyPtr(39.90), Quantity: intPtr(8), Weight: 1.8, IsActive: true},
		{Name: "Ваучер за подарък", Slug: "gift-voucher", Price: models.NewMoney(50.00), Weight: 0, IsActive: true},
	}
	for i := range products {
		existing, err := productRepo.GetBySlug(products[i].Slug)
		if err != nil {
			stdLog.Fatalf("Failed to query product %s: %v", products[i].Slug, err)
		}
		if existing != nil {
			continue
		}
		if err := productRepo.Create(&products[i]); err != nil {
			stdLog.Fatalf("Failed to seed product %s: %v", products[i].Slug, err)
		}
	}

	logger.Infow("seed_completed", "products", len(products))
}

func intPtr(v int) *int {
	return &v
}

func moneyPtr(v float64) *models.Money {
	m := models.NewMoney(v)
	return &m
}
