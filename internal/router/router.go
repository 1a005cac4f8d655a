package router

import (
	"fmt"
	"strings"

	"github.com/vitrina-shop/internal/cache"
	"github.com/vitrina-shop/internal/config"
	adminhandlers "github.com/vitrina-shop/internal/http/handlers/admin"
	publichandlers "github.com/vitrina-shop/internal/http/handlers/public"
	"github.com/vitrina-shop/internal/http/response"
	"github.com/vitrina-shop/internal/logger"
	"github.com/vitrina-shop/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisClient := cache.Client()
	checkoutRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:checkout", cache.Prefix()),
		WindowSeconds: cfg.Security.CheckoutRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.CheckoutRateLimit.MaxRequests,
		Message:       "too many orders, retry in %d seconds",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	metricsPath := strings.TrimSpace(cfg.Metrics.Path)
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	r.Use(LoggerMiddleware(logger.Z(), "/healthz", metricsPath))
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/healthz", func(ctx *gin.Context) {
		response.Success(ctx, gin.H{"ok": true})
	})
	if cfg.Metrics.Enabled && c.Metrics != nil {
		r.GET(metricsPath, gin.WrapH(c.Metrics.Handler()))
	}

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/econt/cities", publicHandler.ListCities)
			public.GET("/econt/offices", publicHandler.ListOffices)
			public.GET("/orders/:order_no", publicHandler.LookupOrder)
		}

		// 游客下单
		guest := apiV1.Group("/guest")
		{
			guest.POST("/orders", RateLimitMiddleware(redisClient, checkoutRule, KeyByIPAndJSONField("customer_phone")), publicHandler.CreateOrder)
			guest.POST("/orders/preview", publicHandler.PreviewOrder)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey))
		{
			// 订单管理
			authorized.GET("/orders", adminHandler.ListOrders)
			authorized.GET("/orders/:id", adminHandler.GetOrder)
			authorized.PATCH("/orders/:id", adminHandler.UpdateOrderStatus)
			authorized.POST("/orders/:id/items", adminHandler.AddOrderItem)
			authorized.PUT("/orders/:id/items/:item_id", adminHandler.UpdateOrderItem)
			authorized.DELETE("/orders/:id/items/:item_id", adminHandler.RemoveOrderItem)
			authorized.POST("/orders/:id/recalculate", adminHandler.RecalculateOrder)
			authorized.POST("/orders/:id/cancel", adminHandler.CancelOrder)

			// 运单管理
			authorized.GET("/shipments", adminHandler.ListShipments)
			authorized.GET("/shipments/:id", adminHandler.GetShipment)
			authorized.POST("/shipments/:id/retry", adminHandler.RetryShipment)
			authorized.POST("/shipments/:id/sync", adminHandler.SyncShipmentTracking)

			// 配送设置
			authorized.GET("/settings/delivery", adminHandler.GetDeliverySetting)
			authorized.PUT("/settings/delivery", adminHandler.UpdateDeliverySetting)
		}
	}

	return r
}
