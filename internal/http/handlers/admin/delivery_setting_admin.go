package admin

import (
	"github.com/vitrina-shop/internal/http/response"
	"github.com/vitrina-shop/internal/service"

	"github.com/gin-gonic/gin"
)

// GetDeliverySetting 获取配送设置
func (h *Handler) GetDeliverySetting(c *gin.Context) {
	setting, err := h.SettingService.GetDeliverySetting()
	if err != nil {
		respondError(c, response.CodeInternal, "delivery setting fetch failed", err)
		return
	}
	response.Success(c, setting)
}

// UpdateDeliverySetting 更新配送设置
func (h *Handler) UpdateDeliverySetting(c *gin.Context) {
	var req service.DeliverySettingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "request body is invalid", err)
		return
	}
	setting, err := h.SettingService.UpdateDeliverySetting(req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("admin_delivery_setting_updated",
		"delivery_enabled", setting.DeliveryEnabled,
		"delivery_price", setting.DeliveryPrice.String(),
	)
	response.Success(c, setting)
}
