package econt

import (
	"context"
	"fmt"
	"strings"

	"github.com/vitrina-shop/internal/logger"
)

// 面单接口模式
const (
	ModeCreate    = "create"
	ModeCalculate = "calculate"
	ModeValidate  = "validate"
)

// LabelResult createLabel 返回
type LabelResult struct {
	ShipmentNumber string
	PDFURL         string
	TotalPrice     *float64
	Raw            map[string]interface{}
}

// CreateLabel 提交面单（create/calculate/validate）
func (c *Client) CreateLabel(ctx context.Context, label map[string]interface{}, mode string) (*LabelResult, error) {
	mode = strings.TrimSpace(mode)
	switch mode {
	case ModeCreate, ModeCalculate, ModeValidate:
	default:
		return nil, fmt.Errorf("%w: unsupported label mode %q", ErrConfigInvalid, mode)
	}
	raw, status, err := c.post(ctx, "create_label_"+mode, endpointCreateLabel, map[string]interface{}{
		"label": label,
		"mode":  mode,
	})
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 || isErrorBody(raw) {
		return nil, carrierError(raw, status)
	}
	labelRaw := readMap(raw, "label")
	if labelRaw == nil {
		return nil, fmt.Errorf("%w: response has no label", ErrCarrier)
	}
	result := &LabelResult{
		ShipmentNumber: strings.TrimSpace(readString(labelRaw, "shipmentNumber")),
		PDFURL:         strings.TrimSpace(readString(labelRaw, "pdfURL")),
		Raw:            raw,
	}
	if price, ok := readFloat(labelRaw, "totalPrice"); ok {
		result.TotalPrice = &price
	} else if price, ok := readFloat(labelRaw, "receiverDueAmount"); ok {
		result.TotalPrice = &price
	}
	return result, nil
}

// CalculatePrice 计算运费，任何失败都记录日志并返回 nil
func (c *Client) CalculatePrice(ctx context.Context, label map[string]interface{}) *float64 {
	result, err := c.CreateLabel(ctx, label, ModeCalculate)
	if err != nil {
		logger.Warnw("econt_calculate_price_failed", "error", err)
		return nil
	}
	if result.TotalPrice == nil {
		logger.Warnw("econt_calculate_price_missing_total")
		return nil
	}
	return result.TotalPrice
}
