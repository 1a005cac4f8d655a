package econt

import (
	"context"
	"fmt"
	"strings"
)

// TrackingResult 单个运单的物流状态
type TrackingResult struct {
	Status map[string]interface{} // shipmentStatuses[0].status
	Error  string                 // shipmentStatuses[0].error 的可读信息
	Raw    map[string]interface{}
}

// TrackShipment 查询运单物流状态
func (c *Client) TrackShipment(ctx context.Context, shipmentNumber string) (*TrackingResult, error) {
	shipmentNumber = strings.TrimSpace(shipmentNumber)
	if shipmentNumber == "" {
		return nil, fmt.Errorf("%w: shipment number is required", ErrConfigInvalid)
	}
	raw, status, err := c.post(ctx, "track_shipment", endpointStatuses, map[string]interface{}{
		"shipmentNumbers": []string{shipmentNumber},
	})
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 || isErrorBody(raw) {
		return nil, carrierError(raw, status)
	}
	result := &TrackingResult{Raw: raw}
	entries, _ := raw["shipmentStatuses"].([]interface{})
	if len(entries) == 0 {
		return result, nil
	}
	entry, _ := entries[0].(map[string]interface{})
	if entry == nil {
		return result, nil
	}
	if errObj := readMap(entry, "error"); len(errObj) > 0 {
		msg := ExtractErrorMessage(errObj)
		if msg == "" {
			msg = "unknown tracking error"
		}
		result.Error = msg
	}
	result.Status = readMap(entry, "status")
	return result, nil
}
