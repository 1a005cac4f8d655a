package service

import (
	"context"
	"errors"
	"testing"

	"github.com/vitrina-shop/internal/carrier/econt"
	"github.com/vitrina-shop/internal/constants"

	"github.com/stretchr/testify/require"
)

func confirmedShipment(t *testing.T, h *fulfillmentHarness) (uint, uint) {
	t.Helper()
	orderID, shipmentID := readyShipment(t, h, constants.PaymentMethodCard)
	require.NoError(t, h.shipments.Submit(context.Background(), shipmentID, Attempt{Number: 1, Max: 3}))
	require.Equal(t, constants.OrderStatusShipped, h.reloadOrder(t, orderID).Status)
	return orderID, shipmentID
}

func trackingResult(status map[string]interface{}) *econt.TrackingResult {
	return &econt.TrackingResult{
		Status: status,
		Raw:    map[string]interface{}{"shipmentStatuses": []interface{}{map[string]interface{}{"status": status}}},
	}
}

func TestSyncCancelledAfterSending(t *testing.T) {
	h := newFulfillmentHarness(t, true)
	orderID, shipmentID := confirmedShipment(t, h)
	h.gateway.tracking = trackingResult(map[string]interface{}{
		"shipmentNumber":        "1051602357891",
		"shortDeliveryStatusEn": "Cancelled after sending",
	})

	productID := h.reloadOrder(t, orderID).Items[0].ProductID
	require.Equal(t, 10, productQuantity(t, h, productID))

	require.True(t, h.tracking.SyncShipmentTracking(context.Background(), orderID))
	require.Equal(t, constants.ShipmentStatusCancelled, h.reloadShipment(t, shipmentID).Status)
	order := h.reloadOrder(t, orderID)
	require.Equal(t, constants.OrderStatusCancelled, order.Status)
	require.NotNil(t, order.CanceledAt)
	require.Equal(t, 12, productQuantity(t, h, productID))
	emails := h.queue.statusEmails()
	require.Len(t, emails, 1)
	require.Equal(t, constants.OrderStatusCancelled, emails[0].Status)

	require.False(t, h.tracking.SyncShipmentTracking(context.Background(), orderID))
	require.Len(t, h.queue.statusEmails(), 1)
	require.Equal(t, 12, productQuantity(t, h, productID))

	_, err := h.orders.Cancel(context.Background(), orderID)
	require.NoError(t, err)
	require.Equal(t, 12, productQuantity(t, h, productID))
}

func TestSyncStampsCheckedAtOnCarrierError(t *testing.T) {
	h := newFulfillmentHarness(t, true)
	orderID, shipmentID := confirmedShipment(t, h)
	require.Nil(t, h.reloadShipment(t, shipmentID).TrackingCheckedAt)
	h.gateway.trackingErr = errors.New("econt unavailable")

	require.False(t, h.tracking.SyncShipmentTracking(context.Background(), orderID))
	shipment := h.reloadShipment(t, shipmentID)
	require.NotNil(t, shipment.TrackingCheckedAt)
	require.Equal(t, constants.ShipmentStatusConfirmed, shipment.Status)
}

func TestSyncDeliveredCompletesOrder(t *testing.T) {
	h := newFulfillmentHarness(t, true)
	orderID, shipmentID := confirmedShipment(t, h)
	h.gateway.tracking = trackingResult(map[string]interface{}{
		"shortDeliveryStatus": "Получена",
		"deliveryTime":        "2026-10-12T11:20:00+03:00",
	})

	require.True(t, h.tracking.SyncShipmentTracking(context.Background(), orderID))
	require.Equal(t, constants.ShipmentStatusDelivered, h.reloadShipment(t, shipmentID).Status)
	require.Equal(t, constants.OrderStatusCompleted, h.reloadOrder(t, orderID).Status)
}

func TestSyncNeverDowngrades(t *testing.T) {
	h := newFulfillmentHarness(t, true)
	orderID, shipmentID := confirmedShipment(t, h)
	h.gateway.tracking = trackingResult(map[string]interface{}{"shortStatusEn": "In transit"})
	require.True(t, h.tracking.SyncShipmentTracking(context.Background(), orderID))
	require.Equal(t, constants.ShipmentStatusInTransit, h.reloadShipment(t, shipmentID).Status)

	h.gateway.tracking = trackingResult(map[string]interface{}{"shortStatusEn": "Accepted"})
	require.False(t, h.tracking.SyncShipmentTracking(context.Background(), orderID))
	require.Equal(t, constants.ShipmentStatusInTransit, h.reloadShipment(t, shipmentID).Status)
	require.Equal(t, constants.OrderStatusShipped, h.reloadOrder(t, orderID).Status)
}

func TestSyncMergesCarrierResponseAndEvents(t *testing.T) {
	h := newFulfillmentHarness(t, true)
	orderID, shipmentID := confirmedShipment(t, h)
	events := []interface{}{
		map[string]interface{}{"destinationType": "office", "time": "2026-10-10T09:00:00+03:00"},
		map[string]interface{}{"destinationType": "prepared", "time": "2026-10-10T12:00:00+03:00"},
	}
	h.gateway.tracking = trackingResult(map[string]interface{}{
		"shortStatusEn":  "Unknown scan",
		"trackingEvents": events,
	})

	require.True(t, h.tracking.SyncShipmentTracking(context.Background(), orderID))
	shipment := h.reloadShipment(t, shipmentID)
	require.Equal(t, constants.ShipmentStatusConfirmed, shipment.Status)
	require.Len(t, shipment.TrackingEvents, 2)
	require.Contains(t, shipment.CarrierResponse, "label")
	require.Contains(t, shipment.CarrierResponse, "tracking")

	require.False(t, h.tracking.SyncShipmentTracking(context.Background(), orderID))
}

func TestSyncCarrierErrorLeavesStateUntouched(t *testing.T) {
	h := newFulfillmentHarness(t, true)
	orderID, shipmentID := confirmedShipment(t, h)

	h.gateway.tracking = &econt.TrackingResult{Error: "Shipment not found"}
	require.False(t, h.tracking.SyncShipmentTracking(context.Background(), orderID))

	h.gateway.tracking = nil
	h.gateway.trackingErr = errors.New("TransportError: dial tcp: i/o timeout")
	require.False(t, h.tracking.SyncShipmentTracking(context.Background(), orderID))

	require.Equal(t, constants.ShipmentStatusConfirmed, h.reloadShipment(t, shipmentID).Status)
	require.Equal(t, constants.OrderStatusShipped, h.reloadOrder(t, orderID).Status)
}

func TestSyncSkipsWithoutCarrierShipment(t *testing.T) {
	h := newFulfillmentHarness(t, true)
	orderID, _ := readyShipment(t, h, constants.PaymentMethodCard)
	h.gateway.tracking = trackingResult(map[string]interface{}{"shortStatusEn": "Delivered"})
	require.False(t, h.tracking.SyncShipmentTracking(context.Background(), orderID))
	require.False(t, h.tracking.SyncShipmentTracking(context.Background(), 99999))
}

func TestListTrackableOrderIDs(t *testing.T) {
	h := newFulfillmentHarness(t, true)
	orderID, _ := confirmedShipment(t, h)
	readyShipment(t, h, constants.PaymentMethodCOD)

	ids, err := h.tracking.ListTrackableOrderIDs(10)
	require.NoError(t, err)
	require.Equal(t, []uint{orderID}, ids)
}

func TestTrackingStatusTableOverrides(t *testing.T) {
	table := DefaultTrackingStatusTable().WithOverrides(map[string][]string{
		"Delivered": {"Handed over"},
		"unknown":   {"Whatever"},
	})
	require.Equal(t, constants.ShipmentStatusDelivered, table.Classify(map[string]interface{}{"shortStatusEn": "handed  over"}))
	require.Equal(t, "", table.Classify(map[string]interface{}{"shortStatusEn": "Delivered"}))
	require.NotContains(t, table, "unknown")
	require.Equal(t, constants.ShipmentStatusReturned, table.Classify(map[string]interface{}{
		"shortStatusEn":       "Returning to sender",
		"shortDeliveryStatus": "Върната на подателя",
	}))
}
