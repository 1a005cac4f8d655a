package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vitrina-shop/internal/constants"
	"github.com/vitrina-shop/internal/logger"
	"github.com/vitrina-shop/internal/metrics"
	"github.com/vitrina-shop/internal/models"
	"github.com/vitrina-shop/internal/repository"

	"gorm.io/gorm"
)

// TrackingService 承运商物流状态同步
type TrackingService struct {
	orderRepo      repository.OrderRepository
	shipmentRepo   repository.ShipmentRepository
	stock          *StockLedger
	carrier        CarrierGateway
	queueClient    TaskQueue
	table          TrackingStatusTable
	metrics        *metrics.Metrics
	carrierEnabled bool
	now            func() time.Time
}

// NewTrackingService 创建物流同步服务
func NewTrackingService(orderRepo repository.OrderRepository, shipmentRepo repository.ShipmentRepository, stock *StockLedger, carrier CarrierGateway, queueClient TaskQueue, table TrackingStatusTable, m *metrics.Metrics, carrierEnabled bool) *TrackingService {
	if table == nil {
		table = DefaultTrackingStatusTable()
	}
	return &TrackingService{
		orderRepo:      orderRepo,
		shipmentRepo:   shipmentRepo,
		stock:          stock,
		carrier:        carrier,
		queueClient:    queueClient,
		table:          table,
		metrics:        m,
		carrierEnabled: carrierEnabled,
		now:            time.Now,
	}
}

// SyncShipmentTracking 拉取承运商状态并同步运单/订单，返回是否有变化；从不向调用方抛错
func (s *TrackingService) SyncShipmentTracking(ctx context.Context, orderID uint) (changed bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorw("tracking_sync_panic", "order_id", orderID, "panic", r)
			s.metrics.IncTrackingSync("error")
			changed = false
		}
	}()
	changed, result, err := s.sync(ctx, orderID)
	if err != nil {
		logger.Warnw("tracking_sync_failed", "order_id", orderID, "error", err)
		s.metrics.IncTrackingSync("error")
		return false
	}
	s.metrics.IncTrackingSync(result)
	return changed
}

// ListTrackableOrderIDs 需要轮询的订单
func (s *TrackingService) ListTrackableOrderIDs(limit int) ([]uint, error) {
	return s.orderRepo.ListTrackableOrderIDs(limit)
}

func (s *TrackingService) sync(ctx context.Context, orderID uint) (bool, string, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return false, "", err
	}
	if order == nil {
		return false, "", ErrOrderNotFound
	}
	shipment := order.Shipment
	if isTrackingTerminalOrder(order.Status) || shipment == nil ||
		strings.TrimSpace(shipment.CarrierShipmentID) == "" || !s.carrierEnabled {
		return false, "skipped", nil
	}
	log := logger.ForShipment(shipment.ID, order.ID)

	// 先记录查询时间，出错的运单也会轮转到队尾
	if err := s.shipmentRepo.Update(shipment.ID, map[string]interface{}{"tracking_checked_at": s.now()}); err != nil {
		log.Warnw("tracking_checked_at_update_failed", "error", err)
	}

	result, err := s.carrier.TrackShipment(ctx, shipment.CarrierShipmentID)
	if err != nil {
		return false, "", err
	}
	if result == nil {
		return false, "", fmt.Errorf("empty tracking result")
	}
	if result.Error != "" {
		log.Warnw("tracking_sync_carrier_error", "carrier_error", result.Error)
		return false, "carrier_error", nil
	}

	target := s.table.Classify(result.Status)
	updates := map[string]interface{}{
		"carrier_response": mergeTrackingResponse(shipment.CarrierResponse, result.Raw),
	}
	events := trackingEventsFrom(result.Status)
	eventsChanged := events != nil && len(events) != len(shipment.TrackingEvents)
	if events != nil {
		updates["tracking_events"] = events
	}

	shipmentChanged := false
	if target != "" && target != shipment.Status && canTrackTo(shipment.Status, target) {
		ok, err := s.shipmentRepo.TryTransition(shipment.ID, shipment.Status, target, updates)
		if err != nil {
			return false, "", err
		}
		shipmentChanged = ok
		if ok {
			log.Infow("tracking_shipment_status_changed", "from", shipment.Status, "to", target)
			shipment.Status = target
		}
	}
	if !shipmentChanged {
		if err := s.shipmentRepo.Update(shipment.ID, updates); err != nil {
			return false, "", err
		}
	}

	orderChanged := false
	if orderTarget, ok := shipmentToOrderStatus[shipment.Status]; ok && !orderStatusReached(order.Status, orderTarget) {
		var err error
		if orderTarget == constants.OrderStatusCancelled {
			orderChanged, err = s.cancelOrder(order)
		} else {
			err = s.orderRepo.UpdateStatus(order.ID, orderTarget, map[string]interface{}{"updated_at": s.now()})
			orderChanged = err == nil
		}
		if err != nil {
			return shipmentChanged, "", err
		}
		if orderChanged {
			log.Infow("tracking_order_status_changed", "from", order.Status, "to", orderTarget)
			if _, err := enqueueOrderStatusEmailIfEligible(s.queueClient, order, orderTarget); err != nil {
				log.Warnw("tracking_order_status_email_enqueue_failed", "error", err)
			}
		}
	}

	changed := shipmentChanged || orderChanged || eventsChanged
	if changed {
		return true, "changed", nil
	}
	return false, "unchanged", nil
}

// cancelOrder 承运商取消后按与后台取消相同的条件更新回补库存
func (s *TrackingService) cancelOrder(order *models.Order) (bool, error) {
	claimed := false
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		ok, err := cancelOrderInTx(tx, s.orderRepo, s.stock, order, s.now())
		claimed = ok
		return err
	})
	if err != nil {
		return false, err
	}
	return claimed, nil
}

func mergeTrackingResponse(existing models.JSON, raw map[string]interface{}) models.JSON {
	merged := models.JSON{}
	if existing != nil {
		merged = existing.Clone()
	}
	merged["tracking"] = raw
	return merged
}

func trackingEventsFrom(status map[string]interface{}) models.JSONList {
	if status == nil {
		return nil
	}
	events, ok := status["trackingEvents"].([]interface{})
	if !ok {
		return nil
	}
	return models.JSONList(events)
}
