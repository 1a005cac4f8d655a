package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/vitrina-shop/internal/cache"
	"github.com/vitrina-shop/internal/config"
	"github.com/vitrina-shop/internal/logger"

	"go.uber.org/multierr"
)

const (
	trackingPollLockKey    = "tracking_poll"
	defaultTrackingBatch   = 100
	defaultTrackingLockTTL = 10 * time.Minute
)

// TrackingSource 待同步订单来源（*service.TrackingService 实现）
type TrackingSource interface {
	ListTrackableOrderIDs(limit int) ([]uint, error)
	SyncShipmentTracking(ctx context.Context, orderID uint) bool
}

// TrackingEnqueuer 物流同步任务投递（*queue.Client 实现）
type TrackingEnqueuer interface {
	Enabled() bool
	EnqueueTrackingSync(orderID uint, window time.Duration) error
}

// TrackingPoller 周期性扫描已发货运单并投递同步任务
type TrackingPoller struct {
	source    TrackingSource
	queue     TrackingEnqueuer
	lock      cache.Lock
	interval  time.Duration
	batchSize int
	started   atomic.Bool
	done      chan struct{}
}

// NewTrackingPoller 创建轮询器；lock 为空时不做跨实例互斥
func NewTrackingPoller(cfg config.TrackingConfig, source TrackingSource, queueClient TrackingEnqueuer, lock cache.Lock) *TrackingPoller {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultTrackingBatch
	}
	return &TrackingPoller{
		source:    source,
		queue:     queueClient,
		lock:      lock,
		interval:  cfg.PollInterval(),
		batchSize: batch,
		done:      make(chan struct{}),
	}
}

// NewTrackingLock 基于 Redis 的轮询锁，Redis 未启用时返回 nil
func NewTrackingLock(cfg config.TrackingConfig) cache.Lock {
	store := cache.NewLockStore()
	if store == nil {
		return nil
	}
	ttl := time.Duration(cfg.LockTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultTrackingLockTTL
	}
	lock, err := cache.NewRedisLock(store, trackingPollLockKey, ttl)
	if err != nil {
		logger.Warnw("tracking_poll_lock_init_failed", "error", err)
		return nil
	}
	return lock
}

// Name 服务名称
func (p *TrackingPoller) Name() string {
	return "tracking_poller"
}

// Start 作为独立服务运行（队列关闭时使用）
func (p *TrackingPoller) Start(ctx context.Context) error {
	if p == nil || p.source == nil {
		return errors.New("tracking poller not initialized")
	}
	p.Run(ctx)
	return nil
}

// Stop 停止服务
func (p *TrackingPoller) Stop(ctx context.Context) error {
	if p == nil || !p.started.Load() {
		return nil
	}
	select {
	case <-p.done:
	case <-ctx.Done():
	}
	return nil
}

// Run 立即执行一次，随后按间隔执行，直到 ctx 结束
func (p *TrackingPoller) Run(ctx context.Context) {
	if p == nil || p.source == nil || !p.started.CompareAndSwap(false, true) {
		return
	}
	defer close(p.done)
	runOnce := func() {
		if _, err := p.Sweep(ctx); err != nil {
			logger.Warnw("tracking_poll_sweep_failed", "error", err)
		}
	}
	runOnce()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

// Sweep 执行一轮扫描，返回处理的订单数
func (p *TrackingPoller) Sweep(ctx context.Context) (int, error) {
	if p.lock != nil {
		acquired, err := p.lock.Acquire(ctx)
		if err != nil {
			return 0, err
		}
		if !acquired {
			logger.Debugw("tracking_poll_skipped_lock_held")
			return 0, nil
		}
		defer func() {
			if err := p.lock.Release(context.Background()); err != nil {
				logger.Warnw("tracking_poll_lock_release_failed", "error", err)
			}
		}()
	}

	orderIDs, err := p.source.ListTrackableOrderIDs(p.batchSize)
	if err != nil {
		return 0, err
	}
	inline := p.queue == nil || !p.queue.Enabled()
	var errs error
	processed := 0
	for _, orderID := range orderIDs {
		if ctx.Err() != nil {
			break
		}
		if inline {
			p.source.SyncShipmentTracking(ctx, orderID)
			processed++
			continue
		}
		if err := p.queue.EnqueueTrackingSync(orderID, p.interval); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		processed++
	}
	logger.Infow("tracking_poll_sweep_done",
		"candidates", len(orderIDs),
		"processed", processed,
		"inline", inline,
	)
	return processed, errs
}
