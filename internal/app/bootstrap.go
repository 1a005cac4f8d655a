package app

import (
	"errors"

	"github.com/vitrina-shop/internal/config"
	"github.com/vitrina-shop/internal/logger"
	"github.com/vitrina-shop/internal/provider"
	"github.com/vitrina-shop/internal/router"
	"github.com/vitrina-shop/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	mode, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}

	container := provider.NewContainer(cfg)

	var services []Service

	// 初始化 HTTP 服务
	if servesHTTP(mode) {
		engine := router.SetupRouter(cfg, container)
		services = append(services, NewHTTPService(engine, cfg.Server))
	}

	// 初始化 Worker 服务
	if runsWorker(mode) {
		var poller *worker.TrackingPoller
		if cfg.Tracking.Enabled && cfg.Econt.Enabled {
			poller = worker.NewTrackingPoller(cfg.Tracking, container.TrackingService, container.QueueClient, worker.NewTrackingLock(cfg.Tracking))
		}
		if cfg.Queue.Enabled {
			consumer := worker.NewConsumer(container)
			workerService, err := worker.NewService(&cfg.Queue, consumer, poller)
			if err != nil {
				return nil, err
			}
			services = append(services, workerService)
		} else if poller != nil {
			// 队列关闭时物流同步在轮询器内直接执行
			logger.Warnw("app_queue_disabled_tracking_inline")
			services = append(services, poller)
		} else if mode == ModeWorker {
			return nil, errors.New("queue disabled")
		}
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts, err := normalizeOptions(opts)
	if err != nil {
		return err
	}
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start",
		"addr", opts.Config.Server.Host+":"+opts.Config.Server.Port,
		"mode", opts.Mode,
		"services", runner.Names(),
	)
	return RunWithOptions(runner, opts)
}
