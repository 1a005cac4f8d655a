package worker

import (
	"context"
	"errors"

	"github.com/vitrina-shop/internal/config"
	"github.com/vitrina-shop/internal/logger"
	"github.com/vitrina-shop/internal/queue"

	"github.com/hibiken/asynq"
)

// Service 异步队列服务：asynq 消费者 + 物流轮询器
type Service struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	poller *TrackingPoller
}

// NewService 创建异步队列服务，poller 可为空
func NewService(cfg *config.QueueConfig, consumer *Consumer, poller *TrackingPoller) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	serverCfg.ErrorHandler = asynq.ErrorHandlerFunc(consumer.HandleError)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		server: asynq.NewServer(opt, serverCfg),
		mux:    mux,
		poller: poller,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	return "worker"
}

// Start 启动消费者，阻塞到 ctx 结束；信号由 app.Runner 统一处理
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	if s.poller != nil {
		go s.poller.Run(ctx)
	} else {
		logger.Infow("worker_tracking_poller_disabled")
	}
	<-ctx.Done()
	return nil
}

// Stop 等待进行中的任务完成后关闭，并等待轮询器退出
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	s.server.Shutdown()
	if s.poller != nil {
		return s.poller.Stop(ctx)
	}
	return nil
}
