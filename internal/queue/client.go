package queue

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vitrina-shop/internal/config"
	"github.com/vitrina-shop/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 运单相关任务队列
	CriticalQueue = constants.QueueCritical
)

// Client 队列客户端封装
type Client struct {
	client   *asynq.Client
	enabled  bool
	mu       sync.RWMutex
	policies map[string]RetryPolicy
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	policies := make(map[string]RetryPolicy, len(RetryPolicies))
	for taskType, policy := range RetryPolicies {
		policies[taskType] = policy
	}
	if cfg == nil || !cfg.Enabled {
		return &Client{enabled: false, policies: policies}, nil
	}
	opt := buildRedisOpt(cfg)
	client := asynq.NewClient(opt)
	return &Client{
		client:   client,
		enabled:  true,
		policies: policies,
	}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// SetMaxAttempts 覆盖任务的总尝试次数
func (c *Client) SetMaxAttempts(taskType string, attempts int) {
	if c == nil || attempts <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	policy := PolicyFor(taskType)
	if existing, ok := c.policies[taskType]; ok {
		policy = existing
	}
	policy.MaxAttempts = attempts
	c.policies[taskType] = policy
}

// Policy 返回客户端生效的重试策略
func (c *Client) Policy(taskType string) RetryPolicy {
	if c == nil {
		return PolicyFor(taskType)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if policy, ok := c.policies[taskType]; ok {
		return policy
	}
	return PolicyFor(taskType)
}

func (c *Client) enqueue(taskType string, payload interface{}, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewTask(taskType, payload)
	if err != nil {
		return err
	}
	options := append(c.Policy(taskType).options(), opts...)
	_, err = c.client.Enqueue(task, options...)
	if errors.Is(err, asynq.ErrDuplicateTask) || errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

// EnqueueShipmentCreate 推送创建运单任务
func (c *Client) EnqueueShipmentCreate(orderID uint) error {
	return c.enqueue(TaskShipmentCreate, OrderPayload{OrderID: orderID},
		asynq.TaskID(fmt.Sprintf("%s:%d", TaskShipmentCreate, orderID)))
}

// EnqueueShipmentSubmit 推送提交运单任务
func (c *Client) EnqueueShipmentSubmit(shipmentID uint) error {
	return c.enqueue(TaskShipmentSubmit, ShipmentPayload{ShipmentID: shipmentID})
}

// EnqueueTrackingSync 推送物流同步任务，同一订单在窗口期内只排队一次
func (c *Client) EnqueueTrackingSync(orderID uint, window time.Duration) error {
	opts := []asynq.Option{}
	if window > 0 {
		opts = append(opts, asynq.Unique(window))
	}
	return c.enqueue(TaskShipmentTrackingSync, OrderPayload{OrderID: orderID}, opts...)
}

// EnqueueTrackingEmail 推送物流追踪邮件
func (c *Client) EnqueueTrackingEmail(shipmentID uint) error {
	return c.enqueue(TaskShipmentTrackingEmail, ShipmentPayload{ShipmentID: shipmentID})
}

// EnqueueShipmentFailedAlert 推送运单失败告警
func (c *Client) EnqueueShipmentFailedAlert(payload FailureAlertPayload) error {
	return c.enqueue(TaskShipmentFailedAlert, payload)
}

// EnqueueShippingCost 推送运费计算任务
func (c *Client) EnqueueShippingCost(orderID uint) error {
	return c.enqueue(TaskOrderShippingCost, OrderPayload{OrderID: orderID})
}

// EnqueueShippingCostFailedAlert 推送运费计算失败告警
func (c *Client) EnqueueShippingCostFailedAlert(payload FailureAlertPayload) error {
	return c.enqueue(TaskOrderShippingCostFailed, payload)
}

// EnqueueOrderConfirmation 推送订单确认邮件
func (c *Client) EnqueueOrderConfirmation(orderID uint) error {
	return c.enqueue(TaskOrderConfirmation, OrderPayload{OrderID: orderID})
}

// EnqueueAdminNotification 推送新订单后台通知
func (c *Client) EnqueueAdminNotification(orderID uint) error {
	return c.enqueue(TaskOrderAdminNotification, OrderPayload{OrderID: orderID})
}

// EnqueueOrderStatusEmail 推送订单状态邮件任务
func (c *Client) EnqueueOrderStatusEmail(payload OrderStatusEmailPayload) error {
	return c.enqueue(TaskOrderStatusEmail, payload)
}

// BuildServerConfig 生成队列服务配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	opt := buildRedisOpt(cfg)
	concurrency := 10
	if cfg != nil && cfg.Concurrency > 0 {
		concurrency = cfg.Concurrency
	}
	queues := map[string]int{DefaultQueue: 1, CriticalQueue: 1}
	if cfg != nil && len(cfg.Queues) > 0 {
		queues = cfg.Queues
	}
	return opt, asynq.Config{
		Concurrency:    concurrency,
		Queues:         queues,
		RetryDelayFunc: RetryDelay,
	}
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	host := "127.0.0.1"
	port := 6379
	password := ""
	db := 0
	if cfg != nil {
		if strings.TrimSpace(cfg.Host) != "" {
			host = strings.TrimSpace(cfg.Host)
		}
		if cfg.Port > 0 {
			port = cfg.Port
		}
		password = cfg.Password
		db = cfg.DB
	}
	return asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	}
}
