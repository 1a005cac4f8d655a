package queue

import (
	"time"

	"github.com/hibiken/asynq"
)

// RetryPolicy 单个任务类型的重试配置，与处理函数一同声明
type RetryPolicy struct {
	MaxAttempts int             // 总尝试次数（含首次）
	Backoff     []time.Duration // 第 n 次失败后的等待时间，超出长度取最后一项
	Timeout     time.Duration
	Queue       string
}

// MaxRetry 转换为 asynq 的重试次数
func (p RetryPolicy) MaxRetry() int {
	if p.MaxAttempts <= 1 {
		return 0
	}
	return p.MaxAttempts - 1
}

// Delay 第 retried 次重试前的等待时间
func (p RetryPolicy) Delay(retried int) time.Duration {
	if len(p.Backoff) == 0 {
		return 0
	}
	if retried < 0 {
		retried = 0
	}
	if retried >= len(p.Backoff) {
		return p.Backoff[len(p.Backoff)-1]
	}
	return p.Backoff[retried]
}

var defaultEmailPolicy = RetryPolicy{
	MaxAttempts: 5,
	Backoff:     []time.Duration{time.Minute, 5 * time.Minute, 15 * time.Minute, time.Hour},
	Timeout:     30 * time.Second,
	Queue:       DefaultQueue,
}

// RetryPolicies 各任务的重试策略
var RetryPolicies = map[string]RetryPolicy{
	TaskShipmentCreate: {
		MaxAttempts: 3,
		Backoff:     []time.Duration{10 * time.Second, 30 * time.Second},
		Timeout:     30 * time.Second,
		Queue:       CriticalQueue,
	},
	TaskShipmentSubmit: {
		MaxAttempts: 3,
		Backoff:     []time.Duration{30 * time.Second, 60 * time.Second, 120 * time.Second},
		Timeout:     90 * time.Second,
		Queue:       CriticalQueue,
	},
	TaskOrderShippingCost: {
		MaxAttempts: 3,
		Backoff:     []time.Duration{30 * time.Second, 120 * time.Second, 300 * time.Second},
		Timeout:     90 * time.Second,
		Queue:       DefaultQueue,
	},
	TaskShipmentTrackingSync: {
		MaxAttempts: 1,
		Timeout:     90 * time.Second,
		Queue:       DefaultQueue,
	},
	TaskShipmentTrackingEmail:   defaultEmailPolicy,
	TaskShipmentFailedAlert:     defaultEmailPolicy,
	TaskOrderShippingCostFailed: defaultEmailPolicy,
	TaskOrderConfirmation:       defaultEmailPolicy,
	TaskOrderAdminNotification:  defaultEmailPolicy,
	TaskOrderStatusEmail:        defaultEmailPolicy,
}

// PolicyFor 查询任务重试策略
func PolicyFor(taskType string) RetryPolicy {
	if policy, ok := RetryPolicies[taskType]; ok {
		return policy
	}
	return defaultEmailPolicy
}

// RetryDelay asynq RetryDelayFunc，按任务类型查表
func RetryDelay(retried int, err error, task *asynq.Task) time.Duration {
	if task == nil {
		return asynq.DefaultRetryDelayFunc(retried, err, task)
	}
	policy := PolicyFor(task.Type())
	if len(policy.Backoff) == 0 {
		return asynq.DefaultRetryDelayFunc(retried, err, task)
	}
	return policy.Delay(retried)
}

func (p RetryPolicy) options() []asynq.Option {
	opts := []asynq.Option{asynq.MaxRetry(p.MaxRetry())}
	if p.Queue != "" {
		opts = append(opts, asynq.Queue(p.Queue))
	}
	if p.Timeout > 0 {
		opts = append(opts, asynq.Timeout(p.Timeout))
	}
	return opts
}
