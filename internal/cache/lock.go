package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultLockTTL = 10 * time.Minute

// ErrLockStoreRequired 未配置 Redis 时无法创建分布式锁
var ErrLockStoreRequired = errors.New("redis client required for lock")

// Lock 跨进程互斥（多实例部署时只允许一个实例执行定时任务）
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// LockStore RedisLock 依赖的 Redis 操作
type LockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLock SETNX + TTL 实现的锁，只有持有者能释放
type RedisLock struct {
	store LockStore
	key   string
	ttl   time.Duration
	owner string
}

// NewRedisLock 创建锁，key 自动加前缀
func NewRedisLock(store LockStore, key string, ttl time.Duration) (*RedisLock, error) {
	if store == nil {
		return nil, ErrLockStoreRequired
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{store: store, key: buildKey("lock:" + key), ttl: ttl}, nil
}

// Acquire 尝试在 TTL 内持有锁
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	owner := uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx: %w", err)
	}
	if ok {
		l.owner = owner
	}
	return ok, nil
}

// Release 仅当持有者仍是自己时删除
func (l *RedisLock) Release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	value, err := l.store.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			l.owner = ""
			return nil
		}
		return fmt.Errorf("read lock owner: %w", err)
	}
	if value != l.owner {
		l.owner = ""
		return nil
	}
	if err := l.store.Del(ctx, l.key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	l.owner = ""
	return nil
}

// clientStore 将 *redis.Client 适配为 LockStore
type clientStore struct {
	client *redis.Client
}

// NewLockStore 使用全局 Redis 客户端，未启用时返回 nil
func NewLockStore() LockStore {
	if !Enabled() {
		return nil
	}
	return clientStore{client: redisClient}
}

func (s clientStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, value, ttl).Result()
}

func (s clientStore) Get(ctx context.Context, key string) (string, error) {
	return s.client.Get(ctx, key).Result()
}

func (s clientStore) Del(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}
