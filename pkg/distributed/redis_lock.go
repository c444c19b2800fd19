// Package distributed 提供基于 Redis 的分布式锁
// 多实例部署时用于串行化跨实例的竞争路径（如模板版本号分配）
package distributed

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/codesidh/chc-insight-crm-sub000/pkg/logger"
)

// RedisLock Redis 分布式锁（SET NX EX + Lua 原子释放）
type RedisLock struct {
	client   *redis.Client
	key      string
	value    string
	expiry   time.Duration
	ctx      context.Context
	cancelFn context.CancelFunc
}

// NewRedisLock 创建分布式锁
// client 为 nil（Redis 未启用）时锁获取直接失败，调用方靠数据库事务兜底
func NewRedisLock(client *redis.Client, key string, expiry time.Duration) *RedisLock {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisLock{
		client:   client,
		key:      key,
		value:    uuid.New().String(), // 锁值用 UUID，防止误释放他人持有的锁
		expiry:   expiry,
		ctx:      ctx,
		cancelFn: cancel,
	}
}

// TryLock 尝试获取锁（非阻塞）
// Redis 未启用时返回 false 但不报错（优雅降级为单机模式）
func (l *RedisLock) TryLock() (bool, error) {
	if l.client == nil {
		return false, nil
	}

	result, err := l.client.SetNX(l.ctx, l.key, l.value, l.expiry).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}

	if result {
		go l.autoRenew()
	}
	return result, nil
}

// Unlock 释放锁，只有持有者能释放（Lua 脚本保证原子性）
func (l *RedisLock) Unlock() error {
	if l.client == nil {
		l.cancelFn()
		return nil
	}

	script := `
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`

	result, err := l.client.Eval(context.Background(), script, []string{l.key}, l.value).Result()
	if err != nil {
		l.cancelFn()
		return fmt.Errorf("failed to release lock: %w", err)
	}
	l.cancelFn()

	if result == int64(0) {
		logger.Warnf("lock %s was not held by this instance", l.key)
	}
	return nil
}

// autoRenew 自动续期（每 expiry/3 续期一次，锁丢失或释放后停止）
func (l *RedisLock) autoRenew() {
	ticker := time.NewTicker(l.expiry / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			script := `
				if redis.call("get", KEYS[1]) == ARGV[1] then
					return redis.call("expire", KEYS[1], ARGV[2])
				else
					return 0
				end
			`
			result, err := l.client.Eval(l.ctx, script, []string{l.key}, l.value, int(l.expiry.Seconds())).Result()
			if err != nil {
				logger.Warnf("failed to renew lock %s: %v", l.key, err)
				return
			}
			if result == int64(0) {
				logger.Warnf("lost lock %s, stopping auto-renew", l.key)
				return
			}

		case <-l.ctx.Done():
			return
		}
	}
}
