package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// 只有 token 匹配时才删除，避免误删他人持有的锁
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Locker 基于 Redis SETNX 的轻量互斥锁
// 用于播放校验的 check-then-insert 原子化和结算任务的按月互斥
// 每次获取生成随机 token，释放时校验 token，
// 持有超过 TTL 的调用方不会删掉下一个持有者的锁
type Locker struct {
	client *redis.Client
	prefix string

	mu     sync.Mutex
	tokens map[string]string
}

func NewLocker(client *redis.Client, prefix string) *Locker {
	return &Locker{
		client: client,
		prefix: prefix,
		tokens: make(map[string]string),
	}
}

// Acquire 尝试获取锁，返回是否成功；ttl 防止持有方崩溃后死锁
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token, err := newToken()
	if err != nil {
		return false, err
	}

	acquired, err := l.client.SetNX(ctx, l.prefix+":"+key, token, ttl).Result()
	if err != nil || !acquired {
		return acquired, err
	}

	l.mu.Lock()
	l.tokens[key] = token
	l.mu.Unlock()
	return true, nil
}

// Release 释放锁，仅当锁仍归本实例本次获取持有时删除
func (l *Locker) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	token, ok := l.tokens[key]
	delete(l.tokens, key)
	l.mu.Unlock()
	if !ok {
		return nil
	}

	return releaseScript.Run(ctx, l.client, []string{l.prefix + ":" + key}, token).Err()
}

func newToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
