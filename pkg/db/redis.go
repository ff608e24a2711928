package db

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisOptions Redis 后端配置
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Key      string        // 文档所在的 key
	LockTTL  time.Duration // 锁过期时间，防止持锁进程崩溃后死锁
}

// NewRedisClient 创建 Redis 客户端
func NewRedisClient(opt RedisOptions) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     opt.Addr,
		Password: opt.Password,
		DB:       opt.DB,
	})
}

// 只删除自己持有的锁
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

const lockPollInterval = 20 * time.Millisecond

// RedisDocument 把整份文档存为一个字符串 key，同时提供 SETNX 分布式锁
type RedisDocument struct {
	rdb     *redis.Client
	key     string
	lockKey string
	lockTTL time.Duration
}

func NewRedisDocument(rdb *redis.Client, key string, lockTTL time.Duration) *RedisDocument {
	if lockTTL <= 0 {
		lockTTL = 10 * time.Second
	}
	return &RedisDocument{
		rdb:     rdb,
		key:     key,
		lockKey: key + ":lock",
		lockTTL: lockTTL,
	}
}

func (d *RedisDocument) Name() string {
	return "redis:" + d.key
}

func (d *RedisDocument) Read(ctx context.Context) ([]byte, error) {
	data, err := d.rdb.Get(ctx, d.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", d.key, err)
	}
	return data, nil
}

func (d *RedisDocument) Write(ctx context.Context, data []byte) error {
	if err := d.rdb.Set(ctx, d.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", d.key, err)
	}
	return nil
}

func (d *RedisDocument) Preserve(ctx context.Context, data []byte) (string, error) {
	backup := d.key + ":corrupt:" + strconv.FormatInt(time.Now().UnixNano(), 10)
	if err := d.rdb.Set(ctx, backup, data, 0).Err(); err != nil {
		return "", fmt.Errorf("redis set %s: %w", backup, err)
	}
	return backup, nil
}

// Lock 轮询 SETNX，直到拿到锁或 ctx 结束
func (d *RedisDocument) Lock(ctx context.Context) (func(), error) {
	token, err := newLockToken()
	if err != nil {
		return nil, err
	}

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		ok, err := d.rdb.SetNX(ctx, d.lockKey, token, d.lockTTL).Result()
		if err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			return nil, fmt.Errorf("redis lock %s: %w", d.lockKey, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("redis lock %s: %w", d.lockKey, ctx.Err())
		case <-ticker.C:
		}
	}

	unlock := func() {
		// 释放锁不受调用方 ctx 取消的影响
		_ = unlockScript.Run(context.Background(), d.rdb, []string{d.lockKey}, token).Err()
	}
	return unlock, nil
}

func newLockToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate lock token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
