package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BerniceZTT/territory_end/utils"
)

// ErrCacheMiss 键不存在
var ErrCacheMiss = errors.New("cache miss")

// RedisClient wraps redis.Client
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient 连接 Redis，失败时返回 nil，调用方退化为不缓存
func NewRedisClient(host, port, password string) *RedisClient {
	addr := fmt.Sprintf("%s:%s", host, port)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		utils.Logger.Warn().Err(err).Str("addr", addr).Msg("连接Redis失败，看板缓存已关闭")
		_ = client.Close()
		return nil
	}

	utils.Logger.Info().Str("addr", addr).Msg("已连接到Redis")
	return &RedisClient{client: client}
}

// NewFromClient 包装已有客户端
func NewFromClient(client *redis.Client) *RedisClient {
	return &RedisClient{client: client}
}

// Set 以 JSON 存储并设置过期时间
func (r *RedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if r == nil || r.client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	jsonBytes, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("序列化缓存值失败: %w", err)
	}

	return r.client.Set(ctx, key, jsonBytes, expiration).Err()
}

// Get 读取 JSON 值，键不存在时返回 ErrCacheMiss
func (r *RedisClient) Get(ctx context.Context, key string, dest interface{}) error {
	if r == nil || r.client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return err
	}

	return json.Unmarshal(val, dest)
}

// DeletePrefix 删除指定前缀的所有键
func (r *RedisClient) DeletePrefix(ctx context.Context, prefix string) error {
	if r == nil || r.client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	iter := r.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

// Ping 检查连接
func (r *RedisClient) Ping(ctx context.Context) error {
	if r == nil || r.client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	if r != nil && r.client != nil {
		return r.client.Close()
	}
	return nil
}
