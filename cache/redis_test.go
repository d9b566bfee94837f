package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNilClient(t *testing.T) {
	var r *RedisClient
	ctx := context.Background()

	assert.Error(t, r.Set(ctx, "k", 1, time.Minute))
	var out int
	assert.Error(t, r.Get(ctx, "k", &out))
	assert.Error(t, r.DeletePrefix(ctx, "k"))
	assert.Error(t, r.Ping(ctx))
	assert.NoError(t, r.Close())
}

func TestNewRedisClientUnreachable(t *testing.T) {
	// 端口1上没有服务，连接被拒绝
	r := NewRedisClient("127.0.0.1", "1", "")
	assert.Nil(t, r)
}
