package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type LimiterConfig struct {
	Capacity int
	Rate     int // tokens/秒
	// key 閒置多久後過期
	IdleTTL time.Duration
}

func GetDefaultLimiterConfig() LimiterConfig {
	return LimiterConfig{
		Capacity: 10,
		Rate:     1,
		IdleTTL:  time.Minute,
	}
}

// RedisClient *redis.Client 或 ClusterClient 皆可
type RedisClient interface {
	redis.Scripter
}

var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local rate = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	-- 取得或初始化 bucket 狀態
	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local currentTokens = tonumber(bucket[1])
	local lastRefill = tonumber(bucket[2])

	if currentTokens == nil then
		currentTokens = capacity
		lastRefill = now
	end

	-- 計算需要補充的 tokens (毫秒)
	local elapsed = (now - lastRefill) / 1000
	if elapsed < 0 then
		elapsed = 0
	end
	currentTokens = math.min(capacity, currentTokens + elapsed * rate)

	local allowed = 0
	if currentTokens >= 1 then
		currentTokens = currentTokens - 1
		allowed = 1
	end

	redis.call('HSET', key, 'tokens', tostring(currentTokens), 'last_refill', tostring(now))
	redis.call('EXPIRE', key, ttl)
	return allowed
`)

// RedisTokenBucket 多個 instance 共用同一個 bucket
type RedisTokenBucket struct {
	LimiterConfig
	client RedisClient
	now    func() time.Time
}

func NewRedisTokenBucket(client RedisClient, config *LimiterConfig) *RedisTokenBucket {
	rb := &RedisTokenBucket{
		client: client,
		now:    time.Now,
	}
	if config != nil {
		rb.LimiterConfig = *config
	} else {
		rb.LimiterConfig = GetDefaultLimiterConfig()
	}
	if rb.IdleTTL <= 0 {
		rb.IdleTTL = time.Minute
	}
	return rb
}

// Allow redis 失敗時回傳 error，由呼叫端決定放行或拒絕
func (r *RedisTokenBucket) Allow(ctx context.Context, key string) (bool, error) {
	ttl := int64(r.IdleTTL / time.Second)
	if ttl < 1 {
		ttl = 1
	}
	result, err := tokenBucketScript.Run(
		ctx,
		r.client,
		[]string{"ratelimit:" + key},
		r.Capacity,
		r.Rate,
		r.now().UnixMilli(),
		ttl,
	).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limit eval: %w", err)
	}
	return result == 1, nil
}
