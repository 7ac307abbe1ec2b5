package redis_repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/cart"
	"github.com/redis/go-redis/v9"
)

var ErrCorruptCart = errors.New("stored cart is corrupt")

// CartRepo 每個 session 一個 key，存整份 item list
// 每次異動都整份覆寫並重設 TTL
type CartRepo struct {
	CartCache *redis.Client
	ttl       time.Duration
}

func NewCartRepo(cartCache *redis.Client, ttl time.Duration) *CartRepo {
	return &CartRepo{CartCache: cartCache, ttl: ttl}
}

func generateCartItemKey(sessionID string) string {
	return fmt.Sprintf("cart:%s:items", sessionID)
}

// Get key 不存在時回傳空 slice
// 內容無法解析時回傳 ErrCorruptCart，由呼叫端決定如何處理
func (r *CartRepo) Get(ctx context.Context, sessionID string) ([]cart.Item, error) {
	data, err := r.CartCache.Get(ctx, generateCartItemKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []cart.Item{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	var items []cart.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptCart, err)
	}
	return items, nil
}

func (r *CartRepo) Save(ctx context.Context, sessionID string, items []cart.Item) error {
	if len(items) == 0 {
		return r.Delete(ctx, sessionID)
	}
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	if err := r.CartCache.Set(ctx, generateCartItemKey(sessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func (r *CartRepo) Delete(ctx context.Context, sessionID string) error {
	if err := r.CartCache.Del(ctx, generateCartItemKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}
