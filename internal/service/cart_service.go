package service

import (
	"context"
	"errors"
	"strings"

	"github.com/RoyceAzure/lab/storefront/internal/domain/cart"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/rs/zerolog/log"
)

type ICartRepository interface {
	Get(ctx context.Context, sessionID string) ([]cart.Item, error)
	Save(ctx context.Context, sessionID string, items []cart.Item) error
	Delete(ctx context.Context, sessionID string) error
}

var _ ICartRepository = (*redis_repo.CartRepo)(nil)

type ProductLookup interface {
	Get(ctx context.Context, id string) (*model.Product, error)
}

type ICartService interface {
	GetCart(ctx context.Context, sessionID string) (*cart.Cart, error)
	AddItem(ctx context.Context, sessionID, productID string) (*cart.Cart, error)
	RemoveItem(ctx context.Context, sessionID, productID string) (*cart.Cart, error)
	UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) (*cart.Cart, error)
	Clear(ctx context.Context, sessionID string) error
	CheckoutCart(ctx context.Context, sessionID string, place func(items []cart.Item) error) error
}

// CartService load -> 狀態轉換 -> 整份寫回
// 同一個 session 的異動在本 instance 內序列化，跨 instance 最後寫入者勝
type CartService struct {
	repo     ICartRepository
	products ProductLookup
	locks    *keyedMutex
}

var _ ICartService = (*CartService)(nil)

func NewCartService(repo ICartRepository, products ProductLookup) *CartService {
	if repo == nil {
		panic("cart service dependency cart repo is nil")
	}
	if products == nil {
		panic("cart service dependency product lookup is nil")
	}
	return &CartService{repo: repo, products: products, locks: newKeyedMutex()}
}

func checkSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return apperr.Validation(map[string]string{"session": "session id is required"})
	}
	return nil
}

// load 資料損壞視為空購物車
func (s *CartService) load(ctx context.Context, sessionID string) (*cart.Cart, error) {
	items, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, redis_repo.ErrCorruptCart) {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("corrupt cart reset to empty")
			return cart.New(), nil
		}
		return nil, err
	}
	return cart.New(items...), nil
}

func (s *CartService) GetCart(ctx context.Context, sessionID string) (*cart.Cart, error) {
	if err := checkSession(sessionID); err != nil {
		return nil, err
	}
	return s.load(ctx, sessionID)
}

func (s *CartService) mutate(ctx context.Context, sessionID string, fn func(c *cart.Cart) error) (*cart.Cart, error) {
	if err := checkSession(sessionID); err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	c, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, sessionID, c.Items()); err != nil {
		return nil, err
	}
	return c, nil
}

// AddItem 不檢查庫存，數量不設上限
func (s *CartService) AddItem(ctx context.Context, sessionID, productID string) (*cart.Cart, error) {
	p, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, sessionID, func(c *cart.Cart) error {
		c.AddItem(p)
		return nil
	})
}

func (s *CartService) RemoveItem(ctx context.Context, sessionID, productID string) (*cart.Cart, error) {
	return s.mutate(ctx, sessionID, func(c *cart.Cart) error {
		c.RemoveItem(productID)
		return nil
	})
}

func (s *CartService) UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) (*cart.Cart, error) {
	return s.mutate(ctx, sessionID, func(c *cart.Cart) error {
		c.UpdateQuantity(productID, quantity)
		return nil
	})
}

func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	if err := checkSession(sessionID); err != nil {
		return err
	}
	unlock := s.locks.Lock(sessionID)
	defer unlock()
	return s.repo.Delete(ctx, sessionID)
}

// CheckoutCart 讀取 -> place -> 清空，整段持有 session 鎖
// place 回傳錯誤時購物車不動；清空失敗只記錄，訂單已成立
func (s *CartService) CheckoutCart(ctx context.Context, sessionID string, place func(items []cart.Item) error) error {
	if err := checkSession(sessionID); err != nil {
		return err
	}
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	c, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := place(c.Items()); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, sessionID); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("clear cart after checkout failed")
	}
	return nil
}
