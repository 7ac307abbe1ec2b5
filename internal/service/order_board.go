package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	evt_model "github.com/RoyceAzure/lab/storefront/internal/domain/model/event"
	"github.com/RoyceAzure/lab/storefront/internal/feed"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/rs/zerolog/log"
)

// OrderBoard 後台目前的訂單列表
// 每收到一個 orders 訊號就整份重抓，不做差異合併
type OrderBoard struct {
	repo      db.IOrderRepository
	hub       *feed.Hub
	orders    atomic.Pointer[[]model.Order]
	refreshed atomic.Int64

	isRunning     atomic.Bool
	mu            sync.Mutex
	stopCtxCancel context.CancelFunc
	done          chan struct{}
}

var _ BackGroundService = (*OrderBoard)(nil)

func NewOrderBoard(repo db.IOrderRepository, hub *feed.Hub) *OrderBoard {
	if repo == nil {
		panic("order board dependency order repo is nil")
	}
	if hub == nil {
		panic("order board dependency hub is nil")
	}
	b := &OrderBoard{repo: repo, hub: hub}
	empty := []model.Order{}
	b.orders.Store(&empty)
	return b
}

func (b *OrderBoard) Refresh(ctx context.Context) error {
	orders, err := b.repo.GetAllOrders(ctx)
	if err != nil {
		return fmt.Errorf("refresh order board: %w", err)
	}
	b.orders.Store(&orders)
	b.refreshed.Add(1)
	return nil
}

// Orders 回傳副本
func (b *OrderBoard) Orders() []model.Order {
	cur := *b.orders.Load()
	out := make([]model.Order, len(cur))
	copy(out, cur)
	return out
}

func (b *OrderBoard) Filter(filter model.OrderFilter) []model.Order {
	return Paginate(FilterOrders(*b.orders.Load(), filter), filter.Limit, filter.Offset)
}

func (b *OrderBoard) Stats() model.OrderStats {
	return ComputeStats(*b.orders.Load())
}

// RefreshCount 供觀察重抓次數
func (b *OrderBoard) RefreshCount() int64 {
	return b.refreshed.Load()
}

func (b *OrderBoard) Start() error {
	if !b.isRunning.CompareAndSwap(false, true) {
		return fmt.Errorf("order board is already running")
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	b.mu.Lock()
	b.stopCtxCancel = cancel
	b.done = done
	b.mu.Unlock()

	if err := b.Refresh(ctx); err != nil {
		log.Error().Err(err).Msg("initial order board load failed")
	}

	go func() {
		defer close(done)
		defer b.isRunning.Store(false)
		b.hub.Watch(ctx, func(ctx context.Context, e *evt_model.ChangeEvent) {
			if err := b.Refresh(ctx); err != nil {
				log.Error().Err(err).Msg("order board refresh on signal failed")
			}
		}, evt_model.TableOrders)
	}()
	return nil
}

func (b *OrderBoard) Stop(timeout time.Duration) error {
	b.mu.Lock()
	cancel, done := b.stopCtxCancel, b.done
	b.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("order board stop timeout")
	}
}
