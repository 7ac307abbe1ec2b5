package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/cart"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type staticProducts map[string]*model.Product

func (s staticProducts) Get(ctx context.Context, id string) (*model.Product, error) {
	p, ok := s[id]
	if !ok {
		return nil, apperr.NotFound("product not found")
	}
	cp := *p
	return &cp, nil
}

func newCartServiceForTest(t *testing.T) (*CartService, staticProducts) {
	repo, _ := newTestCartRepo(t)
	products := staticProducts{
		"p1": {ProductID: "p1", NameEn: "Necklace", Price: decimal.NewFromInt(2500), Images: []string{"https://img/1.jpg"}, InStock: true, StockCount: 1},
		"p2": {ProductID: "p2", NameEn: "Bracelet", Price: decimal.NewFromInt(1800), InStock: true, StockCount: 1},
		"p3": {ProductID: "p3", NameEn: "Sold out", Price: decimal.NewFromInt(100), InStock: false},
	}
	return NewCartService(repo, products), products
}

func TestCartServiceAddTwiceMerges(t *testing.T) {
	svc, _ := newCartServiceForTest(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", "p1")
	require.NoError(t, err)
	c, err := svc.AddItem(ctx, "s1", "p1")
	require.NoError(t, err)
	require.Len(t, c.Items(), 1)
	require.Equal(t, 2, c.ItemCount())

	// 重新讀取仍然一致
	c, err = svc.GetCart(ctx, "s1")
	require.NoError(t, err)
	item, ok := c.Item("p1")
	require.True(t, ok)
	require.Equal(t, 2, item.Quantity)
	require.Equal(t, "https://img/1.jpg", item.Image)
	require.True(t, decimal.NewFromInt(5000).Equal(c.TotalPrice()))
}

func TestCartServiceSnapshotPrice(t *testing.T) {
	svc, products := newCartServiceForTest(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", "p2")
	require.NoError(t, err)
	products["p2"].Price = decimal.NewFromInt(9999)

	c, err := svc.GetCart(ctx, "s1")
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(1800).Equal(c.TotalPrice()))
}

func TestCartServiceUpdateAndRemove(t *testing.T) {
	svc, _ := newCartServiceForTest(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", "p1")
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "s1", "p2")
	require.NoError(t, err)

	c, err := svc.UpdateQuantity(ctx, "s1", "p1", 5)
	require.NoError(t, err)
	require.Equal(t, 6, c.ItemCount())

	c, err = svc.UpdateQuantity(ctx, "s1", "p1", 0)
	require.NoError(t, err)
	_, ok := c.Item("p1")
	require.False(t, ok)

	c, err = svc.RemoveItem(ctx, "s1", "p2")
	require.NoError(t, err)
	require.True(t, c.IsEmpty())

	c, err = svc.GetCart(ctx, "s1")
	require.NoError(t, err)
	require.True(t, c.IsEmpty())
}

func TestCartServiceRejects(t *testing.T) {
	svc, _ := newCartServiceForTest(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", "missing")
	require.True(t, apperr.IsCode(err, apperr.NotFoundCode))

	_, err = svc.GetCart(ctx, " ")
	require.True(t, apperr.IsCode(err, apperr.BadRequestCode))
}

// 庫存只是顯示用，缺貨商品照樣可以加入
func TestCartServiceAddsOutOfStock(t *testing.T) {
	svc, _ := newCartServiceForTest(t)
	ctx := context.Background()

	c, err := svc.AddItem(ctx, "s1", "p3")
	require.NoError(t, err)
	require.Equal(t, 1, c.ItemCount())
	require.Equal(t, "p3", c.Items()[0].ProductID)
}

func TestCartServiceCheckout(t *testing.T) {
	svc, _ := newCartServiceForTest(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", "p1")
	require.NoError(t, err)

	// place 失敗時購物車不動
	placeErr := errors.New("persist failed")
	err = svc.CheckoutCart(ctx, "s1", func(items []cart.Item) error {
		require.Len(t, items, 1)
		return placeErr
	})
	require.ErrorIs(t, err, placeErr)
	c, err := svc.GetCart(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, 1, c.ItemCount())

	// 結帳期間的加入要等結帳完成，不會被清空吃掉
	var added atomic.Bool
	addDone := make(chan error, 1)
	err = svc.CheckoutCart(ctx, "s1", func(items []cart.Item) error {
		require.Len(t, items, 1)
		go func() {
			_, err := svc.AddItem(ctx, "s1", "p2")
			added.Store(true)
			addDone <- err
		}()
		require.Never(t, added.Load, 50*time.Millisecond, 5*time.Millisecond)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, <-addDone)

	c, err = svc.GetCart(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, c.Items(), 1)
	require.Equal(t, "p2", c.Items()[0].ProductID)
	require.Zero(t, svc.locks.size())
}

func TestCartServiceCorruptIsEmpty(t *testing.T) {
	repo, mr := newTestCartRepo(t)
	svc := NewCartService(repo, staticProducts{})
	require.NoError(t, mr.Set("cart:s1:items", "not-json"))

	c, err := svc.GetCart(context.Background(), "s1")
	require.NoError(t, err)
	require.True(t, c.IsEmpty())
}

func TestCartServiceClear(t *testing.T) {
	svc, _ := newCartServiceForTest(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", "p1")
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "s2", "p1")
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, "s1"))

	c, err := svc.GetCart(ctx, "s1")
	require.NoError(t, err)
	require.True(t, c.IsEmpty())

	c, err = svc.GetCart(ctx, "s2")
	require.NoError(t, err)
	require.Equal(t, 1, c.ItemCount())
}

// 同一個 session 的並行加入不能遺失
func TestCartServiceConcurrentAdds(t *testing.T) {
	svc, _ := newCartServiceForTest(t)
	ctx := context.Background()

	const n = 30
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(ctx, "s1", "p1")
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	c, err := svc.GetCart(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, n, c.ItemCount())
	require.Zero(t, svc.locks.size())
}
