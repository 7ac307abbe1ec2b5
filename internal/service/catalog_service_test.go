package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	evt_model "github.com/RoyceAzure/lab/storefront/internal/domain/model/event"
	"github.com/RoyceAzure/lab/storefront/internal/feed"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db/dbtest"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestCatalogCreateAndViews(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ring, err := env.catalog.CreateProduct(ctx, productInput("Silver Ring", 1200, 3, model.CategoryJewelry))
	require.NoError(t, err)
	require.True(t, ring.InStock)
	require.NotEmpty(t, ring.ProductID)

	_, err = env.catalog.CreateProduct(ctx, productInput("Tote Bag", 800, 0, model.CategoryAccessories))
	require.NoError(t, err)
	scarf, err := env.catalog.CreateProduct(ctx, productInput("Silk Scarf", 1500, 5, model.CategoryClothing))
	require.NoError(t, err)

	require.Len(t, env.catalog.All(), 3)

	featured := env.catalog.Featured(0)
	require.Len(t, featured, 2)
	require.Equal(t, scarf.ProductID, featured[0].ProductID)
	require.Len(t, env.catalog.Featured(1), 1)

	jewelry := env.catalog.ByCategory(model.CategoryJewelry)
	require.Len(t, jewelry, 1)
	require.Equal(t, ring.ProductID, jewelry[0].ProductID)

	got, err := env.catalog.Get(ctx, ring.ProductID)
	require.NoError(t, err)
	require.Equal(t, "Silver Ring", got.NameEn)

	_, err = env.catalog.Get(ctx, "missing")
	require.True(t, apperr.IsCode(err, apperr.NotFoundCode))

	require.Equal(t, []evt_model.Table{evt_model.TableProducts, evt_model.TableProducts, evt_model.TableProducts}, env.publisher.tables())
}

func TestCatalogSearch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	in := productInput("Gold Necklace", 2500, 2, model.CategoryJewelry)
	in.Rating = 4.5
	_, err := env.catalog.CreateProduct(ctx, in)
	require.NoError(t, err)

	in = productInput("Pearl Earrings", 900, 0, model.CategoryJewelry)
	in.Rating = 4.9
	_, err = env.catalog.CreateProduct(ctx, in)
	require.NoError(t, err)

	in = productInput("Leather Wallet", 1800, 4, model.CategoryAccessories)
	in.NameBn = "চামড়ার ওয়ালেট"
	_, err = env.catalog.CreateProduct(ctx, in)
	require.NoError(t, err)

	min := decimal.NewFromInt(1000)
	max := decimal.NewFromInt(2000)

	testCases := []struct {
		name  string
		query ProductQuery
		want  []string
	}{
		{name: "text case insensitive", query: ProductQuery{Query: "NECK"}, want: []string{"Gold Necklace"}},
		{name: "bangla name", query: ProductQuery{Query: "চামড়া"}, want: []string{"Leather Wallet"}},
		{name: "category", query: ProductQuery{Category: model.CategoryJewelry, Sort: SortPriceAsc}, want: []string{"Pearl Earrings", "Gold Necklace"}},
		{name: "in stock", query: ProductQuery{InStockOnly: true, Sort: SortPriceDesc}, want: []string{"Gold Necklace", "Leather Wallet"}},
		{name: "price range", query: ProductQuery{MinPrice: &min, MaxPrice: &max}, want: []string{"Leather Wallet"}},
		{name: "rating", query: ProductQuery{Sort: SortRating}, want: []string{"Pearl Earrings", "Gold Necklace", "Leather Wallet"}},
		{name: "newest", query: ProductQuery{}, want: []string{"Leather Wallet", "Pearl Earrings", "Gold Necklace"}},
		{name: "no match", query: ProductQuery{Query: "zzz"}, want: []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := env.catalog.Search(tc.query)
			names := make([]string, 0, len(got))
			for _, p := range got {
				names = append(names, p.NameEn)
			}
			require.Equal(t, tc.want, names)
		})
	}
}

func TestParseProductSort(t *testing.T) {
	s, ok := ParseProductSort("")
	require.True(t, ok)
	require.Equal(t, SortNewest, s)

	s, ok = ParseProductSort("price_desc")
	require.True(t, ok)
	require.Equal(t, SortPriceDesc, s)

	_, ok = ParseProductSort("popularity")
	require.False(t, ok)
}

func TestCatalogCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	in := productInput("  ", 0, -1, "hats")
	neg := decimal.NewFromInt(-5)
	in.OriginalPrice = &neg

	_, err := env.catalog.CreateProduct(ctx, in)
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, apperr.BadRequestCode, appErr.Code)
	for _, f := range []string{"name_en", "price", "stock_count", "category", "original_price"} {
		require.Contains(t, appErr.Fields, f)
	}
	require.Empty(t, env.catalog.All())
	require.Empty(t, env.publisher.tables())
}

// 價格必須可以原樣存入 decimal(10,2)
func TestCatalogPricePrecision(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	testCases := []struct {
		name  string
		price string
		want  string
	}{
		{name: "sub paisa", price: "0.001", want: model.ErrPriceScale.Error()},
		{name: "three decimals", price: "12.345", want: model.ErrPriceScale.Error()},
		{name: "column overflow", price: "100000000", want: model.ErrPriceTooLarge.Error()},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			in := productInput("Ring", 1, 1, model.CategoryJewelry)
			in.Price = decimal.RequireFromString(tc.price)

			_, err := env.catalog.CreateProduct(ctx, in)
			var appErr *apperr.Error
			require.True(t, errors.As(err, &appErr))
			require.Equal(t, tc.want, appErr.Fields["price"])
		})
	}

	in := productInput("Ring", 1, 1, model.CategoryJewelry)
	in.Price = decimal.RequireFromString("99999999.99")
	p, err := env.catalog.CreateProduct(ctx, in)
	require.NoError(t, err)
	require.True(t, p.Price.Equal(in.Price))
	require.Len(t, env.catalog.All(), 1)
}

func TestCatalogUpdateKeepsImages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	in := productInput("Bangle", 700, 1, model.CategoryJewelry)
	in.Images = []string{"https://cdn.test/a.png"}
	p, err := env.catalog.CreateProduct(ctx, in)
	require.NoError(t, err)

	up := productInput("Bangle Set", 750, 0, model.CategoryJewelry)
	updated, err := env.catalog.UpdateProduct(ctx, p.ProductID, up)
	require.NoError(t, err)
	require.Equal(t, []string{"https://cdn.test/a.png"}, updated.Images)
	require.False(t, updated.InStock)

	got, err := env.catalog.Get(ctx, p.ProductID)
	require.NoError(t, err)
	require.Equal(t, "Bangle Set", got.NameEn)
	require.Len(t, env.catalog.All(), 1)

	_, err = env.catalog.UpdateProduct(ctx, "missing", up)
	require.True(t, apperr.IsCode(err, apperr.NotFoundCode))
}

func TestCatalogAttachImageAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.catalog.CreateProduct(ctx, productInput("Anklet", 500, 1, model.CategoryJewelry))
	require.NoError(t, err)

	p, err = env.catalog.AttachImage(ctx, p.ProductID, bytes.NewReader(pngBytes))
	require.NoError(t, err)
	require.Len(t, p.Images, 1)
	require.Equal(t, p.Images[0], p.PrimaryImage())
	require.Equal(t, 1, env.images.uploads)

	_, err = env.catalog.AttachImage(ctx, p.ProductID, bytes.NewReader([]byte("plain text")))
	require.True(t, apperr.IsCode(err, apperr.BadRequestCode))
	require.Equal(t, 1, env.images.uploads)

	require.NoError(t, env.catalog.DeleteProduct(ctx, p.ProductID))
	require.Len(t, env.images.destroyed, 1)
	require.Empty(t, env.catalog.All())

	err = env.catalog.DeleteProduct(ctx, p.ProductID)
	require.True(t, apperr.IsCode(err, apperr.NotFoundCode))
}

func TestCatalogRefreshOnSignal(t *testing.T) {
	dao := dbtest.NewDao(t)
	repo := db.NewProductRepo(dao)
	hub := feed.NewHub()
	defer hub.Close()

	catalog := NewCatalogService(repo, nil, hub, hub, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		catalog.Run(ctx)
	}()
	require.Eventually(t, func() bool { return hub.SubscriberCount() == 1 }, time.Second, 5*time.Millisecond)

	// 另一個 instance 寫入
	require.NoError(t, repo.CreateProduct(ctx, &model.Product{
		ProductID:  "remote",
		NameEn:     "Remote",
		Price:      decimal.NewFromInt(10),
		Category:   model.CategoryClothing,
		StockCount: 1,
	}))
	require.Empty(t, catalog.All())

	require.NoError(t, hub.Publish(ctx, evt_model.NewChangeEvent(evt_model.TableProducts, evt_model.OpInsert, "remote")))
	require.Eventually(t, func() bool { return len(catalog.All()) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
