package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	evt_model "github.com/RoyceAzure/lab/storefront/internal/domain/model/event"
	"github.com/RoyceAzure/lab/storefront/internal/infra/media"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db/dbtest"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_repo"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*evt_model.ChangeEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, e *evt_model.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) tables() []evt_model.Table {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]evt_model.Table, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Table)
	}
	return out
}

func (p *recordingPublisher) last() *evt_model.ChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return nil
	}
	return p.events[len(p.events)-1]
}

type fakeImageStore struct {
	mu        sync.Mutex
	uploads   int
	destroyed []string
	uploadErr error
}

func (s *fakeImageStore) Upload(ctx context.Context, r io.Reader, name string) (media.UploadResult, error) {
	if s.uploadErr != nil {
		return media.UploadResult{}, s.uploadErr
	}
	if _, err := io.ReadAll(r); err != nil {
		return media.UploadResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads++
	return media.UploadResult{
		URL:      fmt.Sprintf("https://cdn.test/%s.png", name),
		PublicID: "products/" + name,
	}, nil
}

func (s *fakeImageStore) Destroy(ctx context.Context, publicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyed = append(s.destroyed, publicID)
	return nil
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")

func newTestCartRepo(t *testing.T) (*redis_repo.CartRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return redis_repo.NewCartRepo(client, time.Hour), mr
}

func productInput(name string, price int64, stock int, category model.Category) ProductInput {
	return ProductInput{
		NameEn:     name,
		NameBn:     name + " বাংলা",
		Price:      decimal.NewFromInt(price),
		Category:   category,
		StockCount: stock,
	}
}

// testEnv 各 service 共用同一個 sqlite 與 miniredis
type testEnv struct {
	dao       *db.DbDao
	publisher *recordingPublisher
	images    *fakeImageStore
	catalog   *CatalogService
	carts     *CartService
	settings  *SettingsStore
	orders    *OrderService
	orderRepo *db.OrderRepo
	mr        *miniredis.Miniredis
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dao := dbtest.NewDao(t)
	cartRepo, mr := newTestCartRepo(t)
	pub := &recordingPublisher{}
	images := &fakeImageStore{}

	catalog := NewCatalogService(db.NewProductRepo(dao), images, pub, nil, 4)
	carts := NewCartService(cartRepo, catalog)
	settings := NewSettingsStore(db.NewSettingsRepo(dao), pub, nil)
	require.NoError(t, settings.Load(context.Background(), nil))
	orderRepo := db.NewOrderRepo(dao)
	orders := NewOrderService(orderRepo, carts, settings, pub)

	return &testEnv{
		dao:       dao,
		publisher: pub,
		images:    images,
		catalog:   catalog,
		carts:     carts,
		settings:  settings,
		orders:    orders,
		orderRepo: orderRepo,
		mr:        mr,
	}
}
