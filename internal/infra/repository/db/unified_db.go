package db

import (
	"context"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
)

// IProductRepository Product 相關操作介面
type IProductRepository interface {
	CreateProduct(ctx context.Context, product *model.Product) error
	GetProductByID(ctx context.Context, productID string) (*model.Product, error)
	GetAllProducts(ctx context.Context) ([]model.Product, error)
	UpdateProduct(ctx context.Context, product *model.Product) error
	HardDeleteProduct(ctx context.Context, id string) error
}

// IOrderRepository Order 相關操作介面
type IOrderRepository interface {
	CreateOrderWithItems(ctx context.Context, order *model.Order) error
	GetOrderByID(ctx context.Context, id string) (*model.Order, error)
	GetOrdersByUserID(ctx context.Context, userID string) ([]model.Order, error)
	GetAllOrders(ctx context.Context) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) error
	HardDeleteOrder(ctx context.Context, id string) error
}

// ISettingsRepository Setting 相關操作介面
type ISettingsRepository interface {
	GetAllSettings(ctx context.Context) ([]model.Setting, error)
	UpsertSetting(ctx context.Context, key, value string) error
	CreateSettingsIfNotExist(ctx context.Context, kv map[string]string) error
}

var (
	_ IProductRepository  = (*ProductRepo)(nil)
	_ IOrderRepository    = (*OrderRepo)(nil)
	_ ISettingsRepository = (*SettingsRepo)(nil)
)
