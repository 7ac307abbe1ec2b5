package dto

import (
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/cart"
	"github.com/RoyceAzure/lab/storefront/internal/domain/checkout"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/shopspring/decimal"
)

// TokenInfo 表示令牌資訊
type TokenInfo struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
	ExpiresIn int       `json:"expires_in"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken TokenInfo  `json:"access_token"`
	User        model.User `json:"user"`
}

type CartItemDTO struct {
	ProductID string          `json:"product_id"`
	NameEn    string          `json:"name_en"`
	NameBn    string          `json:"name_bn"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
	Amount    decimal.Decimal `json:"amount"`
}

type CartDTO struct {
	SessionID  string          `json:"session_id"`
	Items      []CartItemDTO   `json:"items"`
	ItemCount  int             `json:"item_count"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

func ConvertCart(sessionID string, c *cart.Cart) CartDTO {
	items := c.Items()
	out := CartDTO{
		SessionID:  sessionID,
		Items:      make([]CartItemDTO, 0, len(items)),
		ItemCount:  c.ItemCount(),
		TotalPrice: c.TotalPrice(),
	}
	for _, item := range items {
		out.Items = append(out.Items, CartItemDTO{
			ProductID: item.ProductID,
			NameEn:    item.NameEn,
			NameBn:    item.NameBn,
			Price:     item.Price,
			Image:     item.Image,
			Quantity:  item.Quantity,
			Amount:    item.Amount(),
		})
	}
	return out
}

type AddCartItemRequest struct {
	ProductID string `json:"product_id"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type PaymentMethodDTO struct {
	checkout.PaymentMethod
	Enabled bool `json:"enabled"`
}

type CategoryDTO struct {
	ID    model.Category `json:"id"`
	Count int            `json:"count"`
}

type ProductListResponse struct {
	Products []model.Product `json:"products"`
	Total    int             `json:"total"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

type OrderListResponse struct {
	Orders []model.Order `json:"orders"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

type DashboardResponse struct {
	Stats        model.OrderStats `json:"stats"`
	RecentOrders []model.Order    `json:"recent_orders"`
	ProductCount int              `json:"product_count"`
	OutOfStock   int              `json:"out_of_stock"`
}

type FeedMessage struct {
	Table string    `json:"table"`
	Op    string    `json:"op"`
	Key   string    `json:"key,omitempty"`
	At    time.Time `json:"at"`
}
