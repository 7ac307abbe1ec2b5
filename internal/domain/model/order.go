package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"    // 待處理
	OrderStatusConfirmed  OrderStatus = "confirmed"  // 已確認
	OrderStatusProcessing OrderStatus = "processing" // 處理中
	OrderStatusShipped    OrderStatus = "shipped"    // 已出貨
	OrderStatusDelivered  OrderStatus = "delivered"  // 已送達
	OrderStatusCancelled  OrderStatus = "cancelled"  // 已取消
)

var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Terminal delivered 與 cancelled 之後不再有正常流轉
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// 訂單
// UserID 為 nil 代表訪客訂單
type Order struct {
	OrderID        string          `gorm:"primaryKey;type:varchar(64)" json:"order_id"`
	UserID         *string         `gorm:"type:varchar(64);index" json:"user_id"`
	CustomerName   string          `gorm:"not null;type:varchar(255)" json:"customer_name"`
	CustomerPhone  string          `gorm:"not null;type:varchar(32);index" json:"customer_phone"`
	CustomerEmail  string          `gorm:"type:varchar(255)" json:"customer_email,omitempty"`
	Address        string          `gorm:"not null;type:text" json:"address"`
	City           string          `gorm:"not null;type:varchar(100)" json:"city"`
	Courier        string          `gorm:"not null;type:varchar(32)" json:"courier"`
	PaymentMethod  string          `gorm:"not null;type:varchar(32)" json:"payment_method"`
	Subtotal       decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"subtotal"`
	DeliveryCharge decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"delivery_charge"`
	Total          decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"total"`
	Status         OrderStatus     `gorm:"not null;type:varchar(20);default:'pending';index" json:"status"`
	Notes          string          `gorm:"type:text" json:"notes,omitempty"`
	OrderItems     []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items"` // 一對多，級聯刪除
	CreatedAt      time.Time       `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// 訂單項目為下單當下的商品快照，不關聯 Product
type OrderItem struct {
	ID        uint            `gorm:"primaryKey;autoIncrement" json:"-"`
	OrderID   string          `gorm:"not null;type:varchar(64);index" json:"order_id"`
	ProductID string          `gorm:"not null;type:varchar(64)" json:"product_id"`
	NameEn    string          `gorm:"not null;type:varchar(255)" json:"name_en"`
	NameBn    string          `gorm:"type:varchar(255)" json:"name_bn"`
	Price     decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"price"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Image     string          `gorm:"type:text" json:"image"`
}

func (i OrderItem) Amount() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type OrderFilter struct {
	Query  string
	Status OrderStatus
	Limit  int
	Offset int
}

type OrderStats struct {
	Total            int                 `json:"total"`
	ByStatus         map[OrderStatus]int `json:"by_status"`
	DeliveredRevenue decimal.Decimal     `json:"delivered_revenue"`
}
