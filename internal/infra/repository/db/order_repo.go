package db

import (
	"context"
	"errors"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrEmptyOrder    = errors.New("order has no items")
)

type OrderRepo struct {
	db *DbDao
}

func NewOrderRepo(db *DbDao) *OrderRepo {
	return &OrderRepo{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

// CreateOrderWithItems 訂單主檔與項目在同一個 transaction 寫入
// 任一失敗則全部 rollback
func (s *OrderRepo) CreateOrderWithItems(ctx context.Context, order *model.Order) error {
	if len(order.OrderItems) == 0 {
		return ErrEmptyOrder
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("OrderItems").Create(order).Error; err != nil {
			return err
		}
		for i := range order.OrderItems {
			order.OrderItems[i].OrderID = order.OrderID
		}
		return tx.Create(&order.OrderItems).Error
	})
}

func (s *OrderRepo) GetOrderByID(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).Preload("OrderItems", preloadItems).Where("order_id = ?", id).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// GetAllOrders 依建立時間新到舊
func (s *OrderRepo) GetAllOrders(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	err := s.db.WithContext(ctx).Preload("OrderItems", preloadItems).
		Order("created_at DESC").Order("order_id DESC").
		Find(&orders).Error
	return orders, err
}

// GetOrdersByUserID 訪客訂單 user_id 為 NULL，不會被查到
func (s *OrderRepo) GetOrdersByUserID(ctx context.Context, userID string) ([]model.Order, error) {
	var orders []model.Order
	err := s.db.WithContext(ctx).Preload("OrderItems", preloadItems).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("order_id DESC").
		Find(&orders).Error
	return orders, err
}

func (s *OrderRepo) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) error {
	res := s.db.WithContext(ctx).Model(&model.Order{}).Where("order_id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// HardDeleteOrder 明確刪除項目，不依賴 DB 的 cascade 設定
func (s *OrderRepo) HardDeleteOrder(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("order_id = ?", id).Delete(&model.Order{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrOrderNotFound
		}
		return nil
	})
}
