package service

import (
	"context"
	"errors"
	"strings"

	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/domain/cart"
	"github.com/RoyceAzure/lab/storefront/internal/domain/checkout"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	evt_model "github.com/RoyceAzure/lab/storefront/internal/domain/model/event"
	"github.com/RoyceAzure/lab/storefront/internal/feed"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/rs/zerolog/log"
)

type PaymentAvailability interface {
	PaymentEnabled(method string) bool
}

type IOrderService interface {
	Quote(ctx context.Context, sessionID, courier string) (checkout.Quote, error)
	CreateOrder(ctx context.Context, sessionID string, user *model.User, in checkout.Input) (*model.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status string) error
	ListOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, int, error)
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
	GetUserOrders(ctx context.Context, userID string) ([]model.Order, error)
	TrackOrder(ctx context.Context, orderID, phone string) (*model.Order, error)
	DeleteOrder(ctx context.Context, orderID string) error
	Stats(ctx context.Context) (model.OrderStats, error)
}

type OrderService struct {
	orderRepo  db.IOrderRepository
	carts      ICartService
	payments   PaymentAvailability
	calculator *checkout.Calculator
	publisher  feed.Publisher
	ids        *OrderIDGenerator
}

var _ IOrderService = (*OrderService)(nil)

func NewOrderService(orderRepo db.IOrderRepository, carts ICartService, payments PaymentAvailability, publisher feed.Publisher) *OrderService {
	if orderRepo == nil {
		panic("order service dependency order repo is nil")
	}
	if carts == nil {
		panic("order service dependency cart service is nil")
	}
	if payments == nil {
		panic("order service dependency payment availability is nil")
	}
	return &OrderService{
		orderRepo:  orderRepo,
		carts:      carts,
		payments:   payments,
		calculator: checkout.NewCalculator(),
		publisher:  publisher,
		ids:        NewOrderIDGenerator(),
	}
}

func (s *OrderService) cartItems(ctx context.Context, sessionID string) ([]cart.Item, error) {
	c, err := s.carts.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return c.Items(), nil
}

func (s *OrderService) Quote(ctx context.Context, sessionID, courier string) (checkout.Quote, error) {
	items, err := s.cartItems(ctx, sessionID)
	if err != nil {
		return checkout.Quote{}, err
	}
	q, err := s.calculator.Quote(items, courier)
	if err != nil {
		if errors.Is(err, checkout.ErrUnknownCourier) {
			return checkout.Quote{}, apperr.Validation(map[string]string{"courier": "unknown courier"})
		}
		return checkout.Quote{}, err
	}
	return q, nil
}

// CreateOrder 驗證 -> 計價 -> 單一 transaction 寫入 -> 清空購物車 -> 發出訊號
// 整段持有購物車的 session 鎖；任何驗證失敗都不會建立訂單
func (s *OrderService) CreateOrder(ctx context.Context, sessionID string, user *model.User, in checkout.Input) (*model.Order, error) {
	var order *model.Order
	err := s.carts.CheckoutCart(ctx, sessionID, func(items []cart.Item) error {
		var err error
		order, err = s.placeOrder(ctx, items, user, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	publishChange(ctx, s.publisher, evt_model.TableOrders, evt_model.OpInsert, order.OrderID)
	log.Info().
		Str("order_id", order.OrderID).
		Str("total", order.Total.String()).
		Int("items", len(order.OrderItems)).
		Msg("order created")
	return order, nil
}

func (s *OrderService) placeOrder(ctx context.Context, items []cart.Item, user *model.User, in checkout.Input) (*model.Order, error) {
	in, err := s.calculator.Validate(items, in)
	var verr *checkout.ValidationError
	if err != nil && !errors.As(err, &verr) {
		return nil, err
	}
	fields := map[string]string{}
	if verr != nil {
		for k, v := range verr.Fields {
			fields[k] = v
		}
	}
	if _, bad := fields["payment_method"]; !bad && in.PaymentMethod != "" && !s.payments.PaymentEnabled(in.PaymentMethod) {
		fields["payment_method"] = "payment method is not available"
	}
	if len(fields) > 0 {
		return nil, apperr.Validation(fields)
	}

	quote, err := s.calculator.Quote(items, in.Courier)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		OrderID:        s.ids.Next(),
		CustomerName:   in.CustomerName,
		CustomerPhone:  in.CustomerPhone,
		CustomerEmail:  in.CustomerEmail,
		Address:        in.Address,
		City:           in.City,
		Courier:        quote.Courier,
		PaymentMethod:  in.PaymentMethod,
		Subtotal:       quote.Subtotal,
		DeliveryCharge: quote.DeliveryCharge,
		Total:          quote.Total,
		Status:         model.OrderStatusPending,
		Notes:          in.Notes,
		OrderItems:     make([]model.OrderItem, 0, len(items)),
	}
	if user != nil && user.ID != "" {
		uid := user.ID
		order.UserID = &uid
	}
	for _, item := range items {
		order.OrderItems = append(order.OrderItems, model.OrderItem{
			ProductID: item.ProductID,
			NameEn:    item.NameEn,
			NameBn:    item.NameBn,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Image:     item.Image,
		})
	}

	if err := s.orderRepo.CreateOrderWithItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateStatus 只檢查狀態值合法，不限制流轉方向
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, status string) error {
	st := model.OrderStatus(strings.ToLower(strings.TrimSpace(status)))
	if !st.Valid() {
		return apperr.Validation(map[string]string{"status": "unknown order status"})
	}
	if err := s.orderRepo.UpdateOrderStatus(ctx, orderID, st); err != nil {
		if errors.Is(err, db.ErrOrderNotFound) {
			return apperr.NotFound("order not found")
		}
		return err
	}
	publishChange(ctx, s.publisher, evt_model.TableOrders, evt_model.OpUpdate, orderID)
	return nil
}

// ListOrders 取全部後在記憶體過濾，回傳分頁結果與過濾後總數
func (s *OrderService) ListOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, int, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, apperr.Validation(map[string]string{"status": "unknown order status"})
	}
	if filter.Limit > constants.MaxOrderPageSize {
		filter.Limit = constants.MaxOrderPageSize
	}
	orders, err := s.orderRepo.GetAllOrders(ctx)
	if err != nil {
		return nil, 0, err
	}
	filtered := FilterOrders(orders, filter)
	return Paginate(filtered, filter.Limit, filter.Offset), len(filtered), nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	o, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, db.ErrOrderNotFound) {
			return nil, apperr.NotFound("order not found")
		}
		return nil, err
	}
	return o, nil
}

// GetUserOrders 訪客訂單永遠不會出現
func (s *OrderService) GetUserOrders(ctx context.Context, userID string) ([]model.Order, error) {
	if userID == "" {
		return []model.Order{}, nil
	}
	return s.orderRepo.GetOrdersByUserID(ctx, userID)
}

// TrackOrder 電話不符與訂單不存在回傳相同錯誤
func (s *OrderService) TrackOrder(ctx context.Context, orderID, phone string) (*model.Order, error) {
	phone = normalizePhone(phone)
	if phone == "" {
		return nil, apperr.Validation(map[string]string{"phone": "is required"})
	}
	o, err := s.orderRepo.GetOrderByID(ctx, strings.TrimSpace(orderID))
	if err != nil {
		if errors.Is(err, db.ErrOrderNotFound) {
			return nil, apperr.NotFound("order not found")
		}
		return nil, err
	}
	if normalizePhone(o.CustomerPhone) != phone {
		return nil, apperr.NotFound("order not found")
	}
	return o, nil
}

func (s *OrderService) DeleteOrder(ctx context.Context, orderID string) error {
	if err := s.orderRepo.HardDeleteOrder(ctx, orderID); err != nil {
		if errors.Is(err, db.ErrOrderNotFound) {
			return apperr.NotFound("order not found")
		}
		return err
	}
	publishChange(ctx, s.publisher, evt_model.TableOrders, evt_model.OpDelete, orderID)
	return nil
}

func (s *OrderService) Stats(ctx context.Context) (model.OrderStats, error) {
	orders, err := s.orderRepo.GetAllOrders(ctx)
	if err != nil {
		return model.OrderStats{}, err
	}
	return ComputeStats(orders), nil
}
